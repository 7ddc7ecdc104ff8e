package scheduler

import (
	"context"
	"fmt"
	"medreminder/internal/domain/constant"
	"medreminder/internal/domain/entity"
	"medreminder/internal/domain/repository"
	"medreminder/internal/pkg/logger"
	"sync"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// Sender delivers one reminder to a provider-specific target.
type Sender interface {
	Send(ctx context.Context, target, title, body string) error
}

// Gateway is the notification gateway: it turns triggers into daily cron
// jobs that push to every device the owner registered.
type Gateway struct {
	cron    *Scheduler
	devices repository.DeviceRepository
	senders map[constant.Provider]Sender
	log     logger.Logger

	mu   sync.Mutex
	jobs map[string]cron.EntryID
}

// NewGateway creates a Gateway. senders holds one Sender per configured provider.
func NewGateway(
	cronScheduler *Scheduler,
	devices repository.DeviceRepository,
	senders map[constant.Provider]Sender,
	log logger.Logger,
) *Gateway {
	return &Gateway{
		cron:    cronScheduler,
		devices: devices,
		senders: senders,
		log:     log,
		jobs:    make(map[string]cron.EntryID),
	}
}

// formatCronSpec generates a daily cron spec for hour:minute.
func formatCronSpec(hour, minute int) string {
	// Seconds Minutes Hours DayOfMonth Month DayOfWeek
	return fmt.Sprintf("0 %d %d * * *", minute, hour)
}

// RequestPermission reports whether ownerID can receive reminders, that is,
// has registered a device on a provider this process can deliver to.
func (g *Gateway) RequestPermission(ctx context.Context, ownerID string) (bool, error) {
	devices, err := g.devices.FindByOwner(ctx, ownerID)
	if err != nil {
		return false, err
	}
	for _, d := range devices {
		if _, ok := g.senders[d.Provider]; ok {
			return true, nil
		}
	}
	return false, nil
}

// Schedule registers trigger for ownerID and returns its reminder id.
func (g *Gateway) Schedule(_ context.Context, ownerID string, trigger entity.Trigger) (string, error) {
	if !entity.At(trigger.Hour, trigger.Minute).Valid() {
		return "", fmt.Errorf("invalid trigger time %02d:%02d", trigger.Hour, trigger.Minute)
	}

	reminderID := uuid.NewString()
	job := func() {
		g.deliver(ownerID, trigger)
		if !trigger.Repeats {
			_ = g.Cancel(context.Background(), reminderID)
		}
	}

	// Hold the lock across AddJob so a job firing immediately cannot try to
	// cancel itself before its id is recorded.
	g.mu.Lock()
	defer g.mu.Unlock()

	entryID, err := g.cron.AddJob(formatCronSpec(trigger.Hour, trigger.Minute), job)
	if err != nil {
		return "", err
	}
	g.jobs[reminderID] = entryID
	g.log.Info(fmt.Sprintf("Scheduled reminder %s for owner %s at %02d:%02d (Job ID: %d)", reminderID, ownerID, trigger.Hour, trigger.Minute, entryID))
	return reminderID, nil
}

// Cancel removes the trigger with reminderID. Unknown ids are ignored.
func (g *Gateway) Cancel(_ context.Context, reminderID string) error {
	g.mu.Lock()
	entryID, ok := g.jobs[reminderID]
	delete(g.jobs, reminderID)
	g.mu.Unlock()

	if !ok {
		g.log.Debug(fmt.Sprintf("No scheduled reminder %s to cancel.", reminderID))
		return nil
	}
	g.cron.RemoveJob(entryID)
	g.log.Info(fmt.Sprintf("Cancelled reminder %s (Job ID: %d)", reminderID, entryID))
	return nil
}

// Scheduled returns how many triggers are currently registered.
func (g *Gateway) Scheduled() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.jobs)
}

func (g *Gateway) deliver(ownerID string, trigger entity.Trigger) {
	ctx := context.Background()
	devices, err := g.devices.FindByOwner(ctx, ownerID)
	if err != nil {
		g.log.Error(fmt.Sprintf("Failed to load devices of owner %s for reminder delivery", ownerID), err)
		return
	}

	delivered := 0
	for _, d := range devices {
		sender, ok := g.senders[d.Provider]
		if !ok {
			continue
		}
		if err := sender.Send(ctx, d.Target, trigger.Title, trigger.Body); err != nil {
			g.log.Error(fmt.Sprintf("Failed to deliver reminder to %s device %s of owner %s", d.Provider, d.ID, ownerID), err)
			continue
		}
		delivered++
	}
	if delivered == 0 {
		g.log.Warn(fmt.Sprintf("Reminder for owner %s fired but no device received it.", ownerID))
	}
}
