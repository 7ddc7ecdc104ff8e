package service

import (
	"context"
	"fmt"
	"medreminder/internal/domain/entity"
	"medreminder/internal/domain/repository"
	appErrors "medreminder/internal/pkg/errors"
	"medreminder/internal/pkg/logger"
	"sync"
)

type medicationLister struct {
	medicationRepo repository.MedicationRepository
	log            logger.Logger
}

// NewMedicationLister creates a read-only MedicationLister. Replica nodes use
// it to serve live lists without owning any reminder triggers.
func NewMedicationLister(medicationRepo repository.MedicationRepository, log logger.Logger) MedicationLister {
	return &medicationLister{medicationRepo: medicationRepo, log: log}
}

func (l *medicationLister) ListActive(ctx context.Context, ownerID string) (MedicationFeed, error) {
	return listActive(ctx, l.medicationRepo, ownerID, l.log)
}

// listActive subscribes to the owner's collection and re-emits it without
// deleted medications after every change.
func listActive(ctx context.Context, repo repository.MedicationRepository, ownerID string, log logger.Logger) (MedicationFeed, error) {
	sub, err := repo.Subscribe(ctx, ownerID)
	if err != nil {
		log.Error(fmt.Sprintf("Failed to subscribe to medications of owner %s", ownerID), err)
		return nil, fmt.Errorf("%w: %v", appErrors.ErrPersistence, err)
	}

	f := &filteredFeed{
		upstream: sub,
		out:      make(chan []*entity.Medication),
		stop:     make(chan struct{}),
	}
	go f.run()
	return f, nil
}

type filteredFeed struct {
	upstream repository.Subscription
	out      chan []*entity.Medication
	stop     chan struct{}
	once     sync.Once
}

func (f *filteredFeed) C() <-chan []*entity.Medication { return f.out }

func (f *filteredFeed) Stop() {
	f.once.Do(func() {
		close(f.stop)
		f.upstream.Stop()
	})
}

func (f *filteredFeed) run() {
	defer close(f.out)
	for snapshot := range f.upstream.C() {
		visible := make([]*entity.Medication, 0, len(snapshot))
		for _, m := range snapshot {
			if !m.IsDeleted {
				visible = append(visible, m)
			}
		}
		select {
		case f.out <- visible:
		case <-f.stop:
			return
		}
	}
}
