package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	// Application Layer
	appService "medreminder/internal/application/service"
	"medreminder/internal/domain/constant"
	"medreminder/internal/domain/repository"

	// Infrastructure Layer
	"medreminder/internal/infrastructure/database/badgerdb"
	"medreminder/internal/infrastructure/database/gormdb"
	"medreminder/internal/infrastructure/feed"
	lineClient "medreminder/internal/infrastructure/line"
	pushoverClient "medreminder/internal/infrastructure/pushover"
	"medreminder/internal/infrastructure/scheduler"

	// Interfaces Layer
	"medreminder/internal/interfaces/api/handler"
	"medreminder/internal/interfaces/api/router"

	// Packages
	"medreminder/internal/pkg/config"
	appLogger "medreminder/internal/pkg/logger"

	_ "github.com/joho/godotenv/autoload" // Automatically load .env file
)

// stores bundles the repositories of the selected driver with its closer.
type stores struct {
	medications repository.MedicationRepository
	devices     repository.DeviceRepository
	close       func() error
}

func openStores(cfg *config.Config, changes feed.Feed, log appLogger.Logger) (*stores, error) {
	switch cfg.DBDriver {
	case config.DriverBadger:
		db, err := badgerdb.Open(cfg.DBURL)
		if err != nil {
			return nil, err
		}
		return &stores{
			medications: badgerdb.NewMedicationRepository(db, changes, log),
			devices:     badgerdb.NewDeviceRepository(db),
			close:       db.Close,
		}, nil
	default:
		db, err := gormdb.NewDB(cfg.DBDriver, cfg.DBURL, log)
		if err != nil {
			return nil, err
		}
		return &stores{
			medications: gormdb.NewMedicationRepository(db, changes, log),
			devices:     gormdb.NewDeviceRepository(db),
			close:       gormdb.CloseDB,
		}, nil
	}
}

// primaryLeaseTTL bounds how long triggers can run on two nodes after a
// primary stalls without releasing its lease.
const primaryLeaseTTL = 15 * time.Second

func gracefulShutdown(apiServer *http.Server, cronScheduler *scheduler.Scheduler, lease *feed.Lease, closers []func() error, log appLogger.Logger, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var leaseLost <-chan struct{}
	if lease != nil {
		leaseLost = lease.Lost()
	}

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully, press Ctrl+C again to force")
	case <-leaseLost:
		log.Warn("Primary lease lost; shutting down so triggers do not fire twice.")
	}

	// Stop firing first; another node may already own the triggers.
	if cronScheduler != nil {
		log.Info("Stopping scheduler...")
		cronScheduler.Stop()
	}

	// Shutdown HTTP server so open streams stop their feeds.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err)
	}

	if lease != nil {
		if err := lease.Release(shutdownCtx); err != nil {
			log.Error("Error releasing primary lease", err)
		}
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Error("Error closing resource", err)
		}
	}

	log.Info("Server exiting")
	done <- true
}

// buildPrimary wires delivery providers, the trigger gateway and the write
// services, restores persisted reminders and starts the cron scheduler.
func buildPrimary(ctx context.Context, cfg *config.Config, st *stores, appLog appLogger.Logger) (*router.Config, *scheduler.Scheduler) {
	senders := make(map[constant.Provider]scheduler.Sender)
	var line *lineClient.Client
	if cfg.LineEnabled() {
		var err error
		line, err = lineClient.NewClient(cfg.LineChannelSecret, cfg.LineChannelToken, appLog)
		if err != nil {
			appLog.Error("Failed to create LINE client", err)
			os.Exit(1)
		}
		senders[constant.ProviderLine] = line
	}
	if cfg.PushoverEnabled() {
		senders[constant.ProviderPushover] = pushoverClient.NewClient(cfg.PushoverAPIToken, appLog)
	}
	if len(senders) == 0 {
		appLog.Warn("No delivery provider configured; reminders will be refused as permission denied.")
	}
	providers := make([]constant.Provider, 0, len(senders))
	for p := range senders {
		providers = append(providers, p)
	}

	cronScheduler := scheduler.NewScheduler(cfg.Location, appLog)
	gateway := scheduler.NewGateway(cronScheduler, st.devices, senders, appLog)

	// --- Application Services ---
	reminderSvc := appService.NewReminderScheduler(st.medications, gateway, cfg.ReminderTitle, appLog)
	deviceSvc := appService.NewDeviceService(st.devices, providers, appLog)
	appLog.Info("Application services initialized.")

	// --- Restore Schedules ---
	appLog.Info("Restoring reminder schedules...")
	if restored, err := reminderSvc.RestoreReminders(ctx); err != nil {
		// Log the error but continue starting the server
		appLog.Error("Failed to restore reminders on startup", err)
	} else {
		appLog.Info(fmt.Sprintf("Restored %d medications, %d reminder triggers registered.", restored, gateway.Scheduled()))
	}
	cronScheduler.Start()

	// --- API Handlers ---
	routerCfg := &router.Config{
		MedicationHandler: handler.NewMedicationHandler(reminderSvc, appLog),
		DeviceHandler:     handler.NewDeviceHandler(deviceSvc, appLog),
		Logger:            appLog,
	}
	if line != nil {
		routerCfg.LineHandler = handler.NewLineHandler(line, deviceSvc, reminderSvc, appLog)
	}
	return routerCfg, cronScheduler
}

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	appLog := appLogger.New(cfg.LogMode)
	defer appLogger.Sync()
	appLog.Info("Logger initialized.")

	ctx := context.Background()
	var closers []func() error

	// --- Change Feed ---
	var changes feed.Feed = feed.NewLocal()
	var redisFeed *feed.Redis
	if cfg.RedisURL != "" {
		redisFeed, err = feed.NewRedis(ctx, cfg.RedisURL, appLog)
		if err != nil {
			appLog.Error("Failed to connect to Redis change feed", err)
			os.Exit(1)
		}
		changes = redisFeed
		closers = append(closers, redisFeed.Close)
	}

	// --- Infrastructure ---
	st, err := openStores(cfg, changes, appLog)
	if err != nil {
		appLog.Error(fmt.Sprintf("Failed to open %s store", cfg.DBDriver), err)
		os.Exit(1)
	}
	closers = append([]func() error{st.close}, closers...)
	appLog.Info("Database and repositories initialized.")

	var (
		routerCfg     *router.Config
		cronScheduler *scheduler.Scheduler
		lease         *feed.Lease
	)
	if cfg.IsReplica() {
		// Replicas hold no triggers: they list and stream what the primary writes.
		routerCfg = &router.Config{
			MedicationHandler: handler.NewReadOnlyMedicationHandler(appService.NewMedicationLister(st.medications, appLog), appLog),
			DeviceHandler:     handler.NewDeviceHandler(appService.NewDeviceService(st.devices, nil, appLog), appLog),
			Logger:            appLog,
			ReadOnly:          true,
		}
		appLog.Info("Running as replica; reminder scheduling is disabled.")
	} else {
		if redisFeed != nil {
			lease, err = redisFeed.AcquirePrimary(ctx, primaryLeaseTTL)
			if err != nil {
				appLog.Error("Another primary is running; start this node with NODE_ROLE=replica", err)
				os.Exit(1)
			}
		}
		routerCfg, cronScheduler = buildPrimary(ctx, cfg, st, appLog)
	}
	echoRouter := router.NewRouter(routerCfg)

	// --- HTTP Server ---
	apiServer := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     echoRouter,
		IdleTimeout: time.Minute,
		ReadTimeout: 10 * time.Second,
		// No WriteTimeout: /v1/medications/stream holds the response open.
	}

	// --- Start Server & Shutdown Handling ---
	done := make(chan bool, 1)
	go gracefulShutdown(apiServer, cronScheduler, lease, closers, appLog, done)

	appLog.Info(fmt.Sprintf("Server starting on port %d", cfg.Port))
	err = apiServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		appLog.Error("HTTP server ListenAndServe error", err)
		os.Exit(1)
	}

	<-done
	appLog.Info("Graceful shutdown complete.")
}
