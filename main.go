// Package main provides the main entry point for the smsflow bulk messaging service
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/junwei-lin/smsflow/app/handlers"
	"github.com/junwei-lin/smsflow/app/middleware"
	"github.com/junwei-lin/smsflow/app/router"
	"github.com/junwei-lin/smsflow/app/scheduler"
	"github.com/junwei-lin/smsflow/app/services"
	businessflow "github.com/junwei-lin/smsflow/business_flow"
	"github.com/junwei-lin/smsflow/config"
	"github.com/junwei-lin/smsflow/models"
	"github.com/junwei-lin/smsflow/repository"
)

// Application represents the main application structure
type Application struct {
	router    *router.FiberRouter
	config    *config.ProductionConfig
	stopFuncs []func()
}

func main() {
	log.Println("Starting smsflow application...")

	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	app.router.SetupRoutes()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := app.router.Start(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-sigChan
	log.Println("Shutting down gracefully...")

	// Stop background workers
	for _, fn := range app.stopFuncs {
		fn()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.router.GetApp().ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := db.AutoMigrate(&models.LedgerEntry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate ledger schema: %w", err)
	}

	log.Printf("Database connection established with %d max open connections, %d max idle connections",
		cfg.MaxOpenConns, cfg.MaxIdleConns)

	return db, nil
}

// initializeCache initializes the Redis client and verifies connectivity
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established (db=%d)", cfg.RedisDB)
	return rc, nil
}

// startCacheHealthMonitor starts a background goroutine that periodically pings Redis
// to detect connectivity issues. The returned cancel function stops the monitor.
func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(context.Background(), 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					log.Printf("Redis healthcheck failed: %v", err)
				}
				c()
			}
		}
	}()
	return cancel
}

// initializeSender selects the send capability based on configuration
func initializeSender(cfg *config.SMSConfig) services.SendCapability {
	switch cfg.Mode {
	case "provider":
		log.Printf("SMS sending via provider %s", cfg.ProviderDomain)
		return services.NewProviderSMSSender(cfg)
	default:
		log.Printf("SMS sending simulated (success rate %.2f)", cfg.SuccessRate)
		return services.NewSimulatedSMSSender(cfg.SuccessRate)
	}
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	var stopFuncs []func()

	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}
	if rc != nil {
		cancel := startCacheHealthMonitor(context.Background(), rc, cfg.Cache.StatsTTL)
		stopFuncs = append(stopFuncs, cancel)
	}

	// Initialize repositories
	ledgerStore := repository.NewLedgerStore(db)
	accountRepo := repository.NewAccountRepository(ledgerStore)
	contactRepo := repository.NewContactRepository(ledgerStore)
	templateRepo := repository.NewTemplateRepository(ledgerStore)
	recordRepo := repository.NewSendRecordRepository(ledgerStore)
	taskRepo := repository.NewTaskRepository(ledgerStore)
	rechargeRepo := repository.NewRechargeRepository(ledgerStore)
	statsRepo := repository.NewStatsRepository(ledgerStore)

	// Initialize the send capability
	sender := initializeSender(&cfg.SMS)

	// Initialize flows
	balanceFlow := businessflow.NewBalanceFlow(accountRepo)
	retentionFlow := businessflow.NewRetentionFlow(recordRepo, cfg.Retention.Window)
	contactFlow := businessflow.NewContactFlow(contactRepo)
	templateFlow := businessflow.NewTemplateFlow(templateRepo)

	taskFlow := businessflow.NewTaskFlow(
		taskRepo,
		statsRepo,
		balanceFlow,
		retentionFlow,
		sender,
		cfg.Pricing.UnitPrice,
		cfg.SMS.SendTimeout,
		func(status models.SendStatus) {
			middleware.RecordSendOutcome(string(status))
		},
	)

	statsFlow := businessflow.NewStatsFlow(
		retentionFlow,
		statsRepo.Load,
		rc,
		cfg.Cache.RedisPrefix,
		cfg.Cache.StatsTTL,
	)

	paymentFlow := businessflow.NewPaymentFlow(&cfg.Payment, balanceFlow, rechargeRepo)

	// Initialize router with handlers
	appRouter := router.NewFiberRouter(cfg, router.Handlers{
		Tasks:    handlers.NewTaskHandler(taskFlow, contactFlow, templateFlow),
		Contacts: handlers.NewContactHandler(contactFlow),
		Template: handlers.NewTemplateHandler(templateFlow),
		Stats:    handlers.NewStatsHandler(statsFlow, retentionFlow),
		Account:  handlers.NewAccountHandler(balanceFlow, balanceFlow),
		Payment:  handlers.NewPaymentHandler(paymentFlow),
	})

	// Start the record retention sweeper
	sweeper := scheduler.NewRetentionSweeper(retentionFlow, cfg.Retention.SweepInterval, &cfg.Logging)
	stopFuncs = append(stopFuncs, sweeper.Start(context.Background()))

	// Start the deferred task scheduler
	if cfg.Scheduler.Enabled {
		sched := scheduler.NewTaskScheduler(taskFlow, cfg.Scheduler.PollInterval, &cfg.Logging)
		stopFuncs = append(stopFuncs, sched.Start(context.Background()))
	}

	fiberRouter := appRouter.(*router.FiberRouter)
	application := &Application{
		router:    fiberRouter,
		config:    cfg,
		stopFuncs: stopFuncs,
	}

	return application, nil
}
