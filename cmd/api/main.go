package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/config"
	appHTTP "github.com/cmlabs-hris/payroll-engine/internal/handler/http"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/cron"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/lock"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/metrics"
	"github.com/cmlabs-hris/payroll-engine/internal/repository/postgresql"
	challanService "github.com/cmlabs-hris/payroll-engine/internal/service/challan"
	payrollService "github.com/cmlabs-hris/payroll-engine/internal/service/payroll"
	taxService "github.com/cmlabs-hris/payroll-engine/internal/service/tax"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := run(); err != nil {
		slog.Error("payroll engine stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := appHTTP.NewLogger(cfg.App.Env, cfg.App.Version, cfg.SlogLevel())
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{MaxConns: cfg.Database.MaxConns})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if cfg.Payroll.MigrateOnStart {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
	}

	var locker lock.Locker = lock.Noop{}
	if cfg.Redis.Addr != "" {
		client, err := lock.NewClient(ctx, &redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer client.Close()
		locker = lock.NewRedisLocker(client, cfg.Payroll.RunLockTTL)
	} else {
		slog.Warn("REDIS_ADDR not set; pay runs are guarded by database row locks only")
	}

	m := metrics.New()
	tx := postgresql.NewTxManager(db)

	payrollRepo := postgresql.NewPayrollRepository(db)
	taxRepo := postgresql.NewTaxConfigurationRepository(db)
	challanRepo := postgresql.NewChallanRepository(db)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	taxSvc := taxService.NewTaxService(tx, taxRepo)
	challanSvc := challanService.NewChallanService(challanRepo, cfg.Payroll.ChallanDueDay, nil)
	payrollSvc := payrollService.NewPayrollService(
		tx,
		payrollService.Repositories{
			Settings:   payrollRepo,
			Components: payrollRepo,
			Periods:    payrollRepo,
			PayRuns:    payrollRepo,
			Payrolls:   payrollRepo,
			Audit:      payrollRepo,
			Employees:  postgresql.NewEmployeeRepository(db),
			Attendance: postgresql.NewAttendanceRepository(db),
			Leave:      postgresql.NewLeaveRequestRepository(db),
			Benefits:   postgresql.NewEnrollmentRepository(db),
		},
		taxSvc,
		challanSvc,
		locker,
		m,
		payrollService.Options{
			Workers:             cfg.Payroll.GenerateWorkers,
			DefaultJurisdiction: cfg.Payroll.DefaultJurisdiction,
		},
	)

	router := appHTTP.NewRouter(JWTService, appHTTP.Handlers{
		Payroll: appHTTP.NewPayrollHandler(payrollSvc),
		PayRun:  appHTTP.NewPayRunHandler(payrollSvc),
		Tax:     appHTTP.NewTaxHandler(taxSvc, cfg.Payroll.DefaultJurisdiction),
		Challan: appHTTP.NewChallanHandler(challanSvc),
	}, m, appHTTP.RouterOptions{
		Logger:             logger,
		AllowedOrigins:     cfg.App.AllowedOrigins,
		RateLimitPerMinute: cfg.App.RateLimitPerMinute,
		Production:         cfg.IsProduction(),
	})

	scheduler := cron.NewScheduler(ctx)
	cron.NewChallanJobs(challanSvc, nil).RegisterJobs(scheduler, cfg.Payroll.OverdueSweepInterval)
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server running", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	slog.Info("Shutting down")
	return server.Shutdown(shutdownCtx)
}
