package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/edvin/saasadmin/internal/api"
	"github.com/edvin/saasadmin/internal/config"
	"github.com/edvin/saasadmin/internal/core"
	"github.com/edvin/saasadmin/internal/db"
	"github.com/edvin/saasadmin/internal/health"
	"github.com/edvin/saasadmin/internal/logging"
	"github.com/edvin/saasadmin/internal/mailer"
	"github.com/edvin/saasadmin/internal/metrics"
	"github.com/edvin/saasadmin/internal/scheduler"
	"github.com/edvin/saasadmin/internal/storage"
)

func main() {
	if len(os.Args) >= 2 && os.Args[1] == "create-admin" {
		createAdmin(os.Args[2:])
		return
	}

	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)

	if *migrateFlag {
		logger.Info().Msg("running database migrations")
		if err := db.RunMigrations(cfg.DatabaseURL, logger); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	redisTLS, err := cfg.RedisTLS()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure redis TLS")
	}
	rdb, err := db.NewRedis(ctx, cfg.RedisURL, redisTLS)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer rdb.Close()

	reg := prometheus.DefaultRegisterer
	metrics.MustRegister(reg)
	metrics.RegisterPgxPoolMetrics(reg, pool)
	metrics.RegisterRedisPoolMetrics(reg, rdb)

	probes := []health.Probe{
		health.PingProbe("postgres", true, pool.Ping),
		health.PingProbe("redis", true, func(ctx context.Context) error { return rdb.Ping(ctx).Err() }),
	}

	var avatars core.AvatarStore
	if cfg.S3Bucket != "" {
		store := storage.NewS3Store(storage.Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		avatars = store
		probes = append(probes, health.PingProbe("object-storage", false, store.Ping))
	} else {
		logger.Warn().Msg("S3_BUCKET not set, avatar uploads are disabled")
	}

	httpClient := &http.Client{Timeout: 10 * time.Second}
	names := make([]string, 0, len(cfg.HealthTargets))
	for name := range cfg.HealthTargets {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		probes = append(probes, health.HTTPProbe(name, cfg.HealthTargets[name], httpClient))
	}

	var mail mailer.Mailer = mailer.LogMailer{Logger: logger}
	if cfg.SMTPEnabled() {
		mail = mailer.NewSMTPMailer(cfg.SMTPAddr, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	} else if !cfg.DevMode {
		logger.Warn().Msg("SMTP_ADDR not set, login codes are only logged")
	}

	services := core.NewServices(core.Deps{
		DB:      pool,
		Redis:   rdb,
		Avatars: avatars,
		Mailer:  mailer.CodeSender{Mailer: mail},
		HTTP:    httpClient,
		Logger:  logger,
		Auth: core.AuthConfig{
			JWTSecret:      cfg.JWTSecret,
			JWTIssuer:      cfg.JWTIssuer,
			JWTTTL:         cfg.JWTTTL,
			OTPTTL:         cfg.OTPTTL,
			ResendCooldown: cfg.OTPResendCooldown,
			MaxAttempts:    cfg.OTPMaxAttempts,
		},
	})

	monitor := health.NewMonitor(logger, cfg.HealthPollInterval, probes...)
	if err := monitor.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to start health monitor")
	}

	sched := scheduler.New(logger)
	for _, job := range scheduler.DefaultJobs(scheduler.Deps{
		Invoices:      services.Invoice,
		Notifications: services.Notification,
		Tickets:       services.Ticket,
		Invalidate:    services.Dashboard.Invalidate,
		Logger:        logger,
	}) {
		if err := sched.Add(job); err != nil {
			logger.Fatal().Err(err).Msg("failed to schedule job")
		}
	}
	sched.Start()

	srv := api.NewServer(logger, cfg, services, monitor, map[string]api.ReadyCheck{
		"postgres": pool.Ping,
		"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	})

	httpServer := &http.Server{
		Addr:        cfg.HTTPListenAddr,
		Handler:     srv,
		ReadTimeout: 15 * time.Second,
		// Exports and the health stream outlive a normal request.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPListenAddr).Msg("starting admin API server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	var metricsServer *http.Server
	if cfg.MetricsListenAddr != "" {
		metricsServer = metrics.NewServer(cfg.MetricsListenAddr, prometheus.DefaultGatherer)
		go func() {
			logger.Info().Str("addr", cfg.MetricsListenAddr).Msg("starting metrics server")
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("metrics server failed")
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	if metricsServer != nil {
		metricsServer.Shutdown(shutdownCtx)
	}
	sched.Stop(shutdownCtx)
	monitor.Stop()
	srv.Close(shutdownCtx)
	shutdown(logger, services, shutdownCtx)
}

// shutdown waits for webhook deliveries still in flight.
func shutdown(logger zerolog.Logger, services *core.Services, ctx context.Context) {
	if err := services.Webhook.Wait(ctx); err != nil {
		logger.Warn().Err(err).Msg("webhook deliveries still pending at shutdown")
	}
}

func createAdmin(args []string) {
	fs := flag.NewFlagSet("create-admin", flag.ExitOnError)
	email := fs.String("email", "", "Admin email (required)")
	name := fs.String("name", "", "Display name")
	fs.Parse(args)

	if *email == "" {
		fmt.Fprintln(os.Stderr, "error: --email is required")
		fmt.Fprintln(os.Stderr, "usage: admin-api create-admin --email <email> [--name <name>]")
		os.Exit(1)
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		fmt.Fprint(os.Stderr, "Password: ")
		if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
			b, err := term.ReadPassword(fd)
			fmt.Fprintln(os.Stderr)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: read password: %v\n", err)
				os.Exit(1)
			}
			password = string(b)
		} else {
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil && line == "" {
				fmt.Fprintf(os.Stderr, "error: read password: %v\n", err)
				os.Exit(1)
			}
			password = strings.TrimRight(line, "\r\n")
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, zerolog.Nop())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	admin, err := core.NewAdminUserService(pool, nil).Create(ctx, *email, *name, password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to create admin: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Admin created.\n\n")
	fmt.Printf("  Email:  %s\n", admin.Email)
	fmt.Printf("  ID:     %s\n", admin.ID)
}
