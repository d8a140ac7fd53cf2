package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vet-discharge-portal/internal/adapters/auth/hosted"
	"vet-discharge-portal/internal/adapters/auth/jwtauth"
	"vet-discharge-portal/internal/adapters/messaging/kafka"
	"vet-discharge-portal/internal/adapters/resilience"
	pg "vet-discharge-portal/internal/adapters/storage/postgres"
	"vet-discharge-portal/internal/config"
	"vet-discharge-portal/internal/platform/logger"
	"vet-discharge-portal/internal/platform/metrics"
	"vet-discharge-portal/internal/platform/tracing"
	"vet-discharge-portal/internal/ports/auth"
	"vet-discharge-portal/internal/router"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// @title Vet Discharge Portal API
// @version 1.0
// @description Altas veterinarias, registro de dosis, adherencia y alertas de síntomas.
// @BasePath /
func main() {
	rootCmd := &cobra.Command{
		Use:   "vet-portal",
		Short: "Veterinary discharge portal API",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(consumeDosesCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API (and the dose consumer if KAFKA_BROKERS is set)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the Postgres schema (idempotent)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DBDSN == "" {
				return errors.New("DB_DSN is required")
			}
			db, err := pg.Open(cfg.DBDSN)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if err := pg.Migrate(ctx, db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return nil
		},
	}
}

func consumeDosesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "consume-doses",
		Short: "Run only the Kafka dose-event consumer",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.close()

			if len(a.cfg.Brokers()) == 0 {
				return errors.New("KAFKA_BROKERS is required")
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			c, err := a.consumer()
			if err != nil {
				return err
			}
			a.log.Info("dose consumer started", map[string]any{"topic": a.cfg.KafkaDoseTopic})
			return c.Run(ctx)
		},
	}
}

func tokenCmd() *cobra.Command {
	var userID, clinicID, role string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an HS256 staff token (AUTH_MODE=jwt)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.AuthJWTSecret == "" {
				return errors.New("AUTH_JWT_SECRET is required")
			}
			tok, err := jwtauth.Sign([]byte(cfg.AuthJWTSecret), jwtauth.Claims{
				RegisteredClaims: jwt.RegisteredClaims{
					Subject:   userID,
					IssuedAt:  jwt.NewNumericDate(time.Now()),
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
				},
				ClinicID: clinicID,
				Role:     role,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "staff user id (sub)")
	cmd.Flags().StringVar(&clinicID, "clinic", "", "clinic id")
	cmd.Flags().StringVar(&role, "role", "vet", "role")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("clinic")
	return cmd
}

type app struct {
	cfg      *config.Config
	log      logger.Logger
	metrics  *metrics.Metrics
	opts     router.Options
	services router.Services
	closers  []func()
}

func bootstrap() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})

	a := &app{cfg: cfg, log: log, metrics: metrics.New()}
	if zl, ok := log.(*logger.ZapLogger); ok {
		a.closers = append(a.closers, func() { _ = zl.Sync() })
	}

	verifier, err := newVerifier(cfg)
	if err != nil {
		return nil, err
	}

	breaker := resilience.DefaultConfig("dose-store")
	breaker.ConsecutiveFailures = cfg.BreakerMaxFailures
	breaker.Timeout = cfg.BreakerOpenTimeout

	a.opts = router.Options{
		AuthVerifier: verifier,
		Logger:       log,
		Metrics:      a.metrics,
		Location:     cfg.Location(),
		Breaker:      breaker,
		ServiceName:  cfg.AppName,
	}

	if cfg.DBDSN != "" {
		db, err := pg.Open(cfg.DBDSN)
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
		a.opts.DB = db
		a.closers = append(a.closers, func() { _ = db.Close() })
	} else {
		log.Warn("DB_DSN not set; using in-memory repositories", nil)
	}

	a.services = router.NewServices(a.opts)
	a.opts.Services = &a.services
	return a, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func (a *app) consumer() (*kafka.Consumer, error) {
	ingestor := kafka.NewDoseIngestor(a.services.Doses, a.services.Discharges, logger.AsZap(a.log), a.metrics)
	return kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers: a.cfg.Brokers(),
		GroupID: a.cfg.KafkaGroupID,
		Topic:   a.cfg.KafkaDoseTopic,
	}, ingestor.Handle, logger.AsZap(a.log).Named("kafka"))
}

func newVerifier(cfg *config.Config) (auth.AuthVerifier, error) {
	switch cfg.AuthMode {
	case config.AuthModeJWT:
		v, err := jwtauth.NewVerifier(jwtauth.Config{Secret: []byte(cfg.AuthJWTSecret)})
		if err != nil {
			return nil, err
		}
		return v, nil
	case config.AuthModeHosted:
		c, err := hosted.NewClient(hosted.Config{BaseURL: cfg.AuthBaseURL, APIKey: cfg.AuthAPIKey})
		if err != nil {
			return nil, err
		}
		return hosted.NewVerifier(c), nil
	default:
		// sin verifier => modo dev (headers X-Debug-*)
		return nil, nil
	}
}

func runServer() error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if a.cfg.OTelEnabled {
		tp, err := tracing.Init(ctx, tracing.Config{
			ServiceName:  a.cfg.AppName,
			Environment:  a.cfg.Env,
			OTLPEndpoint: a.cfg.OTelEndpoint,
			SampleRate:   1,
		})
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tp.Shutdown(sctx)
		}()
	}

	srv := &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      router.NewRouter(a.opts),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.log.Info("starting server", map[string]any{"addr": srv.Addr, "auth_mode": a.cfg.AuthMode})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	if len(a.cfg.Brokers()) > 0 {
		c, err := a.consumer()
		if err != nil {
			return err
		}
		g.Go(func() error { return c.Run(gctx) })
	}

	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("shutting down server", nil)
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	return g.Wait()
}
