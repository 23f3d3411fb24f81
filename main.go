package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"outreach/config"
	controller "outreach/controllers"
	"outreach/middleware"
	"outreach/routes"
	"outreach/sequencer"
	"outreach/store"
	"outreach/utils"
	"outreach/worker"
)

func main() {
	logger := logrus.StandardLogger()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}
	if level, err := logrus.ParseLevel(config.AppConfig.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	// outreach issue-token [subject] prints an operator token for the run API.
	if len(os.Args) > 1 && os.Args[1] == "issue-token" {
		token, err := issueToken(os.Args[2:], config.AppConfig.TokenTTL)
		if err != nil {
			logger.Fatalf("Failed to issue operator token: %v", err)
		}
		fmt.Println(token)
		return
	}

	if config.AppConfig.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         config.AppConfig.SentryDSN,
			Environment: config.AppConfig.Environment,
		}); err != nil {
			logger.WithError(err).Warn("Sentry initialization failed")
		}
		defer sentry.Flush(2 * time.Second)
	}

	// Initialize database connection
	if err := config.ConnectDB(); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	catalogStore := store.NewCatalogStore(config.DB)
	prospectStore := store.NewProspectStore(config.DB)
	eventStore := store.NewEventStore(config.DB)

	smtp := config.AppConfig.SMTP
	mailer := utils.NewOutreachMailer(smtp.Host, smtp.Port, smtp.Username, smtp.Password, smtp.Retries)
	sms := config.AppConfig.SMS
	smsClient := utils.NewSMSClient(sms.BaseURL, sms.AccountSID, sms.AuthToken, config.AppConfig.Outreach.DispatchTimeout)

	oc := config.AppConfig.Outreach
	seqCfg := sequencer.Config{
		FromEmail:       smtp.FromEmail,
		FromName:        smtp.FromName,
		SMSFrom:         sms.FromNumber,
		DefaultLimit:    oc.BatchLimit,
		DispatchTimeout: oc.DispatchTimeout,
		ClaimTTL:        oc.ClaimTTL,
		EnforceThrottle: oc.EnforceThrottle,
		Retry:           sequencer.RetryPolicy{MaxAttempts: oc.MaxAttempts},
	}
	if oc.BackoffInitial > 0 {
		seqCfg.Retry.Backoff = sequencer.ExponentialBackoff{Initial: oc.BackoffInitial, Max: oc.BackoffMax}
	}

	var (
		redisClient *redis.Client
		throttle    sequencer.ThrottleCounter = sequencer.NewMemoryThrottle()
		runLock     store.RunLock             = &store.LocalRunLock{}
	)
	if config.AppConfig.Redis.Enabled {
		redisClient = store.NewRedisClient(config.AppConfig.Redis)
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Fatalf("Failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
		throttle = store.NewRedisThrottle(redisClient)
		runLock = store.NewRedisRunLock(redisClient, oc.RunLockTTL)
	}

	runner := sequencer.NewRunner(seqCfg, catalogStore, prospectStore, eventStore, mailer, smsClient,
		sequencer.WithLogger(logger.WithField("component", "sequencer")),
		sequencer.WithThrottle(throttle),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if oc.WorkerEnabled {
		outreachWorker := worker.NewOutreachWorker(runner, runLock, logger.WithField("component", "worker"), oc.RunInterval, oc.BatchLimit)
		go outreachWorker.Start(ctx)
	}

	if !config.AppConfig.APIEnabled {
		if !oc.WorkerEnabled {
			// One-shot invocation.
			res, err := runner.RunOutreachRunner(ctx, oc.BatchLimit)
			if err != nil {
				logger.Fatalf("Outreach run failed: %v", err)
			}
			logger.WithField("processed", res.Processed).Info("Outreach run complete")
			return
		}
		<-ctx.Done()
		return
	}

	app := fiber.New()
	app.Use(middleware.CORS(config.AppConfig.CORSOrigins...))

	routes.SetupRoutes(app, routes.Deps{
		Outreach: controller.NewOutreachController(runner, runLock, prospectStore, eventStore,
			logger.WithField("component", "api"), oc.BatchLimit),
		Redis:         redisClient,
		RateLimitRuns: config.AppConfig.RateLimitRuns,
		Logger:        logger.WithField("component", "routes"),
		Ping: func(ctx context.Context) error {
			sqlDB, err := config.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	})

	go func() {
		<-ctx.Done()
		_ = app.Shutdown()
	}()

	// Start server
	logger.Infof("🚀 Server starting on port %s", config.AppConfig.ServerPort)
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}

func issueToken(args []string, ttl time.Duration) (string, error) {
	subject := "scheduler"
	if len(args) > 0 {
		subject = args[0]
	}
	return utils.GenerateOperatorToken(subject, ttl)
}
