package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/config"
	"timed-quiz-service/internal/domain"
	"timed-quiz-service/internal/engine"
	"timed-quiz-service/internal/events"
	"timed-quiz-service/internal/infra/memory"
	pgstore "timed-quiz-service/internal/infra/postgres"
	redisstore "timed-quiz-service/internal/infra/redis"
	"timed-quiz-service/internal/logging"
	transport "timed-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := logging.New(os.Stdout, cfg.Log.Format, cfg.Log.Level)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	if pool != nil {
		loader = pgstore.NewQuizLoader(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = redisstore.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	var attempts app.AttemptRepository
	if redisClient != nil {
		attempts = redisstore.NewAttemptStore(redisClient, redisTTL)
	} else {
		attempts = memory.NewAttemptStore()
	}

	var results app.ResultRepository
	switch {
	case pool != nil:
		results = pgstore.NewResultStore(pool)
	case redisClient != nil:
		results = redisstore.NewResultStore(redisClient, redisTTL)
	default:
		results = memory.NewResultStore()
	}

	group, ctx := errgroup.WithContext(ctx)

	var publisher *events.Publisher
	if len(cfg.Events.KafkaBrokers) > 0 {
		publisher, err = events.NewKafkaPublisher(cfg.Events.KafkaBrokers, cfg.EventsTopic(), logger)
		if err != nil {
			return err
		}
	} else {
		inProcess, pubsub := events.NewInProcess(cfg.EventsTopic(), logger)
		publisher = inProcess
		group.Go(func() error {
			return events.Consume(ctx, pubsub, cfg.EventsTopic(), logger, logCompletion(logger))
		})
	}
	defer publisher.Close()

	service := app.NewQuizService(attempts, quizRepo, results,
		app.WithPublisher(publisher),
		app.WithLogger(logger),
		app.WithTimeLimit(cfg.TimeLimit(engine.DefaultTimeLimit)),
		app.WithFeedbackDelay(config.TTLDuration(cfg.Quiz.FeedbackDelay, engine.DefaultFeedbackDelay)),
	)

	mux := http.NewServeMux()
	transport.Register(mux,
		transport.NewAPIHandler(service, logger),
		transport.NewWSHandler(service, logger),
	)

	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           mux,
		ReadHeaderTimeout: 15 * time.Second,
	}

	group.Go(func() error {
		logger.Info("starting quiz service", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return group.Wait()
}

func logCompletion(logger *slog.Logger) func(context.Context, app.CompletedEvent) error {
	return func(_ context.Context, ev app.CompletedEvent) error {
		logger.Info("attempt result",
			"attempt_id", ev.Result.AttemptID,
			"quiz_id", ev.Result.QuizID,
			"user_id", ev.Result.UserID,
			"percentage", ev.Result.Percentage)
		return nil
	}
}

// sampleQuizzes is served when no Postgres is configured.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:    "quiz-1",
			Title: "Warm-up",
			Questions: []domain.Question{
				{
					ID:     "q1",
					Prompt: "What is 2 + 2?",
					Options: []domain.Option{
						{ID: "o1", Text: "3", Correct: false},
						{ID: "o2", Text: "4", Correct: true},
						{ID: "o3", Text: "5", Correct: false},
					},
				},
				{
					ID:     "q2",
					Prompt: "Which planet is closest to the Sun?",
					Options: []domain.Option{
						{ID: "o1", Text: "Venus", Correct: false},
						{ID: "o2", Text: "Mars", Correct: false},
						{ID: "o3", Text: "Mercury", Correct: true},
					},
				},
				{
					ID:     "q3",
					Prompt: "How many seconds are in a minute?",
					Options: []domain.Option{
						{ID: "o1", Text: "60", Correct: true},
						{ID: "o2", Text: "100", Correct: false},
					},
				},
			},
		},
		"quiz-blitz": {
			ID:               "quiz-blitz",
			Title:            "Blitz",
			TimeLimitSeconds: 5,
			Questions: []domain.Question{
				{
					ID:     "q1",
					Prompt: "Is Go statically typed?",
					Options: []domain.Option{
						{ID: "yes", Text: "Yes", Correct: true},
						{ID: "no", Text: "No", Correct: false},
					},
				},
			},
		},
	}
}
