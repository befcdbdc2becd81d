package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pair-quiz-service/internal/app"
	"pair-quiz-service/internal/config"
	"pair-quiz-service/internal/domain"
	"pair-quiz-service/internal/infra/memory"
	"pair-quiz-service/internal/infra/postgres"
	redisinfra "pair-quiz-service/internal/infra/redis"
	transport "pair-quiz-service/internal/transport/http"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the pair quiz server",
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

	var (
		uow    app.UnitOfWork
		loader memory.QuestionLoader
	)
	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
		db := postgres.OpenDB(cfg.Postgres.URL)
		defer db.Close()
		uow = postgres.NewStore(db)

		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		loader = postgres.NewQuestionLoader(pool)
	} else {
		seed, err := seedQuestions(cfg.Questions.SeedFile)
		if err != nil {
			return err
		}
		log.Printf("no postgres configured, serving %d seeded questions from memory", len(seed))
		uow = memory.NewStore()
		loader = memory.NewStaticQuestionLoader(seed)
	}

	poolTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)
	var (
		questions app.QuestionSource
		notifier  app.Notifier
	)
	if redisClient != nil {
		questions = redisinfra.NewQuestionPool(redisClient, loader, poolTTL)
		notifier = redisinfra.NewNotifier(redisClient)
	} else {
		questions = memory.NewQuestionPool(loader, poolTTL)
		notifier = memory.NewNotifier()
	}

	service := app.NewPairGameService(uow, questions, app.WithNotifier(notifier))
	wsHandler := transport.NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting pair quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// seedQuestions reads the configured bank, falling back to a built-in set.
func seedQuestions(path string) ([]domain.Question, error) {
	if path == "" {
		return sampleQuestions(), nil
	}
	return config.LoadQuestionBank(path)
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{ID: "q-fr", Body: "Capital of France?", CorrectAnswers: []string{"paris"}, Published: true},
		{ID: "q-de", Body: "Capital of Germany?", CorrectAnswers: []string{"berlin"}, Published: true},
		{ID: "q-it", Body: "Capital of Italy?", CorrectAnswers: []string{"rome", "roma"}, Published: true},
		{ID: "q-es", Body: "Capital of Spain?", CorrectAnswers: []string{"madrid"}, Published: true},
		{ID: "q-pt", Body: "Capital of Portugal?", CorrectAnswers: []string{"lisbon", "lisboa"}, Published: true},
	}
}
