package cli

import (
	"context"
	"fmt"
	"log"
	"time"

	"pair-quiz-service/internal/config"
	"pair-quiz-service/internal/infra/postgres"
	redisinfra "pair-quiz-service/internal/infra/redis"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewQuestionsCmd groups question bank maintenance commands.
func NewQuestionsCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "questions",
		Short: "Manage the question bank",
	}

	var file string
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Upsert questions from a YAML file into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			return importQuestions(cmd.Context(), *configPath, file)
		},
	}
	importCmd.Flags().StringVar(&file, "file", "", "path to YAML question bank")
	_ = importCmd.MarkFlagRequired("file")
	cmd.AddCommand(importCmd)
	return cmd
}

func importQuestions(ctx context.Context, configPath, file string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}
	questions, err := config.LoadQuestionBank(file)
	if err != nil {
		return err
	}
	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}

	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	loader := postgres.NewQuestionLoader(pool)
	if err := loader.ImportQuestions(ctx, questions); err != nil {
		return err
	}
	log.Printf("imported %d questions from %s", len(questions), file)

	// Running instances refill the Redis cache on their next draw.
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer client.Close()
		ttl := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)
		if err := redisinfra.NewQuestionPool(client, loader, ttl).Invalidate(ctx); err != nil {
			log.Printf("question cache invalidation failed: %v", err)
		}
	}
	return nil
}
