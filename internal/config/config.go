package config

import (
	"fmt"
	"os"
	"time"

	"pair-quiz-service/internal/domain"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Questions struct {
		TTL      string `yaml:"ttl"`
		SeedFile string `yaml:"seedFile"`
	} `yaml:"questions"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// QuestionBank is the on-disk question file used for seeding and imports.
type QuestionBank struct {
	Questions []domain.Question `yaml:"questions"`
}

// LoadQuestionBank reads a YAML question bank. Entries without an id or answers are rejected.
func LoadQuestionBank(path string) ([]domain.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var bank QuestionBank
	if err := yaml.Unmarshal(data, &bank); err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}
	seen := make(map[string]struct{}, len(bank.Questions))
	for i, q := range bank.Questions {
		if q.ID == "" {
			return nil, fmt.Errorf("question %d: missing id", i)
		}
		if len(q.CorrectAnswers) == 0 {
			return nil, fmt.Errorf("question %s: no correct answers", q.ID)
		}
		if _, dup := seen[q.ID]; dup {
			return nil, fmt.Errorf("question %s: duplicate id", q.ID)
		}
		seen[q.ID] = struct{}{}
	}
	return bank.Questions, nil
}
