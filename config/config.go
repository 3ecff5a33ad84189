package config

import (
	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	Server struct {
		Port         string `env:"PORT" envDefault:"5250"`
		DatabasePath string `env:"DATABASE_PATH" envDefault:"database/proptracker.db"`
		LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`

		// Origins allowed by CORS; "*" allows any
		AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	}

	// Defaults used by the fact gatherer when no assumptions or legacy data exist.
	// Rates are decimals; values above 1 are read as percentages.
	Defaults struct {
		VacancyRate     float64 `env:"DEFAULT_VACANCY_RATE" envDefault:"0.05"`
		ExpenseRatio    float64 `env:"DEFAULT_EXPENSE_RATIO" envDefault:"0.45"`
		ManagementRate  float64 `env:"DEFAULT_MANAGEMENT_RATE" envDefault:"0.08"`
		LoanPercentage  float64 `env:"DEFAULT_LOAN_PERCENTAGE" envDefault:"0.75"`
		InterestRate    float64 `env:"DEFAULT_INTEREST_RATE" envDefault:"0.07"`
		LoanTermYears   int     `env:"DEFAULT_LOAN_TERM_YEARS" envDefault:"30"`
		MarketCapRate   float64 `env:"DEFAULT_MARKET_CAP_RATE" envDefault:"0.055"`
		ClosingCostRate float64 `env:"DEFAULT_CLOSING_COST_RATE" envDefault:"0.02"`
		HoldingCostRate float64 `env:"DEFAULT_HOLDING_COST_RATE" envDefault:"0.01"`
		RefinanceLTV    float64 `env:"DEFAULT_REFINANCE_LTV" envDefault:"0.75"`
	}

	Recompute struct {
		// Number of properties recomputed concurrently by RecomputeAll
		Workers int `env:"RECOMPUTE_WORKERS" envDefault:"1"`

		// Cron spec for the periodic full recompute; empty disables it
		Schedule string `env:"RECOMPUTE_SCHEDULE" envDefault:"@every 1h"`

		RunOnStart bool `env:"RECOMPUTE_ON_START" envDefault:"true"`
	}

	// BatchProcessing configuration for queued recompute requests
	BatchProcessing struct {
		// Capacity of the recompute request queue, in batches
		QueueSize int `env:"BATCH_QUEUE_SIZE" envDefault:"100"`

		// Number of concurrent batch processors
		ProcessorCount int `env:"BATCH_PROCESSOR_COUNT" envDefault:"2"`

		// Maximum number of retries for failed write-backs
		MaxRetries int `env:"BATCH_MAX_RETRIES" envDefault:"3"`

		// Delay between retries in seconds
		RetryDelay int `env:"BATCH_RETRY_DELAY" envDefault:"5"`
	}
}

// LoadConfig reads the configuration from the environment, after loading a .env
// file from the working directory when one exists.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
