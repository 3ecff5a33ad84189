// Package recompute is the single entry point for deriving and storing
// property metrics. HTTP handlers, the scheduler and the queue processor call
// only the Service; the calculators in engine are never invoked directly.
package recompute

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"proptracker/server/config"
	"proptracker/server/internal/database"
	"proptracker/server/internal/engine"
	"proptracker/server/internal/finance"
	"proptracker/server/internal/models"
)

// Store is the storage boundary of the orchestrator. Lookups of a missing
// property return an error wrapping database.ErrNotFound.
type Store interface {
	LoadPropertyRecords(ctx context.Context, id int64) (models.PropertyRecords, error)
	PropertyExists(ctx context.Context, id int64) (bool, error)
	ListPropertyIDs(ctx context.Context) ([]int64, error)
	ListPropertyIDsByEntity(ctx context.Context, entity string) ([]int64, error)
	PersistRecompute(ctx context.Context, id int64, update models.PropertyMetricsUpdate, snapshot *models.MetricSnapshot) error
	ListSnapshots(ctx context.Context, id int64, limit int) ([]models.MetricSnapshot, error)
}

type Service struct {
	store    Store
	defaults engine.Defaults
	workers  int
	logger   *logrus.Logger
	now      func() time.Time
}

func NewService(store Store, cfg *config.Config, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
		logger.SetLevel(logrus.InfoLevel)
	}

	workers := cfg.Recompute.Workers
	if workers < 1 {
		workers = 1
	}

	return &Service{
		store:    store,
		defaults: DefaultsFromConfig(cfg),
		workers:  workers,
		logger:   logger,
		now:      time.Now,
	}
}

// DefaultsFromConfig maps the configured fallback values onto the gatherer's
// defaults.
func DefaultsFromConfig(cfg *config.Config) engine.Defaults {
	d := cfg.Defaults
	return engine.Defaults{
		VacancyRate:     d.VacancyRate,
		ExpenseRatio:    d.ExpenseRatio,
		ManagementRate:  d.ManagementRate,
		LoanPercentage:  d.LoanPercentage,
		InterestRate:    d.InterestRate,
		LoanTermYears:   d.LoanTermYears,
		MarketCapRate:   d.MarketCapRate,
		ClosingCostRate: d.ClosingCostRate,
		HoldingCostRate: d.HoldingCostRate,
		RefinanceLTV:    d.RefinanceLTV,
	}
}

// RecomputeProperty derives the metrics of one property, writes the display
// fields back onto the property and appends a history snapshot in one
// transaction. Running it twice without a data change returns identical
// metrics.
//
// A missing property yields *NotFoundError. A failed write yields
// *PersistenceError together with the complete metrics.
func (s *Service) RecomputeProperty(ctx context.Context, id int64) (engine.Metrics, error) {
	_, metrics, err := s.recompute(ctx, id)
	return metrics, err
}

func (s *Service) recompute(ctx context.Context, id int64) (models.Property, engine.Metrics, error) {
	records, err := s.store.LoadPropertyRecords(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return models.Property{}, engine.Metrics{}, &NotFoundError{PropertyID: id}
		}
		return models.Property{}, engine.Metrics{}, fmt.Errorf("failed to load property %d: %w", id, err)
	}

	facts, metrics := engine.Run(records, s.defaults)
	_, arvSource := engine.ResolveARV(facts, metrics.AnnualNOI)

	log := s.logger.WithFields(logrus.Fields{
		"property_id":    id,
		"income_source":  facts.Provenance.Income,
		"expense_source": facts.Provenance.Expenses,
		"debt_source":    facts.Provenance.Debt,
		"arv_source":     arvSource,
	})
	if len(facts.Provenance.Warnings) > 0 {
		log.WithField("warnings", facts.Provenance.Warnings).Debug("Calculated with missing data")
	}

	payload, err := json.Marshal(metrics)
	if err != nil {
		return records.Property, metrics, fmt.Errorf("failed to encode metrics: %w", err)
	}

	calculatedAt := s.now().UTC()
	update := models.PropertyMetricsUpdate{
		ARV:                    metrics.ARV,
		InitialCapitalRequired: metrics.InvestedCapital,
		AnnualCashFlow:         metrics.AnnualCashFlow,
		CashOnCashReturn:       finance.Round(metrics.CashOnCashReturn*100, 2),
		AnnualizedReturn:       finance.Round(metrics.AnnualizedReturn*100, 2),
		CalculatedAt:           calculatedAt,
	}
	snapshot := &models.MetricSnapshot{
		PropertyID:       id,
		CalculationDate:  calculatedAt,
		AnnualNOI:        metrics.AnnualNOI,
		AnnualCashFlow:   metrics.AnnualCashFlow,
		CapRate:          metrics.CapRate,
		CashOnCashReturn: metrics.CashOnCashReturn,
		DSCR:             metrics.DSCR,
		ARV:              metrics.ARV,
		CurrentEquity:    metrics.CurrentEquity,
		Metrics:          string(payload),
	}

	if err := s.store.PersistRecompute(ctx, id, update, snapshot); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			// deleted after it was loaded
			return records.Property, metrics, &NotFoundError{PropertyID: id}
		}
		log.WithError(err).Error("Failed to persist recomputed metrics")
		return records.Property, metrics, &PersistenceError{PropertyID: id, Err: err}
	}

	log.WithFields(logrus.Fields{
		"annual_noi":       metrics.AnnualNOI,
		"annual_cash_flow": metrics.AnnualCashFlow,
		"cap_rate":         metrics.CapRate,
	}).Debug("Recomputed property metrics")

	return records.Property, metrics, nil
}

// BatchResult summarizes one RecomputeAll run.
type BatchResult struct {
	RunID     string            `json:"run_id"`
	Total     int               `json:"total"`
	Succeeded int               `json:"succeeded"`
	Failures  []*BatchItemError `json:"failures"`
	Canceled  bool              `json:"canceled"`
	Duration  time.Duration     `json:"duration"`
}

func (r BatchResult) Failed() int {
	return len(r.Failures)
}

// RecomputeAll recomputes every property. A failing property is recorded in
// the result and does not stop the others. When ctx is canceled no further
// properties are started and the partial result is returned with ctx.Err().
func (s *Service) RecomputeAll(ctx context.Context) (BatchResult, error) {
	result := BatchResult{RunID: uuid.NewString()}
	log := s.logger.WithField("run_id", result.RunID)
	start := time.Now()

	ids, err := s.store.ListPropertyIDs(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to list properties")
		return result, fmt.Errorf("failed to list properties: %w", err)
	}
	result.Total = len(ids)
	log.WithFields(logrus.Fields{"total": len(ids), "workers": s.workers}).Info("Starting full recompute")

	jobs := make(chan int64)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				_, err := s.RecomputeProperty(ctx, id)

				mu.Lock()
				if err != nil {
					result.Failures = append(result.Failures, &BatchItemError{PropertyID: id, Err: err})
				} else {
					result.Succeeded++
				}
				mu.Unlock()
			}
		}()
	}

	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		select {
		case jobs <- id:
		case <-ctx.Done():
		}
	}
	close(jobs)
	wg.Wait()

	sort.Slice(result.Failures, func(i, j int) bool {
		return result.Failures[i].PropertyID < result.Failures[j].PropertyID
	})
	result.Duration = time.Since(start)
	if err := ctx.Err(); err != nil {
		result.Canceled = result.Succeeded+result.Failed() < result.Total
		for _, f := range result.Failures {
			if errors.Is(f.Err, err) {
				result.Canceled = true
				break
			}
		}
	}

	summary := log.WithFields(logrus.Fields{
		"total":     result.Total,
		"succeeded": result.Succeeded,
		"failed":    result.Failed(),
		"duration":  result.Duration.String(),
	})
	for _, f := range result.Failures {
		summary.WithField("property_id", f.PropertyID).WithError(f.Err).Warn("Property recompute failed")
	}

	if result.Canceled {
		summary.Warn("Full recompute canceled")
		return result, ctx.Err()
	}
	summary.Info("Full recompute finished")
	return result, nil
}

// History returns the newest limit snapshots of a property, newest first. A
// limit of zero or less returns the full history.
func (s *Service) History(ctx context.Context, id int64, limit int) ([]models.MetricSnapshot, error) {
	exists, err := s.store.PropertyExists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, &NotFoundError{PropertyID: id}
	}

	snapshots, err := s.store.ListSnapshots(ctx, id, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history of property %d: %w", id, err)
	}
	return snapshots, nil
}
