package recompute

import (
	"context"
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"proptracker/server/internal/geometry"
)

// PropertySummary is one property's contribution to an entity rollup.
type PropertySummary struct {
	PropertyID       int64   `json:"property_id"`
	Name             string  `json:"name"`
	Units            int     `json:"units"`
	ARV              float64 `json:"arv"`
	CurrentEquity    float64 `json:"current_equity"`
	AnnualCashFlow   float64 `json:"annual_cash_flow"`
	CapRate          float64 `json:"cap_rate"`
	CashOnCashReturn float64 `json:"cash_on_cash_return"`
}

// EntityRollup aggregates freshly recomputed metrics across the properties of
// one ownership entity. It is derived on request and never stored.
type EntityRollup struct {
	Entity          string  `json:"entity"`
	PropertyCount   int     `json:"property_count"`
	TotalUnits      int     `json:"total_units"`
	TotalARV        float64 `json:"total_arv"` // assets under management
	TotalEquity     float64 `json:"total_equity"`
	TotalDebt       float64 `json:"total_debt"`
	MonthlyCashFlow float64 `json:"monthly_cash_flow"`
	AnnualCashFlow  float64 `json:"annual_cash_flow"`
	AnnualNOI       float64 `json:"annual_noi"`

	// ARV-weighted cap rate and invested-capital-weighted cash-on-cash, as decimals.
	WeightedCapRate          float64 `json:"weighted_cap_rate"`
	WeightedCashOnCashReturn float64 `json:"weighted_cash_on_cash_return"`

	Properties []PropertySummary   `json:"properties"`
	Locations  []geometry.Location `json:"locations"`
	Bounds     *orb.Bound          `json:"bounds,omitempty"`
	Failures   []*BatchItemError   `json:"failures"`
}

// ComputeEntityRollup recomputes every property of entity and aggregates the
// results. Properties that fail are listed in Failures and left out of every
// total, so the rollup always matches what was just written.
func (s *Service) ComputeEntityRollup(ctx context.Context, entity string) (EntityRollup, error) {
	rollup := EntityRollup{Entity: entity}

	ids, err := s.store.ListPropertyIDsByEntity(ctx, entity)
	if err != nil {
		return rollup, fmt.Errorf("failed to list properties of entity %q: %w", entity, err)
	}
	if len(ids) == 0 {
		return rollup, &NotFoundError{Entity: entity}
	}

	var capRates, arvWeights, cocReturns, capitalWeights []float64

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return rollup, err
		}

		property, m, err := s.recompute(ctx, id)
		if err != nil {
			var nf *NotFoundError
			if !errors.As(err, &nf) {
				s.logger.WithFields(logrus.Fields{"entity": entity, "property_id": id}).WithError(err).Warn("Excluding property from rollup")
			}
			rollup.Failures = append(rollup.Failures, &BatchItemError{PropertyID: id, Err: err})
			continue
		}

		rollup.PropertyCount++
		rollup.TotalUnits += m.Units
		rollup.TotalARV += m.ARV
		rollup.TotalEquity += m.CurrentEquity
		rollup.TotalDebt += m.CurrentDebt
		rollup.MonthlyCashFlow += m.MonthlyCashFlow
		rollup.AnnualCashFlow += m.AnnualCashFlow
		rollup.AnnualNOI += m.AnnualNOI

		capRates = append(capRates, m.CapRate)
		arvWeights = append(arvWeights, m.ARV)
		cocReturns = append(cocReturns, m.CashOnCashReturn)
		capitalWeights = append(capitalWeights, m.InvestedCapital)

		rollup.Properties = append(rollup.Properties, PropertySummary{
			PropertyID:       id,
			Name:             property.Name,
			Units:            m.Units,
			ARV:              m.ARV,
			CurrentEquity:    m.CurrentEquity,
			AnnualCashFlow:   m.AnnualCashFlow,
			CapRate:          m.CapRate,
			CashOnCashReturn: m.CashOnCashReturn,
		})

		if property.Latitude != nil && property.Longitude != nil {
			rollup.Locations = append(rollup.Locations, geometry.Location{
				PropertyID: id,
				Name:       property.Name,
				Latitude:   *property.Latitude,
				Longitude:  *property.Longitude,
			})
		}
	}

	rollup.WeightedCapRate = weightedMean(capRates, arvWeights)
	rollup.WeightedCashOnCashReturn = weightedMean(cocReturns, capitalWeights)
	rollup.Bounds = geometry.Bounds(rollup.Locations)

	s.logger.WithFields(logrus.Fields{
		"entity":     entity,
		"properties": rollup.PropertyCount,
		"failed":     len(rollup.Failures),
		"total_arv":  rollup.TotalARV,
	}).Info("Computed entity rollup")

	return rollup, nil
}

// weightedMean averages values by weight, counting only positive weights. It
// returns 0 when no weight is positive.
func weightedMean(values, weights []float64) float64 {
	var x, w []float64
	for i, weight := range weights {
		if weight > 0 {
			x = append(x, values[i])
			w = append(w, weight)
		}
	}
	if len(w) == 0 {
		return 0
	}
	return stat.Mean(x, w)
}
