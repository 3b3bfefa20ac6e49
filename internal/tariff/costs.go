package tariff

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"homeenergy/internal/database"
	"homeenergy/pkg/models"
)

// Calculator fills in cost_pence for stored readings. Normal runs only
// touch rows without a cost; recomputes after a tariff edit must be
// explicit.
type Calculator struct {
	db       *database.DB
	resolver *Resolver
	log      *zap.SugaredLogger
}

// NewCalculator builds a cost calculator over a store and a resolver.
func NewCalculator(db *database.DB, resolver *Resolver, log *zap.SugaredLogger) *Calculator {
	return &Calculator{db: db, resolver: resolver, log: log}
}

// CostResult summarizes one costing run.
type CostResult struct {
	Updated int
	Skipped int // readings with no covering tariff
}

// Run computes cost_pence = consumption_kWh x rate for every reading
// missing a cost, or for every reading when recomputeAll is set. The rate
// at the interval's start applies to the whole interval; readings outside
// any tariff's validity are skipped and counted, not fatal.
func (c *Calculator) Run(ctx context.Context, recomputeAll bool) (*CostResult, error) {
	readings, err := c.fetch(ctx, recomputeAll)
	if err != nil {
		return nil, err
	}

	result := &CostResult{}
	updates := make([]database.CostUpdate, 0, len(readings))

	for i := range readings {
		reading := &readings[i]
		rate, err := c.resolver.RateFor(reading.IntervalStart)
		if err != nil {
			var noTariff *NoTariffError
			if errors.As(err, &noTariff) {
				result.Skipped++
				c.log.Debugw("no tariff for reading, skipping",
					"source", reading.Source,
					"interval_start", reading.IntervalStart)
				continue
			}
			return nil, fmt.Errorf("resolving rate: %w", err)
		}

		updates = append(updates, database.CostUpdate{
			ReadingID: reading.ID,
			CostPence: reading.ConsumptionKWh * rate,
		})
	}

	if err := c.db.SetCosts(ctx, updates); err != nil {
		return nil, fmt.Errorf("writing costs: %w", err)
	}
	result.Updated = len(updates)

	c.log.Infow("cost run finished", "updated", result.Updated, "skipped", result.Skipped, "recompute_all", recomputeAll)
	return result, nil
}

func (c *Calculator) fetch(ctx context.Context, recomputeAll bool) ([]models.IntervalReading, error) {
	if recomputeAll {
		return c.db.AllReadings(ctx)
	}
	return c.db.ReadingsWithoutCost(ctx)
}
