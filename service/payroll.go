package service

import (
	"context"
	"fmt"
	"time"

	"github.com/BerniceZTT/consultsim/models"
	"github.com/BerniceZTT/consultsim/repository"
	"github.com/BerniceZTT/consultsim/utils"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PayrollGenerator writes monthly salary payments for every title record.
type PayrollGenerator struct {
	store repository.Store
	rng   *Rand
	log   zerolog.Logger
}

func NewPayrollGenerator(store repository.Store, rng *Rand) *PayrollGenerator {
	return &PayrollGenerator{store: store, rng: rng, log: utils.Component("payroll")}
}

// Generate writes one payment per month of every non-attrition record, from
// the record start to its end or to through when it is still open. Row IDs
// derive from the record and month so rerunning replaces earlier rows.
func (g *PayrollGenerator) Generate(ctx context.Context, through time.Time) (int, error) {
	careers, err := loadCareers(ctx, g.store)
	if err != nil {
		return 0, err
	}
	through = utils.Truncate(through)
	total := 0
	for _, c := range careers {
		var rows []models.PayrollRecord
		for _, rec := range c.History {
			if rec.EventKind == models.EventAttrition {
				continue
			}
			end := through
			if rec.EndDate != nil {
				end = utils.MinDate(*rec.EndDate, through)
			}
			monthly := decimal.NewFromInt(int64(rec.Salary)).Div(twelve)
			for k := 0; ; k++ {
				day := addMonthsClamped(rec.StartDate, k)
				if day.After(end) {
					break
				}
				jitter := decimal.NewFromFloat(1 + g.rng.Uniform(-0.05, 0.05))
				rows = append(rows, models.PayrollRecord{
					ID:            fmt.Sprintf("%s-%s", rec.ID, day.Format("200601")),
					ConsultantID:  c.Consultant.ID,
					Amount:        monthly.Mul(jitter).Round(2).InexactFloat64(),
					EffectiveDate: day,
				})
			}
		}
		if len(rows) == 0 {
			continue
		}
		err := g.store.RunBatch(ctx, func(b *repository.Batch) error {
			for _, r := range rows {
				b.SavePayroll(r)
			}
			return nil
		})
		if err != nil {
			return total, fmt.Errorf("write payroll for %s: %w", c.Consultant.ID, err)
		}
		total += len(rows)
	}
	g.log.Info().Int("rows", total).Msg("payroll generated")
	return total, nil
}

// addMonthsClamped moves t forward k months, keeping the day of month but
// clamping it to the length of the target month.
func addMonthsClamped(t time.Time, k int) time.Time {
	first := utils.Date(t.Year(), t.Month(), 1).AddDate(0, k, 0)
	last := first.AddDate(0, 1, -1).Day()
	return utils.Date(first.Year(), first.Month(), min(t.Day(), last))
}
