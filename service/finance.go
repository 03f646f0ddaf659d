package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/BerniceZTT/consultsim/config"
	"github.com/BerniceZTT/consultsim/models"
	"github.com/BerniceZTT/consultsim/repository"
	"github.com/BerniceZTT/consultsim/utils"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	hoursPerYear = decimal.NewFromInt(52 * 40)
	twelve       = decimal.NewFromInt(12)
)

// FinanceEngine prices projects and keeps each project's predefined expenses
// until the delivery clock reaches their dates.
type FinanceEngine struct {
	store   repository.Store
	params  *config.SimulationParams
	rng     *Rand
	pending map[string][]models.ExpenseEntry
	log     zerolog.Logger
}

func NewFinanceEngine(store repository.Store, params *config.SimulationParams, rng *Rand) *FinanceEngine {
	return &FinanceEngine{
		store:   store,
		params:  params,
		rng:     rng,
		pending: make(map[string][]models.ExpenseEntry),
		log:     utils.Component("finance"),
	}
}

// PendingExpenses returns the expenses of project not yet materialized,
// ordered by date.
func (e *FinanceEngine) PendingExpenses(projectID string) []models.ExpenseEntry {
	out := append([]models.ExpenseEntry(nil), e.pending[projectID]...)
	sortExpenses(out)
	return out
}

// BillingRate derives the hourly rate for a level from experience: the base
// range is interpolated over ten years, discounted 10% for fixed-price work
// and jittered by up to 5% either way.
func (e *FinanceEngine) BillingRate(level models.TitleLevel, years int, contract models.ContractType) decimal.Decimal {
	r := e.params.BillingRateRanges[level]
	lo := decimal.NewFromFloat(r.Min)
	hi := decimal.NewFromFloat(r.Max)
	weight := decimal.NewFromInt(int64(max(years, 0))).Div(decimal.NewFromInt(10))
	if weight.GreaterThan(decimal.NewFromInt(1)) {
		weight = decimal.NewFromInt(1)
	}
	rate := lo.Add(hi.Sub(lo).Mul(weight))
	if contract == models.ContractFixed {
		rate = rate.Mul(decimal.NewFromFloat(0.9))
	}
	return rate.Mul(decimal.NewFromFloat(e.rng.Uniform(0.95, 1.05))).Round(2)
}

// hourlyCost is the loaded cost of one hour of a member's time. Salary is
// averaged over title records overlapping the year before asOf.
func (e *FinanceEngine) hourlyCost(member models.TeamMember, history []models.TitleHistoryRecord, asOf time.Time) decimal.Decimal {
	windowStart := asOf.AddDate(-1, 0, 0)
	sum := decimal.Zero
	n := 0
	var latest *models.TitleHistoryRecord
	for i := range history {
		rec := history[i]
		if rec.EventKind == models.EventAttrition || rec.StartDate.After(asOf) {
			continue
		}
		latest = &history[i]
		if rec.EndDate != nil && rec.EndDate.Before(windowStart) {
			continue
		}
		sum = sum.Add(decimal.NewFromInt(int64(rec.Salary)))
		n++
	}

	var salary decimal.Decimal
	switch {
	case n > 0:
		salary = sum.Div(decimal.NewFromInt(int64(n)))
	case latest != nil:
		salary = decimal.NewFromInt(int64(latest.Salary))
		e.log.Warn().Str("consultant", member.Consultant.ID).Msg("no salary in trailing year, using latest record")
	default:
		r := e.params.SalaryRanges[member.Title]
		salary = decimal.NewFromInt(int64(r.Min + r.Max)).Div(decimal.NewFromInt(2))
		e.log.Warn().Str("consultant", member.Consultant.ID).Msg("no salary history, using range midpoint")
	}
	overhead := decimal.NewFromFloat(1 + e.params.OverheadPercentage)
	return salary.Div(twelve).Div(hoursPerYear).Mul(overhead)
}

// PriceProject computes cost, revenue and predefined expenses for a staffed
// project and stages the priced project and deliverables into b. Fixed
// contracts get a price split over deliverables by planned hours; time and
// material contracts get an estimated budget and stored billing rates.
func (e *FinanceEngine) PriceProject(ctx context.Context, b *repository.Batch, project *models.Project, team []models.TeamMember, deliverables []models.Deliverable) (*models.PricingResult, error) {
	if project.PlannedStartDate == nil {
		return nil, utils.NewValidationError("project", "project %s is not scheduled", project.ID)
	}
	if len(team) == 0 {
		return nil, utils.NewValidationError("team", "project %s has no team", project.ID)
	}
	asOf := *project.PlannedStartDate
	hoursEach := decimal.NewFromFloat(project.PlannedHours).Div(decimal.NewFromInt(int64(len(team))))

	rates := make(map[models.TitleLevel]decimal.Decimal)
	cost := decimal.Zero
	revenue := decimal.Zero
	for _, m := range team {
		history, err := e.store.ListTitleHistory(ctx, repository.TitleHistoryQuery{ConsultantID: m.Consultant.ID})
		if err != nil {
			return nil, fmt.Errorf("load title history for %s: %w", m.Consultant.ID, err)
		}
		cost = cost.Add(e.hourlyCost(m, history, asOf).Mul(hoursEach))

		rate, ok := rates[m.Title]
		if !ok {
			rate = e.BillingRate(m.Title, asOf.Year()-m.HireDate.Year(), project.ContractType)
			rates[m.Title] = rate
		}
		revenue = revenue.Add(rate.Mul(hoursEach))
	}

	expenses := e.predefineExpenses(project, deliverables, cost)
	billable := decimal.Zero
	allExpenses := decimal.Zero
	for _, x := range expenses {
		amount := decimal.NewFromFloat(x.Amount)
		allExpenses = allExpenses.Add(amount)
		if x.Billable {
			billable = billable.Add(amount)
		}
	}

	quote := revenue.Add(billable).Round(-3)
	totalPlanned := decimal.Zero
	for _, d := range deliverables {
		totalPlanned = totalPlanned.Add(decimal.NewFromFloat(d.PlannedHours))
	}

	if project.ContractType == models.ContractFixed {
		price := quote.InexactFloat64()
		project.Price = &price
		project.EstimatedBudget = nil
		for i := range deliverables {
			share := decimal.Zero
			if totalPlanned.IsPositive() {
				share = decimal.NewFromFloat(deliverables[i].PlannedHours).Div(totalPlanned)
			}
			dp := quote.Mul(share).Round(2).InexactFloat64()
			deliverables[i].Price = &dp
		}
	} else {
		budget := quote.InexactFloat64()
		project.EstimatedBudget = &budget
		project.Price = nil
		for _, level := range sortedKeys(rates) {
			b.SaveBillingRate(models.ProjectBillingRate{
				ID:        fmt.Sprintf("%s-L%d", project.ID, level),
				ProjectID: project.ID,
				Title:     level,
				Rate:      rates[level].InexactFloat64(),
			})
		}
	}

	b.SaveProject(project)
	for _, d := range deliverables {
		b.SaveDeliverable(d)
	}
	b.AfterCommit(func() { e.pending[project.ID] = expenses })

	result := &models.PricingResult{
		TotalCost:    cost.Add(allExpenses).Round(2).InexactFloat64(),
		TotalRevenue: revenue.Add(billable).Round(2).InexactFloat64(),
		Expenses:     expenses,
		BillingRates: make(map[models.TitleLevel]float64, len(rates)),
	}
	for level, rate := range rates {
		result.BillingRates[level] = rate.InexactFloat64()
	}
	e.log.Debug().Str("project", project.ID).Str("contract", string(project.ContractType)).
		Str("quote", quote.String()).Int("expenses", len(expenses)).Msg("priced project")
	return result, nil
}

// predefineExpenses draws the expense entries of every deliverable. Each
// category total is a share of the deliverable's cost clamped to the
// category range, split into one to five dated entries.
func (e *FinanceEngine) predefineExpenses(project *models.Project, deliverables []models.Deliverable, cost decimal.Decimal) []models.ExpenseEntry {
	totalPlanned := decimal.Zero
	for _, d := range deliverables {
		totalPlanned = totalPlanned.Add(decimal.NewFromFloat(d.PlannedHours))
	}
	if !totalPlanned.IsPositive() {
		return nil
	}

	var out []models.ExpenseEntry
	for _, d := range deliverables {
		dcost := cost.Mul(decimal.NewFromFloat(d.PlannedHours)).Div(totalPlanned)
		for _, cat := range e.params.ExpenseCategories {
			total := categoryTotal(dcost, cat)
			for _, amount := range e.splitAmount(total) {
				out = append(out, models.ExpenseEntry{
					ID:            e.rng.NewID(),
					ProjectID:     project.ID,
					DeliverableID: d.ID,
					Date:          e.expenseDate(project),
					Amount:        amount.InexactFloat64(),
					Category:      cat.Name,
					Description:   fmt.Sprintf("%s expense for %s", cat.Name, d.Name),
					Billable:      cat.Billable,
				})
			}
		}
	}
	return out
}

func categoryTotal(cost decimal.Decimal, cat config.ExpenseCategory) decimal.Decimal {
	total := cost.Mul(decimal.NewFromFloat(cat.Percentage))
	lo := decimal.NewFromFloat(cat.Min)
	hi := decimal.NewFromFloat(cat.Max)
	if total.LessThan(lo) {
		total = lo
	}
	if total.GreaterThan(hi) {
		total = hi
	}
	return total.Round(2)
}

// splitAmount breaks total into one to five positive entries that sum to it
// exactly.
func (e *FinanceEngine) splitAmount(total decimal.Decimal) []decimal.Decimal {
	n := e.rng.IntBetween(1, 5)
	remaining := total
	var parts []decimal.Decimal
	for i := 0; i < n-1; i++ {
		part := remaining.Mul(decimal.NewFromFloat(e.rng.Uniform(0.1, 0.5))).Round(2)
		if !part.IsPositive() {
			continue
		}
		parts = append(parts, part)
		remaining = remaining.Sub(part)
	}
	if remaining.IsPositive() {
		parts = append(parts, remaining)
	}
	return parts
}

func (e *FinanceEngine) expenseDate(project *models.Project) time.Time {
	start := *project.PlannedStartDate
	days := utils.DaysBetween(start, *project.PlannedEndDate)
	date := start.AddDate(0, 0, e.rng.IntBetween(0, max(days, 0)))
	if project.ActualEndDate != nil {
		date = utils.MinDate(date, *project.ActualEndDate)
	}
	return date
}

// MaterializeExpenses stages pending expenses of project dated on or before
// day. With flush set every remaining entry is staged, dated no later than
// the project's actual end. It returns the number of entries staged; they
// leave the pending list once b is committed.
func (e *FinanceEngine) MaterializeExpenses(b *repository.Batch, project *models.Project, day time.Time, flush bool) int {
	pending := e.pending[project.ID]
	if len(pending) == 0 {
		return 0
	}
	var keep []models.ExpenseEntry
	staged := 0
	for _, x := range pending {
		if !flush && x.Date.After(day) {
			keep = append(keep, x)
			continue
		}
		if flush && project.ActualEndDate != nil {
			x.Date = utils.MinDate(x.Date, *project.ActualEndDate)
		}
		b.SaveExpense(x)
		staged++
	}
	b.AfterCommit(func() {
		if len(keep) == 0 {
			delete(e.pending, project.ID)
		} else {
			e.pending[project.ID] = keep
		}
	})
	return staged
}

// sortExpenses orders entries by date, then ID.
func sortExpenses(xs []models.ExpenseEntry) {
	sort.Slice(xs, func(i, j int) bool {
		if !xs[i].Date.Equal(xs[j].Date) {
			return xs[i].Date.Before(xs[j].Date)
		}
		return xs[i].ID < xs[j].ID
	})
}
