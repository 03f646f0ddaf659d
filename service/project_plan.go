package service

import (
	"fmt"
	"math"
	"time"

	"github.com/BerniceZTT/consultsim/config"
	"github.com/BerniceZTT/consultsim/models"
	"github.com/BerniceZTT/consultsim/utils"
	"github.com/shopspring/decimal"
)

const (
	workingDaysPerMonth = 21
	minDeliverableHours = 10
)

// ProjectPlanner schedules projects and splits their hours into deliverables.
type ProjectPlanner struct {
	params *config.SimulationParams
	rng    *Rand
}

func NewProjectPlanner(params *config.SimulationParams, rng *Rand) *ProjectPlanner {
	return &ProjectPlanner{params: params, rng: rng}
}

func (p *ProjectPlanner) durationMonths() int {
	weights := make([]float64, len(p.params.DurationRanges))
	for i, r := range p.params.DurationRanges {
		weights[i] = r.Weight
	}
	r := p.params.DurationRanges[p.rng.WeightedIndex(weights)]
	return p.rng.IntBetween(r.MinMonths, r.MaxMonths)
}

// Schedule fills in the duration and the planned and actual dates of project.
// The planned start lands up to two weeks after the later of asOf and
// earliest, and the project starts up to a week late.
func (p *ProjectPlanner) Schedule(project *models.Project, asOf, earliest time.Time) {
	if project.DurationMonths <= 0 {
		project.DurationMonths = p.durationMonths()
	}
	plannedStart := utils.MaxDate(utils.Truncate(asOf), utils.Truncate(earliest)).AddDate(0, 0, p.rng.IntBetween(0, 14))
	actualStart := plannedStart.AddDate(0, 0, p.rng.IntBetween(0, 7))
	plannedEnd := utils.AddWorkingDays(plannedStart, project.DurationMonths*workingDaysPerMonth)

	project.PlannedStartDate = &plannedStart
	project.ActualStartDate = &actualStart
	project.PlannedEndDate = &plannedEnd
}

// PlanHours sets planned and target hours for a team of teamSize.
func (p *ProjectPlanner) PlanHours(project *models.Project, teamSize int) {
	days := utils.DaysBetween(*project.PlannedStartDate, *project.PlannedEndDate)
	workingDays := math.Ceil(float64(days) * 5 / 7)
	project.PlannedHours = math.Round(workingDays * float64(teamSize) * p.params.WorkingHoursPerDay)

	factor := p.rng.Uniform(1.05, 1.10)
	if p.rng.Chance(0.05) {
		factor = p.rng.Uniform(0.90, 0.95)
	}
	project.TargetHours = math.Round(project.PlannedHours * factor)
}

// Deliverables splits a planned project into sequential deliverables. Target
// hours sum to the project's target and planned hours to its planned hours.
func (p *ProjectPlanner) Deliverables(project *models.Project) []models.Deliverable {
	target := int(project.TargetHours)
	n := p.rng.IntBetween(p.params.DeliverableCountRange.Min, p.params.DeliverableCountRange.Max)
	if limit := target / minDeliverableHours; n > limit {
		n = max(1, limit)
	}

	targets := make([]int, n)
	remaining := target
	for i := 0; i < n-1; i++ {
		hi := max(minDeliverableHours, remaining-(n-i-1)*minDeliverableHours)
		targets[i] = p.rng.IntBetween(minDeliverableHours, hi)
		remaining -= targets[i]
	}
	targets[n-1] = remaining

	plannedStart := *project.PlannedStartDate
	plannedEnd := *project.PlannedEndDate
	projectDays := utils.DaysBetween(plannedStart, plannedEnd)
	planned := decimal.NewFromFloat(project.PlannedHours)
	targetTotal := decimal.NewFromInt(int64(max(target, 1)))

	out := make([]models.Deliverable, n)
	start := plannedStart
	allocated := decimal.Zero
	for i, t := range targets {
		span := 1
		if target > 0 {
			span = max(1, int(float64(t)/float64(target)*float64(projectDays)))
		}
		due := utils.MinDate(start.AddDate(0, 0, span), plannedEnd)

		hours := planned.Sub(allocated)
		if i < n-1 {
			hours = decimal.NewFromInt(int64(t)).Mul(planned).Div(targetTotal).Round(1)
			allocated = allocated.Add(hours)
		}

		out[i] = models.Deliverable{
			ID:               p.rng.NewID(),
			ProjectID:        project.ID,
			Sequence:         i + 1,
			Name:             fmt.Sprintf("Deliverable %d", i+1),
			PlannedStartDate: start,
			DueDate:          due,
			Status:           models.StatusNotStarted,
			PlannedHours:     hours.InexactFloat64(),
			TargetHours:      float64(t),
		}
		start = utils.MinDate(due.AddDate(0, 0, 1), plannedEnd)
	}
	return out
}
