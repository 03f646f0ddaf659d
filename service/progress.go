package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/BerniceZTT/consultsim/config"
	"github.com/BerniceZTT/consultsim/models"
	"github.com/BerniceZTT/consultsim/repository"
	"github.com/BerniceZTT/consultsim/utils"
	"github.com/rs/zerolog"
)

// DayReport counts what one tracker step changed.
type DayReport struct {
	Started   int
	Completed int
	Expenses  int
}

// DeliveryTracker moves open projects forward one day at a time.
type DeliveryTracker struct {
	store   repository.Store
	params  *config.SimulationParams
	finance *FinanceEngine
	log     zerolog.Logger
}

func NewDeliveryTracker(store repository.Store, params *config.SimulationParams, finance *FinanceEngine) *DeliveryTracker {
	return &DeliveryTracker{store: store, params: params, finance: finance, log: utils.Component("delivery")}
}

type projectDay struct {
	project      models.Project
	deliverables []models.Deliverable
	open         []models.ProjectTeamMembership
}

// Advance applies day to every open project in a single batch.
func (t *DeliveryTracker) Advance(ctx context.Context, day time.Time) (DayReport, error) {
	day = utils.Truncate(day)
	var report DayReport

	projects, err := t.store.ListProjects(ctx, repository.ProjectQuery{Open: true})
	if err != nil {
		return report, fmt.Errorf("load open projects: %w", err)
	}
	if len(projects) == 0 {
		return report, nil
	}

	work := make([]projectDay, 0, len(projects))
	for _, p := range projects {
		if p.ActualStartDate == nil || day.Before(*p.ActualStartDate) {
			continue
		}
		deliverables, err := t.store.ListDeliverables(ctx, p.ID)
		if err != nil {
			return report, fmt.Errorf("load deliverables of %s: %w", p.ID, err)
		}
		open, err := t.store.ListMemberships(ctx, repository.MembershipQuery{ProjectID: p.ID, OpenOnly: true})
		if err != nil {
			return report, fmt.Errorf("load team of %s: %w", p.ID, err)
		}
		work = append(work, projectDay{project: p, deliverables: deliverables, open: open})
	}
	if len(work) == 0 {
		return report, nil
	}

	err = t.store.RunBatch(ctx, func(b *repository.Batch) error {
		for i := range work {
			t.advanceProject(b, &work[i], day, &report)
		}
		return nil
	})
	if err != nil {
		return DayReport{}, err
	}
	return report, nil
}

func (t *DeliveryTracker) advanceProject(b *repository.Batch, w *projectDay, day time.Time, report *DayReport) {
	p := &w.project
	if p.Status == models.StatusNotStarted {
		p.Status = models.StatusInProgress
		report.Started++
	}

	if utils.IsWorkingDay(day) {
		active := 0
		for _, m := range w.open {
			if m.ActiveOn(day) {
				active++
			}
		}
		hours := float64(active) * t.params.WorkingHoursPerDay
		p.ActualHours += accrueHours(w.deliverables, hours, day)
		for _, d := range w.deliverables {
			b.SaveDeliverable(d)
		}
	}
	p.Progress = projectProgress(w.deliverables)

	if allCompleted(w.deliverables) {
		p.Status = models.StatusCompleted
		p.Progress = 100
		p.ActualEndDate = utils.DatePtr(day)
		for _, m := range w.open {
			m.EndDate = utils.DatePtr(day)
			b.SaveMembership(m)
		}
		report.Completed++
		report.Expenses += t.finance.MaterializeExpenses(b, p, day, true)
		t.log.Debug().Str("project", p.ID).Str("day", day.Format(utils.DateLayout)).Msg("project completed")
	} else {
		report.Expenses += t.finance.MaterializeExpenses(b, p, day, false)
	}
	b.SaveProject(p)
}

// accrueHours books hours onto the earliest unfinished deliverables in
// sequence order, spilling over into later ones. It returns the hours used.
func accrueHours(deliverables []models.Deliverable, hours float64, day time.Time) float64 {
	used := 0.0
	for i := range deliverables {
		if hours <= 0 {
			break
		}
		d := &deliverables[i]
		if d.Status == models.StatusCompleted {
			continue
		}
		if d.ActualStartDate == nil {
			d.ActualStartDate = utils.DatePtr(day)
		}
		d.Status = models.StatusInProgress
		take := math.Min(hours, d.TargetHours-d.ActualHours)
		if take < 0 {
			take = 0
		}
		d.ActualHours += take
		hours -= take
		used += take
		if d.ActualHours >= d.TargetHours {
			d.Status = models.StatusCompleted
			d.SubmissionDate = utils.DatePtr(day)
		}
		d.Progress = percent(d.ActualHours, d.TargetHours)
	}
	return used
}

// projectProgress is actual hours over planned hours across deliverables,
// capped at 100.
func projectProgress(deliverables []models.Deliverable) int {
	var actual, planned float64
	for _, d := range deliverables {
		actual += d.ActualHours
		planned += d.PlannedHours
	}
	return percent(actual, planned)
}

func percent(part, whole float64) int {
	if whole <= 0 {
		return 0
	}
	return min(100, int(math.Round(part/whole*100)))
}

func allCompleted(deliverables []models.Deliverable) bool {
	if len(deliverables) == 0 {
		return false
	}
	for _, d := range deliverables {
		if d.Status != models.StatusCompleted {
			return false
		}
	}
	return true
}
