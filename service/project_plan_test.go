package service

import (
	"math"
	"testing"
	"time"

	"github.com/BerniceZTT/consultsim/models"
	"github.com/BerniceZTT/consultsim/utils"
	"github.com/shopspring/decimal"
)

func TestScheduleUsesWorkingDays(t *testing.T) {
	planner := NewProjectPlanner(defaultParams(t), NewRand(17))
	asOf := ymd(2015, time.June, 1)
	project := &models.Project{ID: "P00001", DurationMonths: 2}
	planner.Schedule(project, asOf, ymd(2015, time.June, 10))

	if project.PlannedStartDate.Before(ymd(2015, time.June, 10)) {
		t.Fatalf("planned start %s precedes manager availability", project.PlannedStartDate)
	}
	if got := utils.AddWorkingDays(*project.PlannedStartDate, 42); !got.Equal(*project.PlannedEndDate) {
		t.Fatalf("planned end = %s, want %s", project.PlannedEndDate, got)
	}
}

func TestScheduleDrawsDurationFromTable(t *testing.T) {
	params := defaultParams(t)
	planner := NewProjectPlanner(params, NewRand(23))
	for i := 0; i < 50; i++ {
		project := &models.Project{}
		planner.Schedule(project, ymd(2015, time.January, 1), ymd(2015, time.January, 1))
		if project.DurationMonths < 1 || project.DurationMonths > 12 {
			t.Fatalf("duration = %d months", project.DurationMonths)
		}
	}
}

func TestPlanHours(t *testing.T) {
	planner := NewProjectPlanner(defaultParams(t), NewRand(5))
	start := ymd(2015, time.March, 2)
	end := ymd(2015, time.April, 30)
	project := &models.Project{PlannedStartDate: &start, PlannedEndDate: &end}
	planner.PlanHours(project, 6)

	want := math.Round(math.Ceil(float64(utils.DaysBetween(start, end))*5/7) * 6 * 8)
	if project.PlannedHours != want {
		t.Fatalf("planned hours = %v, want %v", project.PlannedHours, want)
	}
	ratio := project.TargetHours / project.PlannedHours
	if !(ratio >= 0.89 && ratio <= 0.96) && !(ratio >= 1.04 && ratio <= 1.11) {
		t.Fatalf("target/planned = %v", ratio)
	}
}

func TestDeliverablesCoverProjectHours(t *testing.T) {
	params := defaultParams(t)
	for seed := int64(1); seed <= 25; seed++ {
		planner := NewProjectPlanner(params, NewRand(seed))
		project := &models.Project{ID: "P00001", DurationMonths: int(seed%12) + 1}
		planner.Schedule(project, ymd(2015, time.February, 1), ymd(2015, time.February, 1))
		planner.PlanHours(project, 5+int(seed%8))
		deliverables := planner.Deliverables(project)

		if n := len(deliverables); n < params.DeliverableCountRange.Min || n > params.DeliverableCountRange.Max {
			t.Fatalf("seed %d: %d deliverables", seed, n)
		}
		planned := decimal.Zero
		target := 0.0
		for i, d := range deliverables {
			if d.Sequence != i+1 {
				t.Fatalf("seed %d: sequence %d at %d", seed, d.Sequence, i)
			}
			if d.TargetHours < minDeliverableHours {
				t.Fatalf("seed %d: deliverable %d target %v below floor", seed, i, d.TargetHours)
			}
			if d.DueDate.After(*project.PlannedEndDate) || d.DueDate.Before(d.PlannedStartDate) {
				t.Fatalf("seed %d: deliverable %d runs %s..%s", seed, i, d.PlannedStartDate, d.DueDate)
			}
			if i > 0 && d.PlannedStartDate.Before(deliverables[i-1].DueDate) {
				t.Fatalf("seed %d: deliverable %d overlaps its predecessor", seed, i)
			}
			planned = planned.Add(decimal.NewFromFloat(d.PlannedHours))
			target += d.TargetHours
		}
		if !planned.Equal(decimal.NewFromFloat(project.PlannedHours)) {
			t.Fatalf("seed %d: deliverable planned hours %s, project %v", seed, planned, project.PlannedHours)
		}
		if target != project.TargetHours {
			t.Fatalf("seed %d: deliverable target hours %v, project %v", seed, target, project.TargetHours)
		}
	}
}
