package service

import (
	"context"
	"testing"
	"time"

	"github.com/BerniceZTT/consultsim/models"
	"github.com/BerniceZTT/consultsim/repository"
)

func TestAccrueHoursSpillsIntoNextDeliverable(t *testing.T) {
	monday := ymd(2015, time.March, 2)
	deliverables := []models.Deliverable{
		{Sequence: 1, TargetHours: 10, PlannedHours: 10, Status: models.StatusNotStarted},
		{Sequence: 2, TargetHours: 30, PlannedHours: 30, Status: models.StatusNotStarted},
	}

	used := accrueHours(deliverables, 24, monday)
	if used != 24 {
		t.Fatalf("used = %v, want 24", used)
	}
	if deliverables[0].Status != models.StatusCompleted || deliverables[0].SubmissionDate == nil {
		t.Fatalf("first deliverable = %+v", deliverables[0])
	}
	if deliverables[1].ActualHours != 14 || deliverables[1].Status != models.StatusInProgress {
		t.Fatalf("second deliverable = %+v", deliverables[1])
	}
	if got := projectProgress(deliverables); got != 60 {
		t.Fatalf("progress = %d, want 60", got)
	}

	used = accrueHours(deliverables, 40, monday.AddDate(0, 0, 1))
	if used != 16 {
		t.Fatalf("used = %v, want the 16 hours left", used)
	}
	if !allCompleted(deliverables) {
		t.Fatal("expected every deliverable complete")
	}
}

func TestPercentCapsAtHundred(t *testing.T) {
	tests := []struct {
		part, whole float64
		want        int
	}{
		{0, 0, 0},
		{5, 10, 50},
		{1, 3, 33},
		{15, 10, 100},
	}
	for _, tt := range tests {
		if got := percent(tt.part, tt.whole); got != tt.want {
			t.Fatalf("percent(%v, %v) = %d, want %d", tt.part, tt.whole, got, tt.want)
		}
	}
}

func TestTrackerCompletesProject(t *testing.T) {
	ctx := context.Background()
	eng, store := newTestEngine(t, 1)
	start := ymd(2015, time.March, 2) // Monday
	end := start.AddDate(0, 0, 30)
	project := models.Project{
		ID: "P00001", Status: models.StatusNotStarted, ContractType: models.ContractFixed,
		PlannedStartDate: &start, PlannedEndDate: &end, ActualStartDate: &start,
		PlannedHours: 24, TargetHours: 24,
	}
	err := store.RunBatch(ctx, func(b *repository.Batch) error {
		b.SaveProject(&project)
		b.SaveDeliverable(models.Deliverable{ID: "D1", ProjectID: "P00001", Sequence: 1, PlannedStartDate: start, DueDate: end,
			Status: models.StatusNotStarted, PlannedHours: 24, TargetHours: 24})
		b.SaveMembership(models.ProjectTeamMembership{ID: "M1", ProjectID: "P00001", ConsultantID: "C0001", Role: models.RoleProjectManager, StartDate: start})
		b.SaveMembership(models.ProjectTeamMembership{ID: "M2", ProjectID: "P00001", ConsultantID: "C0002", Role: models.RoleTeamMember, StartDate: start})
		return nil
	})
	if err != nil {
		t.Fatalf("seed project: %v", err)
	}
	eng.Finance.pending["P00001"] = []models.ExpenseEntry{
		{ID: "X1", ProjectID: "P00001", DeliverableID: "D1", Date: start, Amount: 50, Category: "Travel", Billable: true},
		{ID: "X2", ProjectID: "P00001", DeliverableID: "D1", Date: end, Amount: 75, Category: "Meals", Billable: true},
	}

	report, err := eng.Tracker.Advance(ctx, start.AddDate(0, 0, -1))
	if err != nil || report.Started != 0 {
		t.Fatalf("before start: report %+v, err %v", report, err)
	}

	report, err = eng.Tracker.Advance(ctx, start)
	if err != nil {
		t.Fatalf("advance day 1: %v", err)
	}
	if report.Started != 1 || report.Expenses != 1 || report.Completed != 0 {
		t.Fatalf("day 1 report = %+v", report)
	}
	p, _ := store.GetProject(ctx, "P00001")
	if p.Status != models.StatusInProgress || p.ActualHours != 16 || p.Progress != 67 {
		t.Fatalf("after day 1: %+v", p)
	}

	report, err = eng.Tracker.Advance(ctx, start.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("advance day 2: %v", err)
	}
	if report.Completed != 1 || report.Expenses != 1 {
		t.Fatalf("day 2 report = %+v", report)
	}
	p, _ = store.GetProject(ctx, "P00001")
	finish := start.AddDate(0, 0, 1)
	if p.Status != models.StatusCompleted || p.ActualEndDate == nil || !p.ActualEndDate.Equal(finish) || p.Progress != 100 {
		t.Fatalf("after day 2: %+v", p)
	}

	open, _ := store.ListMemberships(ctx, repository.MembershipQuery{ProjectID: "P00001", OpenOnly: true})
	if len(open) != 0 {
		t.Fatalf("%d memberships still open", len(open))
	}
	expenses, _ := store.ListExpenses(ctx, repository.ExpenseQuery{ProjectID: "P00001"})
	if len(expenses) != 2 {
		t.Fatalf("stored %d expenses, want 2", len(expenses))
	}
	for _, x := range expenses {
		if x.Date.After(finish) {
			t.Fatalf("expense %s dated after completion", x.ID)
		}
	}

	report, err = eng.Tracker.Advance(ctx, start.AddDate(0, 0, 2))
	if err != nil || report.Completed != 0 {
		t.Fatalf("completed project advanced again: %+v, %v", report, err)
	}
}
