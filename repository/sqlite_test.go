package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/BerniceZTT/consultsim/models"
	"github.com/BerniceZTT/consultsim/utils"
)

func openTempStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "consultsim.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close(context.Background())
	})
	return store
}

func TestOpenSQLiteRequiresPath(t *testing.T) {
	if _, err := OpenSQLite(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "consultsim.db")
	for i := 0; i < 2; i++ {
		store, err := OpenSQLite(context.Background(), path)
		if err != nil {
			t.Fatalf("open #%d: %v", i, err)
		}
		_ = store.Close(context.Background())
	}
}

func TestConsultantAndTitleHistoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)

	hire := utils.Date(2015, time.March, 10)
	closed := utils.Date(2016, time.April, 1)
	err := store.RunBatch(ctx, func(b *Batch) error {
		b.SaveConsultant(models.Consultant{ID: "C0002", FirstName: "Ada", LastName: "Byrne", PerformanceTier: models.PerformanceHigh})
		b.SaveConsultant(models.Consultant{ID: "C0001", FirstName: "Ben", LastName: "Cole", PerformanceTier: models.PerformanceLow})
		b.SaveTitleRecord(models.TitleHistoryRecord{ID: "t2", ConsultantID: "C0001", Title: 2, StartDate: closed.AddDate(0, 0, 1), EventKind: models.EventPromotion, Salary: 90000})
		b.SaveTitleRecord(models.TitleHistoryRecord{ID: "t1", ConsultantID: "C0001", Title: 1, StartDate: hire, EndDate: &closed, EventKind: models.EventHire, Salary: 70000})
		return nil
	})
	if err != nil {
		t.Fatalf("run batch: %v", err)
	}

	consultants, err := store.ListConsultants(ctx, Page{})
	if err != nil {
		t.Fatalf("list consultants: %v", err)
	}
	if len(consultants) != 2 || consultants[0].ID != "C0001" {
		t.Fatalf("consultants = %+v, want C0001 first", consultants)
	}

	records, err := store.ListTitleHistory(ctx, TitleHistoryQuery{ConsultantID: "C0001"})
	if err != nil {
		t.Fatalf("list title history: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0].ID != "t1" || records[0].EndDate == nil || !records[0].EndDate.Equal(closed) {
		t.Fatalf("first record = %+v", records[0])
	}
	if records[1].EndDate != nil || records[1].Title != 2 {
		t.Fatalf("second record = %+v", records[1])
	}

	asOf := utils.Date(2015, time.December, 31)
	early, err := store.ListTitleHistory(ctx, TitleHistoryQuery{StartedOnOrBefore: &asOf})
	if err != nil {
		t.Fatalf("list started before: %v", err)
	}
	if len(early) != 1 || early[0].ID != "t1" {
		t.Fatalf("records started by %s = %+v", asOf.Format(utils.DateLayout), early)
	}

	if _, err := store.GetConsultant(ctx, "C9999"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetConsultant missing = %v, want ErrNotFound", err)
	}
}

func TestRunBatchRollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)

	err := store.RunBatch(ctx, func(b *Batch) error {
		b.SaveBusinessUnit(models.BusinessUnit{ID: "BU01", Name: "EMEA"})
		b.put(BusinessUnitsCollection, "bad", "not a document")
		return nil
	})
	if err == nil {
		t.Fatal("expected write failure")
	}

	sentinel := errors.New("stop")
	if err := store.RunBatch(ctx, func(b *Batch) error {
		b.SaveBusinessUnit(models.BusinessUnit{ID: "BU02", Name: "Asia Pacific"})
		return sentinel
	}); !errors.Is(err, sentinel) {
		t.Fatalf("RunBatch = %v, want sentinel", err)
	}

	n, err := store.Count(ctx, BusinessUnitsCollection)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("business units = %d, want 0 after rollback", n)
	}
}

func TestRunBatchCommitHooks(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)

	tests := []struct {
		name    string
		stage   func(b *Batch) error
		wantRun bool
	}{
		{"committed", func(b *Batch) error {
			b.SaveBusinessUnit(models.BusinessUnit{ID: "BU01", Name: "EMEA"})
			return nil
		}, true},
		{"empty", func(b *Batch) error { return nil }, true},
		{"staging error", func(b *Batch) error {
			b.SaveBusinessUnit(models.BusinessUnit{ID: "BU02", Name: "Asia Pacific"})
			return errors.New("stop")
		}, false},
		{"write error", func(b *Batch) error {
			b.put(BusinessUnitsCollection, "bad", "not a document")
			return nil
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ran := 0
			_ = store.RunBatch(ctx, func(b *Batch) error {
				b.AfterCommit(func() { ran++ })
				return tt.stage(b)
			})
			if (ran == 1) != tt.wantRun || ran > 1 {
				t.Fatalf("hook ran %d times, want run = %v", ran, tt.wantRun)
			}
		})
	}
}

func TestProjectQueriesAndUnitCounts(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)

	price := 120000.0
	project := func(id, unit string, start time.Time, status models.ProjectStatus) *models.Project {
		return &models.Project{
			ID:               id,
			ClientID:         "CL001",
			BusinessUnitID:   unit,
			Name:             "Project " + id,
			ContractType:     models.ContractFixed,
			Status:           status,
			DurationMonths:   3,
			PlannedStartDate: utils.DatePtr(start),
			PlannedEndDate:   utils.DatePtr(start.AddDate(0, 3, 0)),
			PlannedHours:     1200,
			Price:            &price,
		}
	}
	err := store.RunBatch(ctx, func(b *Batch) error {
		b.SaveProject(project("P00001", "BU01", utils.Date(2015, time.February, 2), models.StatusCompleted))
		b.SaveProject(project("P00002", "BU01", utils.Date(2015, time.June, 1), models.StatusInProgress))
		b.SaveProject(project("P00003", "BU02", utils.Date(2015, time.July, 1), models.StatusNotStarted))
		b.SaveProject(project("P00004", "BU02", utils.Date(2016, time.January, 4), models.StatusNotStarted))
		return nil
	})
	if err != nil {
		t.Fatalf("save projects: %v", err)
	}

	counts, err := store.CountProjectsByUnit(ctx, 2015)
	if err != nil {
		t.Fatalf("count by unit: %v", err)
	}
	if counts["BU01"] != 2 || counts["BU02"] != 1 {
		t.Fatalf("2015 counts = %v", counts)
	}

	open, err := store.ListProjects(ctx, ProjectQuery{Open: true})
	if err != nil {
		t.Fatalf("list open: %v", err)
	}
	if len(open) != 3 || open[0].ID != "P00002" {
		t.Fatalf("open projects = %d first %s", len(open), open[0].ID)
	}

	total, err := store.CountProjects(ctx, ProjectQuery{StartYear: 2015})
	if err != nil {
		t.Fatalf("count projects: %v", err)
	}
	if total != 3 {
		t.Fatalf("2015 projects = %d, want 3", total)
	}

	page, err := store.ListProjects(ctx, ProjectQuery{Page: Page{Limit: 2, Offset: 2}})
	if err != nil {
		t.Fatalf("list page: %v", err)
	}
	if len(page) != 2 || page[0].ID != "P00003" {
		t.Fatalf("page = %+v", page)
	}

	got, err := store.GetProject(ctx, "P00001")
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	if got.Price == nil || *got.Price != price || got.EstimatedBudget != nil || got.ActualStartDate != nil {
		t.Fatalf("project = %+v", got)
	}
}

func TestMembershipFilters(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)

	end := utils.Date(2015, time.May, 1)
	err := store.RunBatch(ctx, func(b *Batch) error {
		b.SaveMembership(models.ProjectTeamMembership{ID: "m1", ProjectID: "P00001", ConsultantID: "C0001", Role: models.RoleProjectManager, StartDate: utils.Date(2015, time.January, 5), EndDate: &end})
		b.SaveMembership(models.ProjectTeamMembership{ID: "m2", ProjectID: "P00002", ConsultantID: "C0001", Role: models.RoleTeamLead, StartDate: utils.Date(2015, time.June, 1)})
		b.SaveMembership(models.ProjectTeamMembership{ID: "m3", ProjectID: "P00002", ConsultantID: "C0002", Role: models.RoleTeamMember, StartDate: utils.Date(2015, time.June, 1)})
		return nil
	})
	if err != nil {
		t.Fatalf("save memberships: %v", err)
	}

	tests := []struct {
		name string
		q    MembershipQuery
		want int
	}{
		{"all", MembershipQuery{}, 3},
		{"by consultant", MembershipQuery{ConsultantID: "C0001"}, 2},
		{"open only", MembershipQuery{OpenOnly: true}, 2},
		{"project and open", MembershipQuery{ProjectID: "P00001", OpenOnly: true}, 0},
	}
	for _, tt := range tests {
		got, err := store.ListMemberships(ctx, tt.q)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if len(got) != tt.want {
			t.Fatalf("%s: got %d memberships, want %d", tt.name, len(got), tt.want)
		}
	}
}

func TestRunRecordRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)

	started := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	finished := started.Add(2 * time.Minute)
	run := models.GenerationRun{
		ID:         "run-1",
		Seed:       42,
		StartYear:  2015,
		EndYear:    2016,
		SlotCount:  100,
		Status:     models.RunSucceeded,
		StartedAt:  started,
		FinishedAt: &finished,
		Summary:    models.RunSummary{Consultants: 7, Projects: 3},
	}
	if err := store.RunBatch(ctx, func(b *Batch) error {
		b.SaveRun(run)
		return nil
	}); err != nil {
		t.Fatalf("save run: %v", err)
	}

	got, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got.Seed != 42 || got.Summary.Consultants != 7 || got.FinishedAt == nil || !got.FinishedAt.Equal(finished) {
		t.Fatalf("run = %+v", got)
	}
	if _, err := store.GetRun(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetRun missing = %v, want ErrNotFound", err)
	}
}
