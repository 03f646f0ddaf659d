package service

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/BerniceZTT/consultsim/config"
	"github.com/BerniceZTT/consultsim/models"
	"github.com/BerniceZTT/consultsim/repository"
	"github.com/BerniceZTT/consultsim/utils"
)

func openStore(t *testing.T) *repository.SQLiteStore {
	t.Helper()
	store, err := repository.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "sim.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close(context.Background())
	})
	return store
}

func defaultParams(t *testing.T) *config.SimulationParams {
	t.Helper()
	params, err := config.DefaultParams()
	if err != nil {
		t.Fatalf("default params: %v", err)
	}
	return params
}

func newTestEngine(t *testing.T, seed int64) (*Engine, *repository.SQLiteStore) {
	t.Helper()
	store := openStore(t)
	return NewEngine(store, defaultParams(t), NewRand(seed)), store
}

func seedUnits(t *testing.T, store repository.Store) {
	t.Helper()
	err := store.RunBatch(context.Background(), func(b *repository.Batch) error {
		b.SaveBusinessUnit(models.BusinessUnit{ID: "BU01", Name: "North America"})
		b.SaveBusinessUnit(models.BusinessUnit{ID: "BU02", Name: "EMEA"})
		return nil
	})
	if err != nil {
		t.Fatalf("seed units: %v", err)
	}
}

// seedStaff writes perLevel consultants at every title level, all hired on
// hire with an open record.
func seedStaff(t *testing.T, store repository.Store, perLevel int, hire time.Time) {
	t.Helper()
	n := 0
	err := store.RunBatch(context.Background(), func(b *repository.Batch) error {
		for _, level := range models.TitleLevels() {
			for i := 0; i < perLevel; i++ {
				n++
				id := fmt.Sprintf("C%04d", n)
				unit := "BU01"
				if n%3 == 0 {
					unit = "BU02"
				}
				b.SaveConsultant(models.Consultant{ID: id, BusinessUnitID: unit, FirstName: "Test", LastName: id, PerformanceTier: models.PerformanceAverage})
				b.SaveTitleRecord(models.TitleHistoryRecord{
					ID:           "h-" + id,
					ConsultantID: id,
					Title:        level,
					StartDate:    hire,
					EventKind:    models.EventHire,
					Salary:       60000 + int(level)*20000,
				})
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed staff: %v", err)
	}
}

// staffedProject stages and commits a staffed, planned and priced project.
func staffedProject(t *testing.T, eng *Engine, id string, contract models.ContractType, months int, asOf time.Time) (*models.Project, *StaffingResult, []models.Deliverable, *models.PricingResult) {
	t.Helper()
	ctx := context.Background()
	project := &models.Project{ID: id, ClientID: "CL0001", Name: id, ContractType: contract, Status: models.StatusNotStarted, DurationMonths: months}
	var (
		staffed      *StaffingResult
		deliverables []models.Deliverable
		priced       *models.PricingResult
	)
	err := eng.Store.RunBatch(ctx, func(b *repository.Batch) error {
		var err error
		staffed, err = eng.Staffing.StaffProject(ctx, b, project, asOf)
		if err != nil {
			return err
		}
		eng.Planner.PlanHours(project, len(staffed.Team))
		deliverables = eng.Planner.Deliverables(project)
		priced, err = eng.Finance.PriceProject(ctx, b, project, staffed.Members, deliverables)
		return err
	})
	if err != nil {
		t.Fatalf("create project %s: %v", id, err)
	}
	return project, staffed, deliverables, priced
}

func ymd(y int, m time.Month, d int) time.Time {
	return utils.Date(y, m, d)
}
