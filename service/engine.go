package service

import (
	"context"
	"time"

	"github.com/BerniceZTT/consultsim/config"
	"github.com/BerniceZTT/consultsim/models"
	"github.com/BerniceZTT/consultsim/repository"
)

// Engine wires the generators together around one random stream so a seed
// reproduces everything they write.
type Engine struct {
	Store     repository.Store
	Params    *config.SimulationParams
	Rand      *Rand
	Career    *CareerEngine
	Planner   *ProjectPlanner
	Staffing  *StaffingEngine
	Finance   *FinanceEngine
	Tracker   *DeliveryTracker
	Payroll   *PayrollGenerator
	Reference *ReferenceSeeder
}

func NewEngine(store repository.Store, params *config.SimulationParams, rng *Rand) *Engine {
	planner := NewProjectPlanner(params, rng)
	finance := NewFinanceEngine(store, params, rng)
	return &Engine{
		Store:     store,
		Params:    params,
		Rand:      rng,
		Career:    NewCareerEngine(store, params, rng),
		Planner:   planner,
		Staffing:  NewStaffingEngine(store, params, rng, planner),
		Finance:   finance,
		Tracker:   NewDeliveryTracker(store, params, finance),
		Payroll:   NewPayrollGenerator(store, rng),
		Reference: NewReferenceSeeder(store, params, rng),
	}
}

// RunCareerSimulation grows the stored population over [startYear, endYear].
func (e *Engine) RunCareerSimulation(ctx context.Context, slotCount, startYear, endYear int) (*AdvanceResult, error) {
	return e.Career.Advance(ctx, slotCount, startYear, endYear)
}

// AssignBusinessUnits assigns every consultant a unit sampled from distribution.
func (e *Engine) AssignBusinessUnits(ctx context.Context, distribution map[string]float64) (map[string]int, error) {
	return e.Career.AssignBusinessUnits(ctx, distribution)
}

// StaffProject staffs project as of asOf and stores the scheduled project
// with its memberships.
func (e *Engine) StaffProject(ctx context.Context, project *models.Project, asOf time.Time) (*StaffingResult, error) {
	var result *StaffingResult
	err := e.Store.RunBatch(ctx, func(b *repository.Batch) error {
		var err error
		result, err = e.Staffing.StaffProject(ctx, b, project, asOf)
		if err != nil {
			return err
		}
		b.SaveProject(project)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// TopUpTeam refills project's team as of asOf.
func (e *Engine) TopUpTeam(ctx context.Context, project *models.Project, asOf time.Time) (*models.ProjectStaffingState, error) {
	var state *models.ProjectStaffingState
	err := e.Store.RunBatch(ctx, func(b *repository.Batch) error {
		var err error
		state, err = e.Staffing.TopUpTeam(ctx, b, project, asOf)
		return err
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// PriceProject prices a staffed project and stores the result.
func (e *Engine) PriceProject(ctx context.Context, project *models.Project, team []models.TeamMember, deliverables []models.Deliverable) (*models.PricingResult, error) {
	var result *models.PricingResult
	err := e.Store.RunBatch(ctx, func(b *repository.Batch) error {
		var err error
		result, err = e.Finance.PriceProject(ctx, b, project, team, deliverables)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
