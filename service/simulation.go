package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/BerniceZTT/consultsim/config"
	"github.com/BerniceZTT/consultsim/models"
	"github.com/BerniceZTT/consultsim/repository"
	"github.com/BerniceZTT/consultsim/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RunOptions configures one generation run.
type RunOptions struct {
	RunID     string
	Seed      int64
	StartYear int
	EndYear   int
	SlotCount int
}

// Validate checks opts before anything is written.
func (o RunOptions) Validate() error {
	if o.SlotCount < 0 {
		return utils.NewValidationError("slotCount", "must not be negative")
	}
	if o.StartYear <= 0 {
		return utils.NewValidationError("startYear", "must be set")
	}
	if o.EndYear < o.StartYear {
		return utils.NewValidationError("endYear", "%d is before start year %d", o.EndYear, o.StartYear)
	}
	return nil
}

// Runner executes full generation runs and records each one.
type Runner struct {
	store  repository.Store
	params *config.SimulationParams
	log    zerolog.Logger
}

func NewRunner(store repository.Store, params *config.SimulationParams) *Runner {
	return &Runner{store: store, params: params, log: utils.Component("runner")}
}

// NewRunRecord returns the record a run starts with.
func NewRunRecord(opts RunOptions) models.GenerationRun {
	id := opts.RunID
	if id == "" {
		id = uuid.NewString()
	}
	return models.GenerationRun{
		ID:        id,
		Seed:      opts.Seed,
		StartYear: opts.StartYear,
		EndYear:   opts.EndYear,
		SlotCount: opts.SlotCount,
		Status:    models.RunRunning,
		StartedAt: time.Now().UTC(),
	}
}

// Run generates the dataset for opts. The returned record is also stored,
// including when the run fails.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (*models.GenerationRun, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := r.params.Validate(); err != nil {
		return nil, err
	}

	rng := NewRand(opts.Seed)
	run := NewRunRecord(opts)
	run.Seed = rng.Seed()
	if err := r.saveRun(ctx, run); err != nil {
		return nil, err
	}

	log := r.log.With().Str("run", run.ID).Int64("seed", run.Seed).Logger()
	log.Info().Int("startYear", opts.StartYear).Int("endYear", opts.EndYear).Int("slots", opts.SlotCount).Msg("run started")

	err := r.generate(ctx, NewEngine(r.store, r.params, rng), opts, &run.Summary)

	finished := time.Now().UTC()
	run.FinishedAt = &finished
	if err != nil {
		run.Status = models.RunFailed
		run.Error = err.Error()
		run.Retryable = repository.IsTransientError(err)
		log.Error().Err(err).Bool("retryable", run.Retryable).Msg("run failed")
	} else {
		run.Status = models.RunSucceeded
		log.Info().Interface("summary", run.Summary).Dur("elapsed", finished.Sub(run.StartedAt)).Msg("run finished")
	}
	saveCtx := context.WithoutCancel(ctx)
	saveErr := utils.Retry(saveCtx, 3, time.Second, repository.IsTransientError, func() error {
		return r.saveRun(saveCtx, run)
	})
	if saveErr != nil {
		log.Error().Err(saveErr).Msg("failed to record run result")
	}
	return &run, err
}

func (r *Runner) saveRun(ctx context.Context, run models.GenerationRun) error {
	err := r.store.RunBatch(ctx, func(b *repository.Batch) error {
		b.SaveRun(run)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return nil
}

func (r *Runner) generate(ctx context.Context, eng *Engine, opts RunOptions, summary *models.RunSummary) error {
	_, clients, err := eng.Reference.Seed(ctx)
	if err != nil {
		return err
	}
	summary.ClientsAdded = clients

	careers, err := eng.RunCareerSimulation(ctx, opts.SlotCount, opts.StartYear, opts.EndYear)
	if err != nil {
		return err
	}
	summary.Hires = careers.Hires
	summary.Promotions = careers.Promotions
	summary.Attritions = careers.Attritions
	summary.Consultants = len(careers.Population)

	if _, err := eng.AssignBusinessUnits(ctx, r.params.BusinessUnitDistribution); err != nil {
		return err
	}

	end := utils.Date(opts.EndYear, time.December, 31)
	rows, err := eng.Payroll.Generate(ctx, end)
	if err != nil {
		return err
	}
	summary.PayrollRows = rows

	return r.runClock(ctx, eng, utils.Date(opts.StartYear, time.January, 1), end, summary)
}

// runClock walks every day from start to end. Projects are created on the
// first of the month and teams topped up on the fifteenth.
func (r *Runner) runClock(ctx context.Context, eng *Engine, start, end time.Time, summary *models.RunSummary) error {
	clients, err := r.store.ListClients(ctx)
	if err != nil {
		return fmt.Errorf("load clients: %w", err)
	}
	if len(clients) == 0 {
		return utils.NewValidationError("clients", "no clients to create projects for")
	}
	existing, err := r.store.ListProjects(ctx, repository.ProjectQuery{})
	if err != nil {
		return fmt.Errorf("load projects: %w", err)
	}
	nextProject := nextProjectNumber(existing)

	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return err
		}

		if day.Day() == 1 {
			n := eng.Rand.IntBetween(r.params.ProjectsPerMonth.Min, r.params.ProjectsPerMonth.Max)
			for i := 0; i < n; i++ {
				client := clients[eng.Rand.Intn(len(clients))]
				members, err := r.createProject(ctx, eng, fmt.Sprintf("P%05d", nextProject), client, day)
				if errors.Is(err, ErrNoAvailableConsultants) {
					summary.Unstaffed++
					continue
				}
				if err != nil {
					return err
				}
				nextProject++
				summary.Projects++
				summary.Memberships += members
			}
		}

		if day.Day() == 15 {
			added, err := r.topUp(ctx, eng, day)
			if err != nil {
				return err
			}
			summary.Memberships += added
		}

		report, err := eng.Tracker.Advance(ctx, day)
		if err != nil {
			return fmt.Errorf("advance %s: %w", day.Format(utils.DateLayout), err)
		}
		summary.Completed += report.Completed
		summary.Expenses += report.Expenses
	}
	return nil
}

// createProject staffs, plans and prices one project in a single batch and
// returns the number of memberships created.
func (r *Runner) createProject(ctx context.Context, eng *Engine, id string, client models.Client, day time.Time) (int, error) {
	project := &models.Project{
		ID:           id,
		ClientID:     client.ID,
		Name:         client.Name + " " + pick(eng.Rand, projectNouns),
		ContractType: models.ContractTimeAndMaterials,
		Status:       models.StatusNotStarted,
	}
	if eng.Rand.Chance(r.params.FixedContractShare) {
		project.ContractType = models.ContractFixed
	}

	members := 0
	err := r.store.RunBatch(ctx, func(b *repository.Batch) error {
		staffed, err := eng.Staffing.StaffProject(ctx, b, project, day)
		if err != nil {
			return err
		}
		unit, err := eng.Staffing.AssignBusinessUnit(ctx, staffed.Members, project.StartYear())
		if err != nil {
			return err
		}
		project.BusinessUnitID = unit
		eng.Planner.PlanHours(project, len(staffed.Team))
		deliverables := eng.Planner.Deliverables(project)
		if _, err := eng.Finance.PriceProject(ctx, b, project, staffed.Members, deliverables); err != nil {
			return err
		}
		members = len(staffed.Team)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return members, nil
}

func (r *Runner) topUp(ctx context.Context, eng *Engine, day time.Time) (int, error) {
	projects, err := r.store.ListProjects(ctx, repository.ProjectQuery{Status: models.StatusInProgress})
	if err != nil {
		return 0, fmt.Errorf("load in-progress projects: %w", err)
	}
	added := 0
	for i := range projects {
		p := &projects[i]
		err := r.store.RunBatch(ctx, func(b *repository.Batch) error {
			if _, err := eng.Staffing.TopUpTeam(ctx, b, p, day); err != nil {
				return err
			}
			for _, op := range b.Operations() {
				if m, ok := op.Doc.(models.ProjectTeamMembership); ok && m.EndDate == nil {
					added++
				}
			}
			return nil
		})
		if err != nil {
			return added, fmt.Errorf("top up %s: %w", p.ID, err)
		}
	}
	return added, nil
}

func nextProjectNumber(projects []models.Project) int {
	highest := 0
	for _, p := range projects {
		n, err := strconv.Atoi(strings.TrimPrefix(p.ID, "P"))
		if err == nil && n > highest {
			highest = n
		}
	}
	return highest + 1
}
