package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/BerniceZTT/consultsim/config"
	"github.com/BerniceZTT/consultsim/models"
	"github.com/BerniceZTT/consultsim/repository"
	"github.com/BerniceZTT/consultsim/utils"
	"github.com/rs/zerolog"
)

// ErrNoAvailableConsultants means nobody can manage a new project.
var ErrNoAvailableConsultants = errors.New("no available consultants")

// StaffingResult is the team chosen for a project.
type StaffingResult struct {
	Team           []models.ProjectTeamMembership
	Members        []models.TeamMember
	TargetTeamSize int
	State          models.ProjectStaffingState
}

// StaffingEngine builds and maintains project teams. It owns the per-project
// staffing state for the duration of a generation pass.
type StaffingEngine struct {
	store    repository.Store
	params   *config.SimulationParams
	rng      *Rand
	planner  *ProjectPlanner
	projects map[string]*models.ProjectStaffingState
	log      zerolog.Logger
}

// NewStaffingEngine creates a StaffingEngine.
func NewStaffingEngine(store repository.Store, params *config.SimulationParams, rng *Rand, planner *ProjectPlanner) *StaffingEngine {
	return &StaffingEngine{
		store:    store,
		params:   params,
		rng:      rng,
		planner:  planner,
		projects: make(map[string]*models.ProjectStaffingState),
		log:      utils.Component("staffing"),
	}
}

// ProjectState returns the engine's state for a project, if any.
func (e *StaffingEngine) ProjectState(projectID string) (models.ProjectStaffingState, bool) {
	s, ok := e.projects[projectID]
	if !ok {
		return models.ProjectStaffingState{}, false
	}
	out := *s
	out.Roster = append([]string(nil), s.Roster...)
	return out, true
}

// staffingPass is everything one staffing decision reads from storage.
type staffingPass struct {
	careers     map[string]*Career
	memberships []models.ProjectTeamMembership
	pool        []models.ConsultantStaffingState
}

func (e *StaffingEngine) loadPass(ctx context.Context, asOf time.Time) (*staffingPass, error) {
	careers, err := loadCareers(ctx, e.store)
	if err != nil {
		return nil, err
	}
	memberships, err := e.store.ListMemberships(ctx, repository.MembershipQuery{})
	if err != nil {
		return nil, fmt.Errorf("load memberships: %w", err)
	}
	byID := make(map[string]*Career, len(careers))
	for _, c := range careers {
		byID[c.Consultant.ID] = c
	}
	return &staffingPass{
		careers:     byID,
		memberships: memberships,
		pool:        rankPool(careers, memberships, asOf, e.params.AssignmentLookbackDays),
	}, nil
}

// AvailableConsultants returns the load-ranked candidate pool for asOf.
func (e *StaffingEngine) AvailableConsultants(ctx context.Context, asOf time.Time) ([]models.ConsultantStaffingState, error) {
	pass, err := e.loadPass(ctx, utils.Truncate(asOf))
	if err != nil {
		return nil, err
	}
	return pass.pool, nil
}

// rankPool derives one staffing state per employed consultant and orders them
// by active project count, then last project date, then ID. A membership is
// active when it is open or ended inside the lookback window, including
// assignments to projects that have not started yet. Consultants not hired
// yet or already attrited on asOf are left out.
func rankPool(careers []*Career, memberships []models.ProjectTeamMembership, asOf time.Time, lookbackDays int) []models.ConsultantStaffingState {
	windowStart := asOf.AddDate(0, 0, -lookbackDays)
	active := make(map[string]int)
	lastEnd := make(map[string]time.Time)
	for _, m := range memberships {
		if m.EndDate != nil && m.EndDate.After(lastEnd[m.ConsultantID]) {
			lastEnd[m.ConsultantID] = *m.EndDate
		}
		if m.EndDate == nil || !m.EndDate.Before(windowStart) {
			active[m.ConsultantID]++
		}
	}

	pool := make([]models.ConsultantStaffingState, 0, len(careers))
	for _, c := range careers {
		rec, ok := c.RecordOn(asOf)
		if !ok || rec.EventKind == models.EventAttrition {
			continue
		}
		last, ok := lastEnd[c.Consultant.ID]
		if !ok {
			last = c.HireDate()
		}
		pool = append(pool, models.ConsultantStaffingState{
			ConsultantID:       c.Consultant.ID,
			Title:              rec.Title,
			BusinessUnitID:     c.Consultant.BusinessUnitID,
			HireDate:           c.HireDate(),
			LastProjectDate:    last,
			ActiveProjectCount: active[c.Consultant.ID],
		})
	}
	sort.SliceStable(pool, func(i, j int) bool {
		a, b := pool[i], pool[j]
		if a.ActiveProjectCount != b.ActiveProjectCount {
			return a.ActiveProjectCount < b.ActiveProjectCount
		}
		if !a.LastProjectDate.Equal(b.LastProjectDate) {
			return a.LastProjectDate.Before(b.LastProjectDate)
		}
		return a.ConsultantID < b.ConsultantID
	})
	return pool
}

// selectProjectManager prefers the most senior consultant still under their
// level's concurrent-project cap, falling back to the most senior overall.
// Ties keep pool order.
func (e *StaffingEngine) selectProjectManager(pool []models.ConsultantStaffingState) int {
	best := -1
	for i, c := range pool {
		if c.ActiveProjectCount >= e.params.MaxConcurrent(c.Title) {
			continue
		}
		if best == -1 || c.Title > pool[best].Title {
			best = i
		}
	}
	if best != -1 {
		return best
	}
	best = 0
	for i, c := range pool {
		if c.Title > pool[best].Title {
			best = i
		}
	}
	return best
}

// allocateQuotas spreads slots over title levels by targets. Every level with
// a positive share starts with at least one slot; the largest bucket is then
// trimmed (ties go to the smaller share, then the higher level) and the
// largest-share level topped up until the total equals slots.
func allocateQuotas(slots int, targets map[models.TitleLevel]float64) map[models.TitleLevel]int {
	quotas := make(map[models.TitleLevel]int, len(targets))
	levels := sortedKeys(targets)
	total := 0
	for _, level := range levels {
		share := targets[level]
		if share <= 0 {
			continue
		}
		q := int(math.Round(float64(slots) * share))
		if q < 1 {
			q = 1
		}
		quotas[level] = q
		total += q
	}
	if len(quotas) == 0 {
		return quotas
	}

	for total > slots {
		var pick models.TitleLevel
		for _, level := range levels {
			q, ok := quotas[level]
			if !ok || q == 0 {
				continue
			}
			if pick == 0 {
				pick = level
				continue
			}
			cur := quotas[pick]
			switch {
			case q > cur:
				pick = level
			case q == cur && targets[level] < targets[pick]:
				pick = level
			case q == cur && targets[level] == targets[pick] && level > pick:
				pick = level
			}
		}
		quotas[pick]--
		total--
	}

	if total < slots {
		var largest models.TitleLevel
		for _, level := range levels {
			if _, ok := quotas[level]; !ok {
				continue
			}
			if largest == 0 || targets[level] > targets[largest] {
				largest = level
			}
		}
		quotas[largest] += slots - total
	}
	return quotas
}

// StaffProject picks a project manager and a team for project as of asOf,
// scheduling the project first when it has no dates. Memberships are staged
// into b. Unmet quotas shrink the team; only an empty pool is an error.
func (e *StaffingEngine) StaffProject(ctx context.Context, b *repository.Batch, project *models.Project, asOf time.Time) (*StaffingResult, error) {
	asOf = utils.Truncate(asOf)
	pass, err := e.loadPass(ctx, asOf)
	if err != nil {
		return nil, err
	}
	if len(pass.pool) == 0 {
		return nil, ErrNoAvailableConsultants
	}

	pmIdx := e.selectProjectManager(pass.pool)
	pm := pass.pool[pmIdx]

	if !project.Scheduled() {
		e.planner.Schedule(project, asOf, pmAvailability(pass.memberships, pm.ConsultantID, asOf))
	}

	bracket := e.params.TeamSizeRange(project.DurationMonths)
	size := e.rng.IntBetween(bracket.Min, bracket.Max)
	quotas := allocateQuotas(size-1, e.params.TeamTitleTargets)

	byLevel := make(map[models.TitleLevel][]models.ConsultantStaffingState)
	for i, c := range pass.pool {
		if i == pmIdx {
			continue
		}
		byLevel[c.Title] = append(byLevel[c.Title], c)
	}

	selected := []models.ConsultantStaffingState{pm}
	for _, level := range models.TitleLevels() {
		candidates := byLevel[level]
		n := quotas[level]
		if n > len(candidates) {
			n = len(candidates)
		}
		selected = append(selected, candidates[:n]...)
	}

	roles := assignRoles(selected)
	start := *project.ActualStartDate
	result := &StaffingResult{TargetTeamSize: size}
	for i, c := range selected {
		m := models.ProjectTeamMembership{
			ID:           e.rng.NewID(),
			ProjectID:    project.ID,
			ConsultantID: c.ConsultantID,
			Role:         roles[i],
			StartDate:    start,
		}
		b.SaveMembership(m)
		result.Team = append(result.Team, m)
		result.Members = append(result.Members, models.TeamMember{
			Consultant: pass.careers[c.ConsultantID].Consultant,
			Title:      c.Title,
			HireDate:   c.HireDate,
			Role:       roles[i],
		})
		result.State.Roster = append(result.State.Roster, c.ConsultantID)
	}
	result.State.ProjectID = project.ID
	result.State.TargetTeamSize = size
	result.State.RemainingSlots = size - len(selected)
	state := result.State
	state.Roster = append([]string(nil), result.State.Roster...)
	b.AfterCommit(func() { e.projects[project.ID] = &state })

	if len(selected) < size {
		e.log.Debug().Str("project", project.ID).Int("target", size).Int("staffed", len(selected)).Msg("team below target size")
	}
	return result, nil
}

// assignRoles makes the first consultant the project manager and the three
// most senior of the rest team leads. Ties keep selection order.
func assignRoles(selected []models.ConsultantStaffingState) []models.TeamRole {
	roles := make([]models.TeamRole, len(selected))
	if len(selected) == 0 {
		return roles
	}
	roles[0] = models.RoleProjectManager
	rest := make([]int, 0, len(selected)-1)
	for i := 1; i < len(selected); i++ {
		rest = append(rest, i)
		roles[i] = models.RoleTeamMember
	}
	sort.SliceStable(rest, func(a, b int) bool {
		return selected[rest[a]].Title > selected[rest[b]].Title
	})
	for i := 0; i < len(rest) && i < models.MaxTeamLeads; i++ {
		roles[rest[i]] = models.RoleTeamLead
	}
	return roles
}

// pmAvailability is the day after the consultant's latest finished
// assignment, or asOf when that is later.
func pmAvailability(memberships []models.ProjectTeamMembership, consultantID string, asOf time.Time) time.Time {
	available := asOf
	for _, m := range memberships {
		if m.ConsultantID != consultantID || m.EndDate == nil {
			continue
		}
		available = utils.MaxDate(available, m.EndDate.AddDate(0, 0, 1))
	}
	return available
}

// TopUpTeam releases attrited members of project and refills open slots up to
// the stored target size. Levels are visited in random order and consultants
// already at their level's concurrent-project cap are skipped. The engine's
// state for project changes only once b is committed.
func (e *StaffingEngine) TopUpTeam(ctx context.Context, b *repository.Batch, project *models.Project, asOf time.Time) (*models.ProjectStaffingState, error) {
	asOf = utils.Truncate(asOf)
	pass, err := e.loadPass(ctx, asOf)
	if err != nil {
		return nil, err
	}

	target := e.params.MinTeamSize
	if s, ok := e.projects[project.ID]; ok {
		target = s.TargetTeamSize
	}

	var team []string
	composition := make(map[models.TitleLevel]int)
	for _, m := range pass.memberships {
		if m.ProjectID != project.ID || m.EndDate != nil {
			continue
		}
		career := pass.careers[m.ConsultantID]
		if career == nil {
			continue
		}
		rec, ok := career.RecordOn(asOf)
		if ok && rec.EventKind == models.EventAttrition {
			m.EndDate = utils.DatePtr(rec.StartDate)
			b.SaveMembership(m)
			e.log.Debug().Str("project", project.ID).Str("consultant", m.ConsultantID).Msg("released attrited member")
			continue
		}
		team = append(team, m.ConsultantID)
		if ok {
			composition[rec.Title]++
		}
	}

	remaining := target - len(team)
	if remaining < 0 {
		remaining = 0
	}

	if remaining > 0 {
		quotas := allocateQuotas(remaining, e.params.TeamTitleTargets)
		for level, n := range composition {
			quotas[level] = max(0, quotas[level]-n)
		}

		onTeam := make(map[string]bool, len(team))
		for _, id := range team {
			onTeam[id] = true
		}
		byLevel := make(map[models.TitleLevel][]models.ConsultantStaffingState)
		for _, c := range pass.pool {
			if !onTeam[c.ConsultantID] {
				byLevel[c.Title] = append(byLevel[c.Title], c)
			}
		}

		start := asOf
		if project.ActualStartDate != nil {
			start = utils.MaxDate(start, *project.ActualStartDate)
		}
		levels := models.TitleLevels()
		for remaining > 0 && len(levels) > 0 {
			i := e.rng.Intn(len(levels))
			level := levels[i]
			if quotas[level] <= 0 || len(byLevel[level]) == 0 {
				levels = append(levels[:i], levels[i+1:]...)
				continue
			}
			c := byLevel[level][0]
			byLevel[level] = byLevel[level][1:]
			if c.ActiveProjectCount >= e.params.MaxConcurrent(level) {
				continue
			}
			b.SaveMembership(models.ProjectTeamMembership{
				ID:           e.rng.NewID(),
				ProjectID:    project.ID,
				ConsultantID: c.ConsultantID,
				Role:         models.RoleTeamMember,
				StartDate:    start,
			})
			team = append(team, c.ConsultantID)
			quotas[level]--
			remaining--
		}
	}

	state := models.ProjectStaffingState{
		ProjectID:      project.ID,
		TargetTeamSize: target,
		Roster:         team,
		RemainingSlots: remaining,
	}
	b.AfterCommit(func() { e.projects[project.ID] = &state })
	out := state
	out.Roster = append([]string(nil), team...)
	return &out, nil
}

// AssignBusinessUnit picks the unit whose share of this year's projects lags
// furthest behind its share of the team. Ties go to the lower unit ID.
func (e *StaffingEngine) AssignBusinessUnit(ctx context.Context, team []models.TeamMember, year int) (string, error) {
	units, err := e.store.ListBusinessUnits(ctx)
	if err != nil {
		return "", fmt.Errorf("load business units: %w", err)
	}
	if len(units) == 0 {
		return "", utils.NewValidationError("business_units", "no business units exist")
	}
	projectCounts, err := e.store.CountProjectsByUnit(ctx, year)
	if err != nil {
		return "", err
	}
	return pickUnitByGap(units, team, projectCounts), nil
}

func pickUnitByGap(units []models.BusinessUnit, team []models.TeamMember, projectCounts map[string]int) string {
	teamCounts := make(map[string]int)
	for _, m := range team {
		teamCounts[m.Consultant.BusinessUnitID]++
	}
	totalProjects := 0
	for _, u := range units {
		totalProjects += projectCounts[u.ID]
	}

	sorted := append([]models.BusinessUnit(nil), units...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	best := ""
	bestGap := math.Inf(-1)
	for _, u := range sorted {
		target := 0.0
		if len(team) > 0 {
			target = float64(teamCounts[u.ID]) / float64(len(team))
		}
		current := float64(projectCounts[u.ID]) / float64(totalProjects+1)
		if gap := target - current; gap > bestGap {
			best, bestGap = u.ID, gap
		}
	}
	return best
}
