package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BerniceZTT/consultsim/config"
	"github.com/BerniceZTT/consultsim/models"
	"github.com/BerniceZTT/consultsim/repository"
	"github.com/BerniceZTT/consultsim/utils"
	"github.com/rs/zerolog"
)

// Career is a consultant with their chronological title history.
type Career struct {
	Consultant models.Consultant
	History    []models.TitleHistoryRecord
}

// Current returns the latest record, or nil when there is none.
func (c *Career) Current() *models.TitleHistoryRecord {
	if len(c.History) == 0 {
		return nil
	}
	return &c.History[len(c.History)-1]
}

// HireDate is the start of the first record.
func (c *Career) HireDate() time.Time {
	if len(c.History) == 0 {
		return time.Time{}
	}
	return c.History[0].StartDate
}

// Attrited reports whether the consultant has left the firm.
func (c *Career) Attrited() bool {
	cur := c.Current()
	return cur != nil && cur.EventKind == models.EventAttrition
}

// RecordOn returns the latest record that started on or before day.
func (c *Career) RecordOn(day time.Time) (models.TitleHistoryRecord, bool) {
	for i := len(c.History) - 1; i >= 0; i-- {
		if !c.History[i].StartDate.After(day) {
			return c.History[i], true
		}
	}
	return models.TitleHistoryRecord{}, false
}

// AdvanceResult is the population after a career simulation.
type AdvanceResult struct {
	Population     []*Career
	Hires          int
	Promotions     int
	Attritions     int
	DiscardedHires int
}

// CareerEngine hires, promotes and attrites consultants year by year.
type CareerEngine struct {
	store  repository.Store
	params *config.SimulationParams
	rng    *Rand
	log    zerolog.Logger
}

// NewCareerEngine creates a CareerEngine.
func NewCareerEngine(store repository.Store, params *config.SimulationParams, rng *Rand) *CareerEngine {
	return &CareerEngine{store: store, params: params, rng: rng, log: utils.Component("career")}
}

// loadCareers reads every consultant with their history, ordered by consultant ID.
func loadCareers(ctx context.Context, store repository.Store) ([]*Career, error) {
	consultants, err := store.ListConsultants(ctx, repository.Page{})
	if err != nil {
		return nil, fmt.Errorf("load consultants: %w", err)
	}
	records, err := store.ListTitleHistory(ctx, repository.TitleHistoryQuery{})
	if err != nil {
		return nil, fmt.Errorf("load title history: %w", err)
	}

	byID := make(map[string]*Career, len(consultants))
	careers := make([]*Career, 0, len(consultants))
	for _, c := range consultants {
		career := &Career{Consultant: c}
		byID[c.ID] = career
		careers = append(careers, career)
	}
	for _, r := range records {
		if career, ok := byID[r.ConsultantID]; ok {
			career.History = append(career.History, r)
		}
	}
	sort.Slice(careers, func(i, j int) bool { return careers[i].Consultant.ID < careers[j].Consultant.ID })
	return careers, nil
}

// distributeSlots splits slotCount across levels by the title distribution and
// scatters each level's slots uniformly over the years. Each year's list is in
// ascending level order.
func (e *CareerEngine) distributeSlots(slotCount, startYear, endYear int) map[int][]models.TitleLevel {
	perYear := make(map[int][]models.TitleLevel, endYear-startYear+1)
	for _, level := range sortedKeys(e.params.TitleDistribution) {
		n := int(math.Floor(float64(slotCount)*e.params.TitleDistribution[level] + 1e-9))
		for i := 0; i < n; i++ {
			year := e.rng.IntBetween(startYear, endYear)
			perYear[year] = append(perYear[year], level)
		}
	}
	return perYear
}

// Advance runs the career simulation from startYear to endYear on top of the
// stored population and persists every touched consultant in its own batch.
func (e *CareerEngine) Advance(ctx context.Context, slotCount, startYear, endYear int) (*AdvanceResult, error) {
	if slotCount < 0 {
		return nil, utils.NewValidationError("slotCount", "must not be negative")
	}
	if endYear < startYear {
		return nil, utils.NewValidationError("endYear", "%d is before start year %d", endYear, startYear)
	}

	population, err := loadCareers(ctx, e.store)
	if err != nil {
		return nil, err
	}
	nextID := nextConsultantNumber(population)
	touched := make(map[string]bool)
	result := &AdvanceResult{}

	slots := e.distributeSlots(slotCount, startYear, endYear)
	for year := startYear; year <= endYear; year++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, level := range slots[year] {
			if candidate := e.findPromotionCandidate(population, level, year); candidate != nil {
				if e.promoteOrAttrite(candidate, level, year) {
					result.Attritions++
				} else {
					result.Promotions++
				}
				touched[candidate.Consultant.ID] = true
				continue
			}

			career, hired := e.hire(level, year, nextID)
			if !hired {
				result.DiscardedHires++
				continue
			}
			nextID++
			population = append(population, career)
			touched[career.Consultant.ID] = true
			result.Hires++
		}
	}

	for _, career := range population {
		if !touched[career.Consultant.ID] {
			continue
		}
		c := career
		if err := e.store.RunBatch(ctx, func(b *repository.Batch) error {
			b.SaveConsultant(c.Consultant)
			for _, r := range c.History {
				b.SaveTitleRecord(r)
			}
			return nil
		}); err != nil {
			return nil, fmt.Errorf("persist consultant %s: %w", c.Consultant.ID, err)
		}
	}

	result.Population = population
	e.log.Info().
		Int("hires", result.Hires).
		Int("promotions", result.Promotions).
		Int("attritions", result.Attritions).
		Int("discarded", result.DiscardedHires).
		Int("population", len(population)).
		Msg("career simulation finished")
	return result, nil
}

// findPromotionCandidate returns the first consultant, in ID order, whose current
// record sits one level below target and whose time in that record falls inside
// their tier's interval. Levels 1 and 6 never promote in.
func (e *CareerEngine) findPromotionCandidate(population []*Career, target models.TitleLevel, year int) *Career {
	if target <= models.MinTitleLevel || target >= models.MaxTitleLevel {
		return nil
	}
	jan1 := utils.Date(year, time.January, 1)
	dec31 := utils.Date(year, time.December, 31)
	for _, career := range population {
		cur := career.Current()
		if cur == nil || cur.EventKind == models.EventAttrition || cur.Title != target-1 {
			continue
		}
		if !cur.StartDate.Before(dec31) {
			continue
		}
		days := utils.DaysBetween(cur.StartDate, jan1)
		if days < 0 {
			continue
		}
		interval, ok := e.params.PromotionIntervals[career.Consultant.PerformanceTier][cur.Title]
		if !ok {
			continue
		}
		if interval.Contains(days / 365) {
			return career
		}
	}
	return nil
}

// promoteOrAttrite applies the slot to candidate and reports whether the
// candidate left instead of being promoted.
func (e *CareerEngine) promoteOrAttrite(candidate *Career, target models.TitleLevel, year int) bool {
	cur := candidate.Current()
	dec31 := utils.Date(year, time.December, 31)
	windowStart := utils.MaxDate(utils.Date(year, time.January, 1), cur.StartDate)

	if e.rng.Chance(e.params.AttritionRates[cur.Title]) {
		day := e.rng.DayBetween(utils.MaxDate(windowStart, cur.StartDate.AddDate(0, 0, 1)), dec31)
		cur.EndDate = utils.DatePtr(day.AddDate(0, 0, -1))
		candidate.History = append(candidate.History, models.TitleHistoryRecord{
			ID:           e.rng.NewID(),
			ConsultantID: candidate.Consultant.ID,
			Title:        cur.Title,
			StartDate:    day,
			EndDate:      utils.DatePtr(day),
			EventKind:    models.EventAttrition,
			Salary:       cur.Salary,
		})
		e.log.Debug().Str("consultant", candidate.Consultant.ID).Str("date", day.Format(utils.DateLayout)).Msg("attrition")
		return true
	}

	end := e.rng.DayBetween(windowStart, dec31)
	cur.EndDate = utils.DatePtr(end)
	salary := e.params.SalaryRanges[target]
	candidate.History = append(candidate.History, models.TitleHistoryRecord{
		ID:           e.rng.NewID(),
		ConsultantID: candidate.Consultant.ID,
		Title:        target,
		StartDate:    end.AddDate(0, 0, 1),
		EventKind:    models.EventPromotion,
		Salary:       e.rng.IntBetween(salary.Min, salary.Max),
	})
	return false
}

// hire synthesizes a consultant for level. The attempt is discarded with the
// level's attrition probability, in which case no ID is consumed.
func (e *CareerEngine) hire(level models.TitleLevel, year, number int) (*Career, bool) {
	first := pick(e.rng, firstNames)
	last := pick(e.rng, lastNames)
	tier := pickWeighted(e.rng, e.params.PerformanceDistribution)
	phone := randomPhone(e.rng)

	if e.rng.Chance(e.params.AttritionRates[level]) {
		return nil, false
	}

	id := fmt.Sprintf("C%04d", number)
	salary := e.params.SalaryRanges[level]
	start := e.hireDate(year)
	return &Career{
		Consultant: models.Consultant{
			ID:              id,
			FirstName:       first,
			LastName:        last,
			Email:           emailFor(first, last, id, e.params.EmailDomain),
			Phone:           phone,
			PerformanceTier: tier,
		},
		History: []models.TitleHistoryRecord{{
			ID:           e.rng.NewID(),
			ConsultantID: id,
			Title:        level,
			StartDate:    start,
			EventKind:    models.EventHire,
			Salary:       e.rng.IntBetween(salary.Min, salary.Max),
		}},
	}, true
}

func (e *CareerEngine) hireDate(year int) time.Time {
	switch pickWeighted(e.rng, e.params.HiringSeasons) {
	case models.SeasonSpring:
		return utils.Date(year, time.Month(e.rng.IntBetween(3, 5)), e.rng.IntBetween(1, 30))
	case models.SeasonFall:
		return utils.Date(year, time.Month(e.rng.IntBetween(9, 11)), e.rng.IntBetween(1, 30))
	default:
		return e.rng.DayInYear(year)
	}
}

func nextConsultantNumber(population []*Career) int {
	highest := 0
	for _, c := range population {
		n, err := strconv.Atoi(strings.TrimPrefix(c.Consultant.ID, "C"))
		if err == nil && n > highest {
			highest = n
		}
	}
	return highest + 1
}

// AssignBusinessUnits samples a business unit for every consultant from
// distribution, whose keys must match the stored unit names exactly.
func (e *CareerEngine) AssignBusinessUnits(ctx context.Context, distribution map[string]float64) (map[string]int, error) {
	units, err := e.store.ListBusinessUnits(ctx)
	if err != nil {
		return nil, fmt.Errorf("load business units: %w", err)
	}
	if err := checkUnitDistribution(units, distribution); err != nil {
		return nil, err
	}

	unitByName := make(map[string]string, len(units))
	for _, u := range units {
		unitByName[u.Name] = u.ID
	}

	consultants, err := e.store.ListConsultants(ctx, repository.Page{})
	if err != nil {
		return nil, fmt.Errorf("load consultants: %w", err)
	}

	counts := make(map[string]int, len(units))
	err = e.store.RunBatch(ctx, func(b *repository.Batch) error {
		for _, c := range consultants {
			name := pickWeighted(e.rng, distribution)
			c.BusinessUnitID = unitByName[name]
			counts[name]++
			b.SaveConsultant(c)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("persist business units: %w", err)
	}
	e.log.Info().Interface("counts", counts).Msg("business units assigned")
	return counts, nil
}

func checkUnitDistribution(units []models.BusinessUnit, distribution map[string]float64) error {
	existing := make(map[string]bool, len(units))
	for _, u := range units {
		existing[u.Name] = true
	}
	if len(existing) != len(distribution) {
		return utils.NewValidationError("distribution", "has %d units, %d exist", len(distribution), len(existing))
	}
	total := 0.0
	for _, name := range sortedKeys(distribution) {
		if !existing[name] {
			return utils.NewValidationError("distribution", "unknown business unit %q", name)
		}
		if distribution[name] < 0 {
			return utils.NewValidationError("distribution", "negative weight for %q", name)
		}
		total += distribution[name]
	}
	if total <= 0 {
		return utils.NewValidationError("distribution", "weights must sum to a positive value")
	}
	return nil
}
