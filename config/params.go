package config

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"github.com/BerniceZTT/consultsim/models"
	"github.com/BerniceZTT/consultsim/utils"
	"gopkg.in/yaml.v3"
)

//go:embed default_params.yaml
var defaultParamsYAML []byte

// IntRange is an inclusive integer range.
type IntRange struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Contains reports whether v lies inside the range.
func (r IntRange) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// FloatRange is an inclusive decimal range.
type FloatRange struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// ExpenseCategory describes one kind of predefined expense.
type ExpenseCategory struct {
	Name       string  `yaml:"name"`
	Min        float64 `yaml:"min"`
	Max        float64 `yaml:"max"`
	Percentage float64 `yaml:"percentage"`
	Billable   bool    `yaml:"billable"`
}

// DurationRange is a weighted band of project durations in months.
type DurationRange struct {
	MinMonths int     `yaml:"min_months"`
	MaxMonths int     `yaml:"max_months"`
	Weight    float64 `yaml:"weight"`
}

// TeamSizeBracket maps projects up to MaxMonths long onto a team size range.
// MaxMonths 0 matches any duration.
type TeamSizeBracket struct {
	MaxMonths int `yaml:"max_months"`
	Min       int `yaml:"min"`
	Max       int `yaml:"max"`
}

// SimulationParams holds every statistical table the engines consume.
type SimulationParams struct {
	AttritionRates          map[models.TitleLevel]float64                             `yaml:"attrition_rates"`
	PromotionIntervals      map[models.PerformanceTier]map[models.TitleLevel]IntRange `yaml:"promotion_intervals"`
	TitleDistribution       map[models.TitleLevel]float64                             `yaml:"title_distribution"`
	PerformanceDistribution map[models.PerformanceTier]float64                        `yaml:"performance_distribution"`
	HiringSeasons           map[models.HiringSeason]float64                           `yaml:"hiring_seasons"`
	SalaryRanges            map[models.TitleLevel]IntRange                            `yaml:"salary_ranges"`
	BillingRateRanges       map[models.TitleLevel]FloatRange                          `yaml:"billing_rate_ranges"`

	OverheadPercentage     float64  `yaml:"overhead_percentage"`
	WorkingHoursPerDay     float64  `yaml:"working_hours_per_day"`
	MinTeamSize            int      `yaml:"min_team_size"`
	AssignmentLookbackDays int      `yaml:"assignment_lookback_days"`
	DeliverableCountRange  IntRange `yaml:"deliverable_count_range"`

	ExpenseCategories     []ExpenseCategory             `yaml:"expense_categories"`
	DurationRanges        []DurationRange               `yaml:"duration_ranges"`
	TeamSizeBrackets      []TeamSizeBracket             `yaml:"team_size_brackets"`
	TeamTitleTargets      map[models.TitleLevel]float64 `yaml:"team_title_targets"`
	MaxConcurrentProjects map[models.TitleLevel]int     `yaml:"max_concurrent_projects"`

	BusinessUnits            []string           `yaml:"business_units"`
	BusinessUnitDistribution map[string]float64 `yaml:"business_unit_distribution"`
	ClientRegions            map[string]float64 `yaml:"client_regions"`
	ClientCount              int                `yaml:"client_count"`
	ProjectsPerMonth         IntRange           `yaml:"projects_per_month"`
	FixedContractShare       float64            `yaml:"fixed_contract_share"`
	EmailDomain              string             `yaml:"email_domain"`
}

// DefaultParams returns the embedded defaults.
func DefaultParams() (*SimulationParams, error) {
	var p SimulationParams
	if err := yaml.Unmarshal(defaultParamsYAML, &p); err != nil {
		return nil, fmt.Errorf("decode default params: %w", err)
	}
	return &p, nil
}

// LoadParams reads the defaults, overlays the YAML file at path when path is
// not empty, and validates the result.
func LoadParams(path string) (*SimulationParams, error) {
	p, err := DefaultParams()
	if err != nil {
		return nil, err
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read params file: %w", err)
		}
		if err := yaml.Unmarshal(data, p); err != nil {
			return nil, fmt.Errorf("decode params file %s: %w", path, err)
		}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks that every table is complete and internally consistent.
func (p *SimulationParams) Validate() error {
	for _, level := range models.TitleLevels() {
		rate, ok := p.AttritionRates[level]
		if !ok || rate < 0 || rate > 1 {
			return utils.NewValidationError("attrition_rates", "level %d needs a rate in [0,1]", level)
		}
		salary, ok := p.SalaryRanges[level]
		if !ok || salary.Min <= 0 || salary.Min > salary.Max {
			return utils.NewValidationError("salary_ranges", "level %d has an invalid range", level)
		}
		billing, ok := p.BillingRateRanges[level]
		if !ok || billing.Min <= 0 || billing.Min > billing.Max {
			return utils.NewValidationError("billing_rate_ranges", "level %d has an invalid range", level)
		}
		if p.TitleDistribution[level] < 0 {
			return utils.NewValidationError("title_distribution", "level %d has a negative share", level)
		}
		if p.TeamTitleTargets[level] < 0 {
			return utils.NewValidationError("team_title_targets", "level %d has a negative share", level)
		}
		if limit, ok := p.MaxConcurrentProjects[level]; ok && limit < 1 {
			return utils.NewValidationError("max_concurrent_projects", "level %d cap must be at least 1", level)
		}
	}
	for level := range p.TitleDistribution {
		if !level.Valid() {
			return utils.NewValidationError("title_distribution", "unknown level %d", level)
		}
	}
	if err := positiveWeights("title_distribution", levelWeights(p.TitleDistribution)); err != nil {
		return err
	}
	if err := positiveWeights("team_title_targets", levelWeights(p.TeamTitleTargets)); err != nil {
		return err
	}

	perf := make(map[string]float64, len(p.PerformanceDistribution))
	for tier, w := range p.PerformanceDistribution {
		perf[string(tier)] = w
		intervals, ok := p.PromotionIntervals[tier]
		if !ok {
			return utils.NewValidationError("promotion_intervals", "missing table for tier %s", tier)
		}
		for level := models.MinTitleLevel; level < models.MaxTitleLevel; level++ {
			r, ok := intervals[level]
			if !ok || r.Min < 0 || r.Min > r.Max {
				return utils.NewValidationError("promotion_intervals", "tier %s level %d has an invalid interval", tier, level)
			}
		}
	}
	if err := positiveWeights("performance_distribution", perf); err != nil {
		return err
	}

	seasons := make(map[string]float64, len(p.HiringSeasons))
	for season, w := range p.HiringSeasons {
		switch season {
		case models.SeasonSpring, models.SeasonFall, models.SeasonOther:
		default:
			return utils.NewValidationError("hiring_seasons", "unknown season %q", season)
		}
		seasons[string(season)] = w
	}
	if err := positiveWeights("hiring_seasons", seasons); err != nil {
		return err
	}

	if p.OverheadPercentage < 0 {
		return utils.NewValidationError("overhead_percentage", "must not be negative")
	}
	if p.WorkingHoursPerDay <= 0 {
		return utils.NewValidationError("working_hours_per_day", "must be positive")
	}
	if p.MinTeamSize < 1 {
		return utils.NewValidationError("min_team_size", "must be at least 1")
	}
	if p.AssignmentLookbackDays < 0 {
		return utils.NewValidationError("assignment_lookback_days", "must not be negative")
	}
	if p.DeliverableCountRange.Min < 1 || p.DeliverableCountRange.Min > p.DeliverableCountRange.Max {
		return utils.NewValidationError("deliverable_count_range", "invalid range %d-%d", p.DeliverableCountRange.Min, p.DeliverableCountRange.Max)
	}

	names := make(map[string]bool, len(p.ExpenseCategories))
	for _, c := range p.ExpenseCategories {
		if c.Name == "" || names[c.Name] {
			return utils.NewValidationError("expense_categories", "category names must be unique and non-empty")
		}
		names[c.Name] = true
		if c.Min < 0 || c.Min > c.Max || c.Percentage < 0 {
			return utils.NewValidationError("expense_categories", "category %s has an invalid range", c.Name)
		}
	}

	if len(p.DurationRanges) == 0 {
		return utils.NewValidationError("duration_ranges", "at least one range is required")
	}
	for _, d := range p.DurationRanges {
		if d.MinMonths < 1 || d.MinMonths > d.MaxMonths || d.Weight <= 0 {
			return utils.NewValidationError("duration_ranges", "invalid range %d-%d", d.MinMonths, d.MaxMonths)
		}
	}

	if len(p.TeamSizeBrackets) == 0 {
		return utils.NewValidationError("team_size_brackets", "at least one bracket is required")
	}
	prev := 0
	for i, b := range p.TeamSizeBrackets {
		last := i == len(p.TeamSizeBrackets)-1
		if b.Min < 1 || b.Min > b.Max {
			return utils.NewValidationError("team_size_brackets", "bracket %d has an invalid size range", i)
		}
		if last {
			if b.MaxMonths != 0 && b.MaxMonths <= prev {
				return utils.NewValidationError("team_size_brackets", "brackets must be ordered by max_months")
			}
			continue
		}
		if b.MaxMonths <= prev {
			return utils.NewValidationError("team_size_brackets", "brackets must be ordered by max_months and only the last may be open-ended")
		}
		prev = b.MaxMonths
	}

	if len(p.BusinessUnits) == 0 {
		return utils.NewValidationError("business_units", "at least one unit is required")
	}
	if err := positiveWeights("business_unit_distribution", p.BusinessUnitDistribution); err != nil {
		return err
	}
	if p.ClientCount < 0 {
		return utils.NewValidationError("client_count", "must not be negative")
	}
	if p.ClientCount > 0 {
		if err := positiveWeights("client_regions", p.ClientRegions); err != nil {
			return err
		}
	}
	if p.ProjectsPerMonth.Min < 0 || p.ProjectsPerMonth.Min > p.ProjectsPerMonth.Max {
		return utils.NewValidationError("projects_per_month", "invalid range")
	}
	if p.FixedContractShare < 0 || p.FixedContractShare > 1 {
		return utils.NewValidationError("fixed_contract_share", "must be in [0,1]")
	}
	return nil
}

// TeamSizeRange returns the bracket that applies to a project of the given duration.
func (p *SimulationParams) TeamSizeRange(durationMonths int) IntRange {
	for _, b := range p.TeamSizeBrackets {
		if b.MaxMonths == 0 || durationMonths <= b.MaxMonths {
			return IntRange{Min: b.Min, Max: b.Max}
		}
	}
	last := p.TeamSizeBrackets[len(p.TeamSizeBrackets)-1]
	return IntRange{Min: last.Min, Max: last.Max}
}

// MaxConcurrent returns the concurrent-project cap for level, 2 when unset.
func (p *SimulationParams) MaxConcurrent(level models.TitleLevel) int {
	if limit, ok := p.MaxConcurrentProjects[level]; ok {
		return limit
	}
	return 2
}

// ExpenseCategory looks up a category by name.
func (p *SimulationParams) ExpenseCategory(name string) (ExpenseCategory, bool) {
	for _, c := range p.ExpenseCategories {
		if c.Name == name {
			return c, true
		}
	}
	return ExpenseCategory{}, false
}

func levelWeights(m map[models.TitleLevel]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for level, w := range m {
		out[fmt.Sprint(int(level))] = w
	}
	return out
}

func positiveWeights(field string, weights map[string]float64) error {
	if len(weights) == 0 {
		return utils.NewValidationError(field, "distribution is empty")
	}
	keys := make([]string, 0, len(weights))
	for k := range weights {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	total := 0.0
	for _, k := range keys {
		if weights[k] < 0 {
			return utils.NewValidationError(field, "weight for %q is negative", k)
		}
		total += weights[k]
	}
	if total <= 0 {
		return utils.NewValidationError(field, "weights must sum to a positive value")
	}
	return nil
}
