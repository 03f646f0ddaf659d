package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/BerniceZTT/consultsim/models"
	"github.com/BerniceZTT/consultsim/utils"
)

func TestDefaultParamsValidate(t *testing.T) {
	p, err := LoadParams("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if got := p.TitleDistribution[models.TitleLevel(1)]; got != 0.30 {
		t.Fatalf("title distribution level 1 = %v, want 0.30", got)
	}
	if got := p.PromotionIntervals[models.PerformanceHigh][models.TitleLevel(3)]; got.Min != 2 || got.Max != 4 {
		t.Fatalf("High level 3 interval = %+v", got)
	}
	if len(p.ExpenseCategories) != 5 {
		t.Fatalf("expense categories = %d, want 5", len(p.ExpenseCategories))
	}
}

func TestTeamSizeRange(t *testing.T) {
	p, err := DefaultParams()
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	tests := []struct {
		months int
		want   IntRange
	}{
		{1, IntRange{5, 7}},
		{3, IntRange{5, 7}},
		{4, IntRange{10, 12}},
		{6, IntRange{10, 12}},
		{7, IntRange{12, 15}},
		{12, IntRange{12, 15}},
	}
	for _, tt := range tests {
		if got := p.TeamSizeRange(tt.months); got != tt.want {
			t.Fatalf("TeamSizeRange(%d) = %+v, want %+v", tt.months, got, tt.want)
		}
	}
}

func TestLoadParamsOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.yaml")
	overlay := []byte("attrition_rates:\n  1: 0\nmin_team_size: 3\n")
	if err := os.WriteFile(path, overlay, 0o600); err != nil {
		t.Fatalf("write overlay: %v", err)
	}

	p, err := LoadParams(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.AttritionRates[1] != 0 {
		t.Fatalf("level 1 attrition = %v, want 0", p.AttritionRates[1])
	}
	if p.AttritionRates[2] != 0.02 {
		t.Fatalf("level 2 attrition = %v, want default 0.02 kept", p.AttritionRates[2])
	}
	if p.MinTeamSize != 3 {
		t.Fatalf("min team size = %d, want 3", p.MinTeamSize)
	}
}

func TestValidateRejectsBrokenTables(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *SimulationParams)
		field  string
	}{
		{"missing salary", func(p *SimulationParams) { delete(p.SalaryRanges, 4) }, "salary_ranges"},
		{"attrition above one", func(p *SimulationParams) { p.AttritionRates[2] = 1.5 }, "attrition_rates"},
		{"inverted deliverables", func(p *SimulationParams) { p.DeliverableCountRange = IntRange{5, 2} }, "deliverable_count_range"},
		{"open bracket first", func(p *SimulationParams) { p.TeamSizeBrackets[0].MaxMonths = 0 }, "team_size_brackets"},
		{"duplicate category", func(p *SimulationParams) {
			p.ExpenseCategories = append(p.ExpenseCategories, p.ExpenseCategories[0])
		}, "expense_categories"},
		{"unknown season", func(p *SimulationParams) { p.HiringSeasons["Winter"] = 0.1 }, "hiring_seasons"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := DefaultParams()
			if err != nil {
				t.Fatalf("defaults: %v", err)
			}
			tt.mutate(p)
			err = p.Validate()
			if !utils.IsValidationError(err) {
				t.Fatalf("Validate() = %v, want validation error", err)
			}
			if vErr := err.(*utils.ValidationError); vErr.Field != tt.field {
				t.Fatalf("field = %q, want %q", vErr.Field, tt.field)
			}
		})
	}
}
