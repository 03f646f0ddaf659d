package service

import (
	"context"
	"testing"

	"github.com/BerniceZTT/consultsim/models"
	"github.com/BerniceZTT/consultsim/repository"
	"github.com/BerniceZTT/consultsim/utils"
)

func TestAdvanceKeepsHistoriesContiguous(t *testing.T) {
	ctx := context.Background()
	eng, store := newTestEngine(t, 11)

	if _, err := eng.RunCareerSimulation(ctx, 200, 2015, 2019); err != nil {
		t.Fatalf("advance: %v", err)
	}
	careers, err := loadCareers(ctx, store)
	if err != nil {
		t.Fatalf("load careers: %v", err)
	}
	if len(careers) == 0 {
		t.Fatal("no consultants generated")
	}

	promotions := 0
	for _, c := range careers {
		h := c.History
		if h[0].EventKind != models.EventHire {
			t.Fatalf("%s: first record is %s", c.Consultant.ID, h[0].EventKind)
		}
		for i := 1; i < len(h); i++ {
			prev, cur := h[i-1], h[i]
			if prev.EndDate == nil {
				t.Fatalf("%s: record %d is open but followed by another", c.Consultant.ID, i-1)
			}
			if !cur.StartDate.Equal(prev.EndDate.AddDate(0, 0, 1)) {
				t.Fatalf("%s: record %d starts %s, previous ends %s", c.Consultant.ID, i,
					cur.StartDate.Format(utils.DateLayout), prev.EndDate.Format(utils.DateLayout))
			}
			switch cur.EventKind {
			case models.EventPromotion:
				promotions++
				if cur.Title != prev.Title+1 {
					t.Fatalf("%s: promoted from %d to %d", c.Consultant.ID, prev.Title, cur.Title)
				}
			case models.EventAttrition:
				if i != len(h)-1 {
					t.Fatalf("%s: attrition is not the last record", c.Consultant.ID)
				}
				if cur.EndDate == nil || !cur.EndDate.Equal(cur.StartDate) {
					t.Fatalf("%s: attrition record must end on its start date", c.Consultant.ID)
				}
			default:
				t.Fatalf("%s: unexpected %s after the first record", c.Consultant.ID, cur.EventKind)
			}
		}
		if last := h[len(h)-1]; last.EventKind != models.EventAttrition && last.EndDate != nil {
			t.Fatalf("%s: current record is closed", c.Consultant.ID)
		}
	}
	if promotions == 0 {
		t.Fatal("expected promotions over five years")
	}
}

func TestAdvanceWithoutAttritionHiresJuniors(t *testing.T) {
	ctx := context.Background()
	eng, store := newTestEngine(t, 3)
	for level := range eng.Params.AttritionRates {
		eng.Params.AttritionRates[level] = 0
	}

	result, err := eng.RunCareerSimulation(ctx, 10, 2015, 2016)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if result.Attritions != 0 || result.DiscardedHires != 0 {
		t.Fatalf("attritions = %d, discarded = %d, want none", result.Attritions, result.DiscardedHires)
	}

	history, err := store.ListTitleHistory(ctx, repository.TitleHistoryQuery{})
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	juniors := 0
	for _, r := range history {
		if r.Title == models.MinTitleLevel && r.EventKind == models.EventHire {
			juniors++
		}
		if r.Title == models.MinTitleLevel && r.EventKind == models.EventPromotion {
			t.Fatalf("promotion into level 1: %+v", r)
		}
	}
	if juniors < 3 {
		t.Fatalf("level-1 hires = %d, want at least 3", juniors)
	}
}

func TestAdvanceContinuesConsultantIDs(t *testing.T) {
	ctx := context.Background()
	eng, store := newTestEngine(t, 5)
	for level := range eng.Params.AttritionRates {
		eng.Params.AttritionRates[level] = 0
	}
	if _, err := eng.RunCareerSimulation(ctx, 20, 2015, 2015); err != nil {
		t.Fatalf("first advance: %v", err)
	}
	before, _ := store.Count(ctx, repository.ConsultantsCollection)
	second, err := eng.RunCareerSimulation(ctx, 20, 2016, 2016)
	if err != nil {
		t.Fatalf("second advance: %v", err)
	}
	after, _ := store.Count(ctx, repository.ConsultantsCollection)
	if int(after-before) != second.Hires {
		t.Fatalf("consultants grew by %d, hires = %d", after-before, second.Hires)
	}
}

func TestAdvanceRejectsReversedYears(t *testing.T) {
	eng, _ := newTestEngine(t, 1)
	_, err := eng.RunCareerSimulation(context.Background(), 10, 2016, 2015)
	if !utils.IsValidationError(err) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestAssignBusinessUnits(t *testing.T) {
	ctx := context.Background()
	eng, store := newTestEngine(t, 9)
	seedUnits(t, store)
	if _, err := eng.RunCareerSimulation(ctx, 30, 2015, 2015); err != nil {
		t.Fatalf("advance: %v", err)
	}

	tests := []struct {
		name    string
		dist    map[string]float64
		wantErr bool
	}{
		{"unknown unit", map[string]float64{"North America": 1, "Mars": 1}, true},
		{"missing unit", map[string]float64{"North America": 1}, true},
		{"zero weights", map[string]float64{"North America": 0, "EMEA": 0}, true},
		{"negative weight", map[string]float64{"North America": 2, "EMEA": -1}, true},
		{"valid", map[string]float64{"North America": 0.7, "EMEA": 0.3}, false},
	}
	for _, tt := range tests {
		counts, err := eng.AssignBusinessUnits(ctx, tt.dist)
		if tt.wantErr {
			if !utils.IsValidationError(err) {
				t.Fatalf("%s: err = %v, want validation error", tt.name, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		total := 0
		for _, n := range counts {
			total += n
		}
		consultants, _ := store.ListConsultants(ctx, repository.Page{})
		if total != len(consultants) {
			t.Fatalf("%s: assigned %d of %d", tt.name, total, len(consultants))
		}
		for _, c := range consultants {
			if c.BusinessUnitID != "BU01" && c.BusinessUnitID != "BU02" {
				t.Fatalf("%s: %s has unit %q", tt.name, c.ID, c.BusinessUnitID)
			}
		}
	}
}

func TestDistributeSlotsFloorsShares(t *testing.T) {
	eng, _ := newTestEngine(t, 2)
	slots := eng.Career.distributeSlots(10, 2015, 2016)
	counts := make(map[models.TitleLevel]int)
	for year, levels := range slots {
		if year < 2015 || year > 2016 {
			t.Fatalf("slot year %d outside range", year)
		}
		for _, l := range levels {
			counts[l]++
		}
	}
	want := map[models.TitleLevel]int{1: 3, 2: 2, 3: 2, 4: 1, 5: 1, 6: 0}
	for level, n := range want {
		if counts[level] != n {
			t.Fatalf("level %d slots = %d, want %d", level, counts[level], n)
		}
	}
}
