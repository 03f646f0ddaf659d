package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/BerniceZTT/consultsim/config"
	"github.com/BerniceZTT/consultsim/models"
	"github.com/BerniceZTT/consultsim/repository"
	"github.com/BerniceZTT/consultsim/utils"
	"github.com/rs/zerolog"
)

// ReferenceSeeder creates the business units and clients projects hang off.
type ReferenceSeeder struct {
	store  repository.Store
	params *config.SimulationParams
	rng    *Rand
	log    zerolog.Logger
}

func NewReferenceSeeder(store repository.Store, params *config.SimulationParams, rng *Rand) *ReferenceSeeder {
	return &ReferenceSeeder{store: store, params: params, rng: rng, log: utils.Component("reference")}
}

// Seed writes units and clients unless they already exist. It returns the
// number of units and clients created.
func (s *ReferenceSeeder) Seed(ctx context.Context) (int, int, error) {
	units, err := s.store.ListBusinessUnits(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("load business units: %w", err)
	}
	clients, err := s.store.ListClients(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("load clients: %w", err)
	}

	var newUnits []models.BusinessUnit
	if len(units) == 0 {
		for i, name := range s.params.BusinessUnits {
			newUnits = append(newUnits, models.BusinessUnit{ID: fmt.Sprintf("BU%02d", i+1), Name: name})
		}
	}
	var newClients []models.Client
	if len(clients) == 0 {
		newClients = s.clients()
	}
	if len(newUnits) == 0 && len(newClients) == 0 {
		return 0, 0, nil
	}

	err = s.store.RunBatch(ctx, func(b *repository.Batch) error {
		for _, u := range newUnits {
			b.SaveBusinessUnit(u)
		}
		for _, c := range newClients {
			b.SaveClient(c)
		}
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("write reference data: %w", err)
	}
	s.log.Info().Int("units", len(newUnits)).Int("clients", len(newClients)).Msg("reference data seeded")
	return len(newUnits), len(newClients), nil
}

func (s *ReferenceSeeder) clients() []models.Client {
	var out []models.Client
	for _, region := range sortedKeys(s.params.ClientRegions) {
		n := int(math.Floor(float64(s.params.ClientCount)*s.params.ClientRegions[region] + 1e-9))
		locations := regionLocations[region]
		for i := 0; i < n; i++ {
			loc := fallbackLocation
			if len(locations) > 0 {
				loc = locations[s.rng.Intn(len(locations))]
			}
			id := fmt.Sprintf("CL%04d", len(out)+1)
			word := pick(s.rng, companyWords)
			out = append(out, models.Client{
				ID:      id,
				Name:    word + " " + pick(s.rng, companySuffixes),
				Region:  region,
				City:    loc.City,
				Country: loc.Country,
				Phone:   randomPhone(s.rng),
				Email:   fmt.Sprintf("contact@%s-%s.%s", strings.ToLower(word), strings.ToLower(id), s.params.EmailDomain),
			})
		}
	}
	return out
}
