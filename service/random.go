package service

import (
	"cmp"
	"math/rand"
	"slices"
	"time"

	"github.com/BerniceZTT/consultsim/utils"
	"github.com/google/uuid"
)

// Rand is the single random stream behind a generation run. Every draw,
// including row identifiers, comes from it so a seed reproduces the dataset.
type Rand struct {
	r    *rand.Rand
	seed int64
}

// NewRand seeds a stream. Seed 0 picks a time-based seed, which is logged.
func NewRand(seed int64) *Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
		utils.Logger.Info().Int64("seed", seed).Msg("using time-based seed")
	}
	return &Rand{r: rand.New(rand.NewSource(seed)), seed: seed}
}

// Seed returns the effective seed.
func (r *Rand) Seed() int64 {
	return r.seed
}

// Intn returns a value in [0, n).
func (r *Rand) Intn(n int) int {
	return r.r.Intn(n)
}

// IntBetween returns a value in [min, max].
func (r *Rand) IntBetween(min, max int) int {
	if max <= min {
		return min
	}
	return min + r.r.Intn(max-min+1)
}

// Uniform returns a value in [min, max).
func (r *Rand) Uniform(min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + r.r.Float64()*(max-min)
}

// Chance reports true with probability p.
func (r *Rand) Chance(p float64) bool {
	if p <= 0 {
		return false
	}
	return r.r.Float64() < p
}

// Shuffle permutes n elements through swap.
func (r *Rand) Shuffle(n int, swap func(i, j int)) {
	r.r.Shuffle(n, swap)
}

// NewID returns a UUID drawn from the stream.
func (r *Rand) NewID() string {
	id, err := uuid.NewRandomFromReader(r.r)
	if err != nil {
		// math/rand never fails to fill a buffer
		panic(err)
	}
	return id.String()
}

// DayInYear returns a uniformly random day of year.
func (r *Rand) DayInYear(year int) time.Time {
	start := utils.Date(year, time.January, 1)
	days := utils.DaysBetween(start, utils.Date(year+1, time.January, 1))
	return start.AddDate(0, 0, r.r.Intn(days))
}

// DayBetween returns a random day in [from, to].
func (r *Rand) DayBetween(from, to time.Time) time.Time {
	span := utils.DaysBetween(from, to)
	if span <= 0 {
		return utils.Truncate(from)
	}
	return utils.Truncate(from).AddDate(0, 0, r.r.Intn(span+1))
}

// WeightedIndex picks an index with probability proportional to its weight.
// Non-positive weights are never picked unless all are.
func (r *Rand) WeightedIndex(weights []float64) int {
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return r.r.Intn(len(weights))
	}
	x := r.r.Float64() * total
	last := 0
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		last = i
		if x < w {
			return i
		}
		x -= w
	}
	return last
}

// pickWeighted draws a key from a weight table, walking keys in sorted order.
func pickWeighted[K cmp.Ordered](r *Rand, weights map[K]float64) K {
	keys := sortedKeys(weights)
	ws := make([]float64, len(keys))
	for i, k := range keys {
		ws[i] = weights[k]
	}
	return keys[r.WeightedIndex(ws)]
}

func sortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
