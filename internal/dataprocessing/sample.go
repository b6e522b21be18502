package dataprocessing

import (
	"math"
	"math/rand/v2"
	"time"

	"opsdash/pkg/contracts/domain"
)

// SLATargets are the hour targets a sample row can be assigned.
var SLATargets = []float64{24, 48, 72}

// SampleConfig parameterizes GenerateSample.
type SampleConfig struct {
	Seed        uint64
	Epoch       time.Time
	Days        int
	Departments []string
}

// DefaultSampleConfig is 180 days of six departments from 2024-01-01, seed 42.
func DefaultSampleConfig() SampleConfig {
	return SampleConfig{
		Seed:  42,
		Epoch: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Days:  180,
		Departments: []string{
			"Operations",
			"Finance",
			"HR",
			"IT",
			"Customer Service",
			"Logistics",
		},
	}
}

// GenerateSample synthesizes one record per day and department, days in
// the outer loop. The same config always yields the same dataset.
func GenerateSample(cfg SampleConfig) domain.Dataset {
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))
	epoch := domain.NormalizeDate(cfg.Epoch)
	if cfg.Days < 0 {
		cfg.Days = 0
	}

	records := make([]domain.Record, 0, cfg.Days*len(cfg.Departments))
	for day := 0; day < cfg.Days; day++ {
		date := epoch.AddDate(0, 0, day)
		for _, dept := range cfg.Departments {
			records = append(records, sampleRecord(rng, date, dept))
		}
	}
	return domain.NewDataset(records)
}

func sampleRecord(rng *rand.Rand, date time.Time, dept string) domain.Record {
	assigned := 10 + rng.IntN(40)

	low := int(math.RoundToEven(0.6 * float64(assigned)))
	completed := low + rng.IntN(assigned-low+1)

	sla := SLATargets[rng.IntN(len(SLATargets))]

	completion := rng.NormFloat64()*0.3*sla + 0.9*sla
	completion = math.Round(math.Max(completion, 1)*10) / 10

	return domain.Record{
		Date:           date,
		Department:     dept,
		TasksAssigned:  assigned,
		TasksCompleted: completed,
		SLATarget:      sla,
		CompletionTime: completion,
	}
}
