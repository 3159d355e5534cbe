package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"birdbrain/pkg/birdbrain"
)

// TrainConfig is the YAML shape of a training run. Every field is optional;
// zero values defer to the library defaults, and command-line flags override
// whatever the file sets.
type TrainConfig struct {
	Scape             string  `yaml:"scape"`
	CourseSeed        int64   `yaml:"course_seed"`
	CourseApproaches  int     `yaml:"course_approaches"`
	Population        int     `yaml:"population"`
	Generations       int     `yaml:"generations"`
	EliteCount        int     `yaml:"elite_count"`
	NoElites          bool    `yaml:"no_elites"`
	Selection         string  `yaml:"selection"`
	Crossover         string  `yaml:"crossover"`
	MutationRate      float64 `yaml:"mutation_rate"`
	MutationMagnitude float64 `yaml:"mutation_magnitude"`
	MaxTicks          int     `yaml:"max_ticks"`
	Workers           int     `yaml:"workers"`
	Seed              int64   `yaml:"seed"`
	FitnessGoal       float64 `yaml:"fitness_goal"`
	PlateauWindow     int     `yaml:"plateau_window"`
}

func LoadTrainConfig(path string) (TrainConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return TrainConfig{}, fmt.Errorf("read config: %w", err)
	}
	var cfg TrainConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return TrainConfig{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c TrainConfig) ToRequest() birdbrain.TrainRequest {
	return birdbrain.TrainRequest{
		Scape:             c.Scape,
		CourseSeed:        c.CourseSeed,
		CourseApproaches:  c.CourseApproaches,
		Population:        c.Population,
		Generations:       c.Generations,
		EliteCount:        c.EliteCount,
		NoElites:          c.NoElites,
		Selection:         c.Selection,
		Crossover:         c.Crossover,
		MutationRate:      c.MutationRate,
		MutationMagnitude: c.MutationMagnitude,
		MaxTicks:          c.MaxTicks,
		Workers:           c.Workers,
		Seed:              c.Seed,
		FitnessGoal:       c.FitnessGoal,
		PlateauWindow:     c.PlateauWindow,
	}
}
