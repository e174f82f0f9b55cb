// Package session assembles a ready-to-run race from the configuration: reference data, the
// circuit, qualifying and the race controller.
package session

import (
	"fmt"
	"log/slog"

	"github.com/GamePointAnalytics/f1-race-simulator/internal/config"
	"github.com/GamePointAnalytics/f1-race-simulator/internal/domain"
	"github.com/GamePointAnalytics/f1-race-simulator/internal/refdata"
	"github.com/GamePointAnalytics/f1-race-simulator/internal/sim"
)

// Session is a qualified race waiting for lights out.
type Session struct {
	Circuit domain.Circuit
	Grid    []sim.GridSlot
	Race    *sim.Race
}

// New loads the reference data, runs qualifying and builds the race described by cfg.
func New(cfg *config.Config, logger *slog.Logger, opts ...sim.RaceOption) (*Session, error) {
	catalog, err := loadCatalog(cfg)
	if err != nil {
		return nil, err
	}
	circuit, err := catalog.Circuit(cfg.Circuit)
	if err != nil {
		return nil, err
	}
	if cfg.Laps > 0 {
		if circuit, err = refdata.WithOverride(circuit, domain.Circuit{Laps: cfg.Laps}); err != nil {
			return nil, err
		}
	}
	if cfg.Driver != "" {
		if _, err := catalog.Driver(cfg.Driver); err != nil {
			return nil, err
		}
	}

	src := sim.NewSource(cfg.Seed)
	grid := sim.Qualify(catalog.Drivers, catalog.Teams, circuit, src)

	race, err := sim.New(sim.Setup{
		Roster:     catalog.Drivers,
		Teams:      catalog.Teams,
		Tyres:      catalog.Tyres,
		Circuit:    circuit,
		UserID:     cfg.Driver,
		StartTyre:  cfg.StartTyre,
		Difficulty: cfg.Difficulty,
		Grid:       sim.GridOrder(grid),
	}, append([]sim.RaceOption{
		sim.WithSource(src),
		sim.WithLogger(logger),
		sim.WithVerbosity(cfg.Radio),
		sim.WithSafetyCarChance(cfg.SafetyCarChance),
		sim.WithFailureRate(cfg.FailureRate),
	}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("error creating race: %w", err)
	}
	logger.Info("race ready",
		"race", race.ID(),
		"circuit", circuit.ID,
		"laps", circuit.Laps,
		"pole", grid[0].Driver.ID,
		"time", grid[0].FormattedTime,
	)
	return &Session{Circuit: circuit, Grid: grid, Race: race}, nil
}

func loadCatalog(cfg *config.Config) (*refdata.Catalog, error) {
	if cfg.RefdataDir != "" {
		return refdata.LoadDir(cfg.RefdataDir)
	}
	return refdata.Load()
}
