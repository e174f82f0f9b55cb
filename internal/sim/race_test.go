package sim

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/GamePointAnalytics/f1-race-simulator/internal/domain"
)

func TestRaceScenario(t *testing.T) {
	r := newTestRace(t, 5, WithSeed(7))
	runRace(t, r, 0.5)

	if !r.IsRaceOver() {
		t.Fatalf("expected the race to be over after %.0fs", r.Elapsed())
	}
	if r.CurrentLap() != 5 {
		t.Errorf("expected the leader on lap %d but found %d", 5, r.CurrentLap())
	}
	result := r.Classification()
	if len(result) != 6 {
		t.Fatalf("expected %d classified competitors but found %d", 6, len(result))
	}
	if result[0].Competitor.LapsCompleted != 5 {
		t.Errorf("expected the winner to complete %d laps but found %d", 5, result[0].Competitor.LapsCompleted)
	}
	for i, cl := range result {
		if cl.Status != StatusFinished {
			t.Errorf("expected %s to finish but found status %s", cl.Competitor.ID, cl.Status)
		}
		if cl.Competitor.FinishRank != i+1 {
			t.Errorf("expected finish rank %d but found %d", i+1, cl.Competitor.FinishRank)
		}
		if cl.Position != i+1 {
			t.Errorf("expected position %d but found %d", i+1, cl.Position)
		}
	}
}

func TestRaceDeterminism(t *testing.T) {
	t.Parallel()
	first := newTestRace(t, 8, WithSeed(2024))
	second := newTestRace(t, 8, WithSeed(2024))
	runRace(t, first, 0.25)
	runRace(t, second, 0.25)

	a, b := first.Classification(), second.Classification()
	if len(a) != len(b) {
		t.Fatalf("expected equal classifications but found %d and %d lines", len(a), len(b))
	}
	for i := range a {
		if a[i].Competitor.ID != b[i].Competitor.ID {
			t.Errorf("expected %s in P%d but found %s", a[i].Competitor.ID, i+1, b[i].Competitor.ID)
		}
		if a[i].Competitor.FinishTime != b[i].Competitor.FinishTime {
			t.Errorf("expected finish time %f but found %f", a[i].Competitor.FinishTime, b[i].Competitor.FinishTime)
		}
	}
	if first.ID() == second.ID() {
		t.Errorf("expected every race to get its own id")
	}
}

func TestRaceConsistency(t *testing.T) {
	t.Parallel()
	r := newTestRace(t, 6, WithSeed(99))
	prev := make(map[string]domain.Competitor)
	ranks := make(map[int]string)

	for i := 0; i < 100000 && !r.IsRaceOver(); i++ {
		r.Tick(0.5)
		for _, c := range r.Competitors() {
			if c.TyreHealth < 0 || c.TyreHealth > 1 {
				t.Fatalf("expected tyre health within [0,1] but found %f", c.TyreHealth)
			}
			if c.Battery < 0 || c.Battery > 100 {
				t.Fatalf("expected battery within [0,100] but found %f", c.Battery)
			}
			p, seen := prev[c.ID]
			if seen && c.Distance < p.Distance {
				t.Fatalf("expected %s distance to never decrease but went from %f to %f", c.ID, p.Distance, c.Distance)
			}
			if seen && p.HasFinished {
				if c.Distance != p.Distance {
					t.Fatalf("expected %s distance frozen at %f but found %f", c.ID, p.Distance, c.Distance)
				}
				if c.FinishRank != p.FinishRank {
					t.Fatalf("expected %s to keep rank %d but found %d", c.ID, p.FinishRank, c.FinishRank)
				}
			}
			if c.HasFinished {
				if id, ok := ranks[c.FinishRank]; ok && id != c.ID {
					t.Fatalf("expected rank %d to be unique but %s and %s share it", c.FinishRank, id, c.ID)
				}
				ranks[c.FinishRank] = c.ID
			}
			prev[c.ID] = c
		}
	}

	for rank := 1; rank <= 6; rank++ {
		if _, ok := ranks[rank]; !ok {
			t.Errorf("expected rank %d to be assigned", rank)
		}
	}
}

func TestRaceSafetyCar(t *testing.T) {
	t.Parallel()
	r := newTestRace(t, 10, WithSeed(3))
	r.byID["b"].Mode = domain.DrivingModePush
	r.byID["c"].TyreHealth = 0.1
	r.byID["d"].Tyre = domain.TireCompoundFullWet

	if err := r.DeploySafetyCar(300); err != nil {
		t.Fatalf("expected no error but found %v", err)
	}
	before := r.Competitors()
	r.Tick(1)
	if !r.SafetyCarActive() {
		t.Fatalf("expected the safety car to be out")
	}

	want := BaseSpeed(testCircuit(10)) * SafetyCarPace
	for _, p := range before {
		c, _ := r.Competitor(p.ID)
		if got := c.Distance - p.Distance; math.Abs(got-want) > 1e-9 {
			t.Errorf("expected %s to cover %f but found %f", c.ID, want, got)
		}
	}

	r.Tick(300)
	if r.SafetyCarActive() {
		t.Errorf("expected the safety car to be in")
	}
}

func TestRacePitCycle(t *testing.T) {
	t.Parallel()
	r := newTestRace(t, 10, WithSeed(5))
	if err := r.RequestPit("a", domain.TireCompoundHard); err != nil {
		t.Fatalf("expected no error but found %v", err)
	}

	for i := 0; i < 10000; i++ {
		r.Tick(0.5)
		c, _ := r.Competitor("a")
		if c.Stops == 0 {
			continue
		}
		if c.IsInPit {
			t.Errorf("expected the car out of the pit lane")
		}
		if c.Tyre != domain.TireCompoundHard {
			t.Errorf("expected tyre %s but found %s", domain.TireCompoundHard, c.Tyre)
		}
		if c.TyreHealth != 1 {
			t.Errorf("expected tyre health %f but found %f", 1.0, c.TyreHealth)
		}
		if c.TyreAge != 0 {
			t.Errorf("expected tyre age %d but found %d", 0, c.TyreAge)
		}
		if c.Stops != 1 {
			t.Errorf("expected %d stop but found %d", 1, c.Stops)
		}
		return
	}
	t.Errorf("expected the pit stop to complete")
}

func TestRaceWornTyresTriggerStop(t *testing.T) {
	t.Parallel()
	r := newTestRace(t, 20, WithSeed(11))
	r.byID["b"].TyreHealth = 0.05

	for i := 0; i < 10000; i++ {
		r.Tick(0.5)
		c, _ := r.Competitor("b")
		if c.Lap == 0 {
			continue
		}
		if !c.IsInPit && c.Stops == 0 {
			t.Errorf("expected b to box at the end of lap 1")
		}
		return
	}
	t.Errorf("expected b to complete a lap")
}

func TestRaceUserInputs(t *testing.T) {
	t.Parallel()

	t.Run("UnknownCompetitor", func(t *testing.T) {
		t.Parallel()
		r := newTestRace(t, 5)
		if err := r.SetMode("zzz", domain.DrivingModePush); !errors.Is(err, ErrUnknownCompetitor) {
			t.Errorf("expected ErrUnknownCompetitor but found %v", err)
		}
		if _, err := r.Competitor("zzz"); !errors.Is(err, ErrUnknownCompetitor) {
			t.Errorf("expected ErrUnknownCompetitor but found %v", err)
		}
	})
	t.Run("LatePitRefused", func(t *testing.T) {
		t.Parallel()
		r := newTestRace(t, 5)
		r.byID["a"].Lap = 4
		if err := r.RequestPit("a", domain.TireCompoundSoft); !errors.Is(err, ErrPitRefused) {
			t.Errorf("expected ErrPitRefused but found %v", err)
		}
	})
	t.Run("CancelPit", func(t *testing.T) {
		t.Parallel()
		r := newTestRace(t, 5)
		_ = r.RequestPit("a", domain.TireCompoundSoft)
		_ = r.CancelPit("a")
		c, _ := r.Competitor("a")
		if c.PitRequested {
			t.Errorf("expected the box call to be withdrawn")
		}
		if c.PendingTyre != domain.TireCompoundSoft {
			t.Errorf("expected pending tyre %s but found %s", domain.TireCompoundSoft, c.PendingTyre)
		}
	})
	t.Run("SetMode", func(t *testing.T) {
		t.Parallel()
		r := newTestRace(t, 5)
		_ = r.SetMode("a", domain.DrivingModeConserve)
		c, _ := r.Competitor("a")
		if c.Mode != domain.DrivingModeConserve {
			t.Errorf("expected mode %s but found %s", domain.DrivingModeConserve, c.Mode)
		}
	})
	t.Run("Retire", func(t *testing.T) {
		t.Parallel()
		r := newTestRace(t, 5, WithSeed(1))
		_ = r.Retire("c")
		runRace(t, r, 0.5)
		result := r.Classification()
		last := result[len(result)-1]
		if last.Competitor.ID != "c" || last.Status != StatusDidNotFinish {
			t.Errorf("expected c classified last as DNF but found %s %s", last.Competitor.ID, last.Status)
		}
	})
	t.Run("RaceOver", func(t *testing.T) {
		t.Parallel()
		r := newTestRace(t, 5, WithSeed(1))
		runRace(t, r, 0.5)
		if err := r.SetMode("a", domain.DrivingModePush); !errors.Is(err, ErrRaceOver) {
			t.Errorf("expected ErrRaceOver but found %v", err)
		}
		if events := r.Tick(1); events != nil {
			t.Errorf("expected no events after the finish but found %d", len(events))
		}
	})
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("EmptyRoster", func(t *testing.T) {
		t.Parallel()
		_, err := New(Setup{Circuit: testCircuit(5)}, WithLogger(testLogger(t)))
		if !errors.Is(err, ErrEmptyRoster) {
			t.Errorf("expected ErrEmptyRoster but found %v", err)
		}
	})
	t.Run("UnknownPlayer", func(t *testing.T) {
		t.Parallel()
		setup := testSetup(5)
		setup.UserID = "nobody"
		if _, err := New(setup, WithLogger(testLogger(t))); !errors.Is(err, ErrUnknownCompetitor) {
			t.Errorf("expected ErrUnknownCompetitor but found %v", err)
		}
	})
	t.Run("NoLaps", func(t *testing.T) {
		t.Parallel()
		if _, err := New(testSetup(0), WithLogger(testLogger(t))); err == nil {
			t.Errorf("expected an error for a race without laps")
		}
	})
	t.Run("Grid", func(t *testing.T) {
		t.Parallel()
		setup := testSetup(5)
		setup.Grid = []string{"f", "e"}
		r, err := New(setup, WithLogger(testLogger(t)))
		if err != nil {
			t.Fatalf("expected no error but found %v", err)
		}
		order := r.Competitors()
		if order[0].ID != "f" || order[1].ID != "e" || order[2].ID != "a" {
			t.Errorf("expected grid f, e, a but found %s, %s, %s", order[0].ID, order[1].ID, order[2].ID)
		}
		if order[0].GridSlot != 1 {
			t.Errorf("expected grid slot %d but found %d", 1, order[0].GridSlot)
		}
	})
	t.Run("StartingTyres", func(t *testing.T) {
		t.Parallel()
		r := newTestRace(t, 5, WithSeed(4))
		for _, c := range r.Competitors() {
			if c.IsUser && c.Tyre != domain.TireCompoundMedium {
				t.Errorf("expected the player on %s but found %s", domain.TireCompoundMedium, c.Tyre)
			}
			if !c.IsUser && c.Tyre != domain.TireCompoundSoft && c.Tyre != domain.TireCompoundMedium {
				t.Errorf("expected %s on a dry compound but found %s", c.ID, c.Tyre)
			}
		}
	})
}

func TestForcedFinish(t *testing.T) {
	t.Parallel()
	r := newTestRace(t, 5, WithSeed(8), WithFinishTimeout(1))
	runRace(t, r, 0.5)

	if r.Elapsed() > 5*80+100 {
		t.Errorf("expected a forced finish shortly after the flag but the race ran %.0fs", r.Elapsed())
	}
	stragglers := 0
	for _, cl := range r.Classification() {
		if cl.Status == StatusNotClassified {
			stragglers++
		}
	}
	if stragglers == 0 {
		t.Errorf("expected stragglers to be left unclassified")
	}
}

func TestRaceWithoutLapTime(t *testing.T) {
	setup := func(laps int) Setup {
		s := testSetup(laps)
		s.Circuit.BaseLapTime = 0
		return s
	}

	t.Run("runs at the default base speed", func(t *testing.T) {
		t.Parallel()
		r, err := New(setup(3), WithLogger(testLogger(t)), WithSeed(5))
		if err != nil {
			t.Fatalf("expected no error but found %v", err)
		}
		r.Tick(0.5)
		if r.IsRaceOver() {
			t.Fatalf("expected the race to keep running after the first tick")
		}
		for _, c := range r.Competitors() {
			if c.Distance <= 0 {
				t.Errorf("expected %s to move but found distance %f", c.ID, c.Distance)
			}
		}
		runRace(t, r, 0.5)
		for _, cl := range r.Classification() {
			if cl.Status != StatusFinished {
				t.Errorf("expected %s to finish but found status %s", cl.Competitor.ID, cl.Status)
			}
		}
		if r.CurrentLap() != 3 {
			t.Errorf("expected the leader on lap %d but found %d", 3, r.CurrentLap())
		}
	})

	t.Run("safety car lasts", func(t *testing.T) {
		t.Parallel()
		r, err := New(setup(5), WithLogger(testLogger(t)), WithSeed(5), WithSafetyCarChance(1))
		if err != nil {
			t.Fatalf("expected no error but found %v", err)
		}
		for r.CurrentLap() < 1 && !r.IsRaceOver() {
			r.Tick(0.5)
		}
		if !r.SafetyCarActive() {
			t.Errorf("expected the safety car out after lap 1")
		}
	})
}

func TestObserver(t *testing.T) {
	t.Parallel()
	var seen, laps int
	obs := ObserverFunc(func(e Event) {
		seen++
		if _, ok := e.(LapCompleted); ok {
			laps++
		}
	})
	r := newTestRace(t, 5, WithSeed(6), WithObserver(obs))

	returned := 0
	finished := 0
	for i := 0; i < 100000 && !r.IsRaceOver(); i++ {
		for _, e := range r.Tick(0.5) {
			returned++
			if _, ok := e.(RaceFinished); ok {
				finished++
			}
		}
	}
	if seen != returned {
		t.Errorf("expected the observer to see %d events but found %d", returned, seen)
	}
	if laps == 0 {
		t.Errorf("expected lap completed events")
	}
	if finished != 1 {
		t.Errorf("expected %d race finished event but found %d", 1, finished)
	}
}

func TestRadioVerbosity(t *testing.T) {
	t.Parallel()

	count := func(t *testing.T, v domain.Verbosity) (all, urgent int, bodies []string) {
		r := newTestRace(t, 5, WithSeed(12), WithVerbosity(v))
		for i := 0; i < 100000 && !r.IsRaceOver(); i++ {
			for _, e := range r.Tick(0.5) {
				if msg, ok := e.(Radio); ok {
					all++
					if msg.Msg.Urgent {
						urgent++
					}
					bodies = append(bodies, msg.Msg.Body)
				}
			}
		}
		return all, urgent, bodies
	}

	t.Run("Silent", func(t *testing.T) {
		t.Parallel()
		if all, _, _ := count(t, domain.VerbositySilent); all != 0 {
			t.Errorf("expected no radio but found %d messages", all)
		}
	})
	t.Run("Minimal", func(t *testing.T) {
		t.Parallel()
		all, urgent, _ := count(t, domain.VerbosityMinimal)
		if all == 0 || all != urgent {
			t.Errorf("expected only urgent messages but found %d of %d", urgent, all)
		}
	})
	t.Run("Verbose", func(t *testing.T) {
		t.Parallel()
		_, _, bodies := count(t, domain.VerbosityVerbose)
		if !containsPrefix(bodies, "Lap 1 complete") {
			t.Errorf("expected a lap report in %v", bodies)
		}
		if !containsPrefix(bodies, "That's the flag") {
			t.Errorf("expected a finish message in %v", bodies)
		}
	})
}

func TestAhead(t *testing.T) {
	t.Parallel()
	const length = 5000.0

	tests := []struct {
		name string
		a, b domain.Competitor
		want bool
	}{
		{
			name: "FurtherAhead",
			a:    domain.Competitor{Distance: 1200, GridSlot: 5},
			b:    domain.Competitor{Distance: 1100, GridSlot: 1},
			want: true,
		},
		{
			name: "WithinEpsilonGridDecides",
			a:    domain.Competitor{Distance: 1000.0004, GridSlot: 4},
			b:    domain.Competitor{Distance: 1000, GridSlot: 2},
			want: false,
		},
		{
			name: "FinishedBeforeRunning",
			a:    domain.Competitor{Distance: 10000, GridSlot: 1},
			b:    domain.Competitor{Distance: 10000, LapsCompleted: 2, HasFinished: true, FinishRank: 3, GridSlot: 2},
			want: false,
		},
		{
			name: "BothFinishedRankDecides",
			a:    domain.Competitor{Distance: 10000, LapsCompleted: 2, HasFinished: true, FinishRank: 2, GridSlot: 6},
			b:    domain.Competitor{Distance: 10000, LapsCompleted: 2, HasFinished: true, FinishRank: 4, GridSlot: 1},
			want: true,
		},
		{
			name: "FinishedPinnedToLine",
			a:    domain.Competitor{Distance: 10000, CooldownDistance: 3000, LapsCompleted: 2, HasFinished: true, FinishRank: 1},
			b:    domain.Competitor{Distance: 10500},
			want: false,
		},
		{
			name: "RetiredLast",
			a:    domain.Competitor{Distance: 9000, IsRetired: true},
			b:    domain.Competitor{Distance: 100},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ahead(&tt.a, &tt.b, length); got != tt.want {
				t.Errorf("expected ahead to be %t but found %t", tt.want, got)
			}
		})
	}
}

func TestRankFinishers(t *testing.T) {
	t.Parallel()
	r := &Race{nextRank: 3, logger: testLogger(t)}
	lapped := &domain.Competitor{ID: "lapped", HasFinished: true, LapsCompleted: 4}
	second := &domain.Competitor{ID: "second", HasFinished: true, LapsCompleted: 5}
	third := &domain.Competitor{ID: "third", HasFinished: true, LapsCompleted: 5}

	r.rankFinishers([]finisher{{lapped, 0}, {third, 4}, {second, 2}}, 5000)

	for c, want := range map[*domain.Competitor]int{second: 3, third: 4, lapped: 5} {
		if c.FinishRank != want {
			t.Errorf("expected %s ranked %d but found %d", c.ID, want, c.FinishRank)
		}
	}
	if r.nextRank != 6 {
		t.Errorf("expected next rank %d but found %d", 6, r.nextRank)
	}
}

/* Test Helper Functions
------------------------------------------------------------------------------------------------- */

// fixedSource always draws the same number; 0.5 removes every centered fluctuation.
type fixedSource float64

func (f fixedSource) Float64() float64 {
	return float64(f)
}

func testLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCircuit(laps int) domain.Circuit {
	return domain.Circuit{
		ID:             "testing",
		Name:           "Test Track",
		Laps:           laps,
		BaseLapTime:    80,
		TrackLength:    5000,
		TyreWearFactor: 1,
		PitTimeLoss:    20,
		DRSZones:       [][2]float64{{0.1, 0.2}},
	}
}

func testTyres() domain.Tyres {
	return domain.Tyres{
		domain.TireCompoundSoft:         {Compound: domain.TireCompoundSoft, PaceBase: -0.6, Life: 34, WarmupLaps: 1},
		domain.TireCompoundMedium:       {Compound: domain.TireCompoundMedium, PaceBase: 0.2, Life: 40, WarmupLaps: 2},
		domain.TireCompoundHard:         {Compound: domain.TireCompoundHard, PaceBase: 1.5, Life: 65, WarmupLaps: 4},
		domain.TireCompoundIntermediate: {Compound: domain.TireCompoundIntermediate, PaceBase: 6, Life: 40, WarmupLaps: 3},
		domain.TireCompoundFullWet:      {Compound: domain.TireCompoundFullWet, PaceBase: 12, Life: 30, WarmupLaps: 3},
	}
}

func testTeams() domain.Teams {
	return domain.Teams{
		"FAST": {ID: "FAST", Name: "Fast", Performance: 0.98},
		"MID":  {ID: "MID", Name: "Mid", Performance: 0.94},
		"SLOW": {ID: "SLOW", Name: "Slow", Performance: 0.90},
	}
}

func testRoster() []domain.Driver {
	return []domain.Driver{
		{ID: "a", Name: "Driver A", Team: "FAST", Speed: 95, TyreMgmt: 90, Consistency: 92},
		{ID: "b", Name: "Driver B", Team: "FAST", Speed: 88, TyreMgmt: 85, Consistency: 88},
		{ID: "c", Name: "Driver C", Team: "MID", Speed: 90, TyreMgmt: 90, Consistency: 90},
		{ID: "d", Name: "Driver D", Team: "MID", Speed: 86, TyreMgmt: 92, Consistency: 85},
		{ID: "e", Name: "Driver E", Team: "SLOW", Speed: 84, TyreMgmt: 80, Consistency: 80},
		{ID: "f", Name: "Driver F", Team: "SLOW", Speed: 82, TyreMgmt: 88, Consistency: 86},
	}
}

func testSetup(laps int) Setup {
	return Setup{
		Roster:     testRoster(),
		Teams:      testTeams(),
		Tyres:      testTyres(),
		Circuit:    testCircuit(laps),
		UserID:     "a",
		StartTyre:  domain.TireCompoundMedium,
		Difficulty: domain.DifficultyHard,
	}
}

func newTestRace(t *testing.T, laps int, opts ...RaceOption) *Race {
	t.Helper()
	r, err := New(testSetup(laps), append([]RaceOption{WithLogger(testLogger(t))}, opts...)...)
	if err != nil {
		t.Fatalf("expected no error but found %v", err)
	}
	return r
}

func runRace(t *testing.T, r *Race, dt float64) {
	t.Helper()
	for i := 0; i < 100000 && !r.IsRaceOver(); i++ {
		r.Tick(dt)
	}
}

func containsPrefix(items []string, prefix string) bool {
	for _, s := range items {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}
