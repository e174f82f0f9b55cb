package sim

import (
	"testing"

	"github.com/GamePointAnalytics/f1-race-simulator/internal/domain"
)

func TestDecide(t *testing.T) {
	t.Parallel()
	dry := domain.Environment{TrackTemp: 30, Weather: domain.Weather{Type: domain.WeatherDry}}
	rain := domain.Environment{TrackTemp: 20, Moisture: 0.9, Weather: domain.Weather{Type: domain.WeatherRain, Intensity: 0.5}}

	car := func(tyre domain.TireCompound, health float64) *domain.Competitor {
		c := domain.NewCompetitor(testRoster()[3], testTeams()["MID"], tyre, 4)
		c.Lap = 3
		c.TyreHealth = health
		return &c
	}
	view := func(env domain.Environment) LapView {
		return LapView{Now: 300, TotalLaps: 20, FieldSize: 10, Env: env}
	}

	t.Run("WornTyres", func(t *testing.T) {
		s := NewStrategist(fixedSource(0.5), domain.DifficultyHard, testLogger(t))
		c := car(domain.TireCompoundMedium, 0.05)
		if call := s.Decide(c, view(dry)); call != CallWear {
			t.Errorf("expected call %q but found %q", CallWear, call)
		}
		if !c.PitRequested {
			t.Errorf("expected a box call")
		}
		if c.PendingTyre != domain.TireCompoundMedium {
			t.Errorf("expected pending tyre %s but found %s", domain.TireCompoundMedium, c.PendingTyre)
		}
		if c.Mode != domain.DrivingModeConserve {
			t.Errorf("expected mode %s but found %s", domain.DrivingModeConserve, c.Mode)
		}
	})
	t.Run("SafetyCarConserve", func(t *testing.T) {
		s := NewStrategist(fixedSource(0.5), domain.DifficultyHard, testLogger(t))
		c := car(domain.TireCompoundMedium, 0.9)
		c.GapToAhead = 0.4
		v := view(dry)
		v.SafetyCar = true
		if call := s.Decide(c, v); call != CallNone {
			t.Errorf("expected no call but found %q", call)
		}
		if c.Mode != domain.DrivingModeConserve {
			t.Errorf("expected mode %s but found %s", domain.DrivingModeConserve, c.Mode)
		}
	})
	t.Run("SafetyCarStop", func(t *testing.T) {
		s := NewStrategist(fixedSource(0.5), domain.DifficultyHard, testLogger(t))
		v := view(dry)
		v.SafetyCar = true
		if call := s.Decide(car(domain.TireCompoundHard, 0.45), v); call != CallSafetyCar {
			t.Errorf("expected call %q but found %q", CallSafetyCar, call)
		}
	})
	t.Run("NoLateStop", func(t *testing.T) {
		s := NewStrategist(fixedSource(0.5), domain.DifficultyHard, testLogger(t))
		c := car(domain.TireCompoundSoft, 0.05)
		c.Lap = 19
		if call := s.Decide(c, view(dry)); call != CallNone || c.PitRequested {
			t.Errorf("expected no box call on the final lap but found %q", call)
		}
	})
	t.Run("StopBudget", func(t *testing.T) {
		s := NewStrategist(fixedSource(0.5), domain.DifficultyHard, testLogger(t))
		c := car(domain.TireCompoundMedium, 0.1)
		c.Stops = 2
		if call := s.Decide(c, view(dry)); call != CallNone {
			t.Errorf("expected the exhausted budget to keep the car out but found %q", call)
		}
		wet := dry
		wet.RainSeen = true
		if call := s.Decide(c, view(wet)); call != CallWear {
			t.Errorf("expected a third stop after rain but found %q", call)
		}
	})
	t.Run("StopAtWearFloor", func(t *testing.T) {
		s := NewStrategist(fixedSource(0.5), domain.DifficultyHard, testLogger(t))
		c := car(domain.TireCompoundMedium, wearFloor)
		c.Stops = 2
		if call := s.Decide(c, view(dry)); call != CallWear {
			t.Errorf("expected a stop at the wear floor after the budget is spent but found %q", call)
		}
	})
	t.Run("SlicksInTheRain", func(t *testing.T) {
		s := NewStrategist(fixedSource(0.5), domain.DifficultyHard, testLogger(t))
		c := car(domain.TireCompoundMedium, 1)
		if call := s.Decide(c, view(rain)); call != CallWeather {
			t.Errorf("expected call %q but found %q", CallWeather, call)
		}
		if c.PendingTyre != domain.TireCompoundFullWet {
			t.Errorf("expected pending tyre %s but found %s", domain.TireCompoundFullWet, c.PendingTyre)
		}
	})
	t.Run("Hesitation", func(t *testing.T) {
		s := NewStrategist(fixedSource(0.01), domain.DifficultyHard, testLogger(t))
		c := car(domain.TireCompoundMedium, 1)
		if call := s.Decide(c, view(rain)); call != CallNone {
			t.Errorf("expected the hesitation to keep the car out but found %q", call)
		}
	})
	t.Run("BackmarkerGamble", func(t *testing.T) {
		s := NewStrategist(fixedSource(0.5), domain.DifficultyHard, testLogger(t))
		drying := dry
		drying.Moisture = 0.28

		leader := car(domain.TireCompoundIntermediate, 1)
		leader.Position = 1
		if call := s.Decide(leader, view(drying)); call != CallNone {
			t.Errorf("expected the leader to stay out but found %q", call)
		}
		last := car(domain.TireCompoundIntermediate, 1)
		last.Position = 10
		if call := s.Decide(last, view(drying)); call != CallWeather {
			t.Errorf("expected the backmarker to gamble but found %q", call)
		}
		if !last.PendingTyre.IsSlick() {
			t.Errorf("expected a slick compound but found %s", last.PendingTyre)
		}
	})
}

func TestChooseMode(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		src     fixedSource
		gap     float64
		leader  float64
		pos     int
		battery float64
		health  float64
		want    domain.DrivingMode
	}{
		{"Attack", 0.5, 0.5, 10, 5, 50, 1, domain.DrivingModePush},
		{"ChaseLeader", 0.5, 1.2, 1.2, 2, 50, 1, domain.DrivingModePush},
		{"CriticalTyres", 0.5, 0.5, 10, 5, 100, 0.1, domain.DrivingModeConserve},
		{"FlatBattery", 0.5, 0.5, 10, 5, 5, 1, domain.DrivingModeConserve},
		{"LowBattery", 0.5, 5, 10, 5, 20, 1, domain.DrivingModeBalanced},
		{"FullBattery", 0.5, 5, 10, 5, 95, 1, domain.DrivingModePush},
		{"RandomBalanced", 0.5, 5, 10, 5, 50, 1, domain.DrivingModeBalanced},
		{"RandomPush", 0.9, 5, 10, 5, 50, 1, domain.DrivingModePush},
		{"RandomConserve", 0.1, 5, 10, 5, 50, 1, domain.DrivingModeConserve},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStrategist(tt.src, domain.DifficultyHard, testLogger(t))
			c := &domain.Competitor{
				GapToAhead:  tt.gap,
				GapToLeader: tt.leader,
				Position:    tt.pos,
				Battery:     tt.battery,
				TyreHealth:  tt.health,
			}
			s.chooseMode(c, LapView{TotalLaps: 20, FieldSize: 10})
			if c.Mode != tt.want {
				t.Errorf("expected mode %s but found %s", tt.want, c.Mode)
			}
		})
	}
}

func TestWetCompound(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		env  domain.Environment
		want domain.TireCompound
	}{
		{"Dry", domain.Environment{Moisture: 0.2}, domain.TireCompoundUnknown},
		{"Damp", domain.Environment{Moisture: 0.5}, domain.TireCompoundIntermediate},
		{"Soaked", domain.Environment{Moisture: 0.8}, domain.TireCompoundIntermediate},
		{"Flooded", domain.Environment{Moisture: 0.9}, domain.TireCompoundFullWet},
		{"Downpour", domain.Environment{Moisture: 0.6, Weather: domain.Weather{Type: domain.WeatherRain, Intensity: 0.75}}, domain.TireCompoundIntermediate},
	}
	for _, tt := range tests {
		if got := wetCompound(tt.env); got != tt.want {
			t.Errorf("%s: expected %s but found %s", tt.name, tt.want, got)
		}
	}
}
