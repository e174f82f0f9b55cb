package sim

import (
	"math"

	"github.com/GamePointAnalytics/f1-race-simulator/internal/domain"
)

const (
	DefaultBaseSpeed  = 60.0 // m/s, used when circuit data yields no usable base speed
	MinSpeed          = 10.0 // m/s
	SafetyCarPace     = 0.6  // fraction of base speed under the safety car
	midfieldTeam      = domain.DefaultTeamPerformance
	teamScale         = 12.0 // % per unit of team performance
	midfieldDriver    = 90.0
	skillScale        = 0.035 // % per rating point
	rainTeamDamping   = 0.3
	rainSkillDamping  = 0.5
	pushBonus         = 1.2 // %
	conserveMalus     = 1.2 // %
	pushMinBattery    = 1.0
	warmupPenalty     = 0.8 // % on the first lap of a cold set
	coldTrackTemp     = 20.0
	coldHardPenalty   = 0.1  // % per °C below coldTrackTemp
	wearPenaltyScale  = 20.0 // % at zero health
	consistencyScale  = 0.05 // % of fluctuation per rating point below 100
	wetFluctuation    = 4.0
	dirtyAirRange     = 2.0 // seconds
	closeBattleGap    = 0.3 // seconds
	dirtyAirPeak      = 0.8 // %
	drsRange          = 1.0 // seconds
	drsBonus          = 2.0 // %
	harshDirtyAirPeak = 1.6 // %
	harshDRSBonus     = 0.2 // %
)

// Moisture thresholds of the compound penalty curve.
const (
	slickGripLimit = 0.15
	interLow       = 0.15
	interHigh      = 0.8
	wetMinimum     = 0.65

	// interFloodSlope makes inters fall behind full wets just above interHigh: with the
	// reference compounds (inter +6 %, wet +12 %) the two cross at 0.84.
	interFloodSlope = 150.0
)

// BaseSpeed is the speed that laps the circuit in its base lap time.
func BaseSpeed(circuit domain.Circuit) float64 {
	s := circuit.Length() / circuit.BaseLapTime
	if math.IsNaN(s) || math.IsInf(s, 0) || s <= 0 {
		return DefaultBaseSpeed
	}
	return s
}

// LapTime is the reference lap time in seconds. It follows BaseSpeed, so degenerate circuit data
// falls back to a lap at DefaultBaseSpeed.
func LapTime(circuit domain.Circuit) float64 {
	return circuit.Length() / BaseSpeed(circuit)
}

// ExpectedDuration is the race duration at reference pace.
func ExpectedDuration(circuit domain.Circuit) float64 {
	return float64(circuit.Laps) * LapTime(circuit)
}

// Conditions is the part of the race state the pace model reads besides the competitor itself.
type Conditions struct {
	Circuit   domain.Circuit
	Tyres     domain.Tyres
	Env       domain.Environment
	SafetyCar bool
}

// Speed is the pace model: the instantaneous speed in m/s of a competitor given the conditions
// and the time gap to the car ahead. The only side effect is one draw from src for the lap-to-lap
// fluctuation; no draw is made for retired cars or under the safety car.
func Speed(c *domain.Competitor, cond Conditions, gapAhead float64, src Source) float64 {
	if c.IsRetired {
		return 0
	}
	base := BaseSpeed(cond.Circuit)
	if cond.SafetyCar {
		return base * SafetyCarPace
	}

	raining := cond.Env.Weather.IsRaining()
	team := (c.TeamPerformance - midfieldTeam) * teamScale
	skill := (float64(c.Speed) - midfieldDriver) * skillScale
	if raining {
		team *= rainTeamDamping
		skill *= rainSkillDamping
	}

	spec := cond.Tyres.Spec(c.Tyre)
	total := team +
		skill +
		tyreModifier(c, spec, cond.Env) +
		modeModifier(c) +
		aeroModifier(c, cond, gapAhead) -
		(1-c.TyreHealth)*wearPenaltyScale

	fluctuation := (100 - float64(c.Consistency)) * consistencyScale
	if c.Tyre.IsWet() {
		fluctuation *= wetFluctuation
	}
	total += centered(src, fluctuation)

	speed := base * (1 + total/100)
	if math.IsNaN(speed) || math.IsInf(speed, 0) {
		return DefaultBaseSpeed
	}
	return math.Max(speed, MinSpeed)
}

// tyreModifier combines the compound base pace with the warm-up, cold-track and moisture
// penalties, in percent.
func tyreModifier(c *domain.Competitor, spec domain.TyreSpec, env domain.Environment) float64 {
	mod := -spec.PaceBase
	if c.TyreAge < spec.WarmupLaps {
		mod -= warmupPenalty * float64(spec.WarmupLaps-c.TyreAge) / float64(spec.WarmupLaps)
	}
	if c.Tyre == domain.TireCompoundHard && env.TrackTemp < coldTrackTemp {
		mod -= (coldTrackTemp - env.TrackTemp) * coldHardPenalty
	}
	return mod - MoisturePenalty(c.Tyre, env.Moisture)
}

// MoisturePenalty is the pace lost, in percent, by a compound on a track with the given moisture.
// Slicks fall off sharply above 0.15, intermediates work between 0.15 and 0.8 and aquaplane
// beyond it, full wets need at least 0.65.
func MoisturePenalty(t domain.TireCompound, moisture float64) float64 {
	switch {
	case t.IsSlick():
		if moisture > slickGripLimit {
			return (moisture - slickGripLimit) * 40
		}
	case t == domain.TireCompoundIntermediate:
		if moisture < interLow {
			return (interLow - moisture) * 20
		}
		if moisture > interHigh {
			return (moisture - interHigh) * interFloodSlope
		}
	case t == domain.TireCompoundFullWet:
		if moisture < wetMinimum {
			return (wetMinimum - moisture) * 15
		}
	}
	return 0
}

func modeModifier(c *domain.Competitor) float64 {
	switch c.Mode {
	case domain.DrivingModePush:
		if c.Battery > pushMinBattery {
			return pushBonus
		}
	case domain.DrivingModeConserve:
		return -conserveMalus
	}
	return 0
}

// aeroModifier is the dirty-air penalty of following closely, offset by DRS when the competitor
// is in a zone within a second of the car ahead. DRS is disabled in the rain; the harsh layout
// doubles the dirty air and all but removes DRS.
func aeroModifier(c *domain.Competitor, cond Conditions, gapAhead float64) float64 {
	if gapAhead >= dirtyAirRange {
		return 0
	}
	peak, bonus := dirtyAirPeak, drsBonus
	if cond.Circuit.Harsh {
		peak, bonus = harshDirtyAirPeak, harshDRSBonus
	}
	gap := math.Max(gapAhead, closeBattleGap)
	mod := -peak * (dirtyAirRange - gap) / (dirtyAirRange - closeBattleGap)

	progress := c.Progress(cond.Circuit.Length())
	if gapAhead < drsRange && !cond.Env.Weather.IsRaining() && cond.Circuit.InDRSZone(progress) {
		mod += bonus
	}
	return mod
}
