package sim

import (
	"github.com/GamePointAnalytics/f1-race-simulator/internal/domain"
)

const (
	heatThreshold     = 30.0 // °C
	heatWearPerDegree = 0.05
	dampMoisture      = 0.3
	dampSlickWear     = 0.6
	dryMoisture       = 0.1
	dryWetWear        = 3.0
	pushWear          = 1.25
	conserveWear      = 0.8
	dirtyAirWear      = 1.1
	skillWearPerPoint = 0.005
	skillWearSpread   = 0.05

	batteryMax     = 100.0
	pushDrain      = 2.0 // % per second
	emptyTrickle   = 0.2
	balancedCharge = 0.5
	conserveCharge = 1.0
)

// WearRate is the tyre health lost per second by a competitor in the given conditions.
func WearRate(c *domain.Competitor, cond Conditions, gapAhead float64) float64 {
	spec := cond.Tyres.Spec(c.Tyre)
	life := spec.Life * cond.Circuit.BaseLapTime
	if life <= 0 {
		life = spec.Life * domain.DefaultTrackLength / DefaultBaseSpeed
	}

	factor := cond.Circuit.TyreWearFactor
	if factor <= 0 {
		factor = 1
	}
	scale := cond.Env.WearScale
	if scale <= 0 {
		scale = 1
	}
	skill := 1 + clamp((midfieldDriver-float64(c.TyreMgmt))*skillWearPerPoint, -skillWearSpread, skillWearSpread)

	rate := factor * scale * skill / life

	if cond.Env.TrackTemp > heatThreshold {
		heat := (cond.Env.TrackTemp - heatThreshold) * heatWearPerDegree
		switch c.Tyre {
		case domain.TireCompoundSoft:
			rate *= 1 + heat*2
		case domain.TireCompoundMedium:
			rate *= 1 + heat
		}
	}

	switch {
	case c.Tyre.IsSlick() && cond.Env.Moisture > dampMoisture:
		rate *= dampSlickWear
	case c.Tyre.IsWet() && cond.Env.Moisture < dryMoisture:
		rate *= dryWetWear
	}

	switch c.Mode {
	case domain.DrivingModePush:
		rate *= pushWear
	case domain.DrivingModeConserve:
		rate *= conserveWear
	}

	if gapAhead < drsRange {
		rate *= dirtyAirWear
	}
	return rate
}

// applyWear is the tyre model: health only ever decreases and never drops below zero.
func applyWear(c *domain.Competitor, cond Conditions, gapAhead, dt float64) {
	c.TyreHealth = clamp(c.TyreHealth-WearRate(c, cond, gapAhead)*dt, 0, 1)
}

// applyEnergy is the ERS model: PUSH drains the battery (or trickle-charges an empty one), the
// other modes harvest.
func applyEnergy(c *domain.Competitor, dt float64) {
	switch c.Mode {
	case domain.DrivingModePush:
		if c.Battery > 0 {
			c.Battery -= pushDrain * dt
		} else {
			c.Battery += emptyTrickle * dt
		}
	case domain.DrivingModeConserve:
		c.Battery += conserveCharge * dt
	default:
		c.Battery += balancedCharge * dt
	}
	c.Battery = clamp(c.Battery, 0, batteryMax)
}
