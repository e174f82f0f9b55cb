package sim

import (
	"log/slog"

	"github.com/GamePointAnalytics/f1-race-simulator/internal/domain"
)

const (
	CallNone      PitCall = ""
	CallSafetyCar PitCall = "SAFETY_CAR"
	CallWeather   PitCall = "WEATHER"
	CallWear      PitCall = "WEAR"
)

const (
	crossoverMoisture  = 0.3
	fullWetMoisture    = 0.84 // inter/wet crossover of the pace model
	safetyCarPitHealth = 0.5
	wearFloor          = 0.05
	baseStopBudget     = 2
	mixedStopBudget    = 3
	softOverrideChance = 0.2
	shortStintLaps     = 15
	mediumStintLaps    = 30
	backmarkerBias     = 0.25
	criticalHealth     = 0.2
	lowBattery         = 10.0
	midBattery         = 30.0
	fullBattery        = 90.0
	attackGap          = 1.0
	leaderAttackGap    = 1.5
)

// wearThresholds is the tyre health below which a competitor boxes, per compound.
var wearThresholds = map[domain.TireCompound]float64{
	domain.TireCompoundSoft:         0.35,
	domain.TireCompoundMedium:       0.30,
	domain.TireCompoundHard:         0.20,
	domain.TireCompoundIntermediate: 0.30,
	domain.TireCompoundFullWet:      0.30,
}

// PitCall names the rule that produced a box request.
type PitCall string

// LapView is what the strategy engine sees of the race when a competitor completes a lap.
type LapView struct {
	Now           float64
	TotalLaps     int
	FieldSize     int
	Env           domain.Environment
	SafetyCar     bool
	SafetyCarSeen bool
}

// Strategist is the opponent brain. It runs once per completed lap for every computer-controlled
// competitor, deliberately probabilistic so that repeated races produce varied strategies.
type Strategist struct {
	src        Source
	difficulty domain.Difficulty
	logger     *slog.Logger
}

// NewStrategist returns a strategist drawing from src.
func NewStrategist(src Source, difficulty domain.Difficulty, logger *slog.Logger) *Strategist {
	if logger == nil {
		logger = slog.Default()
	}
	return &Strategist{src: src, difficulty: difficulty, logger: logger}
}

// Decide runs the pit rules (first match wins) and then the independent mode management.
func (s *Strategist) Decide(c *domain.Competitor, v LapView) PitCall {
	call := s.pitCall(c, v)
	s.chooseMode(c, v)
	if call != CallNone {
		s.logger.Debug("strategy box call", "driver", c.ID, "lap", c.Lap, "call", call, "tyre", c.PendingTyre, "health", c.TyreHealth)
	}
	return call
}

func (s *Strategist) pitCall(c *domain.Competitor, v LapView) PitCall {
	if c.PitRequested || !canRequestPit(c, v.TotalLaps) {
		return CallNone
	}
	lapsLeft := v.TotalLaps - c.Lap

	if v.SafetyCar && c.TyreHealth < safetyCarPitHealth {
		requestPit(c, s.chooseTyre(v.Env, lapsLeft))
		return CallSafetyCar
	}
	if s.weatherCall(c, v, lapsLeft) {
		return CallWeather
	}
	if c.TyreHealth <= s.wearThreshold(c, v) {
		requestPit(c, s.chooseTyre(v.Env, lapsLeft))
		return CallWear
	}
	return CallNone
}

// weatherCall reacts to a tyre/weather mismatch. The decision is a weighted coin: the further
// back a competitor runs the more likely it gambles early, and a hesitation error can keep a car
// out that should have boxed.
func (s *Strategist) weatherCall(c *domain.Competitor, v LapView, lapsLeft int) bool {
	raining := v.Env.Weather.IsRaining()
	tol := s.tolerance()

	var (
		p      float64
		target domain.TireCompound
	)
	switch {
	case c.Tyre.IsSlick() && raining:
		if v.Env.Moisture >= crossoverMoisture+tol {
			p = 0.9
		} else {
			p = 0.1 + 0.3*v.Env.Weather.Intensity + s.rainOutlook(v)
		}
		target = wetCompound(v.Env)
		if target == domain.TireCompoundUnknown {
			target = domain.TireCompoundIntermediate
		}
	case c.Tyre.IsWet() && !raining:
		if v.Env.Moisture <= crossoverMoisture-tol {
			p = 0.9
		} else {
			p = 0.05 + s.dryOutlook(v)
		}
		target = s.dryCompound(lapsLeft)
	default:
		return false
	}

	if v.FieldSize > 1 {
		p += backmarkerBias * float64(c.Position-1) / float64(v.FieldSize-1)
	}
	if !chance(s.src, clamp(p, 0, 1)) {
		return false
	}
	if chance(s.src, s.hesitation()) {
		s.logger.Debug("strategy hesitated", "driver", c.ID, "lap", c.Lap)
		return false
	}
	requestPit(c, target)
	return true
}

// rainOutlook weighs how long the active rain block still lasts.
func (s *Strategist) rainOutlook(v LapView) float64 {
	if v.Env.Cursor >= len(v.Env.Forecast) {
		return 0
	}
	remaining := v.Env.Forecast[v.Env.Cursor].End - v.Now
	return clamp(remaining/maxBlockSeconds, 0, 1) * 0.3
}

// dryOutlook is high when no rain is forecast for the next quarter hour.
func (s *Strategist) dryOutlook(v LapView) float64 {
	next, ok := v.Env.NextChange()
	if !ok || next.Start-v.Now > 900 {
		return 0.3
	}
	return 0
}

func (s *Strategist) wearThreshold(c *domain.Competitor, v LapView) float64 {
	budget := baseStopBudget
	if v.Env.RainSeen || v.SafetyCarSeen {
		budget = mixedStopBudget
	}
	if c.Stops >= budget {
		return wearFloor
	}
	if t, ok := wearThresholds[c.Tyre]; ok {
		return t
	}
	return wearThresholds[domain.TireCompoundMedium]
}

// chooseTyre picks the compound suited to the track, or a dry compound by stint length.
func (s *Strategist) chooseTyre(env domain.Environment, lapsLeft int) domain.TireCompound {
	if wet := wetCompound(env); wet != domain.TireCompoundUnknown {
		return wet
	}
	return s.dryCompound(lapsLeft)
}

func (s *Strategist) dryCompound(lapsLeft int) domain.TireCompound {
	if chance(s.src, softOverrideChance) {
		return domain.TireCompoundSoft
	}
	switch {
	case lapsLeft < shortStintLaps:
		return domain.TireCompoundSoft
	case lapsLeft <= mediumStintLaps:
		return domain.TireCompoundMedium
	}
	return domain.TireCompoundHard
}

// wetCompound returns the grooved compound the track calls for, or TireCompoundUnknown when
// slicks are faster.
func wetCompound(env domain.Environment) domain.TireCompound {
	switch {
	case env.Moisture > fullWetMoisture:
		return domain.TireCompoundFullWet
	case env.Moisture > crossoverMoisture:
		return domain.TireCompoundIntermediate
	}
	return domain.TireCompoundUnknown
}

func (s *Strategist) chooseMode(c *domain.Competitor, v LapView) {
	switch {
	case v.SafetyCar:
		c.Mode = domain.DrivingModeConserve
	case c.TyreHealth < criticalHealth:
		c.Mode = domain.DrivingModeConserve
	case c.GapToAhead < attackGap && c.Battery > lowBattery:
		c.Mode = domain.DrivingModePush
	case c.Position == 2 && c.GapToLeader < leaderAttackGap && c.Battery > lowBattery:
		c.Mode = domain.DrivingModePush
	case c.Battery < lowBattery:
		c.Mode = domain.DrivingModeConserve
	case c.Battery < midBattery:
		c.Mode = domain.DrivingModeBalanced
	case c.Battery > fullBattery:
		c.Mode = domain.DrivingModeBalanced
		if chance(s.src, 0.6) {
			c.Mode = domain.DrivingModePush
		}
	default:
		r := s.src.Float64()
		switch {
		case r > 0.75:
			c.Mode = domain.DrivingModePush
		case r < 0.15:
			c.Mode = domain.DrivingModeConserve
		default:
			c.Mode = domain.DrivingModeBalanced
		}
	}
}

// tolerance is how far past the crossover the track must be before a switch is certain.
func (s *Strategist) tolerance() float64 {
	if s.difficulty == domain.DifficultyEasy {
		return 0.15
	}
	return 0.05
}

func (s *Strategist) hesitation() float64 {
	if s.difficulty == domain.DifficultyEasy {
		return 0.15
	}
	return 0.05
}
