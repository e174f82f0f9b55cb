package sim

import (
	"github.com/GamePointAnalytics/f1-race-simulator/internal/domain"
)

const (
	minBlockSeconds    = 600.0
	maxBlockSeconds    = 1800.0
	forecastBuffer     = 1.2   // forecast covers 20% more than the expected duration
	forecastBufferMin  = 900.0 // and at least this many extra seconds
	rainStartFactor    = 2.0   // chance to start raining per block = factor * rain probability
	rainClearChance    = 0.7
	initialRainFactor  = 1.5
	minRainIntensity   = 0.2
	maxRainIntensity   = 0.8
	wetStartMoisture   = 0.5
	wettingRate        = 0.004 // moisture per second at full intensity
	baseDryingRate     = 0.0015
	minDryingRate      = 0.0005
	rainCoolingRate    = 0.01 // °C per second
	rainTempFloor      = 18.0
	tempWalk           = 0.02 // °C per second, peak to peak
	warmDriftThreshold = 20.0
	warmDriftRate      = 0.005
	minTrackTemp       = 10.0
	maxTrackTemp       = 55.0
)

// GenerateForecast produces the weather blocks of a session. The sequence covers the expected race
// duration plus a buffer and is generated once; the controller only moves a cursor through it.
func GenerateForecast(src Source, circuit domain.Circuit) []domain.WeatherBlock {
	duration := ExpectedDuration(circuit)
	horizon := duration * forecastBuffer
	if horizon < duration+forecastBufferMin {
		horizon = duration + forecastBufferMin
	}

	raining := chance(src, initialRainFactor*circuit.RainProbability)
	blocks := make([]domain.WeatherBlock, 0, 8)
	for start := 0.0; start < horizon; {
		end := start + between(src, minBlockSeconds, maxBlockSeconds)
		w := domain.Weather{Type: domain.WeatherDry}
		if raining {
			w = domain.Weather{Type: domain.WeatherRain, Intensity: between(src, minRainIntensity, maxRainIntensity)}
		}
		blocks = append(blocks, domain.WeatherBlock{Start: start, End: end, Weather: w})
		start = end

		if raining {
			raining = !chance(src, rainClearChance)
		} else {
			raining = chance(src, rainStartFactor*circuit.RainProbability)
		}
	}
	return blocks
}

// NewEnvironment builds the starting environment from a generated forecast: random track
// temperature between 15 and 40 °C, a session wear scale of ±10 % and damp track if the race
// starts in the rain.
func NewEnvironment(src Source, forecast []domain.WeatherBlock) domain.Environment {
	env := domain.Environment{
		TrackTemp: between(src, 15, 40),
		Forecast:  forecast,
		WearScale: between(src, 0.9, 1.1),
		Weather:   domain.Weather{Type: domain.WeatherDry},
	}
	if len(forecast) > 0 {
		env.Weather = forecast[0].Weather
	}
	if env.Weather.IsRaining() {
		env.Moisture = wetStartMoisture
		env.RainSeen = true
	}
	env.DryingRate = dryingRate(env.TrackTemp)
	return env
}

// advanceWeather moves the forecast cursor and integrates temperature and moisture over dt. It
// reports whether the weather type changed.
func advanceWeather(env *domain.Environment, src Source, now, dt float64) bool {
	changed := false
	for env.Cursor < len(env.Forecast)-1 && now >= env.Forecast[env.Cursor].End {
		env.Cursor++
		next := env.Forecast[env.Cursor].Weather
		if next.Type != env.Weather.Type {
			changed = true
			if next.Type == domain.WeatherDry {
				env.DryingRate = dryingRate(env.TrackTemp)
			}
		}
		env.Weather = next
	}

	if env.Weather.IsRaining() {
		env.RainSeen = true
		if env.TrackTemp > rainTempFloor {
			env.TrackTemp = max(rainTempFloor, env.TrackTemp-rainCoolingRate*dt)
		}
		env.Moisture += env.Weather.Intensity * wettingRate * dt
	} else {
		env.TrackTemp += centered(src, tempWalk*dt)
		if env.TrackTemp < warmDriftThreshold {
			env.TrackTemp += warmDriftRate * dt
		}
		env.Moisture -= env.DryingRate * dt
	}
	env.TrackTemp = clamp(env.TrackTemp, minTrackTemp, maxTrackTemp)
	env.Moisture = clamp(env.Moisture, 0, 1)

	return changed
}

// dryingRate is faster on a hot track.
func dryingRate(temp float64) float64 {
	return max(minDryingRate, baseDryingRate*(1+(temp-20)*0.03))
}
