package domain

const (
	WeatherDry  WeatherType = "DRY"
	WeatherRain WeatherType = "RAIN"
)

// WeatherType is the state of the sky: dry or raining.
type WeatherType string

// Weather is the active weather with its rain intensity (0 when dry, 0.2 - 0.8 when raining).
type Weather struct {
	Type      WeatherType
	Intensity float64
}

// IsRaining reports whether rain is falling.
func (w Weather) IsRaining() bool {
	return w.Type == WeatherRain
}

// WeatherBlock is a time-bounded forecast entry; Start and End are race seconds.
type WeatherBlock struct {
	Start   float64
	End     float64
	Weather Weather
}

// Environment is the track and weather state shared by all competitors.
type Environment struct {
	TrackTemp  float64        // TrackTemp is the track temperature in °C
	Moisture   float64        // Moisture is the water on track, 0 dry to 1 flooded
	Weather    Weather        // Weather is the active weather
	Forecast   []WeatherBlock // Forecast covers the expected race duration
	Cursor     int            // Cursor is the index of the active forecast block
	DryingRate float64        // DryingRate is the moisture lost per second while dry
	WearScale  float64        // WearScale is the session tyre-wear factor (track rubbering-in)
	RainSeen   bool           // RainSeen is set once rain has fallen during the race
}

// Snapshot returns a copy of the environment that shares no memory with the original.
func (e Environment) Snapshot() Environment {
	s := e
	s.Forecast = make([]WeatherBlock, len(e.Forecast))
	copy(s.Forecast, e.Forecast)
	return s
}

// NextChange returns the first forecast block after the active one whose weather type differs
// from the active weather, and whether there is one.
func (e Environment) NextChange() (WeatherBlock, bool) {
	for i := e.Cursor + 1; i < len(e.Forecast); i++ {
		if e.Forecast[i].Weather.Type != e.Weather.Type {
			return e.Forecast[i], true
		}
	}
	return WeatherBlock{}, false
}
