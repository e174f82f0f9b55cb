package sim

import (
	"fmt"

	"github.com/GamePointAnalytics/f1-race-simulator/internal/domain"
)

const rainWarningSeconds = 300.0

// tyreWarnings are the health levels announced to the player; the last two are urgent.
var tyreWarnings = []struct {
	health float64
	urgent bool
}{
	{0.5, false},
	{0.3, true},
	{0.15, true},
}

// radio derives advisories by diffing the race state against what it saw on the previous tick.
// Its state is private; nothing else in the engine reads it.
type radio struct {
	verbosity domain.Verbosity
	userID    string

	started      bool
	flag         bool
	safetyCar    bool
	weather      domain.WeatherType
	rainWarnedAt int
	lap          int
	boxCalled    bool
	inPit        bool
	finished     bool
	retired      bool
	tyreWarned   int
	batteryEmpty bool
	batteryFull  bool
	drs          bool
}

func newRadio(verbosity domain.Verbosity, userID string, weather domain.WeatherType) *radio {
	return &radio{
		verbosity:    verbosity,
		userID:       userID,
		weather:      weather,
		rainWarnedAt: -1,
		batteryFull:  true,
	}
}

// evaluate returns the messages triggered on this tick that pass the verbosity filter.
func (rd *radio) evaluate(r *Race) []domain.RadioMsg {
	var msgs []domain.RadioMsg
	add := func(cat domain.RadioMsgCategory, title string, urgent bool, format string, args ...any) {
		msg := domain.RadioMsg{
			Category: cat,
			Title:    title,
			Body:     fmt.Sprintf(format, args...),
			Urgent:   urgent,
			Lap:      r.currentLap,
			Time:     r.time,
		}
		if rd.verbosity.Allows(msg) {
			msgs = append(msgs, msg)
		}
	}

	rd.raceControl(r, add)
	rd.weatherWatch(r, add)
	if c := r.competitor(rd.userID); c != nil {
		rd.carWatch(r, c, add)
	}
	return msgs
}

type addFunc func(cat domain.RadioMsgCategory, title string, urgent bool, format string, args ...any)

func (rd *radio) raceControl(r *Race, add addFunc) {
	if !rd.started {
		rd.started = true
		add(domain.RadioMsgCategoryTrackStatus, domain.RadioMsgTitleFlagGreen, true, "Lights out at %s, %d laps", r.circuit.Name, r.totalLaps)
	}
	if sc := r.safetyCar.active; sc != rd.safetyCar {
		rd.safetyCar = sc
		if sc {
			add(domain.RadioMsgCategoryTrackStatus, domain.RadioMsgTitleSC, true, "Safety car deployed")
		} else {
			add(domain.RadioMsgCategoryTrackStatus, domain.RadioMsgTitleFlagGreen, true, "Safety car in this lap, green flag")
		}
	}
	if r.chequered && !rd.flag {
		rd.flag = true
		add(domain.RadioMsgCategoryTrackStatus, domain.RadioMsgTitleChequered, true, "Chequered flag, %s wins", r.order[0].Name)
	}
}

func (rd *radio) weatherWatch(r *Race, add addFunc) {
	if w := r.env.Weather.Type; w != rd.weather {
		rd.weather = w
		if w == domain.WeatherRain {
			add(domain.RadioMsgCategoryWeather, domain.RadioMsgTitleWeather, true, "Rain is falling, intensity %.0f%%", r.env.Weather.Intensity*100)
		} else {
			add(domain.RadioMsgCategoryWeather, domain.RadioMsgTitleWeather, true, "Rain has stopped, track will start drying")
		}
	}
	if r.env.Weather.IsRaining() || r.chequered {
		return
	}
	next, ok := r.env.NextChange()
	if !ok || next.Weather.Type != domain.WeatherRain {
		return
	}
	in := next.Start - r.time
	if in > 0 && in <= rainWarningSeconds && rd.rainWarnedAt != int(next.Start) {
		rd.rainWarnedAt = int(next.Start)
		add(domain.RadioMsgCategoryWeather, domain.RadioMsgTitleWeather, true, "Rain expected in about %.0f minutes", in/60)
	}
}

func (rd *radio) carWatch(r *Race, c *domain.Competitor, add addFunc) {
	if c.IsRetired && !rd.retired {
		rd.retired = true
		add(domain.RadioMsgCategoryCar, domain.RadioMsgTitleDefault, true, "Retire the car, retire the car")
	}
	if c.HasFinished && !rd.finished {
		rd.finished = true
		add(domain.RadioMsgCategoryOther, domain.RadioMsgTitleChequered, true, "That's the flag, P%d", c.FinishRank)
	}
	if !c.IsRunning() {
		return
	}

	if c.Lap > rd.lap {
		rd.lap = c.Lap
		add(domain.RadioMsgCategoryOther, domain.RadioMsgTitleDefault, false, "Lap %d complete, %s, gap to leader %.1fs",
			c.Lap, FormatLapTime(c.LastLapTime), c.GapToLeader)
	}

	if c.PitRequested && !rd.boxCalled {
		add(domain.RadioMsgCategoryStrategy, domain.RadioMsgTitlePit, true, "Box box, box this lap")
	}
	rd.boxCalled = c.PitRequested
	if c.IsInPit != rd.inPit {
		rd.inPit = c.IsInPit
		if c.IsInPit {
			add(domain.RadioMsgCategoryStrategy, domain.RadioMsgTitlePit, false, "In the pit lane, fitting %s", c.PendingTyre)
		} else {
			add(domain.RadioMsgCategoryStrategy, domain.RadioMsgTitlePit, false, "Out of the pits on %s, stop %d", c.Tyre, c.Stops)
			rd.tyreWarned = 0
		}
	}

	for rd.tyreWarned < len(tyreWarnings) && c.TyreHealth < tyreWarnings[rd.tyreWarned].health {
		w := tyreWarnings[rd.tyreWarned]
		rd.tyreWarned++
		add(domain.RadioMsgCategoryCar, domain.RadioMsgTitleTyres, w.urgent, "Tyres at %.0f%%", c.TyreHealth*100)
	}

	switch {
	case c.Battery <= 0 && !rd.batteryEmpty:
		rd.batteryEmpty = true
		add(domain.RadioMsgCategoryCar, domain.RadioMsgTitleERS, true, "Battery is flat, switch off push")
	case c.Battery > 10:
		rd.batteryEmpty = false
	}
	switch {
	case c.Battery >= batteryMax && !rd.batteryFull:
		rd.batteryFull = true
		add(domain.RadioMsgCategoryCar, domain.RadioMsgTitleERS, false, "Battery full, you can push")
	case c.Battery < fullBattery:
		rd.batteryFull = false
	}

	switch {
	case c.GapToAhead < drsRange && !rd.drs:
		rd.drs = true
		add(domain.RadioMsgCategoryOther, domain.RadioMsgTitleDefault, false, "Within a second of the car ahead")
	case c.GapToAhead > leaderAttackGap:
		rd.drs = false
	}
}
