package sim

import (
	"fmt"
	"math"
	"sort"

	"github.com/GamePointAnalytics/f1-race-simulator/internal/domain"
)

const (
	qualiTeamScale  = 15.0 // seconds per unit of team performance
	qualiSkillScale = 0.04 // seconds per rating point
	qualiVariation  = 0.6  // seconds, peak to peak
)

// GridSlot is one line of the qualifying result.
type GridSlot struct {
	Position      int
	Driver        domain.Driver
	TeamName      string
	Time          float64 // Time is the qualifying lap in seconds
	FormattedTime string  // FormattedTime is Time as m:ss.mmm
}

// Qualify estimates a lap time per driver, team performance first and driver speed second, and
// sorts them into a starting grid. It holds no state; the only side effect is the draws from src.
func Qualify(roster []domain.Driver, teams domain.Teams, circuit domain.Circuit, src Source) []GridSlot {
	drivers := append([]domain.Driver(nil), roster...)
	for i := len(drivers) - 1; i > 0; i-- {
		j := int(src.Float64() * float64(i+1))
		drivers[i], drivers[j] = drivers[j], drivers[i]
	}

	slots := make([]GridSlot, len(drivers))
	for i, d := range drivers {
		team := teams.Lookup(d.Team)
		t := circuit.BaseLapTime +
			(midfieldTeam-team.Performance)*qualiTeamScale +
			(midfieldDriver-float64(d.Speed))*qualiSkillScale +
			centered(src, qualiVariation)
		slots[i] = GridSlot{Driver: d, TeamName: team.Name, Time: t, FormattedTime: FormatLapTime(t)}
	}
	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].Time < slots[j].Time
	})
	for i := range slots {
		slots[i].Position = i + 1
	}
	return slots
}

// GridOrder returns the driver ids of the slots in order, ready for Setup.Grid.
func GridOrder(slots []GridSlot) []string {
	ids := make([]string, len(slots))
	for i, s := range slots {
		ids[i] = s.Driver.ID
	}
	return ids
}

// FormatLapTime formats seconds as m:ss.mmm.
func FormatLapTime(seconds float64) string {
	if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return "-:--.---"
	}
	ms := int(math.Round(seconds * 1000))
	return fmt.Sprintf("%d:%02d.%03d", ms/60000, ms/1000%60, ms%1000)
}
