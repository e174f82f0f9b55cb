package domain

import (
	"fmt"
	"strings"
)

const (
	TireCompoundSoft         TireCompound = "SOFT"
	TireCompoundMedium       TireCompound = "MEDIUM"
	TireCompoundHard         TireCompound = "HARD"
	TireCompoundIntermediate TireCompound = "INTERMEDIATE"
	TireCompoundFullWet      TireCompound = "WET"
	TireCompoundUnknown      TireCompound = "UNKNOWN"
)

const (
	DrivingModePush     DrivingMode = "PUSH"
	DrivingModeBalanced DrivingMode = "BALANCED"
	DrivingModeConserve DrivingMode = "CONSERVE"
)

// TireCompound represents one of the official tire compound types used in a race weekend.
type TireCompound string

// IsSlick reports whether the compound is one of the dry-weather compounds.
func (t TireCompound) IsSlick() bool {
	return t == TireCompoundSoft || t == TireCompoundMedium || t == TireCompoundHard
}

// IsWet reports whether the compound is grooved, i.e. intermediate or full wet.
func (t TireCompound) IsWet() bool {
	return t == TireCompoundIntermediate || t == TireCompoundFullWet
}

// ParseTireCompound converts user input (case-insensitive, "INTER" accepted) to a compound.
func ParseTireCompound(s string) (TireCompound, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SOFT", "S":
		return TireCompoundSoft, nil
	case "MEDIUM", "M":
		return TireCompoundMedium, nil
	case "HARD", "H":
		return TireCompoundHard, nil
	case "INTERMEDIATE", "INTER", "I":
		return TireCompoundIntermediate, nil
	case "WET", "W":
		return TireCompoundFullWet, nil
	}
	return TireCompoundUnknown, fmt.Errorf("unknown tire compound %q", s)
}

// DrivingMode is the engine/ERS map a competitor is running; it trades pace for tyre wear and
// battery charge.
type DrivingMode string

// ParseDrivingMode converts user input (case-insensitive) to a driving mode.
func ParseDrivingMode(s string) (DrivingMode, error) {
	switch m := DrivingMode(strings.ToUpper(strings.TrimSpace(s))); m {
	case DrivingModePush, DrivingModeBalanced, DrivingModeConserve:
		return m, nil
	}
	return DrivingModeBalanced, fmt.Errorf("unknown driving mode %q", s)
}

// Driver is the static reference data of an entrant: identity, team and skill ratings (0-100).
type Driver struct {
	ID          string `yaml:"id"`          // ID is the short unique driver code, e.g. "ver"
	Name        string `yaml:"name"`        // Name is the full name of the driver
	Team        string `yaml:"team"`        // Team is the id of the team the driver races for
	Speed       int    `yaml:"speed"`       // Speed is the raw pace rating
	TyreMgmt    int    `yaml:"tyreMgmt"`    // TyreMgmt rates how gently the driver treats tyres
	Consistency int    `yaml:"consistency"` // Consistency rates lap-to-lap variation
}

// NewCompetitor returns a new competitor for the given driver and team, on fresh tyres of the
// given compound, with every field initialised so that it can be safely read before the first
// tick.
func NewCompetitor(d Driver, team Team, tyre TireCompound, gridSlot int) Competitor {
	return Competitor{
		ID:              d.ID,
		Name:            d.Name,
		TeamID:          team.ID,
		TeamName:        team.Name,
		TeamColor:       team.Color,
		TeamPerformance: team.Performance,
		Speed:           d.Speed,
		TyreMgmt:        d.TyreMgmt,
		Consistency:     d.Consistency,
		GridSlot:        gridSlot,
		Position:        gridSlot,
		GapToAhead:      NoGap,
		Tyre:            tyre,
		TyreHealth:      1,
		Battery:         100,
		Mode:            DrivingModeBalanced,
		PendingTyre:     TireCompoundUnknown,
	}
}

// NoGap is the gap reported for a competitor with nobody ahead on track.
const NoGap = 999.0

// Competitor is the full mutable state of an entrant during a race. All fields are always
// present; optional values use sentinels (FinishRank 0, PendingTyre TireCompoundUnknown).
type Competitor struct {
	// Intrinsic data
	ID              string  // ID is the driver id
	Name            string  // Name is the full name of the driver
	TeamID          string  // TeamID is the id of the team
	TeamName        string  // TeamName is the display name of the team
	TeamColor       string  // TeamColor is the primary color of the team
	TeamPerformance float64 // TeamPerformance is the car rating (mid-field is 0.94)
	Speed           int     // Speed is the driver pace rating
	TyreMgmt        int     // TyreMgmt is the driver tyre management rating
	Consistency     int     // Consistency is the driver consistency rating
	IsUser          bool    // IsUser marks the competitor controlled by the player
	GridSlot        int     // GridSlot is the 1-based starting position
	// Race state
	Distance         float64 // Distance is the cumulative distance traveled in meters
	CooldownDistance float64 // CooldownDistance is driven after the finish and never ranked
	Lap              int     // Lap is the number of times the line has been crossed
	LapStartTime     float64 // LapStartTime is the race time at which the current lap began
	LastLapTime      float64 // LastLapTime is the duration of the last completed lap
	BestLapTime      float64 // BestLapTime is the fastest completed lap
	GapToAhead       float64 // GapToAhead is the estimated time to the car ahead in seconds
	GapToLeader      float64 // GapToLeader is the estimated time to the leader in seconds
	Position         int     // Position is the 1-based running order
	HasFinished      bool    // HasFinished is set once the chequered flag is taken
	FinishRank       int     // FinishRank is assigned once and never changes; 0 until finished
	FinishTime       float64 // FinishTime is the race time at which the flag was taken
	LapsCompleted    int     // LapsCompleted is the number of laps classified at the finish
	IsRetired        bool    // IsRetired marks a did-not-finish
	// Car state
	Tyre       TireCompound // Tyre is the fitted compound
	TyreAge    int          // TyreAge is the number of laps completed on the fitted set
	TyreHealth float64      // TyreHealth is 1 for a fresh set, 0 for a worn out one
	Battery    float64      // Battery is the ERS charge in percent
	// Strategy state
	Mode         DrivingMode  // Mode is the current driving mode
	PitRequested bool         // PitRequested is the pending "box this lap" call
	PendingTyre  TireCompound // PendingTyre is the compound to fit at the next stop
	IsInPit      bool         // IsInPit is set while the car is stationary in the pit lane
	PitTimer     float64      // PitTimer is the number of seconds left in the pit lane
	Stops        int          // Stops is the number of completed pit stops
}

// IsRunning reports whether the competitor is still racing, i.e. neither finished nor retired.
func (c Competitor) IsRunning() bool {
	return !c.HasFinished && !c.IsRetired
}

// EffectiveDistance is the distance used for ranking: finished competitors are pinned to the
// line they crossed.
func (c Competitor) EffectiveDistance(trackLength float64) float64 {
	if c.HasFinished {
		return float64(c.LapsCompleted) * trackLength
	}
	return c.Distance
}

// Progress is the fraction of the current lap covered, in [0,1).
func (c Competitor) Progress(trackLength float64) float64 {
	if trackLength <= 0 {
		return 0
	}
	d := c.Distance + c.CooldownDistance
	laps := int(d / trackLength)
	return (d - float64(laps)*trackLength) / trackLength
}
