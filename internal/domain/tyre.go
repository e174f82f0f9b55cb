package domain

// TyreSpec is the reference data of a tyre compound.
type TyreSpec struct {
	Compound   TireCompound `yaml:"compound"`
	Name       string       `yaml:"name"`
	Color      string       `yaml:"color"`
	PaceBase   float64      `yaml:"paceBase"`   // PaceBase is the pace deficit in percent; lower is faster
	Life       float64      `yaml:"life"`       // Life is the nominal stint length in laps
	WarmupLaps int          `yaml:"warmupLaps"` // WarmupLaps is the number of laps to reach temperature
}

// Tyres is the compound table keyed by compound.
type Tyres map[TireCompound]TyreSpec

// defaultTyre is used for compounds missing from the table; medium-like values.
var defaultTyre = TyreSpec{
	Compound:   TireCompoundMedium,
	Name:       "Medium",
	Color:      "#FFFF33",
	PaceBase:   0.2,
	Life:       40,
	WarmupLaps: 2,
}

// Spec returns the spec of the given compound, falling back to medium-like values when the
// compound is unknown.
func (t Tyres) Spec(c TireCompound) TyreSpec {
	if s, ok := t[c]; ok {
		if s.Life <= 0 {
			s.Life = defaultTyre.Life
		}
		return s
	}
	s := defaultTyre
	s.Compound = c
	return s
}

// Team is the reference data of a constructor.
type Team struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	Color       string  `yaml:"color"`
	Performance float64 `yaml:"performance"` // Performance is the car rating, roughly 0.88 - 0.99
}

// Teams is the team table keyed by team id.
type Teams map[string]Team

// DefaultTeamPerformance is the mid-field car rating. Teams missing from the table get it, and
// the pace model measures every team against it.
const DefaultTeamPerformance = 0.94

// Lookup returns the team with the given id, falling back to a mid-field team.
func (t Teams) Lookup(id string) Team {
	if team, ok := t[id]; ok {
		if team.ID == "" {
			team.ID = id
		}
		return team
	}
	return Team{ID: id, Name: id, Color: "#888888", Performance: DefaultTeamPerformance}
}
