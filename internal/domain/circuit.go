package domain

// DefaultTrackLength is the track length used when the circuit does not provide one.
const DefaultTrackLength = 5000.0

// Circuit is the reference data of a race track. The engine treats it as read-only.
type Circuit struct {
	ID              string       `yaml:"id"`
	Name            string       `yaml:"name"`
	Country         string       `yaml:"country"`
	Laps            int          `yaml:"laps"`            // Laps is the race distance in laps
	BaseLapTime     float64      `yaml:"baseLapTime"`     // BaseLapTime is the reference lap time in seconds
	TrackLength     float64      `yaml:"trackLength"`     // TrackLength is the lap length in meters
	RainProbability float64      `yaml:"rainProbability"` // RainProbability drives the forecast generator
	TyreWearFactor  float64      `yaml:"tyreWearFactor"`  // TyreWearFactor scales tyre wear
	PitTimeLoss     float64      `yaml:"pitTimeLoss"`     // PitTimeLoss is the stationary time of a stop in seconds
	DRSZones        [][2]float64 `yaml:"drsZones"`        // DRSZones are lap-progress intervals
	Harsh           bool         `yaml:"harsh"`           // Harsh marks a tight layout: more dirty air, no DRS benefit
}

// Length returns the lap length, falling back to DefaultTrackLength.
func (c Circuit) Length() float64 {
	if c.TrackLength > 0 {
		return c.TrackLength
	}
	return DefaultTrackLength
}

// InDRSZone reports whether the lap-progress fraction lies inside a DRS zone. A circuit without
// zones is treated as DRS-enabled everywhere.
func (c Circuit) InDRSZone(progress float64) bool {
	if len(c.DRSZones) == 0 {
		return true
	}
	for _, z := range c.DRSZones {
		if progress >= z[0] && progress <= z[1] {
			return true
		}
	}
	return false
}
