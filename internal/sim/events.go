package sim

import (
	"github.com/GamePointAnalytics/f1-race-simulator/internal/domain"
)

const (
	StatusFinished      ClassificationStatus = "FINISHED"
	StatusNotClassified ClassificationStatus = "NC"
	StatusDidNotFinish  ClassificationStatus = "DNF"
)

// Event is a domain event emitted by a tick. The concrete types are Update, LapCompleted,
// RaceFinished and Radio.
type Event interface {
	event()
}

// Update is emitted at the end of every tick with a snapshot of the race; it shares no memory with
// the engine.
type Update struct {
	RaceID      string
	Time        float64             // Time is the elapsed race time in seconds
	CurrentLap  int                 // CurrentLap is the lap the leader is on
	TotalLaps   int                 // TotalLaps is the race distance
	Competitors []domain.Competitor // Competitors is the running order
	Environment domain.Environment  // Environment holds temperature, weather and moisture
	SafetyCar   bool
	Chequered   bool
}

// LapCompleted is emitted every time a competitor crosses the line.
type LapCompleted struct {
	Competitor domain.Competitor
	Lap        int
	LapTime    float64
}

// RaceFinished is emitted once, when the race is over, with the final classification.
type RaceFinished struct {
	RaceID         string
	Classification []Classified
}

// Radio carries an advisory that passed the verbosity filter.
type Radio struct {
	Msg domain.RadioMsg
}

func (Update) event()       {}
func (LapCompleted) event() {}
func (RaceFinished) event() {}
func (Radio) event()        {}

// ClassificationStatus tells finishers apart from stragglers and retirements.
type ClassificationStatus string

// Classified is one line of the final classification.
type Classified struct {
	Position   int
	Competitor domain.Competitor
	Status     ClassificationStatus
	Gap        float64 // Gap is the time behind the winner for finishers on the lead lap
	LapsDown   int
}

// Observer receives every event emitted by a tick, in order.
type Observer interface {
	Notify(e Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(e Event)

// Notify calls f(e).
func (f ObserverFunc) Notify(e Event) {
	f(e)
}
