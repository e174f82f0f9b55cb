package sim

import (
	"github.com/GamePointAnalytics/f1-race-simulator/internal/domain"
)

const defaultPitTimeLoss = 25.0

// canRequestPit reports whether a pit request may still be honored: the competitor is racing and
// has not started the final lap. Entry happens at the next line crossing, so a request issued on
// the penultimate lap is the last one that can be served.
func canRequestPit(c *domain.Competitor, totalLaps int) bool {
	return c.IsRunning() && !c.IsInPit && c.Lap < totalLaps-1
}

// requestPit records a box call for the next line crossing.
func requestPit(c *domain.Competitor, tyre domain.TireCompound) {
	c.PitRequested = true
	c.PendingTyre = tyre
}

// enterPit takes the competitor off track for the circuit's pit time loss. The request is cleared
// on entry so that it is honored exactly once.
func enterPit(c *domain.Competitor, circuit domain.Circuit) {
	c.IsInPit = true
	c.PitRequested = false
	c.PitTimer = circuit.PitTimeLoss
	if c.PitTimer <= 0 {
		c.PitTimer = defaultPitTimeLoss
	}
	if c.PendingTyre == domain.TireCompoundUnknown || c.PendingTyre == "" {
		c.PendingTyre = domain.TireCompoundMedium
	}
	c.Mode = domain.DrivingModeBalanced
}

// tickPit counts the stop down and releases the car on fresh tyres when it expires. It reports
// whether the car left the pit lane.
func tickPit(c *domain.Competitor, dt float64) bool {
	c.PitTimer -= dt
	if c.PitTimer > 0 {
		return false
	}
	exitPit(c)
	return true
}

func exitPit(c *domain.Competitor) {
	c.Tyre = c.PendingTyre
	c.TyreHealth = 1
	c.TyreAge = 0
	c.PendingTyre = domain.TireCompoundUnknown
	c.PitTimer = 0
	c.IsInPit = false
	c.Stops++
}
