package sim

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/GamePointAnalytics/f1-race-simulator/internal/domain"
	"github.com/segmentio/ksuid"
)

var (
	ErrUnknownCompetitor = errors.New("unknown competitor")
	ErrPitRefused        = errors.New("pit request refused")
	ErrRaceOver          = errors.New("race is over")
	ErrEmptyRoster       = errors.New("empty roster")
)

const (
	DefaultFinishTimeout = 180.0 // seconds after the chequered flag
	cooldownPace         = 0.4   // fraction of base speed on the cooldown lap
	orderEpsilon         = 1e-3  // meters
	overallTimeout       = 3.0   // multiple of the expected race duration
	safetyCarMinLaps     = 2.0
	safetyCarMaxLaps     = 4.0
	safetyCarLastLaps    = 2 // no random deployment in the closing laps
)

// Setup is the construction input of a race.
type Setup struct {
	Roster     []domain.Driver     // Roster is every entrant
	Teams      domain.Teams        // Teams resolves the team of each driver
	Tyres      domain.Tyres        // Tyres is the compound table
	Circuit    domain.Circuit      // Circuit is the track; Laps is the race distance
	UserID     string              // UserID is the driver controlled by the player; empty for none
	StartTyre  domain.TireCompound // StartTyre is the compound the player starts on
	Difficulty domain.Difficulty   // Difficulty tunes the opponents' weather calls
	Grid       []string            // Grid is the starting order by driver id; roster order when empty
}

// RaceOption configures a Race.
type RaceOption = func(r *Race)

// Race is the race progression controller. It owns every competitor and is advanced by an external
// clock through Tick. A Race is not safe for concurrent use: ticks and user inputs must be
// serialised by the caller.
type Race struct {
	id         string
	circuit    domain.Circuit
	tyres      domain.Tyres
	totalLaps  int
	userID     string
	difficulty domain.Difficulty
	baseSpeed  float64

	src        Source
	logger     *slog.Logger
	observers  []Observer
	verbosity  domain.Verbosity
	scChance   float64
	failures   float64
	timeout    float64
	strategist *Strategist
	radio      *radio

	competitors []*domain.Competitor // competitors in grid order
	byID        map[string]*domain.Competitor
	order       []*domain.Competitor // order is the running order
	env         domain.Environment
	time        float64
	currentLap  int
	chequered   bool
	chequeredAt float64
	over        bool
	nextRank    int
	safetyCar   safetyCar
	result      []Classified
}

type safetyCar struct {
	active      bool
	remaining   float64 // seconds
	deployments int
}

// New builds a race: grid, starting tyres, forecast and environment. Every random draw comes from
// the race source, so a seeded race is reproducible from here on.
func New(setup Setup, opts ...RaceOption) (*Race, error) {
	if len(setup.Roster) == 0 {
		return nil, ErrEmptyRoster
	}
	if setup.Circuit.Laps <= 0 {
		return nil, fmt.Errorf("circuit %q has no laps", setup.Circuit.ID)
	}

	r := &Race{
		id:         ksuid.New().String(),
		circuit:    setup.Circuit,
		tyres:      setup.Tyres,
		totalLaps:  setup.Circuit.Laps,
		userID:     setup.UserID,
		difficulty: setup.Difficulty,
		baseSpeed:  BaseSpeed(setup.Circuit),
		logger:     slog.Default(),
		verbosity:  domain.VerbosityMinimal,
		timeout:    DefaultFinishTimeout,
		byID:       make(map[string]*domain.Competitor, len(setup.Roster)),
		nextRank:   1,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.src == nil {
		r.src = NewSource(0)
	}
	if r.difficulty == "" {
		r.difficulty = domain.DifficultyHard
	}

	drivers, err := gridOrder(setup.Roster, setup.Grid)
	if err != nil {
		return nil, err
	}
	if r.userID != "" && !containsDriver(drivers, r.userID) {
		return nil, fmt.Errorf("player %q: %w", r.userID, ErrUnknownCompetitor)
	}

	r.env = NewEnvironment(r.src, GenerateForecast(r.src, r.circuit))

	for i, d := range drivers {
		c := domain.NewCompetitor(d, setup.Teams.Lookup(d.Team), r.startTyre(d.ID, setup.StartTyre), i+1)
		c.IsUser = d.ID == r.userID
		r.competitors = append(r.competitors, &c)
		r.byID[c.ID] = r.competitors[i]
	}
	r.order = append([]*domain.Competitor(nil), r.competitors...)
	r.strategist = NewStrategist(r.src, r.difficulty, r.logger)
	r.radio = newRadio(r.verbosity, r.userID, r.env.Weather.Type)

	r.logger.Info("race created",
		"id", r.id,
		"circuit", r.circuit.ID,
		"laps", r.totalLaps,
		"competitors", len(r.competitors),
		"weather", r.env.Weather.Type,
	)
	return r, nil
}

// WithSource sets the random source of the race.
func WithSource(src Source) RaceOption {
	return func(r *Race) {
		r.src = src
	}
}

// WithSeed seeds the random source of the race; zero means time based.
func WithSeed(seed int64) RaceOption {
	return func(r *Race) {
		r.src = NewSource(seed)
	}
}

func WithLogger(logger *slog.Logger) RaceOption {
	return func(r *Race) {
		r.logger = logger
	}
}

// WithObserver registers an observer that is notified of every event.
func WithObserver(o Observer) RaceOption {
	return func(r *Race) {
		r.observers = append(r.observers, o)
	}
}

func WithVerbosity(v domain.Verbosity) RaceOption {
	return func(r *Race) {
		r.verbosity = v
	}
}

// WithSafetyCarChance sets the probability of a safety car each time the leader starts a lap.
func WithSafetyCarChance(p float64) RaceOption {
	return func(r *Race) {
		r.scChance = clamp(p, 0, 1)
	}
}

// WithFailureRate sets the probability of a mechanical retirement per completed lap.
func WithFailureRate(p float64) RaceOption {
	return func(r *Race) {
		r.failures = clamp(p, 0, 1)
	}
}

// WithFinishTimeout sets how long after the chequered flag stragglers have to take it.
func WithFinishTimeout(seconds float64) RaceOption {
	return func(r *Race) {
		if seconds > 0 {
			r.timeout = seconds
		}
	}
}

// Tick advances the race by dt seconds of simulated time and returns the events it emitted. Every
// event is also delivered to the registered observers. Ticking a finished race is a no-op.
func (r *Race) Tick(dt float64) []Event {
	if r.over {
		return nil
	}
	var events []Event
	if r.checkFinish() {
		return r.emit(append(events, r.finish()))
	}
	if dt <= 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return nil
	}

	r.time += dt
	r.sortOrder()
	r.leaderLap()
	r.tickSafetyCar(dt)

	cond := Conditions{Circuit: r.circuit, Tyres: r.tyres, Env: r.env, SafetyCar: r.safetyCar.active}
	length := r.circuit.Length()

	var finishers []finisher
	for i, c := range r.order {
		switch {
		case c.IsRetired:
			continue
		case c.HasFinished:
			c.CooldownDistance += r.baseSpeed * cooldownPace * dt
			continue
		case c.IsInPit:
			if tickPit(c, dt) {
				r.logger.Info("pit exit", "driver", c.ID, "tyre", c.Tyre, "stops", c.Stops)
			}
			continue
		}

		gap := r.gapAhead(i)
		c.GapToAhead = gap

		oldLap := c.Lap
		c.Distance += Speed(c, cond, gap, r.src) * dt
		if newLap := int(c.Distance / length); newLap > oldLap {
			events = append(events, r.completeLap(c, newLap))
			if c.Lap >= r.totalLaps || r.chequered {
				r.markFinished(c, length)
				finishers = append(finishers, finisher{c, i})
				continue
			}
			if r.failures > 0 && chance(r.src, r.failures) {
				r.retire(c, "mechanical failure")
				continue
			}
			r.lapDecisions(c)
		}

		applyWear(c, cond, gap, dt)
		applyEnergy(c, dt)
	}
	r.rankFinishers(finishers, length)

	r.sortOrder()
	r.updatePositions()

	if advanceWeather(&r.env, r.src, r.time, dt) {
		r.logger.Info("weather change", "weather", r.env.Weather.Type, "intensity", r.env.Weather.Intensity)
	}

	for _, msg := range r.radio.evaluate(r) {
		events = append(events, Radio{Msg: msg})
	}
	events = append(events, r.update())

	if r.checkFinish() {
		events = append(events, r.finish())
	}
	return r.emit(events)
}

/* User Inputs
------------------------------------------------------------------------------------------------- */

// SetMode switches the driving mode of a competitor.
func (r *Race) SetMode(id string, mode domain.DrivingMode) error {
	c, err := r.lookup(id)
	if err != nil {
		return err
	}
	if !c.IsRunning() {
		return nil
	}
	c.Mode = mode
	return nil
}

// RequestPit asks a competitor to box at the next line crossing and fit the given compound.
// Requests are refused in the pit lane and on the final two laps.
func (r *Race) RequestPit(id string, tyre domain.TireCompound) error {
	c, err := r.lookup(id)
	if err != nil {
		return err
	}
	if r.chequered || !canRequestPit(c, r.totalLaps) {
		return fmt.Errorf("%s on lap %d: %w", id, c.Lap, ErrPitRefused)
	}
	if tyre == domain.TireCompoundUnknown || tyre == "" {
		tyre = c.PendingTyre
	}
	requestPit(c, tyre)
	return nil
}

// CancelPit withdraws a pending box call.
func (r *Race) CancelPit(id string) error {
	c, err := r.lookup(id)
	if err != nil {
		return err
	}
	c.PitRequested = false
	return nil
}

// SetPitTyre changes the compound to fit at the next stop.
func (r *Race) SetPitTyre(id string, tyre domain.TireCompound) error {
	c, err := r.lookup(id)
	if err != nil {
		return err
	}
	if c.IsInPit {
		return fmt.Errorf("%s is already in the pit lane: %w", id, ErrPitRefused)
	}
	c.PendingTyre = tyre
	return nil
}

// SetVerbosity changes what the radio lets through.
func (r *Race) SetVerbosity(v domain.Verbosity) {
	r.verbosity = v
	r.radio.verbosity = v
}

// DeploySafetyCar sends the safety car out for the given number of seconds.
func (r *Race) DeploySafetyCar(seconds float64) error {
	if r.over || r.chequered {
		return ErrRaceOver
	}
	r.deploySafetyCar(seconds)
	return nil
}

// Retire takes a competitor out of the race.
func (r *Race) Retire(id string) error {
	c, err := r.lookup(id)
	if err != nil {
		return err
	}
	if c.IsRunning() {
		r.retire(c, "retired")
	}
	return nil
}

/* Accessors
------------------------------------------------------------------------------------------------- */

func (r *Race) ID() string {
	return r.id
}

// Competitors returns a copy of every competitor in running order.
func (r *Race) Competitors() []domain.Competitor {
	out := make([]domain.Competitor, len(r.order))
	for i, c := range r.order {
		out[i] = *c
	}
	return out
}

// Competitor returns a copy of the competitor with the given id.
func (r *Race) Competitor(id string) (domain.Competitor, error) {
	c, ok := r.byID[id]
	if !ok {
		return domain.Competitor{}, fmt.Errorf("%q: %w", id, ErrUnknownCompetitor)
	}
	return *c, nil
}

// Environment returns a snapshot of the track and weather.
func (r *Race) Environment() domain.Environment {
	return r.env.Snapshot()
}

func (r *Race) Circuit() domain.Circuit {
	return r.circuit
}

func (r *Race) TotalLaps() int {
	return r.totalLaps
}

func (r *Race) IsRaceOver() bool {
	return r.over
}

func (r *Race) Chequered() bool {
	return r.chequered
}

// CurrentLap is the number of laps completed by the leader.
func (r *Race) CurrentLap() int {
	return r.currentLap
}

// Elapsed is the simulated race time in seconds.
func (r *Race) Elapsed() float64 {
	return r.time
}

func (r *Race) SafetyCarActive() bool {
	return r.safetyCar.active
}

// Classification returns the final classification, or nil while the race is running.
func (r *Race) Classification() []Classified {
	if !r.over {
		return nil
	}
	return append([]Classified(nil), r.result...)
}

/* Private Helper Functions
------------------------------------------------------------------------------------------------- */

type finisher struct {
	c     *domain.Competitor
	index int // index is the running order at the start of the tick
}

func (r *Race) lookup(id string) (*domain.Competitor, error) {
	if r.over {
		return nil, ErrRaceOver
	}
	c, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%q: %w", id, ErrUnknownCompetitor)
	}
	return c, nil
}

func (r *Race) competitor(id string) *domain.Competitor {
	return r.byID[id]
}

func (r *Race) startTyre(id string, player domain.TireCompound) domain.TireCompound {
	if id == r.userID {
		if player == domain.TireCompoundUnknown || player == "" {
			return domain.TireCompoundMedium
		}
		return player
	}
	if r.env.Weather.IsRaining() {
		return domain.TireCompoundIntermediate
	}
	if chance(r.src, 0.5) {
		return domain.TireCompoundSoft
	}
	return domain.TireCompoundMedium
}

// checkFinish reports whether the race must end: nobody is racing any more, the stragglers ran out
// of time after the flag, or the flag never fell within the overall timeout.
func (r *Race) checkFinish() bool {
	running := 0
	for _, c := range r.competitors {
		if c.IsRunning() {
			running++
		}
	}
	switch {
	case running == 0:
		return true
	case r.chequered && r.time-r.chequeredAt >= r.timeout:
		r.logger.Warn("forced finish after the flag", "stragglers", running, "time", r.time)
		return true
	case !r.chequered && r.time >= overallTimeout*float64(r.totalLaps)*LapTime(r.circuit):
		r.logger.Warn("forced finish without a flag", "time", r.time)
		return true
	}
	return false
}

// sortOrder sorts the running order by effective distance.
func (r *Race) sortOrder() {
	length := r.circuit.Length()
	sort.SliceStable(r.order, func(i, j int) bool {
		return ahead(r.order[i], r.order[j], length)
	})
}

// ahead reports whether a runs ahead of b. Retired cars drop to the back; within the epsilon
// finished cars keep their rank order and otherwise the grid decides.
func ahead(a, b *domain.Competitor, length float64) bool {
	if a.IsRetired != b.IsRetired {
		return b.IsRetired
	}
	da, db := a.EffectiveDistance(length), b.EffectiveDistance(length)
	if math.Abs(da-db) > orderEpsilon {
		return da > db
	}
	switch {
	case a.HasFinished && b.HasFinished:
		return a.FinishRank < b.FinishRank
	case a.HasFinished != b.HasFinished:
		return a.HasFinished
	}
	return a.GridSlot < b.GridSlot
}

// leaderLap follows the leader's lap count, raising the flag and rolling the safety car dice when
// it changes.
func (r *Race) leaderLap() {
	lap := r.order[0].Lap
	if r.order[0].HasFinished {
		lap = r.order[0].LapsCompleted
	}
	if lap <= r.currentLap {
		return
	}
	r.currentLap = lap
	if lap >= r.totalLaps {
		r.raiseFlag()
		return
	}
	if r.scChance > 0 && !r.safetyCar.active && lap < r.totalLaps-safetyCarLastLaps && chance(r.src, r.scChance) {
		r.deploySafetyCar(between(r.src, safetyCarMinLaps, safetyCarMaxLaps) * LapTime(r.circuit) / SafetyCarPace)
	}
}

func (r *Race) raiseFlag() {
	if r.chequered {
		return
	}
	r.chequered = true
	r.chequeredAt = r.time
	r.safetyCar.active = false
	r.logger.Info("chequered flag", "time", r.time, "lap", r.currentLap)
}

func (r *Race) deploySafetyCar(seconds float64) {
	r.safetyCar.active = true
	r.safetyCar.remaining = seconds
	r.safetyCar.deployments++
	r.logger.Info("safety car deployed", "lap", r.currentLap, "seconds", seconds)
}

func (r *Race) tickSafetyCar(dt float64) {
	if !r.safetyCar.active {
		return
	}
	r.safetyCar.remaining -= dt
	if r.safetyCar.remaining <= 0 {
		r.safetyCar.active = false
		r.logger.Info("safety car in", "lap", r.currentLap)
	}
}

// gapAhead is the time to the nearest car ahead that is still racing on track.
func (r *Race) gapAhead(i int) float64 {
	c := r.order[i]
	for j := i - 1; j >= 0; j-- {
		a := r.order[j]
		if !a.IsRunning() || a.IsInPit {
			continue
		}
		return math.Max(0, (a.Distance-c.Distance)/r.baseSpeed)
	}
	return domain.NoGap
}

func (r *Race) completeLap(c *domain.Competitor, lap int) LapCompleted {
	lapTime := r.time - c.LapStartTime
	c.TyreAge += lap - c.Lap
	c.Lap = lap
	c.LapStartTime = r.time
	c.LastLapTime = lapTime
	if c.BestLapTime == 0 || lapTime < c.BestLapTime {
		c.BestLapTime = lapTime
	}
	if c.Lap > r.currentLap && c.Lap >= r.totalLaps {
		r.currentLap = c.Lap
		r.raiseFlag()
	}
	return LapCompleted{Competitor: *c, Lap: lap, LapTime: lapTime}
}

// markFinished pins the competitor to the line it crossed; the overshoot becomes cooldown.
func (r *Race) markFinished(c *domain.Competitor, length float64) {
	line := float64(c.Lap) * length
	c.HasFinished = true
	c.LapsCompleted = c.Lap
	c.FinishTime = r.time
	c.CooldownDistance = c.Distance - line
	c.Distance = line
	c.PitRequested = false
}

// rankFinishers hands out finish ranks to the competitors that took the flag during this tick:
// furthest first, then by the running order the tick started from.
func (r *Race) rankFinishers(fs []finisher, length float64) {
	sort.SliceStable(fs, func(i, j int) bool {
		di, dj := fs[i].c.EffectiveDistance(length), fs[j].c.EffectiveDistance(length)
		if math.Abs(di-dj) > orderEpsilon {
			return di > dj
		}
		return fs[i].index < fs[j].index
	})
	for _, f := range fs {
		f.c.FinishRank = r.nextRank
		r.nextRank++
		r.logger.Info("finished", "driver", f.c.ID, "rank", f.c.FinishRank, "laps", f.c.LapsCompleted, "time", f.c.FinishTime)
	}
}

// lapDecisions runs the strategy engine for opponents and sends a boxing car into the pit lane.
func (r *Race) lapDecisions(c *domain.Competitor) {
	if !c.IsUser {
		r.strategist.Decide(c, LapView{
			Now:           r.time,
			TotalLaps:     r.totalLaps,
			FieldSize:     len(r.competitors),
			Env:           r.env,
			SafetyCar:     r.safetyCar.active,
			SafetyCarSeen: r.safetyCar.deployments > 0,
		})
	}
	if c.PitRequested && !r.chequered && c.Lap < r.totalLaps {
		enterPit(c, r.circuit)
		r.logger.Info("pit entry", "driver", c.ID, "lap", c.Lap, "tyre", c.PendingTyre)
	}
}

func (r *Race) retire(c *domain.Competitor, reason string) {
	c.IsRetired = true
	c.IsInPit = false
	c.PitRequested = false
	c.LapsCompleted = c.Lap
	r.logger.Info("retirement", "driver", c.ID, "lap", c.Lap, "reason", reason)
}

func (r *Race) updatePositions() {
	leader := r.order[0]
	length := r.circuit.Length()
	for i, c := range r.order {
		c.Position = i + 1
		switch {
		case c.HasFinished && leader.HasFinished && c.LapsCompleted == leader.LapsCompleted:
			c.GapToLeader = c.FinishTime - leader.FinishTime
		default:
			c.GapToLeader = math.Max(0, (leader.EffectiveDistance(length)-c.EffectiveDistance(length))/r.baseSpeed)
		}
	}
}

func (r *Race) update() Update {
	return Update{
		RaceID:      r.id,
		Time:        r.time,
		CurrentLap:  r.currentLap,
		TotalLaps:   r.totalLaps,
		Competitors: r.Competitors(),
		Environment: r.env.Snapshot(),
		SafetyCar:   r.safetyCar.active,
		Chequered:   r.chequered,
	}
}

// finish closes the race and builds the classification: finishers by rank, then the cars still
// running and finally the retirements, each by distance covered.
func (r *Race) finish() RaceFinished {
	r.over = true
	r.safetyCar.active = false
	length := r.circuit.Length()

	cars := append([]*domain.Competitor(nil), r.competitors...)
	sort.SliceStable(cars, func(i, j int) bool {
		a, b := cars[i], cars[j]
		if a.HasFinished != b.HasFinished {
			return a.HasFinished
		}
		if a.HasFinished {
			return a.FinishRank < b.FinishRank
		}
		if a.IsRetired != b.IsRetired {
			return b.IsRetired
		}
		return a.EffectiveDistance(length) > b.EffectiveDistance(length)
	})

	winner := cars[0]
	winnerLaps := winner.Lap
	if winner.HasFinished {
		winnerLaps = winner.LapsCompleted
	}
	r.result = make([]Classified, len(cars))
	for i, c := range cars {
		cl := Classified{Position: i + 1, Competitor: *c, Status: StatusNotClassified}
		laps := c.Lap
		switch {
		case c.HasFinished:
			cl.Status = StatusFinished
			laps = c.LapsCompleted
		case c.IsRetired:
			cl.Status = StatusDidNotFinish
		}
		cl.LapsDown = max(0, winnerLaps-laps)
		if cl.Status == StatusFinished && cl.LapsDown == 0 {
			cl.Gap = c.FinishTime - winner.FinishTime
		}
		r.result[i] = cl
	}

	r.logger.Info("race finished", "id", r.id, "winner", winner.ID, "time", r.time)
	return RaceFinished{RaceID: r.id, Classification: r.Classification()}
}

func (r *Race) emit(events []Event) []Event {
	for _, e := range events {
		for _, o := range r.observers {
			o.Notify(e)
		}
	}
	return events
}

func gridOrder(roster []domain.Driver, grid []string) ([]domain.Driver, error) {
	if len(grid) == 0 {
		return roster, nil
	}
	byID := make(map[string]domain.Driver, len(roster))
	for _, d := range roster {
		byID[d.ID] = d
	}
	drivers := make([]domain.Driver, 0, len(roster))
	placed := make(map[string]bool, len(grid))
	for _, id := range grid {
		d, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("grid slot %q: %w", id, ErrUnknownCompetitor)
		}
		if placed[id] {
			continue
		}
		placed[id] = true
		drivers = append(drivers, d)
	}
	for _, d := range roster {
		if !placed[d.ID] {
			drivers = append(drivers, d)
		}
	}
	return drivers, nil
}

func containsDriver(drivers []domain.Driver, id string) bool {
	for _, d := range drivers {
		if d.ID == id {
			return true
		}
	}
	return false
}
