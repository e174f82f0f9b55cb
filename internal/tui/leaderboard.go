package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/GamePointAnalytics/f1-race-simulator/internal/domain"
	"github.com/GamePointAnalytics/f1-race-simulator/internal/feed"
	"github.com/GamePointAnalytics/f1-race-simulator/internal/sim"
	"github.com/GamePointAnalytics/f1-race-simulator/internal/tui/styles"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/evertras/bubble-table/table"
)

var (
	s = styles.Default()
)

const defaultWidth = 110

// pitTyreKeys maps the number keys to the compound fitted at the next stop.
var pitTyreKeys = map[string]domain.TireCompound{
	"1": domain.TireCompoundSoft,
	"2": domain.TireCompoundMedium,
	"3": domain.TireCompoundHard,
	"4": domain.TireCompoundIntermediate,
	"5": domain.TireCompoundFullWet,
}

// Commander receives the player inputs; the feed implements it.
type Commander interface {
	Send(cmd feed.Command)
}

func NewLeaderboard(opts ...TUIOption) *tea.Program {
	l := newModel(opts...)
	// return new Bubbletea program
	return tea.NewProgram(l, tea.WithContext(l.ctx), tea.WithAltScreen())
}

func newModel(opts ...TUIOption) Leaderboard {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	l := Leaderboard{
		logger:    slog.Default(),
		ctx:       context.Background(),
		spinner:   sp,
		loading:   true,
		width:     defaultWidth,
		pitTyre:   domain.TireCompoundMedium,
		verbosity: domain.VerbosityMinimal,
		table:     newTable(),
	}
	// apply given options
	for _, opt := range opts {
		opt(&l)
	}
	return l
}

type TUIOption = func(c *Leaderboard)

// WithLogger configures the logger to use within the TUI program
func WithLogger(l *slog.Logger) TUIOption {
	return func(b *Leaderboard) { b.logger = l }
}

// WithContext configures the context to use within the TUI program
func WithContext(ctx context.Context) TUIOption {
	return func(b *Leaderboard) { b.ctx = ctx }
}

// WithCommander configures where the player inputs are sent; without one the TUI is read-only.
func WithCommander(c Commander) TUIOption {
	return func(b *Leaderboard) { b.commander = c }
}

// WithPlayer configures the driver id controlled from the keyboard.
func WithPlayer(id string) TUIOption {
	return func(b *Leaderboard) { b.player = id }
}

// WithCircuit configures the circuit shown in the title bar.
func WithCircuit(c domain.Circuit) TUIOption {
	return func(b *Leaderboard) { b.circuit = c }
}

// WithVerbosity configures the radio verbosity the race starts with.
func WithVerbosity(v domain.Verbosity) TUIOption {
	return func(b *Leaderboard) { b.verbosity = v }
}

/* Bubbletea Interface Implementation
------------------------------------------------------------------------------------------------- */

func (l Leaderboard) Init() tea.Cmd {
	return l.spinner.Tick
}

func (l Leaderboard) View() string {
	var v string
	switch {
	case l.err != "":
		v = s.Red.Render(l.err)
	case l.loading:
		v = fmt.Sprintf("%s Lights out at %s...", l.spinner.View(), l.circuit.Name)
	default:
		padding := lipgloss.PlaceHorizontal(
			l.width-4,
			lipgloss.Center,
			"",
			lipgloss.WithWhitespaceChars("."),
			lipgloss.WithWhitespaceForeground(s.Color.Subtle),
		)
		v = lipgloss.JoinVertical(
			lipgloss.Top,
			titleView(l),
			subtitleView(l),
			msgView(l, padding),
			tableView(l, padding),
			helpView(l),
		)
	}
	return s.Doc.Render(v)
}

func (l Leaderboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return handleKeyMsg(l, msg)
	case tea.WindowSizeMsg:
		return handleWindowSizeMsg(l, msg)
	case UpdateMsg:
		return handleUpdateMsg(l, msg)
	case RadioMsg:
		return handleRadioMsg(l, msg)
	case LapMsg:
		return handleLapMsg(l, msg)
	case ResultsMsg:
		return handleResultsMsg(l, msg)
	case DoneMsg:
		return handleDoneMsg(l, msg)
	default:
		var cmd tea.Cmd
		if l.loading {
			l.spinner, cmd = l.spinner.Update(msg)
		}
		return l, cmd
	}
}

/* Tea Mesage Types
------------------------------------------------------------------------------------------------- */

type UpdateMsg sim.Update
type RadioMsg domain.RadioMsg
type LapMsg sim.LapCompleted
type ResultsMsg []sim.Classified

// DoneMsg is sent once the feed has stopped; Err is set when it stopped abnormally.
type DoneMsg struct {
	Err error
}

/* Tea Mesage handlers
------------------------------------------------------------------------------------------------- */

func handleKeyMsg(m Leaderboard, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q", "ctrl+c":
		m.logger.Debug("received quit tea message")
		return m, tea.Quit
	case "p":
		m.send(feed.SetMode(m.player, domain.DrivingModePush))
	case "b":
		m.send(feed.SetMode(m.player, domain.DrivingModeBalanced))
	case "c":
		m.send(feed.SetMode(m.player, domain.DrivingModeConserve))
	case "x":
		if p, ok := m.playerCar(); ok && p.PitRequested {
			m.send(feed.CancelBox(m.player))
		} else {
			m.send(feed.Box(m.player, m.pitTyre))
		}
	case "v":
		m.verbosity = m.verbosity.Next()
		m.send(feed.SetVerbosity(m.verbosity))
	}
	if tyre, ok := pitTyreKeys[key]; ok {
		m.pitTyre = tyre
		m.send(feed.ChooseTyre(m.player, tyre))
	}
	return m, nil
}

func handleWindowSizeMsg(m Leaderboard, msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	h, _ := s.Doc.GetFrameSize()
	m.width = msg.Width - h
	return m, nil
}

func handleUpdateMsg(m Leaderboard, msg UpdateMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	m.race = sim.Update(msg)
	if len(m.results) == 0 {
		m.table = newTable().WithRows(leaderboardRows(m))
	}
	return m, nil
}

func handleRadioMsg(m Leaderboard, msg RadioMsg) (tea.Model, tea.Cmd) {
	m.radio = domain.RadioMsg(msg)
	m.logger.Debug("radio", "title", msg.Title, "body", msg.Body)
	return m, nil
}

func handleLapMsg(m Leaderboard, msg LapMsg) (tea.Model, tea.Cmd) {
	if msg.LapTime > 0 && (m.fastestLap == 0 || msg.LapTime < m.fastestLap) {
		m.fastestLap = msg.LapTime
		m.fastestLapOwner = msg.Competitor.ID
	}
	return m, nil
}

func handleResultsMsg(m Leaderboard, msg ResultsMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	m.results = msg
	m.table = ClassificationTable(msg)
	return m, nil
}

func handleDoneMsg(m Leaderboard, msg DoneMsg) (tea.Model, tea.Cmd) {
	m.done = true
	if msg.Err != nil {
		m.err = msg.Err.Error()
	}
	return m, nil
}

/* Classification
------------------------------------------------------------------------------------------------- */

// ClassificationTable renders the final classification as a table.
func ClassificationTable(results []sim.Classified) table.Model {
	rows := make([]table.Row, 0, len(results))
	for _, r := range results {
		c := r.Competitor
		rows = append(rows, table.NewRow(table.RowData{
			"position": r.Position,
			"driver":   driverName(c),
			"team":     c.TeamName,
			"laps":     c.LapsCompleted,
			"time":     resultTime(r),
			"stops":    c.Stops,
			"best":     sim.FormatLapTime(c.BestLapTime),
			"status":   string(r.Status),
		}))
	}
	return table.New([]table.Column{
		table.NewColumn("position", "POS", 5),
		table.NewColumn("driver", "DRIVER", 8),
		table.NewColumn("team", "TEAM", 16),
		table.NewColumn("laps", "LAPS", 6),
		table.NewColumn("time", "TIME/GAP", 14),
		table.NewColumn("stops", "STOPS", 7),
		table.NewColumn("best", "BEST", 10),
		table.NewColumn("status", "STATUS", 10),
	}).WithRows(rows).WithBaseStyle(lipgloss.NewStyle().Align(lipgloss.Left))
}

func resultTime(r sim.Classified) string {
	switch {
	case r.Status == sim.StatusDidNotFinish:
		return "DNF"
	case r.Position == 1:
		return sim.FormatLapTime(r.Competitor.FinishTime)
	case r.LapsDown == 1:
		return "+1 LAP"
	case r.LapsDown > 1:
		return fmt.Sprintf("+%d LAPS", r.LapsDown)
	}
	return fmt.Sprintf("+%.3fs", r.Gap)
}

/* Private Helper Functions
------------------------------------------------------------------------------------------------- */

func (m Leaderboard) send(cmd feed.Command) {
	if m.commander == nil || (m.player == "" && cmd.Kind != feed.CommandSetVerbosity) {
		return
	}
	m.commander.Send(cmd)
}

func (m Leaderboard) playerCar() (domain.Competitor, bool) {
	for _, c := range m.race.Competitors {
		if c.ID == m.player {
			return c, true
		}
	}
	return domain.Competitor{}, false
}

func newTable() table.Model {
	return table.New([]table.Column{
		table.NewColumn("position", "POS", 5),
		table.NewColumn("driver", "DRIVER", 10),
		table.NewColumn("leader", "GAP", 9),
		table.NewColumn("interval", "INT", 8),
		table.NewColumn("tyre", "TYRE", 7),
		table.NewColumn("age", "AGE", 5),
		table.NewColumn("wear", "WEAR", 6),
		table.NewColumn("ers", "ERS", 6),
		table.NewColumn("mode", "MODE", 10),
		table.NewColumn("status", "", 5),
	}).WithBaseStyle(lipgloss.NewStyle().Align(lipgloss.Left))
}

func leaderboardRows(m Leaderboard) []table.Row {
	rows := make([]table.Row, 0, len(m.race.Competitors))
	for _, c := range m.race.Competitors {
		name := driverName(c)
		if c.ID == m.fastestLapOwner {
			name = fmt.Sprintf("%s %s", name, s.Purple.Render("⏱"))
		}
		rows = append(rows, table.NewRow(table.RowData{
			"position": c.Position,
			"driver":   name,
			"leader":   leaderGap(c, m.race),
			"interval": interval(c),
			"tyre":     table.NewStyledCell(tyreLabel(c.Tyre), s.Tire(c.Tyre)),
			"age":      c.TyreAge,
			"wear":     table.NewStyledCell(percent(c.TyreHealth*100), s.Health(c.TyreHealth)),
			"ers":      table.NewStyledCell(percent(c.Battery), s.Health(c.Battery/100)),
			"mode":     string(c.Mode),
			"status":   status(c),
		}))
	}
	return rows
}

func driverName(c domain.Competitor) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(c.TeamColor)).PaddingLeft(1)
	if c.IsUser {
		style = style.Bold(true).Underline(true)
	}
	return style.Render(strings.ToUpper(c.ID))
}

func leaderGap(c domain.Competitor, u sim.Update) string {
	switch {
	case c.IsRetired:
		return "DNF"
	case c.Position == 1:
		return "LEADER"
	}
	if len(u.Competitors) > 0 {
		if down := u.Competitors[0].Lap - c.Lap; down > 0 && !u.Competitors[0].HasFinished {
			return fmt.Sprintf("+%d L", down)
		}
	}
	return fmt.Sprintf("+%.1f", c.GapToLeader)
}

func interval(c domain.Competitor) string {
	if c.IsRetired || c.GapToAhead >= domain.NoGap {
		return "-"
	}
	return fmt.Sprintf("+%.1f", c.GapToAhead)
}

func status(c domain.Competitor) string {
	switch {
	case c.IsRetired:
		return s.Red.Render("DNF")
	case c.HasFinished:
		return "FIN"
	case c.IsInPit:
		return s.Yellow.Render("PIT")
	case c.PitRequested:
		return s.Yellow.Render("BOX")
	}
	return ""
}

func tyreLabel(t domain.TireCompound) string {
	if t == domain.TireCompoundIntermediate {
		return "INTER"
	}
	return string(t)
}

func percent(v float64) string {
	return fmt.Sprintf("%3.0f%%", v)
}

/* View Helper Functions
------------------------------------------------------------------------------------------------- */

func titleView(m Leaderboard) string {
	return s.TitleBar.Width(m.width - 4).Render(m.circuit.Name)
}

func subtitleView(m Leaderboard) string {
	return s.SubtitleBar.Width(m.width - 4).Render(fmt.Sprintf(
		"Lap %d / %d   %s   Track %.0f°C   Wet %.0f%%",
		displayLap(m.race),
		m.race.TotalLaps,
		weatherText(m.race.Environment.Weather),
		m.race.Environment.TrackTemp,
		m.race.Environment.Moisture*100,
	))
}

// displayLap is the lap being run by the leader, which is one more than the laps completed.
func displayLap(u sim.Update) int {
	if u.Chequered || u.CurrentLap >= u.TotalLaps {
		return u.TotalLaps
	}
	return u.CurrentLap + 1
}

func weatherText(w domain.Weather) string {
	if w.IsRaining() {
		return fmt.Sprintf("Rain %.0f%%", w.Intensity*100)
	}
	return "Dry"
}

func msgView(m Leaderboard, p string) string {
	box := s.DialogBox
	msg := "🟩 Green Flag 🟩"
	box = box.BorderForeground(s.Color.Green)
	switch {
	case len(m.results) > 0:
		msg = "🏁 Classification 🏁"
		box = s.DialogBox.Border(lipgloss.BlockBorder())
	case m.race.Chequered:
		msg = "🏁 Chequered Flag 🏁"
		box = s.DialogBox.Border(lipgloss.BlockBorder())
	case m.race.SafetyCar:
		msg = "🟨 Safety Car 🟨"
		box = s.DialogBox.BorderForeground(s.Color.Yellow)
	}

	msgBox := lipgloss.PlaceHorizontal(
		m.width-4,
		lipgloss.Center,
		box.Width(m.width-10).Render(msg),
		lipgloss.WithWhitespaceChars(".."),
		lipgloss.WithWhitespaceForeground(s.Color.Subtle),
	)
	if m.radio.Body == "" {
		return lipgloss.JoinVertical(lipgloss.Top, p, msgBox, p)
	}
	toast := lipgloss.PlaceHorizontal(
		m.width-4,
		lipgloss.Center,
		lipgloss.JoinHorizontal(
			lipgloss.Center,
			s.ToastMsgTitle.Render(m.radio.Title),
			s.ToastMsgBody.Render(m.radio.Body),
		),
	)
	return lipgloss.JoinVertical(lipgloss.Top, p, msgBox, p, toast, p)
}

func tableView(m Leaderboard, p string) string {
	t := lipgloss.PlaceHorizontal(
		m.width-4,
		lipgloss.Center,
		m.table.View(),
		lipgloss.WithWhitespaceChars("."),
		lipgloss.WithWhitespaceForeground(s.Color.Subtle),
	)
	return lipgloss.JoinVertical(lipgloss.Top, t, p)
}

func helpView(m Leaderboard) string {
	if m.done || len(m.results) > 0 {
		return s.Help.Render("q quit")
	}
	if m.player == "" {
		return s.Help.Render(fmt.Sprintf("v radio (%s) · q quit", m.verbosity))
	}
	return s.Help.Render(fmt.Sprintf(
		"p push · b balanced · c conserve · x box/cancel · 1-5 tyre (%s) · v radio (%s) · q quit",
		tyreLabel(m.pitTyre),
		m.verbosity,
	))
}

/* Type Definitions
------------------------------------------------------------------------------------------------- */

type Leaderboard struct {
	logger    *slog.Logger
	ctx       context.Context
	commander Commander
	player    string
	circuit   domain.Circuit
	// view state
	spinner spinner.Model
	loading bool
	done    bool
	err     string
	width   int
	table   table.Model
	// race state
	race            sim.Update
	radio           domain.RadioMsg
	results         []sim.Classified
	fastestLap      float64
	fastestLapOwner string
	// player inputs
	pitTyre   domain.TireCompound
	verbosity domain.Verbosity
}
