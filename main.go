package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/GamePointAnalytics/f1-race-simulator/internal/config"
	"github.com/GamePointAnalytics/f1-race-simulator/internal/logger"
	"github.com/GamePointAnalytics/f1-race-simulator/internal/session"
	"github.com/GamePointAnalytics/f1-race-simulator/internal/sim"
	"github.com/GamePointAnalytics/f1-race-simulator/internal/tui"
	"github.com/GamePointAnalytics/f1-race-simulator/internal/tui/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/evertras/bubble-table/table"
)

// main runs a whole race without a clock or a terminal UI and prints the grid, the radio traffic
// and the classification.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	l, f, err := logger.New(cfg.LogFile, cfg.Debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer f.Close()

	st := styles.Default()
	radio := sim.ObserverFunc(func(e sim.Event) {
		if r, ok := e.(sim.Radio); ok {
			fmt.Printf("%s %s %s\n",
				st.Subtle.Render(fmt.Sprintf("L%-3d", r.Msg.Lap)),
				st.Bold.Render(fmt.Sprintf("%-14s", singleLine(r.Msg.Title))),
				r.Msg.Body,
			)
		}
	})
	s, err := session.New(cfg, l, sim.WithObserver(radio))
	if err != nil {
		l.Error("could not start race", "err", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Println(st.TitleBar.Render(fmt.Sprintf("%s · %d laps", s.Circuit.Name, s.Circuit.Laps)))
	fmt.Println(gridTable(s.Grid).View())

	step := cfg.Step()
	for !s.Race.IsRaceOver() {
		s.Race.Tick(step)
	}
	l.Info("race over", "race", s.Race.ID(), "elapsed", s.Race.Elapsed())

	fmt.Println(st.TitleBar.Render("Classification"))
	fmt.Println(tui.ClassificationTable(s.Race.Classification()).View())
}

func gridTable(grid []sim.GridSlot) table.Model {
	rows := make([]table.Row, 0, len(grid))
	for _, g := range grid {
		rows = append(rows, table.NewRow(table.RowData{
			"position": g.Position,
			"driver":   g.Driver.Name,
			"team":     g.TeamName,
			"time":     g.FormattedTime,
		}))
	}
	return table.New([]table.Column{
		table.NewColumn("position", "POS", 5),
		table.NewColumn("driver", "DRIVER", 22),
		table.NewColumn("team", "TEAM", 16),
		table.NewColumn("time", "TIME", 10),
	}).WithRows(rows).WithBaseStyle(lipgloss.NewStyle().Align(lipgloss.Left))
}

func singleLine(title string) string {
	return strings.ReplaceAll(title, "\n", " ")
}
