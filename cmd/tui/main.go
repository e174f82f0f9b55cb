package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/GamePointAnalytics/f1-race-simulator/internal/config"
	"github.com/GamePointAnalytics/f1-race-simulator/internal/feed"
	"github.com/GamePointAnalytics/f1-race-simulator/internal/logger"
	"github.com/GamePointAnalytics/f1-race-simulator/internal/session"
	"github.com/GamePointAnalytics/f1-race-simulator/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"
)

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

	s, err := session.New(cfg, l)
	if err != nil {
		l.Error("could not start race", "err", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, cancelCtx := context.WithCancel(context.Background())
	defer cancelCtx()
	// the group context is also cancelled when any member fails
	g, ctx := errgroup.WithContext(ctx)
	// create the feed responsible for ticking the race
	raceFeed := feed.New(s.Race,
		feed.WithLogger(l),
		feed.WithInterval(cfg.Tick),
		feed.WithTimeScale(cfg.TimeScale),
	)
	// create TUI
	leaderboard := tui.NewLeaderboard(
		tui.WithContext(ctx),
		tui.WithLogger(l),
		tui.WithCommander(raceFeed),
		tui.WithPlayer(cfg.Driver),
		tui.WithCircuit(s.Circuit),
		tui.WithVerbosity(cfg.Radio),
	)

	g.Go(func() error {
		raceFeed.Listen(ctx)
		l.Debug("feed exited")
		return nil
	})
	g.Go(func() error {
		defer cancelCtx() // quitting the TUI stops the feed and the message pump
		defer l.Debug("tui exited")
		_, err := leaderboard.Run()
		return errQuit(err)
	})
	// pass messages between the feed and the TUI until the TUI exits
	g.Go(func() error {
		done := raceFeed.Done()
		for {
			select {
			case <-ctx.Done():
				return nil
			case u := <-raceFeed.Updates():
				leaderboard.Send(tui.UpdateMsg(u))
			case msg := <-raceFeed.Radio():
				leaderboard.Send(tui.RadioMsg(msg))
			case lap := <-raceFeed.Laps():
				leaderboard.Send(tui.LapMsg(lap))
			case results := <-raceFeed.Results():
				leaderboard.Send(tui.ResultsMsg(results))
			case <-done:
				l.Debug("feed done")
				leaderboard.Send(tui.DoneMsg{})
				// a closed channel is always ready; stop selecting on it
				done = nil
			}
		}
	})

	if err := g.Wait(); err != nil {
		l.Error("exited with error", "err", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// errQuit drops the error returned when the program was stopped through its context.
func errQuit(err error) error {
	if err == nil || errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
