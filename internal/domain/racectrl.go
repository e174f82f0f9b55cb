package domain

import (
	"fmt"
	"strings"
)

const (
	RadioMsgCategoryTrackStatus RadioMsgCategory = "TRACK_STATUS"
	RadioMsgCategoryWeather     RadioMsgCategory = "WEATHER"
	RadioMsgCategoryStrategy    RadioMsgCategory = "STRATEGY"
	RadioMsgCategoryCar         RadioMsgCategory = "CAR"
	RadioMsgCategoryOther       RadioMsgCategory = "OTHER"
)

const (
	RadioMsgTitleSC        = "SAFETY\nCAR"
	RadioMsgTitleFlagGreen = "GREEN\nFLAG"
	RadioMsgTitleChequered = "CHEQUERED\nFLAG"
	RadioMsgTitleWeather   = "WEATHER"
	RadioMsgTitlePit       = "PIT\nWALL"
	RadioMsgTitleTyres     = "TYRES"
	RadioMsgTitleERS       = "ERS"
	RadioMsgTitleDefault   = "RADIO"
)

const (
	VerbositySilent  Verbosity = "SILENT"
	VerbosityMinimal Verbosity = "MINIMAL"
	VerbosityVerbose Verbosity = "VERBOSE"
)

type RadioMsgCategory string

// RadioMsg is a human-readable advisory derived from race state. Urgent messages are delivered
// at MINIMAL verbosity, the rest only at VERBOSE.
type RadioMsg struct {
	Category RadioMsgCategory
	Title    string
	Body     string
	Urgent   bool
	Lap      int     // Lap is the leader lap at which the message was sent
	Time     float64 // Time is the race time at which the message was sent
}

// Verbosity governs how many radio messages reach the player.
type Verbosity string

// Allows reports whether a message passes the verbosity filter.
func (v Verbosity) Allows(msg RadioMsg) bool {
	switch v {
	case VerbositySilent:
		return false
	case VerbosityMinimal:
		return msg.Urgent
	}
	return true
}

// Next cycles SILENT -> MINIMAL -> VERBOSE -> SILENT.
func (v Verbosity) Next() Verbosity {
	switch v {
	case VerbositySilent:
		return VerbosityMinimal
	case VerbosityMinimal:
		return VerbosityVerbose
	}
	return VerbositySilent
}

// ParseVerbosity converts user input (case-insensitive) to a verbosity.
func ParseVerbosity(s string) (Verbosity, error) {
	switch v := Verbosity(strings.ToUpper(strings.TrimSpace(s))); v {
	case VerbositySilent, VerbosityMinimal, VerbosityVerbose:
		return v, nil
	}
	return VerbosityMinimal, fmt.Errorf("unknown radio verbosity %q", s)
}

const (
	DifficultyEasy Difficulty = "EASY"
	DifficultyHard Difficulty = "HARD"
)

// Difficulty tunes how sharp the opponents' strategy calls are.
type Difficulty string

// ParseDifficulty converts user input (case-insensitive) to a difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(strings.ToUpper(strings.TrimSpace(s))); d {
	case DifficultyEasy, DifficultyHard:
		return d, nil
	}
	return DifficultyHard, fmt.Errorf("unknown difficulty %q", s)
}
