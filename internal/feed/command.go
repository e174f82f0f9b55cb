package feed

import "github.com/GamePointAnalytics/f1-race-simulator/internal/domain"

const (
	CommandSetMode      CommandKind = "SET_MODE"
	CommandBox          CommandKind = "BOX"
	CommandCancelBox    CommandKind = "CANCEL_BOX"
	CommandChooseTyre   CommandKind = "CHOOSE_TYRE"
	CommandSetVerbosity CommandKind = "SET_VERBOSITY"
)

// CommandKind names a player input.
type CommandKind string

// Command is a player input applied to the race between two ticks.
type Command struct {
	Kind      CommandKind
	DriverID  string
	Mode      domain.DrivingMode
	Tyre      domain.TireCompound
	Verbosity domain.Verbosity
}

func SetMode(id string, mode domain.DrivingMode) Command {
	return Command{Kind: CommandSetMode, DriverID: id, Mode: mode}
}

// Box calls the driver in at the end of the lap for the given compound.
func Box(id string, tyre domain.TireCompound) Command {
	return Command{Kind: CommandBox, DriverID: id, Tyre: tyre}
}

func CancelBox(id string) Command {
	return Command{Kind: CommandCancelBox, DriverID: id}
}

// ChooseTyre sets the compound for the next stop without calling the driver in.
func ChooseTyre(id string, tyre domain.TireCompound) Command {
	return Command{Kind: CommandChooseTyre, DriverID: id, Tyre: tyre}
}

func SetVerbosity(v domain.Verbosity) Command {
	return Command{Kind: CommandSetVerbosity, Verbosity: v}
}
