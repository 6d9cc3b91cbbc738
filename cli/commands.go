package cli

import "github.com/alecthomas/kong"

var (
	Version   = ""
	CommitSHA = ""
)

// Globals defines global flags available to all commands.
type Globals struct {
	Telemetry bool   `help:"Show timing telemetry for operations."`
	LogLevel  string `help:"Log level (trace, debug, info, warn, error, disabled; default warn)." env:"BEANFORECAST_LOG_LEVEL"`
	Config    string `help:"Path to a YAML config file (default: ${config_file} when present)." env:"BEANFORECAST_CONFIG" type:"path"`
}

// Commands is the root of the command tree.
type Commands struct {
	Globals

	Version kong.VersionFlag `help:"Print version information and quit."`

	Forecast ForecastCmd `cmd:"" help:"Print the ledger with recurring transactions expanded."`
	Check    CheckCmd    `cmd:"" help:"Parse the ledger and report forecast directives that cannot be expanded."`
	Schedule ScheduleCmd `cmd:"" help:"List the upcoming occurrences of recurring transactions."`
	Serve    ServeCmd    `cmd:"" help:"Serve the forecast over HTTP."`
	Doctor   DoctorCmd   `cmd:"" help:"Doctor utilities for debugging ledgers."`
}
