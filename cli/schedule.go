package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"

	"github.com/robinvdvleuten/beancount-forecast/output"
)

// ScheduleCmd lists the occurrences a forecast pass generates.
type ScheduleCmd struct {
	ForecastFlags

	File   FileOrStdin `help:"Beancount input filename (use '-' for stdin, or omit for stdin)." arg:"" optional:""`
	Format string      `help:"Output format (${enum})." enum:"table,json,yaml" default:"table" short:"f"`
}

func (cmd *ScheduleCmd) Run(kctx *kong.Context, globals *Globals) error {
	if err := cmd.File.EnsureContents(); err != nil {
		return err
	}

	s, err := newSession(kctx, globals, fmt.Sprintf("schedule %s", filepath.Base(cmd.File.Filename)))
	if err != nil {
		return err
	}
	defer s.close()

	r, err := s.forecast(&cmd.File, cmd.overrides())
	if err != nil {
		return err
	}
	s.warn(r)

	schedule := r.result.Schedule()

	switch cmd.Format {
	case "json":
		enc := json.NewEncoder(s.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(schedule)
	case "yaml":
		enc := yaml.NewEncoder(s.stdout)
		enc.SetIndent(2)
		if err := enc.Encode(schedule); err != nil {
			return err
		}
		return enc.Close()
	}

	if len(schedule) == 0 {
		printInfof(s.stdout, "No upcoming occurrences %s", horizonText(r))
		return nil
	}

	styles := output.NewStyles(s.stdout)
	rows := make([][]string, 0, len(schedule))
	for _, o := range schedule {
		rows = append(rows, []string{o.Date, o.Payee, o.Narration, o.Amounts(), o.Template})
	}
	_, _ = fmt.Fprintln(s.stdout, styles.Table([]string{"Date", "Payee", "Narration", "Postings", "Template"}, rows))
	printInfof(s.stdout, "%d occurrence(s) %s", len(schedule), horizonText(r))
	return nil
}
