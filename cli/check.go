package cli

import (
	"fmt"
	"path/filepath"

	"github.com/alecthomas/kong"
)

// CheckCmd reports templates that cannot be expanded and occurrences that
// post to closed accounts.
type CheckCmd struct {
	ForecastFlags

	File FileOrStdin `help:"Beancount input filename (use '-' for stdin, or omit for stdin)." arg:"" optional:""`
}

func (cmd *CheckCmd) Run(kctx *kong.Context, globals *Globals) error {
	if err := cmd.File.EnsureContents(); err != nil {
		return err
	}

	s, err := newSession(kctx, globals, fmt.Sprintf("check %s", filepath.Base(cmd.File.Filename)))
	if err != nil {
		return err
	}
	defer s.close()

	r, err := s.forecast(&cmd.File, cmd.overrides())
	if err != nil {
		return err
	}

	if errs := r.result.Errors(); len(errs) > 0 {
		renderer := NewErrorRenderer(r.root, r.source)
		_, _ = fmt.Fprintln(s.stderr, renderer.RenderAll(errs))
		_, _ = fmt.Fprintln(s.stderr)
		printError(s.stderr, fmt.Sprintf("%d problem(s) found", len(errs)))
		return NewCommandError(ExitProblems)
	}

	printSuccess(s.stdout, fmt.Sprintf("Check passed, %d occurrence(s) %s", len(r.result.Derived), horizonText(r)))
	return nil
}

func horizonText(r *run) string {
	if r.result.Horizon.IsZero() {
		return "without a horizon"
	}
	return "until " + r.result.Horizon.Format("2006-01-02")
}
