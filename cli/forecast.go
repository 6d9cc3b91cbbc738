package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/beancount-forecast/ast"
	"github.com/robinvdvleuten/beancount-forecast/formatter"
	"github.com/robinvdvleuten/beancount-forecast/ledger"
	"github.com/robinvdvleuten/beancount-forecast/parser"
)

// ForecastFlags are the settings shared by the commands that run a forecast
// pass. They win over the config file and the ledger's options.
type ForecastFlags struct {
	Horizon      string `help:"Last date to generate occurrences for, as YYYY-MM-DD or a period such as 90d, 8w, 12m or 2y." short:"H" env:"BEANFORECAST_HORIZON"`
	Flag         string `help:"Flag of generated transactions." env:"BEANFORECAST_FLAG"`
	Tag          string `help:"Tag added to generated transactions." env:"BEANFORECAST_TAG"`
	AutoAccounts bool   `help:"Open accounts that are used but never opened." env:"BEANFORECAST_AUTO_ACCOUNTS"`
}

func (f ForecastFlags) overrides() ledger.Overrides {
	return ledger.Overrides{
		Horizon:      f.Horizon,
		Flag:         f.Flag,
		Tag:          f.Tag,
		AutoAccounts: f.AutoAccounts,
	}
}

// ForecastCmd prints the ledger with its recurring transactions expanded.
type ForecastCmd struct {
	ForecastFlags

	File           FileOrStdin `help:"Beancount input filename (use '-' for stdin, or omit for stdin)." arg:"" optional:""`
	CurrencyColumn int         `help:"Column to align currencies at (0 aligns automatically)." short:"c" default:"0"`
	Write          bool        `help:"Write the generated transactions of the root file back into it." short:"w"`
	Yes            bool        `help:"Write without asking for confirmation." short:"y"`
}

func (cmd *ForecastCmd) Run(kctx *kong.Context, globals *Globals) error {
	if err := cmd.File.EnsureContents(); err != nil {
		return err
	}
	if cmd.Write && cmd.File.IsStdin() {
		return fmt.Errorf("--write needs a ledger file, not stdin")
	}

	s, err := newSession(kctx, globals, fmt.Sprintf("forecast %s", filepath.Base(cmd.File.Filename)))
	if err != nil {
		return err
	}
	defer s.close()

	r, err := s.forecast(&cmd.File, cmd.overrides())
	if err != nil {
		return err
	}
	s.warn(r)

	f := formatter.New(formatter.WithCurrencyColumn(cmd.CurrencyColumn))

	if cmd.Write {
		return cmd.write(s, r, f)
	}

	var buf bytes.Buffer
	if len(r.loaded.Includes) == 0 {
		tree := *r.loaded.AST
		tree.Directives = r.result.Entries
		if err := f.Format(s.ctx, &tree, r.source, &buf); err != nil {
			return fmt.Errorf("failed to format ledger: %w", err)
		}
	} else {
		// Entries span several files, so there is no single source layout
		// to preserve.
		if err := f.FormatHeader(r.loaded.AST, &buf); err != nil {
			return fmt.Errorf("failed to format ledger: %w", err)
		}
		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		if err := f.FormatDirectives(s.ctx, r.result.Entries, &buf); err != nil {
			return fmt.Errorf("failed to format ledger: %w", err)
		}
	}

	_, err = kctx.Stdout.Write(buf.Bytes())
	return err
}

// write rewrites the root file with the occurrences of its own templates.
// Included files and auto-opened accounts are left alone.
func (cmd *ForecastCmd) write(s *session, r *run, f *formatter.Formatter) error {
	var derived ast.Directives
	for _, txn := range r.result.Derived {
		if txn.Pos.Filename == r.root {
			derived = append(derived, txn)
		}
	}

	if len(derived) == 0 {
		printSuccess(s.stdout, "Ledger is up to date")
		return nil
	}

	tree, err := parser.ParseBytesWithFilename(s.ctx, r.root, r.source)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", r.root, err)
	}
	tree.Directives = append(tree.Directives, derived...)
	if err := ast.SortDirectives(tree); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := f.Format(s.ctx, tree, r.source, &buf); err != nil {
		return fmt.Errorf("failed to format ledger: %w", err)
	}

	if !cmd.Yes {
		ok, err := confirm(fmt.Sprintf("Write %d generated transaction(s) to %s?", len(derived), filepath.Base(r.root)))
		if err != nil {
			return err
		}
		if !ok {
			printInfof(s.stdout, "Nothing written")
			return nil
		}
	}

	info, err := os.Stat(r.root)
	if err != nil {
		return err
	}
	if err := os.WriteFile(r.root, buf.Bytes(), info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to write %s: %w", r.root, err)
	}

	printSuccess(s.stdout, fmt.Sprintf("Wrote %d generated transaction(s) to %s", len(derived), pathStyle.Render(r.root)))
	return nil
}
