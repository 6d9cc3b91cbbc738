package cli

import (
	"context"
	"fmt"

	"github.com/alecthomas/kong"
	"github.com/alecthomas/repr"

	"github.com/robinvdvleuten/beancount-forecast/ast"
	"github.com/robinvdvleuten/beancount-forecast/forecast"
	"github.com/robinvdvleuten/beancount-forecast/parser"
)

// DoctorCmd provides doctor utilities for debugging ledgers.
type DoctorCmd struct {
	Lex   LexCmd   `cmd:"" help:"Show lexical tokens from a beancount file."`
	Rules RulesCmd `cmd:"" help:"Show the recurrence rule parsed from every transaction."`
}

// LexCmd shows lexical tokens from a beancount file.
type LexCmd struct {
	File FileOrStdin `help:"Beancount input filename (use '-' for stdin, or omit for stdin)." arg:"" optional:""`
}

// Run executes the lex command.
func (cmd *LexCmd) Run(ctx *kong.Context, globals *Globals) error {
	if err := cmd.File.EnsureContents(); err != nil {
		return err
	}

	content, err := cmd.File.SourceContent()
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	lexer := parser.NewLexer(content, cmd.File.Filename)
	for _, token := range lexer.ScanAll() {
		if token.Type == parser.EOF {
			continue
		}

		// TYPE line:col "content"
		_, _ = fmt.Fprintf(ctx.Stdout, "%-10s %d:%d    %q\n",
			token.Type.String(),
			token.Line,
			token.Column,
			token.String(content))
	}

	return nil
}

// RulesCmd dumps the recurrence rule of every transaction that carries one,
// and the parse error of those that carry a broken one.
type RulesCmd struct {
	File FileOrStdin `help:"Beancount input filename (use '-' for stdin, or omit for stdin)." arg:"" optional:""`
}

// Run executes the rules command.
func (cmd *RulesCmd) Run(ctx *kong.Context, globals *Globals) error {
	if err := cmd.File.EnsureContents(); err != nil {
		return err
	}

	content, err := cmd.File.SourceContent()
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	tree, err := parser.ParseBytesWithFilename(context.Background(), cmd.File.Filename, content)
	if err != nil {
		return err
	}

	for _, d := range tree.Directives {
		txn, ok := d.(*ast.Transaction)
		if !ok {
			continue
		}

		rule, err := forecast.ParseRule(txn.Narration, txn.Metadata)
		switch {
		case err != nil:
			_, _ = fmt.Fprintf(ctx.Stdout, "%d:%d %s\n  %s\n", txn.Pos.Line, txn.Pos.Column, txn.Date, errorStyle.Render(err.Error()))
		case rule != nil:
			_, _ = fmt.Fprintf(ctx.Stdout, "%d:%d %s %s\n  %s\n", txn.Pos.Line, txn.Pos.Column, txn.Date, rule, repr.String(rule, repr.OmitEmpty(true)))
		}
	}

	return nil
}
