// Package ledger runs the forecast pass over a loaded ledger: it resolves the
// effective settings from the ledger's options, expands recurring templates,
// inserts auto-opened accounts and checks the result against closed accounts.
//
//	result, err := ledger.New(ledger.WithConfig(cfg)).Process(ctx, tree, ledger.Overrides{})
//	if err != nil {
//	    return err // invalid settings or cancelled
//	}
//	for _, err := range result.Errors() {
//	    fmt.Println(err)
//	}
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/robinvdvleuten/beancount-forecast/ast"
	"github.com/robinvdvleuten/beancount-forecast/autoaccounts"
	"github.com/robinvdvleuten/beancount-forecast/config"
	"github.com/robinvdvleuten/beancount-forecast/forecast"
	"github.com/robinvdvleuten/beancount-forecast/telemetry"
)

// Ledger holds the settings a forecast pass starts from. It is safe for
// concurrent use.
type Ledger struct {
	cfg config.Config
	log zerolog.Logger
	now func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithConfig sets the base settings, before ledger options and overrides.
func WithConfig(cfg *config.Config) Option {
	return func(l *Ledger) {
		l.cfg = *cfg
	}
}

// WithLogger sets the logger passed on to the expander.
func WithLogger(log zerolog.Logger) Option {
	return func(l *Ledger) {
		l.log = log
	}
}

// WithClock sets the clock relative horizons are resolved against.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// New creates a Ledger with the default settings.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		cfg: *config.Default(),
		log: zerolog.Nop(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Overrides are settings given for a single pass, such as command-line flags
// or query parameters. They win over the ledger's options. Empty fields leave
// the setting alone.
type Overrides struct {
	Horizon      string
	Flag         string
	Tag          string
	AutoAccounts bool
}

// ValidationErrors wraps multiple validation errors.
type ValidationErrors struct {
	Errors []error
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d validation errors occurred", len(e.Errors))
}

// Unwrap returns the underlying errors for errors.Is and errors.As.
func (e *ValidationErrors) Unwrap() []error {
	return e.Errors
}

// Result is the outcome of one forecast pass.
type Result struct {
	// Entries is the expanded ledger in date order.
	Entries ast.Directives
	// Derived lists the generated transactions, in Entries order.
	Derived []*ast.Transaction
	// Opened lists the accounts opened by the auto-accounts pass.
	Opened []*ast.Open
	// Diagnostics lists templates that could not be expanded.
	Diagnostics forecast.Diagnostics
	// Closed lists postings to accounts after their close date.
	Closed []error
	// Horizon is the resolved horizon, zero when none applied.
	Horizon time.Time
	// Config is the effective configuration of the pass.
	Config config.Config
}

// Errors returns diagnostics followed by closed-account errors.
func (r *Result) Errors() []error {
	return append(r.Diagnostics.Errors(), r.Closed...)
}

// Err returns the problems of the pass as a *ValidationErrors, or nil.
func (r *Result) Err() error {
	if errs := r.Errors(); len(errs) > 0 {
		return &ValidationErrors{Errors: errs}
	}
	return nil
}

// Process expands tree. Problems with individual templates or accounts are
// reported in the result; the returned error is for unusable settings and
// cancellation only. The tree is not modified.
func (l *Ledger) Process(ctx context.Context, tree *ast.AST, overrides Overrides) (*Result, error) {
	timer := telemetry.FromContext(ctx).Start(fmt.Sprintf("ledger.process (%d directives)", len(tree.Directives)))
	defer timer.End()

	cfg, err := l.resolve(tree, overrides)
	if err != nil {
		return nil, err
	}

	horizon, err := cfg.HorizonDate(l.now())
	if err != nil {
		return nil, err
	}

	expander := forecast.New(
		forecast.WithFlag(cfg.Flag),
		forecast.WithTag(cfg.Tag),
		forecast.WithConcurrency(cfg.Concurrency),
		forecast.WithLogger(l.log),
	)

	entries, diags, err := expander.Expand(ctx, tree.Directives, horizon)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Diagnostics: diags,
		Horizon:     horizon,
		Config:      *cfg,
	}

	if cfg.AutoAccounts {
		autoTimer := timer.Child("ledger.auto_accounts")
		entries, result.Opened = autoaccounts.Insert(entries)
		autoTimer.End()
	}

	original := make(map[ast.Directive]bool, len(tree.Directives))
	for _, d := range tree.Directives {
		original[d] = true
	}
	for _, d := range entries {
		if txn, ok := d.(*ast.Transaction); ok && !original[d] {
			result.Derived = append(result.Derived, txn)
		}
	}

	checkTimer := timer.Child("ledger.check_closed")
	result.Closed = autoaccounts.CheckClosed(entries)
	checkTimer.End()

	result.Entries = entries
	return result, nil
}

// resolve layers the ledger's options and the overrides on the base config.
func (l *Ledger) resolve(tree *ast.AST, overrides Overrides) (*config.Config, error) {
	cfg := l.cfg
	if err := cfg.ApplyOptions(tree); err != nil {
		return nil, err
	}

	if overrides.Horizon != "" {
		cfg.Horizon = overrides.Horizon
	}
	if overrides.Flag != "" {
		cfg.Flag = overrides.Flag
	}
	if overrides.Tag != "" {
		cfg.Tag = overrides.Tag
	}
	if overrides.AutoAccounts {
		cfg.AutoAccounts = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
