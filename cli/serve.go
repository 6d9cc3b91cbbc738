package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/beancount-forecast/ledger"
	"github.com/robinvdvleuten/beancount-forecast/web"
)

// ServeCmd serves the forecast of a ledger file over HTTP.
type ServeCmd struct {
	File  string `help:"Beancount input filename." arg:"" type:"existingfile"`
	Host  string `help:"Address to listen on." default:"127.0.0.1"`
	Port  int    `help:"Port to listen on (default from config, 8080)." short:"p" env:"BEANFORECAST_PORT"`
	Watch bool   `help:"Reload when the ledger or its includes change." default:"true" negatable:""`
}

func (cmd *ServeCmd) Run(kctx *kong.Context, globals *Globals) error {
	s, err := newSession(kctx, globals, fmt.Sprintf("serve %s", filepath.Base(cmd.File)))
	if err != nil {
		return err
	}
	defer s.close()

	port := cmd.Port
	if port == 0 {
		port = s.cfg.Port
	}

	ctx, stop := signal.NotifyContext(s.ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := web.New(cmd.File,
		web.WithAddress(cmd.Host, port),
		web.WithVersion(Version, CommitSHA),
		web.WithWatch(cmd.Watch),
		web.WithLedger(ledger.New(ledger.WithConfig(s.cfg), ledger.WithLogger(s.log))),
		web.WithLogger(s.log),
	)

	printInfof(s.stderr, "Serving %s on %s", pathStyle.Render(cmd.File), pathStyle.Render(fmt.Sprintf("http://%s:%d", cmd.Host, port)))

	if err := server.Start(ctx); err != nil && ctx.Err() != context.Canceled {
		return err
	}
	return nil
}
