package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/dreamcat4/bebob"
)

// initLogger builds a console logger at the configured level.
func initLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.WarnLevel
	}

	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}

	return zerolog.New(output).With().Timestamp().Str("app", "bebobctl").Logger().Level(lvl)
}

// session bundles one open device with its model tables.
type session struct {
	node  *bebob.FwNode
	fcp   *bebob.Fcp
	avc   *bebob.BebobAvc
	model *bebob.Model
}

// openSessionFn is what the subcommands call to get a session; tests swap in
// a fake.
var openSessionFn = openSession

// openSession opens the configured device and binds the FCP transport.
func openSession(cfg ctlConfig, log zerolog.Logger) (*session, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("no model configured, pass --model or set it in the config (known: %v)",
			bebob.ModelNames())
	}

	model, err := bebob.LookupModel(cfg.Model)
	if err != nil {
		return nil, err
	}

	node, err := bebob.OpenFwNode(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Device, err)
	}

	fcp, err := bebob.NewFcp(node)
	if err != nil {
		node.Close()
		return nil, err
	}

	avc := bebob.NewBebobAvc(fcp)
	avc.SetLogger(log)

	return &session{node: node, fcp: fcp, avc: avc, model: model}, nil
}

func (s *session) Close() {
	if s.fcp != nil {
		s.fcp.Close()
	}
	if s.node != nil {
		s.node.Close()
	}
}
