package main

import (
	"fmt"
	"os"

	"github.com/zbeam/zbeam/internal/config"
	"github.com/zbeam/zbeam/internal/feedback"
	"github.com/zbeam/zbeam/internal/store"
	"github.com/zbeam/zbeam/internal/voice"
)

// Version is set via -ldflags at build time.
var Version = "dev"

const defaultConfigPath = "zbeam.yaml"

func main() {
	if isHelpOrVersion() {
		app := newCLIApp(nil)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	configPath := os.Getenv("ZBEAM_CONFIG")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	env, err := buildEnv(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer env.close()

	app := newCLIApp(env)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// isHelpOrVersion returns true if the user is requesting help or version
// info, which needs no configuration.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return true
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// buildEnv loads configuration and opens the data stores shared by every
// subcommand.
func buildEnv(configPath string) (*appEnv, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	st, err := store.Load(cfg.MaterialsPath)
	if err != nil {
		return nil, err
	}

	voices, err := voice.LoadDir(cfg.VoiceDir)
	if err != nil {
		return nil, err
	}

	db, err := feedback.Open(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	return &appEnv{
		cfg:      cfg,
		store:    st,
		voices:   voices,
		db:       db,
		attempts: feedback.NewLog(db),
		spots:    feedback.NewSweetSpots(db),
		out:      os.Stdout,
	}, nil
}
