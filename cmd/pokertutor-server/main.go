package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/pokertutor/pokertutor/internal/server"
)

var CLI struct {
	Config     string `short:"c" long:"config" default:"pokertutor.hcl" help:"Path to HCL configuration file"`
	Addr       string `short:"a" long:"addr" help:"Server address to bind to (overrides config)"`
	Port       int    `short:"p" long:"port" help:"Server port (overrides config)"`
	LogLevel   string `short:"l" long:"log-level" help:"Log level (overrides config)"`
	Bots       int    `short:"b" long:"bots" help:"Number of calling-station bots (overrides config)"`
	SmallBlind int    `long:"small-blind" help:"Small blind (overrides config)"`
	BigBlind   int    `long:"big-blind" help:"Big blind (overrides config)"`
	Stack      int    `long:"stack" help:"Starting stack (overrides config)"`
	Seed       int64  `long:"seed" help:"Deterministic shuffle seed (0 = random)"`
}

func main() {
	ctx := kong.Parse(&CLI)

	cfg, err := server.LoadConfig(CLI.Config)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		ctx.Exit(1)
	}

	// Apply command line overrides
	if CLI.Addr != "" {
		cfg.Server.Address = CLI.Addr
	}
	if CLI.Port != 0 {
		cfg.Server.Port = CLI.Port
	}
	if CLI.LogLevel != "" {
		cfg.Server.LogLevel = CLI.LogLevel
	}
	if CLI.SmallBlind != 0 {
		cfg.Game.SmallBlind = CLI.SmallBlind
	}
	if CLI.BigBlind != 0 {
		cfg.Game.BigBlind = CLI.BigBlind
	}
	if CLI.Stack != 0 {
		cfg.Game.StartingStack = CLI.Stack
	}
	if CLI.Bots > 0 {
		cfg.Bots = nil
		for i := 0; i < CLI.Bots; i++ {
			cfg.Bots = append(cfg.Bots, server.BotConfig{
				Name:     fmt.Sprintf("bot%d", i+1),
				Strategy: "call",
				Stack:    cfg.Game.StartingStack,
			})
		}
	}

	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		ctx.Exit(1)
	}

	logger := log.New(os.Stderr)
	switch cfg.Server.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "info":
		logger.SetLevel(log.InfoLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	tutorEnabled := cfg.Tutor != nil && cfg.Tutor.APIKey != ""
	logger.Info("Starting poker tutor server",
		"addr", cfg.Address(),
		"stakes", fmt.Sprintf("%d/%d", cfg.Game.SmallBlind, cfg.Game.BigBlind),
		"bots", len(cfg.Bots),
		"tutor", tutorEnabled)

	srv := server.NewServer(cfg, logger, CLI.Seed, quartz.NewReal())

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		logger.Info("Shutting down server...")
		_ = srv.Stop()
		os.Exit(0)
	}()

	if err := srv.Start(); err != nil {
		logger.Error("Server failed", "error", err)
		ctx.Exit(1)
	}
}
