package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/pokertutor/pokertutor/internal/tui"
)

var CLI struct {
	Server   string `short:"s" long:"server" default:"ws://localhost:8080/ws" help:"Server WebSocket URL"`
	Player   string `short:"p" long:"player" help:"Player name"`
	LogLevel string `short:"l" long:"log-level" default:"info" help:"Log level"`
	LogFile  string `long:"log-file" default:"pokertutor.log" help:"Log file path (TUI owns the terminal)"`
}

func main() {
	ctx := kong.Parse(&CLI)

	playerName := CLI.Player
	if playerName == "" {
		fmt.Print("Enter your player name: ")
		var input string
		_, _ = fmt.Scanln(&input)
		playerName = strings.TrimSpace(input)
		if playerName == "" {
			fmt.Println("Player name is required")
			ctx.Exit(1)
		}
	}

	// Log to a file: the TUI owns stdout/stderr.
	logFile, err := os.OpenFile(CLI.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		fmt.Printf("Failed to open log file: %v\n", err)
		ctx.Exit(1)
	}
	defer func() { _ = logFile.Close() }()

	logger := log.New(logFile)
	switch CLI.LogLevel {
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

	logger.Info("Starting poker tutor client",
		"server", CLI.Server,
		"player", playerName)

	// Styles render through the real terminal's color profile even though
	// logging is redirected to a file.
	lipgloss.SetColorProfile(termenv.ColorProfile())

	dialCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := tui.Dial(dialCtx, CLI.Server, logger)
	if err != nil {
		fmt.Printf("Failed to connect to server: %v\n", err)
		ctx.Exit(1)
	}
	defer func() { _ = client.Close() }()

	model := tui.NewModel(client, playerName, logger)
	program := tea.NewProgram(model, tea.WithAltScreen())

	go client.Listen(program.Send)

	if _, err := program.Run(); err != nil {
		fmt.Printf("Error running TUI: %v\n", err)
		ctx.Exit(1)
	}
}
