package server

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config represents the complete server configuration
type Config struct {
	Server ServerSettings `hcl:"server,block"`
	Game   GameSettings   `hcl:"game,block"`
	Bots   []BotConfig    `hcl:"bot,block"`
	Tutor  *TutorSettings `hcl:"tutor,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// GameSettings defines the table stakes and stacks
type GameSettings struct {
	SmallBlind    int `hcl:"small_blind,optional"`
	BigBlind      int `hcl:"big_blind,optional"`
	StartingStack int `hcl:"starting_stack,optional"`
	BotThinkMS    int `hcl:"bot_think_ms,optional"`
}

// BotConfig defines one bot seat
type BotConfig struct {
	Name     string `hcl:"name,label"`
	Strategy string `hcl:"strategy,optional"`
	Stack    int    `hcl:"stack,optional"`
}

// TutorSettings configures the OpenRouter coaching client. The tutor is
// disabled when no API key is set.
type TutorSettings struct {
	APIKey  string `hcl:"api_key,optional"`
	Model   string `hcl:"model,optional"`
	BaseURL string `hcl:"base_url,optional"`
	Referer string `hcl:"referer,optional"`
}

// DefaultConfig returns the default server configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
		},
		Game: GameSettings{
			SmallBlind:    10,
			BigBlind:      20,
			StartingStack: 1000,
			BotThinkMS:    1000,
		},
		Bots: []BotConfig{
			{Name: "bot1", Strategy: "call", Stack: 1000},
			{Name: "bot2", Strategy: "call", Stack: 1000},
		},
	}
}

// LoadConfig loads server configuration from an HCL file, falling back to
// defaults when the file does not exist.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()

	if c.Server.Address == "" {
		c.Server.Address = def.Server.Address
	}
	if c.Server.Port == 0 {
		c.Server.Port = def.Server.Port
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = def.Server.LogLevel
	}

	if c.Game.SmallBlind == 0 {
		c.Game.SmallBlind = def.Game.SmallBlind
	}
	if c.Game.BigBlind == 0 {
		c.Game.BigBlind = def.Game.BigBlind
	}
	if c.Game.StartingStack == 0 {
		c.Game.StartingStack = def.Game.StartingStack
	}
	if c.Game.BotThinkMS == 0 {
		c.Game.BotThinkMS = def.Game.BotThinkMS
	}

	if len(c.Bots) == 0 {
		c.Bots = def.Bots
	}
	for i := range c.Bots {
		if c.Bots[i].Strategy == "" {
			c.Bots[i].Strategy = "call"
		}
		if c.Bots[i].Stack == 0 {
			c.Bots[i].Stack = c.Game.StartingStack
		}
	}
}

// Validate validates the server configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	if c.Game.SmallBlind <= 0 {
		return fmt.Errorf("small blind must be positive")
	}
	if c.Game.BigBlind <= c.Game.SmallBlind {
		return fmt.Errorf("big blind must be greater than small blind")
	}
	if c.Game.StartingStack < c.Game.BigBlind {
		return fmt.Errorf("starting stack must cover at least the big blind")
	}

	if len(c.Bots) < 1 || len(c.Bots) > 8 {
		return fmt.Errorf("bot count must be between 1 and 8, got %d", len(c.Bots))
	}
	for _, bot := range c.Bots {
		if !validStrategies[bot.Strategy] {
			return fmt.Errorf("bot %s: invalid strategy %s", bot.Name, bot.Strategy)
		}
		if bot.Stack <= 0 {
			return fmt.Errorf("bot %s: stack must be positive", bot.Name)
		}
	}

	return nil
}

// Address returns the full server bind address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
