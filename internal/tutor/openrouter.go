// Package tutor talks to OpenRouter's chat-completions API to produce
// coaching commentary on finished hands. It reads engine snapshots only;
// it never drives the game.
package tutor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pokertutor/pokertutor/internal/game"
)

const systemPrompt = "You are a poker coach and tutor. Help users understand " +
	"poker concepts, strategy, and answer their questions about the game."

// Config configures the OpenRouter client. An empty APIKey disables the
// tutor entirely.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Referer string
}

// Client is an OpenRouter chat-completions client.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *log.Logger
}

// New creates a tutor client. Returns nil when no API key is configured;
// a nil client is safe to call and reports itself disabled.
func New(cfg Config, logger *log.Logger) *Client {
	if cfg.APIKey == "" {
		return nil
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://openrouter.ai/api/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "anthropic/claude-3.5-sonnet"
	}
	if cfg.Referer == "" {
		cfg.Referer = "http://localhost:8080"
	}

	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: 30 * time.Second},
		logger: logger.WithPrefix("tutor"),
	}
}

// Enabled reports whether tutoring is configured.
func (c *Client) Enabled() bool {
	return c != nil
}

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Chat sends the message history, prefixed with the coaching system
// prompt, and returns the model's reply.
func (c *Client) Chat(ctx context.Context, messages []Message) (string, error) {
	all := append([]Message{{Role: "system", Content: systemPrompt}}, messages...)

	body, err := json.Marshal(chatRequest{Model: c.cfg.Model, Messages: all})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("HTTP-Referer", c.cfg.Referer)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat request: unexpected status %s", resp.Status)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat response contained no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}

// AnalyzeHand asks the model to review a finished hand from the human
// seat's perspective.
func (c *Client) AnalyzeHand(ctx context.Context, snap game.Snapshot) (string, error) {
	prompt := buildHandPrompt(snap)
	c.logger.Debug("Requesting hand analysis", "promptBytes", len(prompt))
	return c.Chat(ctx, []Message{{Role: "user", Content: prompt}})
}

// buildHandPrompt renders the snapshot and hand history as a compact
// text description the model can reason about.
func buildHandPrompt(snap game.Snapshot) string {
	var b strings.Builder

	b.WriteString("Analyze this completed poker hand and give the human player ")
	b.WriteString("brief, concrete feedback on their play.\n\n")

	fmt.Fprintf(&b, "Board: %s\n", cardList(snap.CommunityCards))
	fmt.Fprintf(&b, "Final street: %s\n\n", snap.Street)

	b.WriteString("Seats:\n")
	for _, p := range snap.Players {
		status := "in hand"
		switch {
		case p.Eliminated:
			status = "eliminated"
		case !p.Active:
			status = "folded"
		case p.AllIn:
			status = "all-in"
		}
		fmt.Fprintf(&b, "- %s (%s, %s): stack %d, contributed %d",
			p.Name, p.Position, status, p.Stack, p.HandBet)
		if p.Kind == "human" && len(p.HoleCards) > 0 {
			fmt.Fprintf(&b, ", hole cards %s", cardList(p.HoleCards))
		}
		if p.HandLabel != "" {
			fmt.Fprintf(&b, ", showed %s", p.HandLabel)
		}
		b.WriteString("\n")
	}

	b.WriteString("\nAction:\n")
	for _, street := range snap.History {
		fmt.Fprintf(&b, "%s (board %s):\n", street.Street, cardList(street.CommunityCards))
		for _, a := range street.Actions {
			name := fmt.Sprintf("seat %d", a.Seat)
			if a.Seat >= 0 && a.Seat < len(snap.Players) {
				name = snap.Players[a.Seat].Name
			}
			if a.Amount > 0 {
				fmt.Fprintf(&b, "- %s: %s %d\n", name, a.Kind, a.Amount)
			} else {
				fmt.Fprintf(&b, "- %s: %s\n", name, a.Kind)
			}
		}
	}

	if len(snap.Showdown) > 0 {
		b.WriteString("\nResult:\n")
		for _, w := range snap.Showdown {
			name := fmt.Sprintf("seat %d", w.Seat)
			if w.Seat >= 0 && w.Seat < len(snap.Players) {
				name = snap.Players[w.Seat].Name
			}
			fmt.Fprintf(&b, "- %s won %d\n", name, w.Amount)
		}
	}

	b.WriteString("\nExplain the key decision points, pot odds where relevant, ")
	b.WriteString("and what the human could have done better. Keep it under 150 words.")

	return b.String()
}

func cardList[T fmt.Stringer](cards []T) string {
	if len(cards) == 0 {
		return "none"
	}
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}
