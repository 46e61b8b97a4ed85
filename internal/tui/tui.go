package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/pokertutor/pokertutor/internal/deck"
	"github.com/pokertutor/pokertutor/internal/game"
)

// Model is the Bubble Tea model for the poker table. All game state comes
// from server snapshots; the model never simulates the game locally.
type Model struct {
	client     *Client
	logger     *log.Logger
	playerName string

	logViewport viewport.Model
	actionInput textinput.Model

	gameID string
	seat   int
	state  *game.Snapshot

	gameLog []string
	// logged[i] counts how many actions of history street i are already in
	// the game log, so each snapshot only appends the new ones.
	logged         []int
	showdownLogged bool
	statusLine     string

	quitting    bool
	width       int
	height      int
	initialized bool
}

// NewModel creates the table model. The client must already be connected.
func NewModel(client *Client, playerName string, logger *log.Logger) *Model {
	vp := viewport.New(10, 5)
	vp.SetContent("")

	ti := textinput.New()
	ti.Placeholder = "fold, check, call, raise <total>"
	ti.Focus()
	ti.CharLimit = 40
	ti.Width = 60
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	ti.Prompt = "> "

	return &Model{
		client:      client,
		logger:      logger.WithPrefix("tui"),
		playerName:  playerName,
		logViewport: vp,
		actionInput: ti,
		seat:        -1,
	}
}

// Init starts the blink cursor and asks the server to deal us in.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, func() tea.Msg {
		if err := m.client.StartGame(m.playerName); err != nil {
			return DisconnectMsg{Err: err}
		}
		return nil
	})
}

// Update handles messages in the TUI
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case StateMsg:
		m.gameID = msg.GameID
		m.seat = msg.Seat
		snap := msg.State
		m.applyState(snap)

	case TutorMsg:
		m.addLog(TutorStyle.Render("tutor: " + msg.Text))

	case ServerErrorMsg:
		m.statusLine = ErrorStyle.Render(msg.Message)
		m.logger.Debug("Server error", "code", msg.Code, "message", msg.Message)

	case DisconnectMsg:
		m.addLog(ErrorStyle.Render("Disconnected from server"))
		if msg.Err != nil {
			m.logger.Error("Connection lost", "error", msg.Err)
		}
		m.quitting = true
		return m, tea.Sequence(tea.ClearScreen, tea.Quit)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Sequence(tea.ClearScreen, tea.Quit)
		case "enter":
			m.submitInput()
		case "pgup":
			m.logViewport.HalfPageUp()
		case "pgdown":
			m.logViewport.HalfPageDown()
		}
	}

	var cmd tea.Cmd
	m.actionInput, cmd = m.actionInput.Update(msg)
	cmds = append(cmds, cmd)

	m.logViewport, cmd = m.logViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// applyState folds a fresh snapshot into the model and appends any newly
// visible history to the game log.
func (m *Model) applyState(snap game.Snapshot) {
	if m.isNewHand(snap) {
		m.logged = nil
		m.showdownLogged = false
		m.addLog("")
		m.addLog(HeaderStyle.Render(" New hand "))
	}
	m.statusLine = ""

	for i, street := range snap.History {
		if i >= len(m.logged) {
			m.logged = append(m.logged, 0)
			label := strings.ToUpper(street.Street.String())
			if len(street.CommunityCards) > 0 {
				label += "  " + m.formatCards(street.CommunityCards)
			}
			m.addLog(StreetStyle.Render(label))
		}
		for j := m.logged[i]; j < len(street.Actions); j++ {
			m.addLog(m.describeAction(snap, street.Actions[j]))
		}
		m.logged[i] = len(street.Actions)
	}

	if snap.WaitingForNextHand && len(snap.Showdown) > 0 && !m.showdownLogged {
		m.showdownLogged = true
		m.addLog(StreetStyle.Render("SHOWDOWN  " + m.formatCards(snap.CommunityCards)))
		for _, p := range snap.Players {
			if p.HandLabel != "" {
				m.addLog(fmt.Sprintf("%s shows %s (%s)",
					p.Name, m.formatCards(p.HoleCards), p.HandLabel))
			}
		}
		for _, w := range snap.Showdown {
			name := m.seatName(snap, w.Seat)
			m.addLog(SuccessStyle.Render(fmt.Sprintf("%s wins $%d", name, w.Amount)))
		}
	}

	if snap.GameOver && (m.state == nil || !m.state.GameOver) {
		m.addLog("")
		m.addLog(HeaderStyle.Render(" Game over "))
	}

	m.state = &snap
}

// isNewHand detects a hand boundary: the history either has fewer streets
// than we logged, or the first street lost actions.
func (m *Model) isNewHand(snap game.Snapshot) bool {
	if len(m.logged) == 0 {
		return len(snap.History) > 0
	}
	if len(snap.History) < len(m.logged) {
		return true
	}
	return len(snap.History) > 0 && len(snap.History[0].Actions) < m.logged[0]
}

func (m *Model) seatName(snap game.Snapshot, seat int) string {
	if seat >= 0 && seat < len(snap.Players) {
		return snap.Players[seat].Name
	}
	return fmt.Sprintf("seat %d", seat)
}

func (m *Model) describeAction(snap game.Snapshot, a game.ActionRecord) string {
	name := m.seatName(snap, a.Seat)
	switch a.Kind {
	case game.ActionSmallBlind:
		return fmt.Sprintf("%s posts small blind $%d", name, a.Amount)
	case game.ActionBigBlind:
		return fmt.Sprintf("%s posts big blind $%d", name, a.Amount)
	case game.ActionFold:
		return fmt.Sprintf("%s folds", name)
	case game.ActionCheck:
		return fmt.Sprintf("%s checks", name)
	case game.ActionCall:
		return fmt.Sprintf("%s calls $%d", name, a.Amount)
	case game.ActionRaise:
		return fmt.Sprintf("%s raises to $%d", name, a.Amount)
	}
	return fmt.Sprintf("%s %s", name, a.Kind)
}

// submitInput parses and sends the typed action.
func (m *Model) submitInput() {
	input := strings.TrimSpace(strings.ToLower(m.actionInput.Value()))
	m.actionInput.SetValue("")

	if m.state == nil || m.gameID == "" {
		return
	}

	if m.state.WaitingForNextHand || m.state.GameOver {
		if m.state.GameOver {
			return
		}
		if err := m.client.NextHand(m.gameID); err != nil {
			m.statusLine = ErrorStyle.Render(err.Error())
		}
		return
	}

	parts := strings.Fields(input)
	if len(parts) == 0 {
		return
	}

	action := parts[0]
	amount := 0
	switch action {
	case "fold", "check", "call":
	case "raise":
		args := parts[1:]
		// accept both "raise 100" and "raise to 100"
		if len(args) > 0 && args[0] == "to" {
			args = args[1:]
		}
		if len(args) == 0 {
			m.statusLine = ErrorStyle.Render("raise needs an amount, e.g. raise 100")
			return
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			m.statusLine = ErrorStyle.Render("raise amount must be a positive number")
			return
		}
		amount = n
	default:
		m.statusLine = ErrorStyle.Render("unknown action: " + action)
		return
	}

	if err := m.client.Action(m.gameID, action, amount); err != nil {
		m.statusLine = ErrorStyle.Render(err.Error())
	}
}

// View renders the TUI
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	actionContent := m.renderActionPane()
	actionHeight := lipgloss.Height(actionContent)

	actionStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#04B575")).
		Width(max(m.width-2, 1)).
		Height(max(actionHeight, 1))
	actionPane := actionStyle.Render(actionContent)

	sidebarContent := m.renderSidebarPane()
	sidebarWidth := max(lipgloss.Width(sidebarContent), 30)
	paneHeight := max(m.height-lipgloss.Height(actionPane)-2, 1)

	sidebarStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(sidebarWidth).
		Height(paneHeight)
	sidebarPane := sidebarStyle.Render(sidebarContent)

	logWidth := max(m.width-sidebarWidth-6, 1)
	m.logViewport.Width = logWidth
	m.logViewport.Height = paneHeight
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	if !m.initialized && logWidth > 1 && paneHeight > 1 {
		m.logViewport.GotoBottom()
		m.initialized = true
	}

	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(logWidth).
		Height(paneHeight)
	logPane := logStyle.Render(m.logViewport.View())

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, logPane, sidebarPane)
	return lipgloss.JoinVertical(lipgloss.Top, topRow, actionPane)
}

// renderSidebarPane shows the pot, board and every seat.
func (m *Model) renderSidebarPane() string {
	var content strings.Builder

	if m.state == nil {
		content.WriteString(InfoStyle.Render("Connecting..."))
		return content.String()
	}
	snap := *m.state

	content.WriteString(WarningStyle.Render(fmt.Sprintf("Pot: $%d", snap.Pot)))
	if snap.CurrentBet > 0 {
		content.WriteString(WarningStyle.Render(fmt.Sprintf("  Bet: $%d", snap.CurrentBet)))
	}
	content.WriteString("\n")
	content.WriteString(StreetStyle.Render(strings.ToUpper(snap.Street)))
	if len(snap.CommunityCards) > 0 {
		content.WriteString("  " + m.formatCards(snap.CommunityCards))
	}
	content.WriteString("\n")

	for _, sp := range snap.SidePots {
		content.WriteString(InfoStyle.Render(
			fmt.Sprintf("side pot $%d (%d way)", sp.Amount, len(sp.Eligible))))
		content.WriteString("\n")
	}
	content.WriteString("\n")

	for _, p := range snap.Players {
		marker := "  "
		if snap.HandInProgress && p.Seat == snap.ActiveSeat {
			marker = "→ "
		}

		status := ""
		switch {
		case p.Eliminated:
			status = " (out)"
		case p.AllIn:
			status = " (all-in)"
		case !p.Active && snap.HandInProgress:
			status = " (folded)"
		}

		line := fmt.Sprintf("%s%s %s  $%d%s", marker, p.Position, p.Name, p.Stack, status)
		if p.RoundBet > 0 {
			line += fmt.Sprintf("  bet $%d", p.RoundBet)
		}
		content.WriteString(line)
		content.WriteString("\n")
		if len(p.HoleCards) > 0 {
			content.WriteString("    " + m.formatCards(p.HoleCards))
			if p.HandLabel != "" {
				content.WriteString("  " + p.HandLabel)
			}
			content.WriteString("\n")
		}
	}

	return content.String()
}

// renderActionPane renders the input area with a prompt matched to the
// game state.
func (m *Model) renderActionPane() string {
	var content strings.Builder

	switch {
	case m.state == nil:
		content.WriteString(InfoStyle.Render("Waiting for the server..."))
		content.WriteString("\n")

	case m.state.GameOver:
		content.WriteString(HeaderStyle.Render(" Game over "))
		content.WriteString("\n")
		m.actionInput.Placeholder = "Ctrl+C to quit"

	case m.state.WaitingForNextHand:
		content.WriteString(StreetStyle.Render("Hand complete"))
		content.WriteString("\n")
		m.actionInput.Placeholder = "Enter to deal the next hand"

	case m.state.ActiveSeat == m.seat:
		toCall := m.state.ToCall(m.seat)
		var actions []string
		actions = append(actions, ErrorStyle.Render("[fold]"))
		if toCall == 0 {
			actions = append(actions, SuccessStyle.Render("[check]"))
		} else {
			actions = append(actions, SuccessStyle.Render(fmt.Sprintf("[call $%d]", toCall)))
		}
		actions = append(actions, WarningStyle.Render("[raise <total>]"))
		content.WriteString(ActionsStyle.Render("Your turn: " + strings.Join(actions, " ")))
		content.WriteString("\n")
		m.actionInput.Placeholder = "fold, check, call, raise <total>"

	default:
		content.WriteString(InfoStyle.Render("Waiting for other players..."))
		content.WriteString("\n")
		m.actionInput.Placeholder = ""
	}

	if m.statusLine != "" {
		content.WriteString(m.statusLine)
		content.WriteString("\n")
	}

	content.WriteString(m.actionInput.View())
	content.WriteString("\n")
	content.WriteString(InfoStyle.Render("Enter to submit • PgUp/PgDn to scroll • Ctrl+C to quit"))

	return content.String()
}

// formatCards formats cards with colors
func (m *Model) formatCards(cards []deck.Card) string {
	if len(cards) == 0 {
		return ""
	}

	var formatted []string
	for _, card := range cards {
		if card.IsRed() {
			formatted = append(formatted, RedCardStyle.Render(card.String()))
		} else {
			formatted = append(formatted, BlackCardStyle.Render(card.String()))
		}
	}

	return "[" + strings.Join(formatted, " ") + "]"
}

// addLog appends an entry and keeps the viewport pinned to the bottom.
func (m *Model) addLog(entry string) {
	m.gameLog = append(m.gameLog, entry)
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	if m.logViewport.Height > 0 && m.logViewport.Width > 0 {
		m.logViewport.GotoBottom()
	}
}
