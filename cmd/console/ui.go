package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nebulagames/story-relay/internal/narrative"
	"github.com/nebulagames/story-relay/internal/services"
	"github.com/nebulagames/story-relay/internal/storage"
	"github.com/nebulagames/story-relay/pkg/story"
)

const (
	consolePlayerID = "console-player"
	placeholderText = "Pick an option number, or type anything to begin..."
)

// option is one selectable row or button shown to the player.
type option struct {
	id    string
	title string
}

// ConsoleUI is the BubbleTea model that runs the playtester.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	resolver   *narrative.Resolver
	sessions   storage.SessionStore
	dispatcher *services.MockDispatcher

	storyViewport viewport.Model
	metaViewport  viewport.Model
	input         textinput.Model

	transcript []string
	options    []option
	seen       int // messages already consumed from the dispatcher
	status     string
	ready      bool
	width      int
	height     int
	started    bool
}

type interactionMsg struct {
	err error
}

var (
	storyPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	sceneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	optionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

var titleCaser = cases.Title(language.English)

func NewConsoleUI(resolver *narrative.Resolver, sessions storage.SessionStore, dispatcher *services.MockDispatcher) ConsoleUI {
	ti := textinput.New()
	ti.Placeholder = placeholderText
	ti.Focus()
	ti.Prompt = footerStyle.Render(":: ")
	ti.CharLimit = 200

	storyVp := viewport.New(50, 20)
	storyVp.MouseWheelEnabled = true
	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		resolver:      resolver,
		sessions:      sessions,
		dispatcher:    dispatcher,
		input:         ti,
		storyViewport: storyVp,
		metaViewport:  metaVp,
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return textinput.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		storyWidth := int(float64(m.width)*0.7) - 4
		metaWidth := m.width - storyWidth - 8

		m.storyViewport.Width = storyWidth
		m.storyViewport.Height = m.height - 6
		m.metaViewport.Width = metaWidth
		m.metaViewport.Height = m.height - 4
		m.input.Width = storyWidth - 4

		if !m.ready {
			m.ready = true
			m.writeStoryContent()
			m.writeMetadata()
		} else {
			m.writeStoryContent()
		}

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			input := strings.TrimSpace(m.input.Value())
			if input == "" {
				return m, nil
			}
			m.input.Reset()

			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}
			return m.handleInteraction(input)
		}

	case interactionMsg:
		if msg.err != nil {
			m.transcript = append(m.transcript, errorStyle.Render("Error: "+msg.err.Error()))
		}
		m.consumeSentMessages()
		m.writeStoryContent()
		m.writeMetadata()
		return m, nil
	}

	m.input, tiCmd = m.input.Update(msg)
	m.storyViewport, vpCmd = m.storyViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

// handleInteraction routes player input the way the webhook does: a
// selection resolves a choice, anything else (re)starts the session.
func (m ConsoleUI) handleInteraction(input string) (tea.Model, tea.Cmd) {
	choiceID, isChoice := m.matchOption(input)

	m.transcript = append(m.transcript, optionStyle.Render("You: ")+input)
	m.started = true

	resolver := m.resolver
	return m, func() tea.Msg {
		ctx := context.Background()
		var err error
		if isChoice {
			_, err = resolver.ResolveChoice(ctx, consolePlayerID, choiceID)
		} else {
			_, err = resolver.StartSession(ctx, consolePlayerID)
		}
		return interactionMsg{err: err}
	}
}

// matchOption maps input to a selection id: an option number, an exact
// option id, or nothing (plain text).
func (m *ConsoleUI) matchOption(input string) (string, bool) {
	var n int
	if _, err := fmt.Sscanf(input, "%d", &n); err == nil && n >= 1 && n <= len(m.options) {
		return m.options[n-1].id, true
	}
	for _, opt := range m.options {
		if strings.EqualFold(opt.id, input) {
			return opt.id, true
		}
	}
	return "", false
}

// consumeSentMessages renders dispatcher output recorded since the last
// interaction into the transcript and refreshes the selectable options.
func (m *ConsoleUI) consumeSentMessages() {
	sent := m.dispatcher.Sent()
	for ; m.seen < len(sent); m.seen++ {
		msg := sent[m.seen]
		switch msg.Kind {
		case "list":
			m.transcript = append(m.transcript, m.renderList(msg.List))
			m.options = listOptions(msg.List)
		case "buttons":
			m.transcript = append(m.transcript, m.renderButtons(msg.Buttons))
			m.options = buttonOptions(msg.Buttons)
		default:
			m.transcript = append(m.transcript, sceneStyle.Render(msg.Body))
		}
	}
}

func listOptions(msg *story.ListMessage) []option {
	var opts []option
	for _, sec := range msg.Sections {
		for _, row := range sec.Rows {
			opts = append(opts, option{id: row.ID, title: row.Title})
		}
	}
	return opts
}

func buttonOptions(msg *story.ButtonMessage) []option {
	var opts []option
	for _, b := range msg.Buttons {
		opts = append(opts, option{id: b.ID, title: b.Title})
	}
	return opts
}

func (m *ConsoleUI) renderList(msg *story.ListMessage) string {
	width := m.contentWidth()
	var b strings.Builder

	if msg.HeaderText != "" {
		b.WriteString(headerStyle.Render(msg.HeaderText) + "\n")
	}
	b.WriteString(sceneStyle.Render(wordwrap.String(msg.BodyText, width)) + "\n")
	if msg.FooterText != "" {
		b.WriteString(footerStyle.Render(msg.FooterText) + "\n")
	}

	n := 1
	for _, sec := range msg.Sections {
		if sec.Title != "" {
			b.WriteString("\n" + headerStyle.Render(titleCaser.String(sec.Title)) + "\n")
		}
		for _, row := range sec.Rows {
			line := fmt.Sprintf("%d. %s", n, row.Title)
			if row.Description != "" {
				line += footerStyle.Render(" — " + row.Description)
			}
			b.WriteString(optionStyle.Render(line) + "\n")
			n++
		}
	}
	return b.String()
}

func (m *ConsoleUI) renderButtons(msg *story.ButtonMessage) string {
	width := m.contentWidth()
	var b strings.Builder

	if msg.Header != nil && msg.Header.Text != "" {
		b.WriteString(headerStyle.Render(msg.Header.Text) + "\n")
	}
	b.WriteString(sceneStyle.Render(wordwrap.String(msg.BodyText, width)) + "\n")
	if msg.FooterText != "" {
		b.WriteString(footerStyle.Render(msg.FooterText) + "\n")
	}

	b.WriteString("\n")
	for i, btn := range msg.Buttons {
		b.WriteString(optionStyle.Render(fmt.Sprintf("%d. %s", i+1, btn.Title)) + "\n")
	}
	return b.String()
}

func (m *ConsoleUI) contentWidth() int {
	w := m.storyViewport.Width - 6
	if w < 20 {
		w = 20
	}
	return w
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	switch strings.ToLower(input) {
	case "/help":
		m.transcript = append(m.transcript, titleStyle.Render("Commands:")+`
/help - show this help
/state - show session state
/copy - copy session JSON to clipboard
Ctrl+C - quit

Type an option number (or id) to make a choice.
Type anything else to start or re-show the opening scene.`)

	case "/state":
		session, err := m.sessions.Get(context.Background(), consolePlayerID)
		if err != nil {
			m.transcript = append(m.transcript, errorStyle.Render("No session yet. Type anything to begin."))
			break
		}
		data, err := json.MarshalIndent(session, "", "  ")
		if err != nil {
			m.transcript = append(m.transcript, errorStyle.Render("Error: "+err.Error()))
			break
		}
		m.transcript = append(m.transcript, footerStyle.Render(string(data)))

	case "/copy":
		session, err := m.sessions.Get(context.Background(), consolePlayerID)
		if err != nil {
			m.transcript = append(m.transcript, errorStyle.Render("No session yet. Type anything to begin."))
			break
		}
		data, err := json.MarshalIndent(session, "", "  ")
		if err == nil {
			err = clipboard.WriteAll(string(data))
		}
		if err != nil {
			m.transcript = append(m.transcript, errorStyle.Render("Clipboard error: "+err.Error()))
			break
		}
		m.status = "Session JSON copied to clipboard"

	default:
		m.transcript = append(m.transcript, errorStyle.Render("Unknown command: "+input))
	}

	m.writeStoryContent()
	return m, nil
}

func (m *ConsoleUI) writeStoryContent() {
	width := m.contentWidth()
	var b strings.Builder

	b.WriteString(titleStyle.Render("STORY RELAY PLAYTESTER") + "\n\n")
	if !m.started {
		b.WriteString("This console plays the story exactly as the relay would\nsend it over WhatsApp. Type anything to begin.\n\n")
	}
	b.WriteString(separatorStyle.Render(strings.Repeat("─", width)) + "\n\n")

	for _, entry := range m.transcript {
		b.WriteString(entry + "\n\n")
	}
	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status) + "\n")
		m.status = ""
	}

	m.storyViewport.SetContent(b.String())
	m.storyViewport.GotoBottom()
}

func (m *ConsoleUI) writeMetadata() {
	var b strings.Builder
	b.WriteString(titleStyle.Render("SESSION") + "\n\n")

	session, err := m.sessions.Get(context.Background(), consolePlayerID)
	if err != nil {
		b.WriteString("No session yet.\n")
		m.metaViewport.SetContent(b.String())
		return
	}

	b.WriteString(titleCaser.String("current scene") + ":\n")
	b.WriteString(session.CurrentScene + "\n\n")

	b.WriteString(titleCaser.String("inventory") + ":\n")
	if len(session.Inventory) == 0 {
		b.WriteString("Empty\n")
	} else {
		for _, item := range session.Inventory {
			b.WriteString("• " + item + "\n")
		}
	}
	b.WriteString("\n")

	b.WriteString(titleCaser.String("visited scenes") + ":\n")
	for sceneID := range session.Visited {
		b.WriteString("• " + sceneID + "\n")
	}

	b.WriteString("\n")
	b.WriteString(titleCaser.String("commands") + ":\n")
	b.WriteString("• /state\n• /copy\n• /help\n• Ctrl+C quits\n")

	m.metaViewport.SetContent(b.String())
}

func (m ConsoleUI) View() string {
	if !m.ready {
		return "Loading..."
	}

	storyPane := storyPanelStyle.Render(m.storyViewport.View())
	metaPane := metaPanelStyle.Render(m.metaViewport.View())
	panels := lipgloss.JoinHorizontal(lipgloss.Top, storyPane, metaPane)

	return panels + "\n" + storyPanelStyle.PaddingTop(0).Render(m.input.View())
}
