// Package tui is the terminal rendering layer of the chat front-end. It
// observes a conversation.Controller and never mutates messages itself.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/papercomputeco/simplechat/pkg/conversation"
	"github.com/papercomputeco/simplechat/pkg/export"
	"github.com/papercomputeco/simplechat/pkg/llm"
	"github.com/papercomputeco/simplechat/pkg/speech"
)

// Options configures the chat view.
type Options struct {
	ExportPath string
	Dark       bool
}

// copyToClipboard writes to the system clipboard.
var copyToClipboard = clipboard.WriteAll

type (
	changedMsg    struct{}
	statusMsg     string
	transcriptMsg string
)

// Model is the bubbletea model for the chat screen.
type Model struct {
	ctx     context.Context
	ctrl    *conversation.Controller
	changes chan struct{}
	stop    func()

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	theme      Theme
	exportPath string
	status     string
	width      int
	height     int
	ready      bool
}

// New builds the chat view for ctrl. Close releases its subscription.
func New(ctx context.Context, ctrl *conversation.Controller, opts Options) Model {
	changes := make(chan struct{}, 1)
	stop := ctrl.Subscribe(func(conversation.State) {
		select {
		case changes <- struct{}{}:
		default:
		}
	})

	input := textinput.New()
	input.Placeholder = "Type your message..."
	input.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	exportPath := opts.ExportPath
	if exportPath == "" {
		exportPath = "chat_history.txt"
	}

	m := Model{
		ctx:        ctx,
		ctrl:       ctrl,
		changes:    changes,
		stop:       stop,
		input:      input,
		viewport:   viewport.New(80, 20),
		spinner:    sp,
		theme:      NewTheme(opts.Dark),
		exportPath: exportPath,
		width:      80,
		height:     24,
	}
	m.renderer = newRenderer(m.theme, m.width)
	m.refresh()
	return m
}

// Close stops observing the controller.
func (m Model) Close() {
	m.stop()
}

func newRenderer(theme Theme, width int) *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(theme.glamourStyle()),
		glamour.WithWordWrap(max(width-4, 20)),
	)
	if err != nil {
		return nil
	}
	return r
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return changedMsg{}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, waitForChange(m.changes))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-5, 3)
		m.input.Width = max(msg.Width-4, 10)
		m.renderer = newRenderer(m.theme, m.width)
		m.ready = true
		m.refresh()
		return m, nil

	case changedMsg:
		m.refresh()
		return m, waitForChange(m.changes)

	case statusMsg:
		m.status = string(msg)
		return m, nil

	case transcriptMsg:
		prev := strings.TrimSpace(m.input.Value())
		if prev != "" {
			prev += " "
		}
		m.input.SetValue(prev + string(msg))
		m.input.CursorEnd()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit

	case "ctrl+t":
		m.theme = m.theme.Toggle()
		m.renderer = newRenderer(m.theme, m.width)
		m.refresh()
		return m, nil

	case "ctrl+e":
		return m, m.exportCmd()

	case "ctrl+s":
		return m, m.speakLastCmd()

	case "ctrl+y":
		return m, m.copyLastCmd()

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case "enter":
		return m.submit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit sends the input line. While a reply is outstanding the line is kept
// and nothing is sent.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.ctrl.State().Pending {
		m.status = "Waiting for the current reply..."
		return m, nil
	}

	line := strings.TrimSpace(m.input.Value())
	if line == "" {
		return m, nil
	}

	cmd, arg, _ := strings.Cut(line, " ")
	switch cmd {
	case "/clear":
		m.input.Reset()
		m.ctrl.Reset()
		m.status = "Conversation cleared"
		return m, nil

	case "/image":
		path, prompt, err := splitPath(arg)
		if err != nil {
			m.status = "/image: " + err.Error()
			return m, nil
		}
		img, err := llm.ImageFromFile(path)
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.input.Reset()
		m.status = ""
		m.ctrl.SubmitImage(m.ctx, img, prompt)
		return m, nil

	case "/voice":
		path, _, err := splitPath(arg)
		if err != nil {
			m.status = "/voice: " + err.Error()
			return m, nil
		}
		m.input.Reset()
		return m, m.transcribeCmd(path)

	default:
		if strings.HasPrefix(cmd, "/") {
			m.status = "Unknown command " + cmd
			return m, nil
		}
	}

	m.input.Reset()
	m.status = ""
	m.ctrl.Submit(m.ctx, line)
	return m, nil
}

func (m Model) exportCmd() tea.Cmd {
	doc := m.ctrl.Export()
	path := m.exportPath
	return func() tea.Msg {
		if err := export.WriteFile(path, doc); err != nil {
			return statusMsg("Export failed: " + err.Error())
		}
		return statusMsg("Chat exported to " + path)
	}
}

// splitPath takes the leading path off a command argument. Paths with
// spaces are quoted with " or '.
func splitPath(arg string) (path, rest string, err error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", "", errors.New("missing path")
	}

	if q := arg[0]; q == '"' || q == '\'' {
		end := strings.IndexByte(arg[1:], q)
		if end < 0 {
			return "", "", errors.New("unterminated quote")
		}
		path = arg[1 : end+1]
		if path == "" {
			return "", "", errors.New("missing path")
		}
		return path, strings.TrimSpace(arg[end+2:]), nil
	}

	path, rest, _ = strings.Cut(arg, " ")
	return path, strings.TrimSpace(rest), nil
}

// lastReply is the newest assistant text message.
func (m Model) lastReply() (conversation.Message, bool) {
	msgs := m.ctrl.State().Messages
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Author == llm.RoleAssistant && msgs[i].Kind == conversation.KindText {
			return msgs[i], true
		}
	}
	return conversation.Message{}, false
}

func (m Model) copyLastCmd() tea.Cmd {
	last, ok := m.lastReply()
	if !ok {
		return func() tea.Msg { return statusMsg("Nothing to copy yet") }
	}

	text := last.Content
	return func() tea.Msg {
		if err := copyToClipboard(text); err != nil {
			return statusMsg("Copy failed: " + err.Error())
		}
		return statusMsg(fmt.Sprintf("Copied reply to clipboard (%d chars)", len([]rune(text))))
	}
}

func (m Model) speakLastCmd() tea.Cmd {
	last, ok := m.lastReply()
	if !ok {
		return func() tea.Msg { return statusMsg("Nothing to speak yet") }
	}

	ctx, ctrl, id := m.ctx, m.ctrl, last.ID
	return func() tea.Msg {
		if err := ctrl.Speak(ctx, id); err != nil {
			if errors.Is(err, speech.ErrUnavailable) {
				return statusMsg("Speech not supported")
			}
			return statusMsg("Speech failed: " + err.Error())
		}
		return statusMsg("Spoken reply")
	}
}

func (m Model) transcribeCmd(path string) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		if !ctrl.Capabilities().Recognition {
			return statusMsg("Speech recognition not supported")
		}
		f, err := os.Open(path)
		if err != nil {
			return statusMsg(fmt.Sprintf("Voice input failed: %v", err))
		}
		defer f.Close()

		text, err := ctrl.Transcribe(ctx, speech.Audio{Name: filepath.Base(path), Reader: f})
		if err != nil {
			return statusMsg(fmt.Sprintf("Voice input failed: %v", err))
		}
		return transcriptMsg(text)
	}
}

// refresh re-renders the conversation into the viewport.
func (m *Model) refresh() {
	m.viewport.SetContent(m.renderMessages(m.ctrl.State()))
	m.viewport.GotoBottom()
}
