package tui

import (
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/papercomputeco/simplechat/pkg/conversation"
	"github.com/papercomputeco/simplechat/pkg/export"
	"github.com/papercomputeco/simplechat/pkg/llm"
)

const emptyText = "No messages yet. Start chatting!"

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.theme.Header.Render("Simple Chat with AI"))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if m.ctrl.State().Pending {
		b.WriteString(m.theme.Thinking.Render(m.spinner.View() + " Thinking..."))
	}
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")

	status := m.status
	if status == "" {
		status = "enter send · ctrl+t theme · ctrl+e export · ctrl+s speak · ctrl+y copy · /image · /voice · /clear"
	}
	b.WriteString(m.theme.Status.Render(ansi.Truncate(status, m.width, "…")))

	return b.String()
}

func (m Model) renderMessages(state conversation.State) string {
	if len(state.Messages) == 0 {
		return m.theme.Empty.Render(emptyText)
	}

	blocks := make([]string, 0, len(state.Messages))
	for _, msg := range state.Messages {
		blocks = append(blocks, m.renderMessage(msg))
	}
	return strings.Join(blocks, "\n\n")
}

func (m Model) renderMessage(msg conversation.Message) string {
	body := msg.Content
	if msg.Kind == conversation.KindImage {
		body = export.ImagePlaceholder
	}

	if msg.Author == llm.RoleUser {
		return m.theme.User.Render("You: ") + body
	}

	if m.renderer != nil && msg.Kind == conversation.KindText {
		if out, err := m.renderer.Render(body); err == nil {
			body = strings.Trim(out, "\n")
		}
	}
	return m.theme.Assistant.Render("AI:") + "\n" + body
}
