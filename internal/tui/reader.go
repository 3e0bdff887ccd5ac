package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/lu-zhengda/mailboard/internal/domain"
)

type closeReaderMsg struct{}

// readerModel displays one email in a scrollable pane.
type readerModel struct {
	email        *domain.Email
	content      string
	scrollOffset int
	maxScroll    int
	width        int
	height       int
	focused      bool
	visible      bool
}

func newReader() readerModel {
	return readerModel{}
}

func (r readerModel) Update(msg tea.Msg) (readerModel, tea.Cmd) {
	if !r.focused || !r.visible {
		return r, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if r.scrollOffset > 0 {
				r.scrollOffset--
			}

		case key.Matches(msg, keys.Down):
			if r.scrollOffset < r.maxScroll {
				r.scrollOffset++
			}

		case key.Matches(msg, keys.Back):
			return r, func() tea.Msg { return closeReaderMsg{} }

		case key.Matches(msg, keys.Star):
			return r, r.actionCmd(actionStar)

		case key.Matches(msg, keys.Important):
			return r, r.actionCmd(actionImportant)
		}
	}

	return r, nil
}

func (r readerModel) View() string {
	if !r.visible || r.width == 0 || r.height == 0 {
		return ""
	}
	if r.content == "" {
		return mutedTextStyle.Render("No email selected")
	}

	lines := strings.Split(r.content, "\n")
	start := min(r.scrollOffset, len(lines))
	end := min(start+max(r.height, 1), len(lines))
	return strings.Join(lines[start:end], "\n")
}

// ShowEmail displays an email in the reader pane.
func (r *readerModel) ShowEmail(email *domain.Email) {
	r.email = email
	r.visible = true
	r.scrollOffset = 0
	r.content = renderEmail(email, r.width)
	r.recalcMaxScroll()
}

// Refresh re-renders the shown email if it matches e.ID.
func (r *readerModel) Refresh(e domain.Email) {
	if r.email == nil || r.email.ID != e.ID {
		return
	}
	r.email = &e
	r.content = renderEmail(r.email, r.width)
	r.recalcMaxScroll()
}

// Close hides the reader and clears its content.
func (r *readerModel) Close() {
	r.visible = false
	r.email = nil
	r.content = ""
	r.scrollOffset = 0
	r.maxScroll = 0
}

// SetSize updates the reader dimensions and recalculates scroll bounds.
func (r *readerModel) SetSize(w, h int) {
	r.width = w
	r.height = h
	if r.email != nil {
		r.content = renderEmail(r.email, r.width)
	}
	r.recalcMaxScroll()
}

func (r readerModel) IsVisible() bool {
	return r.visible
}

func (r readerModel) actionCmd(action string) tea.Cmd {
	if r.email == nil {
		return nil
	}
	id := r.email.ID
	return func() tea.Msg { return emailActionMsg{emailID: id, action: action} }
}

func (r *readerModel) recalcMaxScroll() {
	if r.content == "" {
		r.maxScroll = 0
		r.scrollOffset = 0
		return
	}
	lines := strings.Count(r.content, "\n") + 1
	r.maxScroll = max(lines-max(r.height, 1), 0)
	if r.scrollOffset > r.maxScroll {
		r.scrollOffset = r.maxScroll
	}
}

// renderEmail formats an email as headers, attachments, then the body.
func renderEmail(email *domain.Email, width int) string {
	var b strings.Builder

	header := func(name, value string) {
		b.WriteString(mutedTextStyle.Render(fmt.Sprintf("%-9s", name+":")))
		b.WriteString(value)
		b.WriteByte('\n')
	}

	header("From", email.From)
	header("To", email.To)
	header("Date", email.Timestamp.Local().Format("Jan 2, 2006 3:04 PM"))
	header("Subject", email.Subject)

	var flags []string
	if email.IsStarred {
		flags = append(flags, starStyle.Render("★ starred"))
	}
	if email.IsImportant {
		flags = append(flags, importantStyle.Render("! important"))
	}
	for _, l := range email.Labels {
		flags = append(flags, labelStyle.Render("#"+l))
	}
	if len(flags) > 0 {
		b.WriteString(strings.Join(flags, "  "))
		b.WriteByte('\n')
	}

	b.WriteString(mutedTextStyle.Render(strings.Repeat("─", max(width, 20))))
	b.WriteByte('\n')

	if email.Body != "" {
		b.WriteByte('\n')
		b.WriteString(email.Body)
		b.WriteByte('\n')
	}

	if len(email.Attachments) > 0 {
		b.WriteByte('\n')
		b.WriteString(mutedTextStyle.Render(fmt.Sprintf("Attachments (%d):", len(email.Attachments))))
		for _, a := range email.Attachments {
			b.WriteString(fmt.Sprintf("\n  📎 %s  %s", a.Filename, mutedTextStyle.Render(humanSize(a.Size))))
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
