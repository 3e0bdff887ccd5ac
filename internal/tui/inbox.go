package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lu-zhengda/mailboard/internal/domain"
)

// Messages emitted by inboxModel.

type emailSelectedMsg struct {
	emailID string
}

type emailActionMsg struct {
	emailID string
	action  string
}

type pageRequestMsg struct {
	page int
}

// Actions understood by the root model.
const (
	actionStar      = "star"
	actionImportant = "important"
	actionMarkRead  = "mark read"
)

// inboxModel shows one page of emails.
type inboxModel struct {
	emails     []domain.Email
	pagination domain.Pagination
	title      string
	loading    bool
	cursor     int
	offset     int
	width      int
	height     int
	focused    bool
}

func newInbox() inboxModel {
	return inboxModel{loading: true}
}

func (m inboxModel) Update(msg tea.Msg) (inboxModel, tea.Cmd) {
	if !m.focused {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
				m.adjustScroll()
			}

		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.emails)-1 {
				m.cursor++
				m.adjustScroll()
			}

		case key.Matches(msg, keys.Enter):
			if id := m.SelectedEmailID(); id != "" {
				return m, func() tea.Msg { return emailSelectedMsg{emailID: id} }
			}

		case key.Matches(msg, keys.NextPage):
			if m.pagination.HasNext() {
				next := m.pagination.Page + 1
				return m, func() tea.Msg { return pageRequestMsg{page: next} }
			}

		case key.Matches(msg, keys.PrevPage):
			if m.pagination.Page > 1 {
				prev := m.pagination.Page - 1
				return m, func() tea.Msg { return pageRequestMsg{page: prev} }
			}

		case key.Matches(msg, keys.Star):
			return m, m.actionCmd(actionStar)

		case key.Matches(msg, keys.Important):
			return m, m.actionCmd(actionImportant)

		case key.Matches(msg, keys.MarkRead):
			return m, m.actionCmd(actionMarkRead)
		}
	}

	return m, nil
}

func (m inboxModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("  ")
	b.WriteString(mutedTextStyle.Render(m.footer()))
	b.WriteByte('\n')

	if m.loading && len(m.emails) == 0 {
		b.WriteString(mutedTextStyle.Render("Loading..."))
		return b.String()
	}
	if len(m.emails) == 0 {
		b.WriteString(mutedTextStyle.Render("No messages"))
		return b.String()
	}

	visible := m.visibleRows()
	end := min(m.offset+visible, len(m.emails))
	for i := m.offset; i < end; i++ {
		if i > m.offset {
			b.WriteByte('\n')
		}
		line := m.renderRow(i)
		if i == m.cursor && m.focused {
			line = selectedStyle.Width(m.width).Render(line)
		}
		b.WriteString(line)
	}

	return b.String()
}

// SetPage replaces the list with a freshly loaded page.
func (m *inboxModel) SetPage(page *domain.PageResult) {
	m.loading = false
	m.emails = page.Data
	m.pagination = page.Pagination
	m.clampCursor()
}

// UpdateEmail replaces a single row in place, keeping the cursor.
func (m *inboxModel) UpdateEmail(e domain.Email) {
	for i := range m.emails {
		if m.emails[i].ID == e.ID {
			m.emails[i] = e
			return
		}
	}
}

// ResetCursor moves the cursor to the first row.
func (m *inboxModel) ResetCursor() {
	m.cursor = 0
	m.offset = 0
}

// SetSize updates the dimensions available for rendering.
func (m *inboxModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.adjustScroll()
}

// SelectedEmailID returns the ID of the highlighted email.
func (m inboxModel) SelectedEmailID() string {
	if len(m.emails) == 0 || m.cursor >= len(m.emails) {
		return ""
	}
	return m.emails[m.cursor].ID
}

// --- internal helpers ---

func (m inboxModel) footer() string {
	p := m.pagination
	if p.Total == 0 || len(m.emails) == 0 {
		return ""
	}
	first := p.Offset() + 1
	last := p.Offset() + len(m.emails)
	return fmt.Sprintf("%d–%d of %d · page %d/%d", first, last, p.Total, p.Page, max(p.TotalPages, 1))
}

// visibleRows excludes the header line.
func (m inboxModel) visibleRows() int {
	if m.height < 2 {
		return 1
	}
	return m.height - 1
}

func (m *inboxModel) adjustScroll() {
	visible := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
}

func (m *inboxModel) clampCursor() {
	if len(m.emails) == 0 {
		m.cursor = 0
		m.offset = 0
		return
	}
	if m.cursor >= len(m.emails) {
		m.cursor = len(m.emails) - 1
	}
	m.adjustScroll()
}

func (m inboxModel) actionCmd(action string) tea.Cmd {
	id := m.SelectedEmailID()
	if id == "" {
		return nil
	}
	return func() tea.Msg {
		return emailActionMsg{emailID: id, action: action}
	}
}

func (m inboxModel) renderRow(idx int) string {
	e := m.emails[idx]

	marks := flagMarks(e)
	date := relativeDate(e.Timestamp)

	fromWidth := 22
	dateWidth := len(date)
	subjectWidth := m.width - fromWidth - dateWidth - 8 // marks(4) + two "  " gaps(4)
	if subjectWidth < 10 {
		subjectWidth = 10
	}

	subject := e.Subject
	if e.HasAttachments {
		subject = "📎 " + subject
	}

	fromCol := lipgloss.NewStyle().Width(fromWidth).Render(truncate(e.From, fromWidth))
	subjectCol := lipgloss.NewStyle().Width(subjectWidth).Render(truncate(subject, subjectWidth))
	dateCol := mutedTextStyle.Width(dateWidth).Render(date)

	line := marks + fromCol + "  " + subjectCol + "  " + dateCol

	if !e.IsRead {
		line = unreadStyle.Render(line)
	}

	return line
}

// flagMarks renders the star and important columns, four cells wide.
func flagMarks(e domain.Email) string {
	star := "  "
	if e.IsStarred {
		star = starStyle.Render("★ ")
	}
	imp := "  "
	if e.IsImportant {
		imp = importantStyle.Render("! ")
	}
	return star + imp
}

// --- utility functions ---

func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func relativeDate(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	case t.Year() == time.Now().Year():
		return t.Format("Jan 2")
	default:
		return t.Format("Jan 2, 2006")
	}
}
