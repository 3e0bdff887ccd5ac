package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lu-zhengda/mailboard/internal/domain"
)

// folderSelectedMsg is sent when the user picks a folder or label via Enter.
// Exactly one of view and labelID is set.
type folderSelectedMsg struct {
	view    string
	labelID string
}

type sidebarItem struct {
	name    string
	view    string
	labelID string
	folder  domain.Folder
}

// sidebarModel lists the folders with their counts, then the user labels.
type sidebarModel struct {
	items      []sidebarItem
	counts     domain.EmailCounts
	cursor     int
	active     int
	user       *domain.User
	width      int
	height     int
	focused    bool
	numFolders int
}

func newSidebar(labels []domain.Label) sidebarModel {
	items := make([]sidebarItem, 0, len(domain.Folders)+len(labels))
	for _, f := range domain.Folders {
		items = append(items, sidebarItem{name: f.DisplayName(), view: string(f), folder: f})
	}
	for _, l := range labels {
		items = append(items, sidebarItem{name: l.Name, labelID: l.ID})
	}
	return sidebarModel{items: items, numFolders: len(domain.Folders)}
}

// SetCounts updates the per-folder counts.
func (s *sidebarModel) SetCounts(counts domain.EmailCounts) {
	s.counts = counts
}

// SetSize updates the sidebar dimensions.
func (s *sidebarModel) SetSize(w, h int) {
	s.width = w
	s.height = h
}

// Update handles key events for sidebar navigation.
func (s sidebarModel) Update(msg tea.Msg) (sidebarModel, tea.Cmd) {
	if !s.focused || len(s.items) == 0 {
		return s, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			s.cursor--
			if s.cursor < 0 {
				s.cursor = len(s.items) - 1
			}
		case key.Matches(msg, keys.Down):
			s.cursor++
			if s.cursor >= len(s.items) {
				s.cursor = 0
			}
		case key.Matches(msg, keys.Enter):
			s.active = s.cursor
			item := s.items[s.cursor]
			return s, func() tea.Msg {
				return folderSelectedMsg{view: item.view, labelID: item.labelID}
			}
		}
	}

	return s, nil
}

// ActiveName returns the display name of the selected folder or label.
func (s sidebarModel) ActiveName() string {
	if s.active < 0 || s.active >= len(s.items) {
		return ""
	}
	return s.items[s.active].name
}

// View renders the sidebar.
func (s sidebarModel) View() string {
	var b strings.Builder
	w := max(s.width, 10)

	b.WriteString(titleStyle.Render("mailboard"))
	b.WriteString("\n")
	if s.user != nil {
		b.WriteString(truncate(s.user.Name, w))
		b.WriteString("\n")
		b.WriteString(mutedTextStyle.Render(truncate(s.user.Email, w)))
		b.WriteString("\n")
		if s.user.UnreadMessages > 0 || s.user.UnreadNotifications > 0 {
			b.WriteString(mutedTextStyle.Render(fmt.Sprintf("%d messages · %d alerts",
				s.user.UnreadMessages, s.user.UnreadNotifications)))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")

	for i, item := range s.items {
		if i == s.numFolders {
			b.WriteString("\n")
			b.WriteString(mutedTextStyle.Render(strings.Repeat("─", w)))
			b.WriteString("\n")
			b.WriteString(mutedTextStyle.Render("Labels:"))
			b.WriteString("\n")
		}
		b.WriteString(s.renderLine(i, item))
		b.WriteString("\n")
	}

	return b.String()
}

// renderLine renders one entry with its count right-aligned.
func (s sidebarModel) renderLine(idx int, item sidebarItem) string {
	prefix := "  "
	if idx == s.active {
		prefix = "▶ "
	}
	left := prefix + item.name
	if item.labelID != "" {
		left = prefix + labelStyle.Render("● ") + item.name
	}

	right := ""
	if item.folder != "" && s.counts != nil {
		if n := s.counts[item.folder]; n > 0 {
			right = countStyle.Render(fmt.Sprintf("%d", n))
		}
	}

	w := max(s.width, 10)
	gap := w - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	line := left + strings.Repeat(" ", gap) + right
	padded := lipgloss.NewStyle().Width(w).Render(line)

	if s.focused && idx == s.cursor {
		return selectedStyle.Render(padded)
	}
	return padded
}
