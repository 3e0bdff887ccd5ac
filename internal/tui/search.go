package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Messages emitted by searchModel.

// searchChangedMsg reports a new query text. The root model debounces it.
type searchChangedMsg struct {
	query string
}

type closeSearchMsg struct{}

// searchDebounceMsg fires after the debounce interval. Only the tick whose
// tag matches the latest keystroke triggers a query.
type searchDebounceMsg struct {
	tag int
}

// searchModel is the search input shown above the email list.
type searchModel struct {
	input  textinput.Model
	active bool
	width  int
}

func newSearch() searchModel {
	ti := textinput.New()
	ti.Placeholder = "Search subject, sender or body..."
	ti.Prompt = "/ "
	ti.CharLimit = 256
	return searchModel{input: ti}
}

func (s searchModel) Update(msg tea.Msg) (searchModel, tea.Cmd) {
	if !s.active {
		return s, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.Back):
			return s, func() tea.Msg { return closeSearchMsg{} }
		case key.Matches(msg, keys.Enter):
			// Keep the query and return to the list.
			s.active = false
			s.input.Blur()
			return s, nil
		}
	}

	before := s.input.Value()
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	if after := s.input.Value(); after != before {
		changed := func() tea.Msg { return searchChangedMsg{query: after} }
		return s, tea.Batch(cmd, changed)
	}
	return s, cmd
}

func (s searchModel) View() string {
	return s.input.View()
}

// Open focuses the search input, keeping any existing query.
func (s *searchModel) Open() tea.Cmd {
	s.active = true
	return s.input.Focus()
}

// Clear empties and deactivates the input.
func (s *searchModel) Clear() {
	s.active = false
	s.input.SetValue("")
	s.input.Blur()
}

func (s *searchModel) SetWidth(w int) {
	s.width = w
	s.input.Width = max(w-4, 1)
}

// IsActive reports whether the input currently has focus.
func (s searchModel) IsActive() bool {
	return s.active
}

// Visible reports whether the search line should be drawn.
func (s searchModel) Visible() bool {
	return s.active || s.input.Value() != ""
}

func (s searchModel) Query() string {
	return s.input.Value()
}

func debounceCmd(d time.Duration, tag int) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return searchDebounceMsg{tag: tag}
	})
}
