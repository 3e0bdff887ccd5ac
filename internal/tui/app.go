package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lu-zhengda/mailboard/internal/app"
	"github.com/lu-zhengda/mailboard/internal/domain"
	"github.com/lu-zhengda/mailboard/internal/provider"
)

type pane int

const (
	paneSidebar pane = iota
	paneList
	paneReader
)

// --- async result messages ---

type overviewLoadedMsg struct {
	seq      int
	overview *app.Overview
}

type countsLoadedMsg struct {
	counts domain.EmailCounts
}

// pageLoadedMsg carries the sequence number of the request that produced it.
// Pages from superseded requests are dropped.
type pageLoadedMsg struct {
	seq  int
	page *domain.PageResult
}

type emailLoadedMsg struct {
	email   *domain.Email
	refresh bool
}

type actionDoneMsg struct {
	emailID string
	action  string
}

type sessionExpiredMsg struct{}

type errMsg struct {
	err error
}

// Options tunes the dashboard.
type Options struct {
	Debounce time.Duration
	PageSize int
	Labels   []domain.Label
}

// --- root model ---

type model struct {
	emails  *app.EmailService
	session *app.SessionController

	filters   domain.Filters
	seq       int
	searchTag int
	debounce  time.Duration
	expired   bool

	sidebar   sidebarModel
	inbox     inboxModel
	reader    readerModel
	search    searchModel
	statusBar statusBar

	activePane pane

	width  int
	height int
}

// NewModel creates the root dashboard model. session may be nil.
func NewModel(emails *app.EmailService, session *app.SessionController, opts Options) model {
	labels := opts.Labels
	if labels == nil {
		labels = domain.DefaultLabels
	}

	sidebar := newSidebar(labels)
	if session != nil {
		if s := session.Session(); s != nil {
			sidebar.user = s.User
		}
	}

	inbox := newInbox()
	inbox.focused = true
	inbox.title = domain.FolderInbox.DisplayName()

	return model{
		emails:   emails,
		session:  session,
		debounce: opts.Debounce,
		filters: domain.Filters{
			Page:  1,
			Limit: opts.PageSize,
			View:  string(domain.FolderInbox),
		}.WithDefaults(),
		seq:        1,
		activePane: paneList,
		sidebar:    sidebar,
		inbox:      inbox,
		reader:     newReader(),
		search:     newSearch(),
		statusBar:  newStatusBar(),
	}
}

func (m model) Init() tea.Cmd {
	return m.overviewCmd(m.seq, m.filters)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.width = msg.Width
		m.resizeSubModels()
		return m, nil

	// --- async results ---
	case overviewLoadedMsg:
		m.sidebar.SetCounts(msg.overview.Counts)
		if msg.seq == m.seq {
			m.inbox.SetPage(msg.overview.Page)
			m.statusBar.setMessage(fmt.Sprintf("Loaded %d of %d emails", len(msg.overview.Page.Data), msg.overview.Page.Pagination.Total))
		}
		return m, nil

	case countsLoadedMsg:
		m.sidebar.SetCounts(msg.counts)
		return m, nil

	case pageLoadedMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.inbox.SetPage(msg.page)
		m.statusBar.setMessage(fmt.Sprintf("Loaded %d of %d emails", len(msg.page.Data), msg.page.Pagination.Total))
		return m, nil

	case emailLoadedMsg:
		if msg.email == nil {
			return m, nil
		}
		m.inbox.UpdateEmail(*msg.email)
		if msg.refresh {
			m.reader.Refresh(*msg.email)
			return m, nil
		}
		m.reader.ShowEmail(msg.email)
		m.setFocus(paneReader)
		m.statusBar.readerVisible = true
		m.statusBar.setMessage("")
		m.resizeSubModels()
		if !msg.email.IsRead {
			return m, m.performActionCmd(msg.email.ID, actionMarkRead)
		}
		return m, nil

	case actionDoneMsg:
		if msg.action != actionMarkRead {
			m.statusBar.setMessage(fmt.Sprintf("Toggled %s", msg.action))
		}
		cmds := []tea.Cmd{m.reload(), m.loadCountsCmd()}
		if m.reader.IsVisible() && m.reader.email != nil && m.reader.email.ID == msg.emailID {
			cmds = append(cmds, m.loadEmailCmd(msg.emailID, true))
		}
		return m, tea.Batch(cmds...)

	case sessionExpiredMsg:
		m.expired = true
		return m, tea.Quit

	case errMsg:
		if errors.Is(msg.err, provider.ErrAuthExpired) {
			m.expired = true
			return m, tea.Quit
		}
		m.statusBar.setError(fmt.Sprintf("Error: %v", msg.err))
		return m, nil

	// --- sub-model messages ---
	case folderSelectedMsg:
		m.filters.View = msg.view
		m.filters.Labels = msg.labelID
		m.filters.Page = 1
		m.inbox.title = m.sidebar.ActiveName()
		m.inbox.ResetCursor()
		m.closeReader()
		m.setFocus(paneList)
		return m, m.reload()

	case pageRequestMsg:
		m.filters.Page = msg.page
		m.inbox.ResetCursor()
		return m, m.reload()

	case emailSelectedMsg:
		m.statusBar.setMessage("Loading email...")
		return m, m.loadEmailCmd(msg.emailID, false)

	case emailActionMsg:
		return m, m.performActionCmd(msg.emailID, msg.action)

	case closeReaderMsg:
		m.closeReader()
		m.setFocus(paneList)
		return m, nil

	case searchChangedMsg:
		m.searchTag++
		if m.debounce <= 0 {
			return m, m.applySearch(msg.query)
		}
		return m, debounceCmd(m.debounce, m.searchTag)

	case searchDebounceMsg:
		if msg.tag != m.searchTag {
			return m, nil
		}
		return m, m.applySearch(m.search.Query())

	case closeSearchMsg:
		m.search.Clear()
		m.statusBar.searching = false
		m.searchTag++
		m.resizeSubModels()
		if m.filters.Search == "" {
			return m, nil
		}
		return m, m.applySearch("")

	// --- key events ---
	case tea.KeyMsg:
		if m.search.IsActive() {
			var cmd tea.Cmd
			m.search, cmd = m.search.Update(msg)
			m.statusBar.searching = m.search.IsActive()
			return m, cmd
		}

		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, keys.Search):
			cmd := m.search.Open()
			m.statusBar.searching = true
			m.resizeSubModels()
			return m, cmd

		case key.Matches(msg, keys.Sort):
			if m.filters.SortOrder == domain.SortAsc {
				m.filters.SortOrder = domain.SortDesc
				m.statusBar.setMessage("Newest first")
			} else {
				m.filters.SortOrder = domain.SortAsc
				m.statusBar.setMessage("Oldest first")
			}
			m.filters.Page = 1
			m.inbox.ResetCursor()
			return m, m.reload()

		case key.Matches(msg, keys.Refresh):
			m.emails.Refresh()
			m.statusBar.setMessage("Refreshing...")
			return m, tea.Batch(m.reload(), m.loadCountsCmd())

		case key.Matches(msg, keys.Tab):
			if m.reader.IsVisible() {
				if m.activePane == paneList {
					m.setFocus(paneReader)
				} else {
					m.setFocus(paneList)
				}
			} else {
				if m.activePane == paneSidebar {
					m.setFocus(paneList)
				} else {
					m.setFocus(paneSidebar)
				}
			}
			return m, nil
		}

		var cmd tea.Cmd
		switch m.activePane {
		case paneSidebar:
			m.sidebar, cmd = m.sidebar.Update(msg)
		case paneList:
			m.inbox, cmd = m.inbox.Update(msg)
		case paneReader:
			m.reader, cmd = m.reader.Update(msg)
		}
		return m, cmd
	}

	// Forward everything else (cursor blink) to the search input.
	if m.search.IsActive() {
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	sidebarWidth, contentWidth := m.layoutWidths()
	contentHeight := m.height - 3 // reserve space for status bar

	sidebarView := sidebarStyle.
		Width(sidebarWidth).
		Height(contentHeight).
		Render(m.sidebar.View())

	listHeight := contentHeight
	var parts []string
	if m.search.Visible() {
		parts = append(parts, lipgloss.NewStyle().Width(contentWidth).Render(m.search.View()))
		listHeight--
	}

	if m.reader.IsVisible() {
		readerHeight := listHeight - listHeight/2
		listHeight /= 2
		parts = append(parts,
			listStyle.Width(contentWidth).Height(listHeight).Render(m.inbox.View()),
			readerStyle.Width(contentWidth).Height(readerHeight).Render(m.reader.View()),
		)
	} else {
		parts = append(parts, listStyle.Width(contentWidth).Height(listHeight).Render(m.inbox.View()))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, parts...)
	main := lipgloss.JoinHorizontal(lipgloss.Top, sidebarView, content)
	return lipgloss.JoinVertical(lipgloss.Left, main, m.statusBar.View())
}

// --- focus and layout ---

func (m *model) setFocus(p pane) {
	m.activePane = p
	m.sidebar.focused = p == paneSidebar
	m.inbox.focused = p == paneList
	m.reader.focused = p == paneReader
}

func (m *model) closeReader() {
	m.reader.Close()
	m.statusBar.readerVisible = false
	m.resizeSubModels()
}

func (m model) layoutWidths() (sidebarWidth, contentWidth int) {
	sidebarWidth = max(m.width/5, 24)
	contentWidth = m.width - sidebarWidth - 2
	return
}

func (m *model) resizeSubModels() {
	if m.width == 0 {
		return
	}
	sidebarWidth, contentWidth := m.layoutWidths()
	contentHeight := m.height - 3

	// sidebarStyle: border plus padding takes 4 cells each way.
	m.sidebar.SetSize(sidebarWidth-4, contentHeight-4)
	m.search.SetWidth(contentWidth)

	listHeight := contentHeight
	if m.search.Visible() {
		listHeight--
	}
	if m.reader.IsVisible() {
		readerHeight := listHeight - listHeight/2
		listHeight /= 2
		m.inbox.SetSize(contentWidth-4, listHeight-2)
		m.reader.SetSize(contentWidth-6, readerHeight-4)
	} else {
		m.inbox.SetSize(contentWidth-4, listHeight-2)
	}
}

// --- async commands ---

// reload requests the current page under a fresh sequence number.
func (m *model) reload() tea.Cmd {
	m.seq++
	return m.loadPageCmd(m.seq, m.filters)
}

func (m *model) applySearch(query string) tea.Cmd {
	m.filters.Search = query
	m.filters.Page = 1
	m.inbox.ResetCursor()
	if query != "" {
		m.statusBar.setMessage(fmt.Sprintf("Searching: %s", query))
	}
	return m.reload()
}

func (m model) overviewCmd(seq int, f domain.Filters) tea.Cmd {
	svc := m.emails
	return func() tea.Msg {
		ov, err := svc.Overview(context.Background(), f)
		if err != nil {
			return errMsg{err: err}
		}
		return overviewLoadedMsg{seq: seq, overview: ov}
	}
}

func (m model) loadPageCmd(seq int, f domain.Filters) tea.Cmd {
	svc := m.emails
	return func() tea.Msg {
		page, err := svc.GetEmails(context.Background(), f)
		if err != nil {
			return errMsg{err: err}
		}
		return pageLoadedMsg{seq: seq, page: page}
	}
}

func (m model) loadCountsCmd() tea.Cmd {
	svc := m.emails
	return func() tea.Msg {
		counts, err := svc.GetEmailCounts(context.Background())
		if err != nil {
			return errMsg{err: err}
		}
		return countsLoadedMsg{counts: counts}
	}
}

func (m model) loadEmailCmd(id string, refresh bool) tea.Cmd {
	svc := m.emails
	return func() tea.Msg {
		email, err := svc.GetEmailByID(context.Background(), id)
		if err != nil {
			return errMsg{err: err}
		}
		return emailLoadedMsg{email: email, refresh: refresh}
	}
}

func (m model) performActionCmd(id, action string) tea.Cmd {
	svc := m.emails
	return func() tea.Msg {
		ctx := context.Background()
		var err error
		switch action {
		case actionStar:
			err = svc.ToggleStar(ctx, id)
		case actionImportant:
			err = svc.ToggleImportant(ctx, id)
		case actionMarkRead:
			err = svc.MarkAsRead(ctx, id)
		default:
			return errMsg{err: fmt.Errorf("unknown action: %s", action)}
		}
		if err != nil {
			return errMsg{err: err}
		}
		return actionDoneMsg{emailID: id, action: action}
	}
}

// Run starts the dashboard. It returns provider.ErrAuthExpired when the
// remote service rejected the session while the dashboard was open.
func Run(emails *app.EmailService, session *app.SessionController, opts Options) error {
	prog := tea.NewProgram(NewModel(emails, session, opts), tea.WithAltScreen())

	if session != nil {
		unregister := session.OnExpire(func() { prog.Send(sessionExpiredMsg{}) })
		defer unregister()
	}

	final, err := prog.Run()
	if err != nil {
		return fmt.Errorf("failed to run dashboard: %w", err)
	}
	if m, ok := final.(model); ok && m.expired {
		return provider.ErrAuthExpired
	}
	return nil
}
