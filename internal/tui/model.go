package tui

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"dashgrid/internal/format"
	"dashgrid/internal/grid"
	"dashgrid/internal/notify"
	"dashgrid/internal/store"
	"dashgrid/internal/surface"
	"dashgrid/internal/workspace"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

const (
	viewTimebox = surface.Timebox
	viewKanban  = surface.Kanban
	viewSidebar = surface.Sidebar
)

// Screen geometry, in terminal cells.
const (
	tabsRow      = 0
	gridTop      = 3
	footerRows   = 2
	gutter       = 6
	gapX         = 1
	sidebarWidth = 30
	minCellWidth = 3
)

type (
	frameMsg struct {
		view  string
		frame surface.Frame
		ch    <-chan surface.Frame
		ok    bool
	}
	tickMsg struct {
		now time.Time
		ch  <-chan time.Time
		ok  bool
	}
	noticeMsg  struct{ notice notify.Notice }
	expiredMsg struct{}
	weekMsg    struct {
		offset int
		err    error
	}
	statusMsg struct {
		text string
		err  error
	}
)

type subscription struct {
	ch     <-chan surface.Frame
	cancel func()
}

type appModel struct {
	ctx      context.Context
	ws       *workspace.Workspace
	log      *zap.Logger
	stateDir string

	keys  keyMap
	help  help.Model
	input textinput.Model

	width  int
	height int

	view      string
	firstSlot int
	now       time.Time

	// Target of the last left click, for keyboard actions.
	lastCell    grid.Coord
	hasLastCell bool
	lastCard    string
	lastModule  string

	showHelp bool
	adding   bool
	status   string
	errored  bool

	subs  map[string]*subscription
	clock *subscription
	tick  <-chan time.Time
}

func newModel(ctx context.Context, ws *workspace.Workspace, stateDir string) appModel {
	in := textinput.New()
	in.Placeholder = "New card title"
	in.Prompt = "add › "
	in.CharLimit = 200

	m := appModel{
		ctx:      ctx,
		ws:       ws,
		log:      ws.Logger().Named("tui"),
		stateDir: stateDir,
		keys:     defaultKeyMap(),
		help:     help.New(),
		input:    in,
		width:    80,
		height:   24,
		view:     viewTimebox,
		now:      ws.Clock.Now(),
		subs:     map[string]*subscription{},
	}
	m.restoreState()
	for _, name := range surface.Names() {
		m.subscribe(name)
	}
	tick, cancel := ws.Clock.Subscribe()
	m.tick = tick
	m.clock = &subscription{cancel: cancel}
	m.relayout()
	return m
}

// restoreState applies the saved UI state. Failures fall back to defaults.
func (m *appModel) restoreState() {
	st, err := store.LoadTUIState(m.stateDir)
	if err != nil {
		m.log.Warn("load tui state", zap.Error(err))
		return
	}
	switch st.View {
	case viewTimebox, viewKanban, viewSidebar:
		m.view = st.View
	}
	if st.WeekOffset != 0 {
		if _, err := m.ws.SetWeek(m.ctx, st.WeekOffset); err != nil {
			m.log.Warn("restore week", zap.Int("offset", st.WeekOffset), zap.Error(err))
		}
	}
	if st.ActivityID != "" {
		_ = m.ws.Timebox().SetActivity(st.ActivityID)
	}
	m.firstSlot = st.FirstSlot
}

func (m appModel) saveState() {
	st := &store.TUIState{
		View:       m.view,
		ActivityID: m.ws.Timebox().Activity(),
		WeekOffset: m.ws.WeekOffset(),
		FirstSlot:  m.firstSlot,
	}
	if err := store.SaveTUIState(m.stateDir, st); err != nil {
		m.log.Warn("save tui state", zap.Error(err))
	}
}

func (m *appModel) subscribe(name string) tea.Cmd {
	if old := m.subs[name]; old != nil {
		old.cancel()
	}
	s, ok := m.ws.Surface(name)
	if !ok {
		return nil
	}
	ch, cancel := s.Subscribe()
	m.subs[name] = &subscription{ch: ch, cancel: cancel}
	return waitFrame(name, ch)
}

// close releases every subscription.
func (m appModel) close() {
	for _, s := range m.subs {
		s.cancel()
	}
	if m.clock != nil {
		m.clock.cancel()
	}
}

func waitFrame(view string, ch <-chan surface.Frame) tea.Cmd {
	return func() tea.Msg {
		f, ok := <-ch
		return frameMsg{view: view, frame: f, ch: ch, ok: ok}
	}
}

func waitTick(ch <-chan time.Time) tea.Cmd {
	return func() tea.Msg {
		t, ok := <-ch
		return tickMsg{now: t, ch: ch, ok: ok}
	}
}

func (m appModel) Init() tea.Cmd {
	cmds := []tea.Cmd{waitTick(m.tick)}
	for name, s := range m.subs {
		cmds = append(cmds, waitFrame(name, s.ch))
	}
	return tea.Batch(cmds...)
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.relayout()
		return m, nil

	case frameMsg:
		if !msg.ok {
			return m, nil
		}
		if s := m.subs[msg.view]; s == nil || s.ch != msg.ch {
			return m, nil
		}
		return m, waitFrame(msg.view, msg.ch)

	case tickMsg:
		if !msg.ok {
			return m, nil
		}
		m.now = msg.now
		return m, waitTick(msg.ch)

	case noticeMsg:
		return m, tea.Tick(time.Until(msg.notice.ExpiresAt)+10*time.Millisecond, func(time.Time) tea.Msg { return expiredMsg{} })

	case expiredMsg:
		return m, nil

	case weekMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.status = ""
		cmd := m.subscribe(viewTimebox)
		m.relayout()
		return m, cmd

	case statusMsg:
		if msg.err != nil {
			m.setError(msg.err)
		} else {
			m.status, m.errored = msg.text, false
		}
		return m, nil

	case tea.BlurMsg:
		m.ws.CancelAll()
		return m, nil

	case tea.MouseMsg:
		return m.updateMouse(msg)

	case tea.KeyMsg:
		return m.updateKey(msg)
	}
	return m, nil
}

func (m appModel) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.showHelp || m.adding {
		return m, nil
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.scroll(-1)
		return m, nil
	case tea.MouseButtonWheelDown:
		m.scroll(1)
		return m, nil
	}

	p := grid.Point{X: msg.X, Y: msg.Y}
	if msg.Action == tea.MouseActionPress && msg.Y == tabsRow {
		if v, ok := m.tabAt(msg.X); ok && msg.Button == tea.MouseButtonLeft {
			m.switchView(v)
		}
		return m, nil
	}

	s, _ := m.ws.Surface(m.view)
	var err error
	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonLeft:
			m.remember(p)
			err = s.PointerDown(p)
		case tea.MouseButtonRight:
			if m.view == viewTimebox {
				if co, ok := m.ws.Timebox().Layout().Resolve(p); ok {
					_, err = m.ws.Timebox().ClearAt(co)
				}
			}
		}
	case tea.MouseActionMotion:
		err = s.PointerMove(p)
	case tea.MouseActionRelease:
		_, err = s.PointerUp()
	}
	if !surface.Ignorable(err) {
		m.setError(err)
	}
	return m, nil
}

func (m appModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.adding {
		return m.updateInput(msg)
	}
	if m.showHelp {
		if key.Matches(msg, m.keys.Quit) && msg.String() == "ctrl+c" {
			return m.quit()
		}
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
	case key.Matches(msg, m.keys.Cancel):
		if s, ok := m.ws.Surface(m.view); ok && s.Cancel() {
			m.status, m.errored = "drag cancelled", false
		}
	case key.Matches(msg, m.keys.NextTab):
		m.switchView(m.nextView(1))
	case key.Matches(msg, m.keys.PrevTab):
		m.switchView(m.nextView(-1))
	case key.Matches(msg, m.keys.Timebox):
		m.switchView(viewTimebox)
	case key.Matches(msg, m.keys.Kanban):
		m.switchView(viewKanban)
	case key.Matches(msg, m.keys.Sidebar):
		m.switchView(viewSidebar)
	case key.Matches(msg, m.keys.Yank):
		return m, m.copySnapshot()
	default:
		switch m.view {
		case viewTimebox:
			return m.updateTimeboxKey(msg)
		case viewKanban:
			return m.updateKanbanKey(msg)
		case viewSidebar:
			return m.updateSidebarKey(msg)
		}
	}
	return m, nil
}

func (m appModel) updateTimeboxKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.ws.Timebox()
	switch {
	case key.Matches(msg, m.keys.Up):
		m.scroll(-1)
	case key.Matches(msg, m.keys.Down):
		m.scroll(1)
	case key.Matches(msg, m.keys.PrevAct):
		p.CycleActivity(-1)
	case key.Matches(msg, m.keys.NextAct):
		p.CycleActivity(1)
	case key.Matches(msg, m.keys.PrevWeek):
		return m, m.changeWeek(-1)
	case key.Matches(msg, m.keys.NextWeek):
		return m, m.changeWeek(1)
	case key.Matches(msg, m.keys.Complete):
		if m.hasLastCell {
			if _, err := p.ToggleCompleted(m.lastCell); err != nil {
				m.setError(err)
			}
		}
	case key.Matches(msg, m.keys.Delete):
		if m.hasLastCell {
			if _, err := p.ClearAt(m.lastCell); err != nil {
				m.setError(err)
			}
		}
	}
	return m, nil
}

func (m appModel) updateKanbanKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Add):
		m.adding = true
		m.input.Reset()
		cmd := m.input.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Delete):
		if m.lastCard == "" {
			return m, nil
		}
		if _, err := m.ws.Kanban.Remove(m.lastCard); err != nil {
			m.setError(err)
			return m, nil
		}
		m.lastCard = ""
		m.relayout()
	}
	return m, nil
}

func (m appModel) updateSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Reset):
		m.ws.Sidebar.Reset()
	case key.Matches(msg, m.keys.Theme):
		m.ws.Sidebar.SetDark(!m.ws.Sidebar.Snapshot().DarkSidebar)
	}
	return m, nil
}

func (m appModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.adding = false
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		m.adding = false
		m.input.Blur()
		c, err := m.ws.Kanban.Add(m.input.Value(), "", "")
		if err != nil {
			m.setError(err)
			return m, nil
		}
		m.status, m.errored = fmt.Sprintf("added %q", c.Title), false
		m.relayout()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m appModel) quit() (tea.Model, tea.Cmd) {
	m.ws.CancelAll()
	return m, tea.Quit
}

func (m *appModel) setError(err error) {
	if err == nil {
		return
	}
	m.status, m.errored = err.Error(), true
	m.log.Debug("action failed", zap.String("view", m.view), zap.Error(err))
}

// switchView changes tab. A gesture on the view being left is cancelled.
func (m *appModel) switchView(v string) {
	if v == m.view {
		return
	}
	if s, ok := m.ws.Surface(m.view); ok {
		s.Cancel()
	}
	m.view = v
	m.relayout()
}

func (m appModel) nextView(delta int) string {
	names := surface.Names()
	idx := 0
	for i, n := range names {
		if n == m.view {
			idx = i
		}
	}
	n := len(names)
	return names[((idx+delta)%n+n)%n]
}

func (m appModel) changeWeek(delta int) tea.Cmd {
	ws, ctx := m.ws, m.ctx
	offset := ws.WeekOffset() + delta
	activity := ws.Timebox().Activity()
	return func() tea.Msg {
		p, err := ws.SetWeek(ctx, offset)
		if err == nil {
			_ = p.SetActivity(activity)
		}
		return weekMsg{offset: offset, err: err}
	}
}

func (m appModel) copySnapshot() tea.Cmd {
	ws := m.ws
	return func() tea.Msg {
		var buf bytes.Buffer
		if err := format.WriteJSON(&buf, ws.Export(), true); err != nil {
			return statusMsg{err: err}
		}
		if err := clipboard.WriteAll(buf.String()); err != nil {
			return statusMsg{err: fmt.Errorf("copy snapshot: %w", err)}
		}
		return statusMsg{text: "copied snapshot to clipboard"}
	}
}

// remember records what a left click landed on so keyboard actions can
// target it.
func (m *appModel) remember(p grid.Point) {
	switch m.view {
	case viewTimebox:
		m.lastCell, m.hasLastCell = m.ws.Timebox().Layout().Resolve(p)
	case viewKanban:
		l := m.ws.Kanban.Layout()
		pos, ok := l.Resolve(p)
		m.lastCard = ""
		if ok && l.HasCard(pos) {
			cards := m.ws.Kanban.Cards()
			m.lastCard = cards[pos.Col][pos.Index].ID
		}
	case viewSidebar:
		if i, ok := m.ws.Sidebar.Layout().Resolve(p); ok {
			order := m.ws.Sidebar.Order()
			m.lastModule = order[i]
		}
	}
}

func (m appModel) bodyRows() int {
	rows := m.height - gridTop - footerRows
	if rows < 1 {
		return 1
	}
	return rows
}

func (m *appModel) scroll(delta int) {
	if m.view != viewTimebox {
		return
	}
	m.firstSlot += delta
	m.relayout()
}

func (m appModel) timeboxCellWidth() int {
	days := m.ws.Timebox().Config().Days
	w := (m.width - gutter - (days-1)*gapX) / days
	if w < minCellWidth {
		return minCellWidth
	}
	return w
}

func (m appModel) kanbanColumnWidth() int {
	n := len(m.ws.Kanban.Columns())
	w := (m.width - (n-1)*gapX) / n
	if w < 8 {
		return 8
	}
	return w
}

// relayout pushes the current geometry into every surface so pointer events
// resolve against what is on screen.
func (m *appModel) relayout() {
	planner := m.ws.Timebox()
	cfg := planner.Config()
	rows := m.bodyRows()
	maxFirst := cfg.SlotsPerDay() - rows
	if maxFirst < 0 {
		maxFirst = 0
	}
	if m.firstSlot > maxFirst {
		m.firstSlot = maxFirst
	}
	if m.firstSlot < 0 {
		m.firstSlot = 0
	}
	first := m.firstSlot
	planner.SetLayout(grid.Layout{
		OriginX:    gutter,
		OriginY:    gridTop,
		CellWidth:  m.timeboxCellWidth(),
		CellHeight: 1,
		GapX:       gapX,
		FirstSlot:  first,
		Disabled: func(co grid.Coord) bool {
			return co.Slot < first || co.Slot >= first+rows
		},
	})
	m.ws.Kanban.SetLayout(grid.BoardLayout{
		OriginY:     gridTop,
		ColumnWidth: m.kanbanColumnWidth(),
		GapX:        gapX,
		RowHeight:   1,
	})
	m.ws.Sidebar.SetLayout(grid.ListLayout{
		OriginY:   gridTop,
		Width:     sidebarWidth,
		RowHeight: 1,
	})
}
