package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"planboard/internal/board"
	"planboard/internal/dragdrop"
	"planboard/internal/model"
	"planboard/internal/session"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	log "github.com/sirupsen/logrus"
)

type mode int

const (
	modeNormal mode = iota
	modeInput
	modeSearch
)

type inputPurpose int

const (
	inputNewContainer inputPurpose = iota
	inputRename
	inputMemo
)

type pushFailedMsg struct{ err error }

// boardTop is the first screen row of the columns (title bar + spacer above).
const boardTop = 2

const searchRows = 8

type appModel struct {
	ctx    context.Context
	sess   *session.Session
	year   int
	logger *log.Logger

	width  int
	height int

	docs map[string]model.Entity
	view boardView
	sel  selection
	last renderedBoard

	mode      mode
	purpose   inputPurpose
	input     textinput.Model
	searchSel int

	showDetail bool
	status     string
	statusErr  bool

	pushErrors PushErrors

	drag       *dragdrop.Gesture
	boardDrop  *dragdrop.Coordinator
	itemDrops  map[string]*dragdrop.Coordinator
	dragOrigin dragdrop.Point
}

func newModel(ctx context.Context, sess *session.Session, opts Options) (*appModel, error) {
	docs, err := sess.Documents(ctx)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	year := opts.Year
	if year <= 0 {
		year = time.Now().Year()
	}
	in := textinput.New()
	in.Prompt = ""
	in.CharLimit = 200

	m := &appModel{
		ctx:        ctx,
		sess:       sess,
		year:       year,
		logger:     logger,
		width:      80,
		height:     24,
		docs:       docs,
		input:      in,
		pushErrors: opts.PushErrors,
		boardDrop:  dragdrop.ForBoard(),
		itemDrops:  map[string]*dragdrop.Coordinator{},
	}
	m.refresh()
	return m, nil
}

func (m *appModel) refresh() {
	m.view = buildBoardView(m.sess.Visible(), m.sess.Editor.Variant(), m.year, m.docs)
	m.sel = m.view.clamp(m.sel)
}

func (m *appModel) waitForPushError() tea.Cmd {
	if m.pushErrors == nil {
		return nil
	}
	ch := m.pushErrors
	return func() tea.Msg {
		err, ok := <-ch
		if !ok {
			return nil
		}
		return pushFailedMsg{err: err}
	}
}

func (m *appModel) Init() tea.Cmd {
	return m.waitForPushError()
}

func (m *appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case pushFailedMsg:
		m.flashErr(fmt.Errorf("save failed: %w", msg.err))
		return m, m.waitForPushError()
	case tea.MouseMsg:
		if m.mode == modeNormal {
			m.handleMouse(msg)
		}
		return m, nil
	case tea.KeyMsg:
		switch m.mode {
		case modeInput:
			return m.updateInput(msg)
		case modeSearch:
			return m.updateSearch(msg)
		default:
			return m.updateNormal(msg)
		}
	}
	return m, nil
}

func (m *appModel) flash(s string) {
	m.status = s
	m.statusErr = false
}

func (m *appModel) flashErr(err error) {
	m.status = err.Error()
	m.statusErr = true
	m.logger.WithFields(log.Fields{"id": m.sess.Entity.ID, "err": err}).Warn("tui.error")
}

// edited refreshes the view after an editor call and reports a no-op.
func (m *appModel) edited(changed bool, what string) {
	m.refresh()
	if !changed {
		m.flash("nothing changed")
		return
	}
	m.flash(what)
}

func (m *appModel) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ed := m.sess.Editor
	col, hasCol := m.view.selectedColumn(m.sel)
	cd, hasCard := m.view.selectedCard(m.sel)
	m.status = ""

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "h", "left":
		m.sel = m.view.clamp(selection{Col: m.sel.Col - 1, Item: m.sel.Item})
	case "l", "right":
		m.sel = m.view.clamp(selection{Col: m.sel.Col + 1, Item: m.sel.Item})
	case "k", "up":
		m.sel = m.view.clamp(selection{Col: m.sel.Col, Item: m.sel.Item - 1})
	case "j", "down":
		m.sel = m.view.clamp(selection{Col: m.sel.Col, Item: m.sel.Item + 1})
	case "tab":
		m.showDetail = !m.showDetail
	case "n":
		placeholder := "column name"
		if ed.Variant() == model.VariantCalendar {
			placeholder = "YYYY-MM-DD name"
		}
		return m, m.startInput(inputNewContainer, placeholder, "")
	case "r":
		if hasCol {
			return m, m.startInput(inputRename, "name", col.Container.Name)
		}
	case "m":
		if hasCard {
			return m, m.startInput(inputMemo, "memo (markdown)", cd.Ref.Memo)
		}
	case "d":
		if hasCol {
			m.edited(ed.RemoveContainer(col.Container.ID), "removed "+col.Label)
		}
	case "x":
		if hasCard {
			m.edited(ed.RemoveItem(cd.Ref.ID), "removed "+cd.Title)
		}
	case "H", "L":
		if !hasCard {
			break
		}
		to := m.sel.Col - 1
		if msg.String() == "L" {
			to = m.sel.Col + 1
		}
		if to < 0 || to >= len(m.view.cols) {
			break
		}
		target := m.view.cols[to].Container.ID
		at := m.view.boardIndex(m.sess.Board(), to, min(m.sel.Item, len(m.view.cols[to].Cards)))
		m.edited(ed.MoveItem(target, cd.Ref.ID, at), "moved "+cd.Title)
	case "J":
		if hasCard {
			// Targets count positions in the current order, so "below the next card" is +2.
			at := m.view.boardIndex(m.sess.Board(), m.sel.Col, m.sel.Item+2)
			m.edited(ed.MoveItem(col.Container.ID, cd.Ref.ID, at), "moved "+cd.Title)
		}
	case "K":
		if hasCard && m.sel.Item > 0 {
			at := m.view.boardIndex(m.sess.Board(), m.sel.Col, m.sel.Item-1)
			m.edited(ed.MoveItem(col.Container.ID, cd.Ref.ID, at), "moved "+cd.Title)
		}
	case ">":
		if hasCol {
			m.sel.Col++
			m.edited(ed.MoveContainer(col.Container.ID, m.sel.Col+1), "moved "+col.Label)
		}
	case "<":
		if hasCol && m.sel.Col > 0 {
			m.sel.Col--
			m.edited(ed.MoveContainer(col.Container.ID, m.sel.Col), "moved "+col.Label)
		}
	case "p":
		if hasCard {
			next := (cd.Ref.Priority + 1) % (model.PriorityLow + 1)
			m.edited(ed.SetItemPriority(cd.Ref.ID, next), fmt.Sprintf("priority %d", next))
		}
	case "c":
		if hasCard {
			m.edited(ed.SetItemColor(cd.Ref.ID, nextColor(cd.Ref.Color, model.ItemPalette)), "card color")
		}
	case "C":
		if hasCol {
			m.edited(ed.SetContainerColor(col.Container.ID, nextColor(col.Container.Color, model.ContainerPalette)), "column color")
		}
	case "a":
		if !hasCol {
			m.flash("add a column first")
			break
		}
		m.sess.ToggleSearch()
		m.mode = modeSearch
		m.searchSel = 0
		m.input.Placeholder = "search documents"
		m.input.SetValue("")
		return m, m.input.Focus()
	}
	return m, nil
}

// nextColor cycles none -> palette[0] -> ... -> palette[n-1] -> none.
func nextColor(cur *model.Color, palette []model.Color) *model.Color {
	if cur == nil {
		c := palette[0]
		return &c
	}
	for i := range palette {
		if palette[i].Equal(cur) && i+1 < len(palette) {
			c := palette[i+1]
			return &c
		}
	}
	return nil
}

func (m *appModel) startInput(p inputPurpose, placeholder, value string) tea.Cmd {
	m.mode = modeInput
	m.purpose = p
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *appModel) endInput() {
	m.mode = modeNormal
	m.input.Blur()
	m.input.SetValue("")
}

func (m *appModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.endInput()
		return m, nil
	case "enter":
		value := m.input.Value()
		m.endInput()
		if err := m.submitInput(value); err != nil {
			m.flashErr(err)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

var errBadEntryDate = errors.New("want YYYY-MM-DD followed by an optional name")

func (m *appModel) submitInput(value string) error {
	ed := m.sess.Editor
	switch m.purpose {
	case inputNewContainer:
		if ed.Variant() == model.VariantCalendar {
			fields := strings.Fields(value)
			if len(fields) == 0 {
				return errBadEntryDate
			}
			date, err := time.Parse("2006-01-02", fields[0])
			if err != nil {
				return errBadEntryDate
			}
			month, index := board.SlotFor(date)
			id, ok := ed.NewCalendarEntry(strings.Join(fields[1:], " "), index, month)
			m.edited(ok, "added entry")
			m.selectContainer(id)
			return nil
		}
		id, ok := ed.NewContainer(value)
		m.edited(ok, "added column")
		m.selectContainer(id)
	case inputRename:
		if col, ok := m.view.selectedColumn(m.sel); ok {
			m.edited(ed.RenameContainer(col.Container.ID, value), "renamed")
		}
	case inputMemo:
		if cd, ok := m.view.selectedCard(m.sel); ok {
			m.edited(ed.SetItemMemo(cd.Ref.ID, strings.TrimSpace(value)), "memo saved")
		}
	}
	return nil
}

func (m *appModel) selectContainer(id string) {
	for i, c := range m.view.cols {
		if c.Container.ID == id {
			m.sel = m.view.clamp(selection{Col: i})
			return
		}
	}
}

func (m *appModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	results := m.sess.SearchResults()
	switch msg.String() {
	case "esc":
		m.closeSearch()
		return m, nil
	case "up", "ctrl+p":
		m.searchSel = max(m.searchSel-1, 0)
		return m, nil
	case "down", "ctrl+n":
		m.searchSel = min(m.searchSel+1, max(len(results)-1, 0))
		return m, nil
	case "enter":
		if m.searchSel < len(results) {
			doc := results[m.searchSel]
			if col, ok := m.view.selectedColumn(m.sel); ok {
				changed := m.sess.Editor.AddItem(col.Container.ID, doc.ID)
				m.closeSearch()
				m.edited(changed, "added "+doc.Title)
				m.sel = m.view.clamp(selection{Col: m.sel.Col, ItemID: doc.ID})
				return m, nil
			}
		}
		m.closeSearch()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.sess.Query = m.input.Value()
	m.searchSel = 0
	return m, cmd
}

func (m *appModel) closeSearch() {
	if m.sess.SearchOpen {
		m.sess.ToggleSearch()
	}
	m.endInput()
}

func (m *appModel) View() string {
	w := max(m.width, 20)
	title := strings.TrimSpace(m.sess.Entity.Title)
	if title == "" {
		title = m.sess.Entity.ID
	}
	head := lipgloss.NewStyle().Bold(true).Render(title) + styleMuted().Render("  "+string(m.sess.Kind()))
	if m.sess.ReadOnly {
		head += "  " + lipgloss.NewStyle().Foreground(colorReadOnlyFg).Render("read-only")
	} else if m.sess.Pending() {
		head += styleMuted().Render("  saving…")
	}

	footer := m.footer(w)
	var detail string
	if m.showDetail && m.mode == modeNormal {
		detail = m.detail(w)
	}
	var search string
	if m.mode == modeSearch {
		search = m.searchList(w)
	}

	used := boardTop + lipgloss.Height(footer)
	if detail != "" {
		used += lipgloss.Height(detail)
	}
	if search != "" {
		used += lipgloss.Height(search)
	}
	boardH := max(m.height-used, 3)
	m.last = renderColumns(m.view, m.sel, m.dropHint(), w, boardH, boardTop)

	parts := []string{normalizePane(head, w, 1), "", m.last.out}
	if detail != "" {
		parts = append(parts, detail)
	}
	if search != "" {
		parts = append(parts, search)
	}
	parts = append(parts, footer)
	return strings.Join(parts, "\n")
}

func (m *appModel) footer(w int) string {
	switch m.mode {
	case modeInput:
		prompt := map[inputPurpose]string{inputNewContainer: "new", inputRename: "rename", inputMemo: "memo"}[m.purpose]
		return renderInputLine(w, prompt, m.input.View())
	case modeSearch:
		return renderInputLine(w, "add", m.input.View())
	}
	if m.status != "" {
		st := styleMuted()
		if m.statusErr {
			st = lipgloss.NewStyle().Foreground(colorFlashFg).Background(colorFlashBg)
		}
		return normalizePane(st.Render(truncateText(m.status, w)), w, 1)
	}
	help := "h/j/k/l move  n new  r rename  d delete  a add  x remove  H/J/K/L shift  </> column  p priority  c/C color  m memo  tab detail  q quit"
	return normalizePane(styleMuted().Render(truncateText(help, w)), w, 1)
}

func (m *appModel) detail(w int) string {
	cd, ok := m.view.selectedCard(m.sel)
	if !ok {
		return ""
	}
	lines := []string{lipgloss.NewStyle().Bold(true).Render(truncateText(cd.Title, w))}
	if cd.Progress != "" {
		lines = append(lines, styleMuted().Render("checklist "+cd.Progress))
	}
	if memo := renderMemo(cd.Ref.Memo, w-2); memo != "" {
		lines = append(lines, memo)
	} else {
		lines = append(lines, styleMuted().Render("(no memo; press m to add one)"))
	}
	return normalizePane(strings.Join(lines, "\n"), w, min(len(lines), 8))
}

func (m *appModel) searchList(w int) string {
	results := m.sess.SearchResults()
	b := m.sess.Board()
	lines := make([]string, 0, searchRows)
	for i, d := range results {
		if i >= searchRows {
			break
		}
		label := d.Title
		if strings.TrimSpace(label) == "" {
			label = d.ID
		}
		if board.Placed(b, d.ID) {
			label += styleMuted().Render("  (placed)")
		}
		if i == m.searchSel {
			label = lipgloss.NewStyle().Foreground(colorSelectedFg).Background(colorSelectedBg).Render("› " + label)
		} else {
			label = "  " + label
		}
		lines = append(lines, label)
	}
	if len(lines) == 0 {
		lines = append(lines, styleMuted().Render("  (no matching documents)"))
	}
	return normalizePane(strings.Join(lines, "\n"), w, len(lines))
}
