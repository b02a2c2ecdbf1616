package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"planboard/internal/editor"
	"planboard/internal/ids"
	"planboard/internal/model"
	"planboard/internal/persist"
	"planboard/internal/session"
	"planboard/internal/store"

	tea "github.com/charmbracelet/bubbletea"
	xansi "github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	st  *store.Store
	doc model.Entity
	m   *appModel
}

func newFixture(t *testing.T, kind model.Kind) fixture {
	t.Helper()
	ctx := context.Background()
	st, err := store.OpenSQLite(ctx, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	doc, err := st.Create(ctx, "alice", model.KindDocument, "Write report")
	require.NoError(t, err)
	e, err := st.Create(ctx, "alice", kind, "Sprint")
	require.NoError(t, err)

	sess, err := session.Open(ctx, st, "alice", kind, e.ID, session.Options{
		Persist:  persist.Opts{Debounce: time.Hour},
		Defaults: editor.Defaults{KanbanColumns: []string{"Todo", "Done"}},
		IDs:      &ids.Sequence{Prefix: "col"},
	})
	require.NoError(t, err)
	t.Cleanup(sess.Discard)

	m, err := newModel(ctx, sess, Options{Year: 2024})
	require.NoError(t, err)
	m.width, m.height = 120, 30
	return fixture{st: st, doc: doc, m: m}
}

func keys(m *appModel, in ...string) {
	for _, k := range in {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m.Update(msg)
	}
}

func TestModel_RendersBoard(t *testing.T) {
	f := newFixture(t, model.KindBoard)
	require.True(t, f.m.sess.Editor.AddItem(f.m.view.cols[0].Container.ID, f.doc.ID))
	f.m.refresh()

	out := f.m.View()
	assert.Contains(t, out, "Sprint")
	assert.Contains(t, out, "Todo (1)")
	assert.Contains(t, out, "Done (0)")
	assert.Contains(t, out, "Write report")
}

func TestModel_KeyboardEditing(t *testing.T) {
	f := newFixture(t, model.KindBoard)
	ed := f.m.sess.Editor
	require.True(t, ed.AddItem(f.m.view.cols[0].Container.ID, f.doc.ID))
	f.m.refresh()

	keys(f.m, "L")
	b := ed.Board()
	assert.Empty(t, b[0].Items)
	require.Len(t, b[1].Items, 1)
	assert.Equal(t, 1, f.m.sel.Col, "selection follows the moved card")

	keys(f.m, "p", "p")
	assert.Equal(t, model.PriorityMedium, ed.Board()[1].Items[0].Priority)

	keys(f.m, "c")
	assert.True(t, model.ItemPalette[0].Equal(ed.Board()[1].Items[0].Color))

	keys(f.m, "m", "ship **friday**", "enter")
	assert.Equal(t, "ship **friday**", ed.Board()[1].Items[0].Memo)

	keys(f.m, "n", "Review", "enter")
	require.Len(t, ed.Board(), 3)
	assert.Equal(t, "Review", ed.Board()[2].Name)
	assert.Equal(t, 2, f.m.sel.Col)

	keys(f.m, "<")
	assert.Equal(t, "Review", ed.Board()[1].Name)

	keys(f.m, "r", "!", "enter")
	assert.Equal(t, "Review!", ed.Board()[1].Name)

	keys(f.m, "d")
	require.Len(t, ed.Board(), 2)
	assert.True(t, f.m.sess.Pending())
}

func TestModel_EscapeCancelsInput(t *testing.T) {
	f := newFixture(t, model.KindBoard)
	keys(f.m, "n", "Ignored", "esc")
	assert.Len(t, f.m.sess.Board(), 2)
	assert.Equal(t, modeNormal, f.m.mode)
}

func TestModel_AddFromSearch(t *testing.T) {
	f := newFixture(t, model.KindBoard)
	keys(f.m, "a", "report")
	assert.Contains(t, f.m.View(), "Write report")

	keys(f.m, "enter")
	b := f.m.sess.Board()
	require.Len(t, b[0].Items, 1)
	assert.Equal(t, f.doc.ID, b[0].Items[0].ID)
	assert.False(t, f.m.sess.SearchOpen)
	assert.Equal(t, f.doc.ID, f.m.sel.ItemID)
}

func TestModel_CalendarEntryFromDate(t *testing.T) {
	f := newFixture(t, model.KindCalendar)
	require.Empty(t, f.m.sess.Board(), "calendars start without entries")

	keys(f.m, "n", "2024-03-05 Standup", "enter")
	b := f.m.sess.Board()
	require.Len(t, b, 1)
	assert.Equal(t, "Standup", b[0].Name)
	require.NotNil(t, b[0].CalendarMonth)
	require.NotNil(t, b[0].CalendarIndex)
	assert.Equal(t, 3, *b[0].CalendarMonth)
	assert.Equal(t, 9, *b[0].CalendarIndex)
	assert.Contains(t, f.m.View(), "Tue Mar 5 · Standup")

	keys(f.m, "n", "tomorrow", "enter")
	assert.Len(t, f.m.sess.Board(), 1)
	assert.True(t, f.m.statusErr)
}

func TestModel_MouseDragMovesCard(t *testing.T) {
	f := newFixture(t, model.KindBoard)
	require.True(t, f.m.sess.Editor.AddItem(f.m.view.cols[0].Container.ID, f.doc.ID))
	f.m.refresh()
	f.m.View()

	var from, to hitBox
	for _, h := range f.m.last.hits {
		switch {
		case h.Kind == hitCard && h.Col == 0:
			from = h
		case h.Kind == hitColumn && h.Col == 1:
			to = h
		}
	}
	require.Equal(t, hitCard, from.Kind)

	f.m.Update(tea.MouseMsg{X: from.Rect.X + 1, Y: from.Rect.Y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	f.m.Update(tea.MouseMsg{X: to.Rect.X + 1, Y: to.Rect.Y + 5, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	assert.Equal(t, &dropHint{Col: 1, Index: 0}, f.m.dropHint())
	f.m.Update(tea.MouseMsg{X: to.Rect.X + 1, Y: to.Rect.Y + 5, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})

	b := f.m.sess.Board()
	assert.Empty(t, b[0].Items)
	require.Len(t, b[1].Items, 1)
	assert.Nil(t, f.m.dropHint())
}

// hiddenRefFixture places a reference to a deleted document ahead of two visible cards.
func hiddenRefFixture(t *testing.T) (fixture, model.Entity) {
	t.Helper()
	f := newFixture(t, model.KindBoard)
	ctx := context.Background()
	other, err := f.st.Create(ctx, "alice", model.KindDocument, "Book venue")
	require.NoError(t, err)
	f.m.sess.RefreshDocuments()
	docs, err := f.m.sess.Documents(ctx)
	require.NoError(t, err)
	f.m.docs = docs

	todo := f.m.view.cols[0].Container.ID
	ed := f.m.sess.Editor
	require.True(t, ed.AddItem(todo, "doc-gone"))
	require.True(t, ed.AddItem(todo, f.doc.ID))
	require.True(t, ed.AddItem(todo, other.ID))
	f.m.refresh()
	require.Len(t, f.m.view.cols[0].Cards, 2)
	return f, other
}

func storedIDs(c model.Container) []string {
	out := make([]string, 0, len(c.Items))
	for _, it := range c.Items {
		out = append(out, it.ID)
	}
	return out
}

func TestModel_ReorderSkipsHiddenReferences(t *testing.T) {
	f, other := hiddenRefFixture(t)
	f.m.sel = f.m.view.clamp(selection{ItemID: f.doc.ID})
	require.Equal(t, 0, f.m.sel.Item)

	keys(f.m, "J")
	assert.Equal(t, []string{"doc-gone", other.ID, f.doc.ID}, storedIDs(f.m.sess.Board()[0]))
	assert.Equal(t, 1, f.m.sel.Item)

	keys(f.m, "K")
	assert.Equal(t, []string{"doc-gone", f.doc.ID, other.ID}, storedIDs(f.m.sess.Board()[0]))

	// A round trip through Done returns the card to the same visible slot.
	keys(f.m, "L")
	keys(f.m, "H")
	assert.Equal(t, []string{"doc-gone", f.doc.ID, other.ID}, storedIDs(f.m.sess.Board()[0]))
}

func TestModel_MouseDropSkipsHiddenReferences(t *testing.T) {
	f, other := hiddenRefFixture(t)
	f.m.View()

	var from, to hitBox
	for _, h := range f.m.last.hits {
		switch {
		case h.Kind == hitCard && h.Col == 0 && h.Item == 0:
			from = h
		case h.Kind == hitColumn && h.Col == 0:
			to = h
		}
	}
	require.Equal(t, hitCard, from.Kind)
	require.Equal(t, hitColumn, to.Kind)

	bottom := to.Rect.Y + to.Rect.H - 1
	f.m.Update(tea.MouseMsg{X: from.Rect.X + 1, Y: from.Rect.Y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	f.m.Update(tea.MouseMsg{X: to.Rect.X + 1, Y: bottom, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	f.m.Update(tea.MouseMsg{X: to.Rect.X + 1, Y: bottom, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})

	assert.Equal(t, []string{"doc-gone", other.ID, f.doc.ID}, storedIDs(f.m.sess.Board()[0]))
}

func TestModel_PushFailureShowsInStatus(t *testing.T) {
	f := newFixture(t, model.KindBoard)
	f.m.Update(pushFailedMsg{err: errors.New("disk full")})
	assert.True(t, f.m.statusErr)
	assert.Contains(t, f.m.View(), "save failed: disk full")
}

func TestPushErrors_DoesNotBlock(t *testing.T) {
	p := make(PushErrors, 1)
	p.PushFailed(errors.New("one"))
	p.PushFailed(errors.New("two"))
	assert.EqualError(t, <-p, "one")
}

func TestNextColor_Cycles(t *testing.T) {
	palette := model.ItemPalette
	c := nextColor(nil, palette)
	require.NotNil(t, c)
	assert.True(t, palette[0].Equal(c))
	last := palette[len(palette)-1]
	assert.Nil(t, nextColor(&last, palette))
}

func TestModel_DetailShowsMemo(t *testing.T) {
	f := newFixture(t, model.KindBoard)
	ed := f.m.sess.Editor
	require.True(t, ed.AddItem(f.m.view.cols[0].Container.ID, f.doc.ID))
	require.True(t, ed.SetItemMemo(f.doc.ID, "call the printer"))
	f.m.refresh()

	keys(f.m, "tab")
	out := xansi.Strip(f.m.View())
	assert.True(t, strings.Contains(out, "call the printer"), out)
}
