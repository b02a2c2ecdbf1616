package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"planboard/internal/board"
	"planboard/internal/codec"
	"planboard/internal/editor"
	"planboard/internal/ics"
	"planboard/internal/model"
	"planboard/internal/persist"
	"planboard/internal/session"
	"planboard/internal/store"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type editResult struct {
	Results []editor.OpResult `json:"results"`
	Board   model.Board       `json:"board"`
}

func (app *App) editorDefaults() editor.Defaults {
	return editor.Defaults{KanbanColumns: app.config().DefaultColumns}
}

func (app *App) calendarYear() int {
	if y := app.config().CalendarYear; y > 0 {
		return y
	}
	return time.Now().Year()
}

// editBoard opens a session on one board or calendar, runs edit and pushes the result
// before returning. A failed edit pushes nothing.
func (app *App) editBoard(cmd *cobra.Command, kind model.Kind, id string, edit func(*session.Session) ([]editor.OpResult, error)) error {
	owner, err := app.owner()
	if err != nil {
		return writeErr(cmd, err)
	}
	st, err := app.openStack(cmd)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer st.Close()

	ctx := cmd.Context()
	logger := app.logs()
	sess, err := session.Open(ctx, st.Backend, owner, kind, id, session.Options{
		Persist: persist.Opts{
			Debounce: app.config().DebounceDuration(),
			Logger:   logger,
		},
		Defaults: app.editorDefaults(),
		Logger:   logger,
	})
	if err != nil {
		return writeErr(cmd, err)
	}
	if sess.ReadOnly {
		return writeErr(cmd, store.OwnerOnlyError{CallerID: owner, OwnerID: sess.Entity.OwnerID, EntityID: id})
	}
	results, err := edit(sess)
	if err != nil {
		sess.Discard()
		return writeErr(cmd, err)
	}
	if err := sess.Close(ctx); err != nil {
		return writeErr(cmd, err)
	}
	logger.WithFields(log.Fields{"id": id, "ops": len(results)}).Debug("cli.edit")
	if results == nil {
		results = []editor.OpResult{}
	}
	return writeOut(cmd, app, editResult{Results: results, Board: sess.Board()})
}

func runOps(ops ...editor.Op) func(*session.Session) ([]editor.OpResult, error) {
	return func(sess *session.Session) ([]editor.OpResult, error) {
		return sess.Editor.ApplyAll(ops)
	}
}

// newContainerCmds builds the rename/move/rm/color subcommands shared by board
// columns and calendar entries.
func newContainerCmds(app *App, kind model.Kind, noun string) []*cobra.Command {
	parent := strings.TrimSuffix(CollectionName(kind), "s")

	var name string
	rename := &cobra.Command{
		Use:   fmt.Sprintf("rename <%s-id> <%s-id>", parent, noun),
		Short: "Rename a " + noun,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.editBoard(cmd, kind, args[0], runOps(editor.Op{Op: "renameContainer", Container: args[1], Name: &name}))
		},
	}
	rename.Flags().StringVar(&name, "name", "", "New name")
	_ = rename.MarkFlagRequired("name")

	var index int
	move := &cobra.Command{
		Use:   fmt.Sprintf("move <%s-id> <%s-id>", parent, noun),
		Short: "Move a " + noun + " to another position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.editBoard(cmd, kind, args[0], runOps(editor.Op{Op: "moveContainer", Container: args[1], Index: &index}))
		},
	}
	move.Flags().IntVar(&index, "index", 0, "Target position (clamped to the board)")
	_ = move.MarkFlagRequired("index")

	rm := &cobra.Command{
		Use:   fmt.Sprintf("rm <%s-id> <%s-id>", parent, noun),
		Short: "Remove a " + noun + " and its cards",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.editBoard(cmd, kind, args[0], runOps(editor.Op{Op: "removeContainer", Container: args[1]}))
		},
	}

	color := &cobra.Command{
		Use:   fmt.Sprintf("color <%s-id> <%s-id> <color>", parent, noun),
		Short: "Set the background color (palette index, #light:#dark, or none)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.editBoard(cmd, kind, args[0], runOps(editor.Op{Op: "setContainerColor", Container: args[1], Color: &args[2]}))
		},
	}
	return []*cobra.Command{rename, move, rm, color}
}

// createThenColor applies a create op and, when color is set, colors the new container.
func createThenColor(create editor.Op, color string) func(*session.Session) ([]editor.OpResult, error) {
	return func(sess *session.Session) ([]editor.OpResult, error) {
		res, err := sess.Editor.Apply(create)
		if err != nil {
			return nil, err
		}
		out := []editor.OpResult{res}
		if color == "" || !res.Changed {
			return out, nil
		}
		res, err = sess.Editor.Apply(editor.Op{Op: "setContainerColor", Container: out[0].ID, Color: &color})
		if err != nil {
			return nil, err
		}
		return append(out, res), nil
	}
}

func newColumnsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "columns",
		Short: "Edit board columns",
	}

	var name, color string
	add := &cobra.Command{
		Use:   "add <board-id>",
		Short: "Append a column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.editBoard(cmd, model.KindBoard, args[0], createThenColor(editor.Op{Op: "createContainer", Name: &name}, color))
		},
	}
	add.Flags().StringVar(&name, "name", "", "Column name (default: untitled)")
	add.Flags().StringVar(&color, "color", "", "Background color")

	cmd.AddCommand(add)
	cmd.AddCommand(newContainerCmds(app, model.KindBoard, "column")...)
	return cmd
}

func parseDate(s string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q (want YYYY-MM-DD)", s)
	}
	return d, nil
}

func newEntriesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entries",
		Short: "Edit calendar entries",
	}

	var name, color, date string
	var month, index int
	add := &cobra.Command{
		Use:   "add <calendar-id>",
		Short: "Pin an entry to a day (--date, or --month and --index)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if date != "" {
				d, err := parseDate(date)
				if err != nil {
					return writeErr(cmd, err)
				}
				month, index = board.SlotFor(d)
			} else if !cmd.Flags().Changed("month") || !cmd.Flags().Changed("index") {
				return writeErr(cmd, errors.New("missing --date (or --month and --index)"))
			}
			op := editor.Op{Op: "createCalendarEntry", Name: &name, Month: &month, Index: &index}
			return app.editBoard(cmd, model.KindCalendar, args[0], createThenColor(op, color))
		},
	}
	add.Flags().StringVar(&name, "name", "", "Entry name (default: the cell index)")
	add.Flags().StringVar(&color, "color", "", "Background color")
	add.Flags().StringVar(&date, "date", "", "Day (YYYY-MM-DD)")
	add.Flags().IntVar(&month, "month", 0, "Month (1-12)")
	add.Flags().IntVar(&index, "index", 0, "Grid cell (0-41, the grid starts on the Sunday on or before the 1st)")

	cmd.AddCommand(add)
	cmd.AddCommand(newContainerCmds(app, model.KindCalendar, "entry")...)
	return cmd
}

func newCardsCmd(app *App, kind model.Kind) *cobra.Command {
	parent := strings.TrimSuffix(CollectionName(kind), "s")
	cmd := &cobra.Command{
		Use:   "cards",
		Short: "Place documents on the " + parent,
	}

	add := &cobra.Command{
		Use:   fmt.Sprintf("add <%s-id> <container-id> <document-id>", parent),
		Short: "Add a document (moves it when already placed)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.editBoard(cmd, kind, args[0], func(sess *session.Session) ([]editor.OpResult, error) {
				docs, err := sess.Documents(cmd.Context())
				if err != nil {
					return nil, err
				}
				if _, ok := docs[args[2]]; !ok {
					return nil, store.NotFoundError{Kind: "document", ID: args[2]}
				}
				return sess.Editor.ApplyAll([]editor.Op{{Op: "addItem", Container: args[1], Item: args[2]}})
			})
		},
	}

	var to string
	var index int
	move := &cobra.Command{
		Use:   fmt.Sprintf("move <%s-id> <document-id>", parent),
		Short: "Move a card within or across containers",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.editBoard(cmd, kind, args[0], func(sess *session.Session) ([]editor.OpResult, error) {
				b := sess.Board()
				ci, _, ok := board.FindItem(b, args[1])
				if !ok {
					return nil, store.NotFoundError{Kind: "card", ID: args[1]}
				}
				target := strings.TrimSpace(to)
				if target == "" {
					target = b[ci].ID
				}
				idx := index
				if !cmd.Flags().Changed("index") {
					if c, ok := board.FindContainer(b, target); ok {
						idx = len(c.Items)
					}
				}
				return sess.Editor.ApplyAll([]editor.Op{{Op: "moveItem", Container: target, Item: args[1], Index: &idx}})
			})
		},
	}
	move.Flags().StringVar(&to, "to", "", "Target container (default: the card's container)")
	move.Flags().IntVar(&index, "index", 0, "Target position (default: the end)")

	rm := &cobra.Command{
		Use:   fmt.Sprintf("rm <%s-id> <document-id>", parent),
		Short: "Remove a card (the document itself is kept)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.editBoard(cmd, kind, args[0], runOps(editor.Op{Op: "removeItem", Item: args[1]}))
		},
	}

	color := &cobra.Command{
		Use:   fmt.Sprintf("color <%s-id> <document-id> <color>", parent),
		Short: "Set the card color (palette index, #light:#dark, or none)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.editBoard(cmd, kind, args[0], runOps(editor.Op{Op: "setItemAttribute", Item: args[1], Color: &args[2]}))
		},
	}

	priority := &cobra.Command{
		Use:   fmt.Sprintf("priority <%s-id> <document-id> <0-3>", parent),
		Short: "Set the card priority (0 clears, 1 is highest)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[2])
			if err != nil {
				return writeErr(cmd, fmt.Errorf("invalid priority %q", args[2]))
			}
			return app.editBoard(cmd, kind, args[0], runOps(editor.Op{Op: "setItemAttribute", Item: args[1], Priority: &n}))
		},
	}

	memo := &cobra.Command{
		Use:   fmt.Sprintf("memo <%s-id> <document-id> <text>", parent),
		Short: "Set the card memo (\"\" clears)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.editBoard(cmd, kind, args[0], runOps(editor.Op{Op: "setItemAttribute", Item: args[1], Memo: &args[2]}))
		},
	}

	cmd.AddCommand(add, move, rm, color, priority, memo)
	return cmd
}

func newCalendarOnCmd(app *App) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "on <calendar-id>",
		Short: "List the entries pinned to a day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseDate(date)
			if err != nil {
				return writeErr(cmd, err)
			}
			st, err := app.openStack(cmd)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer st.Close()

			e, err := st.Backend.Get(cmd.Context(), app.ownerOrAnonymous(), model.KindCalendar, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			b, _, err := codec.Decode(e.ContentString())
			if err != nil {
				return writeErr(cmd, err)
			}
			entries := board.EntriesOn(b, d)
			if entries == nil {
				entries = []model.Container{}
			}
			return writeOut(cmd, app, entries)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Day (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func newCalendarExportCmd(app *App) *cobra.Command {
	var year int
	var out string
	cmd := &cobra.Command{
		Use:   "export <calendar-id>",
		Short: "Export entries as iCalendar (.ics)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.openStack(cmd)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer st.Close()

			owner := app.ownerOrAnonymous()
			e, err := st.Backend.Get(cmd.Context(), owner, model.KindCalendar, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			b, _, err := codec.Decode(e.ContentString())
			if err != nil {
				return writeErr(cmd, err)
			}
			titles, err := documentTitles(cmd, st.Backend, owner, e)
			if err != nil {
				return writeErr(cmd, err)
			}
			if year <= 0 {
				year = app.calendarYear()
			}

			w := cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return writeErr(cmd, err)
				}
				defer f.Close()
				w = f
			}
			if err := ics.Export(w, e.Title, year, b, titles, time.Now()); err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "Year to resolve entries against (default: config calendarYear or this year)")
	cmd.Flags().StringVarP(&out, "output", "o", "", "Write to a file instead of stdout")
	return cmd
}
