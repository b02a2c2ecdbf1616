package cli

import (
	"errors"
	"fmt"
	"strings"

	"planboard/internal/blocks"
	"planboard/internal/codec"
	"planboard/internal/model"
	"planboard/internal/store"

	"github.com/spf13/cobra"
)

func newEntityCmd(app *App, kind model.Kind) *cobra.Command {
	name := CollectionName(kind)
	cmd := &cobra.Command{
		Use:   name,
		Short: fmt.Sprintf("%s commands", strings.ToUpper(string(kind)[:1])+string(kind)[1:]),
	}
	cmd.AddCommand(newEntityCreateCmd(app, kind))
	cmd.AddCommand(newEntityListCmd(app, kind, false))
	cmd.AddCommand(newEntityListCmd(app, kind, true))
	cmd.AddCommand(newEntityShowCmd(app, kind))
	cmd.AddCommand(newEntityRenameCmd(app, kind))
	cmd.AddCommand(newEntityPatchCmd(app, kind, "archive", "Move to the trash", func(p *model.EntityPatch) {
		yes := true
		p.Archived = &yes
	}))
	cmd.AddCommand(newEntityPatchCmd(app, kind, "restore", "Restore from the trash", func(p *model.EntityPatch) {
		no := false
		p.Archived = &no
	}))
	cmd.AddCommand(newEntityPublishCmd(app, kind))
	cmd.AddCommand(newEntityIconCmd(app, kind))
	cmd.AddCommand(newEntityDeleteCmd(app, kind))

	switch kind {
	case model.KindBoard:
		cmd.AddCommand(newColumnsCmd(app))
		cmd.AddCommand(newCardsCmd(app, kind))
		cmd.AddCommand(newConnectCmd(app))
	case model.KindCalendar:
		cmd.AddCommand(newEntriesCmd(app))
		cmd.AddCommand(newCardsCmd(app, kind))
		cmd.AddCommand(newCalendarOnCmd(app))
		cmd.AddCommand(newCalendarExportCmd(app))
	case model.KindGuestbook:
		cmd.AddCommand(newGuestbookCommentCmd(app))
		cmd.AddCommand(newGuestbookRemoveCommentCmd(app))
	case model.KindDocument:
		cmd.AddCommand(newDocumentMoveCmd(app))
	}
	return cmd
}

func newEntityCreateCmd(app *App, kind model.Kind) *cobra.Command {
	var title string
	var parentID string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a " + string(kind),
		RunE: func(cmd *cobra.Command, args []string) error {
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
			e, err := st.Backend.Create(ctx, owner, kind, title)
			if err != nil {
				return writeErr(cmd, err)
			}
			if p := strings.TrimSpace(parentID); p != "" {
				if _, err := st.Backend.Get(ctx, owner, model.KindDocument, p); err != nil {
					return writeErr(cmd, err)
				}
				if e, err = st.Backend.Patch(ctx, owner, kind, e.ID, model.EntityPatch{ParentID: &p}); err != nil {
					return writeErr(cmd, err)
				}
			}
			return writeOut(cmd, app, e)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Title (default: Untitled)")
	if kind == model.KindDocument {
		cmd.Flags().StringVar(&parentID, "parent", "", "Parent document id")
	}
	return cmd
}

func newEntityListCmd(app *App, kind model.Kind, trash bool) *cobra.Command {
	var archived bool
	var parentID string
	var search string

	use, short := "list", "List live "+CollectionName(kind)
	if trash {
		use, short = "trash", "List archived "+CollectionName(kind)
	}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := app.owner()
			if err != nil {
				return writeErr(cmd, err)
			}
			st, err := app.openStack(cmd)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer st.Close()

			opts := store.ListOptions{Archived: archived || trash, Search: search}
			if cmd.Flags().Changed("parent") {
				p := strings.TrimSpace(parentID)
				opts.ParentID = &p
			}
			list, err := st.Backend.List(cmd.Context(), owner, kind, opts)
			if err != nil {
				return writeErr(cmd, err)
			}
			if list == nil {
				list = []model.Entity{}
			}
			return writeOut(cmd, app, list)
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "Case-insensitive title filter")
	if !trash {
		cmd.Flags().BoolVar(&archived, "archived", false, "List the trash instead")
	}
	if kind == model.KindDocument {
		cmd.Flags().StringVar(&parentID, "parent", "", "Only children of this document (\"\" for top level)")
	}
	return cmd
}

func newEntityShowCmd(app *App, kind model.Kind) *cobra.Command {
	var text bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a " + string(kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.openStack(cmd)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer st.Close()

			ctx := cmd.Context()
			owner := app.ownerOrAnonymous()
			e, err := st.Backend.Get(ctx, owner, kind, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}

			switch {
			case kind.Editable():
				b, _, err := codec.Decode(e.ContentString())
				if err != nil {
					return writeErr(cmd, err)
				}
				if text {
					titles, err := documentTitles(cmd, st.Backend, owner, e)
					if err != nil {
						return writeErr(cmd, err)
					}
					return renderBoardText(cmd.OutOrStdout(), e, b, titles, app.calendarYear())
				}
				return writeOutMeta(cmd, app, e, map[string]any{"board": b})
			case kind == model.KindDocument:
				if done, total, ok := blocks.Progress(e.ContentString()); ok {
					return writeOutMeta(cmd, app, e, map[string]any{
						"progress": map[string]int{"done": done, "total": total},
					})
				}
			}
			return writeOut(cmd, app, e)
		},
	}
	if kind.Editable() {
		cmd.Flags().BoolVar(&text, "text", false, "Render as colored text instead of structured output")
	}
	return cmd
}

func newEntityRenameCmd(app *App, kind model.Kind) *cobra.Command {
	var title string
	cmd := newEntityPatchCmd(app, kind, "rename <id>", "Change the title", func(p *model.EntityPatch) {
		t := strings.TrimSpace(title)
		p.Title = &t
	})
	cmd.Flags().StringVar(&title, "title", "", "New title")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newEntityPublishCmd(app *App, kind model.Kind) *cobra.Command {
	var off bool
	cmd := newEntityPatchCmd(app, kind, "publish <id>", "Make readable by anyone (--off to revert)", func(p *model.EntityPatch) {
		on := !off
		p.Published = &on
	})
	cmd.Flags().BoolVar(&off, "off", false, "Unpublish")
	return cmd
}

func newEntityIconCmd(app *App, kind model.Kind) *cobra.Command {
	var clear bool
	var icon string
	cmd := newEntityPatchCmd(app, kind, "icon <id>", "Set (--set) or remove (--clear) the icon", func(p *model.EntityPatch) {
		if clear {
			p.ClearIcon = true
			return
		}
		if i := strings.TrimSpace(icon); i != "" {
			p.Icon = &i
		}
	})
	cmd.Flags().StringVar(&icon, "set", "", "Icon (usually an emoji)")
	cmd.Flags().BoolVar(&clear, "clear", false, "Remove the icon")
	return cmd
}

func newConnectCmd(app *App) *cobra.Command {
	var calendarID string
	cmd := newEntityPatchCmd(app, model.KindBoard, "connect <board-id>", "Link the board to a calendar", func(p *model.EntityPatch) {
		c := strings.TrimSpace(calendarID)
		p.ConnectedCalendarID = &c
	})
	cmd.Flags().StringVar(&calendarID, "calendar", "", "Calendar id (\"\" to unlink)")
	return cmd
}

func newDocumentMoveCmd(app *App) *cobra.Command {
	var parentID string
	cmd := newEntityPatchCmd(app, model.KindDocument, "move <id>", "Nest the document under another one", func(p *model.EntityPatch) {
		pid := strings.TrimSpace(parentID)
		p.ParentID = &pid
	})
	cmd.Flags().StringVar(&parentID, "parent", "", "Parent document id (\"\" for top level)")
	return cmd
}

// newEntityPatchCmd builds a single-id command that applies one patch.
func newEntityPatchCmd(app *App, kind model.Kind, use, short string, build func(*model.EntityPatch)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := app.owner()
			if err != nil {
				return writeErr(cmd, err)
			}
			var p model.EntityPatch
			build(&p)
			if p.Empty() {
				return writeErr(cmd, errors.New("nothing to change"))
			}
			st, err := app.openStack(cmd)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer st.Close()

			e, err := st.Backend.Patch(cmd.Context(), owner, kind, args[0], p)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, e)
		},
	}
}

func newEntityDeleteCmd(app *App, kind model.Kind) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete permanently",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := app.owner()
			if err != nil {
				return writeErr(cmd, err)
			}
			st, err := app.openStack(cmd)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer st.Close()

			if err := st.Backend.Delete(cmd.Context(), owner, kind, args[0]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"id": args[0], "deleted": true})
		},
	}
}

// documentTitles maps the owner's document ids to titles; other callers only see ids.
func documentTitles(cmd *cobra.Command, backend store.Backend, owner string, e model.Entity) (map[string]string, error) {
	titles := map[string]string{}
	if owner == "" || owner != e.OwnerID {
		return titles, nil
	}
	docs, err := backend.List(cmd.Context(), owner, model.KindDocument, store.ListOptions{})
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		titles[d.ID] = d.Title
	}
	return titles, nil
}
