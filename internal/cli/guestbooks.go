package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newGuestbookCommentCmd(app *App) *cobra.Command {
	var name, content, password string
	cmd := &cobra.Command{
		Use:   "comment <guestbook-id>",
		Short: "Sign a guestbook (no user needed)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(content) == "" {
				return writeErr(cmd, errors.New("missing --content"))
			}
			st, err := app.openStack(cmd)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer st.Close()

			c, err := st.Backend.AddComment(cmd.Context(), args[0], name, password, content)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, c)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&content, "content", "", "Comment text")
	cmd.Flags().StringVar(&password, "password", "", "Password that allows removing the comment later")
	return cmd
}

func newGuestbookRemoveCommentCmd(app *App) *cobra.Command {
	var password string
	var prompt bool
	cmd := &cobra.Command{
		Use:   "remove-comment <guestbook-id> <comment-id>",
		Short: "Remove a comment (its password, or guestbook owner)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if prompt {
				p, err := readPassword(cmd)
				if err != nil {
					return writeErr(cmd, err)
				}
				password = p
			}
			st, err := app.openStack(cmd)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer st.Close()

			if err := st.Backend.RemoveComment(cmd.Context(), app.ownerOrAnonymous(), args[0], args[1], password); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"guestbookId": args[0], "commentId": args[1], "removed": true})
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "Comment password")
	cmd.Flags().BoolVar(&prompt, "prompt", false, "Read the password from the terminal")
	return cmd
}

func readPassword(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("--prompt needs an interactive terminal")
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", err
	}
	return string(b), nil
}
