package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"minitodo/app"
	"minitodo/model"
	"minitodo/render"
)

func newAddCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <text>",
		Short: "Add a to-do at the top of the list",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd, false)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			item, added, err := s.svc.Add(strings.Join(args, " "))
			if !added {
				return writeErr(cmd, errors.New("text is empty"))
			}
			if err != nil {
				return writeErr(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s  %s\n", okStyle.Sprint("added"), idStyle.Sprint(shortID(item.ID)), render.Terminal(item.Text))
			return nil
		},
	}
}

type viewFlags struct {
	filter string
	query  string
}

func (v *viewFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&v.filter, "filter", "all", "Show all, active or done")
	cmd.Flags().StringVarP(&v.query, "query", "q", "", "Case-insensitive text search")
}

func (v *viewFlags) apply(svc *app.Service) error {
	f, err := model.ParseFilter(v.filter)
	if err != nil {
		return err
	}
	if err := svc.SetFilter(f); err != nil {
		return err
	}
	svc.SetQuery(v.query)
	return nil
}

func newListCmd(a *App) *cobra.Command {
	var (
		vf       viewFlags
		markdown bool
	)

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List to-dos",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd, false)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			if err := vf.apply(s.svc); err != nil {
				return writeErr(cmd, err)
			}
			d := render.Render(s.svc.Visible())
			if !markdown {
				writeList(cmd.OutOrStdout(), d, s.svc.Counts())
				return nil
			}
			out, err := renderMarkdown(cmd.OutOrStdout(), markdownList(d, s.svc.Counts()))
			if err != nil {
				return writeErr(cmd, err)
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}

	vf.register(cmd)
	cmd.Flags().BoolVar(&markdown, "markdown", false, "Render as a styled Markdown checklist")
	return cmd
}

// newItemCmd builds the commands that act on one item addressed by id or id prefix.
func newItemCmd(a *App, use, short string, nargs int, run func(s *session, id string, args []string) (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MinimumNArgs(nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd, false)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			id, err := s.svc.Resolve(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			msg, err := run(s, id, args[1:])
			if err != nil {
				return writeErr(cmd, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}

func newToggleCmd(a *App) *cobra.Command {
	return newItemCmd(a, "toggle <id>", "Flip a to-do between active and done", 1,
		func(s *session, id string, _ []string) (string, error) {
			if _, err := s.svc.Toggle(id); err != nil {
				return "", err
			}
			it, _ := s.svc.Item(id)
			state := "active"
			if it.Done {
				state = "done"
			}
			return fmt.Sprintf("%s %s  %s", okStyle.Sprint(state), idStyle.Sprint(shortID(id)), render.Terminal(it.Text)), nil
		})
}

func newRemoveCmd(a *App) *cobra.Command {
	return newItemCmd(a, "rm <id>", "Delete a to-do", 1,
		func(s *session, id string, _ []string) (string, error) {
			if _, err := s.svc.Delete(id); err != nil {
				return "", err
			}
			return okStyle.Sprint("deleted ") + idStyle.Sprint(shortID(id)), nil
		})
}

func newEditCmd(a *App) *cobra.Command {
	return newItemCmd(a, "edit <id> <text>", "Replace a to-do's text; empty text deletes it", 1,
		func(s *session, id string, args []string) (string, error) {
			text := strings.TrimSpace(strings.Join(args, " "))
			changed, err := s.svc.Edit(id, text)
			if err != nil {
				return "", err
			}
			switch {
			case text == "":
				return okStyle.Sprint("deleted ") + idStyle.Sprint(shortID(id)), nil
			case !changed:
				return mutedStyle.Sprint("unchanged ") + idStyle.Sprint(shortID(id)), nil
			}
			return fmt.Sprintf("%s %s  %s", okStyle.Sprint("saved"), idStyle.Sprint(shortID(id)), render.Terminal(text)), nil
		})
}

func newClearDoneCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-done",
		Short: "Delete every completed to-do",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd, false)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			removed, err := s.svc.ClearDone()
			if err != nil {
				return writeErr(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d completed to-dos cleared\n", removed)
			return nil
		},
	}
}

func newResetCmd(a *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every to-do after confirmation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd, false)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			s.svc.SetConfirmer(resetConfirmer(cmd, yes))
			reset, err := s.svc.ResetAll()
			if err != nil {
				return writeErr(cmd, err)
			}
			if !reset {
				fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Sprint("nothing deleted"))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Sprint("all to-dos deleted"))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

// resetConfirmer asks on an interactive terminal and declines otherwise unless --yes was given.
func resetConfirmer(cmd *cobra.Command, yes bool) app.Confirmer {
	return app.ConfirmFunc(func(prompt string) bool {
		if yes {
			return true
		}
		if !stdinIsTerminal() {
			fmt.Fprintln(cmd.ErrOrStderr(), mutedStyle.Sprint("not a terminal; pass --yes to confirm"))
			return false
		}
		var ok bool
		err := huh.NewConfirm().
			Title(prompt).
			Affirmative("Delete all").
			Negative("Cancel").
			Value(&ok).
			Run()
		return err == nil && ok
	})
}
