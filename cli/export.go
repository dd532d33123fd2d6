package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"minitodo/render"
	"minitodo/store"
)

func newExportCmd(a *App) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the whole list to " + store.BackupFileName,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd, false)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			path, err := store.ExportFile(s.exportDir(dir), s.svc.Items())
			if err != nil {
				return writeErr(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", okStyle.Sprint("exported"), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Directory to write the backup into (default: config export.dir or .)")
	return cmd
}

func newHTMLCmd(a *App) *cobra.Command {
	var (
		vf  viewFlags
		out string
	)

	cmd := &cobra.Command{
		Use:   "html",
		Short: "Render the visible list as an escaped HTML fragment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd, false)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			if err := vf.apply(s.svc); err != nil {
				return writeErr(cmd, err)
			}
			fragment := render.Render(s.svc.Visible()).HTML()
			if out == "" {
				fmt.Fprint(cmd.OutOrStdout(), fragment)
				return nil
			}
			if err := os.WriteFile(out, []byte(fragment), 0o644); err != nil {
				return writeErr(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", okStyle.Sprint("wrote"), out)
			return nil
		},
	}

	vf.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to a file instead of stdout")
	return cmd
}
