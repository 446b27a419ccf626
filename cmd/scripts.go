package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/autofx/autofx/internal/logging"
	"github.com/spf13/cobra"
)

// CreateScriptsCmd creates the scripts command.
func CreateScriptsCmd() *cobra.Command {
	var flags catalogFlags
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "scripts",
		Short: "List runnable scripts",
		Long:  `Prints the script catalog, read from scripts.toml or discovered in the backend directory.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logging.Initialize(logging.Config{Level: "warn", Format: "text"})

			catalog, err := flags.load(logging.GetLogger("scripts"))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(catalog.List())
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tINPUT\tFILE\tDESCRIPTION")
			for _, s := range catalog.List() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Name, s.Input, s.File, s.Description)
			}
			return tw.Flush()
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the catalog as JSON")

	return cmd
}
