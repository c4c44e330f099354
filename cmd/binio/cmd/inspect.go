package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/andrei-cloud/go_binio/internal/config"
)

func newInspectCmd() *cobra.Command {
	var asJSON bool

	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "List the exports and imports of the guest module",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context(), config.Get())
			if err != nil {
				return err
			}
			defer s.Close()

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(s.info)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintf(w, "Guest: %s (%s, %d bytes)\n\n", s.info.Name, s.info.Source, s.info.Size)
			fmt.Fprintln(w, "Export\tKind\tSignature")
			fmt.Fprintln(w, "------\t----\t---------")
			for _, e := range s.info.Exports {
				fmt.Fprintf(w, "%s\t%s\t%s\n", e.Name, e.Kind, e.Signature())
			}
			if len(s.info.Imports) > 0 {
				fmt.Fprintf(w, "\nImports: %s\n", strings.Join(s.info.Imports, ", "))
			}

			return w.Flush()
		},
	}

	inspectCmd.Flags().BoolVar(&asJSON, "json", false, "print module metadata as JSON")

	return inspectCmd
}
