package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/GNOME/libgda-sub020/internal/sqlgraph"
)

// NewGraphCommand creates the graph command.
func NewGraphCommand(rootOpts *RootOptions) *cobra.Command {
	var scenario, output string

	cmd := &cobra.Command{
		Use:   "graph <statement-file>",
		Short: "Export a statement tree as a DOT graph",
		Long: `Export a statement tree as a Graphviz DOT digraph.

Every node is drawn as a table of its attributes; edges are labelled
with the role of the child in its parent.

Examples:
  gdasql graph stmt.json | dot -Tsvg > stmt.svg
  gdasql graph select.yaml -o select.dot`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)

			stmt, err := loadStatement(args[0], scenario)
			if err != nil {
				return failInput(formatter, err)
			}

			var buf bytes.Buffer
			if err := sqlgraph.WriteDOT(&buf, stmt); err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
			}

			if output == "" {
				if formatter.JSON() {
					return formatter.Success(map[string]string{"dot": buf.String()})
				}
				_, err := formatter.Writer.Write(buf.Bytes())
				return err
			}

			if err := os.WriteFile(output, buf.Bytes(), 0644); err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("failed to write %s: %v", output, err), nil)
			}
			formatter.VerboseLog("Wrote %d bytes to %s", buf.Len(), output)
			if formatter.JSON() {
				return formatter.Success(map[string]string{"output": output})
			}
			fmt.Fprintf(formatter.Writer, "✓ Graph written to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVar(&scenario, "scenario", "", "scenario to build from a multi-scenario CUE file")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the graph to a file instead of stdout")

	return cmd
}
