package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matthewbaird/filtereditor/internal/filter/expr"
	"github.com/matthewbaird/filtereditor/internal/filter/present"
	"github.com/matthewbaird/filtereditor/internal/types"
)

// rendered is the output of the render command.
type rendered struct {
	Filter []any         `json:"filter" yaml:"filter"`
	Tree   *present.Node `json:"tree" yaml:"tree"`
}

func newRenderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "render [FILTER|-]",
		Short: "Render a wire-form filter as an editor tree",
		Example: `  filterd render --schema schema.json --root person '["=", "age__gt", 18]'
  echo '["and"]' | filterd render --schema schema.json --root person -o yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			sc, err := e.scope()
			if err != nil {
				return err
			}
			data, err := readFilterArg(cmd, args)
			if err != nil {
				return err
			}
			f, err := expr.ParseJSON(data)
			if err != nil {
				return err
			}
			canon, tree, err := present.Normalize(f, sc)
			if err != nil {
				return err
			}
			return writeOutput(cmd, rendered{Filter: expr.Encode(canon), Tree: tree})
		},
	}
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [FILTER|-]",
		Short: "Check a wire-form filter against the schema",
		Long:  `validate exits non-zero and prints the error code when the filter does not render.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			sc, err := e.scope()
			if err != nil {
				return err
			}
			data, err := readFilterArg(cmd, args)
			if err != nil {
				return err
			}
			f, err := expr.ParseJSON(data)
			if err == nil {
				_, err = present.Render(f, sc)
			}
			if err != nil {
				return fmt.Errorf("%s: %w", types.ErrorCode(err), err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}
