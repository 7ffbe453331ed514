package cmd

import (
	"github.com/spf13/cobra"

	"github.com/matthewbaird/filtereditor/internal/filter/autocomplete"
)

func newCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Print the field picker tree for the root model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			sc, err := e.scope()
			if err != nil {
				return err
			}
			return writeOutput(cmd, sc.Catalog())
		},
	}
}

func newCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "complete TEXT",
		Short:   "Suggest relations, fields, lookups or values for a partial field reference",
		Example: `  filterd complete --schema schema.json --root person company__`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			sc, err := e.scope()
			if err != nil {
				return err
			}
			items := autocomplete.New(sc).Complete(args[0], -1)
			if items == nil {
				items = []autocomplete.CompletionItem{}
			}
			return writeOutput(cmd, items)
		},
	}
}
