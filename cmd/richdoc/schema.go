package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/aisa-it/richdoc/internal/richdoc/editor/nodes"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print node and mark types of the document schema as json",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := nodes.NewSchema()
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(nodes.Describe(reg))
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
