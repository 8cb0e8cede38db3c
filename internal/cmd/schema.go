package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/polyls/polyls/internal/config"
)

// schemaCmd prints the JSON Schema for config.Config, reflected from its
// jsonschema struct tags instead of a hand-maintained schema document.
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema for the polyls config file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reflector := &jsonschema.Reflector{
			DoNotReference: false,
		}
		schema := reflector.Reflect(&config.Config{})

		out, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal schema: %w", err)
		}
		cmd.Println(string(out))
		return nil
	},
}
