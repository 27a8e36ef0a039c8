package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/macropower/tracefit/api/v1beta1/configs"
	"github.com/macropower/tracefit/pkg/yaml"
)

const module = "github.com/macropower/tracefit"

func main() {
	var outFile, srcDir string

	cmd := &cobra.Command{
		Use:           "schemagen",
		Short:         "Write the JSON schema for the tracefit configuration",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			gen := yaml.NewSchemaGenerator(configs.New(),
				yaml.WithGoComments(module, srcDir),
				yaml.WithSchemaID("https://"+configs.SchemaFile),
			)
			jsData, err := gen.Generate()
			if err != nil {
				return fmt.Errorf("generate JSON schema: %w", err)
			}

			err = os.WriteFile(outFile, jsData, 0o600)
			if err != nil {
				return fmt.Errorf("write schema file: %w", err)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&outFile, "out", "o", configs.SchemaFile, "Output file for the generated schema")
	cmd.Flags().StringVar(&srcDir, "src", ".", "Module root, for reading doc comments")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
