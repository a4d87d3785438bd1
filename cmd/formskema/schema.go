package main

import (
	"context"
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/reoring/formskema/jsonschema"
	"github.com/reoring/formskema/schema"
	"github.com/reoring/formskema/schemas"
	"github.com/reoring/formskema/validate"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Inspect, check and export schemas",
}

var schemaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the built-in schemas",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range schemas.Names() {
			s, err := schemas.Load(name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-26s %-5s %s\n", name, s.Format, s.Title)
		}
		return nil
	},
}

var schemaCheckCmd = &cobra.Command{
	Use:   "check SCHEMA...",
	Short: "Compile schemas and report every problem",
	Long: `Compile each schema (a file or a built-in name) and report all problems
with their positions, instead of stopping at the first.

Examples:
  formskema schema check ./forms/ld2.yaml
  formskema schema check ld1 house_post_employment`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSchemaCheck,
}

var schemaExportCheck []string

var schemaExportCmd = &cobra.Command{
	Use:   "export SCHEMA",
	Short: "Print the JSON Schema of the records a schema emits",
	Long: `Print the JSON Schema (draft 2020-12) describing the records a schema
emits. With --check, validate record files against both the JSON Schema and
the schema's own validator instead of printing.

Examples:
  formskema schema export ld1 > ld1.schema.json
  formskema schema export ld1 --check OUT/3f2b8c1e.json`,
	Args: cobra.ExactArgs(1),
	RunE: runSchemaExport,
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.AddCommand(schemaListCmd, schemaCheckCmd, schemaExportCmd)
	schemaExportCmd.Flags().StringSliceVar(&schemaExportCheck, "check", nil, "record files to validate")
}

func runSchemaCheck(cmd *cobra.Command, args []string) error {
	failed := 0
	for _, ref := range args {
		s, err := loadSchema(ref)
		if err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", ref, err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%s, %d properties)\n", ref, s.Title, len(s.Root.Properties))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d schemas failed", failed, len(args))
	}
	return nil
}

func runSchemaExport(cmd *cobra.Command, args []string) error {
	s, err := loadSchema(args[0])
	if err != nil {
		return err
	}
	js := s.JSONSchema()
	if len(schemaExportCheck) == 0 {
		b, err := json.MarshalIndent(js, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return nil
	}

	checker, err := jsonschema.Compile(js)
	if err != nil {
		return fmt.Errorf("compile exported schema: %w", err)
	}
	failed := 0
	for _, path := range schemaExportCheck {
		if err := checkRecordFile(cmd.Context(), s, checker, path); err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", path)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d records failed", failed, len(schemaExportCheck))
	}
	return nil
}

func checkRecordFile(ctx context.Context, s *schema.Schema, c *jsonschema.Checker, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := c.Check(b); err != nil {
		return err
	}
	if iss := validate.JSON(ctx, s, b); len(iss) > 0 {
		return iss
	}
	return nil
}
