package main

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/reoring/formskema/adapters/fs"
	"github.com/reoring/formskema/document"
	"github.com/reoring/formskema/extract"
)

var (
	extractSchema string
	extractID     string
	extractIndent bool
)

var extractCmd = &cobra.Command{
	Use:   "extract FILE...",
	Short: "Extract records from documents and print them",
	Long: `Extract one record per file and print it to stdout as JSON, one record
per line. Issues of invalid documents are printed to stderr.

The document id defaults to the file name without its extension; --id sets
it explicitly when a single file is given.

Examples:
  formskema extract --schema ld1 filing.html
  formskema extract --schema ./my-form.yaml --id 3f2b8c1e9a4d4e6f8b7a1c2d3e4f5a6b form.xml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringVarP(&extractSchema, "schema", "s", "", "schema file or built-in name (overrides config)")
	extractCmd.Flags().StringVar(&extractID, "id", "", "document id (single file only)")
	extractCmd.Flags().BoolVar(&extractIndent, "indent", false, "indent the JSON output")
}

func runExtract(cmd *cobra.Command, args []string) error {
	if extractID != "" && len(args) > 1 {
		return fmt.Errorf("--id needs exactly one file, got %d", len(args))
	}
	s, err := loadSchema(extractSchema)
	if err != nil {
		return err
	}
	format, err := documentFormat()
	if err != nil {
		return err
	}
	ex := newExtractor(s)

	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	invalid := 0
	for _, path := range args {
		body, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		in := extract.Input{ID: extractID, Format: format, Body: body, Origin: path}
		if in.ID == "" {
			in.ID = fs.IDFromStem(path)
		}
		if in.Format == "" {
			if f, ok := document.FormatFromPath(path); ok {
				in.Format = f
			}
		}

		out := ex.Extract(cmd.Context(), in)
		if !out.Valid() {
			invalid++
			fmt.Fprintf(stderr, "%s: invalid\n", path)
			for _, it := range out.Issues {
				fmt.Fprintf(stderr, "  %s: %s (%s)\n", it.Path, it.Message, it.Code)
			}
			continue
		}
		for _, w := range out.Warnings {
			fmt.Fprintf(stderr, "%s: warning %s: %s (%s)\n", path, w.Path, w.Message, w.Code)
		}
		var b []byte
		if extractIndent {
			b, err = json.MarshalIndent(out.Record, "", "  ")
		} else {
			b, err = json.Marshal(out.Record)
		}
		if err != nil {
			return fmt.Errorf("%s: encode record: %w", path, err)
		}
		fmt.Fprintln(stdout, string(b))
	}
	if invalid > 0 {
		return fmt.Errorf("%d of %d documents invalid", invalid, len(args))
	}
	return nil
}
