package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/reoring/formskema/ref"
)

var refCmd = &cobra.Command{
	Use:   "ref [TABLE]",
	Short: "List reference tables or the values of one",
	Long: `Without arguments, list the reference tables schemas can name in
enum_ref. With a table name, print its values.

Examples:
  formskema ref
  formskema ref sopr_general_issue_codes`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRef,
}

func init() {
	rootCmd.AddCommand(refCmd)
}

func runRef(cmd *cobra.Command, args []string) error {
	tables := ref.Tables()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	defer w.Flush()

	if len(args) == 0 {
		for _, name := range tables.Names() {
			vs, _ := tables.Enum(name)
			fmt.Fprintf(w, "%s\t%d values\n", name, len(vs))
		}
		return nil
	}

	switch args[0] {
	case ref.TableGeneralIssueCodes:
		for _, c := range ref.GeneralIssueCodes {
			fmt.Fprintf(w, "%s\t%s\n", c.Code, c.Name)
		}
	case ref.TableFilingTypeCodes:
		for _, ft := range ref.FilingTypes {
			fmt.Fprintf(w, "%s\t%s\t%s\n", ft.Code, ft.Action, ft.Name)
		}
	default:
		vs, ok := tables.Enum(args[0])
		if !ok {
			return fmt.Errorf("unknown table %q", args[0])
		}
		for _, v := range vs {
			fmt.Fprintln(w, v)
		}
	}
	return nil
}
