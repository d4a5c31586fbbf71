package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yunwei-afs/datascreen/pkg/dataset"
	"github.com/yunwei-afs/datascreen/pkg/screen"
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Filter a tabular dataset with column-predicate rules",
	Long: `Load a dataset, apply the rules from a JSON or YAML document, and
write the rows surviving every rule. Rules naming unknown columns or
unsupported conditions are skipped with a warning.`,
	RunE: runFilter,
}

func init() {
	rootCmd.AddCommand(filterCmd)
	filterCmd.Flags().StringP("input", "i", "", "input dataset (.csv, .xlsx, .sqlite, .db)")
	filterCmd.Flags().StringP("output", "o", "", "output path for the filtered dataset")
	filterCmd.Flags().StringP("rules", "r", "", "rules document (.json, .yaml)")
	_ = filterCmd.MarkFlagRequired("input")
	_ = filterCmd.MarkFlagRequired("output")
	_ = filterCmd.MarkFlagRequired("rules")
}

func runFilter(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")
	rulesPath, _ := cmd.Flags().GetString("rules")

	tbl, err := dataset.Load(input)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	doc, err := screen.ReadRuleDoc(rulesPath)
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}

	s := screen.New(logger)
	s.SetData(tbl)
	s.AddRulesFromMap(doc)

	result, err := s.Apply()
	if err != nil {
		return err
	}

	if err := dataset.Save(result.Table, output); err != nil {
		return fmt.Errorf("save result: %w", err)
	}

	fmt.Printf("Screened %d rows down to %d\n", tbl.Len(), result.Table.Len())
	for _, d := range result.Skipped() {
		fmt.Printf("  rule %q %s\n", d.Rule.String(), d.Outcome)
	}
	fmt.Printf("Result written to %s\n", output)
	return nil
}
