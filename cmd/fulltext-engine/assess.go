package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Assess publication quality for a dataset",
	Long: `Assess scores every stored publication under a dataset from its
metadata (completeness, identifier strength, venue, citations), persists
the assessments, and reports records falling below the configured
minimum level.`,
	RunE: runAssess,
}

func init() {
	assessCmd.Flags().String("dataset", "", "dataset to assess (required)")

	rootCmd.AddCommand(assessCmd)
}

func runAssess(cmd *cobra.Command, args []string) error {
	dataset, _ := cmd.Flags().GetString("dataset")
	if dataset == "" {
		return fmt.Errorf("--dataset is required")
	}

	eng, err := newEngine(cmd)
	if err != nil {
		return err
	}
	defer eng.Close()

	assessments, removed, err := eng.AssessQuality(cmd.Context(), dataset)
	if err != nil {
		return err
	}

	for _, a := range assessments {
		fmt.Fprintf(os.Stdout, "%-10s %.2f  %s\n", a.Level, a.Score, a.RecordKey)
		for _, issue := range a.Issues {
			fmt.Fprintf(os.Stdout, "           - %s\n", issue)
		}
	}
	fmt.Fprintf(os.Stdout, "\nassessed: %d, below minimum: %d\n", len(assessments), removed)
	return nil
}
