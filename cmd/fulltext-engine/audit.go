package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Report stored acquisition state and cache traffic",
	RunE:  runAudit,
}

func init() {
	auditCmd.Flags().String("dataset", "", "restrict the report to one dataset")

	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	dataset, _ := cmd.Flags().GetString("dataset")

	eng, err := newEngine(cmd)
	if err != nil {
		return err
	}
	defer eng.Close()

	report, err := eng.Audit(cmd.Context(), dataset)
	if err != nil {
		return err
	}

	out, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	_, err = os.Stdout.Write(out)
	return err
}
