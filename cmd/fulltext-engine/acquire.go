package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/fulltext-engine/internal/identify"
	"github.com/pdiddy/fulltext-engine/pkg/types"
)

var acquireCmd = &cobra.Command{
	Use:   "acquire [identifiers...]",
	Short: "Acquire full-text PDFs for publications",
	Long: `Acquire resolves publication identifiers (DOIs, PubMed IDs, PMC IDs,
arXiv IDs), discovers candidate URLs across all enabled sources, and
downloads the best available full text with fallback. Identifiers can be
passed as arguments or read from a YAML file of publication records.`,
	RunE: runAcquire,
}

func init() {
	acquireCmd.Flags().String("dataset", "", "dataset context for the acquired records (required)")
	acquireCmd.Flags().String("input", "", "YAML file holding a list of publication records")
	acquireCmd.Flags().Int("workers", 0, "maximum concurrent acquisitions (default 4)")

	rootCmd.AddCommand(acquireCmd)
}

func runAcquire(cmd *cobra.Command, args []string) error {
	dataset, _ := cmd.Flags().GetString("dataset")
	if dataset == "" {
		return fmt.Errorf("--dataset is required")
	}
	inputFile, _ := cmd.Flags().GetString("input")
	workers, _ := cmd.Flags().GetInt("workers")

	raws, err := collectInputs(dataset, args, inputFile)
	if err != nil {
		return err
	}
	if len(raws) == 0 {
		return fmt.Errorf("provide identifiers as arguments or records via --input")
	}

	eng, err := newEngine(cmd)
	if err != nil {
		return err
	}
	defer eng.Close()

	results, err := eng.AcquireFullTextBatch(cmd.Context(), raws, workers)
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		switch {
		case r.Err != nil:
			fmt.Fprintf(os.Stdout, "failed   input %d: %v\n", r.Index, r.Err)
			failed++
		case r.Outcome.Succeeded():
			tag := ""
			if r.Outcome.Cached {
				tag = " (cached)"
			}
			fmt.Fprintf(os.Stdout, "acquired %s via %s%s\n", r.Key, r.Outcome.Provider, tag)
		default:
			fmt.Fprintf(os.Stdout, "failed   %s: %d attempts exhausted\n", r.Key, len(r.Outcome.Trail))
			failed++
		}
	}
	fmt.Fprintf(os.Stdout, "\nacquired: %d, failed: %d\n", len(results)-failed, failed)

	if failed > 0 {
		return fmt.Errorf("%d publication(s) failed acquisition", failed)
	}
	return nil
}

// collectInputs merges positional identifiers and the --input file into
// one input list.
func collectInputs(dataset string, args []string, inputFile string) ([]types.RawPublication, error) {
	var raws []types.RawPublication

	for _, arg := range args {
		raw := types.RawPublication{DatasetID: dataset}
		switch kind, value := identify.Classify(arg); kind {
		case identify.TypeDOI:
			raw.DOI = value
		case identify.TypePMID:
			raw.PMID = value
		case identify.TypePMCID:
			raw.PMCID = value
		case identify.TypePreprint:
			raw.PreprintID = value
		default:
			return nil, fmt.Errorf("unrecognized identifier %q", arg)
		}
		raws = append(raws, raw)
	}

	if inputFile != "" {
		data, err := os.ReadFile(inputFile)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", inputFile, err)
		}
		var fromFile []types.RawPublication
		if err := yaml.Unmarshal(data, &fromFile); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", inputFile, err)
		}
		for i := range fromFile {
			if fromFile[i].DatasetID == "" {
				fromFile[i].DatasetID = dataset
			}
		}
		raws = append(raws, fromFile...)
	}

	return raws, nil
}
