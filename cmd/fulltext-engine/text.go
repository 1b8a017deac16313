package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var textCmd = &cobra.Command{
	Use:   "text [record-key]",
	Short: "Print the extracted plain text of an acquired publication",
	Long: `Text prints the extracted full text of a previously acquired
publication, extracting from the stored PDF on first use and serving the
cached content afterwards. The record key is the one reported by acquire
(e.g. "ds1|doi:10.1234/abc").`,
	Args: cobra.ExactArgs(1),
	RunE: runText,
}

func init() {
	rootCmd.AddCommand(textCmd)
}

func runText(cmd *cobra.Command, args []string) error {
	eng, err := newEngine(cmd)
	if err != nil {
		return err
	}
	defer eng.Close()

	text, err := eng.ExtractedText(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, text)
	return nil
}
