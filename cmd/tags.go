package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adalundhe/semhash/core/tagging"
)

var (
	tagsMax  int
	tagsFile string
	tagsJSON bool
)

var tagsCmd = &cobra.Command{
	Use:   "tags [text]",
	Short: "Extract frequency-ranked keyword tags",
	Long: `Extract the most frequent words longer than four characters, skipping
common stopwords. Text comes from the arguments or from --file.

Examples:
  semhash tags "protein folding and protein design"
  semhash tags --file abstract.txt --max 5`,
	RunE: runTags,
}

func init() {
	rootCmd.AddCommand(tagsCmd)

	tagsCmd.Flags().IntVarP(&tagsMax, "max", "m", 0, "Maximum number of tags (default from config)")
	tagsCmd.Flags().StringVarP(&tagsFile, "file", "f", "", "Read text from a file")
	tagsCmd.Flags().BoolVar(&tagsJSON, "json", false, "Output tags as JSON")
}

func runTags(cmd *cobra.Command, args []string) error {
	text, err := tagsInput(args)
	if err != nil {
		return err
	}

	limit := tagsMax
	if limit <= 0 {
		limit = currentConfig().Tags.Max
	}
	tags := tagging.ExtractTags(text, limit)

	if tagsJSON {
		return writeJSON(cmd.OutOrStdout(), struct {
			Tags []string `json:"tags"`
		}{tags})
	}
	for _, t := range tags {
		fmt.Fprintln(cmd.OutOrStdout(), t)
	}
	return nil
}

func tagsInput(args []string) (string, error) {
	switch {
	case tagsFile != "" && len(args) > 0:
		return "", fmt.Errorf("pass text or --file, not both")
	case tagsFile != "":
		data, err := os.ReadFile(tagsFile)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", tagsFile, err)
		}
		return string(data), nil
	case len(args) == 0:
		return "", fmt.Errorf("no text given")
	default:
		return strings.Join(args, " "), nil
	}
}
