// This file implements the hash and cosine commands.
package cmd

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adalundhe/semhash/core/semhash"
)

var (
	hashJSON bool
	hashAll  bool

	cosineVectors bool
	cosineJSON    bool
)

var hashCmd = &cobra.Command{
	Use:   "hash <text>",
	Short: "Print the hashed 4-gram vector of text",
	Long: `Print the 256-dimensional, L2-normalized hashed character 4-gram vector
of the given text. By default only non-zero buckets are listed.

Examples:
  semhash hash "gene therapy"
  semhash hash --json "gene therapy" | jq '.vector[229]'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runHash,
}

var cosineCmd = &cobra.Command{
	Use:   "cosine <a> <b>",
	Short: "Cosine similarity of two texts or vectors",
	Long: `Compute the cosine similarity of the hashed vectors of two texts.

With --vectors, each argument is a comma-separated list of numbers and the
vectors are compared directly. Only the common prefix of the two vectors is
used; trailing entries of the longer one are ignored.

Examples:
  semhash cosine "protein engineering" "engineered proteins"
  semhash cosine --vectors 1,0,0 1,0`,
	Args: cobra.ExactArgs(2),
	RunE: runCosine,
}

func init() {
	rootCmd.AddCommand(hashCmd)
	rootCmd.AddCommand(cosineCmd)

	hashCmd.Flags().BoolVar(&hashJSON, "json", false, "Output the vector as JSON")
	hashCmd.Flags().BoolVar(&hashAll, "all", false, "List zero buckets too")

	cosineCmd.Flags().BoolVar(&cosineVectors, "vectors", false, "Treat arguments as comma-separated vectors")
	cosineCmd.Flags().BoolVar(&cosineJSON, "json", false, "Output as JSON")
}

type hashOutput struct {
	Text   string    `json:"text"`
	Vector []float32 `json:"vector"`
}

func runHash(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	vec := semhash.HashNgrams(text)

	if hashJSON {
		return writeJSON(cmd.OutOrStdout(), hashOutput{Text: text, Vector: vec})
	}
	outputHashVector(cmd.OutOrStdout(), vec, hashAll)
	return nil
}

func outputHashVector(w io.Writer, vec []float32, all bool) {
	p := paletteFor(w)
	nonzero := 0
	for i, v := range vec {
		if v == 0 && !all {
			continue
		}
		if v != 0 {
			nonzero++
		}
		fmt.Fprintf(w, "%s%3d%s  %.6f\n", p.gray, i, p.reset, v)
	}
	if nonzero == 0 && !all {
		fmt.Fprintf(w, "%sAll %d buckets are zero (input shorter than %d bytes).%s\n",
			p.yellow, semhash.Dimension, semhash.NgramSize, p.reset)
	}
}

type cosineOutput struct {
	Similarity float32 `json:"similarity"`
}

func runCosine(cmd *cobra.Command, args []string) error {
	var a, b []float32
	if cosineVectors {
		var err error
		if a, err = parseVector(args[0]); err != nil {
			return fmt.Errorf("first vector: %w", err)
		}
		if b, err = parseVector(args[1]); err != nil {
			return fmt.Errorf("second vector: %w", err)
		}
	} else {
		a, b = semhash.HashNgrams(args[0]), semhash.HashNgrams(args[1])
	}

	sim := semhash.Cosine(a, b)
	if cosineJSON {
		return writeJSON(cmd.OutOrStdout(), cosineOutput{Similarity: sim})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%.6f\n", sim)
	return nil
}

// parseVector parses "1,0.5,-2". An empty string is the empty vector.
func parseVector(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []float32{}, nil
	}

	parts := strings.Split(s, ",")
	vec := make([]float32, len(parts))
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("entry %d: %q is not a finite number", i, part)
		}
		vec[i] = float32(f)
	}
	return vec, nil
}
