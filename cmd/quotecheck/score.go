package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/dgallion1/quotecheck/internal/fuzzy"
)

var (
	scoreMethod    string
	scoreAll       bool
	bestThreshold  float64
	bestMatchAsMap bool
)

var scoreCmd = &cobra.Command{
	Use:   "score A B",
	Short: "Print the similarity of two strings (0-100)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		scorer, err := newScorer()
		if err != nil {
			return err
		}
		methods := []fuzzy.Method{}
		if scoreAll {
			methods = fuzzy.Methods
		} else {
			m, err := fuzzy.ParseMethod(scoreMethod)
			if err != nil {
				return err
			}
			methods = append(methods, m)
		}

		out := cmd.OutOrStdout()
		for _, m := range methods {
			s, err := scorer.Score(args[0], args[1], m)
			if err != nil {
				return err
			}
			if len(methods) == 1 {
				fmt.Fprintln(out, s)
				continue
			}
			fmt.Fprintf(out, "%-10s %3d\n", m, s)
		}
		return nil
	},
}

var bestMatchCmd = &cobra.Command{
	Use:   "best-match QUERY CANDIDATE...",
	Short: "Find the candidate most similar to QUERY",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if bestThreshold < 0 || bestThreshold > 1 {
			return eris.Errorf("--threshold %v outside [0, 1]", bestThreshold)
		}
		scorer, err := newScorer()
		if err != nil {
			return err
		}
		match, score, idx := scorer.BestMatch(args[0], args[1:], bestThreshold)

		out := cmd.OutOrStdout()
		if bestMatchAsMap {
			return writeValue(out, "json", map[string]any{"match": match, "score": score, "index": idx})
		}
		if idx == fuzzy.NoMatch {
			failColor.Fprintln(out, "no match")
			return nil
		}
		okColor.Fprintf(out, "%d ", idx)
		fmt.Fprintf(out, "%.2f %s\n", score, match)
		return nil
	},
}

func init() {
	scoreCmd.Flags().StringVar(&scoreMethod, "method", "ratio", "ratio, partial, token_sort or token_set")
	scoreCmd.Flags().BoolVar(&scoreAll, "all", false, "print every method")
	bestMatchCmd.Flags().Float64Var(&bestThreshold, "threshold", 0.90, "minimum score in [0,1]")
	bestMatchCmd.Flags().BoolVar(&bestMatchAsMap, "json", false, "print JSON")
	rootCmd.AddCommand(scoreCmd, bestMatchCmd)
}
