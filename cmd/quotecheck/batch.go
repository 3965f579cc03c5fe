package main

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgallion1/quotecheck/internal/claims"
	"github.com/dgallion1/quotecheck/internal/quote"
)

// errNeedsReview makes the process exit with status 2.
var errNeedsReview = eris.New("extraction needs review")

var (
	batchDocument    string
	batchClaims      string
	batchFormat      string
	batchConcurrency int
	batchDedupe      float64
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Validate every claim in a claims file against a document",
	Long: "Validates each claim's quote, attaches page numbers and the closest sentence for rejected quotes, " +
		"and summarizes confidence. Exits with status 2 when confidence is below validation.review_threshold.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkFormat(batchFormat); err != nil {
			return err
		}
		if batchDedupe < 0 || batchDedupe > 1 {
			return eris.Errorf("--dedupe %v outside [0, 1]", batchDedupe)
		}

		v, err := newValidator(0, 0)
		if err != nil {
			return err
		}
		b, err := newBuilder(v, batchConcurrency)
		if err != nil {
			return err
		}

		_, doc, err := loadDocument(batchDocument)
		if err != nil {
			return err
		}
		f, err := os.Open(batchClaims)
		if err != nil {
			return eris.Wrapf(err, "open claims %s", batchClaims)
		}
		list, err := claims.Load(f)
		f.Close()
		if err != nil {
			return eris.Wrapf(err, "load claims %s", batchClaims)
		}

		if batchDedupe > 0 {
			before := len(list)
			list = claims.Dedupe(list, v.Scorer(), batchDedupe)
			zap.L().Info("deduplicated claims", zap.Int("before", before), zap.Int("after", len(list)))
		}

		rep, err := b.Build(cmd.Context(), doc, list, func(i int, res quote.MatchResult, elapsed time.Duration) {
			zap.L().Debug("claim validated",
				zap.String("claim", list[i].ID),
				zap.String("method", string(res.Method)),
				zap.Float64("score", res.Score),
				zap.Duration("elapsed", elapsed),
			)
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch batchFormat {
		case "json":
			err = rep.WriteJSON(out)
		case "yaml":
			err = rep.WriteYAML(out)
		default:
			printReport(out, rep)
		}
		if err != nil {
			return err
		}
		if rep.NeedsReview {
			return errNeedsReview
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchDocument, "document", "", "document file to search")
	batchCmd.Flags().StringVar(&batchClaims, "claims", "", "claims file (JSON or YAML)")
	batchCmd.Flags().StringVar(&batchFormat, "format", "text", "output format: text, json or yaml")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "claims validated at once (default from config)")
	batchCmd.Flags().Float64Var(&batchDedupe, "dedupe", 0, "drop claims whose quote matches an earlier one at this similarity (0 disables)")
	_ = batchCmd.MarkFlagRequired("document")
	_ = batchCmd.MarkFlagRequired("claims")
	rootCmd.AddCommand(batchCmd)
}
