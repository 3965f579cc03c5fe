package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgallion1/quotecheck/internal/config"
	"github.com/dgallion1/quotecheck/internal/textnorm"
)

var (
	cfg       *config.Config
	resources *textnorm.Resources
)

var rootCmd = &cobra.Command{
	Use:   "quotecheck",
	Short: "Verify that extracted quotes appear in their source documents",
	Long: "Checks quotes produced by an extraction step against the document they came from, " +
		"using exact, partial and sliding-window fuzzy matching, and reports a confidence score for the batch.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}

		r, err := textnorm.EnsureResourcesReady()
		if err != nil {
			return eris.Wrap(err, "load text resources")
		}
		resources = r
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if eris.Is(err, errNeedsReview) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
