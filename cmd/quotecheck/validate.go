package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	validateDocument   string
	validateQuote      string
	validateThreshold  float64
	validateWindowSize int
	validateFormat     string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a single quote against a document",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkFormat(validateFormat); err != nil {
			return err
		}
		v, err := newValidator(validateThreshold, validateWindowSize)
		if err != nil {
			return err
		}
		_, doc, err := loadDocument(validateDocument)
		if err != nil {
			return err
		}

		res, err := v.Validate(cmd.Context(), validateQuote, doc.Text)
		if err != nil {
			return eris.Wrap(err, "validate quote")
		}

		if validateFormat != "text" {
			return writeValue(cmd.OutOrStdout(), validateFormat, res)
		}
		printResult(cmd.OutOrStdout(), res)
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateDocument, "document", "", "document file to search")
	validateCmd.Flags().StringVar(&validateQuote, "quote", "", "quote to look for")
	validateCmd.Flags().Float64Var(&validateThreshold, "threshold", 0, "acceptance threshold in [0,1] (default from config)")
	validateCmd.Flags().IntVar(&validateWindowSize, "window-size", 0, "window size in characters (default from config)")
	validateCmd.Flags().StringVar(&validateFormat, "format", "text", "output format: text, json or yaml")
	_ = validateCmd.MarkFlagRequired("document")
	_ = validateCmd.MarkFlagRequired("quote")
	rootCmd.AddCommand(validateCmd)
}
