package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/quotecheck/internal/quote"
	"github.com/dgallion1/quotecheck/internal/report"
	"github.com/dgallion1/quotecheck/internal/textnorm"
)

const snippetRunes = 80

var (
	okColor      = color.New(color.FgGreen, color.Bold)
	failColor    = color.New(color.FgRed, color.Bold)
	warnColor    = color.New(color.FgYellow)
	headerColor  = color.New(color.FgBlue, color.Bold)
	dimColor     = color.New(color.Faint)
	emphasisText = color.New(color.FgWhite, color.Bold)
)

func checkFormat(format string) error {
	switch format {
	case "text", "json", "yaml":
		return nil
	}
	return eris.Errorf("unknown format %q (want text, json or yaml)", format)
}

func writeValue(w io.Writer, format string, v any) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}

func mark(w io.Writer, valid bool) {
	if valid {
		okColor.Fprint(w, "FOUND   ")
	} else {
		failColor.Fprint(w, "MISSING ")
	}
}

func printResult(w io.Writer, res quote.MatchResult) {
	mark(w, res.Valid)
	fmt.Fprintf(w, "%s score=%.3f", res.Method, res.Score)
	if res.Position >= 0 {
		fmt.Fprintf(w, " position=%d", res.Position)
	}
	fmt.Fprintln(w)
	if res.Match != "" {
		dimColor.Fprintf(w, "  %q\n", textnorm.Truncate(res.Match, snippetRunes, "..."))
	}
	if res.Error != "" {
		warnColor.Fprintf(w, "  %s\n", res.Error)
	}
	if res.Degraded {
		warnColor.Fprintln(w, "  degraded: exact similarity backend")
	}
}

func printReport(w io.Writer, rep *report.Report) {
	headerColor.Fprintf(w, "%s\n", rep.Document)
	for _, c := range rep.Claims {
		mark(w, c.Result.Valid)
		emphasisText.Fprint(w, c.Claim.ID)
		fmt.Fprintf(w, " %s score=%.3f", c.Result.Method, c.Result.Score)
		if c.Page > 0 {
			fmt.Fprintf(w, " page=%d", c.Page)
		}
		fmt.Fprintln(w)
		dimColor.Fprintf(w, "  quote: %q\n", textnorm.Truncate(c.Claim.Quote, snippetRunes, "..."))
		for _, issue := range c.Issues {
			warnColor.Fprintf(w, "  issue: %s\n", issue)
		}
		if c.Suggestion != nil {
			warnColor.Fprintf(w, "  closest sentence (%.2f): %q\n", c.Suggestion.Score,
				textnorm.Truncate(c.Suggestion.Sentence, snippetRunes, "..."))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "confidence %.3f  valid %d/%d  average score %.3f\n",
		rep.Confidence, rep.ValidMatches, rep.TotalItems, rep.AverageScore)
	if rep.Degraded {
		warnColor.Fprintln(w, "degraded: exact similarity backend")
	}
	if rep.NeedsReview {
		failColor.Fprintln(w, "needs review")
	} else {
		okColor.Fprintln(w, "ok")
	}
}
