package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"phishguard/internal/models"
)

var (
	phishColor = color.New(color.FgRed, color.Bold)
	legitColor = color.New(color.FgGreen, color.Bold)
	warnColor  = color.New(color.FgYellow)
)

func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze URL...",
		Short: "Analyze one or more URLs",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAnalyze,
	}
	cmd.Flags().Bool("json", false, "print the JSON result instead of a table")
	cmd.Flags().Bool("no-features", false, "omit the feature table")
	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	svc, err := loadService(cmd)
	if err != nil {
		return err
	}
	asJSON, _ := cmd.Flags().GetBool("json")
	hideFeatures, _ := cmd.Flags().GetBool("no-features")
	out := cmd.OutOrStdout()

	var failed int
	for _, u := range args {
		res, err := svc.Analyze(cmd.Context(), u)
		if err != nil {
			failed++
			warnColor.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", u, err)
			continue
		}
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return err
			}
			continue
		}
		printResult(out, res, !hideFeatures)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d urls failed", failed, len(args))
	}
	return nil
}

func printResult(w io.Writer, res *models.AnalysisResult, showFeatures bool) {
	fmt.Fprintf(w, "%s (%d ms)\n", res.Normalized, res.ElapsedMs)
	for _, p := range res.Predictions {
		switch {
		case !p.OK():
			warnColor.Fprintf(w, "  %-20s error: %s\n", p.Model, p.Error)
		case p.Label == models.LabelPhishing:
			phishColor.Fprintf(w, "  %-20s %-10s %5.1f%%\n", p.Model, p.Label, p.Confidence*100)
		default:
			legitColor.Fprintf(w, "  %-20s %-10s %5.1f%%\n", p.Model, p.Label, p.Confidence*100)
		}
	}
	for _, name := range res.Unavailable {
		warnColor.Fprintf(w, "  %-20s unavailable\n", name)
	}
	if showFeatures {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, f := range res.Features {
			fmt.Fprintf(tw, "  %s\t%d\n", f.Name, f.Value)
		}
		tw.Flush()
	}
}
