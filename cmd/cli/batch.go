package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"phishguard/internal/classifier"
	"phishguard/internal/features"
	"phishguard/internal/ioformats"
)

func NewBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Analyze a list of URLs from a CSV or NDJSON file",
		Long: `batch reads URLs from a CSV file with a "url" column or from NDJSON
(one URL or {"url": "..."} per line) and writes one record per URL.

The csv format writes the url, the 30 features in catalog order and one
label column per model, which is the layout used for training data.`,
		Args: cobra.NoArgs,
		RunE: runBatch,
	}
	cmd.Flags().StringP("input", "i", "", "input file (csv with 'url' column or ndjson)")
	cmd.Flags().StringP("output", "o", "", "output file (default stdout)")
	cmd.Flags().StringP("format", "f", "", "output format: ndjson or csv (default from output extension, else ndjson)")
	cmd.Flags().IntP("concurrency", "n", 4, "number of urls analyzed at once")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func outputFormat(flag, output string) (string, error) {
	f := strings.ToLower(flag)
	if f == "" {
		if strings.EqualFold(filepath.Ext(output), ".csv") {
			return "csv", nil
		}
		return "ndjson", nil
	}
	if f != "csv" && f != "ndjson" {
		return "", fmt.Errorf("unknown format %q", flag)
	}
	return f, nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	in, _ := cmd.Flags().GetString("input")
	outPath, _ := cmd.Flags().GetString("output")
	formatFlag, _ := cmd.Flags().GetString("format")
	n, _ := cmd.Flags().GetInt("concurrency")
	if n < 1 {
		n = 1
	}
	format, err := outputFormat(formatFlag, outPath)
	if err != nil {
		return err
	}

	urls, err := ioformats.ReadURLs(in)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	svc, err := loadService(cmd)
	if err != nil {
		return err
	}

	recs := make([]ioformats.Record, len(urls))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(n)
	for i, u := range urls {
		g.Go(func() error {
			res, err := svc.Analyze(ctx, u)
			recs[i] = ioformats.Record{URL: u, Result: res}
			if err != nil {
				recs[i].Error = err.Error()
			}
			return nil
		})
	}
	_ = g.Wait()

	var w io.Writer = cmd.OutOrStdout()
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	if format == "csv" {
		names := make([]string, 0, len(classifier.DefaultModels))
		for _, e := range svc.Registry().Entries() {
			names = append(names, e.Name)
		}
		return ioformats.WriteFeatureCSV(w, features.Names(), names, recs)
	}
	return ioformats.WriteNDJSON(w, recs)
}
