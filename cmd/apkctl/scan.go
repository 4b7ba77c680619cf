package main

import (
	"context"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/joshuapare/apkkit/archive"
	"github.com/joshuapare/apkkit/dex"
)

var scanJobs int

func init() {
	cmd := newScanCmd()
	cmd.Flags().IntVarP(&scanJobs, "jobs", "j", runtime.NumCPU(), "Number of files probed at once")
	rootCmd.AddCommand(cmd)
}

func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan <file>...",
		Short: "Classify files as DEX, ZIP or neither",
		Long: `The scan command probes every file concurrently. ZIPs are opened and their
classes*.dex entries counted.

Example:
  apkctl scan *.apk *.dex --jobs 4`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd.Context(), args)
		},
	}
}

type scanResult struct {
	Path  string `json:"path"`
	Kind  string `json:"kind"`
	Dexes int    `json:"dexes,omitempty"`
	Error string `json:"error,omitempty"`
}

func runScan(ctx context.Context, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	results := make([]scanResult, len(args))
	g, ctx := errgroup.WithContext(ctx)
	if scanJobs > 0 {
		g.SetLimit(scanJobs)
	}
	for i, path := range args {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = probe(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if jsonOut {
		return printJSON(results)
	}
	for _, r := range results {
		switch {
		case r.Error != "":
			printInfo("%-5s %s: %s\n", r.Kind, r.Path, r.Error)
		case r.Kind == "zip":
			printInfo("%-5s %s (%d dex)\n", r.Kind, r.Path, r.Dexes)
		default:
			printInfo("%-5s %s\n", r.Kind, r.Path)
		}
	}
	return nil
}

func probe(path string) scanResult {
	r := scanResult{Path: path, Kind: "other"}
	switch {
	case dex.IsDexFile(path):
		r.Kind = "dex"
	case archive.IsZip(path):
		r.Kind = "zip"
		a, src, err := openArchive(path, archive.OpenOptions{SkipSignatureBlock: true})
		if err != nil {
			r.Error = err.Error()
			return r
		}
		defer src.Close()
		for _, e := range a.Entries() {
			if strings.HasPrefix(e.FileName, "classes") && strings.HasSuffix(e.FileName, ".dex") {
				r.Dexes++
			}
		}
	}
	return r
}
