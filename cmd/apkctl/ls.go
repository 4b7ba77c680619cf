package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshuapare/apkkit/archive"
	"github.com/joshuapare/apkkit/internal/format"
)

var lsDigest bool

func init() {
	cmd := newLsCmd()
	cmd.Flags().BoolVar(&lsDigest, "digest", false, "Compute the sha256 digest of every entry")
	rootCmd.AddCommand(cmd)
	rootCmd.AddCommand(newCatCmd())
}

func newLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls <file>",
		Short: "List the entries of a ZIP",
		Long: `The ls command lists every central directory entry with its compression
method, sizes and CRC-32.

Example:
  apkctl ls app.apk
  apkctl ls app.apk --digest --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLs(args)
		},
	}
}

type entryReport struct {
	Name         string    `json:"name"`
	Method       uint16    `json:"method"`
	Compressed   uint64    `json:"compressed"`
	Uncompressed uint64    `json:"uncompressed"`
	CRC32        uint32    `json:"crc32"`
	Modified     time.Time `json:"modified"`
	Digest       string    `json:"digest,omitempty"`
}

func runLs(args []string) error {
	path := args[0]
	printVerbose("Opening archive: %s\n", path)

	a, src, err := openArchive(path, archive.OpenOptions{SkipSignatureBlock: true})
	if err != nil {
		return err
	}
	defer src.Close()

	entries := make([]entryReport, 0, len(a.Entries()))
	for _, e := range a.Entries() {
		r := entryReport{
			Name:         e.FileName,
			Method:       e.Method,
			Compressed:   e.CompressedSize,
			Uncompressed: e.UncompressedSize,
			CRC32:        e.CRC32,
			Modified:     e.Modified(),
		}
		if lsDigest && !e.IsDir() {
			d, err := a.Digest(e.FileName)
			if err != nil {
				return fmt.Errorf("failed to digest %s: %w", e.FileName, err)
			}
			r.Digest = d.String()
		}
		entries = append(entries, r)
	}

	if jsonOut {
		return printJSON(map[string]any{
			"file":    path,
			"entries": entries,
			"count":   len(entries),
		})
	}

	for _, r := range entries {
		method := "stored"
		if r.Method == format.MethodDeflate {
			method = "deflate"
		}
		printInfo("%10d %10d  %-7s %08x  %s", r.Uncompressed, r.Compressed, method, r.CRC32, r.Name)
		if r.Digest != "" {
			printInfo("  %s", r.Digest)
		}
		printInfo("\n")
	}
	printVerbose("\n%d entries\n", len(entries))
	return nil
}

func newCatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cat <file> <entry>",
		Short: "Write the uncompressed data of one entry to stdout",
		Long: `The cat command inflates one entry and writes it to stdout. The CRC-32 is
checked once the entry has been read completely.

Example:
  apkctl cat app.apk AndroidManifest.xml > manifest.bin`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCat(args)
		},
	}
}

func runCat(args []string) error {
	a, src, err := openArchive(args[0], archive.OpenOptions{SkipSignatureBlock: true})
	if err != nil {
		return err
	}
	defer src.Close()

	rc, err := a.Open(args[1])
	if err != nil {
		return err
	}
	defer rc.Close()
	if _, err := io.Copy(os.Stdout, rc); err != nil {
		return fmt.Errorf("failed to read %s: %w", args[1], err)
	}
	return nil
}
