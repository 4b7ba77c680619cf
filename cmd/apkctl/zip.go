package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/apkkit/archive"
	"github.com/joshuapare/apkkit/pkg/types"
)

var zipSkipSigning bool

func init() {
	cmd := newZipCmd()
	cmd.Flags().BoolVar(&zipSkipSigning, "skip-signing-block", false, "Do not probe for an APK signing block")
	rootCmd.AddCommand(cmd)
}

func newZipCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "zip <file>",
		Short: "Report the trailer, central directory and signing block of a ZIP",
		Long: `The zip command locates the end of central directory record, reads the
central directory and, for APKs, the signing block that precedes it.

Example:
  apkctl zip app.apk
  apkctl zip app.apk --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runZip(args)
		},
	}
	return cmd
}

type signingPairReport struct {
	ID     uint32 `json:"id"`
	Name   string `json:"name"`
	Length int    `json:"length"`
}

type signingReport struct {
	Offset int64               `json:"offset"`
	Size   uint64              `json:"size"`
	Pairs  []signingPairReport `json:"pairs"`
}

type zipReport struct {
	File             string         `json:"file"`
	Size             int64          `json:"size"`
	EndRecordOffset  int64          `json:"end_record_offset"`
	Zip64            bool           `json:"zip64"`
	Entries          int            `json:"entries"`
	CentralDirOffset int64          `json:"central_dir_offset"`
	CentralDirLength int64          `json:"central_dir_length"`
	Comment          string         `json:"comment,omitempty"`
	SigningBlock     *signingReport `json:"signing_block,omitempty"`
}

// openArchive maps path and reads its directory. The returned source must be
// closed once the archive is no longer used.
func openArchive(path string, opts archive.OpenOptions) (*archive.Archive, *archive.MappedSource, error) {
	src, err := archive.OpenFile(path)
	if err != nil {
		return nil, nil, err
	}
	a, err := archive.OpenArchive(src, opts)
	if err != nil {
		src.Close()
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return a, src, nil
}

func runZip(args []string) error {
	path := args[0]
	printVerbose("Opening archive: %s\n", path)

	a, src, err := openArchive(path, archive.OpenOptions{SkipSignatureBlock: zipSkipSigning})
	if err != nil {
		return err
	}
	defer src.Close()

	dir := a.Directory()
	end := dir.EndRecord()
	report := zipReport{
		File:             path,
		Size:             src.Length(),
		EndRecordOffset:  end.Offset,
		Zip64:            end.IsZip64(),
		Entries:          dir.Count(),
		CentralDirOffset: end.OffsetOfCentralDirectory(),
		CentralDirLength: end.LengthOfCentralDirectory(),
		Comment:          string(end.Comment),
	}

	if footer := dir.SignatureFooter(); footer != nil {
		block, err := archive.ReadSigningBlock(src, footer)
		switch {
		case err == nil:
			sr := &signingReport{Offset: block.Offset, Size: footer.SizeOfBlock}
			for _, p := range block.Pairs {
				sr.Pairs = append(sr.Pairs, signingPairReport{ID: p.ID, Name: p.Name(), Length: len(p.Value)})
			}
			report.SigningBlock = sr
		case errors.Is(err, types.ErrNotFound):
		default:
			return fmt.Errorf("failed to read signing block: %w", err)
		}
	}

	if jsonOut {
		return printJSON(report)
	}

	printInfo("\nArchive Information:\n")
	printInfo("  File: %s\n", report.File)
	printInfo("  Size: %s\n", formatSize(report.Size))
	printInfo("  End record: 0x%x\n", report.EndRecordOffset)
	printInfo("  ZIP64: %t\n", report.Zip64)
	printInfo("  Entries: %d\n", report.Entries)
	printInfo("  Central directory: 0x%x (%d bytes)\n", report.CentralDirOffset, report.CentralDirLength)
	if report.Comment != "" {
		printInfo("  Comment: %q\n", report.Comment)
	}
	if sb := report.SigningBlock; sb != nil {
		printInfo("\nSigning Block:\n")
		printInfo("  Offset: 0x%x (%d bytes)\n", sb.Offset, sb.Size)
		for _, p := range sb.Pairs {
			printInfo("  %-14s 0x%08x  %d bytes\n", p.Name, p.ID, p.Length)
		}
	} else if !zipSkipSigning {
		printInfo("\nSigning Block: none\n")
	}
	return nil
}
