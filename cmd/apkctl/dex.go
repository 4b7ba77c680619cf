package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/apkkit/archive"
	"github.com/joshuapare/apkkit/dex"
)

var (
	dexVerify      bool
	dexJavaNames   bool
	dexStringUsage bool
	dexSetStrings  []string
	dexSync        bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "dex",
		Short: "Inspect and rewrite DEX files",
		Long: `The dex commands read a DEX file given either as a path or as
"<apk>!<entry>" naming an entry inside a ZIP.`,
	}
	cmd.PersistentFlags().BoolVar(&dexVerify, "verify", false, "Reject files whose checksum or signature does not match")

	classes := newDexClassesCmd()
	classes.Flags().BoolVar(&dexJavaNames, "java", false, "Print source-level class names")
	strs := newDexStringsCmd()
	strs.Flags().BoolVar(&dexStringUsage, "usage", false, "Print the recorded usage of every string")
	rewrite := newDexRewriteCmd()
	rewrite.Flags().StringArrayVar(&dexSetStrings, "set-string", nil, "Replace a string, as OLD=NEW (repeatable)")
	rewrite.Flags().BoolVar(&dexSync, "sync", false, "Flush the output file to stable storage")

	cmd.AddCommand(newDexInfoCmd(), classes, strs, rewrite)
	rootCmd.AddCommand(cmd)
}

// loadDex reads a DEX file from a path or from "<apk>!<entry>".
func loadDex(name string) (*dex.DexFile, error) {
	opts := &dex.ReadOptions{VerifyChecksum: dexVerify}
	apk, entry, ok := strings.Cut(name, "!")
	if !ok {
		printVerbose("Reading dex: %s\n", name)
		f, err := dex.ReadFile(name, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		return f, nil
	}

	printVerbose("Reading dex %s from %s\n", entry, apk)
	a, src, err := openArchive(apk, archive.OpenOptions{SkipSignatureBlock: true})
	if err != nil {
		return nil, err
	}
	defer src.Close()
	b, err := a.ReadAll(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	f, err := dex.Read(b, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return f, nil
}

func newDexInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <file|apk!entry>",
		Short: "Report the header and sections of a DEX file",
		Long: `The info command prints the DEX header fields, the map list and the
content digest.

Example:
  apkctl dex info classes.dex
  apkctl dex info app.apk!classes.dex --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDexInfo(args)
		},
	}
}

type sectionReport struct {
	Type   string `json:"type"`
	Count  uint32 `json:"count"`
	Offset uint32 `json:"offset"`
}

type dexReport struct {
	Source    string          `json:"source"`
	Version   int             `json:"version"`
	FileSize  uint32          `json:"file_size"`
	Checksum  string          `json:"checksum"`
	Signature string          `json:"signature"`
	DataOff   uint32          `json:"data_off"`
	DataSize  uint32          `json:"data_size"`
	Classes   int             `json:"classes"`
	Digest    string          `json:"digest"`
	Sections  []sectionReport `json:"sections"`
}

func runDexInfo(args []string) error {
	f, err := loadDex(args[0])
	if err != nil {
		return err
	}
	h := f.Header()
	d, err := f.Digest()
	if err != nil {
		return err
	}
	report := dexReport{
		Source:    args[0],
		Version:   h.Version(),
		FileSize:  h.FileSize(),
		Checksum:  fmt.Sprintf("%08x", h.Checksum()),
		Signature: hex.EncodeToString(h.Signature()),
		DataOff:   h.DataOff(),
		DataSize:  h.DataSize(),
		Classes:   f.ClassDefs().Count(),
		Digest:    d.String(),
	}
	for _, m := range f.Sections().Summary() {
		report.Sections = append(report.Sections, sectionReport{Type: m.Type.String(), Count: m.Count, Offset: m.Offset})
	}

	if jsonOut {
		return printJSON(report)
	}

	printInfo("\nDEX Information:\n")
	printInfo("  Source: %s\n", report.Source)
	printInfo("  Version: %03d\n", report.Version)
	printInfo("  Size: %s\n", formatSize(int64(report.FileSize)))
	printInfo("  Checksum: %s\n", report.Checksum)
	printInfo("  Signature: %s\n", report.Signature)
	printInfo("  Data: 0x%x (%d bytes)\n", report.DataOff, report.DataSize)
	printInfo("  Classes: %d\n", report.Classes)
	printInfo("  Digest: %s\n", report.Digest)
	printInfo("\nSections:\n")
	for _, s := range report.Sections {
		printInfo("  %-28s %6d  0x%08x\n", s.Type, s.Count, s.Offset)
	}
	return nil
}

func newDexClassesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classes <file|apk!entry>",
		Short: "List the classes of a DEX file",
		Long: `The classes command lists every class definition sorted by descriptor,
with its superclass and member counts.

Example:
  apkctl dex classes classes.dex --java`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDexClasses(args)
		},
	}
}

type classReport struct {
	Name       string   `json:"name"`
	Super      string   `json:"super,omitempty"`
	Source     string   `json:"source,omitempty"`
	Interfaces []string `json:"interfaces,omitempty"`
	Fields     int      `json:"fields"`
	Methods    int      `json:"methods"`
}

func runDexClasses(args []string) error {
	f, err := loadDex(args[0])
	if err != nil {
		return err
	}

	var classes []classReport
	for _, c := range f.Classes() {
		r := classReport{
			Name:       c.Name(),
			Super:      c.SuperClass(),
			Source:     c.SourceFile(),
			Interfaces: c.Interfaces(),
			Fields:     len(c.Fields()),
			Methods:    len(c.Methods()),
		}
		if dexJavaNames {
			r.Name = c.JavaName()
			if r.Super != "" {
				r.Super = dex.JavaTypeName(r.Super)
			}
			for i, iface := range r.Interfaces {
				r.Interfaces[i] = dex.JavaTypeName(iface)
			}
		}
		classes = append(classes, r)
	}

	if jsonOut {
		return printJSON(map[string]any{
			"source":  args[0],
			"classes": classes,
			"count":   len(classes),
		})
	}

	for _, c := range classes {
		printInfo("%s", c.Name)
		if c.Super != "" {
			printInfo(" extends %s", c.Super)
		}
		if len(c.Interfaces) > 0 {
			printInfo(" implements %s", strings.Join(c.Interfaces, ", "))
		}
		printInfo("\n")
		printVerbose("    fields=%d methods=%d source=%s\n", c.Fields, c.Methods, c.Source)
	}
	return nil
}

func newDexStringsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strings <file|apk!entry>",
		Short: "List the string pool of a DEX file",
		Long: `The strings command prints every string id with its index. With --usage
it also prints the roles the string plays: type, field, method, shorty,
source file, encoded value or generic signature.

Example:
  apkctl dex strings classes.dex --usage`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDexStrings(args)
		},
	}
}

type stringReport struct {
	Index int    `json:"index"`
	Value string `json:"value"`
	Usage string `json:"usage,omitempty"`
}

func runDexStrings(args []string) error {
	f, err := loadDex(args[0])
	if err != nil {
		return err
	}
	if dexStringUsage {
		f.LinkTypeSignature()
	}

	var out []stringReport
	for i, s := range f.StringIds().All() {
		r := stringReport{Index: i, Value: s.String()}
		if dexStringUsage {
			if d := s.Data().Item(); d != nil {
				r.Usage = d.Usage().String()
			}
		}
		out = append(out, r)
	}

	if jsonOut {
		return printJSON(map[string]any{
			"source":  args[0],
			"strings": out,
			"count":   len(out),
		})
	}

	for _, r := range out {
		if dexStringUsage {
			printInfo("%6d  %-24s %q\n", r.Index, r.Usage, r.Value)
		} else {
			printInfo("%6d  %q\n", r.Index, r.Value)
		}
	}
	return nil
}

func newDexRewriteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rewrite <file|apk!entry> <out>",
		Short: "Apply edits and write a DEX file with fresh offsets and checksums",
		Long: `The rewrite command reads a DEX file, applies the requested string edits,
lays the file out again and writes it with a new signature and checksum.

Example:
  apkctl dex rewrite classes.dex out/classes.dex
  apkctl dex rewrite app.apk!classes.dex out.dex --set-string Foo.java=Bar.java`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDexRewrite(args)
		},
	}
}

func runDexRewrite(args []string) error {
	f, err := loadDex(args[0])
	if err != nil {
		return err
	}

	edits := make(map[string]string, len(dexSetStrings))
	for _, kv := range dexSetStrings {
		from, to, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("invalid --set-string %q: want OLD=NEW", kv)
		}
		edits[from] = to
	}
	changed := 0
	for _, s := range f.StringData().Items() {
		if to, ok := edits[s.String()]; ok {
			printVerbose("  %q -> %q\n", s.String(), to)
			s.SetString(to)
			changed++
		}
	}

	if err := f.Refresh(); err != nil {
		return fmt.Errorf("failed to refresh: %w", err)
	}
	if err := f.WriteFile(args[1], &dex.WriteOptions{Sync: dexSync}); err != nil {
		return fmt.Errorf("failed to write %s: %w", args[1], err)
	}
	d, err := f.Digest()
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(map[string]any{
			"source":  args[0],
			"output":  args[1],
			"changed": changed,
			"size":    f.Header().FileSize(),
			"digest":  d.String(),
		})
	}
	printInfo("Wrote %s (%s, %d strings changed)\n", args[1], formatSize(int64(f.Header().FileSize())), changed)
	printInfo("  Digest: %s\n", d)
	return nil
}
