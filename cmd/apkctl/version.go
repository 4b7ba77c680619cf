package main

import (
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X main.version=... -X main.commit=... -X main.date=...".
// Unset values fall back to the module build info.
var (
	version = "dev"
	commit  = ""
	date    = ""
)

type versionReport struct {
	Version string `json:"version"`
	Commit  string `json:"commit,omitempty"`
	Built   string `json:"built,omitempty"`
	Dirty   bool   `json:"dirty,omitempty"`
	Go      string `json:"go"`
}

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the apkctl build",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion()
		},
	})
}

// buildVersion merges the linker-set values with debug.ReadBuildInfo.
func buildVersion(info *debug.BuildInfo, ok bool) versionReport {
	r := versionReport{Version: version, Commit: commit, Built: date, Go: runtime.Version()}
	if !ok || info == nil {
		return r
	}
	if r.Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		r.Version = info.Main.Version
	}
	if info.GoVersion != "" {
		r.Go = info.GoVersion
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if r.Commit == "" {
				r.Commit = s.Value
			}
		case "vcs.time":
			if r.Built == "" {
				r.Built = s.Value
			}
		case "vcs.modified":
			r.Dirty = s.Value == "true"
		}
	}
	return r
}

func runVersion() error {
	r := buildVersion(debug.ReadBuildInfo())
	if jsonOut {
		return printJSON(r)
	}
	printInfo("apkctl %s (%s)\n", r.Version, r.Go)
	if r.Commit != "" {
		suffix := ""
		if r.Dirty {
			suffix = " (modified)"
		}
		printInfo("  revision %s%s\n", r.Commit, suffix)
	}
	if r.Built != "" {
		printInfo("  built %s\n", r.Built)
	}
	return nil
}
