package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/clown/cmd/clown/expand"
	"github.com/walteh/clown/cmd/clown/tokens"
)

func main() {
	info, _ := debug.ReadBuildInfo()
	if err := newRootCommand(versionOf(info)).ExecuteContext(context.Background()); err != nil {
		// check mode has already listed the files that would change
		if !errors.Is(err, expand.ErrWouldChange) {
			fmt.Fprintln(os.Stderr, "clown:", err)
		}
		os.Exit(1)
	}
}

func newRootCommand(version string) *cobra.Command {
	root := &cobra.Command{
		Use:           "clown",
		Short:         "Expand #[clown] closures into explicit capture blocks",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(&cobra.Command{
		Use:    "raw-version",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version)
			return err
		},
	})
	root.AddCommand(expand.NewExpandCommand())
	root.AddCommand(tokens.NewTokensCommand())

	return root
}

// versionOf prefers the module version and falls back to the VCS revision of a
// development build.
func versionOf(info *debug.BuildInfo) string {
	if info == nil {
		return "unknown"
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v
	}

	var rev string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if rev == "" {
		return "devel"
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	if dirty {
		rev += "-dirty"
	}
	return rev
}
