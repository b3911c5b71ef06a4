package expand

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/clown/pkg/config"
	"github.com/walteh/clown/pkg/debug"
	"github.com/walteh/clown/pkg/diagnostic"
	"github.com/walteh/clown/pkg/driver"
)

// ErrWouldChange is returned in check mode when at least one file is not expanded yet.
var ErrWouldChange = errors.Base("files would change")

type Handler struct {
	fs         afero.Fs
	mode       string
	configPath string
	format     string
	jobs       int
	debug      bool
}

func NewExpandCommand() *cobra.Command {
	return newCommand(afero.NewOsFs())
}

func newCommand(fs afero.Fs) *cobra.Command {
	me := &Handler{fs: fs}

	cmd := &cobra.Command{
		Use:   "expand [paths...]",
		Short: "expand annotated closures in files, directories or globs",
	}

	cmd.Flags().StringVar(&me.mode, "mode", string(driver.ModeStdout), "one of stdout, write, diff, check")
	cmd.Flags().StringVar(&me.configPath, "config", "", "config file, defaults to a .clown.{hcl,yaml,yml,toml} in the working directory")
	cmd.Flags().StringVar(&me.format, "format", "text", "diagnostic format, text or json")
	cmd.Flags().IntVar(&me.jobs, "jobs", 0, "files expanded at once, 0 uses the config or one per CPU")
	cmd.Flags().BoolVar(&me.debug, "debug", false, "enable debug logging")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return me.Run(cmd.Context(), args, cmd.OutOrStdout(), cmd.ErrOrStderr())
	}

	return cmd
}

func (me *Handler) loadConfig() (*config.Config, error) {
	p := me.configPath
	if p == "" {
		found, ok := config.Find(me.fs, ".")
		if !ok {
			return config.Default(), nil
		}
		p = found
	}
	return config.Load(me.fs, p)
}

func (me *Handler) formatter(sources map[string]string) (diagnostic.Formatter, error) {
	switch me.format {
	case "text":
		return &diagnostic.TextFormatter{Sources: sources, Color: !color.NoColor}, nil
	case "json":
		return diagnostic.NewVSCodeFormatter(), nil
	}
	return nil, errors.Errorf("unknown diagnostic format %q", me.format)
}

func (me *Handler) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	mode, err := driver.ParseMode(me.mode)
	if err != nil {
		return err
	}

	cfg, err := me.loadConfig()
	if err != nil {
		return err
	}

	level, err := cfg.Level()
	if err != nil {
		return err
	}
	if me.debug {
		level = zerolog.DebugLevel
	}
	ctx = debug.WithLogger(ctx, stderr, debug.LoggerOptions{Level: level, Pretty: true, Color: !color.NoColor})

	report, runErr := driver.Run(ctx, me.fs, driver.Options{
		Paths:  args,
		Config: cfg,
		Mode:   mode,
		Jobs:   me.jobs,
		Out:    stdout,
	})
	if report == nil {
		return runErr
	}

	if diags := report.Diagnostics(); !diags.Empty() {
		f, err := me.formatter(report.Sources())
		if err != nil {
			return err
		}
		out, err := f.Format(diags)
		if err != nil {
			return errors.Errorf("formatting diagnostics: %w", err)
		}
		if _, err := stderr.Write(out); err != nil {
			return errors.Errorf("writing diagnostics: %w", err)
		}
	}

	if mode == driver.ModeWrite || mode == driver.ModeCheck {
		if err := driver.Summary(stderr, report, mode, !color.NoColor); err != nil {
			return errors.Errorf("writing summary: %w", err)
		}
	}

	zerolog.Ctx(ctx).Debug().Stringer("report", report).Msg("done")

	if runErr != nil {
		return errors.Errorf("%d of %d files failed: %w", len(report.Failed()), len(report.Files), runErr)
	}

	if mode == driver.ModeCheck {
		changed := report.Changed()
		for _, p := range changed {
			fmt.Fprintln(stdout, p)
		}
		if len(changed) > 0 {
			return errors.WithStack(ErrWouldChange)
		}
	}

	return nil
}
