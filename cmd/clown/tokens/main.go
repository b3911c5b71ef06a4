package tokens

import (
	"context"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/clown/pkg/tokentree"
)

type Handler struct {
	fs afero.Fs
}

func NewTokensCommand() *cobra.Command {
	return newCommand(afero.NewOsFs())
}

func newCommand(fs afero.Fs) *cobra.Command {
	me := &Handler{fs: fs}

	cmd := &cobra.Command{
		Use:   "tokens <file>",
		Short: "print the token trees of a file",
		Args:  cobra.ExactArgs(1),
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return me.Run(cmd.Context(), args[0], cmd.OutOrStdout())
	}

	return cmd
}

func (me *Handler) Run(ctx context.Context, path string, out io.Writer) error {
	src, err := afero.ReadFile(me.fs, path)
	if err != nil {
		return errors.Errorf("reading %s: %w", path, err)
	}

	stream, err := tokentree.Parse(path, string(src))
	if err != nil {
		return errors.Errorf("parsing %s: %w", path, err)
	}

	return tokentree.Dump(out, stream)
}
