package rewrite

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/editorconfig/editorconfig-core-go/v2"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
)

// DefaultIndent is used when no .editorconfig says otherwise.
const DefaultIndent = "    "

// IndentFor resolves the indentation unit of filename from the .editorconfig files of
// its directory and every parent up to the first one marked root. Closer files win.
func IndentFor(fs afero.Fs, filename string) (string, error) {
	name := filepath.Clean(filename)

	var defs []*editorconfig.Definition
	for dir := filepath.Dir(name); ; {
		path := filepath.Join(dir, ".editorconfig")

		ec, err := readEditorconfig(fs, path)
		if err != nil {
			return "", err
		}
		if ec != nil {
			rel, err := filepath.Rel(dir, name)
			if err != nil {
				return "", errors.Errorf("resolving %s against %s: %w", name, dir, err)
			}
			def, err := ec.GetDefinitionForFilename(filepath.ToSlash(rel))
			if err != nil {
				return "", errors.Errorf("matching %s in %s: %w", rel, path, err)
			}
			defs = append(defs, def)
			if ec.Root {
				break
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	var style, size string
	tabWidth := 0
	for i := len(defs) - 1; i >= 0; i-- {
		if defs[i].IndentStyle != "" {
			style = defs[i].IndentStyle
		}
		if defs[i].IndentSize != "" {
			size = defs[i].IndentSize
		}
		if defs[i].TabWidth > 0 {
			tabWidth = defs[i].TabWidth
		}
	}

	return indentUnit(style, size, tabWidth), nil
}

func readEditorconfig(fs afero.Fs, path string) (*editorconfig.Editorconfig, error) {
	f, err := fs.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	ec, err := editorconfig.Parse(f)
	if err != nil {
		return nil, errors.Errorf("parsing %s: %w", path, err)
	}
	return ec, nil
}

func indentUnit(style, size string, tabWidth int) string {
	if strings.EqualFold(style, editorconfig.IndentStyleTab) {
		return "\t"
	}

	n, err := strconv.Atoi(size)
	if err != nil || n <= 0 {
		n = tabWidth
	}
	if n <= 0 {
		return DefaultIndent
	}
	return strings.Repeat(" ", n)
}
