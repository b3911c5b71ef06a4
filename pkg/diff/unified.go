package diff

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kylelemons/godebug/diff"
)

// Context is the number of unchanged lines shown around each change.
const Context = 3

type line struct {
	kind byte // ' ', '-' or '+'
	text string
}

// Unified returns a unified diff that turns before into after, or "" when they are equal.
func Unified(name, before, after string) string {
	if before == after {
		return ""
	}

	lines := flatten(diff.DiffChunks(splitLines(before), splitLines(after)))

	// line numbers before index i, in the old and the new text
	oldNo := make([]int, len(lines)+1)
	newNo := make([]int, len(lines)+1)
	for i, l := range lines {
		oldNo[i+1], newNo[i+1] = oldNo[i], newNo[i]
		if l.kind != '+' {
			oldNo[i+1]++
		}
		if l.kind != '-' {
			newNo[i+1]++
		}
	}

	name = strings.TrimPrefix(filepath.ToSlash(name), "/")

	var b strings.Builder
	fmt.Fprintf(&b, "--- a/%s\n+++ b/%s\n", name, name)

	for i := 0; i < len(lines); {
		for i < len(lines) && lines[i].kind == ' ' {
			i++
		}
		if i == len(lines) {
			break
		}

		start := max(i-Context, 0)
		end := i
		for j := i; j < len(lines); j++ {
			if lines[j].kind != ' ' {
				end = j
			} else if j-end > 2*Context {
				break
			}
		}
		stop := min(end+Context+1, len(lines))

		fmt.Fprintf(&b, "@@ -%s +%s @@\n",
			hunkRange(oldNo[start], oldNo[stop]-oldNo[start]),
			hunkRange(newNo[start], newNo[stop]-newNo[start]))
		for _, l := range lines[start:stop] {
			b.WriteByte(l.kind)
			b.WriteString(l.text)
			b.WriteByte('\n')
		}

		i = stop
	}

	return b.String()
}

func hunkRange(before, count int) string {
	if count == 0 {
		return fmt.Sprintf("%d,0", before)
	}
	return fmt.Sprintf("%d,%d", before+1, count)
}

// flatten lists the chunks line by line. Within a run of changes, deletions come first.
func flatten(chunks []diff.Chunk) []line {
	var out []line
	for _, c := range chunks {
		for _, s := range c.Deleted {
			out = append(out, line{'-', s})
		}
		for _, s := range c.Added {
			out = append(out, line{'+', s})
		}
		for _, s := range c.Equal {
			out = append(out, line{' ', s})
		}
	}

	for i := 0; i < len(out); {
		j := i
		for j < len(out) && out[j].kind != ' ' {
			j++
		}
		if j > i {
			run := out[i:j]
			sort.SliceStable(run, func(a, b int) bool { return run[a].kind == '-' && run[b].kind == '+' })
			i = j
			continue
		}
		i++
	}
	return out
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}
