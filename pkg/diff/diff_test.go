package diff_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/walteh/clown/pkg/diff"
)

func TestUnified(t *testing.T) {
	tests := []struct {
		name   string
		before string
		after  string
		want   string
	}{
		{
			name:   "equal",
			before: "a\nb\n",
			after:  "a\nb\n",
			want:   "",
		},
		{
			name:   "replace_middle",
			before: "a\nb\nc\n",
			after:  "a\nB\nc\n",
			want:   "--- a/f.rs\n+++ b/f.rs\n@@ -1,3 +1,3 @@\n a\n-b\n+B\n c\n",
		},
		{
			name:   "insert_lines",
			before: "a\nz\n",
			after:  "a\nb\nc\nz\n",
			want:   "--- a/f.rs\n+++ b/f.rs\n@@ -1,2 +1,4 @@\n a\n+b\n+c\n z\n",
		},
		{
			name:   "from_empty",
			before: "",
			after:  "x\n",
			want:   "--- a/f.rs\n+++ b/f.rs\n@@ -0,0 +1,1 @@\n+x\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, diff.Unified("f.rs", tt.before, tt.after))
		})
	}
}

func TestUnifiedSplitsDistantChanges(t *testing.T) {
	var before, after []string
	for i := 0; i < 20; i++ {
		before = append(before, string(rune('a'+i)))
		after = append(after, string(rune('a'+i)))
	}
	after[1] = "B"
	after[18] = "S"

	got := diff.Unified("f.rs", strings.Join(before, "\n")+"\n", strings.Join(after, "\n")+"\n")
	assert.Equal(t, 2, strings.Count(got, "@@ -"))
	assert.Contains(t, got, "@@ -1,5 +1,5 @@\n a\n-b\n+B\n c\n d\n e\n")
	assert.Contains(t, got, "@@ -16,5 +16,5 @@\n p\n q\n r\n-s\n+S\n t\n")
}
