package config_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/clown/pkg/config"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    *config.Config
		wantErr string
	}{
		{
			name: "hcl",
			file: ".clown.hcl",
			content: `
attribute = "capture"
include   = ["src/**/*.rs"]
exclude   = ["src/generated/**"]
jobs      = 4
log_level = "debug"
`,
			want: &config.Config{
				Attribute: "capture",
				Include:   []string{"src/**/*.rs"},
				Exclude:   []string{"src/generated/**"},
				Jobs:      4,
				LogLevel:  "debug",
			},
		},
		{
			name:    "hcl_variables",
			file:    ".clown.hcl",
			content: "include = default_include\nattribute = default_attribute\n",
			want: &config.Config{
				Attribute: "clown",
				Include:   []string{"**/*.rs"},
				LogLevel:  "info",
			},
		},
		{
			name: "yaml",
			file: ".clown.yaml",
			content: `
include:
  - crates/**/*.rs
jobs: 2
`,
			want: &config.Config{
				Attribute: "clown",
				Include:   []string{"crates/**/*.rs"},
				Jobs:      2,
				LogLevel:  "info",
			},
		},
		{
			name:    "empty_yaml",
			file:    ".clown.yml",
			content: "",
			want:    config.Default(),
		},
		{
			name: "toml",
			file: ".clown.toml",
			content: `
attribute = "clown"
exclude = ["target/**"]
log_level = "warn"
`,
			want: &config.Config{
				Attribute: "clown",
				Include:   []string{"**/*.rs"},
				Exclude:   []string{"target/**"},
				LogLevel:  "warn",
			},
		},
		{
			name:    "yaml_unknown_field",
			file:    ".clown.yaml",
			content: "colour: red\n",
			wantErr: "parsing YAML",
		},
		{
			name:    "toml_unknown_field",
			file:    ".clown.toml",
			content: "colour = \"red\"\n",
			wantErr: "unknown field \"colour\"",
		},
		{
			name:    "hcl_syntax_error",
			file:    ".clown.hcl",
			content: "attribute = \n",
			wantErr: "parsing HCL",
		},
		{
			name:    "bad_attribute",
			file:    ".clown.hcl",
			content: "attribute = \"not an ident\"\n",
			wantErr: "is not an identifier",
		},
		{
			name:    "negative_jobs",
			file:    ".clown.toml",
			content: "jobs = -1\n",
			wantErr: "jobs must not be negative",
		},
		{
			name:    "bad_glob",
			file:    ".clown.yaml",
			content: "include: [\"src/[*.rs\"]\n",
			wantErr: "invalid glob",
		},
		{
			name:    "bad_level",
			file:    ".clown.yaml",
			content: "log_level: loud\n",
			wantErr: "invalid log_level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, tt.file, []byte(tt.content), 0o644))

			got, err := config.Load(fs, tt.file)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(afero.NewMemMapFs(), ".clown.hcl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestFind(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, ok := config.Find(fs, "/repo")
	assert.False(t, ok)

	require.NoError(t, afero.WriteFile(fs, "/repo/.clown.toml", nil, 0o644))
	require.NoError(t, afero.WriteFile(fs, "/repo/.clown.yaml", nil, 0o644))

	got, ok := config.Find(fs, "/repo")
	require.True(t, ok)
	assert.Equal(t, "/repo/.clown.yaml", got)
}

func TestDefault(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "clown", cfg.Attribute)
	assert.Equal(t, []string{"**/*.rs"}, cfg.Include)

	lvl, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, lvl)
}
