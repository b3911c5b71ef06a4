// Package config loads .clown.hcl, .clown.yaml and .clown.toml files.
package config

import (
	"bytes"
	"io"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

const DefaultAttribute = "clown"

// DefaultInclude matches every source file below the working directory.
var DefaultInclude = []string{"**/*.rs"}

// FileNames are looked up in this order by Find.
var FileNames = []string{".clown.hcl", ".clown.yaml", ".clown.yml", ".clown.toml"}

// Config controls which files are expanded and how.
type Config struct {
	// Attribute is the annotation name, `clown` in `#[clown]`.
	Attribute string `hcl:"attribute,optional" yaml:"attribute,omitempty" toml:"attribute"`
	// Include and Exclude are doublestar globs relative to the search root.
	Include []string `hcl:"include,optional" yaml:"include,omitempty" toml:"include"`
	Exclude []string `hcl:"exclude,optional" yaml:"exclude,omitempty" toml:"exclude"`
	// Jobs limits how many files are rewritten at once. Zero means one per CPU.
	Jobs     int    `hcl:"jobs,optional" yaml:"jobs,omitempty" toml:"jobs"`
	LogLevel string `hcl:"log_level,optional" yaml:"log_level,omitempty" toml:"log_level"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Attribute == "" {
		c.Attribute = DefaultAttribute
	}
	if len(c.Include) == 0 {
		c.Include = append([]string(nil), DefaultInclude...)
	}
	if c.LogLevel == "" {
		c.LogLevel = zerolog.InfoLevel.String()
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if !isIdent(c.Attribute) {
		return errors.Errorf("attribute %q is not an identifier", c.Attribute)
	}
	if c.Jobs < 0 {
		return errors.Errorf("jobs must not be negative, got %d", c.Jobs)
	}
	for _, pattern := range append(append([]string(nil), c.Include...), c.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return errors.Errorf("invalid glob %q", pattern)
		}
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (zerolog.Level, error) {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.NoLevel, errors.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// Find returns the first config file of FileNames present in dir.
func Find(fs afero.Fs, dir string) (string, bool) {
	for _, name := range FileNames {
		p := filepath.Join(dir, name)
		if ok, _ := afero.Exists(fs, p); ok {
			return p, true
		}
	}
	return "", false
}

// Load reads a config file. The format follows the extension; anything that is not
// YAML or TOML is read as HCL. Defaults fill every field the file leaves empty.
func Load(fs afero.Fs, p string) (*Config, error) {
	data, err := afero.ReadFile(fs, p)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	var cfg *Config
	switch filepath.Ext(p) {
	case ".yaml", ".yml":
		cfg, err = decodeYAML(data)
	case ".toml":
		cfg, err = decodeTOML(data)
	default:
		cfg, err = decodeHCL(data, p)
	}
	if err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating %s: %w", p, err)
	}
	return cfg, nil
}

func decodeYAML(data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Errorf("parsing YAML: %w", err)
	}
	return &cfg, nil
}

func decodeTOML(data []byte) (*Config, error) {
	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, errors.Errorf("parsing TOML: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.Errorf("parsing TOML: unknown field %q", undecoded[0].String())
	}
	return &cfg, nil
}

func decodeHCL(data []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	includes := make([]cty.Value, 0, len(DefaultInclude))
	for _, pattern := range DefaultInclude {
		includes = append(includes, cty.StringVal(pattern))
	}

	// `include = default_include` keeps the built-in patterns
	ctx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"default_include":   cty.ListVal(includes),
			"default_attribute": cty.StringVal(DefaultAttribute),
		},
	}

	var cfg Config
	if diags := gohcl.DecodeBody(file.Body, ctx, &cfg); diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}
	return &cfg, nil
}
