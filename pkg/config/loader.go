package config

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// Load reads a defaults file, picking the format from the extension:
// .yaml/.yml, .json or .hcl. A missing file is not an error; it yields
// an empty config so callers need no existence check.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, errors.Errorf("reading config file: %w", err)
	}

	var cfg *Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		cfg, err = loadYAML(data)
	case ".json":
		cfg, err = loadJSON(data)
	case ".hcl":
		cfg, err = loadHCL(data, path)
	default:
		return nil, errors.Errorf("unsupported config extension %q", ext)
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config %s: %w", path, err)
	}
	return cfg, nil
}

func loadYAML(data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && err != io.EOF {
		return nil, errors.Errorf("parsing YAML: %w", err)
	}
	return &cfg, nil
}

func loadJSON(data []byte) (*Config, error) {
	var cfg Config
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return nil, errors.Errorf("parsing JSON: %w", err)
	}
	return &cfg, nil
}

// hclConfig mirrors Config with HCL tags; gohcl needs its own schema.
type hclConfig struct {
	Exclude       []string `hcl:"exclude,optional"`
	Include       []string `hcl:"include,optional"`
	Threads       int      `hcl:"threads,optional"`
	MaxDepth      int      `hcl:"max_depth,optional"`
	Backup        bool     `hcl:"backup,optional"`
	IncludeHidden bool     `hcl:"include_hidden,optional"`
	Progress      string   `hcl:"progress,optional"`
}

func loadHCL(data []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	// Environment variables are exposed as env.NAME so excludes can be
	// parameterized per machine.
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": envVars(),
		},
	}

	var hclCfg hclConfig
	if diags := gohcl.DecodeBody(file.Body, evalCtx, &hclCfg); diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	return &Config{
		Exclude:       hclCfg.Exclude,
		Include:       hclCfg.Include,
		Threads:       hclCfg.Threads,
		MaxDepth:      hclCfg.MaxDepth,
		Backup:        hclCfg.Backup,
		IncludeHidden: hclCfg.IncludeHidden,
		Progress:      hclCfg.Progress,
	}, nil
}

func envVars() cty.Value {
	vars := map[string]cty.Value{}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			vars[k] = cty.StringVal(v)
		}
	}
	if len(vars) == 0 {
		return cty.EmptyObjectVal
	}
	return cty.ObjectVal(vars)
}
