package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/couchdesk/internal/ctxlog"
)

// fileSchema mirrors the HCL surface of the config file.
type fileSchema struct {
	CouchDB *couchdbBlock `hcl:"couchdb,block"`
	Desk    *deskBlock    `hcl:"desk,block"`
}

type couchdbBlock struct {
	URL      string `hcl:"url"`
	Database string `hcl:"database"`
	Username string `hcl:"username,optional"`
	Password string `hcl:"password,optional"`
	Timeout  string `hcl:"timeout,optional"`
}

type deskBlock struct {
	Paths     []string `hcl:"paths"`
	Root      string   `hcl:"root,optional"`
	Language  string   `hcl:"language,optional"`
	Extension string   `hcl:"extension,optional"`
}

// Load parses and validates the HCL config file at path, applying defaults
// for optional fields.
func Load(ctx context.Context, path string) (*Config, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading configuration file.", "path", path)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, diags)
	}

	var schema fileSchema
	if diags := gohcl.DecodeBody(file.Body, evalContext(), &schema); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode config file %s: %w", path, diags)
	}

	cfg, err := translate(&schema)
	if err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	logger.Debug("Configuration loaded.",
		"database", cfg.CouchDB.Database,
		"desk_paths", cfg.Desk.Paths,
		"root", cfg.Desk.Root,
	)
	return cfg, nil
}

// evalContext exposes the process environment to config expressions as the
// `env` object variable.
func evalContext() *hcl.EvalContext {
	vars := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			vars[k] = cty.StringVal(v)
		}
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(vars),
		},
	}
}

// translate converts the decoded HCL schema into the validated model.
func translate(schema *fileSchema) (*Config, error) {
	if schema.CouchDB == nil {
		return nil, fmt.Errorf("missing required 'couchdb' block")
	}
	if schema.Desk == nil {
		return nil, fmt.Errorf("missing required 'desk' block")
	}
	if schema.CouchDB.URL == "" {
		return nil, fmt.Errorf("couchdb.url must not be empty")
	}
	if schema.CouchDB.Database == "" {
		return nil, fmt.Errorf("couchdb.database must not be empty")
	}
	if len(schema.Desk.Paths) == 0 {
		return nil, fmt.Errorf("desk.paths must list at least one search root")
	}

	timeout := DefaultTimeout
	if schema.CouchDB.Timeout != "" {
		d, err := time.ParseDuration(schema.CouchDB.Timeout)
		if err != nil {
			return nil, fmt.Errorf("couchdb.timeout: %w", err)
		}
		timeout = d
	}

	cfg := &Config{
		CouchDB: CouchDB{
			URL:      schema.CouchDB.URL,
			Database: schema.CouchDB.Database,
			Username: schema.CouchDB.Username,
			Password: schema.CouchDB.Password,
			Timeout:  timeout,
		},
		Desk: Desk{
			Paths:     schema.Desk.Paths,
			Root:      schema.Desk.Root,
			Language:  schema.Desk.Language,
			Extension: schema.Desk.Extension,
		},
	}
	if cfg.Desk.Root == "" {
		cfg.Desk.Root = DefaultRoot
	}
	if cfg.Desk.Language == "" {
		cfg.Desk.Language = DefaultLanguage
	}
	if cfg.Desk.Extension == "" {
		cfg.Desk.Extension = DefaultExtension
	}
	if !strings.HasPrefix(cfg.Desk.Extension, ".") {
		return nil, fmt.Errorf("desk.extension must start with a dot, got %q", cfg.Desk.Extension)
	}
	return cfg, nil
}
