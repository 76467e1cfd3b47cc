package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// fileRoot — верхний уровень HCL файла.
type fileRoot struct {
	Datasets []*datasetBlock `hcl:"dataset,block"`
	Remain   hcl.Body        `hcl:",remain"`
}

// datasetBlock — блок dataset "name" { ... }.
type datasetBlock struct {
	Name     string         `hcl:"name,label"`
	Editions []string       `hcl:"editions,optional"`
	Sources  []*sourceBlock `hcl:"source,block"`
}

// sourceBlock — блок source { ... } внутри dataset.
type sourceBlock struct {
	URL         string `hcl:"url"`
	Compression bool   `hcl:"compression,optional"`
	Format      string `hcl:"format"`
}

// Load читает конфигурацию датасета из файла и валидирует её.
//
// Формат определяется расширением:
//   - .hcl  — блок dataset "name" { source { ... } }, доступны переменные env.NAME
//   - .json — {"name": ..., "sources": [...], "editions": [...]}
func Load(path string) (*PipelineConfig, error) {
	var (
		cfg *PipelineConfig
		err error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		cfg, err = loadHCL(path, os.Environ())
	case ".json":
		cfg, err = loadJSON(path)
	default:
		return nil, fmt.Errorf("config %s: unsupported file extension", path)
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func loadJSON(path string) (*PipelineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg PipelineConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	return &cfg, nil
}

func loadHCL(path string, environ []string) (*PipelineConfig, error) {
	parser := hclparse.NewParser()

	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}

	var root fileRoot
	diags = gohcl.DecodeBody(file.Body, evalContext(environ), &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}

	if len(root.Datasets) != 1 {
		return nil, fmt.Errorf("config %s: expected exactly one dataset block, got %d", path, len(root.Datasets))
	}

	block := root.Datasets[0]
	cfg := &PipelineConfig{
		Name:     block.Name,
		Editions: block.Editions,
		Sources:  make([]SourceDescriptor, 0, len(block.Sources)),
	}
	for _, s := range block.Sources {
		cfg.Sources = append(cfg.Sources, SourceDescriptor{
			URL:         s.URL,
			Compression: s.Compression,
			Format:      s.Format,
		})
	}
	return cfg, nil
}

// evalContext открывает переменные окружения как объект env.
func evalContext(environ []string) *hcl.EvalContext {
	vars := make(map[string]cty.Value, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !hclsyntaxIdent(k) {
			continue
		}
		vars[k] = cty.StringVal(v)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(vars),
		},
	}
}

// hclsyntaxIdent отбрасывает имена, к которым нельзя обратиться через env.NAME.
func hclsyntaxIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '-'):
		default:
			return false
		}
	}
	return true
}
