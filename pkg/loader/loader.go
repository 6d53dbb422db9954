// Package loader reads form configs from YAML or JSON files.
//
// A file holds either a single form document or a list of them under a
// top-level "forms" key:
//
//	id: profile
//	inputsConfig:
//	  country:
//	    globalKey: country
//	    value: PT
//	  region:
//	    dependencies:
//	      - id: country
//	        triggeringValues: [PT, ES]
//
// A single form without an id takes the file name as its id.
package loader

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	formsync "github.com/goliatone/go-formsync"
	"github.com/goliatone/go-formsync/internal/hydrate"
)

// Option configures LoadFS.
type Option func(*loaderConfig)

type loaderConfig struct {
	strict bool
}

// WithStrict rejects documents carrying keys a form config does not declare.
func WithStrict() Option {
	return func(cfg *loaderConfig) {
		cfg.strict = true
	}
}

// LoadFS walks fsys and returns every form config found in .yaml, .yml and
// .json files, sorted by id. Duplicate ids are an error.
func LoadFS(fsys fs.FS, opts ...Option) ([]formsync.FormConfig, error) {
	if fsys == nil {
		return nil, nil
	}
	cfg := loaderConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	decoder := newDecoder(cfg)

	sources := map[string]string{}
	var forms []formsync.FormConfig
	err := fs.WalkDir(fsys, ".", func(name string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isFormFile(name) {
			return nil
		}

		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("loader: read %s: %w", name, err)
		}
		docs, err := parseDocuments(data, name)
		if err != nil {
			return err
		}

		for _, doc := range docs.forms {
			formID := stringField(doc, "id")
			if formID == "" && docs.single {
				base := path.Base(name)
				formID = strings.TrimSuffix(base, path.Ext(base))
			}
			config, err := decoder.Decode(hydrate.Context{Source: name, FormID: formID}, doc)
			if err != nil {
				return fmt.Errorf("loader: %w", err)
			}
			if previous, exists := sources[config.ID]; exists {
				return fmt.Errorf("loader: duplicate form %q (files %s and %s)", config.ID, previous, name)
			}
			sources[config.ID] = name
			forms = append(forms, config)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(forms, func(i, j int) bool { return forms[i].ID < forms[j].ID })
	return forms, nil
}

func newDecoder(cfg loaderConfig) *hydrate.Decoder[formsync.FormConfig] {
	opts := []hydrate.DecoderOption[formsync.FormConfig]{
		hydrate.WithPreHook[formsync.FormConfig](defaultFormID),
		hydrate.WithPostHook[formsync.FormConfig](validateForm),
	}
	if cfg.strict {
		opts = append(opts, hydrate.WithDisallowUnknownFields[formsync.FormConfig]())
	}
	return hydrate.NewDecoder(opts...)
}

// defaultFormID fills a missing id from the context. Forms listed under
// "forms" carry no fallback id and must name themselves.
func defaultFormID(ctx hydrate.Context, payload map[string]any) (map[string]any, error) {
	if stringField(payload, "id") == "" && ctx.FormID != "" {
		payload["id"] = ctx.FormID
	}
	return payload, nil
}

func validateForm(_ hydrate.Context, config *formsync.FormConfig) error {
	if config.InputsConfig == nil {
		config.InputsConfig = map[string]formsync.InputConfig{}
	}
	return config.Validate()
}

type documents struct {
	forms  []map[string]any
	single bool
}

func parseDocuments(data []byte, source string) (documents, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return documents{}, fmt.Errorf("loader: file %s is empty", source)
	}

	var root map[string]any
	if err := json.Unmarshal(data, &root); err != nil {
		if yamlErr := yaml.Unmarshal(data, &root); yamlErr != nil {
			return documents{}, fmt.Errorf("loader: parse %s: invalid JSON or YAML: %w", source, yamlErr)
		}
	}
	if root == nil {
		return documents{}, fmt.Errorf("loader: file %s holds no document", source)
	}

	raw, ok := root["forms"]
	if !ok {
		return documents{forms: []map[string]any{root}, single: true}, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return documents{}, fmt.Errorf("loader: %s: forms must be a list, got %T", source, raw)
	}
	docs := make([]map[string]any, 0, len(list))
	for i, item := range list {
		doc, ok := item.(map[string]any)
		if !ok {
			return documents{}, fmt.Errorf("loader: %s: forms[%d] must be a mapping, got %T", source, i, item)
		}
		docs = append(docs, doc)
	}
	return documents{forms: docs}, nil
}

func stringField(doc map[string]any, key string) string {
	value, _ := doc[key].(string)
	return strings.TrimSpace(value)
}

func isFormFile(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	default:
		return false
	}
}
