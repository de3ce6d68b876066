package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/ashita-ai/manabi/internal/model"
)

// profile is the on-disk shape of one school and its reports.
type profile struct {
	School  model.School      `json:"school"`
	Reports []model.ICTReport `json:"reports"`
}

// loadProfile reads a .json, .yaml or .yml profile file. YAML is converted to
// JSON first so both formats share the model's field names and decoders.
// Missing IDs are generated and every report is attached to the school.
func loadProfile(path string) (profile, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // path is an explicit CLI argument
	if err != nil {
		return profile{}, fmt.Errorf("read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if raw, err = yamlToJSON(raw); err != nil {
			return profile{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".json":
	default:
		return profile{}, fmt.Errorf("%s: unsupported extension, want .json, .yaml or .yml", path)
	}

	p, err := decodeProfile(raw)
	if err != nil {
		return profile{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

func decodeProfile(raw []byte) (profile, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var p profile
	if err := dec.Decode(&p); err != nil {
		return profile{}, fmt.Errorf("decode profile: %w", err)
	}

	if p.School.ID == uuid.Nil {
		p.School.ID = uuid.New()
	}
	if err := model.ValidateSchool(p.School); err != nil {
		return profile{}, fmt.Errorf("school: %w", err)
	}
	for i := range p.Reports {
		r := &p.Reports[i]
		if r.ID == uuid.Nil {
			r.ID = uuid.New()
		}
		if r.SchoolID != uuid.Nil && r.SchoolID != p.School.ID {
			return profile{}, fmt.Errorf("reports[%d]: school_id %s does not match school id %s", i, r.SchoolID, p.School.ID)
		}
		r.SchoolID = p.School.ID
		if err := model.ValidateReport(*r); err != nil {
			return profile{}, fmt.Errorf("reports[%d]: %w", i, err)
		}
	}
	return p, nil
}

// yamlToJSON re-encodes a YAML document as JSON.
func yamlToJSON(raw []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errors.New("empty document")
	}
	doc, err := jsonCompatible(doc)
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// jsonCompatible rewrites map[any]any nodes, which encoding/json rejects,
// into map[string]any.
func jsonCompatible(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			c, err := jsonCompatible(child)
			if err != nil {
				return nil, err
			}
			t[k] = c
		}
		return t, nil
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("non-string key %v", k)
			}
			c, err := jsonCompatible(child)
			if err != nil {
				return nil, err
			}
			out[key] = c
		}
		return out, nil
	case []any:
		for i, child := range t {
			c, err := jsonCompatible(child)
			if err != nil {
				return nil, err
			}
			t[i] = c
		}
		return t, nil
	default:
		return v, nil
	}
}
