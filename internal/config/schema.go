package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// schemaJSON describes the shape of an operator-supplied YAML config file.
// Kept inline rather than loaded from schema.json on disk so the binary has
// no runtime dependency on its own working directory.
const schemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "host": {"type": "string"},
    "port": {"type": "integer", "minimum": 1, "maximum": 65535},
    "players": {"type": "integer", "minimum": 2, "maximum": 4},
    "broadcastInterval": {"type": "string"},
    "ticks": {"type": "integer", "minimum": 1},
    "seed": {"type": "integer"},
    "joinCode": {"type": "string"},
    "sandbox": {"type": "boolean"},
    "saveReplay": {"type": "boolean"},
    "replayFilepath": {"type": "string"},
    "overwriteReplayFile": {"type": "boolean"},
    "eagerBroadcast": {"type": "boolean"},
    "enablePprofTrace": {"type": "boolean"}
  },
  "additionalProperties": false
}`

// ValidateFile checks a YAML config file against schemaJSON, converting it
// to JSON first since the jsonschema package validates decoded values, not
// a particular source syntax.
func ValidateFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	doc = normalizeYAMLMaps(doc)

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", strings.NewReader(schemaJSON)); err != nil {
		return fmt.Errorf("load schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("config file %s failed validation: %w", path, err)
	}
	return nil
}

// normalizeYAMLMaps converts yaml.v3's map[string]any (already string-keyed
// for object nodes) recursively, which jsonschema expects at every level.
func normalizeYAMLMaps(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeYAMLMaps(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeYAMLMaps(val)
		}
		return out
	default:
		return v
	}
}
