package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Codec encodes and decodes one snapshot.
type Codec interface {
	Name() string
	Extension() string
	Marshal(snapshot map[string]any) ([]byte, error)
	Unmarshal(data []byte) (map[string]any, error)
}

var (
	JSON Codec = jsonCodec{}
	YAML Codec = yamlCodec{}
	TOML Codec = tomlCodec{}
)

// CodecFor resolves a codec by format name ("json", "yaml"/"yml", "toml").
// An empty format selects JSON.
func CodecFor(format string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	case "toml":
		return TOML, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

type jsonCodec struct{}

func (jsonCodec) Name() string      { return "json" }
func (jsonCodec) Extension() string { return ".json" }

func (jsonCodec) Marshal(snapshot map[string]any) ([]byte, error) {
	return json.MarshalIndent(snapshot, "", "  ")
}

func (jsonCodec) Unmarshal(data []byte) (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type yamlCodec struct{}

func (yamlCodec) Name() string      { return "yaml" }
func (yamlCodec) Extension() string { return ".yaml" }

func (yamlCodec) Marshal(snapshot map[string]any) ([]byte, error) {
	return yaml.Marshal(snapshot)
}

func (yamlCodec) Unmarshal(data []byte) (map[string]any, error) {
	var out map[string]any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type tomlCodec struct{}

func (tomlCodec) Name() string      { return "toml" }
func (tomlCodec) Extension() string { return ".toml" }

func (tomlCodec) Marshal(snapshot map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(snapshot); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (tomlCodec) Unmarshal(data []byte) (map[string]any, error) {
	out := map[string]any{}
	if err := toml.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
