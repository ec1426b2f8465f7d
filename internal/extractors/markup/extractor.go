// Package markup extracts text from structured text formats: XML, YAML,
// JSON, TOML, INI-style configuration and property lists. Parsed formats
// yield their keys and scalar values; documents that fail to parse fall
// back to their raw text so nothing searchable is lost.
package markup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/trita-a/ricerca/internal/core/domain"
	"github.com/trita-a/ricerca/internal/core/ports/driven"
	"github.com/trita-a/ricerca/internal/extractors/textutil"
	"github.com/trita-a/ricerca/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

var bplistMagic = []byte("bplist")

// Extractor handles structured text formats.
type Extractor struct{}

// New creates a markup extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name identifies the extractor.
func (e *Extractor) Name() string {
	return "markup"
}

// Extensions returns the extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{
		".xml", ".xsd", ".xsl", ".rss", ".atom", ".kml", ".gpx",
		".yaml", ".yml",
		".json", ".jsonl", ".ndjson", ".geojson",
		".toml",
		".ini", ".cfg", ".conf", ".properties", ".env",
		".plist",
	}
}

// Extract dispatches on the extension.
func (e *Extractor) Extract(ctx context.Context, raw *domain.RawFile) (*domain.Extraction, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		text string
		err  error
	)
	switch ext := textutil.Ext(raw.Name); ext {
	case ".yaml", ".yml":
		text, err = yamlText(raw.Content)
	case ".json", ".jsonl", ".ndjson", ".geojson":
		text, err = jsonText(raw.Content)
	case ".toml":
		text, err = tomlText(raw.Content)
	case ".plist":
		if bytes.HasPrefix(raw.Content, bplistMagic) {
			text = textutil.PrintableRuns(raw.Content[len(bplistMagic):], 3)
		} else {
			text = textutil.StripTags(textutil.DecodeText(raw.Content))
		}
	case ".ini", ".cfg", ".conf", ".properties", ".env":
		text = textutil.CollapseLines(textutil.DecodeText(raw.Content))
	default:
		text = textutil.StripTags(textutil.DecodeText(raw.Content))
	}

	if err != nil {
		logger.Debug("Parsing %s failed, using raw text: %v", raw.Name, err)
		text = textutil.CollapseLines(textutil.DecodeText(raw.Content))
	}
	return &domain.Extraction{Text: text}, nil
}

// yamlText walks every document of a YAML stream.
func yamlText(data []byte) (string, error) {
	var out strings.Builder
	dec := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var node yaml.Node
		err := dec.Decode(&node)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("yaml: %w", err)
		}
		walkYAML(&out, &node)
	}
	return textutil.CollapseLines(out.String()), nil
}

func walkYAML(out *strings.Builder, node *yaml.Node) {
	switch node.Kind {
	case yaml.DocumentNode, yaml.SequenceNode:
		for _, child := range node.Content {
			walkYAML(out, child)
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, value := node.Content[i], node.Content[i+1]
			out.WriteString(key.Value)
			if value.Kind == yaml.ScalarNode {
				out.WriteByte(' ')
				out.WriteString(value.Value)
				out.WriteByte('\n')
				continue
			}
			out.WriteByte('\n')
			walkYAML(out, value)
		}
	case yaml.ScalarNode:
		out.WriteString(node.Value)
		out.WriteByte('\n')
	case yaml.AliasNode:
		// Aliases repeat content already written at the anchor.
	}
}

// jsonText decodes one or more concatenated JSON values (JSON Lines too).
func jsonText(data []byte) (string, error) {
	var out strings.Builder
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	for {
		var v any
		err := dec.Decode(&v)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("json: %w", err)
		}
		walkValue(&out, v)
	}
	return textutil.CollapseLines(out.String()), nil
}

func tomlText(data []byte) (string, error) {
	var v map[string]any
	if err := toml.Unmarshal(data, &v); err != nil {
		return "", fmt.Errorf("toml: %w", err)
	}
	var out strings.Builder
	walkValue(&out, v)
	return textutil.CollapseLines(out.String()), nil
}

// walkValue writes keys and scalar values of a decoded document, with
// map keys in sorted order.
func walkValue(out *strings.Builder, v any) {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out.WriteString(k)
			if child, ok := t[k].(map[string]any); ok {
				out.WriteByte('\n')
				walkValue(out, child)
				continue
			}
			if list, ok := t[k].([]any); ok {
				out.WriteByte('\n')
				walkValue(out, list)
				continue
			}
			out.WriteByte(' ')
			walkValue(out, t[k])
		}
	case []any:
		for _, item := range t {
			walkValue(out, item)
		}
	case nil:
		out.WriteByte('\n')
	default:
		fmt.Fprintf(out, "%v\n", t)
	}
}
