// Package pipecfg loads pipeline definitions from YAML and builds the
// handler chains the importer runs.
package pipecfg

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/docpipe/docpipe/internal/handler"
	"github.com/docpipe/docpipe/internal/handlers"
	"github.com/docpipe/docpipe/internal/importer"
	"github.com/docpipe/docpipe/internal/streamio"
)

// Pipeline is the parsed YAML pipeline definition.
type Pipeline struct {
	PreParse  []HandlerSpec `koanf:"pre_parse"`
	PostParse []HandlerSpec `koanf:"post_parse"`
}

// HandlerSpec configures one handler in a phase chain.
type HandlerSpec struct {
	Type string `koanf:"type"`

	// Tagger and filter options.
	Field       string   `koanf:"field"`
	Values      []string `koanf:"values"`
	Fields      []string `koanf:"fields"`
	From        string   `koanf:"from"`
	To          string   `koanf:"to"`
	Overwrite   bool     `koanf:"overwrite"`
	Pattern     string   `koanf:"pattern"`
	Replacement string   `koanf:"replacement"`
	Mode        string   `koanf:"mode"`

	// Chunk splitter options.
	ChunkSize    int `koanf:"chunk_size"`
	ChunkOverlap int `koanf:"chunk_overlap"`
	MinChunk     int `koanf:"min_chunk"`

	RestrictTo []RestrictionSpec `koanf:"restrict_to"`
}

// RestrictionSpec gates a handler to documents whose field matches.
type RestrictionSpec struct {
	Field   string `koanf:"field"`
	Pattern string `koanf:"pattern"`
}

// Load reads a pipeline definition from path. Environment variables
// prefixed with DOCPIPE_PIPELINE_ override file values.
func Load(path string) (*Pipeline, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("pipeline file %s: %w", path, err)
		}
		return nil, fmt.Errorf("load pipeline %s: %w", path, err)
	}

	if err := k.Load(env.Provider("DOCPIPE_PIPELINE_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "DOCPIPE_PIPELINE_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("load pipeline env: %w", err)
	}

	var p Pipeline
	if err := k.Unmarshal("", &p); err != nil {
		return nil, fmt.Errorf("unmarshal pipeline: %w", err)
	}
	return &p, nil
}

// Build resolves the definition into importer chains. The stream
// config is handed to splitters that spool child content.
func (p *Pipeline) Build(stream streamio.Config) (pre, post []importer.HandlerEntry, err error) {
	pre, err = buildChain(p.PreParse, stream)
	if err != nil {
		return nil, nil, fmt.Errorf("pre_parse: %w", err)
	}
	post, err = buildChain(p.PostParse, stream)
	if err != nil {
		return nil, nil, fmt.Errorf("post_parse: %w", err)
	}
	return pre, post, nil
}

func buildChain(specs []HandlerSpec, stream streamio.Config) ([]importer.HandlerEntry, error) {
	var chain []importer.HandlerEntry
	for i, spec := range specs {
		entry, err := buildEntry(spec, stream)
		if err != nil {
			return nil, fmt.Errorf("handler %d (%s): %w", i, spec.Type, err)
		}
		chain = append(chain, entry)
	}
	return chain, nil
}

func buildEntry(spec HandlerSpec, stream streamio.Config) (importer.HandlerEntry, error) {
	restrictions, err := buildRestrictions(spec.RestrictTo)
	if err != nil {
		return importer.HandlerEntry{}, err
	}

	switch spec.Type {
	case "constant":
		if spec.Field == "" {
			return importer.HandlerEntry{}, fmt.Errorf("constant tagger requires field")
		}
		return importer.Tag(&handlers.ConstantTagger{
			Field:     spec.Field,
			Values:    spec.Values,
			Overwrite: spec.Overwrite,
		}, restrictions...), nil
	case "rename":
		if spec.From == "" || spec.To == "" {
			return importer.HandlerEntry{}, fmt.Errorf("rename tagger requires from and to")
		}
		return importer.Tag(&handlers.RenameTagger{
			From:      spec.From,
			To:        spec.To,
			Overwrite: spec.Overwrite,
		}, restrictions...), nil
	case "delete":
		if len(spec.Fields) == 0 {
			return importer.HandlerEntry{}, fmt.Errorf("delete tagger requires fields")
		}
		return importer.Tag(&handlers.DeleteTagger{Fields: spec.Fields}, restrictions...), nil
	case "text_pattern":
		t, err := handlers.NewTextPatternTagger(spec.Field, spec.Pattern)
		if err != nil {
			return importer.HandlerEntry{}, err
		}
		return importer.Tag(t, restrictions...), nil
	case "replace":
		t, err := handlers.NewReplaceTransformer(spec.Pattern, spec.Replacement)
		if err != nil {
			return importer.HandlerEntry{}, err
		}
		return importer.Transform(t, restrictions...), nil
	case "field_filter":
		mode, err := parseMode(spec.Mode)
		if err != nil {
			return importer.HandlerEntry{}, err
		}
		f, err := handlers.NewFieldFilter(spec.Field, spec.Pattern, mode)
		if err != nil {
			return importer.HandlerEntry{}, err
		}
		return importer.Filter(f, restrictions...), nil
	case "content_filter":
		mode, err := parseMode(spec.Mode)
		if err != nil {
			return importer.HandlerEntry{}, err
		}
		f, err := handlers.NewContentFilter(spec.Pattern, mode)
		if err != nil {
			return importer.HandlerEntry{}, err
		}
		return importer.Filter(f, restrictions...), nil
	case "csv_splitter":
		return importer.Split(&handlers.CSVSplitter{Stream: stream}, restrictions...), nil
	case "chunk_splitter":
		return importer.Split(&handlers.ChunkSplitter{
			ChunkSize:    spec.ChunkSize,
			ChunkOverlap: spec.ChunkOverlap,
			MinChunk:     spec.MinChunk,
			Stream:       stream,
		}, restrictions...), nil
	case "":
		return importer.HandlerEntry{}, fmt.Errorf("handler type missing")
	default:
		return importer.HandlerEntry{}, fmt.Errorf("unknown handler type %q", spec.Type)
	}
}

func buildRestrictions(specs []RestrictionSpec) ([]handler.Restriction, error) {
	var out []handler.Restriction
	for _, rs := range specs {
		if rs.Field == "" {
			return nil, fmt.Errorf("restriction requires field")
		}
		r, err := handler.NewFieldRestriction(rs.Field, rs.Pattern)
		if err != nil {
			return nil, fmt.Errorf("restriction on %s: %w", rs.Field, err)
		}
		out = append(out, r)
	}
	return out, nil
}

func parseMode(mode string) (handler.OnMatch, error) {
	switch mode {
	case "", "exclude":
		return handler.OnMatchExclude, nil
	case "include":
		return handler.OnMatchInclude, nil
	default:
		return handler.OnMatchExclude, fmt.Errorf("unknown filter mode %q", mode)
	}
}
