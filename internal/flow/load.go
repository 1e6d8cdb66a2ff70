package flow

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

// Load error codes.
const (
	ErrCodeRead        = "F001" // file could not be read
	ErrCodeFormat      = "F002" // unsupported file extension
	ErrCodeDecode      = "F003" // malformed YAML / JSON / CUE
	ErrCodeInvalidFlow = "F004" // record violates flow invariants
)

// LoadError describes a flow file that could not be loaded.
type LoadError struct {
	Path    string
	Code    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Path, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// document is the on-disk envelope for flow files.
type document struct {
	Flows []*Flow `json:"flows" yaml:"flows"`
}

// LoadFile reads flows from a .yaml, .yml, .json or .cue file.
// Flows without an ID get one from gen; a nil gen uses UUIDv7Generator.
// Every record is validated; the first invalid one fails the whole load.
func LoadFile(path string, gen IDGenerator) ([]*Flow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Code: ErrCodeRead, Message: "reading flow file", Err: err}
	}

	var flows []*Flow
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		flows, err = DecodeYAML(bytes.NewReader(data))
	case ".json":
		flows, err = DecodeJSON(data)
	case ".cue":
		flows, err = DecodeCUE(data, path)
	default:
		return nil, &LoadError{Path: path, Code: ErrCodeFormat, Message: fmt.Sprintf("unsupported flow file extension %q", ext)}
	}
	if err != nil {
		return nil, &LoadError{Path: path, Code: ErrCodeDecode, Message: "decoding flows", Err: err}
	}

	if err := Prepare(flows, gen); err != nil {
		return nil, &LoadError{Path: path, Code: ErrCodeInvalidFlow, Message: "invalid flow", Err: err}
	}
	return flows, nil
}

// Prepare assigns missing IDs and validates every flow.
func Prepare(flows []*Flow, gen IDGenerator) error {
	if gen == nil {
		gen = UUIDv7Generator{}
	}
	seen := make(map[string]bool, len(flows))
	for i, f := range flows {
		if f == nil {
			return fmt.Errorf("flows[%d]: empty record", i)
		}
		if f.ID == "" {
			f.ID = gen.Generate()
		}
		if f.Kind == "" {
			f.Kind = KindHTTP
		}
		if seen[f.ID] {
			return fmt.Errorf("flows[%d]: duplicate id %q", i, f.ID)
		}
		seen[f.ID] = true
		if err := f.Validate(); err != nil {
			return fmt.Errorf("flows[%d]: %w", i, err)
		}
	}
	return nil
}

// DecodeYAML decodes a {flows: [...]} YAML document.
// Unknown fields are rejected so that typos surface as errors.
func DecodeYAML(r io.Reader) ([]*Flow, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return []*Flow{}, nil
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if doc.Flows == nil {
		doc.Flows = []*Flow{}
	}
	return doc.Flows, nil
}

// DecodeJSON decodes either a {"flows": [...]} object or a bare array, the
// shape returned by the mitmproxy web API.
func DecodeJSON(data []byte) ([]*Flow, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var flows []*Flow
		if err := strictJSON(trimmed, &flows); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
		return flows, nil
	}
	var doc document
	if err := strictJSON(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if doc.Flows == nil {
		doc.Flows = []*Flow{}
	}
	return doc.Flows, nil
}

// DecodeCUE evaluates a CUE file and decodes its top-level flows list.
func DecodeCUE(data []byte, filename string) ([]*Flow, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("building CUE value: %w", err)
	}

	flowsVal := value.LookupPath(cue.ParsePath("flows"))
	if !flowsVal.Exists() {
		return []*Flow{}, nil
	}
	if err := flowsVal.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("flows must be concrete: %w", err)
	}

	raw, err := flowsVal.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("exporting CUE flows: %w", err)
	}
	var flows []*Flow
	if err := strictJSON(raw, &flows); err != nil {
		return nil, fmt.Errorf("decoding CUE flows: %w", err)
	}
	return flows, nil
}

func strictJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
