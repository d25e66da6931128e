package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"

	_ "embed"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed definition_schema.json
var definitionSchemaJSON string

// Kind is the declared type of a schema node.
type Kind string

const (
	KindString  Kind = "string"
	KindInteger Kind = "integer"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindObject  Kind = "object"
	KindArray   Kind = "array"
)

// Node is one node of a parsed artifact schema definition. Properties and
// Required apply to objects, Items to arrays.
type Node struct {
	Kind       Kind
	Properties map[string]*Node
	Required   []string
	Items      *Node
}

type rawNode struct {
	Type       Kind                       `json:"type"`
	Properties map[string]json.RawMessage `json:"properties"`
	Required   []string                   `json:"required"`
	Items      json.RawMessage            `json:"items"`
}

var (
	compileOnce      sync.Once
	definitionSchema *jsonschema.Schema
	compileErr       error
)

// DefinitionSchema returns the compiled meta-schema stored definitions
// must satisfy.
func DefinitionSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("artifact_definition.json", strings.NewReader(definitionSchemaJSON)); err != nil {
			compileErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		schema, err := compiler.Compile("artifact_definition.json")
		if err != nil {
			compileErr = fmt.Errorf("compile definition schema: %w", err)
			return
		}
		definitionSchema = schema
	})
	return definitionSchema, compileErr
}

// ValidateDefinition checks a definition before it is stored.
func ValidateDefinition(raw json.RawMessage) error {
	schema, err := DefinitionSchema()
	if err != nil {
		return err
	}
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("definition is not valid JSON: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("definition does not match schema: %w", err)
	}
	_, err = ParseDefinition(raw)
	return err
}

// ParseDefinition builds the node tree of a definition. The root must be
// an object.
func ParseDefinition(raw json.RawMessage) (*Node, error) {
	n, err := parseNode(raw, "")
	if err != nil {
		return nil, err
	}
	if n.Kind != KindObject {
		return nil, fmt.Errorf("definition root must be an object, got %q", n.Kind)
	}
	return n, nil
}

func parseNode(raw json.RawMessage, path string) (*Node, error) {
	var r rawNode
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("%s: %w", pathOrRoot(path), err)
	}
	n := &Node{Kind: r.Type}
	switch r.Type {
	case KindString, KindInteger, KindNumber, KindBoolean:
	case KindObject:
		n.Properties = make(map[string]*Node, len(r.Properties))
		for name, child := range r.Properties {
			c, err := parseNode(child, join(path, name))
			if err != nil {
				return nil, err
			}
			n.Properties[name] = c
		}
		for _, name := range r.Required {
			if _, ok := n.Properties[name]; !ok {
				return nil, fmt.Errorf("%s: required field %q is not declared", pathOrRoot(path), name)
			}
		}
		n.Required = slices.Clone(r.Required)
	case KindArray:
		if len(r.Items) == 0 {
			return nil, fmt.Errorf("%s: array without items", pathOrRoot(path))
		}
		items, err := parseNode(r.Items, path+"[]")
		if err != nil {
			return nil, err
		}
		n.Items = items
	default:
		return nil, fmt.Errorf("%s: unknown type %q", pathOrRoot(path), r.Type)
	}
	return n, nil
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func pathOrRoot(path string) string {
	if path == "" {
		return "(root)"
	}
	return path
}
