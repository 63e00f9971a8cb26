// Package validation checks request bodies against embedded JSON schemas
// before they are decoded into handler payloads.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// Schema names. They are absolute URLs so the compiler resolves them from
// the in-memory resources instead of the filesystem.
const (
	CreateUser   = "mem://schemas/create_user.json"
	CreateTask   = "mem://schemas/create_task.json"
	UpdateStatus = "mem://schemas/update_status.json"
)

var schemas = map[string]string{
	CreateUser: `{
		"type": "object",
		"required": ["name", "email"],
		"properties": {
			"name":  {"type": "string", "minLength": 1},
			"email": {"type": "string", "minLength": 1}
		}
	}`,
	// user_id may be absent here; the task service reports a missing owner.
	CreateTask: `{
		"type": "object",
		"required": ["title"],
		"properties": {
			"title":       {"type": "string", "minLength": 1},
			"description": {"type": ["string", "null"]},
			"user_id":     {"type": ["integer", "null"]}
		}
	}`,
	UpdateStatus: `{
		"type": "object",
		"required": ["is_completed"],
		"properties": {
			"is_completed": {"type": "boolean"}
		}
	}`,
}

// Error describes why a body was rejected.
type Error struct {
	Path    string
	Message string
}

func (e *Error) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return e.Path + ": " + e.Message
}

// Validator holds the compiled request schemas.
type Validator struct {
	schemas map[string]*jsonschema.Schema
}

// New compiles every request schema.
func New() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	for name, src := range schemas {
		if err := compiler.AddResource(name, strings.NewReader(src)); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", name, err)
		}
	}

	v := &Validator{schemas: make(map[string]*jsonschema.Schema, len(schemas))}
	for name := range schemas {
		schema, err := compiler.Compile(name)
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		v.schemas[name] = schema
	}
	return v, nil
}

// MustNew is New for package initialisation; the schemas are constants.
func MustNew() *Validator {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}

// Decode validates body against the named schema and unmarshals it into dst.
// Rejections are returned as *Error.
func (v *Validator) Decode(name string, body []byte, dst any) error {
	schema, ok := v.schemas[name]
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return &Error{Message: "request body must be valid JSON"}
	}
	if err := schema.Validate(doc); err != nil {
		return toError(err)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return &Error{Message: err.Error()}
	}
	return nil
}

// toError reduces a schema failure to its first leaf cause.
func toError(err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return &Error{Message: err.Error()}
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return &Error{
		Path:    strings.TrimPrefix(strings.ReplaceAll(ve.InstanceLocation, "/", "."), "."),
		Message: ve.Message,
	}
}
