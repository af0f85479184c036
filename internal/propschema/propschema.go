// Package propschema is the CUE-backed contract guard between the
// elaboration core and its callers: rather than let a property-schema
// mismatch or a malformed serialized model silently reach a downstream
// consumer, it validates immediately against an embedded schema and
// returns a clear diagnostic.
package propschema

import (
	"embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"

	"github.com/robert-at-pretension-io/rdl-elaborate/internal/value"
)

//go:embed schema.cue
var propertySchemaFS embed.FS

//go:embed output_schema.cue
var outputSchemaFS embed.FS

//go:embed ast_schema.cue
var astSchemaFS embed.FS

// Schema loads the built-in SystemRDL property schema and the two output
// contracts (elaborated-model JSON, AST JSON) once, at elaborator
// construction. It holds no mutable state after that and can be shared
// freely across concurrent elaboration runs.
type Schema struct {
	ctx *cue.Context

	propertyKinds map[string]value.Kind
	enumDomains   map[string][]string

	outputSchema cue.Value
	astSchema    cue.Value
}

// New loads and compiles the embedded schemas.
func New() (*Schema, error) {
	ctx := cuecontext.New()

	propBytes, err := propertySchemaFS.ReadFile("schema.cue")
	if err != nil {
		return nil, fmt.Errorf("loading property schema: %w", err)
	}
	propSchema := ctx.CompileBytes(propBytes)
	if propSchema.Err() != nil {
		return nil, fmt.Errorf("compiling property schema: %w", propSchema.Err())
	}

	outBytes, err := outputSchemaFS.ReadFile("output_schema.cue")
	if err != nil {
		return nil, fmt.Errorf("loading output schema: %w", err)
	}
	outSchema := ctx.CompileBytes(outBytes)
	if outSchema.Err() != nil {
		return nil, fmt.Errorf("compiling output schema: %w", outSchema.Err())
	}

	astBytes, err := astSchemaFS.ReadFile("ast_schema.cue")
	if err != nil {
		return nil, fmt.Errorf("loading ast schema: %w", err)
	}
	astSchema := ctx.CompileBytes(astBytes)
	if astSchema.Err() != nil {
		return nil, fmt.Errorf("compiling ast schema: %w", astSchema.Err())
	}

	s := &Schema{
		ctx:          ctx,
		outputSchema: outSchema,
		astSchema:    astSchema,
	}

	kinds, err := extractPropertyKinds(propSchema)
	if err != nil {
		return nil, err
	}
	s.propertyKinds = kinds

	domains, err := extractEnumDomains(propSchema)
	if err != nil {
		return nil, err
	}
	s.enumDomains = domains

	return s, nil
}

func extractPropertyKinds(schema cue.Value) (map[string]value.Kind, error) {
	props := schema.LookupPath(cue.ParsePath("#BuiltinProperties"))
	if props.Err() != nil {
		return nil, fmt.Errorf("looking up #BuiltinProperties: %w", props.Err())
	}
	out := make(map[string]value.Kind)
	iter, err := props.Fields()
	if err != nil {
		return nil, fmt.Errorf("iterating #BuiltinProperties: %w", err)
	}
	for iter.Next() {
		name := iter.Selector().String()
		s, err := iter.Value().String()
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", name, err)
		}
		k, ok := parseKindName(s)
		if !ok {
			return nil, fmt.Errorf("property %s: unknown declared kind %q", name, s)
		}
		out[name] = k
	}
	return out, nil
}

func extractEnumDomains(schema cue.Value) (map[string][]string, error) {
	enums := schema.LookupPath(cue.ParsePath("#BuiltinEnums"))
	if enums.Err() != nil {
		return nil, fmt.Errorf("looking up #BuiltinEnums: %w", enums.Err())
	}
	out := make(map[string][]string)
	iter, err := enums.Fields()
	if err != nil {
		return nil, fmt.Errorf("iterating #BuiltinEnums: %w", err)
	}
	for iter.Next() {
		name := iter.Selector().String()
		list, err := iter.Value().List()
		if err != nil {
			return nil, fmt.Errorf("enum %s: %w", name, err)
		}
		var vals []string
		for list.Next() {
			s, err := list.Value().String()
			if err != nil {
				return nil, fmt.Errorf("enum %s: %w", name, err)
			}
			vals = append(vals, s)
		}
		out[name] = vals
	}
	return out, nil
}

func parseKindName(s string) (value.Kind, bool) {
	switch s {
	case "int":
		return value.KindInt, true
	case "bool":
		return value.KindBool, true
	case "string":
		return value.KindStr, true
	case "enum":
		return value.KindEnum, true
	case "ref":
		return value.KindRef, true
	}
	return 0, false
}

// PropertyKind returns the declared kind for a builtin property name, and
// whether it is builtin at all. User-defined properties (ok == false) are
// accepted with any value kind.
func (s *Schema) PropertyKind(name string) (value.Kind, bool) {
	k, ok := s.propertyKinds[name]
	return k, ok
}

// EnumDomain returns the legal enumerator names for a builtin enum-typed
// property (e.g. "sw" -> ["rw","r","w",...]).
func (s *Schema) EnumDomain(propertyName string) ([]string, bool) {
	d, ok := s.enumDomains[propertyName]
	return d, ok
}

// ValidateModel checks a value that will be serialized as the elaborated
// model JSON against #Model.
func (s *Schema) ValidateModel(jsonBytes []byte) error {
	return s.validateAgainst(s.outputSchema, "#Model", jsonBytes)
}

// ValidateAST checks a value that will be serialized as the AST JSON
// against #ASTDoc.
func (s *Schema) ValidateAST(jsonBytes []byte) error {
	return s.validateAgainst(s.astSchema, "#ASTDoc", jsonBytes)
}

func (s *Schema) validateAgainst(schema cue.Value, defPath string, jsonBytes []byte) error {
	dataValue := s.ctx.CompileBytes(jsonBytes)
	if dataValue.Err() != nil {
		return fmt.Errorf("compiling data as CUE: %w", dataValue.Err())
	}
	def := schema.LookupPath(cue.ParsePath(defPath))
	if def.Err() != nil {
		return fmt.Errorf("looking up %s: %w", defPath, def.Err())
	}
	unified := def.Unify(dataValue)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		var msgs []string
		for _, e := range errors.Errors(err) {
			msgs = append(msgs, e.Error())
		}
		return fmt.Errorf("schema validation failed: %v", msgs)
	}
	return nil
}
