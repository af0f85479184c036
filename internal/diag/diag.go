// Package diag implements the elaboration core's error taxonomy.
// Positions are represented with hashicorp/hcl/v2's hcl.Pos/hcl.Range, the
// same source-location types HCL-based tooling elsewhere in this stack
// threads through its own diagnostics.
package diag

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
)

// Kind is one diagnostic kind from the closed taxonomy this package reports.
type Kind string

const (
	// Parse.
	SyntaxError Kind = "SyntaxError"

	// Name/type.
	UnresolvedName Kind = "UnresolvedName"
	UnresolvedType Kind = "UnresolvedType"
	DuplicateName  Kind = "DuplicateName"
	DuplicateType  Kind = "DuplicateType"
	TypeMismatch   Kind = "TypeMismatch"
	BadParameter   Kind = "BadParameter"

	// Expression.
	DivisionByZero  Kind = "DivisionByZero"
	BadShift        Kind = "BadShift"
	OverflowInWidth Kind = "OverflowInWidth"

	// Structure.
	IllegalChild    Kind = "IllegalChild"
	ForwardReference Kind = "ForwardReference"

	// Layout.
	BitRangeInconsistent Kind = "BitRangeInconsistent"
	FieldOverlap         Kind = "FieldOverlap"
	FieldOutOfRange      Kind = "FieldOutOfRange"
	InstanceOverlap      Kind = "InstanceOverlap"
	AddressOverlap       Kind = "AddressOverlap"
	MisalignedAddress    Kind = "MisalignedAddress" // warning-only

	// Internal.
	Unsupported Kind = "Unsupported"
)

// Severity distinguishes fatal diagnostics from warnings that may coexist
// with a successful root.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// defaultSeverity returns the taxonomy's fixed severity for a kind. Only
// MisalignedAddress is a warning; every other kind is fatal.
func defaultSeverity(k Kind) Severity {
	if k == MisalignedAddress {
		return SeverityWarning
	}
	return SeverityError
}

// Diagnostic is one reported problem, carrying its kind, message, file,
// line/column range, and an optional related-node path.
type Diagnostic struct {
	Kind     Kind
	Severity Severity
	Message  string
	Range    hcl.Range
	// Path is the related-node path, e.g. ["top", "rf", "r"], present when
	// the diagnostic concerns a node other than the one at Range.
	Path []string
}

// New builds a diagnostic with the kind's default severity.
func New(kind Kind, rng hcl.Range, format string, args ...interface{}) Diagnostic {
	return Diagnostic{
		Kind:     kind,
		Severity: defaultSeverity(kind),
		Message:  fmt.Sprintf(format, args...),
		Range:    rng,
	}
}

// WithPath returns a copy of d annotated with a related-node path.
func (d Diagnostic) WithPath(path []string) Diagnostic {
	d.Path = append([]string(nil), path...)
	return d
}

// String renders a diagnostic the way the CLI prints it:
// path:line:col: <kind>: <message>
func (d Diagnostic) String() string {
	file := d.Range.Filename
	if file == "" {
		file = "<input>"
	}
	return fmt.Sprintf("%s:%d:%d: %s: %s", file, d.Range.Start.Line, d.Range.Start.Column, d.Kind, d.Message)
}

// Diagnostics is an accumulated, ordered list of diagnostics.
type Diagnostics []Diagnostic

// Add appends d.
func (ds *Diagnostics) Add(d Diagnostic) {
	*ds = append(*ds, d)
}

// HasErrors reports whether any diagnostic has error severity. A non-empty
// diagnostic list containing an error means elaboration produced no root.
func (ds Diagnostics) HasErrors() bool {
	for _, d := range ds {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// RangeAt builds an hcl.Range spanning a single ast source location. Kept
// here (rather than in package ast) since diag is the only consumer that
// needs the hcl.Pos shape.
func RangeAt(path string, startLine, startCol, endLine, endCol int) hcl.Range {
	return hcl.Range{
		Filename: path,
		Start:    hcl.Pos{Line: startLine, Column: startCol},
		End:      hcl.Pos{Line: endLine, Column: endCol},
	}
}
