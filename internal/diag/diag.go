// Package diag implements the structured diagnostic sink described in
// spec.md §7. The analyzer never writes to stdout/stderr itself; it
// reports typed Diagnostic values to an injected Sink, the way the
// teacher's internal/errors package carries a typed SentraError instead of
// a bare error string.
package diag

import (
	"fmt"
	"strings"

	"sentra-semant/internal/ast"
)

// Kind enumerates the error taxonomy of spec.md §7. Each is a distinct
// value, never a formatted string compared by prefix.
type Kind string

const (
	UnknownName       Kind = "UnknownName"
	DuplicateName     Kind = "DuplicateName"
	TypeMismatch      Kind = "TypeMismatch"
	NotAnLvalue       Kind = "NotAnLvalue"
	NonLocalAssign    Kind = "NonLocalAssignment"
	BadFieldAccess    Kind = "BadFieldAccess"
	BadCall           Kind = "BadCall"
	UnassignedReturn  Kind = "UnassignedReturn"
	UnknownImport     Kind = "UnknownImport"
	InternalInvariant Kind = "InternalInvariant"
)

// Severity mirrors the teacher's error/warning split, kept minimal since
// the spec only ever reports errors.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic is one reported event: a kind, an optional source span, and a
// rendered message. Analysis continues after every Diagnostic except
// InternalInvariant, which the driver is free to treat as fatal.
type Diagnostic struct {
	Severity Severity
	Kind     Kind
	Span     *ast.Span
	Message  string
}

// Error implements the error interface so a Diagnostic can flow through
// ordinary Go error handling wherever that's more convenient than the sink.
func (d *Diagnostic) Error() string {
	var sb strings.Builder
	sb.WriteString(string(d.Severity))
	sb.WriteString(": ")
	sb.WriteString(string(d.Kind))
	sb.WriteString(": ")
	sb.WriteString(d.Message)
	if d.Span != nil {
		fmt.Fprintf(&sb, " (at %d:%d)", d.Span.Line, d.Span.Column)
	}
	return sb.String()
}

// Sink is the injected diagnostic callback of spec.md §6. A driver may
// supply any implementation; analyzer code only ever calls Report.
type Sink interface {
	Report(d Diagnostic)
}

// Collector is a Sink that accumulates every Diagnostic in order, the
// default used by tests and by the driver before rendering.
type Collector struct {
	Diagnostics []Diagnostic
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Report implements Sink.
func (c *Collector) Report(d Diagnostic) {
	c.Diagnostics = append(c.Diagnostics, d)
}

// HasErrors reports whether any SeverityError diagnostic was collected.
func (c *Collector) HasErrors() bool {
	for _, d := range c.Diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errorf reports a SeverityError Diagnostic of the given kind at an
// optional span, the single call site every recoverable analyzer error
// path uses.
func Errorf(sink Sink, kind Kind, span *ast.Span, format string, args ...interface{}) {
	sink.Report(Diagnostic{
		Severity: SeverityError,
		Kind:     kind,
		Span:     span,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Invariant reports an InternalInvariant Diagnostic and panics with it.
// spec.md §7 requires invariant violations to abort the process rather
// than accumulate like ordinary errors; the panic carries the Diagnostic
// itself so a recover() at the driver boundary can still render it.
func Invariant(sink Sink, span *ast.Span, format string, args ...interface{}) {
	d := Diagnostic{
		Severity: SeverityError,
		Kind:     InternalInvariant,
		Span:     span,
		Message:  fmt.Sprintf(format, args...),
	}
	sink.Report(d)
	panic(&d)
}
