package diagserver

import (
	"testing"

	"sentra-semant/internal/diag"
)

type fakeSink struct {
	reports []diag.Diagnostic
}

func (f *fakeSink) Report(d diag.Diagnostic) {
	f.reports = append(f.reports, d)
}

// TestReportForwardsToInnerWithNoClients grounds the package doc's claim
// that reporting here "both forwards it to the wrapped sink... and fans it
// out" — with zero connected websocket clients, the forward must still
// happen so analysis semantics never depend on whether anyone is watching.
func TestReportForwardsToInnerWithNoClients(t *testing.T) {
	inner := &fakeSink{}
	s := New(inner)

	s.Report(diag.Diagnostic{Severity: diag.SeverityError, Kind: diag.TypeMismatch, Message: "boom"})

	if len(inner.reports) != 1 {
		t.Fatalf("inner sink got %d reports, want 1", len(inner.reports))
	}
	if inner.reports[0].Kind != diag.TypeMismatch {
		t.Errorf("forwarded diagnostic kind = %v, want TypeMismatch", inner.reports[0].Kind)
	}
}

func TestNewHasNoClientsInitially(t *testing.T) {
	s := New(&fakeSink{})
	if len(s.clients) != 0 {
		t.Errorf("New() server has %d clients, want 0", len(s.clients))
	}
}
