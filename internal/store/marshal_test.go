package store

import (
	"math"
	"reflect"
	"testing"

	"github.com/roach88/domfuzz/internal/corpus"
)

func TestMarshalDiagnostics_Empty(t *testing.T) {
	for _, diags := range [][]corpus.Diagnostic{nil, {}} {
		got, err := marshalDiagnostics(diags)
		if err != nil {
			t.Fatalf("marshalDiagnostics() failed: %v", err)
		}
		if got != "[]" {
			t.Errorf("marshalDiagnostics(%v) = %q, want []", diags, got)
		}
	}

	back, err := unmarshalDiagnostics("")
	if err != nil {
		t.Fatal(err)
	}
	if back == nil || len(back) != 0 {
		t.Errorf("unmarshalDiagnostics(\"\") = %v, want empty slice", back)
	}
}

func TestMarshalDiagnostics_NoHTMLEscaping(t *testing.T) {
	diags := []corpus.Diagnostic{{Rule: "r", Kind: "choice", DocPath: "/a", Message: "<b> & c"}}

	got, err := marshalDiagnostics(diags)
	if err != nil {
		t.Fatalf("marshalDiagnostics() failed: %v", err)
	}
	want := `[{"rule":"r","kind":"choice","doc_path":"/a","message":"<b> & c"}]`
	if got != want {
		t.Errorf("marshalDiagnostics() = %s, want %s", got, want)
	}

	back, err := unmarshalDiagnostics(got)
	if err != nil {
		t.Fatalf("unmarshalDiagnostics() failed: %v", err)
	}
	if !reflect.DeepEqual(back, diags) {
		t.Errorf("unmarshalDiagnostics() = %v, want %v", back, diags)
	}
}

func TestUnmarshalDiagnostics_Invalid(t *testing.T) {
	if _, err := unmarshalDiagnostics("{not json"); err == nil {
		t.Error("expected error for invalid JSON, got nil")
	}
}

func TestSeedConversion(t *testing.T) {
	for _, seed := range []uint64{0, 1, math.MaxInt64, math.MaxInt64 + 1, math.MaxUint64} {
		if got := seedFromDB(seedToDB(seed)); got != seed {
			t.Errorf("seed %d round-tripped to %d", seed, got)
		}
	}
}
