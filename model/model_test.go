package model

import "testing"

func TestFileRecordPredicates(t *testing.T) {
	f := &FileRecord{Attributes: AttrSparseFile | AttrReparsePoint}
	if !f.IsSparse() {
		t.Error("expected IsSparse true")
	}
	if !f.IsReparsePoint() {
		t.Error("expected IsReparsePoint true")
	}
	if f.IsCompressed() {
		t.Error("expected IsCompressed false")
	}
	if f.IsDirectory() {
		t.Error("expected IsDirectory false")
	}
}

func TestLinkResolutionStateDetectsCycle(t *testing.T) {
	s := NewLinkResolutionState()
	if already := s.Visit("a"); already {
		t.Fatal("first visit of a should not be a cycle")
	}
	if already := s.Visit("b"); already {
		t.Fatal("first visit of b should not be a cycle")
	}
	if already := s.Visit("a"); !already {
		t.Fatal("second visit of a should be reported as a cycle")
	}
}

func TestLinkKindString(t *testing.T) {
	cases := map[LinkKind]string{
		LinkNone:              "None",
		LinkJunction:          "Junction",
		LinkSymbolicFile:      "SymbolicFile",
		LinkSymbolicDirectory: "SymbolicDirectory",
		LinkHardLink:          "HardLink",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("LinkKind(%d).String() = %q, want %q", kind, got, want)
		}
	}
}
