package landmarkmap

import (
	"strings"
	"testing"
)

func TestReadParsesRecords(t *testing.T) {
	src := "# comment\n0 1.5 2.5\n1 -3 4\n\n2 0 0\n"
	m, err := Read(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if m.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", m.Len())
	}
	if m.At(0) != (Landmark{Serial: 0, X: 1.5, Y: 2.5}) {
		t.Fatalf("At(0) = %+v", m.At(0))
	}
}

func TestReadRejectsMalformedLine(t *testing.T) {
	src := "0 1.5 2.5\nnotanumber 1 2\n"
	if _, err := Read(strings.NewReader(src)); err == nil {
		t.Fatalf("expected error for malformed line")
	}
}

func TestReadRejectsWrongFieldCount(t *testing.T) {
	src := "0 1.5\n"
	if _, err := Read(strings.NewReader(src)); err == nil {
		t.Fatalf("expected error for wrong field count")
	}
}
