package main

import (
	"fmt"
	"io"
	"strings"
	"testing"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Missing photos", statusWarn, "2", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Missing photos:", "[WARN] 2")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Processed", statusOK, "4", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestPassKind(t *testing.T) {
	if passKind(true) != statusOK || passKind(false) != statusError {
		t.Fatal("passKind mapping wrong")
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}

func TestStatusPrinterSections(t *testing.T) {
	var buf strings.Builder
	p := newStatusPrinter(&buf)
	p.section("Catalog")
	p.line("Items", statusInfo, "%d", 3)
	p.section("Last batch")
	p.line("Batch", statusInfo, "none recorded")

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	want := []string{
		"== Catalog ==",
		"-------------",
		renderStatusLine("Items", statusInfo, "3", false),
		"",
		"== Last batch ==",
		"----------------",
		renderStatusLine("Batch", statusInfo, "none recorded", false),
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), buf.String())
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}
