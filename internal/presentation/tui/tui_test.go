package tui

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewRenderer(t *testing.T) {
	render, err := NewRenderer(60)
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}
	out, err := render("Your EMI is **₹16,134**")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(out, "16,134") {
		t.Errorf("Rendered output lost content: %q", out)
	}
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "NBFC Finance", "0.1.0")
	if !strings.Contains(buf.String(), "NBFC Finance personal loans · v0.1.0") {
		t.Errorf("Banner missing tagline: %q", buf.String())
	}
}
