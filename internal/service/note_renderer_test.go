package service

import (
	"strings"
	"testing"
)

func TestRenderNote(t *testing.T) {
	html, err := RenderNote("**5km** easy pace\nfelt good <script>alert(1)</script>")
	if err != nil {
		t.Fatalf("RenderNote returned error: %v", err)
	}

	out := string(html)
	if !strings.Contains(out, "<strong>5km</strong>") {
		t.Fatalf("expected bold markup, got %s", out)
	}
	if !strings.Contains(out, "<br") {
		t.Fatalf("expected hard wraps, got %s", out)
	}
	if strings.Contains(out, "<script>") {
		t.Fatalf("expected script to be stripped, got %s", out)
	}

	empty, err := RenderNote("   ")
	if err != nil || empty != "" {
		t.Fatalf("expected empty output, got %q (%v)", empty, err)
	}
}
