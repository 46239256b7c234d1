package shared

import (
	"strings"
	"testing"
)

// =============================================================================
// Tests for MarkdownTheme
// =============================================================================

func TestMarkdownTheme_UsesPalette(t *testing.T) {
	if MarkdownTheme.Accent != ColorAccent {
		t.Errorf("Accent = %v, want %v", MarkdownTheme.Accent, ColorAccent)
	}
	if MarkdownTheme.Border != ColorBorder {
		t.Errorf("Border = %v, want %v", MarkdownTheme.Border, ColorBorder)
	}
	if MarkdownTheme.Code != ColorMedium || MarkdownTheme.CodeBackground != ColorSelected {
		t.Errorf("code colours = %v on %v", MarkdownTheme.Code, MarkdownTheme.CodeBackground)
	}
}

func TestRenderDivider(t *testing.T) {
	if got := RenderDivider(4); !strings.Contains(got, "────") {
		t.Errorf("RenderDivider(4) = %q", got)
	}
	if got := RenderDivider(0); strings.Contains(got, "─") {
		t.Errorf("RenderDivider(0) = %q, want empty rule", got)
	}
}
