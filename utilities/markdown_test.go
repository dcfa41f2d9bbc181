package utilities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderMarkdown(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		in          string
		contains    []string
		notContains []string
	}{
		{"empty", "   ", nil, []string{"<p>"}},
		{"emphasis", "call **Bob**", []string{"<strong>Bob</strong>"}, nil},
		{"list", "- milk\n- eggs", []string{"<li>milk</li>", "<li>eggs</li>"}, nil},
		{"raw html dropped", "hi <script>alert(1)</script>", []string{"hi"}, []string{"<script>"}},
		{"javascript link stripped", "[x](javascript:alert(1))", nil, []string{"javascript:"}},
		{"autolink", "see https://example.com", []string{`href="https://example.com"`}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := string(RenderMarkdown(tt.in))
			for _, s := range tt.contains {
				assert.Contains(t, got, s)
			}
			for _, s := range tt.notContains {
				assert.NotContains(t, got, s)
			}
		})
	}

	assert.Empty(t, string(RenderMarkdown("")))
}
