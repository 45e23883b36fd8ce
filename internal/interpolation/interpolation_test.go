package interpolation

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Hello {name}, you have %d new messages", []string{"{name}", "%d"}},
		{"Total: ${amount} ({{ currency }})", []string{"${amount}", "{{ currency }}"}},
		{"100% organic", nil},
		{"Step {0} of {1}", []string{"{0}", "{1}"}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, Extract(tt.in)); diff != "" {
			t.Errorf("Extract(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

func TestMissing(t *testing.T) {
	tests := []struct {
		source, translated string
		want               []string
	}{
		{"Hi {name}", "Salut {name}", nil},
		{"Hi {name}", "Salut", []string{"{name}"}},
		{"{0} of {0}", "{0} sur", []string{"{0}"}},
		{"%d items", "articles", []string{"%d"}},
		{"No placeholders", "Pas de variables", nil},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, Missing(tt.source, tt.translated)); diff != "" {
			t.Errorf("Missing(%q, %q) mismatch (-want +got):\n%s", tt.source, tt.translated, diff)
		}
	}
}
