package loader

import "testing"

func TestRepair(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		applied  int
	}{
		{
			name:     "bare ampersand",
			input:    "<L>a & b</L>",
			expected: "<L>a &amp; b</L>",
			applied:  1,
		},
		{
			name:     "trailing bare ampersand",
			input:    "<L>a &</L>",
			expected: "<L>a &amp;</L>",
			applied:  1,
		},
		{
			name:     "existing entities untouched",
			input:    "<L>a &amp; b &#233; &#xE9; &lt;</L>",
			expected: "<L>a &amp; b &#233; &#xE9; &lt;</L>",
			applied:  0,
		},
		{
			name:     "open bracket before whitespace",
			input:    "<L>1 < 2</L>",
			expected: "<L>1 &lt; 2</L>",
			applied:  1,
		},
		{
			name:     "close bracket after whitespace",
			input:    "<L>2 > 1</L>",
			expected: "<L>2 &gt; 1</L>",
			applied:  1,
		},
		{
			name:     "tag terminators untouched",
			input:    "<CMAD><CONTRAT/></CMAD>",
			expected: "<CMAD><CONTRAT/></CMAD>",
			applied:  0,
		},
		{
			name:     "all three at once",
			input:    "<L>a & b < c > d</L>",
			expected: "<L>a &amp; b &lt; c &gt; d</L>",
			applied:  3,
		},
		{
			name:     "unknown entity name is escaped",
			input:    "<L>caf&eacute;</L>",
			expected: "<L>caf&amp;eacute;</L>",
			applied:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, applied := Repair(tt.input)
			if got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
			if len(applied) != tt.applied {
				t.Errorf("applied %d repairs (%v), want %d", len(applied), applied, tt.applied)
			}
		})
	}
}
