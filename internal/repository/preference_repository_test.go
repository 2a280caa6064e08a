package repository

import "testing"

func TestHashFloat(t *testing.T) {
	vals := []any{"2.5", nil, "junk", 7}

	tests := []struct {
		i    int
		want float64
	}{
		{0, 2.5},
		{1, 0},
		{2, 0},
		{3, 0},
		{9, 0},
	}
	for _, tt := range tests {
		if got := hashFloat(vals, tt.i); got != tt.want {
			t.Errorf("hashFloat(%d) = %v, want %v", tt.i, got, tt.want)
		}
	}
}

func TestPreferenceFields(t *testing.T) {
	if got := userField("u-9"); got != "user:u-9" {
		t.Errorf("userField = %q", got)
	}
	if got := typeField("LAEF"); got != "type:LAEF" {
		t.Errorf("typeField = %q", got)
	}
}
