package report

import (
	"math"
	"testing"
)

func TestHumanBytes(t *testing.T) {
	tests := []struct {
		name  string
		input int64
		want  string
	}{
		{name: "zero", input: 0, want: "0.00 B"},
		{name: "below one KiB", input: 1023, want: "1023.00 B"},
		{name: "exactly one KiB", input: 1024, want: "1.00 KiB"},
		{name: "one and a half KiB", input: 1536, want: "1.50 KiB"},
		{name: "one byte under one MiB", input: 1<<20 - 1, want: "1.00 MiB"},
		{name: "one MiB", input: 1 << 20, want: "1.00 MiB"},
		{name: "just under one GiB", input: 1<<30 - 1<<10, want: "1.00 GiB"},
		{name: "rounds within KiB", input: 1<<20 - 1<<10, want: "1023.00 KiB"},
		{name: "one GiB", input: 1 << 30, want: "1.00 GiB"},
		{name: "one TiB", input: 1 << 40, want: "1.00 TiB"},
		{name: "beyond TiB", input: 1 << 50, want: "1.00 PiB"},
		{name: "int64 max", input: math.MaxInt64, want: "8.00 EiB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HumanBytes(tt.input); got != tt.want {
				t.Errorf("HumanBytes(%d) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
