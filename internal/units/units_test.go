package units

import (
	"errors"
	"testing"
)

func TestParseSOL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want uint64
	}{
		{"1", 1_000_000_000},
		{"1.1", 1_100_000_000},
		{"0.5", 500_000_000},
		{" 3.9 ", 3_900_000_000},
		{"0.000000001", 1},
		{"0", 0},
	}
	for _, tt := range tests {
		got, err := ParseSOL(tt.in)
		if err != nil {
			t.Fatalf("ParseSOL(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseSOL(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseSOLRejects(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"-1", "0.0000000001", "abc", "", "99999999999999999999"} {
		if _, err := ParseSOL(in); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("ParseSOL(%q) error = %v, want ErrInvalidAmount", in, err)
		}
	}
}

func TestFormatSOL(t *testing.T) {
	t.Parallel()

	tests := map[uint64]string{
		3_900_000_000: "3.9",
		55_000_000:    "0.055",
		SOL(5):        "5",
		0:             "0",
	}
	for lamports, want := range tests {
		if got := FormatSOL(lamports); got != want {
			t.Errorf("FormatSOL(%d) = %q, want %q", lamports, got, want)
		}
	}
}
