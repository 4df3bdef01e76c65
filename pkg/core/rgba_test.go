package core

import (
	"math"
	"testing"
)

func rgbaNear(a, b RGBA, tolerance float64) bool {
	return math.Abs(a.R-b.R) <= tolerance &&
		math.Abs(a.G-b.G) <= tolerance &&
		math.Abs(a.B-b.B) <= tolerance &&
		math.Abs(a.A-b.A) <= tolerance
}

func TestParseRGBA(t *testing.T) {
	tests := []struct {
		text     string
		expected RGBA
	}{
		{"0xFF0000", RGBA{R: 1, A: 1}},
		{"#00FF00", RGBA{G: 1, A: 1}},
		{"#F00", RGBA{R: 1, A: 1}},
		{"#F008", RGBA{R: 1, A: 0x88 / 255.0}},
		{"#8", RGBA{R: 0x88 / 255.0, G: 0x88 / 255.0, B: 0x88 / 255.0, A: 1}},
		{"#FF000080", RGBA{R: 1, A: 0x80 / 255.0}},
		{"rgb(255, 0, 0)", RGBA{R: 1, A: 1}},
		{"rgb(0, 128, 255, 255)", RGBA{G: 128 / 255.0, B: 1, A: 1}},
		{"hdr(2.5, 0.5, 1)", RGBA{R: 2.5, G: 0.5, B: 1, A: 1}},
		{"hdr(1, 1, 1, 0.5)", RGBA{R: 1, G: 1, B: 1, A: 0.5}},
		{"  #FFF  ", RGBA{R: 1, G: 1, B: 1, A: 1}},
	}

	for _, test := range tests {
		got, err := ParseRGBA(test.text)
		if err != nil {
			t.Errorf("ParseRGBA(%q) failed: %v", test.text, err)
			continue
		}
		if !rgbaNear(got, test.expected, 1e-12) {
			t.Errorf("ParseRGBA(%q): expected %+v, got %+v", test.text, test.expected, got)
		}
	}
}

func TestParseRGBARejects(t *testing.T) {
	invalid := []string{
		"",
		"red",
		"#GG0000",
		"#12345",
		"rgb(1, 2)",
		"rgb(0.5, 0, 0)",
		"hdr(a, b, c)",
	}

	for _, text := range invalid {
		if _, err := ParseRGBA(text); err == nil {
			t.Errorf("ParseRGBA(%q) should fail", text)
		}
	}
}
