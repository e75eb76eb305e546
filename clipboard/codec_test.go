package clipboard

import "testing"

func TestParseFallsBackToISO88591(t *testing.T) {
	cases := []struct {
		name           string
		wantEnc        Encoding
		wantCompliant  bool
	}{
		{"", ISO88591, true},
		{"ISO8859-1", ISO88591, true},
		{"UTF-8", UTF8, false},
		{"utf-16", UTF16, false},
		{"cp1252", CP1252, false},
		{"klingon-9", ISO88591, false},
	}
	for _, tc := range cases {
		enc, compliant := Parse(tc.name)
		if enc != tc.wantEnc || compliant != tc.wantCompliant {
			t.Errorf("Parse(%q) = (%v, %v), want (%v, %v)", tc.name, enc, compliant, tc.wantEnc, tc.wantCompliant)
		}
	}
}

func TestCodecRoundTripsUTF8(t *testing.T) {
	c := New(UTF8, nil)
	text := "hello, world"
	if got := c.Decode(c.Encode(text)); got != text {
		t.Fatalf("round trip = %q, want %q", got, text)
	}
}

func TestCodecRoundTripsISO88591(t *testing.T) {
	c := New(ISO88591, nil)
	text := "café" // e-acute, representable in Latin-1
	if got := c.Decode(c.Encode(text)); got != text {
		t.Fatalf("round trip = %q, want %q", got, text)
	}
}

func TestCodecTruncatesAtMaxLength(t *testing.T) {
	c := New(UTF8, nil)
	huge := make([]byte, MaxLength+100)
	for i := range huge {
		huge[i] = 'a'
	}
	got := c.Decode(huge)
	if len(got) != MaxLength {
		t.Fatalf("decoded length = %d, want %d", len(got), MaxLength)
	}
}
