package session

import (
	"errors"
	"testing"
	"time"

	"github.com/anandharaj-dotworld/occamy/clipboard"
)

func TestParseSettingsRequiresHostnameUnlessReverseConnect(t *testing.T) {
	_, err := ParseSettings(map[string]string{})
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}

	s, err := ParseSettings(map[string]string{"reverse-connect": "true"})
	if err != nil {
		t.Fatalf("ParseSettings: %v", err)
	}
	if !s.ReverseConnect {
		t.Fatal("expected ReverseConnect to be set")
	}
}

func TestParseSettingsDefaultsPortTo5900(t *testing.T) {
	s, err := ParseSettings(map[string]string{"hostname": "vnc.example"})
	if err != nil {
		t.Fatalf("ParseSettings: %v", err)
	}
	if s.Port != 5900 {
		t.Fatalf("Port = %d, want 5900", s.Port)
	}
}

func TestParseSettingsRejectsUnsupportedColorDepth(t *testing.T) {
	_, err := ParseSettings(map[string]string{"hostname": "h", "color-depth": "12"})
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
}

func TestParseSettingsAcceptsColorDepth24(t *testing.T) {
	s, err := ParseSettings(map[string]string{"hostname": "h", "color-depth": "24"})
	if err != nil {
		t.Fatalf("ParseSettings: %v", err)
	}
	if s.ColorDepth != 24 {
		t.Fatalf("ColorDepth = %d, want 24", s.ColorDepth)
	}
}

func TestParseSettingsParsesListenPortSeparatelyFromPort(t *testing.T) {
	s, err := ParseSettings(map[string]string{"reverse-connect": "true", "listen-port": "5501", "port": "5900"})
	if err != nil {
		t.Fatalf("ParseSettings: %v", err)
	}
	if s.ListenPort != 5501 {
		t.Fatalf("ListenPort = %d, want 5501", s.ListenPort)
	}
	if s.Port != 5900 {
		t.Fatalf("Port = %d, want 5900 (unaffected by listen-port)", s.Port)
	}
}

func TestParseSettingsDefaultsListenPortTo5500(t *testing.T) {
	s, err := ParseSettings(map[string]string{"reverse-connect": "true"})
	if err != nil {
		t.Fatalf("ParseSettings: %v", err)
	}
	if s.ListenPort != 5500 {
		t.Fatalf("ListenPort = %d, want default 5500", s.ListenPort)
	}
}

func TestParseSettingsParsesListenTimeoutAsMilliseconds(t *testing.T) {
	s, err := ParseSettings(map[string]string{"reverse-connect": "true", "listen-timeout": "2500"})
	if err != nil {
		t.Fatalf("ParseSettings: %v", err)
	}
	if s.ListenTimeout != 2500*time.Millisecond {
		t.Fatalf("ListenTimeout = %v, want 2.5s", s.ListenTimeout)
	}
}

func TestParseSettingsFallsBackToISO88591ForUnknownClipboardEncoding(t *testing.T) {
	s, err := ParseSettings(map[string]string{"hostname": "h", "clipboard-encoding": "bogus"})
	if err != nil {
		t.Fatalf("ParseSettings: %v", err)
	}
	if s.ClipboardEncoding != clipboard.ISO88591 {
		t.Fatalf("ClipboardEncoding = %v, want ISO88591 fallback", s.ClipboardEncoding)
	}
	if s.ClipboardEncodingCompliant {
		t.Fatal("expected ClipboardEncodingCompliant = false for an unrecognised name")
	}
	if s.ClipboardEncodingRaw != "bogus" {
		t.Fatalf("ClipboardEncodingRaw = %q, want %q", s.ClipboardEncodingRaw, "bogus")
	}
}

func TestParseSettingsMarksDefaultClipboardEncodingCompliant(t *testing.T) {
	s, err := ParseSettings(map[string]string{"hostname": "h"})
	if err != nil {
		t.Fatalf("ParseSettings: %v", err)
	}
	if !s.ClipboardEncodingCompliant {
		t.Fatal("expected default (unset) clipboard encoding to be compliant")
	}
}
