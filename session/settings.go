package session

import (
	"fmt"
	"strconv"
	"time"

	"github.com/anandharaj-dotworld/occamy/clipboard"
)

// Settings is the parsed, validated configuration for one upstream VNC
// connection. It is occamy's Go analogue of guac_vnc_settings
// (original_source's vnc.h), built from a plain map so any transport
// (query string, JSON body, CLI flags) can populate it uniformly.
type Settings struct {
	Hostname string
	Port     int
	Password string

	ColorDepth  int  // 0 lets the server choose; else 8, 16, 24, or 32
	SwapRedBlue bool
	ReadOnly    bool

	// Repeater support (VNC repeater dest, e.g. UltraVNC's).
	DestHost string
	DestPort int

	// Reverse connect: occamy listens on ListenPort instead of dialing
	// Hostname:Port, giving up after ListenTimeout with nothing incoming.
	ReverseConnect bool
	ListenPort     int
	ListenTimeout  time.Duration

	RemoteCursor bool // false means occamy renders a local pointer itself
	Retries      int

	ClipboardEncoding clipboard.Encoding
	// ClipboardEncodingCompliant is clipboard.Parse's second return value:
	// false means the requested encoding (recorded in
	// ClipboardEncodingRaw) wasn't standards-compliant ISO 8859-1, either
	// because it was deliberately something else or because it didn't
	// resolve at all. Kept alongside ClipboardEncoding so the adapter can
	// log it once the session's logger is available, per spec.md §4.2's
	// "surfaced in a log message" requirement.
	ClipboardEncodingRaw       string
	ClipboardEncodingCompliant bool
}

// ParseSettings builds Settings from a string-keyed argument map, the Go
// equivalent of guac_vnc_parse_args's argv handling.
func ParseSettings(args map[string]string) (*Settings, error) {
	s := &Settings{
		Hostname:      args["hostname"],
		Password:      args["password"],
		DestHost:      args["dest-host"],
		RemoteCursor:  args["remote-cursor"] == "true",
		ListenTimeout: 5 * time.Second,
		Retries:       0,
	}

	if s.Hostname == "" && args["reverse-connect"] != "true" {
		return nil, fmt.Errorf("%w: hostname is required unless reverse-connect is set", ErrConfiguration)
	}

	port, err := parseIntOr(args["port"], 5900)
	if err != nil {
		return nil, fmt.Errorf("%w: port: %v", ErrConfiguration, err)
	}
	s.Port = port

	if args["dest-port"] != "" {
		destPort, err := parseIntOr(args["dest-port"], 0)
		if err != nil {
			return nil, fmt.Errorf("%w: dest-port: %v", ErrConfiguration, err)
		}
		s.DestPort = destPort
	}

	if args["color-depth"] != "" {
		depth, err := parseIntOr(args["color-depth"], 0)
		if err != nil {
			return nil, fmt.Errorf("%w: color-depth: %v", ErrConfiguration, err)
		}
		if depth != 8 && depth != 16 && depth != 24 && depth != 32 {
			return nil, fmt.Errorf("%w: color-depth must be 8, 16, 24, or 32", ErrConfiguration)
		}
		s.ColorDepth = depth
	}

	s.SwapRedBlue = args["swap-red-blue"] == "true"
	s.ReadOnly = args["read-only"] == "true"
	s.ReverseConnect = args["reverse-connect"] == "true"

	listenPort, err := parseIntOr(args["listen-port"], 5500)
	if err != nil {
		return nil, fmt.Errorf("%w: listen-port: %v", ErrConfiguration, err)
	}
	s.ListenPort = listenPort

	if args["listen-timeout"] != "" {
		ms, err := parseIntOr(args["listen-timeout"], 0)
		if err != nil {
			return nil, fmt.Errorf("%w: listen-timeout: %v", ErrConfiguration, err)
		}
		s.ListenTimeout = time.Duration(ms) * time.Millisecond
	}

	if args["retries"] != "" {
		retries, err := parseIntOr(args["retries"], 0)
		if err != nil {
			return nil, fmt.Errorf("%w: retries: %v", ErrConfiguration, err)
		}
		s.Retries = retries
	}

	enc, compliant := clipboard.Parse(args["clipboard-encoding"])
	s.ClipboardEncoding = enc
	s.ClipboardEncodingRaw = args["clipboard-encoding"]
	s.ClipboardEncodingCompliant = compliant

	return s, nil
}

func parseIntOr(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
