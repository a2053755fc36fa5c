package peer

import (
	"errors"
	"strings"

	"github.com/pion/webrtc/v3"
)

// ErrConfigInvalid is returned when an ICE server list fails validation;
// the previously stored list is left in place.
var ErrConfigInvalid = errors.New("peer: invalid ice server configuration")

// defaultICEServers is returned by ICEServers when the host has never
// called SetICEServers.
func defaultICEServers() []ServerConfig {
	return []ServerConfig{
		{ID: "default-stun-1", Type: "stun", URL: "stun:stun.l.google.com:19302"},
		{ID: "default-stun-2", Type: "stun", URL: "stun:stun1.l.google.com:19302"},
	}
}

// addICEURLScheme prefixes url with "stun:" or "turn:" if it does not
// already carry a recognised scheme.
func addICEURLScheme(kind, url string) string {
	if strings.Contains(url, ":") {
		lower := strings.ToLower(url)
		if strings.HasPrefix(lower, "stun:") || strings.HasPrefix(lower, "stuns:") ||
			strings.HasPrefix(lower, "turn:") || strings.HasPrefix(lower, "turns:") {
			return url
		}
	}
	return kind + ":" + url
}

// validateICEServers checks every entry: non-empty URL, and — for turn
// entries — both username and credential present. Any type other than
// "turn" is treated as "stun", rather than rejected. It returns a
// normalised copy (scheme-prefixed) rather than mutating the input.
func validateICEServers(servers []ServerConfig) ([]ServerConfig, error) {
	out := make([]ServerConfig, 0, len(servers))
	for _, s := range servers {
		if strings.TrimSpace(s.URL) == "" {
			return nil, ErrConfigInvalid
		}
		kind := strings.ToLower(s.Type)
		if kind != "turn" {
			kind = "stun"
		}
		if kind == "turn" {
			if s.Username == nil || strings.TrimSpace(*s.Username) == "" {
				return nil, ErrConfigInvalid
			}
			if s.Credential == nil || strings.TrimSpace(*s.Credential) == "" {
				return nil, ErrConfigInvalid
			}
		}
		norm := s
		norm.URL = addICEURLScheme(kind, s.URL)
		out = append(out, norm)
	}
	return out, nil
}

// toWebRTCServers converts validated ServerConfig entries into the
// ICEServer shape pion/webrtc's PeerConnection configuration expects.
func toWebRTCServers(servers []ServerConfig) []webrtc.ICEServer {
	out := make([]webrtc.ICEServer, 0, len(servers))
	for _, s := range servers {
		ws := webrtc.ICEServer{URLs: []string{s.URL}}
		if s.Username != nil {
			ws.Username = *s.Username
		}
		if s.Credential != nil {
			ws.Credential = *s.Credential
		}
		out = append(out, ws)
	}
	return out
}

// SetICEServers validates and stores the user-supplied ICE server list.
// On validation failure the previously stored list (or the default, if
// none was ever set) is retained.
func (s *Session) SetICEServers(servers []ServerConfig) error {
	normalized, err := validateICEServers(servers)
	if err != nil {
		return err
	}
	s.configMu.Lock()
	s.iceServers = normalized
	s.configMu.Unlock()
	return nil
}

// ICEServers returns the current ICE server list, defaulting to a
// built-in public STUN list when unset.
func (s *Session) ICEServers() []ServerConfig {
	s.configMu.Lock()
	defer s.configMu.Unlock()
	if len(s.iceServers) == 0 {
		return defaultICEServers()
	}
	out := make([]ServerConfig, len(s.iceServers))
	copy(out, s.iceServers)
	return out
}
