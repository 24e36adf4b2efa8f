// Package speech implements the speech output and answer capture used by interviews.
//
// Remote implementations drive a device host (a browser tab) over the server's event
// stream; console implementations back the CLI practice mode.
package speech

import "strings"

// Voice is a speech synthesis voice offered by the host.
type Voice struct {
	URI     string `json:"voiceURI" validate:"required"`
	Name    string `json:"name"`
	Lang    string `json:"lang"`
	Default bool   `json:"default"`
}

// DefaultVoice picks the host's default voice, else the first one.
func DefaultVoice(voices []Voice) (Voice, bool) {
	if len(voices) == 0 {
		return Voice{}, false
	}
	for _, v := range voices {
		if v.Default {
			return v, true
		}
	}
	return voices[0], true
}

// FindVoice returns the voice with the given URI.
func FindVoice(voices []Voice, uri string) (Voice, bool) {
	for _, v := range voices {
		if v.URI == uri {
			return v, true
		}
	}
	return Voice{}, false
}

// FilterByLang keeps voices whose language tag starts with prefix (case-insensitive), e.g. "en".
func FilterByLang(voices []Voice, prefix string) []Voice {
	if prefix == "" {
		return voices
	}
	var out []Voice
	for _, v := range voices {
		if strings.HasPrefix(strings.ToLower(v.Lang), strings.ToLower(prefix)) {
			out = append(out, v)
		}
	}
	return out
}
