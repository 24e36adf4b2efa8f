package types

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// DefaultAudioMIMEType is what browsers' MediaRecorder produces by default
const DefaultAudioMIMEType = "audio/webm"

// AnswerRecording is a single encoded audio answer. It only lives until it is transcribed.
type AnswerRecording struct {
	Data     []byte
	MIMEType string
}

// Empty reports whether the recording carries no audio
func (r AnswerRecording) Empty() bool {
	return len(r.Data) == 0
}

// DataURI encodes the recording as data:<mime>;base64,<body>
func (r AnswerRecording) DataURI() string {
	mimeType := r.MIMEType
	if mimeType == "" {
		mimeType = DefaultAudioMIMEType
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(r.Data)
}

// ParseDataURI decodes a base64 data URI into a recording.
// The URI must name a MIME type and use base64 encoding.
func ParseDataURI(uri string) (AnswerRecording, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return AnswerRecording{}, fmt.Errorf("data uri: missing data: scheme")
	}
	header, body, ok := strings.Cut(rest, ",")
	if !ok {
		return AnswerRecording{}, fmt.Errorf("data uri: missing ',' separator")
	}

	params := strings.Split(header, ";")
	mimeType := strings.TrimSpace(params[0])
	if mimeType == "" {
		return AnswerRecording{}, fmt.Errorf("data uri: missing MIME type")
	}

	isBase64 := false
	for _, p := range params[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			isBase64 = true
		}
	}
	if !isBase64 {
		return AnswerRecording{}, fmt.Errorf("data uri: only base64 encoding is supported")
	}

	data, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return AnswerRecording{}, fmt.Errorf("data uri: invalid base64 body: %w", err)
	}

	return AnswerRecording{Data: data, MIMEType: mimeType}, nil
}
