package speech

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jonathan/hired/internal/types"
)

// ConsoleSpeaker "speaks" by writing the text to a terminal.
type ConsoleSpeaker struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleSpeaker creates a speaker writing to out.
func NewConsoleSpeaker(out io.Writer) *ConsoleSpeaker {
	return &ConsoleSpeaker{out: out}
}

// Speak prints text and returns immediately.
func (s *ConsoleSpeaker) Speak(ctx context.Context, _ int, text, voice string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if voice != "" {
		_, err := fmt.Fprintf(s.out, "🔊 [%s] %s\n", voice, text)
		return err
	}
	_, err := fmt.Fprintf(s.out, "🔊 %s\n", text)
	return err
}

// Cancel is a no-op; printed text cannot be taken back.
func (s *ConsoleSpeaker) Cancel() {}

// PathSource yields the file holding the next answer.
type PathSource func(ctx context.Context) (string, error)

// Paths returns a PathSource that hands out paths in order and fails once they run out.
func Paths(paths ...string) PathSource {
	var mu sync.Mutex
	next := 0
	return func(context.Context) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if next >= len(paths) {
			return "", fmt.Errorf("no answer file left (%d used)", len(paths))
		}
		p := paths[next]
		next++
		return p, nil
	}
}

// FileCapture reads recorded answers from audio files. The file is chosen when capture stops.
type FileCapture struct {
	source PathSource

	mu      sync.Mutex
	started bool
}

// NewFileCapture creates a capture that asks source for each answer file.
func NewFileCapture(source PathSource) *FileCapture {
	return &FileCapture{source: source}
}

// Start begins an answer.
func (c *FileCapture) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started = true
	return nil
}

// Stop reads the next answer file. Without a matching Start it returns an empty recording.
func (c *FileCapture) Stop(ctx context.Context) (types.AnswerRecording, error) {
	c.mu.Lock()
	started := c.started
	c.started = false
	c.mu.Unlock()
	if !started {
		return types.AnswerRecording{}, nil
	}

	path, err := c.source(ctx)
	if err != nil {
		return types.AnswerRecording{}, err
	}
	return ReadRecording(path)
}

// audioTypes covers extensions the system MIME table often lacks.
var audioTypes = map[string]string{
	".webm": "audio/webm",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".wav":  "audio/wav",
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".flac": "audio/flac",
}

// MIMETypeForPath guesses an audio MIME type from a file extension.
func MIMETypeForPath(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if t, ok := audioTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		t, _, _ = strings.Cut(t, ";")
		return t
	}
	return types.DefaultAudioMIMEType
}

// ReadRecording loads an answer from an audio file.
func ReadRecording(path string) (types.AnswerRecording, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.AnswerRecording{}, fmt.Errorf("failed to read answer file: %w", err)
	}
	return types.AnswerRecording{Data: data, MIMEType: MIMETypeForPath(path)}, nil
}
