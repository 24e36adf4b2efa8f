// Package prompts holds the model prompt templates. They live in JSON files embedded at
// compile time; each value is a text/template executed with missingkey=error.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"text/template"
)

// Interview is the prompt file used by the AI gateway.
const Interview = "interview.json"

// Keys in the Interview file
const (
	GenerateQuestions  = "generate-questions"
	TranscribeResponse = "transcribe-response"
	AnalyzeAnswer      = "analyze-answer"
)

//go:embed *.json
var promptFiles embed.FS

// file is a parsed prompt file. Each file is read and compiled once per process.
type file struct {
	once      sync.Once
	templates map[string]*template.Template
	err       error
}

var files sync.Map // filename -> *file

func load(filename string) (map[string]*template.Template, error) {
	v, _ := files.LoadOrStore(filename, &file{})
	f := v.(*file)
	f.once.Do(func() {
		f.templates, f.err = parse(filename)
	})
	return f.templates, f.err
}

func parse(filename string) (map[string]*template.Template, error) {
	data, err := promptFiles.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", filename, err)
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", filename, err)
	}

	templates := make(map[string]*template.Template, len(raw))
	for key, text := range raw {
		t, err := parseTemplate(key, text)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
		templates[key] = t
	}
	return templates, nil
}

func parseTemplate(name, text string) (*template.Template, error) {
	t, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt template %q: %w", name, err)
	}
	return t, nil
}

func execute(t *template.Template, data any) (string, error) {
	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render prompt %q: %w", t.Name(), err)
	}
	return sb.String(), nil
}

// Render executes the prompt filename/key against data.
func Render(filename, key string, data any) (string, error) {
	templates, err := load(filename)
	if err != nil {
		return "", err
	}
	t, ok := templates[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, filename)
	}
	return execute(t, data)
}

// Format executes an ad-hoc template. Values substituted into it are never re-parsed.
func Format(text string, data any) (string, error) {
	t, err := parseTemplate("inline", text)
	if err != nil {
		return "", err
	}
	return execute(t, data)
}

// Keys lists the prompts in filename, sorted.
func Keys(filename string) ([]string, error) {
	templates, err := load(filename)
	if err != nil {
		return nil, err
	}
	return slices.Sorted(maps.Keys(templates)), nil
}
