// Package generator turns a topic and some source material into a course outline using an LLM.
package generator

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
)

const (
	defaultLevel  = "beginner"
	defaultKind   = "lesson"
	maxSourceText = 12000 // runes
)

var (
	//go:embed outline.schema.json
	outlineSchemaJSON []byte
	outlineSchema     = mustCompileSchema(outlineSchemaJSON)

	ErrEmptyResponse = errors.New("the AI provider returned an empty response")
)

// Provider is an LLM that completes a prompt.
type Provider interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

type Service struct {
	provider Provider
	validate *validator.Validate
}

func NewService(provider Provider, validate *validator.Validate) *Service {
	return &Service{provider: provider, validate: validate}
}

// Generate asks the provider for an outline once; there are no retries.
func (svc *Service) Generate(ctx context.Context, req Request) (Outline, error) {
	req.Topic = strings.TrimSpace(req.Topic)
	req.Level = strings.ToLower(strings.TrimSpace(req.Level))
	if err := svc.validate.Struct(req); err != nil {
		return Outline{}, err
	}
	if req.Level == "" {
		req.Level = defaultLevel
	}

	resp, err := svc.provider.Complete(ctx, systemPrompt, buildPrompt(req))
	if err != nil {
		return Outline{}, pkgerrors.Wrap(err, "completing prompt")
	}
	outline, err := ParseOutline(resp, req.Level)
	if err != nil {
		return Outline{}, err
	}
	outline.Topic = req.Topic
	return outline, nil
}

// ParseOutline extracts, validates and decodes an outline from a raw provider response.
// level fills in the outline level when the response has none.
func ParseOutline(resp, level string) (Outline, error) {
	doc := stripCodeFences(resp)
	if doc == "" {
		return Outline{}, ErrEmptyResponse
	}

	result, err := outlineSchema.Validate(gojsonschema.NewStringLoader(doc))
	if err != nil {
		return Outline{}, &OutlineError{Problems: []string{fmt.Sprintf("not JSON: %v", err)}}
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return Outline{}, &OutlineError{Problems: problems}
	}

	var outline Outline
	if err = json.Unmarshal([]byte(doc), &outline); err != nil {
		return Outline{}, &OutlineError{Problems: []string{err.Error()}}
	}
	if outline.Level == "" {
		outline.Level = level
	}
	for i := range outline.Modules {
		for j := range outline.Modules[i].Lessons {
			if outline.Modules[i].Lessons[j].Kind == "" {
				outline.Modules[i].Lessons[j].Kind = defaultKind
			}
		}
	}
	return outline, nil
}

// stripCodeFences returns the JSON object in resp, without any surrounding Markdown code fence or chatter.
func stripCodeFences(resp string) string {
	s := strings.TrimSpace(resp)
	if start := strings.Index(s, "```"); start >= 0 {
		s = s[start+3:]
		// drop the info string ("json")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "json")
		}
		if end := strings.LastIndex(s, "```"); end >= 0 {
			s = s[:end]
		}
		s = strings.TrimSpace(s)
	}
	if first, last := strings.IndexByte(s, '{'), strings.LastIndexByte(s, '}'); first >= 0 && last > first {
		s = s[first : last+1]
	}
	return s
}

func mustCompileSchema(data []byte) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		panic(fmt.Sprintf("compiling outline schema: %v", err))
	}
	return schema
}
