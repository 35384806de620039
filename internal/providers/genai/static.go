package genai

import (
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// StaticGenerator produces a deterministic plan skeleton when no backend
// credential is configured, keeping the job pipeline and the chat relay
// exercisable in local and CI environments.
type StaticGenerator struct{}

func NewStaticGenerator() *StaticGenerator {
	return &StaticGenerator{}
}

var staticSections = []string{
	"media objective",
	"target audience",
	"key messages",
	"proposed platforms",
	"content types",
	"timeline",
	"target KPIs",
	"estimated budget",
	"general recommendations",
}

// GenerateText renders the section skeleton with a note that the real
// backend is not configured. Output depends only on the prompts' length, so
// repeated runs stay comparable in tests.
func (s *StaticGenerator) GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	titler := cases.Title(language.English)
	sb := &strings.Builder{}
	sb.WriteString("Draft media plan (offline placeholder, no generation backend configured).\n\n")
	for i, section := range staticSections {
		fmt.Fprintf(sb, "%d. %s\n", i+1, titler.String(section))
		sb.WriteString("   To be completed once a backend credential is provided.\n")
	}
	fmt.Fprintf(sb, "\nPrompt sizes: system=%d user=%d characters.\n", len(systemPrompt), len(userPrompt))
	return sb.String(), nil
}

// GenerateTextStream yields the static text line by line.
func (s *StaticGenerator) GenerateTextStream(ctx context.Context, systemPrompt, userPrompt string) (TextStream, error) {
	text, err := s.GenerateText(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}
	lines := strings.SplitAfter(text, "\n")
	return &sliceStream{fragments: lines}, nil
}

type sliceStream struct {
	fragments []string
	next      int
}

func (s *sliceStream) Recv() (string, error) {
	for s.next < len(s.fragments) {
		fragment := s.fragments[s.next]
		s.next++
		if fragment != "" {
			return fragment, nil
		}
	}
	return "", io.EOF
}

func (s *sliceStream) Close() error {
	s.next = len(s.fragments)
	return nil
}

var (
	_ TextGenerator   = (*StaticGenerator)(nil)
	_ StreamGenerator = (*StaticGenerator)(nil)
)
