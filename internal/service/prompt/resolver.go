package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/interviewfriend/relay/backend/internal/integrations/langsmith"
	model "github.com/interviewfriend/relay/backend/internal/model/prompt"
)

// Registry is the single operation the resolver needs from the prompt hub.
// *langsmith.Client satisfies it.
type Registry interface {
	PullPrompt(ctx context.Context, identifier string) (langsmith.Template, error)
}

// Source tells where a resolved prompt came from.
type Source string

const (
	SourceRegistry Source = "registry"
	SourceFallback Source = "fallback"
)

var errNoRegistry = errors.New("prompt registry unavailable")

// Resolution is the outcome of resolving one named prompt. Err is set only
// when Source is SourceFallback.
type Resolution struct {
	Name   string
	Text   string
	Source Source
	Err    error
}

// Names are the registry identifiers looked up at startup.
type Names struct {
	Interviewee string
	Candidate   string
}

// DefaultNames returns the identifiers published for the interview prompts.
func DefaultNames() Names {
	return Names{
		Interviewee: model.DefaultIntervieweeName,
		Candidate:   model.DefaultCandidateName,
	}
}

// Resolve pulls name from the registry and returns its text, or fallback when
// the pull fails or yields an unrecognized template. It never returns an error.
func Resolve(ctx context.Context, registry Registry, name, fallback string) Resolution {
	text, err := pull(ctx, registry, name)
	if err != nil {
		log.WithFields(log.Fields{
			"component": "prompt",
			"name":      name,
		}).WithError(err).Warnf("could not pull prompt %q, using fallback", name)
		return Resolution{Name: name, Text: fallback, Source: SourceFallback, Err: err}
	}

	log.WithFields(log.Fields{
		"component": "prompt",
		"name":      name,
	}).Debug("prompt resolved from registry")
	return Resolution{Name: name, Text: text, Source: SourceRegistry}
}

func pull(ctx context.Context, registry Registry, name string) (string, error) {
	if registry == nil {
		return "", errNoRegistry
	}

	tpl, err := registry.PullPrompt(ctx, name)
	if err != nil {
		return "", err
	}

	switch tpl.Kind {
	case langsmith.KindString, langsmith.KindChat:
		if strings.TrimSpace(tpl.Text) == "" {
			return "", fmt.Errorf("%s template %q is empty", tpl.Kind, name)
		}
		return tpl.Text, nil
	default:
		return "", fmt.Errorf("unsupported template type %q", tpl.Type)
	}
}

// Initialize resolves both role prompts once. A nil registry means the client
// could not be constructed; both roles then use the embedded defaults.
func Initialize(ctx context.Context, registry Registry, names Names) (model.Set, []Resolution) {
	defaults := model.Defaults()

	if registry == nil {
		log.WithField("component", "prompt").Warn("prompt registry client unavailable, using embedded prompts")
		return defaults, []Resolution{
			{Name: names.Interviewee, Text: defaults.Interviewee, Source: SourceFallback, Err: errNoRegistry},
			{Name: names.Candidate, Text: defaults.Candidate, Source: SourceFallback, Err: errNoRegistry},
		}
	}

	interviewee := Resolve(ctx, registry, names.Interviewee, defaults.Interviewee)
	candidate := Resolve(ctx, registry, names.Candidate, defaults.Candidate)

	set := model.Set{
		Interviewee: interviewee.Text,
		Candidate:   candidate.Text,
	}
	return set, []Resolution{interviewee, candidate}
}
