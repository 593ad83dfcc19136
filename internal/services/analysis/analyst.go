// Package analysis is the portfolio analyst: keyword retrieval over an
// embedded knowledge base, optionally phrased by a language model.
package analysis

import (
	"context"
	"strings"

	"fiatrouter/internal/adapters/ai"
	"fiatrouter/pkg/errors"
	"fiatrouter/pkg/logger"
	"fiatrouter/pkg/templates"
)

// Answer is a knowledge-base reply to a free-text question
type Answer struct {
	SelectedQuestion string
	Text             string
}

// Analyst answers portfolio questions
type Analyst struct {
	kb        *KnowledgeBase
	llm       ai.Client
	prompts   *templates.Registry
	cache     Cache
	agentName string
	log       *logger.Logger
}

// NewAnalyst creates an analyst. llm may be ai.DisabledClient, in which case
// answers come straight from the knowledge base.
func NewAnalyst(kb *KnowledgeBase, llm ai.Client, prompts *templates.Registry, agentName string) *Analyst {
	return &Analyst{
		kb:        kb,
		llm:       llm,
		prompts:   prompts,
		agentName: agentName,
		log:       logger.Get().With("component", "analyst", "llm", llm.Name()),
	}
}

// WithCache enables narrative caching for Analyze
func (a *Analyst) WithCache(c Cache) *Analyst {
	a.cache = c
	return a
}

// Analyze produces a portfolio narrative for query
// ("Analyze SOL at $150 for portfolio inclusion").
func (a *Analyst) Analyze(ctx context.Context, query string) (string, error) {
	var facts []string
	for _, p := range a.kb.TokensIn(query) {
		facts = append(facts, p.Summary())
		facts = append(facts, p.Notes...)
	}
	for _, m := range a.kb.Search(query, 2) {
		facts = append(facts, m.Answer)
	}
	if len(facts) == 0 {
		return "", errors.Wrapf(errors.ErrAnalysisUnavailable, "no knowledge for %q", query)
	}

	if a.cache != nil {
		if text, ok := a.cache.Get(ctx, query); ok {
			return text, nil
		}
	}

	prompt, err := a.prompts.Render("analyst/portfolio", map[string]any{"Query": query, "Facts": facts})
	if err != nil {
		return "", err
	}

	text, err := a.complete(ctx, prompt)
	if err != nil {
		a.log.Warnw("LLM analysis failed, using knowledge base facts", "error", err)
		return strings.Join(facts, " "), nil
	}

	if a.cache != nil {
		a.cache.Set(ctx, query, text)
	}
	return text, nil
}

// Answer resolves a free-text question against the knowledge base
func (a *Analyst) Answer(ctx context.Context, query string) (Answer, error) {
	var ans Answer

	if matches := a.kb.Search(query, 1); len(matches) > 0 {
		ans = Answer{SelectedQuestion: matches[0].Question, Text: matches[0].Answer}
	} else if tokens := a.kb.TokensIn(query); len(tokens) > 0 {
		p := tokens[0]
		ans = Answer{
			SelectedQuestion: "What is " + p.Name + " (" + p.Symbol + ")?",
			Text:             strings.Join(append([]string{p.Summary()}, p.Notes...), " "),
		}
	}

	prompt, err := a.prompts.Render("analyst/answer", map[string]any{
		"Query":     query,
		"Question":  ans.SelectedQuestion,
		"Reference": ans.Text,
	})
	if err != nil {
		return Answer{}, err
	}

	text, err := a.complete(ctx, prompt)
	switch {
	case err == nil:
		if ans.SelectedQuestion == "" {
			ans.SelectedQuestion = query
		}
		ans.Text = text
	case ans.Text != "":
		a.log.Warnw("LLM answer failed, returning reference answer", "error", err)
	default:
		return Answer{}, errors.Wrap(errors.ErrAnalysisUnavailable, err.Error())
	}

	return ans, nil
}

func (a *Analyst) complete(ctx context.Context, prompt string) (string, error) {
	system, err := a.prompts.Render("analyst/system", map[string]any{"AgentName": a.agentName})
	if err != nil {
		return "", err
	}
	return a.llm.Complete(ctx, system, prompt)
}
