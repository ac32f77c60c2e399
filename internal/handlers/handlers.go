// Package handlers holds the built-in intent implementations and the
// factory that resolves them for the dispatcher.
package handlers

import (
	"fmt"

	"github.com/whyhi/wos/internal/approval"
	"github.com/whyhi/wos/internal/brain"
	"github.com/whyhi/wos/internal/canon"
	"github.com/whyhi/wos/internal/llm"
	"github.com/whyhi/wos/internal/publisher"
	"github.com/whyhi/wos/internal/workflow"
)

// Deps are the shared services handlers draw on. Any field may be nil;
// handlers that need a missing dependency fail their execution with a
// typed result instead of panicking.
type Deps struct {
	Canon     *canon.Store
	Gate      *approval.Gate
	Workflows workflow.Executor
	Publisher *publisher.Publisher
	LLM       llm.LLM
}

// Factory returns a brain.HandlerFactory over the built-in handlers,
// keyed by the handler reference stored in the intent catalog.
func Factory(deps Deps) brain.HandlerFactory {
	registry := map[string]brain.Handler{
		"handlers.daily_newsletter_digest": &digestHandler{deps: deps},
		"handlers.creator_outreach":        &outreachHandler{deps: deps},
		"handlers.content_idea_miner":      &ideaMinerHandler{deps: deps},
	}

	return func(handlerRef string) (brain.Handler, error) {
		h, ok := registry[handlerRef]
		if !ok {
			return nil, fmt.Errorf("no handler registered for %s", handlerRef)
		}
		return h, nil
	}
}

func failure(code, msg string, elapsedMs int64) *brain.HandlerResult {
	return &brain.HandlerResult{
		Status:          "failed",
		Error:           msg,
		ErrorCode:       code,
		ExecutionTimeMs: elapsedMs,
	}
}
