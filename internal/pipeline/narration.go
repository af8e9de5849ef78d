package pipeline

import (
	"context"
	"fmt"
	"strings"
)

const rewriteInstruction = "You are a cheerful editor making stories perfect for 4-6 year olds."

const rewriteTemplate = "Rewrite this as narration for a kindergarten children's book page. " +
	"Use very simple words, short sentences, make it fun and exciting. " +
	"Fix grammar, spelling, punctuation. Make it exactly 2 to 3 full sentences. " +
	"Original: '%s'"

// rewrite normalizes raw author text into 2-3 read-aloud sentences via one
// round-trip to the creative model. Empty input short-circuits without a
// network call. Failures are not retried here; the page-level retry boundary
// owns that decision.
func (rc *RunContext) rewrite(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	out, err := rc.client.RewriteText(ctx, rewriteInstruction, fmt.Sprintf(rewriteTemplate, text))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// rewriteOr falls back to the raw text when the rewrite comes back empty.
func (rc *RunContext) rewriteOr(ctx context.Context, text string) (string, error) {
	out, err := rc.rewrite(ctx, text)
	if err != nil {
		return "", err
	}
	if out == "" {
		return text, nil
	}
	return out, nil
}
