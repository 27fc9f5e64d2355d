package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/maestrohq/maestro/pkg/llms"
	"github.com/maestrohq/maestro/pkg/logger"
)

// Optimizer rewrites conversational utterances into effective web search
// phrases. Any failure, or a suspiciously short rewrite, falls through to
// the original query.
type Optimizer struct {
	decision *llms.DecisionClient

	// now provides the year injected into time-sensitive rewrites.
	now func() time.Time
}

func NewOptimizer(decision *llms.DecisionClient) *Optimizer {
	return &Optimizer{
		decision: decision,
		now:      time.Now,
	}
}

// Optimize returns the rewritten query, or the original when the rewrite
// fails or comes back with 5 characters or fewer.
func (o *Optimizer) Optimize(ctx context.Context, query string) string {
	if o.decision == nil || !o.decision.Enabled() {
		return query
	}

	year := o.now().Year()

	prompt := fmt.Sprintf(`You are an expert search query optimizer. Your task is to transform the user's search query into the most effective version for web search engines.

## Instructions:
1. **Clarify Intent**: Add context to make the search intent clear
2. **Add Time Context**: For time-sensitive queries, include '%d' if not specified
3. **Enhance Specificity**: Add relevant qualifiers that would help find authoritative sources
4. **Remove Ambiguity**: Disambiguate terms that might have multiple meanings
5. **Optimize Length**: Keep between 5-12 words for best results
6. **Preserve Original Meaning**: Never change the core intent of the query

## Examples:
Input: "best programming language"
Output: "most popular programming languages %d developer survey"

Input: "python tutorial"
Output: "best python programming tutorial for beginners %d"

Input: "how to fix my code"
Output: "debugging techniques for python code errors"

## Input Query:
%s

## Optimized Query:`, year, year, year, query)

	raw, err := o.decision.GenerateJSON(ctx, prompt)
	if err != nil {
		logger.GetLogger().Warn("query optimization failed", "error", err)
		return query
	}

	optimized := strings.Trim(strings.TrimSpace(raw), `"`)
	if len(optimized) <= 5 {
		return query
	}

	return optimized
}
