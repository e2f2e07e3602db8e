// Package classifier assigns an uploaded artifact its content category.
package classifier

import (
	"context"
	"log/slog"

	"github.com/amara-obi/designweek/constants"
	"github.com/amara-obi/designweek/internal/llm"
)

type Classifier struct {
	extractor llm.Extractor
	logger    *slog.Logger
}

func New(extractor llm.Extractor, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{extractor: extractor, logger: logger}
}

// Classify returns the artifact's content category. A canonicalizable
// declared hint short-circuits the model call. Inconclusive or failed
// classification degrades to UNKNOWN rather than failing the job; the
// orchestrator then runs the general-purpose extraction stage.
//
// The returned ExtractResult is nil when no model call was made; otherwise it
// carries the raw output and telemetry for the audit record.
func (c *Classifier) Classify(ctx context.Context, content, hint string) (constants.ContentCategory, *llm.ExtractResult) {
	if cat, ok := constants.Canonicalize(hint); ok {
		c.logger.Info("classifier.hint.accepted", "hint", hint, "category", cat)
		return cat, nil
	}

	res, err := c.extractor.Extract(ctx, llm.ExtractRequest{
		Content: content,
		Stage:   constants.StageClassification,
	})
	if err != nil {
		c.logger.Warn("classifier.inconclusive", "error", err)
		return constants.UnknownCategory, nil
	}

	c.logger.Info("classifier.detected", "category", res.Category)
	return res.Category, res
}
