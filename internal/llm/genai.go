package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"

	"github.com/amara-obi/designweek/constants"
	"github.com/amara-obi/designweek/internal/common"
)

// GeminiExtractor implements Extractor against the Gemini API.
type GeminiExtractor struct {
	client      *genai.Client
	model       string
	temperature float32
	timeout     time.Duration
	logger      *slog.Logger
}

// NewGeminiExtractor creates the production extraction client.
func NewGeminiExtractor(ctx context.Context, cfg common.LLMConfig, logger *slog.Logger) (*GeminiExtractor, error) {
	if cfg.APIKey == "" {
		return nil, common.InvalidInputError("Gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &GeminiExtractor{
		client:      client,
		model:       model,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		logger:      logger,
	}, nil
}

// Extract runs one stage's model call and returns validated typed facts plus
// telemetry. Classification requests return a Category instead of facts.
func (g *GeminiExtractor) Extract(ctx context.Context, req ExtractRequest) (*ExtractResult, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	system := BuildStageSystemPrompt(req)
	if req.Stage == constants.StageClassification {
		system = BuildClassificationPrompt()
	}

	temp := g.temperature
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       &temp,
		ResponseMIMEType:  "application/json",
	}
	contents := []*genai.Content{
		genai.NewContentFromText(BuildUserPrompt(req), genai.RoleUser),
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	elapsed := time.Since(start)
	if err != nil {
		g.logger.Error("llm.call.failed", "stage", req.Stage, "model", g.model,
			"elapsed_ms", elapsed.Milliseconds(), "error", err)
		return nil, fmt.Errorf("model call (%s): %w", req.Stage, err)
	}

	raw := []byte(resp.Text())
	result := &ExtractResult{
		RawOutput: json.RawMessage(StripCodeFences(raw)),
		LatencyMs: elapsed.Milliseconds(),
	}
	if resp.UsageMetadata != nil {
		result.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		result.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	g.logger.Info("llm.call.ok", "stage", req.Stage, "model", g.model,
		"elapsed_ms", result.LatencyMs,
		"input_tokens", result.InputTokens, "output_tokens", result.OutputTokens)

	if req.Stage == constants.StageClassification {
		return g.finishClassification(result, raw)
	}
	return g.finishExtraction(req, result, raw)
}

func (g *GeminiExtractor) finishClassification(result *ExtractResult, raw []byte) (*ExtractResult, error) {
	sch, err := CompileSchema(BuildClassificationSchema(constants.CategoriesAsStringSlice()))
	if err != nil {
		return nil, fmt.Errorf("compile classification schema: %w", err)
	}
	doc := StripCodeFences(raw)
	if err := ValidateDocument(sch, doc); err != nil {
		g.logger.Warn("llm.classification.invalid", "error", err)
		return nil, fmt.Errorf("classification output invalid: %w", err)
	}
	var out struct {
		Category string `json:"category"`
	}
	if err := json.Unmarshal(doc, &out); err != nil {
		return nil, fmt.Errorf("parse classification output: %w", err)
	}
	cat, _ := constants.Canonicalize(out.Category)
	result.Category = cat
	return result, nil
}

func (g *GeminiExtractor) finishExtraction(req ExtractRequest, result *ExtractResult, raw []byte) (*ExtractResult, error) {
	types := StageFactTypes(req.Stage, req.Category)
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}

	clean, dropped, err := SanitizeFactBatch(raw, names)
	if err != nil {
		return nil, fmt.Errorf("malformed model output (%s): %w", req.Stage, err)
	}
	if len(dropped) > 0 {
		g.logger.Warn("llm.facts.dropped", "stage", req.Stage, "dropped", dropped)
	}

	sch, err := CompileSchema(BuildFactBatchSchema(names))
	if err != nil {
		return nil, fmt.Errorf("compile fact schema: %w", err)
	}
	if err := ValidateDocument(sch, clean); err != nil {
		return nil, fmt.Errorf("fact batch invalid after sanitize (%s): %w", req.Stage, err)
	}

	var batch struct {
		Facts []FactCandidate `json:"facts"`
	}
	if err := json.Unmarshal(clean, &batch); err != nil {
		return nil, fmt.Errorf("parse fact batch: %w", err)
	}
	result.Facts = batch.Facts
	result.RawOutput = json.RawMessage(clean)
	return result, nil
}
