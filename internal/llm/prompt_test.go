package llm

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/amara-obi/designweek/constants"
)

func TestStageFactTypesAreSubsetOfEnum(t *testing.T) {
	known := map[constants.FactType]bool{}
	for _, ft := range constants.AllFactTypes() {
		known[ft] = true
	}
	stages := []constants.JobStage{
		constants.StageExtraction, constants.StageGeneralExtraction, constants.StagePopulation,
	}
	categories := []constants.ContentCategory{
		constants.KickoffSession, constants.ProcessDesignSession,
		constants.TechnicalSession, constants.SignoffSession, constants.UnknownCategory,
	}
	for _, stage := range stages {
		for _, cat := range categories {
			for _, ft := range StageFactTypes(stage, cat) {
				if !known[ft] {
					t.Errorf("stage %s category %s allows unknown fact type %s", stage, cat, ft)
				}
			}
		}
	}
}

func TestUserPromptTruncatesOnRuneBoundary(t *testing.T) {
	// Place a multibyte rune exactly across the cut point.
	content := strings.Repeat("a", maxContentChars-1) + "é" + strings.Repeat("b", 100)
	prompt := BuildUserPrompt(ExtractRequest{Content: content})

	if !utf8.ValidString(prompt) {
		t.Fatal("truncated prompt is not valid UTF-8")
	}
	if !strings.Contains(prompt, "(truncated)") {
		t.Error("over-limit content should be marked truncated")
	}
	if strings.Contains(prompt, "b") {
		t.Error("content past the limit should be cut")
	}
}

func TestUserPromptShortContentUntouched(t *testing.T) {
	prompt := BuildUserPrompt(ExtractRequest{ArtifactName: "notes.txt", Content: "short"})
	if !strings.Contains(prompt, "short") || strings.Contains(prompt, "(truncated)") {
		t.Errorf("short content must pass through whole, got %q", prompt)
	}
}
