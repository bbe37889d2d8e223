package judging

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/yourusername/contest-api/internal/domain/entity"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiBackend scores submissions through the Gemini API. Each judge's call
// builds a rubric prompt from that judge's fixed criteria and asks for a
// strict JSON verdict.
type GeminiBackend struct {
	client *genai.Client
	model  string
}

// NewGeminiBackend creates the live scoring backend.
func NewGeminiBackend(ctx context.Context, apiKey, model string) (*GeminiBackend, error) {
	config := &genai.ClientConfig{}
	if apiKey != "" {
		config.APIKey = apiKey
	}
	client, err := genai.NewClient(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiBackend{client: client, model: model}, nil
}

// ScoreSubmission asks the model to score one submission against one judge's
// rubric. The score is clamped to [0,10] with one decimal of precision.
func (b *GeminiBackend) ScoreSubmission(ctx context.Context, judge entity.JudgeID, submission *entity.Submission, criteria []string) (*BackendResponse, error) {
	prompt := buildScoringPrompt(judge, submission, criteria)

	resp, err := b.client.Models.GenerateContent(ctx, b.model, genai.Text(prompt), nil)
	if err != nil {
		return nil, fmt.Errorf("gemini generate failed: %w", err)
	}

	text := cleanModelOutput(resp.Text())
	if text == "" {
		return nil, fmt.Errorf("gemini returned empty response")
	}

	var parsed BackendResponse
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, fmt.Errorf("gemini returned malformed JSON: %w", err)
	}

	parsed.Score = entity.RoundScore(parsed.Score)
	return &parsed, nil
}

// buildScoringPrompt renders the judge's rubric into a prompt demanding a
// strict JSON verdict.
func buildScoringPrompt(judge entity.JudgeID, submission *entity.Submission, criteria []string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Act as the %s judge of a creative trailer-prompt contest.\n", judge)
	fmt.Fprintf(&sb, "A contestant reimagined %q with the following prompt:\n\n%s\n\n",
		submission.SourceWorkTitle, submission.PromptText)
	if len(submission.UsedVocabulary) > 0 {
		fmt.Fprintf(&sb, "Vocabulary the contestant was required to use: %s\n\n",
			strings.Join(submission.UsedVocabulary, ", "))
	}

	sb.WriteString("Score the submission against your rubric:\n")
	for i, c := range criteria {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, c)
	}

	sb.WriteString(`
Required output format (no additional text):
{
  "score": X.X,
  "feedback": "two to three sentences of in-character feedback",
  "highlights": "the single strongest aspect, one phrase"
}
The score must be a number between 0 and 10 with one decimal place.
Provide ONLY the JSON output.`)

	return sb.String()
}

func cleanModelOutput(text string) string {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```JSON")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}
