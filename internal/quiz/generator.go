// Package quiz generates quizzes from retrieved document context through a
// Mistral chat model. The Mistral API speaks the OpenAI wire protocol, so
// the client is an OpenAI client pointed at Mistral's base URL.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// promptContextLimit caps how much document context is embedded in the
// prompt, in characters.
const promptContextLimit = 12000

// Config configures the quiz generation client.
type Config struct {
	APIKey   string
	BaseURL  string
	Model    string
	Timeout  time.Duration
	Language string
}

// Question is a single generated quiz question.
type Question struct {
	ID            int      `json:"id"`
	Type          string   `json:"type"`
	Question      string   `json:"question"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation,omitempty"`
	Difficulty    string   `json:"difficulty"`
}

// Quiz is a complete generated quiz.
type Quiz struct {
	Title         string     `json:"quiz_title"`
	Questions     []Question `json:"questions"`
	Difficulty    string     `json:"difficulty"`
	QuestionTypes []string   `json:"question_types"`
}

// Request carries one quiz generation order.
type Request struct {
	Context       string
	NumQuestions  int
	Difficulty    string
	QuestionTypes []string
}

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Generator builds prompts, calls the chat model, and parses its replies.
type Generator struct {
	client   chatCompleter
	model    string
	language string
}

func New(cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("quiz: API key is required")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Generator{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    cfg.Model,
		language: cfg.Language,
	}, nil
}

// Generate produces a quiz grounded in the given context. Unknown
// difficulties fall back to "moyen" and unknown question types to "qcm",
// matching the lenient behavior the frontend expects.
func (g *Generator) Generate(ctx context.Context, req Request) (*Quiz, error) {
	difficulty := strings.ToLower(req.Difficulty)
	diff, ok := difficultyByKey(difficulty)
	if !ok {
		difficulty = "moyen"
		diff, _ = difficultyByKey(difficulty)
	}

	var validTypes []string
	for _, key := range req.QuestionTypes {
		if _, ok := questionTypeByKey(key); ok {
			validTypes = append(validTypes, key)
		}
	}
	if len(validTypes) == 0 {
		validTypes = []string{"qcm"}
	}

	prompt := buildPrompt(req.Context, req.NumQuestions, diff, validTypes, g.language)

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.7,
		MaxTokens:   4000,
	})
	if err != nil {
		return nil, fmt.Errorf("quiz: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("quiz: chat completion returned no choices")
	}

	return ParseResponse(resp.Choices[0].Message.Content, difficulty, validTypes)
}

func buildPrompt(docContext string, numQuestions int, diff Difficulty, typeKeys []string, language string) string {
	if r := []rune(docContext); len(r) > promptContextLimit {
		docContext = string(r[:promptContextLimit])
	}

	perType := numQuestions / len(typeKeys)
	if perType < 1 {
		perType = 1
	}
	var typeInstructions strings.Builder
	for _, key := range typeKeys {
		qt, _ := questionTypeByKey(key)
		fmt.Fprintf(&typeInstructions, "\n### %s\n%s\nGenerate approximately %d questions of this type.\n",
			qt.Name, qt.format, perType)
	}

	langInstruction := "Generate the quiz in English."
	if language == "french" {
		langInstruction = "Générez le quiz UNIQUEMENT en français."
	}

	return fmt.Sprintf(`You are an expert at writing educational quizzes. Create quiz questions based ONLY on the document content below.

## DOCUMENT CONTENT (SOLE SOURCE FOR QUESTIONS):
"""
%s
"""

## STRICT RULES:
1. %s
2. Every question MUST be answerable using ONLY the document above.
3. Do NOT invent information that is not in the document.
4. Difficulty: %s - %s (%s).
5. Generate exactly %d questions in total.

## Requested question types:
%s
## OUTPUT FORMAT (STRICT JSON):
Return ONLY a valid JSON object with this exact structure:

{
    "quiz_title": "Quiz title based on the document subject",
    "questions": [
        {
            "id": 1,
            "type": "qcm",
            "question": "Question text based on the document",
            "options": ["A) first option", "B) second option", "C) third option", "D) fourth option"],
            "correct_answer": "A",
            "explanation": "Why this is correct according to the document",
            "difficulty": "%s"
        }
    ]
}

For QCM: exactly 4 options prefixed "A) " through "D) ", and "correct_answer" holds only the letter.
For Vrai/Faux: "correct_answer" is "Vrai" or "Faux", no "options" field.

RETURN ONLY THE JSON, with no text before or after and no markdown fences.`,
		docContext, langInstruction, diff.Name, diff.Description, diff.complexity,
		numQuestions, typeInstructions.String(), diff.Key)
}
