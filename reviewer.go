package sheetquiz

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Verdict is the reviewer's decision about one exam row
type Verdict string

const (
	VerdictKeep Verdict = "keep"
	VerdictFix  Verdict = "fix"
	VerdictDrop Verdict = "drop"
)

const reviewToolName = "review_question"

// Review is the reviewer's assessment of one question
type Review struct {
	Row        int     `json:"row"`
	Verdict    Verdict `json:"verdict"`
	Reason     string  `json:"reason"`
	Suggestion string  `json:"suggestion,omitempty"`
}

// QuestionReviewer asks a chat model whether exam rows are sound flashcards
type QuestionReviewer struct {
	client *openai.Client
	model  string
}

// NewQuestionReviewer creates a reviewer talking to the OpenAI API
func NewQuestionReviewer(apiKey, model string) *QuestionReviewer {
	return NewQuestionReviewerWithConfig(openai.DefaultConfig(apiKey), model)
}

// NewQuestionReviewerWithConfig creates a reviewer with a custom client config
func NewQuestionReviewerWithConfig(cfg openai.ClientConfig, model string) *QuestionReviewer {
	if model == "" {
		model = openai.GPT4o
	}
	return &QuestionReviewer{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Review evaluates a single question. transcript may be nil.
func (qr *QuestionReviewer) Review(ctx context.Context, exam string, question Question, transcript *Transcript) (*Review, error) {
	prompt := qr.buildPrompt(exam, question)
	if transcript != nil {
		transcript.LogRequest(question.Row, prompt)
	}

	resp, err := qr.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: qr.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: "You review multiple choice flashcards written for exam preparation. Judge correctness, clarity and whether the explanations actually teach.",
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Tools: []openai.Tool{
				{
					Type: openai.ToolTypeFunction,
					Function: &openai.FunctionDefinition{
						Name:        reviewToolName,
						Description: "Record whether a flashcard should be kept, fixed or dropped",
						Parameters: map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"verdict": map[string]interface{}{
									"type":        "string",
									"enum":        []string{string(VerdictKeep), string(VerdictFix), string(VerdictDrop)},
									"description": "What the sheet owner should do with this row",
								},
								"reason": map[string]interface{}{
									"type":        "string",
									"description": "Explanation for the decision",
								},
								"suggestion": map[string]interface{}{
									"type":        "string",
									"description": "Concrete edit to make (only for fix)",
								},
							},
							"required": []string{"verdict", "reason"},
						},
					},
				},
			},
			ToolChoice: openai.ToolChoice{
				Type: openai.ToolTypeFunction,
				Function: openai.ToolFunction{
					Name: reviewToolName,
				},
			},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to review question: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from %s", qr.model)
	}

	choice := resp.Choices[0]
	if len(choice.Message.ToolCalls) == 0 {
		return nil, fmt.Errorf("no tool calls in response")
	}

	toolCall := choice.Message.ToolCalls[0]
	if transcript != nil {
		transcript.LogResponse(question.Row, toolCall.Function.Arguments)
	}
	if toolCall.Function.Name != reviewToolName {
		return nil, fmt.Errorf("unexpected tool call: %s", toolCall.Function.Name)
	}

	review, err := parseReview(toolCall.Function.Arguments)
	if err != nil {
		return nil, err
	}
	review.Row = question.Row

	if transcript != nil {
		transcript.LogVerdict(review)
	}
	return review, nil
}

func parseReview(arguments string) (*Review, error) {
	var args struct {
		Verdict    string `json:"verdict"`
		Reason     string `json:"reason"`
		Suggestion string `json:"suggestion"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return nil, fmt.Errorf("failed to parse tool arguments: %w", err)
	}

	verdict := Verdict(strings.ToLower(strings.TrimSpace(args.Verdict)))
	switch verdict {
	case VerdictKeep, VerdictFix, VerdictDrop:
	default:
		return nil, fmt.Errorf("unknown verdict %q", args.Verdict)
	}

	return &Review{Verdict: verdict, Reason: args.Reason, Suggestion: args.Suggestion}, nil
}

func (qr *QuestionReviewer) buildPrompt(exam string, question Question) string {
	var sb strings.Builder

	sb.WriteString("Review the following flashcard:\n\n")
	sb.WriteString(fmt.Sprintf("Exam: %s\n", exam))
	sb.WriteString(fmt.Sprintf("Sheet row: %d\n\n", question.Row))
	sb.WriteString(fmt.Sprintf("Question: %s\n\n", question.Text))

	sb.WriteString("Options:\n")
	for _, letter := range question.Letters() {
		marker := " "
		if letter == question.Correct {
			marker = "*"
		}
		sb.WriteString(fmt.Sprintf("%s%s. %s\n", marker, letter, question.Options[letter]))
	}

	sb.WriteString(fmt.Sprintf("\nCorrect Answer: %s\n", question.Correct))
	sb.WriteString(fmt.Sprintf("Explanation (shown when right): %s\n", question.ExplanationCorrect))
	if question.ExplanationIncorrect != "" {
		sb.WriteString(fmt.Sprintf("Explanation (shown when wrong): %s\n", question.ExplanationIncorrect))
	}

	sb.WriteString("\nEvaluation criteria:\n")
	sb.WriteString("1. Is the marked answer actually correct?\n")
	sb.WriteString("2. Is exactly one option defensible as correct?\n")
	sb.WriteString("3. Is the question clear and unambiguous without the exam context?\n")
	sb.WriteString("4. Does the question text give the answer away?\n")
	sb.WriteString("5. Does the explanation say WHY the answer is correct rather than restating it?\n\n")

	sb.WriteString("Decision guidelines:\n")
	sb.WriteString("- DROP: the marked answer is wrong and cannot be fixed by editing one cell, or the question is meaningless\n")
	sb.WriteString("- FIX: the row is salvageable; say exactly which cell to change and to what\n")
	sb.WriteString("- KEEP: the row is good as-is, even if the explanation is only basic\n")

	return sb.String()
}
