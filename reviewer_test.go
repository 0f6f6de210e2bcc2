package sheetquiz

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func newFakeOpenAI(t *testing.T, arguments string, requests *[]openai.ChatCompletionRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		*requests = append(*requests, req)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": %q,
			"choices": [{
				"index": 0,
				"finish_reason": "tool_calls",
				"message": {
					"role": "assistant",
					"tool_calls": [{
						"id": "call_1",
						"type": "function",
						"function": {"name": "review_question", "arguments": %q}
					}]
				}
			}]
		}`, req.Model, arguments)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestReviewer(srv *httptest.Server) *QuestionReviewer {
	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	return NewQuestionReviewerWithConfig(cfg, "")
}

func TestReviewerReturnsVerdict(t *testing.T) {
	var requests []openai.ChatCompletionRequest
	srv := newFakeOpenAI(t, `{"verdict":"FIX","reason":"Explanation restates the answer","suggestion":"Explain the three-way handshake"}`, &requests)
	reviewer := newTestReviewer(srv)

	var buf bytes.Buffer
	transcript := newTranscript(&buf, nil)

	question := twoQuestionExam("Net").Questions[0]
	review, err := reviewer.Review(context.Background(), "Net", question, transcript)
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if review.Row != 2 || review.Verdict != VerdictFix || review.Suggestion == "" {
		t.Fatalf("unexpected review %+v", review)
	}

	if len(requests) != 1 {
		t.Fatalf("expected one request, got %d", len(requests))
	}
	req := requests[0]
	if req.Model != openai.GPT4o {
		t.Fatalf("expected default model, got %q", req.Model)
	}
	if len(req.Tools) != 1 || req.Tools[0].Function.Name != reviewToolName {
		t.Fatalf("review tool not offered: %+v", req.Tools)
	}
	prompt := req.Messages[len(req.Messages)-1].Content
	if !strings.Contains(prompt, "*B. b1") || !strings.Contains(prompt, " A. a1") {
		t.Fatalf("prompt does not mark the correct option:\n%s", prompt)
	}

	log := buf.String()
	for _, want := range []string{"REQUEST (row 2)", "RESPONSE (row 2)", "Row 2: fix - Explanation restates the answer"} {
		if !strings.Contains(log, want) {
			t.Fatalf("transcript missing %q:\n%s", want, log)
		}
	}
}

func TestReviewerRejectsUnknownVerdict(t *testing.T) {
	var requests []openai.ChatCompletionRequest
	srv := newFakeOpenAI(t, `{"verdict":"maybe","reason":"unsure"}`, &requests)

	_, err := newTestReviewer(srv).Review(context.Background(), "Net", twoQuestionExam("Net").Questions[1], nil)
	if err == nil || !strings.Contains(err.Error(), "unknown verdict") {
		t.Fatalf("expected unknown verdict error, got %v", err)
	}
}

func TestParseReview(t *testing.T) {
	review, err := parseReview(`{"verdict":" Keep ","reason":"fine"}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if review.Verdict != VerdictKeep || review.Reason != "fine" {
		t.Fatalf("unexpected review %+v", review)
	}

	if _, err := parseReview(`{"verdict":`); err == nil {
		t.Fatalf("expected error for truncated arguments")
	}
	if _, err := parseReview(`{"reason":"no verdict"}`); err == nil {
		t.Fatalf("expected error for a missing verdict")
	}
}
