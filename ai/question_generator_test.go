package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNormalizeQuestions(t *testing.T) {
	singleObject := `{"id":"q1","question":"Q?","type":"single","options":["a","b","c","d"],"correctAnswers":["a"],"explanation":"e"}`

	cases := []struct {
		name    string
		content string
		want    int
		wantErr bool
	}{
		{"array", "[" + singleObject + "," + singleObject + "]", 2, false},
		{"single object wrapped into list", singleObject, 1, false},
		{"questions key with array", `{"questions":[` + singleObject + `]}`, 1, false},
		{"questions key with single object", `{"questions":` + singleObject + `}`, 1, false},
		{"empty array", `[]`, 0, true},
		{"questions key with empty array", `{"questions":[]}`, 0, true},
		{"questions key null", `{"questions":null}`, 0, true},
		{"garbage", `not json at all`, 0, true},
		{"unrelated object", `{"foo":"bar"}`, 0, true},
		{"empty string", ``, 0, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := normalizeQuestions(tc.content)
			if tc.wantErr {
				if !errors.Is(err, ErrNoQuestions) {
					t.Fatalf("err = %v, want ErrNoQuestions", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != tc.want {
				t.Fatalf("got %d questions, want %d", len(got), tc.want)
			}
			if got[0].Question != "Q?" || len(got[0].Options) != 4 {
				t.Fatalf("question content lost in normalization: %+v", got[0])
			}
		})
	}
}

func stubProvider(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	orig := apiBaseURL
	apiBaseURL = server.URL
	t.Cleanup(func() { apiBaseURL = orig })

	t.Setenv("GROQ_API_KEY", "test-key")
}

func TestGenerateQuizQuestionsSuccess(t *testing.T) {
	stubProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer auth, got %q", r.Header.Get("Authorization"))
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("unreadable request body: %v", err)
		}
		if len(req.Messages) == 0 || !strings.Contains(req.Messages[0].Content, "Example JSON structure") {
			t.Errorf("system prompt missing the example output block")
		}
		content := `[{"id":"q1","question":"Q?","type":"single","options":["a","b","c","d"],"correctAnswers":["a"],"explanation":"e"}]`
		fmt.Fprintf(w, `{"choices":[{"message":{"content":%q}}]}`, content)
	})

	questions, err := GenerateQuizQuestions(context.Background(), "some article text", 1, "practice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(questions) != 1 || questions[0].ID != "q1" {
		t.Fatalf("unexpected questions: %+v", questions)
	}
}

func TestGenerateQuizQuestionsProviderErrorPayload(t *testing.T) {
	stubProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"rate limit exceeded"}}`)
	})

	_, err := GenerateQuizQuestions(context.Background(), "text", 3, "practice")
	if !errors.Is(err, ErrProvider) {
		t.Fatalf("err = %v, want ErrProvider", err)
	}
}

func TestGenerateQuizQuestionsUnusableOutput(t *testing.T) {
	stubProvider(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[{"message":{"content":"{\"foo\":1}"}}]}`)
	})

	_, err := GenerateQuizQuestions(context.Background(), "text", 3, "practice")
	if !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("err = %v, want ErrNoQuestions", err)
	}
}

func TestGenerateQuizQuestionsMissingAPIKey(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")

	orig := apiBaseURL
	apiBaseURL = "http://127.0.0.1:0" // must never be dialed
	t.Cleanup(func() { apiBaseURL = orig })

	_, err := GenerateQuizQuestions(context.Background(), "text", 3, "practice")
	if !errors.Is(err, ErrProvider) {
		t.Fatalf("err = %v, want ErrProvider", err)
	}
}
