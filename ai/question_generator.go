package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	config "github.com/quizai/quiz_ai/configs"
	"github.com/quizai/quiz_ai/models"
)

const generationModel = "llama-3.3-70b-versatile"

// Overridable so tests can point the client at a stub server.
var apiBaseURL = "https://api.groq.com/openai/v1"

var (
	// ErrProvider covers any failure talking to the AI service, including a
	// missing API key and error payloads it returns.
	ErrProvider = errors.New("ai provider error")

	// ErrNoQuestions means the provider answered but nothing usable could be
	// read out of its output.
	ErrNoQuestions = errors.New("no usable questions in AI response")
)

var httpClient = &http.Client{Timeout: 90 * time.Second}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

const systemPromptTemplate = `You are an AI assistant specialized in creating engaging and informative quiz questions from provided text.
Your task is to generate exactly %d multiple-choice quiz questions based on the following text.
The quiz should be in '%s' mode.

All questions must be multiple-choice. There are two types of multiple-choice questions:
1. 'single': These questions must have exactly 4 options, and only 1 of them should be the correct answer.
2. 'multiple': These questions must have exactly 5 options, and exactly 2 of them should be the correct answers.
You should vary between 'single' and 'multiple' types, but always adhere to the specified option and correct answer counts.

For each question, provide:
- An 'id' (unique string)
- The 'question' text
- The 'type' of question ('single' or 'multiple')
- 'options' (an array of strings) containing all answer choices.
- 'correctAnswers' (an array of strings) containing the correct answer(s).
- An 'explanation' (string) for the correct answer(s).

The output must be a JSON array of quiz question objects. Ensure the JSON is perfectly formed.

Example JSON structure:
[
    {
        "id": "q1",
        "question": "What is the capital of France?",
        "type": "single",
        "options": ["Berlin", "Madrid", "Paris", "Rome"],
        "correctAnswers": ["Paris"],
        "explanation": "Paris is the capital and most populous city of France."
    },
    {
        "id": "q2",
        "question": "Which of these are programming languages?",
        "type": "multiple",
        "options": ["Python", "HTML", "CSS", "JavaScript", "SQL"],
        "correctAnswers": ["Python", "JavaScript"],
        "explanation": "Python and JavaScript are widely used programming languages. HTML and CSS are markup and stylesheet languages, respectively. SQL is a database query language."
    }
]`

// GenerateQuizQuestions asks the Groq chat-completions API for quiz
// questions over the given text and normalizes whatever shape comes back.
func GenerateQuizQuestions(ctx context.Context, text string, numQuestions int, mode string) ([]models.Question, error) {
	apiKey := config.Config("GROQ_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("%w: GROQ_API_KEY is not set", ErrProvider)
	}

	payload := chatRequest{
		Model: generationModel,
		Messages: []chatMessage{
			{Role: "system", Content: fmt.Sprintf(systemPromptTemplate, numQuestions, mode)},
			{Role: "user", Content: fmt.Sprintf("Generate %d quiz questions from the following text:\n\n%s", numQuestions, text)},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
		Temperature:    0.7,
		MaxTokens:      2048,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiBaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", ErrProvider, err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("%w: %s", ErrProvider, parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrProvider, resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return nil, ErrNoQuestions
	}

	questions, err := normalizeQuestions(parsed.Choices[0].Message.Content)
	if err != nil {
		log.Printf("Could not normalize AI output: %v", err)
		return nil, err
	}
	return questions, nil
}

// normalizeQuestions accepts the loosely-shaped model output: a JSON array
// of questions, a single question object, or an object wrapping either under
// a "questions" key. Anything else counts as no usable questions.
func normalizeQuestions(content string) ([]models.Question, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, ErrNoQuestions
	}

	var list []models.Question
	if err := json.Unmarshal([]byte(trimmed), &list); err == nil {
		if len(list) == 0 {
			return nil, ErrNoQuestions
		}
		return list, nil
	}

	var wrapper struct {
		Questions json.RawMessage `json:"questions"`
	}
	if err := json.Unmarshal([]byte(trimmed), &wrapper); err != nil {
		return nil, ErrNoQuestions
	}
	if len(wrapper.Questions) > 0 && string(wrapper.Questions) != "null" {
		return normalizeQuestions(string(wrapper.Questions))
	}

	var single models.Question
	if err := json.Unmarshal([]byte(trimmed), &single); err == nil && single.Question != "" {
		return []models.Question{single}, nil
	}
	return nil, ErrNoQuestions
}
