package models

import "fmt"

// DefaultQuestionCount is used when a request omits question_count
const DefaultQuestionCount = 10

// MaxQuestionCount bounds question_count
const MaxQuestionCount = 1000

// mockOptions and mockCorrectAnswer shape every generated question
var mockOptions = []string{"A", "B", "C", "D"}

const mockCorrectAnswer = "A"

// TestGenerationRequest is the body of POST /generate-test.
// Topic and Difficulty must be present but may be empty strings.
type TestGenerationRequest struct {
	Topic         *string `json:"topic" validate:"required"`
	Difficulty    *string `json:"difficulty" validate:"required"`
	QuestionCount *int    `json:"question_count,omitempty" validate:"omitempty,gte=0,lte=1000"`
}

// TopicValue returns the topic, or "" when absent
func (r *TestGenerationRequest) TopicValue() string {
	if r.Topic == nil {
		return ""
	}
	return *r.Topic
}

// DifficultyValue returns the difficulty, or "" when absent
func (r *TestGenerationRequest) DifficultyValue() string {
	if r.Difficulty == nil {
		return ""
	}
	return *r.Difficulty
}

// Count returns the requested number of questions, applying the default
func (r *TestGenerationRequest) Count() int {
	if r.QuestionCount == nil {
		return DefaultQuestionCount
	}
	return *r.QuestionCount
}

// Question is a single multiple-choice question
type Question struct {
	ID            int      `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
}

// NewSampleQuestion builds the placeholder question for a topic
func NewSampleQuestion(topic string) Question {
	return Question{
		ID:            1,
		Question:      fmt.Sprintf("Sample question about %s", topic),
		Options:       append([]string(nil), mockOptions...),
		CorrectAnswer: mockCorrectAnswer,
	}
}

// GeneratedTest is a generated set of questions for a user
type GeneratedTest struct {
	UserUID       string
	UserEmail     string
	Topic         string
	Difficulty    string
	QuestionCount int
	Questions     []Question
}
