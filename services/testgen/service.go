package testgen

import (
	"context"
	"fmt"

	"github.com/upb/file-upload-api/models"
	"github.com/upb/file-upload-api/services"
	"go.uber.org/zap"
)

// Service produces practice tests. Questions are placeholders: every one
// is the same sample question about the requested topic.
type Service struct {
	logger *zap.Logger
}

// NewService creates a new test generation Service
func NewService(logger *zap.Logger) *Service {
	return &Service{logger: logger}
}

// Generate builds a test with req.Count() questions
func (s *Service) Generate(ctx context.Context, uid, email string, req *models.TestGenerationRequest) (*models.GeneratedTest, error) {
	count := req.Count()
	if count < 0 || count > models.MaxQuestionCount {
		return nil, services.NewDomainError(services.ErrorTypeInvalidRequest,
			fmt.Sprintf("question_count must be between 0 and %d", models.MaxQuestionCount), nil)
	}

	topic := req.TopicValue()
	difficulty := req.DifficultyValue()

	questions := make([]models.Question, 0, count)
	for i := 0; i < count; i++ {
		questions = append(questions, models.NewSampleQuestion(topic))
	}

	s.logger.Debug("test generated",
		zap.String("uid", uid),
		zap.String("topic", topic),
		zap.String("difficulty", difficulty),
		zap.Int("question_count", count))

	return &models.GeneratedTest{
		UserUID:       uid,
		UserEmail:     email,
		Topic:         topic,
		Difficulty:    difficulty,
		QuestionCount: count,
		Questions:     questions,
	}, nil
}
