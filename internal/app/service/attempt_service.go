package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/krishkrishna03/techex-sub003/internal/domain/model"
	"github.com/krishkrishna03/techex-sub003/internal/domain/repository"
)

type AttemptService struct {
	submissionRepo repository.SubmissionRepository
}

func NewAttemptService(submissionRepo repository.SubmissionRepository) *AttemptService {
	return &AttemptService{submissionRepo: submissionRepo}
}

// CodingSummary is a student's coding section result inside one test attempt.
type CodingSummary struct {
	AttemptID  string                       `json:"attemptId"`
	Questions  []model.AttemptQuestionScore `json:"questions"`
	TotalScore int                          `json:"totalScore"`
	MaxScore   int                          `json:"maxScore"`
	Percentage decimal.Decimal              `json:"percentage"`
}

func (s *AttemptService) CodingSummary(ctx context.Context, student model.Principal, attemptID string) (*CodingSummary, error) {
	scores, err := s.submissionRepo.GetAttemptScores(ctx, student.UserID, attemptID)
	if err != nil {
		return nil, err
	}
	summary := &CodingSummary{AttemptID: attemptID, Questions: scores, Percentage: decimal.Zero}
	for _, sc := range scores {
		summary.TotalScore += sc.BestScore
		summary.MaxScore += sc.MaxScore
	}
	if summary.MaxScore > 0 {
		summary.Percentage = decimal.NewFromInt(int64(summary.TotalScore)).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(int64(summary.MaxScore))).
			Round(2)
	}
	return summary, nil
}
