package service

import (
	"context"

	"github.com/krishkrishna03/techex-sub003/internal/domain/model"
	"github.com/krishkrishna03/techex-sub003/internal/domain/repository"
)

type ProgressService struct {
	progressRepo repository.ProgressRepository
	questionRepo repository.QuestionRepository
}

func NewProgressService(progressRepo repository.ProgressRepository, questionRepo repository.QuestionRepository) *ProgressService {
	return &ProgressService{progressRepo: progressRepo, questionRepo: questionRepo}
}

func (s *ProgressService) List(ctx context.Context, student model.Principal, bookmarkedOnly bool) ([]model.PracticeProgress, error) {
	return s.progressRepo.ListProgress(ctx, student.UserID, bookmarkedOnly)
}

func (s *ProgressService) Get(ctx context.Context, student model.Principal, questionID string) (*model.PracticeProgress, error) {
	return s.progressRepo.GetProgress(ctx, student.UserID, questionID)
}

func (s *ProgressService) Bookmark(ctx context.Context, student model.Principal, questionID string) (*model.PracticeProgress, error) {
	if _, err := s.questionRepo.FindQuestionByID(ctx, questionID); err != nil {
		return nil, err
	}
	return s.progressRepo.SetBookmark(ctx, student.UserID, questionID, true)
}

// Unbookmark clears the flag. A question the student never touched has no
// progress row and yields ErrNotFound.
func (s *ProgressService) Unbookmark(ctx context.Context, student model.Principal, questionID string) (*model.PracticeProgress, error) {
	return s.progressRepo.SetBookmark(ctx, student.UserID, questionID, false)
}
