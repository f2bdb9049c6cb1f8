package model

import "time"

type ProgressStatus string

const (
	ProgressBookmarked ProgressStatus = "bookmarked"
	ProgressAttempted  ProgressStatus = "attempted"
	ProgressSolved     ProgressStatus = "solved"
)

type PracticeProgress struct {
	StudentID        string         `json:"student_id"`
	QuestionID       string         `json:"question_id"`
	BestScore        int            `json:"best_score"`
	Attempts         int            `json:"attempts"`
	Status           ProgressStatus `json:"status"`
	Bookmarked       bool           `json:"bookmarked"`
	LastSubmissionID *string        `json:"last_submission_id,omitempty"`
	UpdatedAt        time.Time      `json:"updated_at"`

	QuestionTitle *string `json:"question_title,omitempty"` // For display
}

// AttemptQuestionScore is one question's best score inside a test attempt.
type AttemptQuestionScore struct {
	QuestionID string `json:"question_id"`
	BestScore  int    `json:"best_score"`
	MaxScore   int    `json:"max_score"`
	Attempts   int    `json:"attempts"`
	Accepted   bool   `json:"accepted"`
}

// SolveNotification is queued when a student solves a question for the first time.
type SolveNotification struct {
	StudentID     string    `json:"student_id"`
	StudentEmail  string    `json:"student_email"`
	StudentName   string    `json:"student_name,omitempty"`
	QuestionID    string    `json:"question_id"`
	QuestionTitle string    `json:"question_title"`
	SubmissionID  string    `json:"submission_id"`
	Attempts      int       `json:"attempts"`
	SolvedAt      time.Time `json:"solved_at"`
}
