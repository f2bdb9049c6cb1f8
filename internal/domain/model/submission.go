package model

import (
	"strings"
	"time"
)

type SubmissionStatus string

const (
	StatusPending             SubmissionStatus = "pending"
	StatusRunning             SubmissionStatus = "running"
	StatusAccepted            SubmissionStatus = "accepted"
	StatusWrongAnswer         SubmissionStatus = "wrong_answer"
	StatusRuntimeError        SubmissionStatus = "runtime_error"
	StatusTimeLimitExceeded   SubmissionStatus = "time_limit_exceeded"
	StatusMemoryLimitExceeded SubmissionStatus = "memory_limit_exceeded"
	StatusCompilationError    SubmissionStatus = "compilation_error"
)

// Final reports whether s is a terminal grading status.
func (s SubmissionStatus) Final() bool {
	return s != StatusPending && s != StatusRunning && s != ""
}

type Submission struct {
	ID              string           `json:"id"`
	StudentID       string           `json:"student_id"`
	QuestionID      string           `json:"question_id"`
	TestAttemptID   *string          `json:"test_attempt_id,omitempty"`
	Language        Language         `json:"language"`
	Code            string           `json:"code"`
	Status          SubmissionStatus `json:"status"`
	TestCasesPassed int              `json:"test_cases_passed"`
	TotalTestCases  int              `json:"total_test_cases"`
	Score           int              `json:"score"`
	MaxScore        int              `json:"max_score"`
	ExecutionTimeMs int              `json:"execution_time_ms"`
	MemoryKB        *int             `json:"memory_kb,omitempty"`
	SubmittedAt     time.Time        `json:"submitted_at"`
	Results         []TestResult     `json:"test_results,omitempty"`
}

// TestResult is the outcome of one test case.
type TestResult struct {
	CaseIndex       int              `json:"case_index"`
	TestCaseID      string           `json:"test_case_id,omitempty"`
	Passed          bool             `json:"passed"`
	Status          SubmissionStatus `json:"status"`
	IsSample        bool             `json:"is_sample"`
	Input           string           `json:"input,omitempty"`
	ExpectedOutput  string           `json:"expected_output,omitempty"`
	ActualOutput    *string          `json:"actual_output,omitempty"` // Failed cases only
	ErrorMessage    string           `json:"error,omitempty"`
	ExecutionTimeMs int              `json:"execution_time_ms"`
}

// Redacted strips everything that could reveal a hidden case.
func (r TestResult) Redacted() TestResult {
	if r.IsSample {
		return r
	}
	r.TestCaseID = ""
	r.Input = ""
	r.ExpectedOutput = ""
	r.ActualOutput = nil
	if r.ErrorMessage != "" {
		// thrown values and runtime messages can echo stdin
		r.ErrorMessage = strings.ReplaceAll(string(r.Status), "_", " ")
	}
	return r
}

// RedactResults applies Redacted to every result.
func RedactResults(results []TestResult) []TestResult {
	out := make([]TestResult, len(results))
	for i, r := range results {
		out[i] = r.Redacted()
	}
	return out
}
