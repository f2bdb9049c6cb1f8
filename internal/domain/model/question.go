package model

import (
	"slices"
	"time"
)

type QuestionDifficulty string

const (
	DifficultyEasy   QuestionDifficulty = "easy"
	DifficultyMedium QuestionDifficulty = "medium"
	DifficultyHard   QuestionDifficulty = "hard"
)

type Question struct {
	ID            string             `json:"id"`
	Slug          string             `json:"slug"`
	Title         string             `json:"title"`
	Prompt        string             `json:"prompt"`
	Difficulty    QuestionDifficulty `json:"difficulty"`
	Languages     []Language         `json:"languages"`
	TimeLimitMs   int                `json:"time_limit_ms"`
	MemoryLimitMB int                `json:"memory_limit_mb"`
	SampleInput   string             `json:"sample_input"`
	SampleOutput  string             `json:"sample_output"`
	Constraints   string             `json:"constraints,omitempty"`
	InputFormat   string             `json:"input_format,omitempty"`
	OutputFormat  string             `json:"output_format,omitempty"`
	CreatedBy     string             `json:"created_by"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`

	MaxScore  int        `json:"max_score"`
	TestCases []TestCase `json:"test_cases,omitempty"` // Sample only for students
}

// Supports reports whether lang is one of the question's listed languages.
func (q *Question) Supports(lang Language) bool {
	return slices.Contains(q.Languages, lang)
}

type TestCase struct {
	ID             string    `json:"id"`
	QuestionID     string    `json:"question_id"`
	Input          string    `json:"input"`
	ExpectedOutput string    `json:"expected_output"`
	IsSample       bool      `json:"is_sample"`
	Weight         int       `json:"weight"`
	SortOrder      int       `json:"sort_order"`
	CreatedAt      time.Time `json:"created_at"`
}

// TotalWeight is the total achievable score of a set of test cases.
func TotalWeight(cases []TestCase) int {
	total := 0
	for _, tc := range cases {
		total += tc.Weight
	}
	return total
}

// SampleCases returns the sample cases in their original order.
func SampleCases(cases []TestCase) []TestCase {
	samples := make([]TestCase, 0, len(cases))
	for _, tc := range cases {
		if tc.IsSample {
			samples = append(samples, tc)
		}
	}
	return samples
}
