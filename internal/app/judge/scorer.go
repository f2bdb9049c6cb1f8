package judge

import "github.com/krishkrishna03/techex-sub003/internal/domain/model"

type ScoreResult struct {
	Status   model.SubmissionStatus
	Score    int
	MaxScore int
	Passed   int
	Total    int
}

// failurePrecedence orders failure statuses from most to least specific.
var failurePrecedence = []model.SubmissionStatus{
	model.StatusCompilationError,
	model.StatusRuntimeError,
	model.StatusTimeLimitExceeded,
	model.StatusMemoryLimitExceeded,
	model.StatusWrongAnswer,
}

// Score aggregates results produced for cases (same order, same length).
func Score(results []model.TestResult, cases []model.TestCase) ScoreResult {
	sr := ScoreResult{MaxScore: model.TotalWeight(cases), Total: len(results)}

	seen := make(map[model.SubmissionStatus]bool, len(failurePrecedence))
	for i, res := range results {
		if res.Passed {
			sr.Passed++
			if i < len(cases) {
				sr.Score += cases[i].Weight
			}
			continue
		}
		seen[res.Status] = true
	}
	sr.Score = min(max(sr.Score, 0), sr.MaxScore)

	if sr.Total > 0 && sr.Passed == sr.Total {
		sr.Status = model.StatusAccepted
		return sr
	}
	sr.Status = model.StatusWrongAnswer
	for _, st := range failurePrecedence {
		if seen[st] {
			sr.Status = st
			break
		}
	}
	return sr
}
