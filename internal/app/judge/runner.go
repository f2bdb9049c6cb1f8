package judge

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/krishkrishna03/techex-sub003/internal/common"
	"github.com/krishkrishna03/techex-sub003/internal/domain/model"
	"github.com/krishkrishna03/techex-sub003/internal/platform/metrics"
)

type Mode string

const (
	ModeRun    Mode = "run"    // sample cases only, nothing persisted
	ModeSubmit Mode = "submit" // every case
)

// Report is everything one grading pass produced.
type Report struct {
	Results []model.TestResult
	Cases   []model.TestCase // the cases that were evaluated, in result order
	Output  string           // stdout of the first evaluated case
	Elapsed time.Duration
}

// Runner grades source code against a question's test cases.
type Runner struct {
	executors      *Executors
	maxOutputBytes int64
}

func NewRunner(executors *Executors, maxOutputBytes int64) *Runner {
	return &Runner{executors: executors, maxOutputBytes: maxOutputBytes}
}

// Matches compares outputs ignoring trailing spaces, tabs and newlines.
func Matches(expected, actual string) bool {
	return trimOutput(expected) == trimOutput(actual)
}

func trimOutput(s string) string {
	return strings.TrimRight(s, " \t\r\n")
}

// Run evaluates code against the question's cases one by one. Failures never
// stop the pass except a compile error, which no later case could get past.
func (r *Runner) Run(ctx context.Context, q *model.Question, cases []model.TestCase, code string, lang model.Language, mode Mode) (*Report, error) {
	exec := r.executors.For(lang)
	if exec.Capability() != CapabilityReady {
		return nil, fmt.Errorf("%s: %w", lang, common.ErrLanguageNotImplemented)
	}

	selected := slices.Clone(cases)
	if mode == ModeRun {
		selected = model.SampleCases(selected)
	}
	slices.SortStableFunc(selected, func(a, b model.TestCase) int { return a.SortOrder - b.SortOrder })

	job := Job{
		Source:      code,
		TimeLimit:   time.Duration(q.TimeLimitMs) * time.Millisecond,
		OutputLimit: r.outputLimit(q),
	}

	report := &Report{Results: make([]model.TestResult, 0, len(selected)), Cases: selected}
	var compileErr string
	for i, tc := range selected {
		res := model.TestResult{
			CaseIndex:      i,
			TestCaseID:     tc.ID,
			IsSample:       tc.IsSample,
			Input:          tc.Input,
			ExpectedOutput: tc.ExpectedOutput,
		}
		if compileErr != "" {
			res.Status = model.StatusCompilationError
			res.ErrorMessage = compileErr
			report.Results = append(report.Results, res)
			continue
		}

		job.Stdin = tc.Input
		out, err := exec.Execute(ctx, job)
		if err != nil {
			return nil, fmt.Errorf("judge.Runner.Run case %d: %w", i, err)
		}
		metrics.CaseDuration.WithLabelValues(string(lang)).Observe(out.Duration.Seconds())
		report.Elapsed += out.Duration
		res.ExecutionTimeMs = int(out.Duration.Milliseconds())
		if i == 0 {
			report.Output = out.Stdout
		}

		switch out.Kind {
		case OutcomeOK:
			if Matches(tc.ExpectedOutput, out.Stdout) {
				res.Passed = true
				res.Status = model.StatusAccepted
			} else {
				res.Status = model.StatusWrongAnswer
			}
		case OutcomeCompileError:
			compileErr = out.Message
			res.Status = model.StatusCompilationError
			res.ErrorMessage = out.Message
			if i == 0 {
				report.Output = out.Message
			}
		case OutcomeRuntimeError:
			res.Status = model.StatusRuntimeError
			res.ErrorMessage = out.Message
		case OutcomeTimedOut:
			res.Status = model.StatusTimeLimitExceeded
			res.ErrorMessage = out.Message
		case OutcomeOutputExceeded:
			res.Status = model.StatusMemoryLimitExceeded
			res.ErrorMessage = out.Message
		}
		if !res.Passed && out.Kind != OutcomeCompileError {
			actual := out.Stdout
			res.ActualOutput = &actual
		}
		report.Results = append(report.Results, res)
	}
	return report, nil
}

func (r *Runner) outputLimit(q *model.Question) int64 {
	limit := int64(q.MemoryLimitMB) << 20
	if r.maxOutputBytes > 0 && (limit <= 0 || limit > r.maxOutputBytes) {
		limit = r.maxOutputBytes
	}
	return limit
}
