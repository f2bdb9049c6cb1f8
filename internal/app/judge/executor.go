package judge

import (
	"context"
	"fmt"
	"time"

	"github.com/krishkrishna03/techex-sub003/internal/common"
	"github.com/krishkrishna03/techex-sub003/internal/domain/model"
)

// OutcomeKind classifies how one execution ended.
type OutcomeKind string

const (
	OutcomeOK             OutcomeKind = "ok"
	OutcomeCompileError   OutcomeKind = "compile_error"
	OutcomeRuntimeError   OutcomeKind = "runtime_error"
	OutcomeTimedOut       OutcomeKind = "timed_out"
	OutcomeOutputExceeded OutcomeKind = "output_exceeded"
)

// Capability tells callers whether an executor can actually run code.
type Capability int

const (
	CapabilityReady Capability = iota
	CapabilityNotImplemented
)

// Job is a single program execution against one stdin.
type Job struct {
	Source      string
	Stdin       string
	TimeLimit   time.Duration
	OutputLimit int64 // bytes across stdout and stderr
}

// Outcome is what one execution produced. Message carries the compile or runtime error text.
type Outcome struct {
	Stdout   string
	Stderr   string
	Kind     OutcomeKind
	Message  string
	Duration time.Duration
}

// Executor runs source code for exactly one language.
type Executor interface {
	Language() model.Language
	Capability() Capability
	// Execute only returns an error for problems outside the submitted code.
	// Compile, runtime and limit failures are reported through Outcome.Kind.
	Execute(ctx context.Context, job Job) (*Outcome, error)
}

// Executors dispatches a language to its executor. The set is closed:
// every declared language maps to an implementation or to a NotImplemented stub.
type Executors struct {
	javascript *javascriptExecutor
}

type ExecutorConfig struct {
	ProgramCacheSize int64
	MaxCallStack     int
}

func NewExecutors(cfg ExecutorConfig) (*Executors, error) {
	js, err := newJavaScriptExecutor(cfg)
	if err != nil {
		return nil, fmt.Errorf("judge.NewExecutors: %w", err)
	}
	return &Executors{javascript: js}, nil
}

func (e *Executors) For(lang model.Language) Executor {
	switch lang {
	case model.LanguageJavaScript:
		return e.javascript
	case model.LanguagePython, model.LanguageJava, model.LanguageCpp, model.LanguageC:
		return notImplementedExecutor{lang: lang}
	}
	return unsupportedExecutor{lang: lang}
}

type notImplementedExecutor struct {
	lang model.Language
}

func (n notImplementedExecutor) Language() model.Language { return n.lang }
func (n notImplementedExecutor) Capability() Capability   { return CapabilityNotImplemented }

func (n notImplementedExecutor) Execute(context.Context, Job) (*Outcome, error) {
	return nil, fmt.Errorf("%s: %w", n.lang, common.ErrLanguageNotImplemented)
}

// unsupportedExecutor covers tags that bypassed model.ParseLanguage.
type unsupportedExecutor struct {
	lang model.Language
}

func (u unsupportedExecutor) Language() model.Language { return u.lang }
func (u unsupportedExecutor) Capability() Capability   { return CapabilityNotImplemented }

func (u unsupportedExecutor) Execute(context.Context, Job) (*Outcome, error) {
	return nil, fmt.Errorf("%q: %w", string(u.lang), model.ErrUnknownLanguage)
}
