package judge

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Yiling-J/theine-go"
	"github.com/dop251/goja"

	"github.com/krishkrishna03/techex-sub003/internal/domain/model"
)

var (
	errTimeLimit   = errors.New("time limit exceeded")
	errOutputLimit = errors.New("output limit exceeded")
)

const defaultMaxCallStack = 10000

type javascriptExecutor struct {
	programs     *theine.Cache[string, *goja.Program]
	maxCallStack int
}

func newJavaScriptExecutor(cfg ExecutorConfig) (*javascriptExecutor, error) {
	size := cfg.ProgramCacheSize
	if size <= 0 {
		size = 512
	}
	programs, err := theine.NewBuilder[string, *goja.Program](size).Build()
	if err != nil {
		return nil, err
	}
	stack := cfg.MaxCallStack
	if stack <= 0 {
		stack = defaultMaxCallStack
	}
	return &javascriptExecutor{programs: programs, maxCallStack: stack}, nil
}

func (e *javascriptExecutor) Language() model.Language { return model.LanguageJavaScript }
func (e *javascriptExecutor) Capability() Capability   { return CapabilityReady }

// compile returns the cached program for source. Programs are immutable and
// may be run by many runtimes at once; failed compilations are not cached.
func (e *javascriptExecutor) compile(source string) (*goja.Program, error) {
	sum := sha256.Sum256([]byte(source))
	key := hex.EncodeToString(sum[:])
	if prog, ok := e.programs.Get(key); ok {
		return prog, nil
	}
	prog, err := goja.Compile("solution.js", source, false)
	if err != nil {
		return nil, err
	}
	e.programs.Set(key, prog, 1)
	return prog, nil
}

func (e *javascriptExecutor) Execute(ctx context.Context, job Job) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	prog, err := e.compile(job.Source)
	if err != nil {
		return &Outcome{Kind: OutcomeCompileError, Message: err.Error(), Duration: time.Since(start)}, nil
	}

	vm := goja.New()
	vm.SetMaxCallStackSize(e.maxCallStack)
	out := &limitedOutput{limit: job.OutputLimit, vm: vm}
	if err := installGlobals(vm, job.Stdin, out); err != nil {
		return nil, fmt.Errorf("javascriptExecutor.Execute: %w", err)
	}

	if job.TimeLimit > 0 {
		timer := time.AfterFunc(job.TimeLimit, func() { vm.Interrupt(errTimeLimit) })
		defer timer.Stop()
	}
	stop := context.AfterFunc(ctx, func() { vm.Interrupt(ctx.Err()) })
	defer stop()

	_, runErr := vm.RunProgram(prog)
	outcome := &Outcome{
		Stdout:   out.stdout.String(),
		Stderr:   out.stderr.String(),
		Kind:     OutcomeOK,
		Duration: time.Since(start),
	}
	if runErr == nil {
		return outcome, nil
	}

	var interrupted *goja.InterruptedError
	if errors.As(runErr, &interrupted) {
		cause, _ := interrupted.Value().(error)
		switch {
		case errors.Is(cause, errTimeLimit):
			outcome.Kind = OutcomeTimedOut
			outcome.Message = fmt.Sprintf("execution exceeded %v", job.TimeLimit)
		case errors.Is(cause, errOutputLimit):
			outcome.Kind = OutcomeOutputExceeded
			outcome.Message = fmt.Sprintf("output exceeded %d bytes", job.OutputLimit)
		default:
			// The request went away; nothing sensible to grade.
			return nil, fmt.Errorf("javascriptExecutor.Execute: %w", ctx.Err())
		}
		return outcome, nil
	}

	outcome.Kind = OutcomeRuntimeError
	var exception *goja.Exception
	if errors.As(runErr, &exception) && exception.Value() != nil {
		outcome.Message = exception.Value().String()
	} else {
		outcome.Message = runErr.Error()
	}
	return outcome, nil
}

// limitedOutput collects script output and interrupts the runtime once the
// combined size goes over limit.
type limitedOutput struct {
	stdout   bytes.Buffer
	stderr   bytes.Buffer
	limit    int64
	written  int64
	exceeded bool
	vm       *goja.Runtime
}

func (o *limitedOutput) write(buf *bytes.Buffer, s string) {
	if o.exceeded {
		return
	}
	if o.limit > 0 && o.written+int64(len(s)) > o.limit {
		o.exceeded = true
		o.vm.Interrupt(errOutputLimit)
		return
	}
	o.written += int64(len(s))
	buf.WriteString(s)
}

func installGlobals(vm *goja.Runtime, stdin string, out *limitedOutput) error {
	lines := splitLines(stdin)
	next := 0

	printTo := func(buf *bytes.Buffer) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			out.write(buf, formatArgs(call.Arguments)+"\n")
			return goja.Undefined()
		}
	}

	console := vm.NewObject()
	for name, buf := range map[string]*bytes.Buffer{
		"log":   &out.stdout,
		"info":  &out.stdout,
		"debug": &out.stdout,
		"error": &out.stderr,
		"warn":  &out.stderr,
	} {
		if err := console.Set(name, printTo(buf)); err != nil {
			return err
		}
	}

	stdoutObj := vm.NewObject()
	if err := stdoutObj.Set("write", func(call goja.FunctionCall) goja.Value {
		out.write(&out.stdout, call.Argument(0).String())
		return vm.ToValue(true)
	}); err != nil {
		return err
	}
	process := vm.NewObject()
	if err := process.Set("stdout", stdoutObj); err != nil {
		return err
	}

	globals := map[string]any{
		"input":   stdin,
		"console": console,
		"process": process,
		"print":   printTo(&out.stdout),
		"readline": func(goja.FunctionCall) goja.Value {
			if next >= len(lines) {
				return goja.Undefined()
			}
			line := lines[next]
			next++
			return vm.ToValue(line)
		},
	}
	for name, v := range globals {
		if err := vm.Set(name, v); err != nil {
			return err
		}
	}
	return nil
}

func splitLines(stdin string) []string {
	if stdin == "" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(stdin, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func formatArgs(args []goja.Value) string {
	parts := make([]string, len(args))
	for i, a := range args {
		if a == nil || goja.IsUndefined(a) {
			parts[i] = "undefined"
			continue
		}
		parts[i] = a.String()
	}
	return strings.Join(parts, " ")
}
