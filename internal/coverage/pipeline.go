// SPDX-License-Identifier: MPL-2.0

// Package coverage orchestrates the four-stage coverage pipeline:
// instrumented build, single-suite test run, symbol-coverage extraction,
// and artifact packaging.
//
// The stages are deliberately not uniform in how they fail. Build and test
// failures abort the pipeline and propagate the child's exit code. A
// symbolizer failure is recorded but does not stop artifact packaging, and
// its exit code becomes the pipeline's terminal status. This asymmetry is
// modeled with explicit per-stage results instead of ad hoc code checks.
package coverage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/charmbracelet/log"

	"nssdev/internal/build"
	"nssdev/internal/issue"
	"nssdev/internal/suite"
	"nssdev/pkg/types"
)

// ErrUnknownModule is the sentinel error wrapped by UnknownModuleError.
var ErrUnknownModule = errors.New("unknown coverage module")

// ErrTraceNotFound is returned when the test run leaves no coverage trace.
var ErrTraceNotFound = errors.New("no coverage trace found")

// Module names a coverage target.
type Module string

// ModuleSSLGtests is currently the only supported coverage module.
const ModuleSSLGtests Module = "ssl_gtests"

// Names returns every known module name, for CLI validation.
func Names() []string {
	return []string{string(ModuleSSLGtests)}
}

// UnknownModuleError is returned when a name matches no coverage module.
type UnknownModuleError struct {
	Name string
}

// Error implements the error interface.
func (e *UnknownModuleError) Error() string {
	return fmt.Sprintf("unknown coverage module %q", e.Name)
}

// Unwrap returns ErrUnknownModule for errors.Is() compatibility.
func (e *UnknownModuleError) Unwrap() error { return ErrUnknownModule }

// ParseModule validates name against the fixed module set.
func ParseModule(name string) (Module, error) {
	if name == string(ModuleSSLGtests) {
		return ModuleSSLGtests, nil
	}
	return "", &UnknownModuleError{Name: name}
}

// Stage identifies one pipeline stage.
type Stage int

const (
	StageBuild Stage = iota
	StageTestRun
	StageSymbolize
	StagePackage
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageBuild:
		return "build"
	case StageTestRun:
		return "test-run"
	case StageSymbolize:
		return "symbolize"
	case StagePackage:
		return "package"
	default:
		return "unknown"
	}
}

// StageStatus is the outcome kind of one stage.
type StageStatus int

const (
	// StatusOK means the stage completed with exit code zero.
	StatusOK StageStatus = iota
	// StatusFailed means the stage ran and failed.
	StatusFailed
	// StatusSkipped means an earlier fatal failure prevented the stage.
	StatusSkipped
)

// StageResult records how one stage ended.
type StageResult struct {
	Stage  Stage
	Status StageStatus
	Code   types.ExitCode
	Err    error
}

// Result aggregates the pipeline outcome. Code is the terminal status for
// the whole run: the symbolizer's exit code when stages 1-2 succeeded, or
// the failing stage's code otherwise.
type Result struct {
	TracePath      string
	SymbolizedPath string
	BinaryPath     string
	Code           types.ExitCode
	Stages         []StageResult
}

// Fixed pipeline inputs.
const (
	// tracePattern matches the raw sanitizer coverage trace in the output
	// directory. The PID embedded in the name varies per run.
	tracePattern = "ssl_gtest.*.sancov"
	// symbolizedName is the fixed name of the symbolized coverage artifact.
	symbolizedName = "ssl_gtest.symcov"
	// binaryName is the instrumented test binary to symbolize and package.
	binaryName = "ssl_gtest"
	// symbolizerBinary maps raw coverage addresses back to source symbols.
	symbolizerBinary = "sancov"
)

// buildFlags select a sanitizer build with trace-pc-guard coverage
// instrumentation and the legacy database backend.
var buildFlags = []string{
	"-c", "-v", "--asan",
	"--sancov=edge,no-prune,trace-pc-guard,trace-cmp",
	"--dbm",
}

// Pipeline runs the coverage workflow for one checkout.
type Pipeline struct {
	// RepoRoot is the absolute repository root.
	RepoRoot string
	// BinDir is where built test binaries land, relative to RepoRoot.
	BinDir string
	// Ignorelist is the symbolizer ignorelist, relative to RepoRoot.
	Ignorelist string
	// Build runs the instrumented build.
	Build *build.Runner
	// Suites runs the targeted test suite.
	Suites *suite.Runner
	// Stdout and Stderr receive child process output.
	Stdout io.Writer
	Stderr io.Writer
	// Logger receives stage progress and warnings.
	Logger *log.Logger

	execCommand func(ctx context.Context, name string, arg ...string) *exec.Cmd
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithExecCommand sets a custom exec command function for testing the
// symbolizer invocation.
func WithExecCommand(fn func(ctx context.Context, name string, arg ...string) *exec.Cmd) Option {
	return func(p *Pipeline) {
		p.execCommand = fn
	}
}

// NewPipeline creates a Pipeline from p, defaulting the seams.
func NewPipeline(p Pipeline, opts ...Option) *Pipeline {
	if p.Logger == nil {
		p.Logger = log.Default()
	}
	if p.execCommand == nil {
		p.execCommand = exec.CommandContext
	}
	out := p
	for _, opt := range opts {
		opt(&out)
	}
	return &out
}

// Run executes the pipeline, writing artifacts under outDir (created when
// absent). The returned error is non-nil whenever the terminal status is
// non-zero; the Result always carries per-stage details.
func (p *Pipeline) Run(ctx context.Context, outDir string) (*Result, error) {
	result := &Result{}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		result.Code = 1
		return result, fmt.Errorf("failed to create output directory: %w", err)
	}

	// Stage 1: instrumented build. Fatal on failure.
	p.Logger.Info("building with coverage instrumentation")
	code, err := p.Build.Run(ctx, buildFlags)
	if err != nil || !code.IsSuccess() {
		result.Stages = append(result.Stages, StageResult{Stage: StageBuild, Status: StatusFailed, Code: code, Err: err})
		result.skipRemaining(StageTestRun)
		result.Code = fatalCode(code)
		return result, stageError(StageBuild, code, err)
	}
	result.Stages = append(result.Stages, StageResult{Stage: StageBuild, Status: StatusOK})

	// Stage 2: targeted single-threaded test run. The wildcard test filter
	// forces the harness into one serial gtest invocation; interleaved runs
	// would corrupt coverage accounting. Unload is disabled because
	// unloading plugins discards their coverage state.
	p.Logger.Info("running instrumented test suite", "suite", suite.SSLGtests)
	code, err = p.Suites.Run(ctx, suite.RunSpec{
		Suite: suite.SSLGtests,
		Env: map[string]string{
			"GTESTFILTER":         "*",
			"ASAN_OPTIONS":        "coverage=1:coverage_dir=" + outDir,
			"NSS_DEFAULT_DB_TYPE": "sql",
			"NSS_DISABLE_UNLOAD":  "1",
		},
	})
	if err != nil || !code.IsSuccess() {
		result.Stages = append(result.Stages, StageResult{Stage: StageTestRun, Status: StatusFailed, Code: code, Err: err})
		result.skipRemaining(StageSymbolize)
		result.Code = fatalCode(code)
		return result, stageError(StageTestRun, code, err)
	}
	result.Stages = append(result.Stages, StageResult{Stage: StageTestRun, Status: StatusOK})

	// Stage 3: symbol-coverage extraction. Non-fatal: its exit code is
	// recorded and becomes the terminal status, but packaging still runs.
	symCode, symErr := p.symbolize(ctx, outDir, result)

	// Stage 4: package the test binary regardless of stage 3's outcome.
	if err := p.packageBinary(outDir, result); err != nil {
		p.Logger.Warn("failed to copy test binary", "err", err)
	}

	result.Code = symCode
	if symErr != nil {
		return result, symErr
	}
	if !symCode.IsSuccess() {
		return result, stageError(StageSymbolize, symCode, nil)
	}
	return result, nil
}

// symbolize locates the raw trace and turns it into a symbolized artifact.
func (p *Pipeline) symbolize(ctx context.Context, outDir string, result *Result) (types.ExitCode, error) {
	matches, err := filepath.Glob(filepath.Join(outDir, tracePattern))
	if err == nil && len(matches) == 0 {
		err = ErrTraceNotFound
	}
	if err != nil {
		p.Logger.Error("no coverage trace to symbolize",
			"pattern", tracePattern, "dir", outDir, "issue", issue.CoverageTraceNotFoundId)
		result.Stages = append(result.Stages, StageResult{Stage: StageSymbolize, Status: StatusFailed, Code: 1, Err: err})
		return 1, issue.NewErrorContext().
			WithOperation("locate coverage trace").
			WithResource(filepath.Join(outDir, tracePattern)).
			WithSuggestion("Check the test run output for sanitizer startup errors").
			Wrap(err).
			BuildError()
	}

	// First match wins. With several traces present (older runs into the
	// same directory) the choice is arbitrary, not newest-first.
	trace := matches[0]
	result.TracePath = trace

	symbolized := filepath.Join(outDir, symbolizedName)
	out, err := os.Create(symbolized)
	if err != nil {
		result.Stages = append(result.Stages, StageResult{Stage: StageSymbolize, Status: StatusFailed, Code: 1, Err: err})
		return 1, fmt.Errorf("failed to create %s: %w", symbolized, err)
	}
	defer out.Close()

	binary := filepath.Join(p.RepoRoot, p.BinDir, binaryName)
	ignorelist := filepath.Join(p.RepoRoot, p.Ignorelist)

	cmd := p.execCommand(ctx, symbolizerBinary, "-symbolize", "-ignorelist", ignorelist, binary, trace)
	cmd.Stdout = out
	cmd.Stderr = p.Stderr

	runErr := cmd.Run()
	code := types.FromError(runErr)
	if code.IsSuccess() {
		result.Stages = append(result.Stages, StageResult{Stage: StageSymbolize, Status: StatusOK})
		result.SymbolizedPath = symbolized
		return 0, nil
	}

	p.Logger.Warn("symbolizer failed, continuing with packaging", "code", code)
	result.Stages = append(result.Stages, StageResult{Stage: StageSymbolize, Status: StatusFailed, Code: code, Err: runErr})
	result.SymbolizedPath = symbolized
	return code, nil
}

// packageBinary copies the instrumented test binary into outDir.
func (p *Pipeline) packageBinary(outDir string, result *Result) error {
	src := filepath.Join(p.RepoRoot, p.BinDir, binaryName)
	dst := filepath.Join(outDir, binaryName)

	in, err := os.Open(src)
	if err != nil {
		result.Stages = append(result.Stages, StageResult{Stage: StagePackage, Status: StatusFailed, Code: 1, Err: err})
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o755)
	if err != nil {
		result.Stages = append(result.Stages, StageResult{Stage: StagePackage, Status: StatusFailed, Code: 1, Err: err})
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		result.Stages = append(result.Stages, StageResult{Stage: StagePackage, Status: StatusFailed, Code: 1, Err: err})
		return err
	}

	result.Stages = append(result.Stages, StageResult{Stage: StagePackage, Status: StatusOK})
	result.BinaryPath = dst
	return nil
}

// skipRemaining marks every stage from first onward as skipped.
func (r *Result) skipRemaining(first Stage) {
	for s := first; s <= StagePackage; s++ {
		r.Stages = append(r.Stages, StageResult{Stage: s, Status: StatusSkipped})
	}
}

// fatalCode normalizes a fatal stage's exit code: a zero code paired with an
// infrastructure error still has to terminate non-zero.
func fatalCode(code types.ExitCode) types.ExitCode {
	if code.IsSuccess() {
		return 1
	}
	return code
}

// stageError builds the error reported for a failed stage.
func stageError(s Stage, code types.ExitCode, err error) error {
	if err != nil {
		return fmt.Errorf("coverage %s stage failed: %w", s, err)
	}
	return fmt.Errorf("coverage %s stage failed with exit code %s", s, code)
}
