// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"nssdev/internal/build"
	"nssdev/internal/config"
	"nssdev/internal/container"
	"nssdev/internal/coverage"
	"nssdev/internal/format"
	"nssdev/internal/imagecache"
	"nssdev/internal/suite"
	"nssdev/internal/vcs"
	"nssdev/pkg/types"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer; all Cobra command handlers receive an App
	// reference and delegate business logic through its service interfaces.
	App struct {
		Config   ConfigProvider
		Format   FormatService
		Build    BuildService
		Suites   SuiteService
		Coverage CoverageService

		stdout io.Writer
		stderr io.Writer
		logger *log.Logger
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp. Tests supply
	// mock implementations to isolate specific service behavior.
	Dependencies struct {
		Config   ConfigProvider
		Format   FormatService
		Build    BuildService
		Suites   SuiteService
		Coverage CoverageService
		Stdout   io.Writer
		Stderr   io.Writer
		Logger   *log.Logger
	}

	// FormatRequest captures the formatter command's inputs as an immutable
	// value.
	FormatRequest struct {
		// Paths are explicit file paths; empty means detect from version
		// control status.
		Paths []string
		// NoRoot disables privilege elevation for container invocations.
		NoRoot bool
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(opts config.LoadOptions) (*config.Config, error)
	}

	// FormatService resolves a change set and dispatches the formatter.
	FormatService interface {
		Dispatch(ctx context.Context, req FormatRequest) (format.Outcome, error)
	}

	// BuildService runs the repository build with pass-through arguments.
	BuildService interface {
		Run(ctx context.Context, args []string) (types.ExitCode, error)
	}

	// SuiteService runs one harness test suite.
	SuiteService interface {
		Run(ctx context.Context, s suite.Suite) (types.ExitCode, error)
	}

	// CoverageService runs the coverage pipeline for one module.
	CoverageService interface {
		Run(ctx context.Context, module coverage.Module, outDir string) (*coverage.Result, error)
	}

	defaultConfigProvider struct{}

	defaultFormatService struct {
		config ConfigProvider
		stdout io.Writer
		stderr io.Writer
		logger *log.Logger
	}

	defaultBuildService struct {
		config ConfigProvider
		stdout io.Writer
		stderr io.Writer
	}

	defaultSuiteService struct {
		config ConfigProvider
		stdout io.Writer
		stderr io.Writer
	}

	defaultCoverageService struct {
		config ConfigProvider
		stdout io.Writer
		stderr io.Writer
		logger *log.Logger
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}
	if deps.Config == nil {
		deps.Config = defaultConfigProvider{}
	}
	if deps.Format == nil {
		deps.Format = &defaultFormatService{
			config: deps.Config,
			stdout: deps.Stdout,
			stderr: deps.Stderr,
			logger: deps.Logger,
		}
	}
	if deps.Build == nil {
		deps.Build = &defaultBuildService{
			config: deps.Config,
			stdout: deps.Stdout,
			stderr: deps.Stderr,
		}
	}
	if deps.Suites == nil {
		deps.Suites = &defaultSuiteService{
			config: deps.Config,
			stdout: deps.Stdout,
			stderr: deps.Stderr,
		}
	}
	if deps.Coverage == nil {
		deps.Coverage = &defaultCoverageService{
			config: deps.Config,
			stdout: deps.Stdout,
			stderr: deps.Stderr,
			logger: deps.Logger,
		}
	}

	return &App{
		Config:   deps.Config,
		Format:   deps.Format,
		Build:    deps.Build,
		Suites:   deps.Suites,
		Coverage: deps.Coverage,
		stdout:   deps.Stdout,
		stderr:   deps.Stderr,
		logger:   deps.Logger,
	}
}

// Load implements ConfigProvider with the real config loader.
func (defaultConfigProvider) Load(opts config.LoadOptions) (*config.Config, error) {
	return config.Load(opts)
}

// resolveWorkspace loads configuration and determines the repository root.
// The config override wins; otherwise the root is found by walking up from
// the working directory looking for version control metadata.
func resolveWorkspace(provider ConfigProvider) (*config.Config, string, error) {
	cfg, err := provider.Load(config.LoadOptions{ConfigFilePath: cfgFile})
	if err != nil {
		return nil, "", err
	}

	root := cfg.RepoRoot
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, "", err
		}
		root = vcs.FindRepoRoot(cwd)
	}
	return cfg, root, nil
}

// joinUnderRoot anchors a configured path at the repository root unless the
// user already made it absolute.
func joinUnderRoot(root, dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(root, dir)
}

// Dispatch resolves the change set, resolves a container runtime, and hands
// both to the format dispatcher.
func (s *defaultFormatService) Dispatch(ctx context.Context, req FormatRequest) (format.Outcome, error) {
	cfg, root, err := resolveWorkspace(s.config)
	if err != nil {
		return format.OutcomeDirectFallback, err
	}

	resolver := vcs.NewResolver(root, vcs.WithLogger(s.logger))
	files, err := resolver.Resolve(ctx, req.Paths)
	if err != nil {
		return format.OutcomeDirectFallback, err
	}

	runtime := container.ResolveRuntime(ctx, container.ResolveOptions{
		AllowElevation: !req.NoRoot,
		Logger:         s.logger,
	})

	dispatcher := format.NewDispatcher(format.Dispatcher{
		RepoRoot:   root,
		Runtime:    runtime,
		Guard:      imagecache.NewGuard(root, cfg.Formatter.SentinelFile),
		Image:      cfg.Formatter.Image,
		ContextDir: cfg.Formatter.ContextDir,
		MountPath:  cfg.Formatter.MountPath,
		Stdout:     s.stdout,
		Stderr:     s.stderr,
		Logger:     s.logger,
	})
	return dispatcher.Dispatch(ctx, files)
}

// Run passes args through to the build script.
func (s *defaultBuildService) Run(ctx context.Context, args []string) (types.ExitCode, error) {
	_, root, err := resolveWorkspace(s.config)
	if err != nil {
		return 1, err
	}
	return build.NewRunner(root, s.stdout, s.stderr).Run(ctx, args)
}

// Run invokes the harness for one suite.
func (s *defaultSuiteService) Run(ctx context.Context, st suite.Suite) (types.ExitCode, error) {
	cfg, root, err := resolveWorkspace(s.config)
	if err != nil {
		return 1, err
	}
	testsDir := joinUnderRoot(root, cfg.Tests.Dir)
	return suite.NewRunner(testsDir, s.stdout, s.stderr).Run(ctx, suite.RunSpec{Suite: st})
}

// Run executes the coverage pipeline for module, writing artifacts to outDir.
func (s *defaultCoverageService) Run(ctx context.Context, module coverage.Module, outDir string) (*coverage.Result, error) {
	cfg, root, err := resolveWorkspace(s.config)
	if err != nil {
		return nil, err
	}
	_ = module // ssl_gtests is the only module; validation happened upstream.

	pipeline := coverage.NewPipeline(coverage.Pipeline{
		RepoRoot:   root,
		BinDir:     cfg.Coverage.BinDir,
		Ignorelist: cfg.Coverage.Ignorelist,
		Build:      build.NewRunner(root, s.stdout, s.stderr),
		Suites:     suite.NewRunner(joinUnderRoot(root, cfg.Tests.Dir), s.stdout, s.stderr),
		Stdout:     s.stdout,
		Stderr:     s.stderr,
		Logger:     s.logger,
	})
	return pipeline.Run(ctx, outDir)
}
