// SPDX-License-Identifier: MPL-2.0

package config

type (
	// Config holds all user-tunable settings. Every field has a working
	// default; a config file only needs to mention what it overrides.
	Config struct {
		// RepoRoot overrides repository root auto-detection.
		RepoRoot string `mapstructure:"repo_root"`

		Formatter FormatterConfig `mapstructure:"formatter"`
		Tests     TestsConfig     `mapstructure:"tests"`
		Coverage  CoverageConfig  `mapstructure:"coverage"`

		UI UIConfig `mapstructure:"ui"`
	}

	// FormatterConfig configures the containerized clang-format dispatcher.
	FormatterConfig struct {
		// Image is the tag of the formatter container image.
		Image string `mapstructure:"image"`
		// ContextDir is the image build context, relative to the repo root.
		ContextDir string `mapstructure:"context_dir"`
		// MountPath is where the repository is mounted inside the container.
		MountPath string `mapstructure:"mount_path"`
		// SentinelFile is the name of the image-hash sentinel at the repo root.
		SentinelFile string `mapstructure:"sentinel_file"`
	}

	// TestsConfig configures the external test harness.
	TestsConfig struct {
		// Dir is the harness directory, relative to the repo root.
		Dir string `mapstructure:"dir"`
	}

	// CoverageConfig configures the coverage pipeline.
	CoverageConfig struct {
		// BinDir is where built test binaries land, relative to the repo root.
		BinDir string `mapstructure:"bin_dir"`
		// Ignorelist is the symbolizer ignorelist, relative to the repo root.
		Ignorelist string `mapstructure:"ignorelist"`
	}

	// UIConfig holds presentation settings.
	UIConfig struct {
		Verbose bool `mapstructure:"verbose"`
	}
)

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Formatter: FormatterConfig{
			Image:        "nss-clang-format",
			ContextDir:   "automation/clang-format",
			MountPath:    "/home/worker/nss",
			SentinelFile: ".formatter-image.hash",
		},
		Tests: TestsConfig{
			Dir: "tests",
		},
		Coverage: CoverageConfig{
			BinDir:     "dist/Debug/bin",
			Ignorelist: "fuzz/options/coverage.ignorelist",
		},
	}
}
