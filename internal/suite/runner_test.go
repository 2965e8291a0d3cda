// SPDX-License-Identifier: MPL-2.0

package suite

import (
	"testing"
)

func TestBuildEnvSelectsSuite(t *testing.T) {
	r := NewRunner(t.TempDir(), nil, nil)

	env := r.buildEnv(RunSpec{Suite: SSL})

	if env["NSS_TESTS"] != "ssl" {
		t.Errorf("NSS_TESTS = %q, want ssl", env["NSS_TESTS"])
	}
	if env["NSS_CYCLES"] != "standard" {
		t.Errorf("NSS_CYCLES = %q, want standard", env["NSS_CYCLES"])
	}
}

func TestBuildEnvDefaultsHostSettings(t *testing.T) {
	t.Setenv("DOMSUF", "")
	t.Setenv("HOST", "")

	r := NewRunner(t.TempDir(), nil, nil)
	env := r.buildEnv(RunSpec{Suite: Cipher})

	if env["DOMSUF"] != "localdomain" {
		t.Errorf("DOMSUF = %q, want localdomain", env["DOMSUF"])
	}
	if env["HOST"] != "localhost" {
		t.Errorf("HOST = %q, want localhost", env["HOST"])
	}
}

func TestBuildEnvRespectsHostSettings(t *testing.T) {
	t.Setenv("DOMSUF", "example.com")
	t.Setenv("HOST", "buildbox")

	r := NewRunner(t.TempDir(), nil, nil)
	env := r.buildEnv(RunSpec{Suite: Cipher})

	if _, ok := env["DOMSUF"]; ok {
		t.Error("DOMSUF overridden despite being set in the environment")
	}
	if _, ok := env["HOST"]; ok {
		t.Error("HOST overridden despite being set in the environment")
	}
}

func TestBuildEnvSpecOverridesWin(t *testing.T) {
	r := NewRunner(t.TempDir(), nil, nil)

	env := r.buildEnv(RunSpec{
		Suite: SSLGtests,
		Env: map[string]string{
			"NSS_CYCLES":   "pkix",
			"ASAN_OPTIONS": "coverage=1",
		},
	})

	if env["NSS_TESTS"] != "ssl_gtests" {
		t.Errorf("NSS_TESTS = %q, want ssl_gtests", env["NSS_TESTS"])
	}
	if env["NSS_CYCLES"] != "pkix" {
		t.Errorf("NSS_CYCLES = %q, want spec override to win", env["NSS_CYCLES"])
	}
	if env["ASAN_OPTIONS"] != "coverage=1" {
		t.Errorf("ASAN_OPTIONS = %q, want coverage=1", env["ASAN_OPTIONS"])
	}
}
