// SPDX-License-Identifier: MPL-2.0

package script

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// noBash simulates a host without a POSIX shell, forcing the virtual path.
func noBash(string) (string, error) {
	return "", errors.New("executable file not found in $PATH")
}

func writeScript(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunNativePassesScriptAndArgs(t *testing.T) {
	var cmds []*exec.Cmd
	record := func(ctx context.Context, name string, arg ...string) *exec.Cmd {
		cmd := exec.Command("true")
		cmd.Args = append([]string{name}, arg...)
		cmd.Path = name
		cmds = append(cmds, cmd)
		return cmd
	}

	dir := t.TempDir()
	r := NewRunner(dir, map[string]string{"NSS_TESTS": "ssl"}, nil, nil,
		WithExecCommand(record),
		WithLookPath(func(string) (string, error) { return "/bin/true", nil }),
	)

	code, err := r.Run(context.Background(), "/repo/build.sh", "-c", "-v")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if code != 0 {
		t.Errorf("Run() code = %d, want 0", code)
	}

	if len(cmds) != 1 {
		t.Fatalf("exec invocations = %d, want 1", len(cmds))
	}
	got := strings.Join(cmds[0].Args, " ")
	if !strings.Contains(got, "/repo/build.sh -c -v") {
		t.Errorf("args = %q, want script followed by its flags", got)
	}
	if cmds[0].Dir != dir {
		t.Errorf("dir = %q, want %q", cmds[0].Dir, dir)
	}

	found := false
	for _, kv := range cmds[0].Env {
		if kv == "NSS_TESTS=ssl" {
			found = true
		}
	}
	if !found {
		t.Error("child env missing NSS_TESTS=ssl override")
	}
}

func TestRunVirtualExitCode(t *testing.T) {
	path := writeScript(t, "fail.sh", "#!/bin/bash\nexit 7\n")

	r := NewRunner(filepath.Dir(path), nil, nil, nil, WithLookPath(noBash))

	code, err := r.Run(context.Background(), path)
	if err != nil {
		t.Fatalf("Run() error = %v, want nil for plain non-zero exit", err)
	}
	if code != 7 {
		t.Errorf("Run() code = %d, want 7", code)
	}
}

func TestRunVirtualArgs(t *testing.T) {
	path := writeScript(t, "args.sh", "#!/bin/bash\nprintf '%s:%s' \"$1\" \"$2\"\n")

	var out bytes.Buffer
	r := NewRunner(filepath.Dir(path), nil, &out, nil, WithLookPath(noBash))

	code, err := r.Run(context.Background(), path, "-c", "--asan")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if code != 0 {
		t.Errorf("Run() code = %d, want 0", code)
	}
	if out.String() != "-c:--asan" {
		t.Errorf("output = %q, want flag-like args passed positionally", out.String())
	}
}

func TestRunVirtualEnvOverride(t *testing.T) {
	path := writeScript(t, "env.sh", "#!/bin/bash\nprintf '%s' \"$NSS_TESTS\"\n")

	var out bytes.Buffer
	r := NewRunner(filepath.Dir(path), map[string]string{"NSS_TESTS": "ssl_gtests"}, &out, nil,
		WithLookPath(noBash))

	if _, err := r.Run(context.Background(), path); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.String() != "ssl_gtests" {
		t.Errorf("output = %q, want env override visible to the script", out.String())
	}
}

func TestRunVirtualMissingScript(t *testing.T) {
	r := NewRunner(t.TempDir(), nil, nil, nil, WithLookPath(noBash))

	code, err := r.Run(context.Background(), filepath.Join(t.TempDir(), "nope.sh"))
	if err == nil {
		t.Fatal("Run() error = nil, want error for missing script")
	}
	if code != 1 {
		t.Errorf("Run() code = %d, want 1", code)
	}
}

func TestEnvironOverridesSorted(t *testing.T) {
	r := NewRunner("", map[string]string{
		"Z_LAST":  "z",
		"A_FIRST": "a",
		"M_MID":   "m",
	}, nil, nil)

	env := r.environ()

	// Overrides are appended after the inherited environment, in key order.
	tail := env[len(env)-3:]
	want := []string{"A_FIRST=a", "M_MID=m", "Z_LAST=z"}
	for i := range want {
		if tail[i] != want[i] {
			t.Errorf("environ() tail[%d] = %q, want %q", i, tail[i], want[i])
		}
	}
}
