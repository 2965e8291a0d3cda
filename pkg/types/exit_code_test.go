// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		code    ExitCode
		wantErr bool
	}{
		{0, false},
		{1, false},
		{255, false},
		{-1, true},
		{256, true},
	}
	for _, tt := range tests {
		err := tt.code.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("ExitCode(%d).Validate() error = %v, wantErr %v", tt.code, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidExitCode) {
			t.Errorf("Validate() error = %v, want ErrInvalidExitCode in chain", err)
		}
	}
}

func TestIsSuccess(t *testing.T) {
	if !ExitCode(0).IsSuccess() {
		t.Error("ExitCode(0).IsSuccess() = false")
	}
	if ExitCode(1).IsSuccess() {
		t.Error("ExitCode(1).IsSuccess() = true")
	}
}

type exitCoder struct{ code int }

func (e *exitCoder) Error() string { return "exited" }
func (e *exitCoder) ExitCode() int { return e.code }

func TestFromError(t *testing.T) {
	if got := FromError(nil); got != 0 {
		t.Errorf("FromError(nil) = %d, want 0", got)
	}

	wrapped := fmt.Errorf("run failed: %w", &exitCoder{code: 42})
	if got := FromError(wrapped); got != 42 {
		t.Errorf("FromError(wrapped exit coder) = %d, want 42", got)
	}

	if got := FromError(errors.New("no such binary")); got != 1 {
		t.Errorf("FromError(plain error) = %d, want 1", got)
	}
}
