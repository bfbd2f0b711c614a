package cli

import (
	"errors"
	"fmt"
	"testing"
)

// TestConfigError tests the config error message shape.
func TestConfigError(t *testing.T) {
	err := NewConfigError("server.listen_address", "must be host:port")
	want := "config error in server.listen_address: must be host:port"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	err = NewConfigError("", "file not found")
	if err.Error() != "config error: file not found" {
		t.Errorf("Error() = %q", err.Error())
	}
}

// TestCommandError tests wrapping and unwrapping.
func TestCommandError(t *testing.T) {
	cause := errors.New("store unreachable")
	err := NewCommandError("backend set", cause)

	want := "command backend set failed: store unreachable"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is() did not find the wrapped cause")
	}

	wrapped := fmt.Errorf("outer: %w", err)
	var cmdErr *CommandError
	if !errors.As(wrapped, &cmdErr) {
		t.Error("errors.As() did not find CommandError in chain")
	}
}
