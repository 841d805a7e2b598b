package cmd

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
	"strings"
	"testing"
	"time"
)

func echoCommand() (string, []string) {
	if runtime.GOOS == "windows" {
		return "cmd", []string{"/C", "echo", "hello"}
	}
	return "echo", []string{"hello"}
}

func TestOutput(t *testing.T) {
	name, args := echoCommand()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available: %v", name, err)
	}

	out, err := Output(context.Background(), name, args...)
	if err != nil {
		t.Fatalf("Output returned error: %v", err)
	}
	if !strings.Contains(string(out), "hello") {
		t.Errorf("expected output to contain %q, got %q", "hello", string(out))
	}
}

func TestOutputMissingBinary(t *testing.T) {
	_, err := Output(context.Background(), "definitely-not-a-real-binary-pcmanager")
	if err == nil {
		t.Fatal("expected an error for a missing binary")
	}
}

func TestOutputCancelled(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("sleep binary not available on Windows")
	}
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := Output(ctx, "sleep", "5")
	if err == nil {
		t.Fatal("expected an error when the context expires")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
}

func TestHiddenSetsArgs(t *testing.T) {
	c := Hidden("powercfg", "/list")
	if len(c.Args) != 2 || c.Args[1] != "/list" {
		t.Errorf("unexpected args: %v", c.Args)
	}
}
