//go:build !windows

package cmd

import "os/exec"

func hideWindow(*exec.Cmd) {}
