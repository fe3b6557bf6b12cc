// Package notify delivers phase notifications and feedback cues. Delivery
// problems are reported to the caller, which logs them; they never reach the
// timer state.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// Permission is the notification state shown in the status bar.
type Permission string

const (
	PermissionGranted     Permission = "granted"
	PermissionDenied      Permission = "denied"
	PermissionUnsupported Permission = "unsupported"
)

type Notifier interface {
	Notify(ctx context.Context, title, body string) (Permission, error)
}

// Desktop shows notifications through notify-send, or osascript on macOS.
type Desktop struct {
	timeout  time.Duration
	goos     string
	lookPath func(file string) (string, error)
	run      func(ctx context.Context, name string, args ...string) error
}

func NewDesktop(timeout time.Duration) *Desktop {
	return &Desktop{
		timeout:  timeout,
		goos:     runtime.GOOS,
		lookPath: exec.LookPath,
		run:      runCommand,
	}
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("%s timed out", name)
		}
		return fmt.Errorf("%s: %w, stderr: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func (d *Desktop) command(title, body string) (string, []string) {
	if d.goos == "darwin" {
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeString(body), escapeString(title))
		return "osascript", []string{"-e", script}
	}
	return "notify-send", []string{"--app-name=pomolog", title, body}
}

func (d *Desktop) Notify(ctx context.Context, title, body string) (Permission, error) {
	name, args := d.command(title, body)
	if _, err := d.lookPath(name); err != nil {
		return PermissionUnsupported, nil
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	if err := d.run(ctx, name, args...); err != nil {
		return PermissionDenied, fmt.Errorf("deliver notification: %w", err)
	}
	return PermissionGranted, nil
}

// escapeString escapes a string for an AppleScript literal.
func escapeString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}

// Bell rings the terminal bell instead of showing a notification.
type Bell struct {
	W io.Writer
}

func (b Bell) Notify(_ context.Context, _, _ string) (Permission, error) {
	if _, err := io.WriteString(b.W, "\a"); err != nil {
		return PermissionDenied, err
	}
	return PermissionGranted, nil
}

// Fallback tries each notifier in order until one delivers.
type Fallback []Notifier

func (f Fallback) Notify(ctx context.Context, title, body string) (Permission, error) {
	perm := PermissionUnsupported
	var firstErr error
	for _, n := range f {
		p, err := n.Notify(ctx, title, body)
		if err == nil && p == PermissionGranted {
			return p, nil
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
		if p == PermissionDenied {
			perm = p
		}
	}
	return perm, firstErr
}

// Disabled is used when notifications are turned off in the config.
type Disabled struct{}

func (Disabled) Notify(context.Context, string, string) (Permission, error) {
	return PermissionDenied, nil
}

// Cue is the fire-and-forget feedback signal for user actions.
type Cue struct {
	W       io.Writer
	Enabled bool
}

func (c Cue) Fire() {
	if !c.Enabled || c.W == nil {
		return
	}
	_, _ = io.WriteString(c.W, "\a")
}
