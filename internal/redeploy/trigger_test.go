package redeploy

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"
)

func script(t *testing.T, body string) []string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts")
	}
	p := filepath.Join(t.TempDir(), "redeploy.sh")
	if err := os.WriteFile(p, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return []string{p}
}

func newTrigger(t *testing.T, cmd []string, perHour int) (*Trigger, string) {
	t.Helper()
	lock := filepath.Join(t.TempDir(), "locks", "redeploy.lock")
	tr, err := New(Options{Secret: "s3cret", Command: cmd, LockPath: lock, PerHour: perHour})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tr, lock
}

func TestNew_RequiresCommand(t *testing.T) {
	if _, err := New(Options{Secret: "x"}); err == nil {
		t.Fatalf("expected error for missing command")
	}
}

func TestAuthorized(t *testing.T) {
	tr, _ := newTrigger(t, []string{"true"}, 0)
	if tr.Authorized("wrong") || tr.Authorized("") {
		t.Fatalf("wrong password accepted")
	}
	if !tr.Authorized("s3cret") {
		t.Fatalf("right password rejected")
	}

	open, err := New(Options{Command: []string{"true"}, LockPath: filepath.Join(t.TempDir(), "l")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if open.Authorized("") {
		t.Fatalf("empty secret must not authorize an empty password")
	}
	if err := open.Start(""); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Start err=%v", err)
	}
}

func TestStart_RunsCommandAndReleasesLock(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "ran")
	tr, lockPath := newTrigger(t, script(t, "touch "+marker), 0)

	if err := tr.Start("s3cret"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	tr.Wait()
	if _, err := os.Stat(marker); err != nil {
		t.Fatalf("command did not run: %v", err)
	}

	other := flock.New(lockPath)
	ok, err := other.TryLock()
	if err != nil || !ok {
		t.Fatalf("lock not released: ok=%v err=%v", ok, err)
	}
	_ = other.Unlock()
}

func TestStart_InProgress(t *testing.T) {
	tr, lockPath := newTrigger(t, []string{"true"}, 0)

	holder := flock.New(lockPath)
	ok, err := holder.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock: ok=%v err=%v", ok, err)
	}
	defer holder.Unlock()

	if err := tr.Start("s3cret"); !errors.Is(err, ErrInProgress) {
		t.Fatalf("Start err=%v want ErrInProgress", err)
	}
}

func TestStart_SecondStartWhileRunning(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "runs")
	tr, _ := newTrigger(t, script(t, "echo run >> "+marker+"\nsleep 1"), 0)

	if err := tr.Start("s3cret"); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if err := tr.Start("s3cret"); !errors.Is(err, ErrInProgress) {
		t.Fatalf("second Start err=%v want ErrInProgress", err)
	}
	tr.Wait()

	data, err := os.ReadFile(marker)
	if err != nil {
		t.Fatalf("read marker: %v", err)
	}
	if got := strings.Count(string(data), "run"); got != 1 {
		t.Fatalf("command ran %d times, want 1", got)
	}

	if err := tr.Start("s3cret"); err != nil {
		t.Fatalf("Start after finish: %v", err)
	}
	tr.Wait()
}

func TestStart_RateLimited(t *testing.T) {
	tr, _ := newTrigger(t, []string{"true"}, 1)

	if err := tr.Start("s3cret"); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	tr.Wait()
	if err := tr.Start("s3cret"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("second Start err=%v want ErrRateLimited", err)
	}
}

func TestStart_FailingCommandStillReleases(t *testing.T) {
	tr, _ := newTrigger(t, script(t, "exit 3"), 0)
	for i := 0; i < 2; i++ {
		if err := tr.Start("s3cret"); err != nil {
			t.Fatalf("Start %d: %v", i, err)
		}
		done := make(chan struct{})
		go func() { tr.Wait(); close(done) }()
		select {
		case <-done:
		case <-time.After(10 * time.Second):
			t.Fatalf("command did not finish")
		}
	}
}
