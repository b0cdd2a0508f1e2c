// Package redeploy runs the administrative redeploy command behind a shared
// secret, one run at a time.
package redeploy

import (
	"bytes"
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/time/rate"
)

var (
	// ErrUnauthorized is returned when the password does not match, or no
	// secret is configured.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInProgress is returned while another redeploy holds the lock.
	ErrInProgress = errors.New("redeploy already in progress")
	// ErrRateLimited is returned when redeploys are triggered too often.
	ErrRateLimited = errors.New("redeploy rate limit exceeded")
)

// Options configures a Trigger.
type Options struct {
	Secret  string
	Command []string
	// LockPath defaults to DefaultLockPath().
	LockPath string
	// PerHour <= 0 disables rate limiting.
	PerHour int
	Logger  *slog.Logger
}

// Trigger starts the redeploy command in the background.
type Trigger struct {
	secret  []byte
	command []string
	lockPath string
	limiter  *rate.Limiter
	logger   *slog.Logger
	running  atomic.Bool
	wg       sync.WaitGroup
}

// New validates opts and returns a Trigger.
func New(opts Options) (*Trigger, error) {
	if len(opts.Command) == 0 || strings.TrimSpace(opts.Command[0]) == "" {
		return nil, fmt.Errorf("redeploy command is not configured")
	}
	lockPath := opts.LockPath
	if lockPath == "" {
		p, err := DefaultLockPath()
		if err != nil {
			return nil, err
		}
		lockPath = p
	} else if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("cannot create lock dir: %w", err)
	}
	limit := rate.Inf
	if opts.PerHour > 0 {
		limit = rate.Every(time.Hour / time.Duration(opts.PerHour))
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Trigger{
		secret:   []byte(opts.Secret),
		command:  append([]string(nil), opts.Command...),
		lockPath: lockPath,
		limiter:  rate.NewLimiter(limit, 1),
		logger:   logger,
	}, nil
}

// Authorized reports whether password matches the configured secret. An
// unset secret authorizes nobody.
func (t *Trigger) Authorized(password string) bool {
	if len(t.secret) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare(t.secret, []byte(password)) == 1
}

// Start checks password, takes the redeploy lock and runs the command in a
// background goroutine. The lock is released when the command exits.
//
// A flock handle that already holds the lock succeeds on TryLock again, so
// runs within this process are guarded separately and every Start opens its
// own handle for the cross-process lock.
func (t *Trigger) Start(password string) error {
	if !t.Authorized(password) {
		return ErrUnauthorized
	}
	if !t.running.CompareAndSwap(false, true) {
		return ErrInProgress
	}
	lock := flock.New(t.lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		t.running.Store(false)
		return fmt.Errorf("cannot acquire redeploy lock: %w", err)
	}
	if !locked {
		t.running.Store(false)
		return ErrInProgress
	}
	if !t.limiter.Allow() {
		_ = lock.Unlock()
		t.running.Store(false)
		return ErrRateLimited
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer t.running.Store(false)
		defer func() { _ = lock.Unlock() }()
		t.run(context.Background())
	}()
	return nil
}

// Wait blocks until every started command has exited.
func (t *Trigger) Wait() { t.wg.Wait() }

func (t *Trigger) run(ctx context.Context) {
	start := time.Now()
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, t.command[0], t.command[1:]...)
	cmd.Stdout = &out
	cmd.Stderr = &out

	t.logger.Info("redeploy started", "command", strings.Join(t.command, " "))
	err := cmd.Run()
	attrs := []any{"elapsed", time.Since(start), "output", tail(out.String(), 2048)}
	if err != nil {
		t.logger.Error("redeploy failed", append(attrs, "error", err)...)
		return
	}
	t.logger.Info("redeploy finished", attrs...)
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// DefaultLockPath determines the per-user lock path used to prevent concurrent redeploys.
func DefaultLockPath() (string, error) {
	if cacheDir, err := os.UserCacheDir(); err == nil && cacheDir != "" {
		dir := filepath.Join(cacheDir, "answerhub")
		if err := os.MkdirAll(dir, 0o755); err == nil {
			return filepath.Join(dir, "redeploy.lock"), nil
		}
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		dir := filepath.Join(home, ".answerhub")
		if err := os.MkdirAll(dir, 0o755); err == nil {
			return filepath.Join(dir, "redeploy.lock"), nil
		}
	}
	return "", fmt.Errorf("cannot determine writable lock directory")
}
