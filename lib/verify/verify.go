package verify

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/codeskyblue/go-sh"
	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"
)

var log = logging.Logger("verify")

const DefaultTimeout = 5 * time.Minute

const killGrace = 2 * time.Second

// Command is a shell command run in the site root after source files were
// patched, usually a type check such as `npx tsc --noEmit`.
type Command struct {
	Run     string
	Dir     string
	Timeout time.Duration
	Env     map[string]string
}

type Result struct {
	Command  string
	Output   string
	Duration time.Duration
}

func (c Command) Enabled() bool {
	return strings.TrimSpace(c.Run) != ""
}

// Exec runs the command through `sh -c`. A non-zero exit is returned as an
// error together with the captured output.
func (c Command) Exec(ctx context.Context) (*Result, error) {
	if !c.Enabled() {
		return nil, xerrors.Errorf("no verify command configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if dl, ok := ctx.Deadline(); ok && time.Until(dl) < timeout {
		timeout = time.Until(dl)
	}

	sess := sh.NewSession()
	sess.ShowCMD = false
	if c.Dir != "" {
		sess.SetDir(c.Dir)
	}
	// go-sh starts from PATH only; node tooling also wants HOME.
	if home := os.Getenv("HOME"); home != "" {
		sess.SetEnv("HOME", home)
	}
	for k, v := range c.Env {
		sess.SetEnv(k, v)
	}

	var out bytes.Buffer
	sess.Stdout = &out
	sess.Stderr = &out
	sess.Command("sh", "-c", c.Run)

	log.Infow("running verify command", "cmd", c.Run, "dir", c.Dir, "timeout", timeout)
	start := time.Now()
	if err := sess.Start(); err != nil {
		return nil, xerrors.Errorf("starting verify command %q: %w", c.Run, err)
	}

	res := &Result{Command: c.Run}
	done := sh.Go(sess.Wait)
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var err error
	select {
	case err = <-done:
		res.Output = out.String()
	case <-timer.C:
		err = xerrors.Errorf("verify command timed out after %s: %w", timeout, sh.ErrExecTimeout)
		res.Output = stop(sess, done, &out)
	case <-ctx.Done():
		err = xerrors.Errorf("verify command %q interrupted: %w", c.Run, ctx.Err())
		res.Output = stop(sess, done, &out)
	}
	res.Duration = time.Since(start)

	if err != nil {
		if errors.Is(err, sh.ErrExecTimeout) || ctx.Err() != nil {
			return res, err
		}
		return res, xerrors.Errorf("verify command %q failed: %w", c.Run, err)
	}
	log.Debugw("verify command passed", "cmd", c.Run, "took", res.Duration)
	return res, nil
}

// stop kills the session and returns what it printed, if it exits within
// the grace period. Output is dropped otherwise since the process may still
// be writing.
func stop(sess *sh.Session, done <-chan error, out *bytes.Buffer) string {
	sess.Kill(syscall.SIGKILL)
	select {
	case <-done:
		return out.String()
	case <-time.After(killGrace):
		log.Warnw("verify command did not exit after kill")
		return ""
	}
}
