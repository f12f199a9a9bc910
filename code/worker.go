package code

import (
	"bufio"
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

//go:embed worker.py
var workerScript string

// process is the interface the executor needs from an interpreter. It is
// satisfied by *pyWorker in production and by fakes in tests.
type process interface {
	Exec(ctx context.Context, code string) (*workerReply, error)
	Reset(ctx context.Context) error
	Kill()
	Close() error
}

type workerRequest struct {
	ID   int    `json:"id"`
	Op   string `json:"op"`
	Code string `json:"code,omitempty"`
}

type workerReply struct {
	ID        int    `json:"id"`
	OK        bool   `json:"ok"`
	Stdout    string `json:"stdout"`
	Stderr    string `json:"stderr"`
	Error     string `json:"error"`
	Traceback string `json:"traceback"`
	Summary   string `json:"summary"`
	VarCount  int    `json:"var_count"`
}

type workerConfig struct {
	AllowedRoots  []string `json:"allowed_roots"`
	DeniedRoots   []string `json:"denied_roots"`
	SummaryBudget int      `json:"summary_budget"`
}

// pyWorker owns one python subprocess speaking newline-delimited JSON. The
// process runs in its own process group so a kill also reaps anything the
// user code managed to start.
type pyWorker struct {
	cmd      *exec.Cmd
	stdin    io.WriteCloser
	lines    *bufio.Scanner
	stderr   bytes.Buffer
	waitDone chan struct{}
	killOnce sync.Once

	mu       sync.Mutex
	nextID   int
	varCount int
}

// startWorker launches the interpreter and confirms the protocol with a ping.
func startWorker(ctx context.Context, pythonBin string, cfg workerConfig) (*pyWorker, error) {
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("code: marshal worker config: %w", err)
	}

	cmd := exec.Command(pythonBin, "-u", "-c", workerScript, string(cfgJSON))
	cmd.Env = append(os.Environ(), "MPLBACKEND=Agg", "PYTHONIOENCODING=utf-8")
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("code: open worker stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("code: open worker stdout: %w", err)
	}

	w := &pyWorker{
		cmd:      cmd,
		stdin:    stdin,
		waitDone: make(chan struct{}),
	}
	cmd.Stderr = &w.stderr

	w.lines = bufio.NewScanner(stdout)
	w.lines.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("code: start %s: %w", pythonBin, err)
	}
	go func() {
		cmd.Wait() //nolint:errcheck
		close(w.waitDone)
	}()

	if _, err := w.roundTrip(ctx, workerRequest{Op: "ping"}); err != nil {
		w.Kill()
		return nil, fmt.Errorf("code: worker did not answer ping (stderr: %s): %w", w.stderrTail(), err)
	}
	return w, nil
}

func (w *pyWorker) Exec(ctx context.Context, code string) (*workerReply, error) {
	return w.roundTrip(ctx, workerRequest{Op: "exec", Code: code})
}

func (w *pyWorker) Reset(ctx context.Context) error {
	_, err := w.roundTrip(ctx, workerRequest{Op: "reset"})
	return err
}

// roundTrip sends one request and waits for its reply or context expiry. Any
// error leaves the protocol stream in an unknown state, so callers must
// retire the worker afterwards.
func (w *pyWorker) roundTrip(ctx context.Context, req workerRequest) (*workerReply, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.nextID++
	req.ID = w.nextID

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	if _, err := w.stdin.Write(append(payload, '\n')); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWorkerCrashed, err)
	}

	type scanResult struct {
		reply *workerReply
		err   error
	}
	ch := make(chan scanResult, 1)
	go func() {
		if !w.lines.Scan() {
			err := w.lines.Err()
			if err == nil {
				err = io.EOF
			}
			ch <- scanResult{err: fmt.Errorf("%w: %v", ErrWorkerCrashed, err)}
			return
		}
		var reply workerReply
		if err := json.Unmarshal(w.lines.Bytes(), &reply); err != nil {
			ch <- scanResult{err: fmt.Errorf("%w: bad reply: %v", ErrWorkerCrashed, err)}
			return
		}
		ch <- scanResult{reply: &reply}
	}()

	select {
	case res := <-ch:
		if res.reply != nil {
			w.varCount = res.reply.VarCount
		}
		return res.reply, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// VariableCount reports the namespace size as of the last completed call.
func (w *pyWorker) VariableCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.varCount
}

// Kill terminates the whole process group immediately.
func (w *pyWorker) Kill() {
	w.killOnce.Do(func() {
		if w.cmd.Process != nil {
			syscall.Kill(-w.cmd.Process.Pid, syscall.SIGKILL) //nolint:errcheck
		}
	})
}

// Close asks the worker to exit and kills it if it lingers past a short
// grace period. It satisfies namespace.Handle.
func (w *pyWorker) Close() error {
	payload, _ := json.Marshal(workerRequest{Op: "exit"})
	w.stdin.Write(append(payload, '\n')) //nolint:errcheck
	w.stdin.Close()                      //nolint:errcheck

	select {
	case <-w.waitDone:
	case <-time.After(2 * time.Second):
		w.Kill()
		<-w.waitDone
	}
	return nil
}

func (w *pyWorker) stderrTail() string {
	const tail = 512
	s := w.stderr.String()
	if len(s) > tail {
		s = s[len(s)-tail:]
	}
	return s
}
