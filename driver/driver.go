// The parallel driver (C5): runs the scan engine inline for a single root, or spawns one worker
// process per root -- bounded to a fixed concurrency cap, polled the way sonard polls its own
// sleep/wake loop -- for the multi-root case, then aggregates the workers' IPC payloads into the
// master's store.

package driver

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"framecache/errs"
	"framecache/process"
	"framecache/scan"
	"framecache/store"
)

// pollInterval is the master's worker-pool polling cadence.
const pollInterval = 125 * time.Millisecond

// Options configures a driver run.
type Options struct {
	ProgramPath string // re-invoked for each worker with arguments "-i <ipc> <namespace> <root>"
	Namespace   string
	ScratchDir  string
	Concurrency int
	ErrLog      func(error)
}

// Run scans every root and merges the result into s.  A single root is scanned inline; two or
// more spawn the bounded worker pool.
func Run(opts Options, roots []string, s *store.Store) error {
	if opts.ErrLog == nil {
		opts.ErrLog = func(error) {}
	}
	if len(roots) == 1 {
		return runInline(roots[0], s, opts.ErrLog)
	}
	return runParallel(opts, roots, s)
}

func runInline(root string, s *store.Store, errLog func(error)) error {
	res := scan.Scan(scan.OSFS{}, root, s.Namespace.Hot, errLog)
	return applyResult(s, res)
}

func applyResult(s *store.Store, res *scan.Result) error {
	for dir, frag := range res.Fragments {
		if err := s.Keyed.Set(dir, frag); err != nil {
			return err
		}
	}
	for dir, mtime := range res.Hot {
		s.MarkHot(dir, mtime)
	}
	return nil
}

type worker struct {
	root      string
	ipc       string
	cmd       *os.Process
	wait      func() (string, error) // blocking Wait, returns captured stderr and exit error
	done      bool
	err       error
	stderrOut string
	resultCh  chan waitResult
}

// runParallel spawns one worker per root, at most opts.Concurrency alive at once, aggregating
// their IPC payloads once every worker has exited cleanly.  If any worker fails, still-running
// workers are killed, the scratch directory is removed, and no partial result is merged.
func runParallel(opts Options, roots []string, s *store.Store) error {
	if err := os.MkdirAll(opts.ScratchDir, 0755); err != nil {
		return fmt.Errorf("creating scratch dir %s: %w", opts.ScratchDir, err)
	}
	defer os.RemoveAll(opts.ScratchDir)

	workers := make([]*worker, len(roots))
	for i, root := range roots {
		workers[i] = &worker{root: root, ipc: filepath.Join(opts.ScratchDir, fmt.Sprintf("w%d.json", i))}
	}

	launched := 0
	liveCount := 0
	for launched < len(workers) || liveCount > 0 {
		for launched < len(workers) && liveCount < opts.Concurrency {
			w := workers[launched]
			cmd, stderrBuf, err := process.Start(opts.ProgramPath, []string{
				"-i", w.ipc, opts.Namespace, w.root,
			})
			if err != nil {
				killAll(workers)
				return &errs.WorkerFailure{Root: w.root, Err: err}
			}
			c := cmd
			w.cmd = c.Process
			w.wait = func() (string, error) {
				err := c.Wait()
				return stderrBuf.String(), err
			}
			launched++
			liveCount++
		}

		anyRunning := false
		for _, w := range workers {
			if w.cmd == nil || w.done {
				continue
			}
			exited, stderrOut, err := tryWait(w)
			if !exited {
				anyRunning = true
				continue
			}
			w.done = true
			w.err = err
			w.stderrOut = stderrOut
			liveCount--
			if err != nil {
				killAll(workers)
				return &errs.WorkerFailure{Root: w.root, Stderr: stderrOut, Err: err}
			}
		}
		if anyRunning || launched < len(workers) {
			time.Sleep(pollInterval)
		}
	}

	for _, w := range workers {
		payload, err := ReadPayload(w.ipc)
		if err != nil {
			return fmt.Errorf("reading IPC payload for root %s: %w", w.root, err)
		}
		for dir, frag := range payload.DC {
			if err := s.Keyed.Set(dir, frag); err != nil {
				return err
			}
		}
		for dir, mtime := range payload.Hot {
			s.MarkHot(dir, mtime)
		}
	}
	return nil
}

// tryWait polls a worker's exit status without blocking, using a zero-timeout wait loop driven by
// the caller's own poll cadence: since os/exec has no native nonblocking Wait, the worker's Wait
// call is run once in a background goroutine the first time it's polled, and its result is latched.
func tryWait(w *worker) (exited bool, stderrOut string, err error) {
	if w.resultCh == nil {
		w.resultCh = make(chan waitResult, 1)
		go func(w *worker) {
			out, err := w.wait()
			w.resultCh <- waitResult{out, err}
		}(w)
	}
	select {
	case r := <-w.resultCh:
		return true, r.stderrOut, r.err
	default:
		return false, "", nil
	}
}

type waitResult struct {
	stderrOut string
	err       error
}

func killAll(workers []*worker) {
	for _, w := range workers {
		if w.cmd != nil && !w.done {
			process.KillHard(w.cmd.Pid)
		}
	}
}
