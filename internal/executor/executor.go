// Package executor runs block commands and turns their output into block
// attributes.
package executor

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/LISSConsulting/LISSTech.Blocks/internal/attrs"
	"github.com/LISSConsulting/LISSTech.Blocks/internal/block"
	"github.com/LISSConsulting/LISSTech.Blocks/internal/i3bar"
)

// ExitUrgent is the exit code a command uses to mark its block urgent.
const ExitUrgent = 33

// maxOutput bounds what is read from a one-shot command.
const maxOutput = 64 << 10

var envNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Result is the outcome of one command run, or of one output line of a
// persistent command.
type Result struct {
	Block    *block.Block
	Output   *attrs.Set // nil when the command failed
	ExitCode int
	Err      error
	Done     bool // a persistent command exited
}

// Executor starts block commands and reports their results on a channel.
// Run and Click must be called from the goroutine that owns the blocks.
type Executor struct {
	ctx context.Context
	dir string
	log *logrus.Logger

	results chan Result
	done    chan struct{}
	stop    sync.Once
	wg      sync.WaitGroup

	mu    sync.Mutex
	procs map[*block.Block]*process
}

// process is a running command. label and format are captured when it
// starts: the block itself belongs to the caller's goroutine.
type process struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser // persistent commands only
	label  string
	format string
}

// New creates an executor running commands from dir.
func New(ctx context.Context, dir string, log *logrus.Logger) *Executor {
	return &Executor{
		ctx:     ctx,
		dir:     dir,
		log:     log,
		results: make(chan Result, 16),
		done:    make(chan struct{}),
		procs:   make(map[*block.Block]*process),
	}
}

// Results delivers command outcomes.
func (e *Executor) Results() <-chan Result {
	return e.results
}

// Running reports whether b has a command in flight.
func (e *Executor) Running(b *block.Block) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.procs[b]
	return ok
}

// Run starts the command of b. Blocks without a command and blocks whose
// command is still running are left alone.
func (e *Executor) Run(b *block.Block) error {
	if b.Command() == "" {
		return nil
	}
	if e.Running(b) {
		e.log.Debugf("%s: still running, skipped", b)
		return nil
	}

	select {
	case <-e.done:
		return errors.New("executor: stopped")
	default:
	}

	cmd := exec.Command("sh", "-c", b.Command())
	cmd.Dir = e.dir
	cmd.Env = append(os.Environ(), Env(b.Attrs())...)
	setProcessGroup(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errors.Wrapf(err, "executor: %s stdout", b)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	persistent := b.Interval() == block.IntervalPersist
	p := &process{cmd: cmd, label: b.String(), format: b.Format()}
	if persistent {
		if p.stdin, err = cmd.StdinPipe(); err != nil {
			return errors.Wrapf(err, "executor: %s stdin", b)
		}
	}

	if err := cmd.Start(); err != nil {
		return errors.Wrapf(err, "executor: start %s", b)
	}
	e.log.Debugf("%s: started pid %d", b, cmd.Process.Pid)

	e.mu.Lock()
	e.procs[b] = p
	e.mu.Unlock()

	e.wg.Add(1)
	if persistent {
		go e.watch(b, p, stdout, &stderr)
	} else {
		go e.once(b, p, stdout, &stderr)
	}
	return nil
}

// once collects the whole output of a command and reports one result.
func (e *Executor) once(b *block.Block, p *process, stdout io.Reader, stderr *bytes.Buffer) {
	defer e.wg.Done()

	out, readErr := io.ReadAll(io.LimitReader(stdout, maxOutput))
	_, _ = io.Copy(io.Discard, stdout)
	code, waitErr := e.wait(b, p)

	r := Result{Block: b, ExitCode: code}
	switch {
	case readErr != nil:
		r.Err = errors.Wrapf(readErr, "%s: read output", p.label)
	case waitErr != nil:
		r.Err = waitErr
	case code != 0 && code != ExitUrgent:
		r.Err = exitError(p.label, code, stderr)
	default:
		r.Output, r.Err = e.parse(p, out)
		if r.Err != nil {
			r.Err = errors.Wrapf(r.Err, "%s: bad output", p.label)
		} else if code == ExitUrgent {
			r.Output.Set("urgent", "true")
		}
	}
	e.send(r)
}

// watch reports one result per output line of a persistent command, then a
// final Done result when it exits.
func (e *Executor) watch(b *block.Block, p *process, stdout io.Reader, stderr *bytes.Buffer) {
	defer e.wg.Done()

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 4096), maxOutput)
	for scanner.Scan() {
		out, err := e.parse(p, scanner.Bytes())
		r := Result{Block: b, Output: out}
		if err != nil {
			r.Output, r.Err = nil, errors.Wrapf(err, "%s: bad output", p.label)
		}
		e.send(r)
	}
	if err := scanner.Err(); err != nil {
		e.log.WithError(err).Warnf("%s: read output", p.label)
		_, _ = io.Copy(io.Discard, stdout)
	}

	code, err := e.wait(b, p)
	r := Result{Block: b, ExitCode: code, Done: true, Err: err}
	if err == nil && code != 0 {
		r.Err = exitError(p.label, code, stderr)
	}
	e.send(r)
}

// wait reaps the process and forgets it. Exit statuses are not errors;
// only failures to wait are. b is only used as a map key.
func (e *Executor) wait(b *block.Block, p *process) (int, error) {
	err := p.cmd.Wait()

	e.mu.Lock()
	delete(e.procs, b)
	e.mu.Unlock()

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		e.log.Debugf("%s: exited with %d", p.label, code)
		return code, nil
	}
	if err != nil {
		return -1, errors.Wrapf(err, "%s: wait", p.label)
	}
	e.log.Debugf("%s: exited", p.label)
	return 0, nil
}

func (e *Executor) send(r Result) {
	select {
	case e.results <- r:
	case <-e.done:
	case <-e.ctx.Done():
	}
}

// Click delivers a click to b. A running persistent command receives the
// block attributes as one JSON line on its stdin; any other command is run
// again with the click attributes in its environment.
func (e *Executor) Click(b *block.Block) error {
	e.mu.Lock()
	p, ok := e.procs[b]
	e.mu.Unlock()

	if ok && p.stdin != nil {
		line, err := MarshalLine(b.Attrs())
		if err != nil {
			return errors.Wrapf(err, "executor: encode click for %s", b)
		}
		if _, err := p.stdin.Write(line); err != nil {
			return errors.Wrapf(err, "executor: write click to %s", b)
		}
		return nil
	}
	return e.Run(b)
}

// Stop terminates every running command and waits for them to be reaped.
func (e *Executor) Stop() {
	e.stop.Do(func() { close(e.done) })

	e.mu.Lock()
	for _, p := range e.procs {
		if p.stdin != nil {
			_ = p.stdin.Close()
		}
		if err := terminate(p.cmd); err != nil {
			e.log.WithError(err).Debugf("%s: terminate", p.label)
		}
	}
	e.mu.Unlock()

	e.wg.Wait()
}

// Env returns the attributes of set usable as environment variables, in
// KEY=value form.
func Env(set *attrs.Set) []string {
	var env []string
	_ = set.Each(func(a attrs.Attr) error {
		if envNameRe.MatchString(a.Key) {
			env = append(env, a.Key+"="+a.Value)
		}
		return nil
	})
	return env
}

// MarshalLine encodes set as one JSON object followed by a newline. Known
// string keys are always strings; other values that are valid JSON are kept
// as is and anything else becomes a string.
func MarshalLine(set *attrs.Set) ([]byte, error) {
	line := []byte{'{'}
	first := true
	err := set.Each(func(a attrs.Attr) error {
		if !first {
			line = append(line, ',')
		}
		first = false
		line = i3bar.AppendString(line, a.Key)
		line = append(line, ':')
		k, ok := i3bar.KeyAt(i3bar.IndexOf(a.Key))
		if !ok {
			k = i3bar.Key{Name: a.Key}
		}
		var err error
		line, err = i3bar.AppendValue(line, k, a)
		return err
	})
	if err != nil {
		return nil, err
	}
	return append(line, '}', '\n'), nil
}

func (e *Executor) parse(p *process, out []byte) (*attrs.Set, error) {
	set := attrs.New()
	if p.format == block.FormatJSON {
		out = bytes.TrimSpace(out)
		if len(out) == 0 {
			return set, nil
		}
		return set, i3bar.DecodeObject(out, set)
	}
	n, err := i3bar.ReadLines(bytes.NewReader(out), -1, set)
	if extra := n - len(i3bar.Keys()); extra > 0 {
		e.log.Debugf("%s: ignored %d extra output lines", p.label, extra)
	}
	return set, err
}

func exitError(label string, code int, stderr *bytes.Buffer) error {
	msg := strings.TrimSpace(stderr.String())
	if msg == "" {
		return errors.Errorf("%s: command exited with %d", label, code)
	}
	return errors.Errorf("%s: command exited with %d: %s", label, code, i3bar.Truncate(msg, 512))
}
