package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	ErrEngineClosed = errors.New("engine process has exited")
	ErrNoScore      = errors.New("engine returned no score")
)

// stopGrace bounds how long we wait for "bestmove" after sending "stop"
const stopGrace = 2 * time.Second

// Options configures one engine process
type Options struct {
	Path    string
	Args    []string
	Depth   int
	HashMB  int
	Threads int
}

// Analysis is the last reported search result for a position
type Analysis struct {
	Depth    int      `json:"depth"`
	Score    Score    `json:"score"`
	Nodes    int64    `json:"nodes"`
	PV       []string `json:"pv,omitempty"`
	BestMove string   `json:"bestmove"`
}

// Engine wraps a UCI chess engine subprocess. It runs one search at a time.
type Engine struct {
	opts  Options
	cmd   *exec.Cmd
	stdin *bufio.Writer
	lines chan string

	mu     sync.Mutex
	broken bool
}

// Start launches the engine and completes the UCI handshake
func Start(ctx context.Context, opts Options) (*Engine, error) {
	if opts.Depth <= 0 {
		opts.Depth = 18
	}

	cmd := exec.Command(opts.Path, opts.Args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start engine %s: %w", opts.Path, err)
	}

	e := &Engine{
		opts:  opts,
		cmd:   cmd,
		stdin: bufio.NewWriter(stdin),
		lines: make(chan string, 64),
	}
	go e.readLoop(stdout)

	if err := e.handshake(ctx); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

func (e *Engine) readLoop(r io.Reader) {
	defer close(e.lines)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		e.lines <- scanner.Text()
	}
}

func (e *Engine) handshake(ctx context.Context) error {
	if err := e.send("uci"); err != nil {
		return err
	}
	if _, err := e.waitFor(ctx, "uciok"); err != nil {
		return fmt.Errorf("uci handshake: %w", err)
	}
	if e.opts.HashMB > 0 {
		if err := e.send(fmt.Sprintf("setoption name Hash value %d", e.opts.HashMB)); err != nil {
			return err
		}
	}
	if e.opts.Threads > 0 {
		if err := e.send(fmt.Sprintf("setoption name Threads value %d", e.opts.Threads)); err != nil {
			return err
		}
	}
	return e.ready(ctx)
}

func (e *Engine) ready(ctx context.Context) error {
	if err := e.send("isready"); err != nil {
		return err
	}
	if _, err := e.waitFor(ctx, "readyok"); err != nil {
		return fmt.Errorf("isready: %w", err)
	}
	return nil
}

func (e *Engine) send(cmd string) error {
	if _, err := e.stdin.WriteString(cmd + "\n"); err != nil {
		return fmt.Errorf("%w: %v", ErrEngineClosed, err)
	}
	if err := e.stdin.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ErrEngineClosed, err)
	}
	return nil
}

// waitFor reads lines until one starts with prefix
func (e *Engine) waitFor(ctx context.Context, prefix string) (string, error) {
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case line, ok := <-e.lines:
			if !ok {
				return "", ErrEngineClosed
			}
			if strings.HasPrefix(line, prefix) {
				return line, nil
			}
		}
	}
}

// Analyse searches fen to the configured depth. With searchMoves the search
// is restricted to those root moves. On cancellation the search is stopped
// and the engine is left ready for the next call.
func (e *Engine) Analyse(ctx context.Context, fen string, searchMoves ...string) (*Analysis, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.broken {
		return nil, ErrEngineClosed
	}

	goCmd := "go depth " + strconv.Itoa(e.opts.Depth)
	if len(searchMoves) > 0 {
		goCmd += " searchmoves " + strings.Join(searchMoves, " ")
	}
	if err := e.send("position fen " + fen); err != nil {
		e.broken = true
		return nil, err
	}
	if err := e.send(goCmd); err != nil {
		e.broken = true
		return nil, err
	}

	res := &Analysis{}
	for {
		select {
		case <-ctx.Done():
			e.stop()
			return nil, ctx.Err()
		case line, ok := <-e.lines:
			if !ok {
				e.broken = true
				return nil, ErrEngineClosed
			}
			if ParseLine(line, res) {
				if !res.Score.Valid() {
					return res, ErrNoScore
				}
				return res, nil
			}
		}
	}
}

// stop interrupts the running search and drains its output
func (e *Engine) stop() {
	if err := e.send("stop"); err != nil {
		e.broken = true
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), stopGrace)
	defer cancel()
	if _, err := e.waitFor(ctx, "bestmove"); err != nil {
		e.broken = true
	}
}

// Broken reports whether the engine can no longer be used
func (e *Engine) Broken() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.broken
}

// Close asks the engine to quit and waits for the process
func (e *Engine) Close() {
	go func() {
		for range e.lines {
		}
	}()
	_ = e.send("quit")
	done := make(chan struct{})
	go func() {
		_ = e.cmd.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(stopGrace):
		_ = e.cmd.Process.Kill()
		<-done
	}
}

// ParseLine folds one line of engine output into res. It returns true on
// the terminating "bestmove" line.
func ParseLine(line string, res *Analysis) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}

	switch parts[0] {
	case "bestmove":
		if len(parts) > 1 && parts[1] != "(none)" {
			res.BestMove = parts[1]
		}
		return true
	case "info":
	default:
		return false
	}

	// multipv lines other than the first describe alternative lines
	for i := 1; i+1 < len(parts); i++ {
		if parts[i] == "multipv" && parts[i+1] != "1" {
			return false
		}
	}

	for i := 1; i < len(parts); i++ {
		switch parts[i] {
		case "depth":
			if i+1 < len(parts) {
				if v, err := strconv.Atoi(parts[i+1]); err == nil {
					res.Depth = v
				}
			}
		case "nodes":
			if i+1 < len(parts) {
				if v, err := strconv.ParseInt(parts[i+1], 10, 64); err == nil {
					res.Nodes = v
				}
			}
		case "score":
			if i+2 >= len(parts) {
				continue
			}
			v, err := strconv.Atoi(parts[i+2])
			if err != nil {
				continue
			}
			// bounds from an aspiration window are not final scores
			if i+3 < len(parts) && (parts[i+3] == "lowerbound" || parts[i+3] == "upperbound") {
				continue
			}
			switch parts[i+1] {
			case "cp":
				res.Score = Score{CP: &v}
			case "mate":
				res.Score = Score{Mate: &v}
			}
		case "pv":
			res.PV = append([]string(nil), parts[i+1:]...)
			return false
		}
	}
	return false
}
