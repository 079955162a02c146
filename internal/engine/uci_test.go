package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// TestHelperProcess is not a real test. It stands in for a UCI engine when
// the test binary is re-executed with FAKE_UCI_ENGINE=1.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("FAKE_UCI_ENGINE") != "1" {
		return
	}
	fakeEngine(os.Stdin, os.Stdout)
	os.Exit(0)
}

// fakeEngine scores every move 20cp except a3 (-40cp) and h4 (mated in 2).
// The position "hang" never finishes a search until told to stop.
func fakeEngine(in io.Reader, out io.Writer) {
	scores := map[string]string{"a2a3": "cp -40", "h2h4": "mate -2"}
	scanner := bufio.NewScanner(in)
	var fen string
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "uci":
			fmt.Fprintln(out, "id name fake")
			fmt.Fprintln(out, "uciok")
		case "isready":
			fmt.Fprintln(out, "readyok")
		case "position":
			fen = strings.Join(fields[2:], " ")
		case "go":
			if fen == "hang" {
				continue
			}
			move, score := "e2e4", "cp 20"
			for i, f := range fields {
				if f == "searchmoves" && i+1 < len(fields) {
					move = fields[i+1]
					if s, ok := scores[move]; ok {
						score = s
					}
				}
			}
			fmt.Fprintf(out, "info depth 1 score cp 0 pv %s\n", move)
			fmt.Fprintf(out, "info depth 12 score %s nodes 4000 pv %s e7e5\n", score, move)
			fmt.Fprintf(out, "bestmove %s ponder e7e5\n", move)
		case "stop":
			fmt.Fprintln(out, "bestmove e2e4")
		case "quit":
			return
		}
	}
}

func fakeOptions(t *testing.T) Options {
	t.Helper()
	t.Setenv("FAKE_UCI_ENGINE", "1")
	return Options{
		Path:  os.Args[0],
		Args:  []string{"-test.run=TestHelperProcess"},
		Depth: 12,
	}
}

func startFake(t *testing.T) *Engine {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	e, err := Start(ctx, fakeOptions(t))
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func TestEngineAnalyse(t *testing.T) {
	e := startFake(t)
	ctx := context.Background()

	res, err := e.Analyse(ctx, "startpos-fen")
	if err != nil {
		t.Fatalf("Analyse failed: %v", err)
	}
	if res.BestMove != "e2e4" || res.Depth != 12 || res.Score.Centipawns() != 20 {
		t.Errorf("got %+v", res)
	}
	if len(res.PV) != 2 || res.PV[0] != "e2e4" {
		t.Errorf("pv = %v", res.PV)
	}

	res, err = e.Analyse(ctx, "startpos-fen", "a2a3")
	if err != nil {
		t.Fatalf("restricted Analyse failed: %v", err)
	}
	if res.BestMove != "a2a3" || res.Score.Centipawns() != -40 {
		t.Errorf("restricted search got %+v", res)
	}
}

func TestEngineAnalyseCancelLeavesEngineUsable(t *testing.T) {
	e := startFake(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := e.Analyse(ctx, "hang"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if e.Broken() {
		t.Fatal("engine marked broken after a clean stop")
	}

	if _, err := e.Analyse(context.Background(), "startpos-fen"); err != nil {
		t.Fatalf("Analyse after cancel failed: %v", err)
	}
}

func TestStartMissingBinary(t *testing.T) {
	_, err := Start(context.Background(), Options{Path: "/nonexistent/stockfish"})
	if err == nil {
		t.Fatal("expected error for missing binary")
	}
}

func TestPoolAnalyse(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	p, err := NewPool(ctx, PoolConfig{Options: fakeOptions(t), Workers: 2}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}
	defer p.Close()

	if p.Depth() != 12 {
		t.Errorf("Depth = %d, want 12", p.Depth())
	}

	errs := make(chan error, 6)
	for i := 0; i < 6; i++ {
		go func() {
			_, err := p.Analyse(ctx, "startpos-fen", "h2h4")
			errs <- err
		}()
	}
	for i := 0; i < 6; i++ {
		if err := <-errs; err != nil {
			t.Errorf("Analyse failed: %v", err)
		}
	}
}

func TestPoolAnalyseRespectsContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	p, err := NewPool(ctx, PoolConfig{Options: fakeOptions(t), Workers: 1}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}
	defer p.Close()

	// hold the only engine
	e := <-p.engines
	defer func() { p.engines <- e }()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer waitCancel()
	if _, err := p.Analyse(waitCtx, "startpos-fen"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestNewPoolRequiresPath(t *testing.T) {
	if _, err := NewPool(context.Background(), PoolConfig{}, zerolog.Nop()); err == nil {
		t.Fatal("expected error without engine path")
	}
}
