package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	apperrors "github.com/agbru/parreduce/internal/errors"
	"github.com/agbru/parreduce/internal/workload"
)

func newTestREPL(input string) (*REPL, *bytes.Buffer) {
	p := workload.DefaultParams()
	p.Workers = 2
	p.Terms = 1000
	p.Intervals = 1000
	r := NewREPL(workload.Default(), p, REPLConfig{Timeout: time.Minute})
	var out bytes.Buffer
	r.SetInput(strings.NewReader(input))
	r.SetOutput(&out)
	return r, &out
}

func TestREPL_ExitAndEOF(t *testing.T) {
	t.Parallel()
	r, out := newTestREPL("help\nexit\n")
	if code := r.Start(context.Background()); code != 0 {
		t.Errorf("status = %d, want 0", code)
	}
	if !strings.Contains(out.String(), "Goodbye!") {
		t.Errorf("missing goodbye in %q", out.String())
	}

	r, out = newTestREPL("")
	r.Start(context.Background())
	if !strings.Contains(out.String(), "Goodbye!") {
		t.Error("EOF should end the session")
	}
}

func TestREPL_RunWithDefaults(t *testing.T) {
	t.Parallel()
	// workers, policy, terms: keep every default.
	r, out := newTestREPL("run series\n\n\n\nexit\n")
	if code := r.Start(context.Background()); code != apperrors.ExitSuccess {
		t.Fatalf("status = %d, output:\n%s", code, out.String())
	}
	text := out.String()
	for _, want := range []string{"Number of workers [2]", "Number of terms [1000]", "=== series ===", "[MATCH]"} {
		if !strings.Contains(text, want) {
			t.Errorf("output should contain %q, got:\n%s", want, text)
		}
	}
}

func TestREPL_PromptRetriesInvalidValues(t *testing.T) {
	t.Parallel()
	// workers: "x" is rejected, then 3; policy: strided; size: 4.
	r, out := newTestREPL("diagmax\nx\n3\nstrided\n4\nq\n")
	r.Start(context.Background())

	text := out.String()
	if !strings.Contains(text, `Invalid value: "x" is not an integer`) {
		t.Errorf("invalid input should be reported, got:\n%s", text)
	}
	p := r.Params()
	if p.Workers != 3 || p.Policy != "strided" || p.Size != 4 {
		t.Errorf("params = workers %d policy %q size %d", p.Workers, p.Policy, p.Size)
	}
	if !strings.Contains(text, "Policy: strided") {
		t.Errorf("run should use the strided policy, got:\n%s", text)
	}
}

func TestREPL_RectShowsFunctionMenu(t *testing.T) {
	t.Parallel()
	// workers, policy, func=9 (rejected) then 2, a, b, intervals.
	r, out := newTestREPL("run rect\n\n\n9\n2\n0\n3.14159\n\nexit\n")
	r.Start(context.Background())

	text := out.String()
	for _, want := range []string{"1. x*x", "6. 1/(1+x*x)", "menu number must be between 1 and 6", "function: sin(x)"} {
		if !strings.Contains(text, want) {
			t.Errorf("output should contain %q, got:\n%s", want, text)
		}
	}
}

func TestREPL_InvalidLabInputReportsStatus(t *testing.T) {
	t.Parallel()
	// simpson with odd intervals is rejected by the lab.
	r, out := newTestREPL("set intervals 7\nrun simpson\n\n\n\n\n\nexit\n")
	code := r.Start(context.Background())
	if code != apperrors.ExitErrorConfig {
		t.Errorf("status = %d, want %d; output:\n%s", code, apperrors.ExitErrorConfig, out.String())
	}
	if !strings.Contains(out.String(), "intervals = 7") {
		t.Errorf("set should echo the new value, got:\n%s", out.String())
	}
}

func TestREPL_Commands(t *testing.T) {
	t.Parallel()
	r, out := newTestREPL("list\nstatus\nset bogus 1\nset rows x\nset\nfrobnicate\nrun\nrun nope\nexit\n")
	r.Start(context.Background())

	text := out.String()
	for _, want := range []string{
		"Available labs:", "shoelace", "Current parameters:", "colmax: rows=10 cols=10",
		"Unknown parameter: bogus", "Invalid value", "Usage: set <name> <value>",
		"Unknown command: frobnicate", "Usage: run <lab>", "unknown lab",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output should contain %q, got:\n%s", want, text)
		}
	}
}

func TestREPL_InputEndsDuringPrompt(t *testing.T) {
	t.Parallel()
	r, out := newTestREPL("run colmax\n")
	r.Start(context.Background())
	if !strings.Contains(out.String(), "run aborted") {
		t.Errorf("output should report the aborted run, got:\n%s", out.String())
	}
}
