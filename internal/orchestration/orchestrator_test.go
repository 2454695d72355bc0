package orchestration

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	apperrors "github.com/agbru/parreduce/internal/errors"
	"github.com/agbru/parreduce/internal/metrics"
	"github.com/agbru/parreduce/internal/partition"
	"github.com/agbru/parreduce/internal/reduce"
	"github.com/agbru/parreduce/internal/workload"
)

// mockResultPresenter records what AnalyzeResults asked it to present.
type mockResultPresenter struct {
	presented []string
	tables    int
	errors    []string
}

func (m *mockResultPresenter) PresentResult(res LabResult, _ io.Writer) {
	m.presented = append(m.presented, res.Lab)
}

func (m *mockResultPresenter) PresentComparisonTable(_ []LabResult, _ io.Writer) { m.tables++ }

func (m *mockResultPresenter) HandleError(lab string, err error, _ time.Duration, _ io.Writer) int {
	m.errors = append(m.errors, lab)
	return apperrors.ExitCodeFor(err)
}

// mockLab is a workload.Lab whose Run is supplied by the test.
type mockLab struct {
	name    string
	RunFunc func(ctx context.Context, p workload.Params, opts ...reduce.Option) (workload.Outcome, error)
}

func (m *mockLab) Name() string                    { return m.name }
func (m *mockLab) Description() string             { return "mock lab" }
func (m *mockLab) DefaultPolicy() partition.Policy { return partition.Block }

func (m *mockLab) Run(ctx context.Context, p workload.Params, opts ...reduce.Option) (workload.Outcome, error) {
	if m.RunFunc != nil {
		return m.RunFunc(ctx, p, opts...)
	}
	return workload.Outcome{Lab: m.name, Verdict: reduce.VerdictMatch}, nil
}

// sumLab runs a real reduction so the engine options reach the observers.
func sumLab(name string, items int) *mockLab {
	return &mockLab{name: name, RunFunc: func(ctx context.Context, p workload.Params, opts ...reduce.Option) (workload.Outcome, error) {
		red := reduce.Pure(0, func(acc, i int) int { return acc + i }, func(a, b int) int { return a + b })
		res, err := reduce.Parallel(ctx, reduce.Spec{TotalItems: items, Workers: p.Workers}, red, opts...)
		if err != nil {
			return workload.Outcome{}, err
		}
		return workload.Outcome{Lab: name, Items: items, Tasks: res.Tasks, Verdict: reduce.VerdictMatch}, nil
	}}
}

func failingLab(name string, err error) *mockLab {
	return &mockLab{name: name, RunFunc: func(context.Context, workload.Params, ...reduce.Option) (workload.Outcome, error) {
		return workload.Outcome{}, err
	}}
}

func mismatchLab(name string) *mockLab {
	return &mockLab{name: name, RunFunc: func(context.Context, workload.Params, ...reduce.Option) (workload.Outcome, error) {
		return workload.Outcome{Lab: name, Verdict: reduce.VerdictToleranceExceeded, Delta: 1}, nil
	}}
}

func testParams() workload.Params {
	p := workload.DefaultParams()
	p.Workers = 4
	return p
}

func TestExecuteLabs(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		labs        []workload.Lab
		expectError []bool
	}{
		{"Single success", []workload.Lab{sumLab("a", 100)}, []bool{false}},
		{"Single failure", []workload.Lab{failingLab("a", errors.New("mock error"))}, []bool{true}},
		{"Failure does not stop the run", []workload.Lab{failingLab("a", errors.New("mock error")), sumLab("b", 10)}, []bool{true, false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			results := ExecuteLabs(context.Background(), tt.labs, testParams(), Options{}, NullProgressReporter{}, io.Discard)
			if len(results) != len(tt.labs) {
				t.Fatalf("expected %d results, got %d", len(tt.labs), len(results))
			}
			for i, res := range results {
				if (res.Err != nil) != tt.expectError[i] {
					t.Errorf("result %d: err = %v, expectError = %v", i, res.Err, tt.expectError[i])
				}
				if res.Lab != tt.labs[i].Name() {
					t.Errorf("result %d: lab = %q, want %q", i, res.Lab, tt.labs[i].Name())
				}
			}
		})
	}
}

func TestExecuteLabs_CanceledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := ExecuteLabs(ctx, []workload.Lab{sumLab("a", 10), sumLab("b", 10)}, testParams(), Options{}, NullProgressReporter{}, io.Discard)
	for _, res := range results {
		if !errors.Is(res.Err, context.Canceled) {
			t.Errorf("%s: err = %v, want context.Canceled", res.Lab, res.Err)
		}
	}
}

func TestExecuteLabs_ReportsCompletion(t *testing.T) {
	t.Parallel()
	var (
		mu    sync.Mutex
		final = map[int]float64{}
	)
	reporter := ProgressReporterFunc(func(wg *sync.WaitGroup, ch <-chan ProgressUpdate, numLabs int, _ io.Writer) {
		defer wg.Done()
		if numLabs != 2 {
			t.Errorf("numLabs = %d, want 2", numLabs)
		}
		for u := range ch {
			mu.Lock()
			final[u.LabIndex] = max(final[u.LabIndex], u.Value)
			mu.Unlock()
		}
	})

	ExecuteLabs(context.Background(), []workload.Lab{sumLab("a", 1000), failingLab("b", errors.New("x"))}, testParams(), Options{}, reporter, io.Discard)

	mu.Lock()
	defer mu.Unlock()
	for i := range 2 {
		if final[i] != 1 {
			t.Errorf("lab %d final progress = %v, want 1", i, final[i])
		}
	}
}

func TestRunLab_RecordsMetrics(t *testing.T) {
	t.Parallel()
	reg := metrics.New()
	opts := Options{Metrics: reg}

	res := RunLab(context.Background(), 0, sumLab("sum", 100), testParams(), opts, nil)
	if res.Err != nil {
		t.Fatalf("RunLab: %v", res.Err)
	}
	RunLab(context.Background(), 1, failingLab("bad", apperrors.ValidationError{Field: "n", Message: "bad"}), testParams(), opts, nil)

	if err := testutil.GatherAndCompare(reg.Gatherer(), strings.NewReader(`
# HELP parreduce_runs_total Completed lab runs by verdict.
# TYPE parreduce_runs_total counter
parreduce_runs_total{lab="sum",verdict="match"} 1
# HELP parreduce_failures_total Lab runs that returned an error, by kind.
# TYPE parreduce_failures_total counter
parreduce_failures_total{kind="invalid",lab="bad"} 1
# HELP parreduce_partitions_total Partitions folded and merged on the parallel path.
# TYPE parreduce_partitions_total counter
parreduce_partitions_total{lab="sum"} 4
`), "parreduce_runs_total", "parreduce_failures_total", "parreduce_partitions_total"); err != nil {
		t.Error(err)
	}
}

// TestRunLab_RealLabCountsParallelPartitions drives a registered lab through
// RunLab so the counted partitions come from workload.verify, which runs both
// reduction paths.
func TestRunLab_RealLabCountsParallelPartitions(t *testing.T) {
	t.Parallel()
	reg := metrics.New()
	p := testParams()
	p.Terms = 1000
	progress := make(chan ProgressUpdate, 32)

	res := RunLab(context.Background(), 0, workload.Series{}, p, Options{Metrics: reg}, progress)
	close(progress)
	if res.Err != nil {
		t.Fatalf("RunLab: %v", res.Err)
	}
	if res.Outcome.Tasks != 4 {
		t.Fatalf("tasks = %d, want 4", res.Outcome.Tasks)
	}

	if err := testutil.GatherAndCompare(reg.Gatherer(), strings.NewReader(`
# HELP parreduce_partitions_total Partitions folded and merged on the parallel path.
# TYPE parreduce_partitions_total counter
parreduce_partitions_total{lab="series"} 4
`), "parreduce_partitions_total"); err != nil {
		t.Error(err)
	}

	var estimates []float64
	for u := range progress {
		if u.Value < 1 {
			estimates = append(estimates, u.Value)
		}
	}
	sort.Float64s(estimates)
	want := []float64{0.25, 0.5, 0.75, 0.99}
	if len(estimates) != len(want) {
		t.Fatalf("progress estimates = %v, want %v", estimates, want)
	}
	for i := range want {
		if estimates[i] != want[i] {
			t.Errorf("estimate %d = %v, want %v", i, estimates[i], want[i])
		}
	}
}

func TestRunLab_UsesPool(t *testing.T) {
	t.Parallel()
	pool, err := reduce.NewPool(2)
	if err != nil {
		t.Fatal(err)
	}
	pool.Close()

	res := RunLab(context.Background(), 0, sumLab("sum", 100), testParams(), Options{Pool: pool}, nil)
	if !errors.Is(res.Err, reduce.ErrPoolClosed) {
		t.Errorf("err = %v, want ErrPoolClosed from the supplied pool", res.Err)
	}
}

// TestAnalyzeResults verifies the exit status derived from a set of lab
// results and what gets presented.
func TestAnalyzeResults(t *testing.T) {
	t.Parallel()
	ok := LabResult{Lab: "a", Outcome: workload.Outcome{Lab: "a", Verdict: reduce.VerdictMatch}}
	ok2 := LabResult{Lab: "b", Outcome: workload.Outcome{Lab: "b", Verdict: reduce.VerdictMatch}}
	mismatch := LabResult{Lab: "m", Outcome: workload.Outcome{Lab: "m", Verdict: reduce.VerdictToleranceExceeded}}
	invalid := LabResult{Lab: "v", Err: apperrors.ValidationError{Field: "n", Message: "bad"}}
	workloadErr := LabResult{Lab: "w", Err: apperrors.WorkloadError{Worker: 0, Index: 1, Cause: errors.New("boom")}}

	tests := []struct {
		name           string
		results        []LabResult
		strict         bool
		expectedStatus int
		presented      int
		tables         int
	}{
		{"All success", []LabResult{ok, ok2}, false, apperrors.ExitSuccess, 2, 1},
		{"Single success has no table", []LabResult{ok}, false, apperrors.ExitSuccess, 1, 0},
		{"Mismatch is not an error", []LabResult{ok, mismatch}, false, apperrors.ExitSuccess, 2, 1},
		{"Strict mismatch", []LabResult{mismatch}, true, apperrors.ExitErrorMismatch, 1, 0},
		{"Validation failure", []LabResult{invalid}, false, apperrors.ExitErrorConfig, 0, 0},
		{"First failure wins", []LabResult{ok, workloadErr, invalid}, true, apperrors.ExitErrorWorkload, 1, 1},
		{"Failure beats strict mismatch", []LabResult{mismatch, invalid}, true, apperrors.ExitErrorConfig, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := &mockResultPresenter{}
			status := AnalyzeResults(tt.results, AnalysisOptions{Strict: tt.strict}, p, p, io.Discard)
			if status != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, status)
			}
			if len(p.presented) != tt.presented {
				t.Errorf("presented %d results, want %d", len(p.presented), tt.presented)
			}
			if p.tables != tt.tables {
				t.Errorf("presented %d tables, want %d", p.tables, tt.tables)
			}
		})
	}
}

func TestAnalyzeResults_GlobalStatus(t *testing.T) {
	t.Parallel()
	var out strings.Builder
	p := &mockResultPresenter{}
	results := []LabResult{
		{Lab: "a", Outcome: workload.Outcome{Verdict: reduce.VerdictMatch}},
		{Lab: "b", Outcome: workload.Outcome{Verdict: reduce.VerdictMatch}},
	}
	AnalyzeResults(results, AnalysisOptions{}, p, p, &out)
	if !strings.Contains(out.String(), "Global Status: Success") {
		t.Errorf("output %q lacks the success status", out.String())
	}
}
