package result

import (
	"context"
	"strconv"
	"testing"
)

type stepError struct {
	step int
}

func (e *stepError) Error() string {
	return "step " + strconv.Itoa(e.step) + " failed"
}

type R = Result[int, *stepError]

func TestSuccess_Value(t *testing.T) {
	r := Success[int, *stepError](7)

	if !r.IsSuccess() || r.IsFailure() {
		t.Fatal("expected success")
	}
	if r.Value() != 7 {
		t.Errorf("expected 7, got %d", r.Value())
	}
}

func TestFailure_NilErrorPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for nil error")
		}
	}()
	var e *stepError
	_ = Failure[int](e)
}

func TestValue_OnFailurePanics(t *testing.T) {
	r := Failure[int](&stepError{step: 1})
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic when reading value of a failure")
		}
	}()
	_ = r.Value()
}

func TestError_OnSuccessPanics(t *testing.T) {
	r := Success[int, *stepError](1)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic when reading error of a success")
		}
	}()
	_ = r.Error()
}

func TestMatch_RunsOneBranch(t *testing.T) {
	var successCalls, failureCalls int
	onSuccess := func(v int) string { successCalls++; return "ok" }
	onFailure := func(e *stepError) string { failureCalls++; return e.Error() }

	if got := Match(Success[int, *stepError](1), onSuccess, onFailure); got != "ok" {
		t.Errorf("expected ok, got %q", got)
	}
	if got := Match(Failure[int](&stepError{step: 2}), onSuccess, onFailure); got != "step 2 failed" {
		t.Errorf("unexpected failure branch output %q", got)
	}
	if successCalls != 1 || failureCalls != 1 {
		t.Errorf("expected one call per branch, got success=%d failure=%d", successCalls, failureCalls)
	}
}

func TestMap_FailureIsUnchanged(t *testing.T) {
	original := &stepError{step: 3}
	called := false

	got := Map(Failure[int](original), func(v int) string {
		called = true
		return "never"
	})

	if called {
		t.Error("map function ran on a failure")
	}
	if got.Error() != original {
		t.Error("expected the original error instance to be carried through")
	}
}

func TestBind_FailureIsUnchanged(t *testing.T) {
	original := &stepError{step: 4}
	called := false

	got := Bind(Failure[int](original), func(v int) Result[string, *stepError] {
		called = true
		return Success[string, *stepError]("never")
	})

	if called {
		t.Error("bind function ran on a failure")
	}
	if got.Error() != original {
		t.Error("expected the original error instance to be carried through")
	}
}

func TestBind_ShortCircuitsRemainingSteps(t *testing.T) {
	const steps = 6
	for failAt := 1; failAt <= steps; failAt++ {
		t.Run("fail at "+strconv.Itoa(failAt), func(t *testing.T) {
			calls := make([]int, steps+1)
			step := func(n int) func(int) R {
				return func(v int) R {
					calls[n]++
					if n == failAt {
						return Failure[int](&stepError{step: n})
					}
					return Success[int, *stepError](v + 1)
				}
			}

			r := Success[int, *stepError](0)
			for n := 1; n <= steps; n++ {
				r = Bind(r, step(n))
			}

			if r.IsSuccess() {
				t.Fatal("expected failure")
			}
			if r.Error().step != failAt {
				t.Errorf("expected error from step %d, got step %d", failAt, r.Error().step)
			}
			for n := 1; n <= steps; n++ {
				want := 0
				if n <= failAt {
					want = 1
				}
				if calls[n] != want {
					t.Errorf("step %d ran %d times, want %d", n, calls[n], want)
				}
			}
		})
	}
}

func TestMap_Success(t *testing.T) {
	got := Map(Success[int, *stepError](20), func(v int) string { return strconv.Itoa(v * 2) })
	if got.Value() != "40" {
		t.Errorf("expected 40, got %q", got.Value())
	}
}

func TestTap_OnlyOnSuccess(t *testing.T) {
	var seen []int
	record := func(v int) { seen = append(seen, v) }

	ok := Success[int, *stepError](5).Tap(record)
	failed := Failure[int](&stepError{step: 1}).Tap(record)

	if len(seen) != 1 || seen[0] != 5 {
		t.Errorf("expected tap to see only 5, got %v", seen)
	}
	if ok.Value() != 5 {
		t.Error("tap changed the success value")
	}
	if failed.Error().step != 1 {
		t.Error("tap changed the failure")
	}
}

func TestTapError_OnlyOnFailure(t *testing.T) {
	count := 0
	Success[int, *stepError](1).TapError(func(*stepError) { count++ })
	Failure[int](&stepError{step: 9}).TapError(func(*stepError) { count++ })

	if count != 1 {
		t.Errorf("expected one call, got %d", count)
	}
}

func TestCtxVariants_ShortCircuit(t *testing.T) {
	ctx := context.Background()
	calls := 0

	r := Failure[int](&stepError{step: 1})
	r = BindCtx(ctx, r, func(context.Context, int) R { calls++; return Success[int, *stepError](1) })
	r = MapCtx(ctx, r, func(context.Context, int) int { calls++; return 1 })
	r = TapCtx(ctx, r, func(context.Context, int) { calls++ })

	if calls != 0 {
		t.Errorf("expected no step to run, got %d calls", calls)
	}
	if r.Error().step != 1 {
		t.Errorf("expected original error, got step %d", r.Error().step)
	}
}

type ctxKey struct{}

func TestCtxVariants_PassContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), ctxKey{}, "req-1")
	var seen []string
	grab := func(ctx context.Context) { seen = append(seen, ctx.Value(ctxKey{}).(string)) }

	r := Success[int, *stepError](1)
	r = BindCtx(ctx, r, func(ctx context.Context, v int) R { grab(ctx); return Success[int, *stepError](v + 1) })
	r = MapCtx(ctx, r, func(ctx context.Context, v int) int { grab(ctx); return v * 10 })
	r = TapCtx(ctx, r, func(ctx context.Context, _ int) { grab(ctx) })

	if r.Value() != 20 {
		t.Errorf("expected 20, got %d", r.Value())
	}
	if len(seen) != 3 {
		t.Errorf("expected context in three steps, got %v", seen)
	}
}

func TestDone(t *testing.T) {
	r := Done[*stepError]()
	if !r.IsSuccess() || r.Value() != (Unit{}) {
		t.Error("expected a Unit success")
	}
}
