package middleware_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/xraph/taskhub"
	"github.com/xraph/taskhub/failure"
	mw "github.com/xraph/taskhub/middleware"
	"github.com/xraph/taskhub/task"
)

func TestLogging_Activity(t *testing.T) {
	buf, logger := newBufferLogger()
	p := freeze(t, mw.RunActivity, mw.Named("logging", mw.Logging(logger)))

	dc, _, _ := newActivityDispatch(t)
	if err := p.Dispatch(context.Background(), dc); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"dispatch started", "dispatch completed", "task_name=SendGreeting", "task_kind=activity"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
}

func TestLogging_Failure(t *testing.T) {
	buf, logger := newBufferLogger()
	p := freeze(t, func(context.Context, *mw.DispatchContext) error { return errors.New("boom") },
		mw.Named("logging", mw.Logging(logger)))

	dc, _, _ := newActivityDispatch(t)
	_ = p.Dispatch(context.Background(), dc)
	if !strings.Contains(buf.String(), "dispatch failed") || !strings.Contains(buf.String(), "error=boom") {
		t.Errorf("expected failure log, got %q", buf.String())
	}
}

func TestLogging_SilentDuringReplay(t *testing.T) {
	buf, logger := newBufferLogger()
	p := freeze(t, mw.RunOrchestration, mw.Named("logging", mw.Logging(logger)))

	dc, state, _ := newOrchestrationDispatch(t)
	state.SetReplaying(true)
	if err := p.Dispatch(context.Background(), dc); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output during replay, got %q", buf.String())
	}
}

func TestRecover_ConvertsPanic(t *testing.T) {
	_, logger := newBufferLogger()
	p := freeze(t, func(context.Context, *mw.DispatchContext) error { panic("boom") },
		mw.Named("recover", mw.Recover(logger)))

	dc, _, _ := newActivityDispatch(t)
	err := p.Dispatch(context.Background(), dc)

	var perr *failure.PanicError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *failure.PanicError, got %v", err)
	}
	if perr.Value != "boom" || perr.Stack == "" {
		t.Errorf("unexpected panic error %+v", perr)
	}
}

func TestRecover_RethrowsFatal(t *testing.T) {
	fatal := taskhub.NewFatal(taskhub.StackOverflow, "recursion")
	p := freeze(t, func(context.Context, *mw.DispatchContext) error { panic(fatal) },
		mw.Named("recover", mw.Recover(nil)))

	defer func() {
		if r := recover(); r != fatal {
			t.Errorf("expected fatal panic to propagate, got %v", r)
		}
	}()
	dc, _, _ := newActivityDispatch(t)
	_ = p.Dispatch(context.Background(), dc)
	t.Fatal("fatal panic was swallowed")
}

func TestTimeout_Deadlines(t *testing.T) {
	tests := []struct {
		name          string
		eventTimeout  time.Duration
		fallback      time.Duration
		orchestration bool
		wantDeadline  bool
	}{
		{"event timeout", 50 * time.Millisecond, 0, false, true},
		{"fallback", 0, time.Second, false, true},
		{"none", 0, 0, false, false},
		{"orchestration ignored", 0, time.Second, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hasDeadline bool
			p := freeze(t, func(ctx context.Context, _ *mw.DispatchContext) error {
				_, hasDeadline = ctx.Deadline()
				return nil
			}, mw.Named("timeout", mw.Timeout(nil, tt.fallback)))

			var dc *mw.DispatchContext
			if tt.orchestration {
				dc, _, _ = newOrchestrationDispatch(t)
			} else {
				var ev *task.ScheduledEvent
				dc, ev, _ = newActivityDispatch(t)
				ev.Timeout = tt.eventTimeout
			}

			if err := p.Dispatch(context.Background(), dc); err != nil {
				t.Fatalf("Dispatch: %v", err)
			}
			if hasDeadline != tt.wantDeadline {
				t.Errorf("deadline set = %v, want %v", hasDeadline, tt.wantDeadline)
			}
		})
	}
}

func TestTimeout_CancelsSlowActivity(t *testing.T) {
	p := freeze(t, func(ctx context.Context, _ *mw.DispatchContext) error {
		<-ctx.Done()
		return ctx.Err()
	}, mw.Named("timeout", mw.Timeout(nil, 10*time.Millisecond)))

	dc, _, _ := newActivityDispatch(t)
	if err := p.Dispatch(context.Background(), dc); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
}

func TestMetrics_RecordsDispatch(t *testing.T) {
	reader, mp := setupTestMeter()
	p := freeze(t, mw.RunActivity, mw.Named("metrics", mw.MetricsWithMeter(mp.Meter("test"))))

	for range 3 {
		dc, _, _ := newActivityDispatch(t)
		if err := p.Dispatch(context.Background(), dc); err != nil {
			t.Fatalf("Dispatch: %v", err)
		}
	}

	rm := collectMetrics(t, reader)
	m := findMetric(rm, "taskhub.dispatch.executions")
	if m == nil {
		t.Fatal("taskhub.dispatch.executions metric not found")
	}
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok || len(sum.DataPoints) != 1 {
		t.Fatalf("unexpected data %+v", m.Data)
	}
	dp := sum.DataPoints[0]
	if dp.Value != 3 {
		t.Errorf("executions = %d, want 3", dp.Value)
	}
	if v, _ := dp.Attributes.Value(attribute.Key("status")); v.AsString() != "ok" {
		t.Errorf("status = %q", v.AsString())
	}
	if v, _ := dp.Attributes.Value(attribute.Key("task_name")); v.AsString() != "SendGreeting" {
		t.Errorf("task_name = %q", v.AsString())
	}

	if findMetric(rm, "taskhub.dispatch.duration") == nil {
		t.Error("taskhub.dispatch.duration metric not found")
	}
}

func TestMetrics_ErrorStatus(t *testing.T) {
	reader, mp := setupTestMeter()
	p := freeze(t, func(context.Context, *mw.DispatchContext) error { return errors.New("boom") },
		mw.Named("metrics", mw.MetricsWithMeter(mp.Meter("test"))))

	dc, _, _ := newActivityDispatch(t)
	_ = p.Dispatch(context.Background(), dc)

	sum := findMetric(collectMetrics(t, reader), "taskhub.dispatch.executions").Data.(metricdata.Sum[int64])
	if v, _ := sum.DataPoints[0].Attributes.Value(attribute.Key("status")); v.AsString() != "error" {
		t.Errorf("status = %q, want error", v.AsString())
	}
}

func TestFailures_TranslatesTaskErrors(t *testing.T) {
	opts := taskhub.DefaultOptions()
	opts.ErrorPropagationMode = taskhub.UseFailureDetails
	opts.IncludeDetails = taskhub.IncludeAll

	p := freeze(t, func(context.Context, *mw.DispatchContext) error { panic("card declined") },
		mw.Named("failures", mw.Failures(failure.NewPropagator(opts))),
		mw.Named("recover", mw.Recover(nil)),
	)

	dc, _, _ := newActivityDispatch(t)
	err := p.Dispatch(context.Background(), dc)

	var tf *failure.TaskFailedError
	if !errors.As(err, &tf) {
		t.Fatalf("expected *failure.TaskFailedError, got %v", err)
	}
	if tf.Kind != taskhub.KindActivity || tf.TaskName != "SendGreeting" {
		t.Errorf("unexpected failure %+v", tf)
	}
	if tf.Details == nil || tf.Details.StackTrace == "" {
		t.Errorf("expected details with a stack trace, got %+v", tf.Details)
	}
}

func TestFailures_SuccessUntouched(t *testing.T) {
	p := freeze(t, mw.RunActivity, mw.Named("failures", mw.Failures(failure.NewPropagator(taskhub.DefaultOptions()))))
	dc, _, _ := newActivityDispatch(t)
	if err := p.Dispatch(context.Background(), dc); err != nil {
		t.Errorf("unexpected error %v", err)
	}
}
