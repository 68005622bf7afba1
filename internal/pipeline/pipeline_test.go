package pipeline

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"
)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	essential bool
	doFunc    func(ctx context.Context, audit *Audit) error
	callCount int
}

func (m *mockStep) Do(ctx context.Context, audit *Audit) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, audit)
	}
	return nil
}

func (m *mockStep) Name() string {
	return m.name
}

func (m *mockStep) Essential() bool {
	return m.essential
}

// skippingStep counts how often it was skipped.
type skippingStep struct {
	mockStep
	skipped   int
	skipCtxOK bool
}

func (s *skippingStep) Skip(ctx context.Context, _ *Audit) {
	s.skipped++
	s.skipCtxOK = ctx.Err() != nil
}

func TestPipelineNew(t *testing.T) {
	t.Parallel()

	t.Run("creates pipeline with default settings", func(t *testing.T) {
		t.Parallel()

		p := New()
		if p.StepCount() != 0 {
			t.Errorf("expected 0 steps, got %d", p.StepCount())
		}
		if p.continueOnError {
			t.Error("expected continueOnError to default to false")
		}
	})

	t.Run("applies WithContinueOnError option", func(t *testing.T) {
		t.Parallel()

		if !New(WithContinueOnError(true)).continueOnError {
			t.Error("expected continueOnError to be true")
		}
	})
}

func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("runs steps in order", func(t *testing.T) {
		t.Parallel()

		var order []string
		record := func(name string) *mockStep {
			return &mockStep{name: name, doFunc: func(context.Context, *Audit) error {
				order = append(order, name)
				return nil
			}}
		}
		p := New()
		p.AddStep(record("first"))
		p.AddSteps(record("second"), record("third"))

		audit := NewAudit(Target{URL: "clinic.example"})
		if err := p.Execute(context.Background(), audit); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"first", "second", "third"}
		if !slices.Equal(order, want) {
			t.Errorf("order = %v, want %v", order, want)
		}
		if !slices.Equal(audit.PerformedSteps, want) {
			t.Errorf("PerformedSteps = %v, want %v", audit.PerformedSteps, want)
		}
		if !slices.Equal(p.StepNames(), want) {
			t.Errorf("StepNames() = %v, want %v", p.StepNames(), want)
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		errBoom := errors.New("boom")
		failing := &mockStep{name: "failing", doFunc: func(context.Context, *Audit) error { return errBoom }}
		after := &mockStep{name: "after"}
		p := New()
		p.AddSteps(failing, after)

		audit := NewAudit(Target{URL: "https://clinic.example"})
		err := p.Execute(context.Background(), audit)
		if !errors.Is(err, errBoom) {
			t.Fatalf("expected errBoom, got %v", err)
		}
		if after.callCount != 0 {
			t.Error("step after the failure should not run")
		}
		if !errors.Is(audit.Err, errBoom) {
			t.Errorf("audit.Err = %v, want errBoom", audit.Err)
		}
	})

	t.Run("continues on error when configured", func(t *testing.T) {
		t.Parallel()

		errBoom := errors.New("boom")
		failing := &mockStep{name: "failing", doFunc: func(context.Context, *Audit) error { return errBoom }}
		after := &mockStep{name: "after"}
		p := New(WithContinueOnError(true))
		p.AddSteps(failing, after)

		audit := NewAudit(Target{URL: "https://clinic.example"})
		if err := p.Execute(context.Background(), audit); !errors.Is(err, errBoom) {
			t.Fatalf("expected errBoom, got %v", err)
		}
		if after.callCount != 1 {
			t.Error("step after the failure should run")
		}
		if !slices.Equal(audit.PerformedSteps, []string{"after"}) {
			t.Errorf("PerformedSteps = %v", audit.PerformedSteps)
		}
	})

	t.Run("deadline skips regular steps but runs essential ones", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
		defer cancel()
		<-ctx.Done()

		regular := &mockStep{name: "regular"}
		var essentialCtxErr error
		essential := &mockStep{name: "essential", essential: true, doFunc: func(ctx context.Context, _ *Audit) error {
			essentialCtxErr = ctx.Err()
			return nil
		}}
		p := New()
		p.AddSteps(regular, essential)

		audit := NewAudit(Target{URL: "https://clinic.example"})
		if err := p.Execute(ctx, audit); err != nil {
			t.Fatalf("a deadline should not be an error, got %v", err)
		}
		if regular.callCount != 0 {
			t.Error("regular step should be skipped after the deadline")
		}
		if essential.callCount != 1 {
			t.Error("essential step should run after the deadline")
		}
		if essentialCtxErr != nil {
			t.Errorf("essential step got a done context: %v", essentialCtxErr)
		}
		if !audit.TimedOut {
			t.Error("expected audit to be marked as timed out")
		}
	})

	t.Run("skipped steps are told with the done context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
		defer cancel()
		<-ctx.Done()

		skipper := &skippingStep{mockStep: mockStep{name: "fetch"}}
		p := New()
		p.AddSteps(skipper, &mockStep{name: "score", essential: true})

		if err := p.Execute(ctx, NewAudit(Target{URL: "https://clinic.example"})); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if skipper.callCount != 0 || skipper.skipped != 1 {
			t.Errorf("expected Skip once and no Do, got Do=%d Skip=%d", skipper.callCount, skipper.skipped)
		}
		if !skipper.skipCtxOK {
			t.Error("Skip should receive the done context")
		}
	})

	t.Run("cancellation is returned after essential steps", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		essential := &mockStep{name: "essential", essential: true}
		p := New()
		p.AddSteps(&mockStep{name: "regular"}, essential)

		audit := NewAudit(Target{URL: "https://clinic.example"})
		if err := p.Execute(ctx, audit); !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if essential.callCount != 1 {
			t.Error("essential step should run after cancellation")
		}
		if audit.TimedOut {
			t.Error("cancellation is not a timeout")
		}
	})
}

func TestNewAudit(t *testing.T) {
	t.Parallel()

	audit := NewAudit(Target{URL: "www.clinic.example/"})
	if audit.Target.URL != "https://www.clinic.example/" {
		t.Errorf("URL = %q", audit.Target.URL)
	}
	if audit.Target.Key() != "https://clinic.example" {
		t.Errorf("Key() = %q", audit.Target.Key())
	}
	if !audit.Target.Discovery.UseSitemap || audit.Target.Discovery.MaxPages == 0 {
		t.Errorf("expected default discovery options, got %+v", audit.Target.Discovery)
	}
	if audit.Signals == nil || audit.Signals.RootURL != audit.Target.URL {
		t.Error("expected signals rooted at the target URL")
	}
}
