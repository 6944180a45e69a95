package runner_test

import (
	"context"
	"errors"
	"testing"

	"github.com/wgpctl/wgpctl/internal/runner"
	"github.com/wgpctl/wgpctl/internal/runner/runnertest"
)

func TestDoFallsBackWhenPrimaryFails(t *testing.T) {
	fake := runnertest.New()
	fake.Fail("install cuda-toolkit-12-8")
	fb := runner.Cmd("apt-get", "install", "cuda-toolkit")

	res := runner.Do(context.Background(), fake, runner.Step{
		Name:     "toolkit",
		Command:  runner.Cmd("apt-get", "install", "cuda-toolkit-12-8"),
		Fallback: &fb,
	})
	if res.Outcome != runner.FellBack {
		t.Fatalf("outcome = %v, want fell back", res.Outcome)
	}
	if !res.OK() {
		t.Fatal("fell back result should be OK")
	}
	if res.Err == nil {
		t.Fatal("fell back result should keep the primary error")
	}
}

func TestDoFailsWhenFallbackFails(t *testing.T) {
	fake := runnertest.New()
	fake.Fail("pip")
	fb := runner.Cmd("pip", "install", "prebuilt")

	res := runner.Do(context.Background(), fake, runner.Step{
		Name:     "build",
		Command:  runner.Cmd("pip", "install", "."),
		Fallback: &fb,
	})
	if res.Outcome != runner.Failed {
		t.Fatalf("outcome = %v, want failed", res.Outcome)
	}
	if _, ok := runner.ExitCode(res.Err); !ok {
		t.Fatalf("expected exit code to survive wrapping: %v", res.Err)
	}
}

func TestSequenceStopsAtStrictFailure(t *testing.T) {
	fake := runnertest.New()
	fake.Fail("second")

	results, err := runner.Sequence(context.Background(), fake, nil,
		runner.Step{Name: "one", Command: runner.Cmd("first")},
		runner.Step{Name: "two", Command: runner.Cmd("second")},
		runner.Step{Name: "three", Command: runner.Cmd("third")},
	)
	var stepErr *runner.StepError
	if !errors.As(err, &stepErr) || stepErr.Step != "two" {
		t.Fatalf("expected StepError for two, got %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if fake.Ran("third") {
		t.Fatal("third step should not run after a strict failure")
	}
}

func TestSequenceContinuesPastBestEffortFailure(t *testing.T) {
	fake := runnertest.New()
	fake.Fail("du")

	results, err := runner.Sequence(context.Background(), fake, nil,
		runner.Step{Name: "size", Command: runner.Cmd("du", "-sh", "."), Policy: runner.BestEffort},
		runner.Step{Name: "after", Command: runner.Cmd("true")},
	)
	if err != nil {
		t.Fatalf("Sequence: %v", err)
	}
	if results[0].Outcome != runner.Failed || results[1].Outcome != runner.Succeeded {
		t.Fatalf("unexpected outcomes: %v, %v", results[0].Outcome, results[1].Outcome)
	}
}

func TestSequenceSkipsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fake := runnertest.New()

	results, err := runner.Sequence(ctx, fake, nil, runner.Step{Name: "one", Command: runner.Cmd("first")})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if results[0].Outcome != runner.Skipped {
		t.Fatalf("outcome = %v, want skipped", results[0].Outcome)
	}
	if len(fake.Calls()) != 0 {
		t.Fatalf("no command should run, got %v", fake.Lines())
	}
}
