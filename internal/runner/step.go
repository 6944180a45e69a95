package runner

import (
	"context"
	"fmt"
)

// Policy decides what a failed step means for the operation running it.
type Policy int

const (
	// Strict failures abort the operation.
	Strict Policy = iota
	// BestEffort failures are reported and the operation continues.
	BestEffort
)

func (p Policy) String() string {
	switch p {
	case Strict:
		return "strict"
	case BestEffort:
		return "best-effort"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// Outcome records how a step ended.
type Outcome int

const (
	Succeeded Outcome = iota
	FellBack
	Failed
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "succeeded"
	case FellBack:
		return "fell back"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Step is a named command with an explicit failure policy and an optional
// alternative to try when the primary command fails.
type Step struct {
	Name     string
	Command  Command
	Policy   Policy
	Fallback *Command
}

// Result is what happened to one Step. Err holds the primary failure for
// FellBack outcomes.
type Result struct {
	Step    string
	Policy  Policy
	Outcome Outcome
	Err     error
}

// OK reports whether the step left the system in the intended state.
func (r Result) OK() bool {
	return r.Outcome == Succeeded || r.Outcome == FellBack
}

// StepError is returned by Sequence when a strict step fails.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Do executes a single step without applying its policy.
func Do(ctx context.Context, r Runner, step Step) Result {
	res := Result{Step: step.Name, Policy: step.Policy}
	if err := ctx.Err(); err != nil {
		res.Outcome = Skipped
		res.Err = err
		return res
	}
	err := r.Run(ctx, step.Command)
	if err == nil {
		res.Outcome = Succeeded
		return res
	}
	if step.Fallback == nil || ctx.Err() != nil {
		res.Outcome = Failed
		res.Err = err
		return res
	}
	if fbErr := r.Run(ctx, *step.Fallback); fbErr != nil {
		res.Outcome = Failed
		res.Err = fmt.Errorf("%w (fallback %s: %v)", err, step.Fallback.Name, fbErr)
		return res
	}
	res.Outcome = FellBack
	res.Err = err
	return res
}

// Sequence runs steps in order. It stops at the first strict failure and
// returns a *StepError; best-effort failures are recorded and skipped past.
// observe, when non-nil, is told about every step before and after it runs.
func Sequence(ctx context.Context, r Runner, observe Observer, steps ...Step) ([]Result, error) {
	results := make([]Result, 0, len(steps))
	for _, step := range steps {
		if observe != nil {
			observe.Starting(step)
		}
		res := Do(ctx, r, step)
		results = append(results, res)
		if observe != nil {
			observe.Finished(res)
		}
		if res.Outcome == Skipped {
			return results, res.Err
		}
		if res.Outcome == Failed && step.Policy == Strict {
			return results, &StepError{Step: step.Name, Err: res.Err}
		}
	}
	return results, nil
}

// Observer receives step progress from Sequence.
type Observer interface {
	Starting(Step)
	Finished(Result)
}
