package scheduler

import (
	"errors"
	"fmt"
)

// Sentinel error kinds, matched with errors.Is. Kinds that carry data are
// typed errors matched with errors.As; all of them wrap one of these
// sentinels with %w so a caller can test either way.
var (
	// ErrNoActiveProblem is returned when an entity constructor runs with no
	// problem open (spec §7).
	ErrNoActiveProblem = errors.New("scheduler: no active problem")
	// ErrReentrantProblem is returned by OpenProblem when a problem is
	// already active (spec §5: re-entrant construction is undefined and
	// must be detected).
	ErrReentrantProblem = errors.New("scheduler: a problem is already active")
	// ErrNotActiveProblem is returned by Problem.Close when called on a
	// problem that is not the currently active one.
	ErrNotActiveProblem = errors.New("scheduler: problem is not the active one")
	// ErrDuplicateName is returned by the registry on a name collision
	// within one entity kind.
	ErrDuplicateName = errors.New("scheduler: duplicate name")
	// ErrDuplicateRequirement is returned when the same worker is added to
	// a task's resource requirements twice.
	ErrDuplicateRequirement = errors.New("scheduler: duplicate resource requirement")
	// ErrDuplicateAssertion is returned when an entity attempts to record
	// the same theory assertion twice (a modeling-bug detector, not a
	// performance device, per §5).
	ErrDuplicateAssertion = errors.New("scheduler: duplicate assertion")
	// ErrNonOptionalMember is returned when an optional-only combinator
	// (ForceScheduleNOptionalTasks, ForceApplyNOptionalConstraints) is
	// handed a mandatory member.
	ErrNonOptionalMember = errors.New("scheduler: member is not optional")
	// ErrInvalidParameter covers the parameter-validation failures listed
	// in spec §7.
	ErrInvalidParameter = errors.New("scheduler: invalid parameter")
	// ErrIntervalExceedsPeriod is returned by ResourcePeriodicallyUnavailable
	// when a window is wider than the repeat period.
	ErrIntervalExceedsPeriod = errors.New("scheduler: interval exceeds period")
	// ErrUnsat is the typed result for a solve call that proves
	// infeasibility. It is a normal negative answer, not a failure.
	ErrUnsat = errors.New("scheduler: problem is unsatisfiable")
	// ErrUnknown is the typed result for a solve call that neither proved
	// satisfiability nor unsatisfiability (commonly a timeout).
	ErrUnknown = errors.New("scheduler: solver returned unknown")
)

// DuplicateNameError names the offending kind and name.
type DuplicateNameError struct {
	Kind string
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("scheduler: duplicate %s name %q", e.Kind, e.Name)
}

func (e *DuplicateNameError) Unwrap() error { return ErrDuplicateName }

// DuplicateRequirementError names the task/worker pair.
type DuplicateRequirementError struct {
	Task     string
	Resource string
}

func (e *DuplicateRequirementError) Error() string {
	return fmt.Sprintf("scheduler: worker %q already required by task %q", e.Resource, e.Task)
}

func (e *DuplicateRequirementError) Unwrap() error { return ErrDuplicateRequirement }

// DuplicateAssertionError names the entity and the assertion key re-added
// to it.
type DuplicateAssertionError struct {
	Entity string
	Key    string
}

func (e *DuplicateAssertionError) Error() string {
	return fmt.Sprintf("scheduler: %q already has assertion %q recorded", e.Entity, e.Key)
}

func (e *DuplicateAssertionError) Unwrap() error { return ErrDuplicateAssertion }

// InvalidParameterError names the offending parameter and a reason.
type InvalidParameterError struct {
	Param  string
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("scheduler: invalid parameter %s: %s", e.Param, e.Reason)
}

func (e *InvalidParameterError) Unwrap() error { return ErrInvalidParameter }

func invalidParam(param, reason string) error {
	return &InvalidParameterError{Param: param, Reason: reason}
}
