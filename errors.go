package lockman

import "fmt"

// ErrorKind discriminates the cancellation-error taxonomy. A single
// converged shape (CancellationError) carries every kind rather than one Go
// type per kind — see SPEC_FULL.md "Open Question Resolutions / O1" for why
// this repo settled on one shape instead of the two incompatible shapes
// found in the source corpus.
type ErrorKind int

const (
	// Single-execution.
	ErrBoundaryAlreadyLocked ErrorKind = iota
	ErrActionAlreadyRunning

	// Priority (blocking).
	ErrLowerPriorityBlocked
	ErrSamePriorityConflict

	// Priority (preceding cancellation).
	ErrHigherPriorityPreempts
	ErrReplacedByEqualPriority

	// Group coordination.
	ErrLeaderCannotJoinNonEmptyGroup
	ErrMemberCannotJoinEmptyGroup
	ErrActionAlreadyInGroup
	ErrBlockedByExclusiveLeader

	// Concurrency limited.
	ErrConcurrencyLimitReached

	// Dynamic condition — caller-defined payload wrapped.
	ErrDynamicConditionFailed

	// ErrInfoTypeMismatch is returned by an erased strategy handle when the
	// caller hands it a LockInfo built for a different strategy.
	ErrInfoTypeMismatch
)

var errorKindNames = map[ErrorKind]string{
	ErrBoundaryAlreadyLocked:         "BoundaryAlreadyLocked",
	ErrActionAlreadyRunning:          "ActionAlreadyRunning",
	ErrLowerPriorityBlocked:          "LowerPriorityBlocked",
	ErrSamePriorityConflict:          "SamePriorityConflict",
	ErrHigherPriorityPreempts:        "HigherPriorityPreempts",
	ErrReplacedByEqualPriority:       "ReplacedByEqualPriority",
	ErrLeaderCannotJoinNonEmptyGroup: "LeaderCannotJoinNonEmptyGroup",
	ErrMemberCannotJoinEmptyGroup:    "MemberCannotJoinEmptyGroup",
	ErrActionAlreadyInGroup:          "ActionAlreadyInGroup",
	ErrBlockedByExclusiveLeader:      "BlockedByExclusiveLeader",
	ErrConcurrencyLimitReached:       "ConcurrencyLimitReached",
	ErrDynamicConditionFailed:        "DynamicConditionFailed",
	ErrInfoTypeMismatch:              "InfoTypeMismatch",
}

func (k ErrorKind) String() string {
	if s, ok := errorKindNames[k]; ok {
		return s
	}
	return "Unknown"
}

// CancellationError is the single error shape every strategy returns inside
// a Cancel or SuccessWithPrecedingCancellation verdict. It always
// carries the offending new acquisition's Info and Boundary; for
// preceding-cancellation kinds and single-victim blocking kinds it also
// carries the Victim and VictimBoundary needed by the immediate-unlock
// coordinator.
type CancellationError struct {
	Kind ErrorKind

	Boundary BoundaryID
	Info     LockInfo

	// Victim is the existing entry the error is about: for
	// preceding-cancellation kinds, the entry the coordinator must unlock
	// before committing Info; for the blocking kinds that name one
	// conflicting entry (BoundaryAlreadyLocked, ActionAlreadyRunning,
	// LowerPriorityBlocked, SamePriorityConflict, ActionAlreadyInGroup,
	// BlockedByExclusiveLeader), the blocker. VictimBoundary is set for the
	// preceding-cancellation kinds and for BoundaryAlreadyLocked,
	// ActionAlreadyRunning and ActionAlreadyInGroup. Both are unset for kinds
	// with no single conflicting entry.
	Victim         LockInfo
	VictimBoundary BoundaryID

	// Groups/ConcurrencyGroup/Limit/Count are populated by the strategies
	// that need them; zero otherwise.
	Groups           []GroupID
	ConcurrencyGroup any
	Limit            int
	Count            int

	// Cause is the caller-defined error wrapped by ErrDynamicConditionFailed.
	Cause error

	// Reason is a human failure-reason string suitable for surfacing to a
	// user.
	Reason string
	// Technical is a short technical description.
	Technical string
}

func (e *CancellationError) Error() string {
	if e.Technical != "" {
		return e.Technical
	}
	return e.Kind.String()
}

// Unwrap exposes Cause so errors.Is/errors.As can reach a caller-defined
// dynamic-condition error wrapped by ErrDynamicConditionFailed.
func (e *CancellationError) Unwrap() error {
	return e.Cause
}

func NewBoundaryAlreadyLockedError(boundary BoundaryID, info, existing LockInfo) *CancellationError {
	return &CancellationError{
		Kind:           ErrBoundaryAlreadyLocked,
		Boundary:       boundary,
		Info:           info,
		Victim:         existing,
		VictimBoundary: boundary,
		Technical:      fmt.Sprintf("boundary already locked by action %q", existing.ActionID()),
		Reason:         "Only one action may run in this boundary at a time.",
	}
}

func NewActionAlreadyRunningError(boundary BoundaryID, info, existing LockInfo) *CancellationError {
	return &CancellationError{
		Kind:           ErrActionAlreadyRunning,
		Boundary:       boundary,
		Info:           info,
		Victim:         existing,
		VictimBoundary: boundary,
		Technical:      fmt.Sprintf("action %q is already running", existing.ActionID()),
		Reason:         "This action is already running and cannot run twice concurrently.",
	}
}

func NewLowerPriorityBlockedError(boundary BoundaryID, info, blocker LockInfo) *CancellationError {
	return &CancellationError{
		Kind:      ErrLowerPriorityBlocked,
		Boundary:  boundary,
		Info:      info,
		Victim:    blocker,
		Technical: "blocked by a higher-priority action",
		Reason:    "A higher-priority action is running; wait for it to finish.",
	}
}

func NewSamePriorityConflictError(boundary BoundaryID, info, existing LockInfo) *CancellationError {
	return &CancellationError{
		Kind:      ErrSamePriorityConflict,
		Boundary:  boundary,
		Info:      info,
		Victim:    existing,
		Technical: "conflicts with an exclusive action at the same priority",
		Reason:    "Another exclusive action at the same priority is already running.",
	}
}

func NewHigherPriorityPreemptsError(boundary BoundaryID, info, victim LockInfo) *CancellationError {
	return &CancellationError{
		Kind:           ErrHigherPriorityPreempts,
		Boundary:       boundary,
		Info:           info,
		Victim:         victim,
		VictimBoundary: boundary,
		Technical:      fmt.Sprintf("preempts lower-priority action %q", victim.ActionID()),
		Reason:         "This action has higher priority and preempts the running one.",
	}
}

func NewReplacedByEqualPriorityError(boundary BoundaryID, info, victim LockInfo) *CancellationError {
	return &CancellationError{
		Kind:           ErrReplacedByEqualPriority,
		Boundary:       boundary,
		Info:           info,
		Victim:         victim,
		VictimBoundary: boundary,
		Technical:      fmt.Sprintf("replaces equal-priority action %q", victim.ActionID()),
		Reason:         "This action replaces another of equal, replaceable priority.",
	}
}

func NewLeaderCannotJoinNonEmptyGroupError(boundary BoundaryID, info LockInfo, groups []GroupID) *CancellationError {
	return &CancellationError{
		Kind:      ErrLeaderCannotJoinNonEmptyGroup,
		Boundary:  boundary,
		Info:      info,
		Groups:    groups,
		Technical: "leader cannot join a non-empty group",
		Reason:    "Leaders must be first to join a coordination group.",
	}
}

func NewMemberCannotJoinEmptyGroupError(boundary BoundaryID, info LockInfo, groups []GroupID) *CancellationError {
	return &CancellationError{
		Kind:      ErrMemberCannotJoinEmptyGroup,
		Boundary:  boundary,
		Info:      info,
		Groups:    groups,
		Technical: "member cannot join an empty group",
		Reason:    "A member cannot join a coordination group with no active leader or members.",
	}
}

func NewActionAlreadyInGroupError(boundary BoundaryID, info, existing LockInfo, group GroupID) *CancellationError {
	return &CancellationError{
		Kind:           ErrActionAlreadyInGroup,
		Boundary:       boundary,
		Info:           info,
		Victim:         existing,
		VictimBoundary: boundary,
		Groups:         []GroupID{group},
		Technical:      fmt.Sprintf("action %q already participates in group", existing.ActionID()),
		Reason:         "This action is already a participant of the group.",
	}
}

func NewBlockedByExclusiveLeaderError(boundary BoundaryID, info, leader LockInfo, group GroupID) *CancellationError {
	return &CancellationError{
		Kind:      ErrBlockedByExclusiveLeader,
		Boundary:  boundary,
		Info:      info,
		Victim:    leader,
		Groups:    []GroupID{group},
		Technical: fmt.Sprintf("blocked by exclusive leader %q", leader.ActionID()),
		Reason:    "An exclusive leader is active in this group.",
	}
}

func NewConcurrencyLimitReachedError(boundary BoundaryID, info LockInfo, group any, limit, count int) *CancellationError {
	return &CancellationError{
		Kind:             ErrConcurrencyLimitReached,
		Boundary:         boundary,
		Info:             info,
		ConcurrencyGroup: group,
		Limit:            limit,
		Count:            count,
		Technical:        fmt.Sprintf("concurrency limit %d reached (%d active)", limit, count),
		Reason:           "Too many concurrent actions in this concurrency group.",
	}
}

// NewDynamicConditionFailed wraps a caller-defined predicate failure.
func NewDynamicConditionFailed(boundary BoundaryID, info LockInfo, cause error) *CancellationError {
	return &CancellationError{
		Kind:      ErrDynamicConditionFailed,
		Boundary:  boundary,
		Info:      info,
		Cause:     cause,
		Technical: fmt.Sprintf("dynamic condition failed: %v", cause),
		Reason:    "A dynamic condition rejected this action.",
	}
}

// RegistrationError reports a strategy-container registration failure.
type RegistrationError struct {
	// Duplicate is true for StrategyAlreadyRegistered, false for
	// StrategyNotRegistered.
	Duplicate bool
	ID        StrategyID
}

func (e *RegistrationError) Error() string {
	if e.Duplicate {
		return fmt.Sprintf("strategy %q is already registered", e.ID)
	}
	return fmt.Sprintf("strategy %q is not registered", e.ID)
}

func errStrategyAlreadyRegistered(id StrategyID) *RegistrationError {
	return &RegistrationError{Duplicate: true, ID: id}
}

func errStrategyNotRegistered(id StrategyID) *RegistrationError {
	return &RegistrationError{Duplicate: false, ID: id}
}
