package lockman

// LockInfo is the record a strategy stores per acquisition. Every
// strategy-specific payload (single-execution's Mode, priority's Priority,
// ...) embeds BaseInfo and adds its own fields; the container and state
// store only ever see it through this erased interface.
type LockInfo interface {
	// StrategyID is the id of the strategy this info was built for.
	StrategyID() StrategyID
	// ActionID names the action kind (not unique).
	ActionID() ActionID
	// UniqueID is this acquisition's sole identity.
	UniqueID() UniqueID
	// IsCancellable reports the acquisition's cancellability flag. Defaults
	// to true. The strategies in this module do not consult it: a
	// preceding-cancellation verdict may name an entry as victim whatever
	// its flag.
	IsCancellable() bool
}

// BaseInfo is the common attribute set every LockInfo embeds: strategy-id,
// action-id, unique-id, and the cancellability flag. It already satisfies
// LockInfo on its own, which is useful directly wherever a strategy has no
// payload beyond the common fields, and concrete info types embed it to
// become a LockInfo by promoting its methods while adding their own
// strategy-specific fields.
type BaseInfo struct {
	strategyID  StrategyID
	actionID    ActionID
	uniqueID    UniqueID
	cancellable bool
}

// NewBaseInfo stamps a fresh UniqueID and returns a BaseInfo for the given
// strategy and action. Cancellability defaults to true; use
// WithCancellable(false) to clear the flag on a specific acquisition.
func NewBaseInfo(strategyID StrategyID, actionID ActionID) BaseInfo {
	return BaseInfo{
		strategyID:  strategyID,
		actionID:    actionID,
		uniqueID:    NewUniqueID(),
		cancellable: true,
	}
}

// WithCancellable returns a copy of b with the cancellability flag set.
func (b BaseInfo) WithCancellable(v bool) BaseInfo {
	b.cancellable = v
	return b
}

func (b BaseInfo) StrategyID() StrategyID { return b.strategyID }
func (b BaseInfo) ActionID() ActionID     { return b.actionID }
func (b BaseInfo) UniqueID() UniqueID     { return b.uniqueID }
func (b BaseInfo) IsCancellable() bool    { return b.cancellable }

// SameAcquisition reports whether a and b identify the exact same committed
// acquisition — the sole identity test used by unlock.
func SameAcquisition(a, b LockInfo) bool {
	if a == nil || b == nil {
		return false
	}
	return a.UniqueID() == b.UniqueID()
}
