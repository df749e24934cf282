package lockman

// VerdictKind is the three-valued result of can_lock.
type VerdictKind int

const (
	// VerdictSuccess admits the acquisition outright.
	VerdictSuccess VerdictKind = iota
	// VerdictSuccessWithPrecedingCancellation admits the acquisition and
	// names a prior one (Err's Victim fields) the caller must cancel.
	VerdictSuccessWithPrecedingCancellation
	// VerdictCancel refuses the acquisition.
	VerdictCancel
)

func (k VerdictKind) String() string {
	switch k {
	case VerdictSuccess:
		return "Success"
	case VerdictSuccessWithPrecedingCancellation:
		return "SuccessWithPrecedingCancellation"
	case VerdictCancel:
		return "Cancel"
	default:
		return "Unknown"
	}
}

// Verdict is the result of Strategy.CanLock.
type Verdict struct {
	Kind VerdictKind
	// Err is nil for VerdictSuccess. For VerdictSuccessWithPrecedingCancellation
	// and VerdictCancel it is always a non-nil *CancellationError.
	Err error
}

// Success builds a VerdictSuccess.
func Success() Verdict { return Verdict{Kind: VerdictSuccess} }

// SuccessWithPrecedingCancellation builds a VerdictSuccessWithPrecedingCancellation
// carrying err, which must identify the victim (err.Victim/err.VictimBoundary).
func SuccessWithPrecedingCancellation(err *CancellationError) Verdict {
	return Verdict{Kind: VerdictSuccessWithPrecedingCancellation, Err: err}
}

// Cancel builds a VerdictCancel carrying the refusal reason.
func Cancel(err *CancellationError) Verdict {
	return Verdict{Kind: VerdictCancel, Err: err}
}

// IsSuccess reports whether the acquisition may proceed (either verdict kind
// other than Cancel).
func (v Verdict) IsSuccess() bool {
	return v.Kind == VerdictSuccess || v.Kind == VerdictSuccessWithPrecedingCancellation
}

// HasPrecedingCancellation reports whether the coordinator must unlock a
// victim before committing the new acquisition.
func (v Verdict) HasPrecedingCancellation() bool {
	return v.Kind == VerdictSuccessWithPrecedingCancellation
}

// CancellationError, returned with Verdict.Err.
func (v Verdict) CancellationError() *CancellationError {
	if v.Err == nil {
		return nil
	}
	ce, _ := v.Err.(*CancellationError)
	return ce
}
