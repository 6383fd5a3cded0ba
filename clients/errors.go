package clients

import "github.com/flarepay/paylink/types"

// Ledger failure cause codes, carried in the Data field of a LEDGER_FAILURE
// error so callers can tell a user rejection from an empty wallet.
const (
	CauseRejected             = "rejected"
	CauseInsufficientFunds    = "insufficient_funds"
	CauseNetworkMismatch      = "network_mismatch"
	CauseBroadcastFailed      = "broadcast_failed"
	CauseConfirmationTimedOut = "confirmation_timed_out"
)

func ledgerError(cause, message string, err error) *types.Error {
	return &types.Error{
		Code:    types.ErrLedgerFailure,
		Message: message,
		Data:    cause,
		Err:     err,
	}
}

// LedgerCause extracts the cause code from a LEDGER_FAILURE error, or empty.
func LedgerCause(err error) string {
	var e *types.Error
	for err != nil {
		if te, ok := err.(*types.Error); ok {
			e = te
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if e == nil || e.Code != types.ErrLedgerFailure {
		return ""
	}
	cause, _ := e.Data.(string)
	return cause
}
