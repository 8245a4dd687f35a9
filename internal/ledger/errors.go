package ledger

import "errors"

// Revert reasons. Guards wrap these so callers can map them with errors.Is.
var (
	ErrUnauthorized          = errors.New("caller is not the owner")
	ErrSupplyExceeded        = errors.New("UPX: Max supply exceeded")
	ErrPaused                = errors.New("token transfers are paused")
	ErrAlreadyPaused         = errors.New("ledger is already paused")
	ErrNotPaused             = errors.New("ledger is not paused")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrInvalidAddress        = errors.New("invalid address")
	ErrInvalidAmount         = errors.New("invalid amount")
)

// Code returns a stable machine-readable name for a revert error, or "" if
// err is not a ledger revert.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "Unauthorized"
	case errors.Is(err, ErrSupplyExceeded):
		return "SupplyExceeded"
	case errors.Is(err, ErrPaused):
		return "Paused"
	case errors.Is(err, ErrAlreadyPaused):
		return "EnforcedPause"
	case errors.Is(err, ErrNotPaused):
		return "ExpectedPause"
	case errors.Is(err, ErrInsufficientBalance):
		return "InsufficientBalance"
	case errors.Is(err, ErrInsufficientAllowance):
		return "InsufficientAllowance"
	case errors.Is(err, ErrInvalidAddress):
		return "InvalidAddress"
	case errors.Is(err, ErrInvalidAmount):
		return "InvalidAmount"
	}
	return ""
}
