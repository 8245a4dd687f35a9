package ledger

import (
	"fmt"

	"github.com/holiman/uint256"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
	Err     error
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	if r.Err == nil {
		return fmt.Errorf("%s", r.Reason)
	}
	if r.Reason == "" || r.Reason == r.Err.Error() {
		return r.Err
	}
	return fmt.Errorf("%w: %s", r.Err, r.Reason)
}

func deny(err error, format string, args ...any) GuardResult {
	return GuardResult{Allowed: false, Reason: fmt.Sprintf(format, args...), Err: err}
}

var allowed = GuardResult{Allowed: true}

// MintContext provides context for mint guards.
type MintContext struct {
	Caller      Address
	Owner       Address
	To          Address
	Amount      *uint256.Int
	TotalSupply *uint256.Int
}

// CanMint evaluates whether tokens can be minted.
// Rules:
// - Caller must be the owner
// - Receiver must not be the zero address
// - totalSupply + amount must not exceed MaxSupply
func CanMint(ctx MintContext) GuardResult {
	if ctx.Caller != ctx.Owner {
		return deny(ErrUnauthorized, "%s cannot mint", ctx.Caller)
	}
	if ctx.To.IsZero() {
		return deny(ErrInvalidAddress, "cannot mint to the zero address")
	}
	next, overflow := new(uint256.Int).AddOverflow(ctx.TotalSupply, ctx.Amount)
	if overflow || next.Gt(MaxSupply) {
		return GuardResult{Allowed: false, Reason: ErrSupplyExceeded.Error(), Err: ErrSupplyExceeded}
	}
	return allowed
}

// BurnContext provides context for burn guards.
type BurnContext struct {
	Caller  Address
	Amount  *uint256.Int
	Balance *uint256.Int
}

// CanBurn evaluates whether the caller can burn from its own balance.
// Rules:
// - amount must not exceed the caller's balance
func CanBurn(ctx BurnContext) GuardResult {
	if ctx.Caller.IsZero() {
		return deny(ErrInvalidAddress, "cannot burn from the zero address")
	}
	if ctx.Amount.Gt(ctx.Balance) {
		return deny(ErrInsufficientBalance, "%s has %s, needs %s", ctx.Caller, ctx.Balance.Dec(), ctx.Amount.Dec())
	}
	return allowed
}

// TransferContext provides context for transfer guards.
type TransferContext struct {
	From    Address
	To      Address
	Amount  *uint256.Int
	Balance *uint256.Int
	Paused  bool
}

// CanTransfer evaluates whether value can move between two accounts.
// Rules:
// - Ledger must not be paused
// - Neither side may be the zero address
// - amount must not exceed the sender's balance
func CanTransfer(ctx TransferContext) GuardResult {
	if ctx.Paused {
		return deny(ErrPaused, "transfer rejected while paused")
	}
	if ctx.From.IsZero() || ctx.To.IsZero() {
		return deny(ErrInvalidAddress, "cannot transfer to or from the zero address")
	}
	if ctx.Amount.Gt(ctx.Balance) {
		return deny(ErrInsufficientBalance, "%s has %s, needs %s", ctx.From, ctx.Balance.Dec(), ctx.Amount.Dec())
	}
	return allowed
}

// AllowanceContext provides context for allowance spending guards.
type AllowanceContext struct {
	Owner     Address
	Spender   Address
	Amount    *uint256.Int
	Allowance *uint256.Int
}

// CanSpendAllowance evaluates whether a spender may move amount on the owner's behalf.
func CanSpendAllowance(ctx AllowanceContext) GuardResult {
	if ctx.Amount.Gt(ctx.Allowance) {
		return deny(ErrInsufficientAllowance, "%s may spend %s of %s, needs %s",
			ctx.Spender, ctx.Allowance.Dec(), ctx.Owner, ctx.Amount.Dec())
	}
	return allowed
}

// ApproveContext provides context for approval guards.
type ApproveContext struct {
	Owner   Address
	Spender Address
}

// CanApprove evaluates whether an allowance can be set.
func CanApprove(ctx ApproveContext) GuardResult {
	if ctx.Owner.IsZero() || ctx.Spender.IsZero() {
		return deny(ErrInvalidAddress, "cannot approve to or from the zero address")
	}
	return allowed
}

// PauseContext provides context for pause toggles.
type PauseContext struct {
	Caller Address
	Owner  Address
	Paused bool
}

// CanPause evaluates whether the ledger can be paused.
// Pausing an already paused ledger is rejected.
func CanPause(ctx PauseContext) GuardResult {
	if ctx.Caller != ctx.Owner {
		return deny(ErrUnauthorized, "%s cannot pause", ctx.Caller)
	}
	if ctx.Paused {
		return GuardResult{Allowed: false, Reason: ErrAlreadyPaused.Error(), Err: ErrAlreadyPaused}
	}
	return allowed
}

// CanUnpause evaluates whether the ledger can be unpaused.
func CanUnpause(ctx PauseContext) GuardResult {
	if ctx.Caller != ctx.Owner {
		return deny(ErrUnauthorized, "%s cannot unpause", ctx.Caller)
	}
	if !ctx.Paused {
		return GuardResult{Allowed: false, Reason: ErrNotPaused.Error(), Err: ErrNotPaused}
	}
	return allowed
}
