package ledger

import "errors"

var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrSupplyOverflow        = errors.New("total supply overflow")
	ErrInvalidSender         = errors.New("invalid sender")
	ErrInvalidReceiver       = errors.New("invalid receiver")
	ErrInvalidSpender        = errors.New("invalid spender")
	ErrInvalidApprover       = errors.New("invalid approver")
	ErrInvalidState          = errors.New("invalid ledger state")
)
