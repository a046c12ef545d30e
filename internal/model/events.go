package model

// Event names emitted by the pool and the token ledgers.
const (
	EventTransfer         = "Transfer"
	EventApproval         = "Approval"
	EventLiquidityAdded   = "LiquidityAdded"
	EventLiquidityRemoved = "LiquidityRemoved"

	EventOwnershipTransferred = "OwnershipTransferred"
)

// TransferEventData is the Transfer event payload.
type TransferEventData struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Value string `json:"value"`
}

// ApprovalEventData is the Approval event payload.
type ApprovalEventData struct {
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
	Value   string `json:"value"`
}

// LiquidityAddedEventData is the LiquidityAdded event payload.
type LiquidityAddedEventData struct {
	Provider  string `json:"provider"`
	AmountA   string `json:"amount_a"`
	AmountB   string `json:"amount_b"`
	Liquidity string `json:"liquidity"`
}

// LiquidityRemovedEventData is the LiquidityRemoved event payload.
type LiquidityRemovedEventData struct {
	Provider  string `json:"provider"`
	AmountA   string `json:"amount_a"`
	AmountB   string `json:"amount_b"`
	Liquidity string `json:"liquidity"`
}

// OwnershipTransferredEventData is the OwnershipTransferred event payload.
type OwnershipTransferredEventData struct {
	PreviousOwner string `json:"previous_owner"`
	NewOwner      string `json:"new_owner"`
}
