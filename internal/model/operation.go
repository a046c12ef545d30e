package model

// Operation kinds accepted by the engine.
const (
	OpAddLiquidity             = "add_liquidity"
	OpRemoveLiquidity          = "remove_liquidity"
	OpSwapExactTokensForTokens = "swap_exact_tokens_for_tokens"
	OpTransfer                 = "transfer"
	OpApprove                  = "approve"
	OpTransferFrom             = "transfer_from"
	OpTokenTransfer            = "token_transfer"
	OpTokenApprove             = "token_approve"
	OpTokenMint                = "token_mint"
	OpTokenTransferOwnership   = "token_transfer_ownership"
	OpTokenRenounceOwnership   = "token_renounce_ownership"
)

// Operation is a single request against the pool or one of its tokens.
// Amounts are base-10 integer strings; only the fields relevant to Op are read.
type Operation struct {
	ID        string `json:"id,omitempty"`
	Op        string `json:"op"`
	Caller    string `json:"caller"`
	Timestamp uint64 `json:"timestamp,omitempty"`
	Deadline  uint64 `json:"deadline,omitempty"`

	TokenA         string `json:"token_a,omitempty"`
	TokenB         string `json:"token_b,omitempty"`
	AmountADesired string `json:"amount_a_desired,omitempty"`
	AmountBDesired string `json:"amount_b_desired,omitempty"`
	AmountAMin     string `json:"amount_a_min,omitempty"`
	AmountBMin     string `json:"amount_b_min,omitempty"`
	Liquidity      string `json:"liquidity,omitempty"`

	AmountIn     string   `json:"amount_in,omitempty"`
	AmountOutMin string   `json:"amount_out_min,omitempty"`
	Path         []string `json:"path,omitempty"`

	Token   string `json:"token,omitempty"`
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
	Spender string `json:"spender,omitempty"`
	Amount  string `json:"amount,omitempty"`

	NewOwner string `json:"new_owner,omitempty"`
}

// Operation statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// OperationResult records the outcome of an applied operation.
type OperationResult struct {
	ID          string            `json:"id"`
	Op          string            `json:"op"`
	Caller      string            `json:"caller"`
	Sequence    uint64            `json:"sequence"`
	Timestamp   uint64            `json:"timestamp"`
	Status      string            `json:"status"`
	Error       string            `json:"error,omitempty"`
	Outputs     map[string]string `json:"outputs,omitempty"`
	Events      []TypedEvent      `json:"events,omitempty"`
	Reserve0    string            `json:"reserve0"`
	Reserve1    string            `json:"reserve1"`
	TotalSupply string            `json:"total_supply"`
}
