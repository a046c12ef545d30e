package model

// LedgerState is the serialized form of a fungible-token ledger.
type LedgerState struct {
	Address     string                       `json:"address"`
	Name        string                       `json:"name"`
	Symbol      string                       `json:"symbol"`
	Decimals    uint8                        `json:"decimals"`
	TotalSupply string                       `json:"total_supply"`
	Balances    map[string]string            `json:"balances"`
	Allowances  map[string]map[string]string `json:"allowances,omitempty"`
}

// TokenState is a collaborator token ledger plus its mint owner.
type TokenState struct {
	Owner  string      `json:"owner"`
	Ledger LedgerState `json:"ledger"`
}

// PoolState is the serialized pool: pair, explicit reserves and share ledger.
type PoolState struct {
	Address  string      `json:"address"`
	Token0   string      `json:"token0"`
	Token1   string      `json:"token1"`
	Reserve0 string      `json:"reserve0"`
	Reserve1 string      `json:"reserve1"`
	Shares   LedgerState `json:"shares"`
}

// Snapshot is the full engine state persisted between runs.
type Snapshot struct {
	Tokens    []TokenState `json:"tokens"`
	Pool      PoolState    `json:"pool"`
	Sequence  uint64       `json:"sequence"`
	UpdatedAt string       `json:"updated_at"`
}
