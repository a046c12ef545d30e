package model

// TokenMeta is the ERC20 metadata of one side of a pair.
type TokenMeta struct {
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
}

// PairMeta captures the immutable token pair of a deployed pool.
type PairMeta struct {
	Token0 string     `json:"token0"`
	Token1 string     `json:"token1"`
	Meta0  *TokenMeta `json:"meta0,omitempty"`
	Meta1  *TokenMeta `json:"meta1,omitempty"`
}

// PairState is a point-in-time read of a pool's reserves and share supply.
type PairState struct {
	Address     string `json:"address"`
	Token0      string `json:"token0"`
	Token1      string `json:"token1"`
	Reserve0    string `json:"reserve0"`
	Reserve1    string `json:"reserve1"`
	TotalSupply string `json:"total_supply"`
	BlockNumber uint64 `json:"block_number,omitempty"`
}
