package model

// TypedEvent is a pool or token event, either emitted locally by the engine
// or decoded from a chain log. Chain fields are empty for local events.
type TypedEvent struct {
	ChainID     uint64      `json:"chain_id,omitempty"`
	BlockNumber uint64      `json:"block_number,omitempty"`
	BlockHash   string      `json:"block_hash,omitempty"`
	TxHash      string      `json:"tx_hash,omitempty"`
	TxID        string      `json:"tx_id,omitempty"`
	LogIndex    uint64      `json:"log_index"`
	Address     string      `json:"address"`
	EventName   string      `json:"event_name"`
	Timestamp   uint64      `json:"timestamp"`
	Decoded     interface{} `json:"decoded"`
	Pair        *PairMeta   `json:"pair,omitempty"`
	Raw         *RawLogRef  `json:"raw,omitempty"`
}

// RawLogRef keeps a minimal raw reference for traceability.
type RawLogRef struct {
	Topic0 string `json:"topic0"`
	Data   string `json:"data"`
}
