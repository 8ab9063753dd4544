package model

// EstimateRecord is one depth estimate result prepared for storage.
type EstimateRecord struct {
	ChainID      uint64 `json:"chain_id"`
	Pool         string `json:"pool"`
	Token0       string `json:"token0,omitempty"`
	Token1       string `json:"token1,omitempty"`
	BlockNumber  uint64 `json:"block_number,omitempty"`
	SqrtPriceX96 string `json:"sqrt_price_x96"`
	Tick         int32  `json:"tick"`
	Liquidity    string `json:"liquidity"`
	DepthOffset  string `json:"depth_offset"`
	Side         string `json:"side"`
	Unit         string `json:"unit"`
	Amount       string `json:"amount"`
	Timestamp    uint64 `json:"timestamp,omitempty"`
}
