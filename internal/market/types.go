package market

// itemRecord is one raw item row as returned by the upstream world-market
// API. Only the fields this pipeline consumes are decoded.
type itemRecord struct {
	Name          string `json:"name"`
	ID            int    `json:"id"`
	Sid           int    `json:"sid"`
	MinEnhance    int    `json:"minEnhance"`
	MaxEnhance    int    `json:"maxEnhance"`
	BasePrice     int64  `json:"basePrice"`
	CurrentStock  int64  `json:"currentStock"`
	TotalTrades   int64  `json:"totalTrades"`
	PriceMin      int64  `json:"priceMin"`
	PriceMax      int64  `json:"priceMax"`
	LastSoldPrice int64  `json:"lastSoldPrice"`
	LastSoldTime  int64  `json:"lastSoldTime"` // unix seconds
}

// Selector identifies the items a fetch targets. Either explicit IDs or a
// catalog name that resolves to them.
type Selector struct {
	ItemName string // resolved through the catalog when IDs is empty
	IDs      []int
	Tier     *int // optional sid filter, 0..20
}
