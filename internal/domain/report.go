package domain

import "time"

// Marketplace after-tax multipliers applied to gross upgrade profit.
// The merchant rate reflects the value-pack/merchant-ring fee reduction.
const (
	NormalTaxRate   = 0.85475
	MerchantTaxRate = 0.88725
)

// AfterTaxRate returns the profit multiplier for the seller kind.
func AfterTaxRate(merchant bool) float64 {
	if merchant {
		return MerchantTaxRate
	}
	return NormalTaxRate
}

// ProfitReportRow is one derived profitability observation for an (item, tier)
// pair. Corresponds to the report tables in PostgreSQL.
// Identity key: (AnalyzeTime, Name, Tier); conflicting inserts are ignored so
// report generation is safely re-runnable within the same hour.
type ProfitReportRow struct {
	AnalyzeTime time.Time // analysis time, truncated to the hour
	Category    Category
	Name        string
	Tier        int
	Price       int64 // last sold price at this tier
	Profit      float64
	Rate        float64 // rate of return, 1.0 = break-even
	Stock       int64
}
