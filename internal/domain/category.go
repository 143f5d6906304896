package domain

// Category classifies a market item by the game-shop grouping it belongs to.
type Category string

const (
	CategoryBuff      Category = "buff"
	CategoryCostume   Category = "costume"
	CategoryAccessory Category = "accessory"
	CategoryUnknown   Category = "unknown"
)

// ParseCategory maps a raw string onto a known category, defaulting to unknown.
func ParseCategory(s string) Category {
	switch Category(s) {
	case CategoryBuff, CategoryCostume, CategoryAccessory:
		return Category(s)
	default:
		return CategoryUnknown
	}
}
