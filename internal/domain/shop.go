package domain

// Shop is the pickup point every delivery starts from.
type Shop struct {
	ShopID   int64
	Name     string
	Position Coordinates
}
