package domain

// Product is a catalog record as served by the remote catalog.
type Product struct {
	ID    int64
	Title string
	Price Money
	Image string
}

// Stock is the inventory currently available for a product.
type Stock struct {
	ProductID int64
	Amount    int
}
