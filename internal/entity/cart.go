package entity

type CartItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// CartProduct is a catalog product joined with the quantity held in a cart.
type CartProduct struct {
	Product
	Quantity int `json:"quantity"`
}
