package domain

// User and Transaction are owned by the marketplace. The chat service
// only reads them, apart from the implicit transaction created for a trade room.

type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Transaction struct {
	ID       int64  `json:"id"`
	BuyerID  string `json:"buyer_id"`
	SellerID string `json:"seller_id"`
	ItemID   *int64 `json:"item_id,omitempty"`
}
