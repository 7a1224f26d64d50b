package helpers

// Request/Response DTOs
type PlaceBidRequest struct {
	UserID string  `json:"user_id" binding:"required"`
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

type BidResponse struct {
	BidID      string  `json:"bid_id"`
	AuctionID  string  `json:"auction_id"`
	Bidder     string  `json:"bidder"`
	IsVerified bool    `json:"is_verified"`
	Amount     float64 `json:"amount"`
	CreatedAt  string  `json:"created_at"`
}
