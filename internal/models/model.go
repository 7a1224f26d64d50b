package models

import "time"

// AuctionStatus is the lifecycle state of an auction. Transitions are owned
// by the auction management side; the bidding engine only reads it.
type AuctionStatus string

const (
	StatusDraft     AuctionStatus = "draft"
	StatusUpcoming  AuctionStatus = "upcoming"
	StatusLive      AuctionStatus = "live"
	StatusEnded     AuctionStatus = "ended"
	StatusCancelled AuctionStatus = "cancelled"
)

// Biddable reports whether bids may be accepted in this status. Upcoming is
// included so a bid arriving right at the go-live transition is not lost.
func (s AuctionStatus) Biddable() bool {
	return s == StatusLive || s == StatusUpcoming
}

// Auction represents the current state of a single auction listing.
// CurrentBid is 0 until the first bid is accepted.
type Auction struct {
	AuctionID     string        `json:"id"`
	Title         string        `json:"title"`
	StartingBid   float64       `json:"starting_bid"`
	CurrentBid    float64       `json:"current_bid"`
	BidIncrement  float64       `json:"bid_increment"`
	Status        AuctionStatus `json:"status"`
	TotalBids     int           `json:"total_bids"`
	TotalWatchers int           `json:"total_watchers"`
	StartTime     time.Time     `json:"start_time"`
	EndTime       time.Time     `json:"end_time"`
}

// Floor returns the amount a new bid must strictly exceed: the current
// highest bid if one exists, otherwise the starting bid. The bid increment
// is a UI suggestion and takes no part in acceptance.
func (a Auction) Floor() float64 {
	if a.CurrentBid > 0 {
		return a.CurrentBid
	}
	return a.StartingBid
}

// Bidder is the denormalized public identity attached to a bid for display.
type Bidder struct {
	ProfileID  string `json:"profile_id"`
	FullName   string `json:"full_name"`
	IsVerified bool   `json:"is_verified"`
}

// Bid is an immutable record of an accepted bid.
type Bid struct {
	BidID     string    `json:"bid_id"`
	AuctionID string    `json:"auction_id"`
	Bidder    Bidder    `json:"bidder"`
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile is the resolved identity behind a connected user.
type Profile struct {
	ProfileID  string `json:"profile_id"`
	UserID     string `json:"user_id"`
	FullName   string `json:"full_name"`
	IsVerified bool   `json:"is_verified"`
}

// ChatMessage is an ephemeral room chat entry. It exists only on the wire
// and in client transcripts; it is never persisted.
type ChatMessage struct {
	ID        string    `json:"id"`
	User      string    `json:"user"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// AuctionSnapshot is the authoritative view handed to joining or polling
// clients: the auction row plus its bids, newest first.
type AuctionSnapshot struct {
	Auction Auction `json:"auction"`
	Bids    []Bid   `json:"bids"`
}
