package auctionerrors

import "errors"

// Repository-level errors
var (
	ErrAuctionNotFound = errors.New("auction not found")
	ErrProfileNotFound = errors.New("profile not found")
	ErrNoBids          = errors.New("no bids found for auction")
	// ErrStaleCurrentBid is returned by the conditional current-bid update
	// when another writer got there first.
	ErrStaleCurrentBid = errors.New("current bid changed since read")
)

// Business-rule errors
var (
	ErrInvalidBid         = errors.New("invalid bid")
	ErrBidTooLow          = errors.New("bid amount too low")
	ErrAuctionNotBiddable = errors.New("auction is not available for bidding")
)
