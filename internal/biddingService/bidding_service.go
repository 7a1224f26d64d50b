package bidding

import (
	"errors"
	"fmt"
	"time"

	"auction-hub/internal/auctionerrors"
	model "auction-hub/internal/models"
	"auction-hub/internal/repository"
	"auction-hub/utils"
)

// wireBidLimit caps the bid history sent to a joining session. The full
// history stays available through the REST surface.
const wireBidLimit = 10

// BiddingService implements the bid acceptance protocol on top of the store.
type BiddingService struct {
	store repository.AuctionStore
}

// NewBiddingService creates a new BiddingService instance
func NewBiddingService(store repository.AuctionStore) *BiddingService {
	return &BiddingService{
		store: store,
	}
}

// ValidateBid is the pure accept/reject decision for a proposed amount
// against an auction's current state. The amount must strictly exceed the
// floor; the configured increment is advisory only.
func ValidateBid(auction model.Auction, amount float64) error {
	if !auction.Status.Biddable() {
		return fmt.Errorf("service: %w - status is %s", auctionerrors.ErrAuctionNotBiddable, auction.Status)
	}
	if amount <= auction.Floor() {
		if auction.CurrentBid > 0 {
			return fmt.Errorf("service: %w - must be greater than current highest bid of %.2f", auctionerrors.ErrBidTooLow, auction.CurrentBid)
		}
		return fmt.Errorf("service: %w - must be greater than starting bid of %.2f", auctionerrors.ErrBidTooLow, auction.StartingBid)
	}
	return nil
}

// PlaceBid runs the full acceptance protocol for a user's bid: resolve the
// bidder, validate against the current floor, then win the store's atomic
// accept, which swaps the auction's current bid and appends the bid record
// together. Two bids racing for the same floor cannot both be accepted; the
// conditional swap inside the accept is the serialization point. Because the
// swap and the record land atomically, a failed acceptance leaves the
// auction untouched. A stale accept is retried once against the fresh floor;
// losing again is reported as a too-low bid.
func (s *BiddingService) PlaceBid(auctionID, userID string, amount float64) (model.Bid, float64, error) {
	if auctionID == "" || userID == "" {
		return model.Bid{}, 0, fmt.Errorf("service: %w - missing auctionID or userID", auctionerrors.ErrInvalidBid)
	}
	if amount <= 0 {
		return model.Bid{}, 0, fmt.Errorf("service: %w - non-positive bid amount", auctionerrors.ErrInvalidBid)
	}

	profile, err := s.store.ResolveProfile(userID)
	if err != nil {
		if errors.Is(err, auctionerrors.ErrProfileNotFound) {
			return model.Bid{}, 0, fmt.Errorf("service: %w", auctionerrors.ErrProfileNotFound)
		}
		return model.Bid{}, 0, fmt.Errorf("service: failed to resolve bidder %s: %w", userID, err)
	}

	snapshot, err := s.store.FetchAuctionWithBids(auctionID)
	if err != nil {
		return model.Bid{}, 0, fmt.Errorf("service: failed to read auction %s: %w", auctionID, err)
	}
	if err := ValidateBid(snapshot.Auction, amount); err != nil {
		return model.Bid{}, 0, err
	}

	bid, err := s.store.AcceptBid(auctionID, profile.ProfileID, snapshot.Auction.CurrentBid, amount)
	if errors.Is(err, auctionerrors.ErrStaleCurrentBid) {
		// Lost the race. Re-read, re-validate against the new floor, and try
		// the accept once more.
		snapshot, err = s.store.FetchAuctionWithBids(auctionID)
		if err != nil {
			return model.Bid{}, 0, fmt.Errorf("service: failed to re-read auction %s: %w", auctionID, err)
		}
		if err := ValidateBid(snapshot.Auction, amount); err != nil {
			return model.Bid{}, 0, err
		}
		bid, err = s.store.AcceptBid(auctionID, profile.ProfileID, snapshot.Auction.CurrentBid, amount)
		if errors.Is(err, auctionerrors.ErrStaleCurrentBid) {
			return model.Bid{}, 0, fmt.Errorf("service: %w - current highest bid has moved again", auctionerrors.ErrBidTooLow)
		}
	}
	if err != nil {
		return model.Bid{}, 0, fmt.Errorf("service: failed to record bid for auction %s by user %s: %w", auctionID, userID, err)
	}

	return bid, amount, nil
}

// Snapshot returns the full authoritative auction view, bids newest first.
func (s *BiddingService) Snapshot(auctionID string) (model.AuctionSnapshot, error) {
	if auctionID == "" {
		return model.AuctionSnapshot{}, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidBid)
	}

	snapshot, err := s.store.FetchAuctionWithBids(auctionID)
	if err != nil {
		return model.AuctionSnapshot{}, fmt.Errorf("service: failed to get snapshot for auction %s: %w", auctionID, err)
	}
	return snapshot, nil
}

// AuctionStatus returns the snapshot trimmed to the most recent bids, the
// shape delivered to a session on join.
func (s *BiddingService) AuctionStatus(auctionID string) (model.AuctionSnapshot, error) {
	snapshot, err := s.Snapshot(auctionID)
	if err != nil {
		return model.AuctionSnapshot{}, err
	}
	if len(snapshot.Bids) > wireBidLimit {
		snapshot.Bids = snapshot.Bids[:wireBidLimit]
	}
	return snapshot, nil
}

// WinningBid returns the highest accepted bid for an auction.
func (s *BiddingService) WinningBid(auctionID string) (model.Bid, error) {
	snapshot, err := s.Snapshot(auctionID)
	if err != nil {
		return model.Bid{}, err
	}
	if len(snapshot.Bids) == 0 {
		return model.Bid{}, fmt.Errorf("service: %w", auctionerrors.ErrNoBids)
	}
	// Accepted amounts are strictly increasing, so newest is highest.
	return snapshot.Bids[0], nil
}

// ResolveProfileID maps an opaque user handle to its profile identifier.
func (s *BiddingService) ResolveProfileID(userID string) (string, error) {
	profile, err := s.store.ResolveProfile(userID)
	if err != nil {
		return "", fmt.Errorf("service: failed to resolve profile for user %s: %w", userID, err)
	}
	return profile.ProfileID, nil
}

// ComposeChatMessage builds a broadcast-ready chat message with the author's
// display name resolved from their profile.
func (s *BiddingService) ComposeChatMessage(userID, text string) model.ChatMessage {
	author := "Anonymous"
	if profile, err := s.store.ResolveProfile(userID); err == nil && profile.FullName != "" {
		author = profile.FullName
	}

	return model.ChatMessage{
		ID:        utils.GenerateID(),
		User:      author,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
}
