package repository

import (
	"fmt"
	"sync"
	"time"

	"auction-hub/internal/auctionerrors"
	model "auction-hub/internal/models"
	"auction-hub/utils"
)

// AuctionStore is the contract the bidding engine requires from the data
// store. Everything behind it is owned by the persistence layer; the engine
// never sees transactions or rows, only these four operations.
type AuctionStore interface {
	// FetchAuctionWithBids returns the auction plus its bids, newest first.
	FetchAuctionWithBids(auctionID string) (model.AuctionSnapshot, error)
	// InsertBid appends an immutable bid record and returns it with the
	// bidder identity denormalized for broadcast.
	InsertBid(auctionID, profileID string, amount float64) (model.Bid, error)
	// UpdateAuctionCurrentBid conditionally moves the auction's current bid
	// from expectedPrevious to newAmount and bumps the bid count. It fails
	// with ErrStaleCurrentBid when the stored value no longer matches
	// expectedPrevious; this conditional write is the serialization
	// primitive AcceptBid builds on.
	UpdateAuctionCurrentBid(auctionID string, expectedPrevious, newAmount float64) error
	// AcceptBid combines the conditional current-bid update and the bid
	// record append into one atomic operation: either both land or neither
	// does, so a failed acceptance can never leave the auction pointing at
	// a bid that was not recorded.
	AcceptBid(auctionID, profileID string, expectedPrevious, amount float64) (model.Bid, error)
	// ResolveProfile maps an opaque user handle to its profile.
	ResolveProfile(userID string) (model.Profile, error)
}

// MemoryStore is a concurrency-safe in-memory implementation of AuctionStore.
type MemoryStore struct {
	mu             sync.RWMutex
	auctions       map[string]model.Auction   // key: auctionID
	bids           map[string][]model.Bid     // key: auctionID -> bids in insertion order
	profilesByUser map[string]model.Profile   // key: userID
	profilesByID   map[string]model.Profile   // key: profileID
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		auctions:       make(map[string]model.Auction),
		bids:           make(map[string][]model.Bid),
		profilesByUser: make(map[string]model.Profile),
		profilesByID:   make(map[string]model.Profile),
	}
}

// FetchAuctionWithBids returns a copy of the auction and its bids, newest first.
func (s *MemoryStore) FetchAuctionWithBids(auctionID string) (model.AuctionSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	auction, ok := s.auctions[auctionID]
	if !ok {
		return model.AuctionSnapshot{}, fmt.Errorf("fetch auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}

	// stored oldest first; reversal gives a deterministic newest-first order
	// even when timestamps collide
	stored := s.bids[auctionID]
	bids := make([]model.Bid, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		bids = append(bids, stored[i])
	}

	return model.AuctionSnapshot{Auction: auction, Bids: bids}, nil
}

// InsertBid appends a bid record with the bidder denormalized from the profile.
func (s *MemoryStore) InsertBid(auctionID, profileID string, amount float64) (model.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.auctions[auctionID]; !ok {
		return model.Bid{}, fmt.Errorf("insert bid for auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	profile, ok := s.profilesByID[profileID]
	if !ok {
		return model.Bid{}, fmt.Errorf("insert bid for auction %s: %w", auctionID, auctionerrors.ErrProfileNotFound)
	}

	bid := model.Bid{
		BidID:     utils.GenerateID(),
		AuctionID: auctionID,
		Bidder: model.Bidder{
			ProfileID:  profile.ProfileID,
			FullName:   profile.FullName,
			IsVerified: profile.IsVerified,
		},
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	}
	s.bids[auctionID] = append(s.bids[auctionID], bid)

	return bid, nil
}

// UpdateAuctionCurrentBid performs the compare-and-swap on the current-bid field.
func (s *MemoryStore) UpdateAuctionCurrentBid(auctionID string, expectedPrevious, newAmount float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	auction, ok := s.auctions[auctionID]
	if !ok {
		return fmt.Errorf("update current bid for auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	if auction.CurrentBid != expectedPrevious {
		return fmt.Errorf("update current bid for auction %s: %w", auctionID, auctionerrors.ErrStaleCurrentBid)
	}

	auction.CurrentBid = newAmount
	auction.TotalBids++
	s.auctions[auctionID] = auction

	return nil
}

// AcceptBid performs the compare-and-swap and the bid append under one lock.
func (s *MemoryStore) AcceptBid(auctionID, profileID string, expectedPrevious, amount float64) (model.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	auction, ok := s.auctions[auctionID]
	if !ok {
		return model.Bid{}, fmt.Errorf("accept bid for auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	if auction.CurrentBid != expectedPrevious {
		return model.Bid{}, fmt.Errorf("accept bid for auction %s: %w", auctionID, auctionerrors.ErrStaleCurrentBid)
	}
	profile, ok := s.profilesByID[profileID]
	if !ok {
		return model.Bid{}, fmt.Errorf("accept bid for auction %s: %w", auctionID, auctionerrors.ErrProfileNotFound)
	}

	bid := model.Bid{
		BidID:     utils.GenerateID(),
		AuctionID: auctionID,
		Bidder: model.Bidder{
			ProfileID:  profile.ProfileID,
			FullName:   profile.FullName,
			IsVerified: profile.IsVerified,
		},
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	}

	auction.CurrentBid = amount
	auction.TotalBids++
	s.auctions[auctionID] = auction
	s.bids[auctionID] = append(s.bids[auctionID], bid)

	return bid, nil
}

// ResolveProfile looks up the profile for an opaque user handle.
func (s *MemoryStore) ResolveProfile(userID string) (model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profilesByUser[userID]
	if !ok {
		return model.Profile{}, fmt.Errorf("resolve profile for user %s: %w", userID, auctionerrors.ErrProfileNotFound)
	}
	return profile, nil
}

// AddAuction seeds an auction. Intended for tests and demo data.
func (s *MemoryStore) AddAuction(auction model.Auction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auctions[auction.AuctionID] = auction
}

// AddProfile seeds a profile. Intended for tests and demo data.
func (s *MemoryStore) AddProfile(profile model.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profilesByUser[profile.UserID] = profile
	s.profilesByID[profile.ProfileID] = profile
}
