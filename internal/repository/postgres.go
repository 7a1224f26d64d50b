package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"auction-hub/internal/auctionerrors"
	model "auction-hub/internal/models"
	"auction-hub/internal/storage"
	"auction-hub/utils"
)

type auctionRow struct {
	ID            string  `gorm:"primaryKey;column:id"`
	Title         string  `gorm:"type:text"`
	StartingBid   float64
	CurrentBid    float64
	BidIncrement  float64
	Status        string  `gorm:"type:varchar(20)"`
	TotalBids     int
	TotalWatchers int
	StartTime     time.Time
	EndTime       time.Time
}

func (auctionRow) TableName() string { return "auctions" }

type bidRow struct {
	BidID     string `gorm:"primaryKey;column:bid_id"`
	AuctionID string `gorm:"index"`
	BidderID  string
	Amount    float64
	CreatedAt time.Time
}

func (bidRow) TableName() string { return "bids" }

type profileRow struct {
	ProfileID  string `gorm:"primaryKey;column:profile_id"`
	UserID     string `gorm:"uniqueIndex"`
	FullName   string `gorm:"type:text"`
	IsVerified bool
}

func (profileRow) TableName() string { return "profiles" }

// PostgresStore is the gorm-backed implementation of AuctionStore.
type PostgresStore struct {
	db *storage.PostgresDB
}

// NewPostgresStore creates a store on an open database handle.
func NewPostgresStore(db *storage.PostgresDB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates or updates the auctions, bids and profiles tables.
func (s *PostgresStore) Migrate() error {
	return s.db.AutoMigrate(&auctionRow{}, &bidRow{}, &profileRow{})
}

// FetchAuctionWithBids returns the auction and its bids, newest first, with
// bidder identities denormalized from the profiles table.
func (s *PostgresStore) FetchAuctionWithBids(auctionID string) (model.AuctionSnapshot, error) {
	var row auctionRow
	if err := s.db.First(&row, "id = ?", auctionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.AuctionSnapshot{}, fmt.Errorf("fetch auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
		}
		return model.AuctionSnapshot{}, fmt.Errorf("fetch auction %s: %w", auctionID, err)
	}

	var bidRows []bidRow
	if err := s.db.Where("auction_id = ?", auctionID).Order("created_at DESC").Find(&bidRows).Error; err != nil {
		return model.AuctionSnapshot{}, fmt.Errorf("fetch bids for auction %s: %w", auctionID, err)
	}

	bidders, err := s.biddersFor(bidRows)
	if err != nil {
		return model.AuctionSnapshot{}, fmt.Errorf("fetch bidders for auction %s: %w", auctionID, err)
	}

	bids := make([]model.Bid, 0, len(bidRows))
	for _, b := range bidRows {
		bids = append(bids, model.Bid{
			BidID:     b.BidID,
			AuctionID: b.AuctionID,
			Bidder:    bidders[b.BidderID],
			Amount:    b.Amount,
			CreatedAt: b.CreatedAt,
		})
	}

	return model.AuctionSnapshot{Auction: toAuction(row), Bids: bids}, nil
}

// InsertBid appends a bid row and returns the record with the bidder attached.
func (s *PostgresStore) InsertBid(auctionID, profileID string, amount float64) (model.Bid, error) {
	var profile profileRow
	if err := s.db.First(&profile, "profile_id = ?", profileID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Bid{}, fmt.Errorf("insert bid for auction %s: %w", auctionID, auctionerrors.ErrProfileNotFound)
		}
		return model.Bid{}, fmt.Errorf("insert bid for auction %s: %w", auctionID, err)
	}

	row := bidRow{
		BidID:     utils.GenerateID(),
		AuctionID: auctionID,
		BidderID:  profileID,
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.Create(&row).Error; err != nil {
		return model.Bid{}, fmt.Errorf("insert bid for auction %s: %w", auctionID, err)
	}

	return model.Bid{
		BidID:     row.BidID,
		AuctionID: row.AuctionID,
		Bidder: model.Bidder{
			ProfileID:  profile.ProfileID,
			FullName:   profile.FullName,
			IsVerified: profile.IsVerified,
		},
		Amount:    row.Amount,
		CreatedAt: row.CreatedAt,
	}, nil
}

// UpdateAuctionCurrentBid moves current_bid from expectedPrevious to
// newAmount in a single conditional UPDATE. Zero rows affected means another
// writer won the race (or the auction vanished).
func (s *PostgresStore) UpdateAuctionCurrentBid(auctionID string, expectedPrevious, newAmount float64) error {
	tx := s.db.Model(&auctionRow{}).
		Where("id = ? AND current_bid = ?", auctionID, expectedPrevious).
		Updates(map[string]interface{}{
			"current_bid": newAmount,
			"total_bids":  gorm.Expr("total_bids + 1"),
		})
	if tx.Error != nil {
		return fmt.Errorf("update current bid for auction %s: %w", auctionID, tx.Error)
	}
	if tx.RowsAffected == 0 {
		var count int64
		if err := s.db.Model(&auctionRow{}).Where("id = ?", auctionID).Count(&count).Error; err == nil && count == 0 {
			return fmt.Errorf("update current bid for auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
		}
		return fmt.Errorf("update current bid for auction %s: %w", auctionID, auctionerrors.ErrStaleCurrentBid)
	}
	return nil
}

// AcceptBid runs the conditional current-bid UPDATE and the bid INSERT in
// one transaction; a failure on either side rolls both back.
func (s *PostgresStore) AcceptBid(auctionID, profileID string, expectedPrevious, amount float64) (model.Bid, error) {
	var bid model.Bid
	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&auctionRow{}).
			Where("id = ? AND current_bid = ?", auctionID, expectedPrevious).
			Updates(map[string]interface{}{
				"current_bid": amount,
				"total_bids":  gorm.Expr("total_bids + 1"),
			})
		if res.Error != nil {
			return fmt.Errorf("accept bid for auction %s: %w", auctionID, res.Error)
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&auctionRow{}).Where("id = ?", auctionID).Count(&count).Error; err == nil && count == 0 {
				return fmt.Errorf("accept bid for auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
			}
			return fmt.Errorf("accept bid for auction %s: %w", auctionID, auctionerrors.ErrStaleCurrentBid)
		}

		var profile profileRow
		if err := tx.First(&profile, "profile_id = ?", profileID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("accept bid for auction %s: %w", auctionID, auctionerrors.ErrProfileNotFound)
			}
			return fmt.Errorf("accept bid for auction %s: %w", auctionID, err)
		}

		row := bidRow{
			BidID:     utils.GenerateID(),
			AuctionID: auctionID,
			BidderID:  profileID,
			Amount:    amount,
			CreatedAt: time.Now().UTC(),
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("accept bid for auction %s: %w", auctionID, err)
		}

		bid = model.Bid{
			BidID:     row.BidID,
			AuctionID: row.AuctionID,
			Bidder: model.Bidder{
				ProfileID:  profile.ProfileID,
				FullName:   profile.FullName,
				IsVerified: profile.IsVerified,
			},
			Amount:    row.Amount,
			CreatedAt: row.CreatedAt,
		}
		return nil
	})
	if err != nil {
		return model.Bid{}, err
	}
	return bid, nil
}

// ResolveProfile maps an opaque user handle to its profile.
func (s *PostgresStore) ResolveProfile(userID string) (model.Profile, error) {
	var row profileRow
	if err := s.db.First(&row, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Profile{}, fmt.Errorf("resolve profile for user %s: %w", userID, auctionerrors.ErrProfileNotFound)
		}
		return model.Profile{}, fmt.Errorf("resolve profile for user %s: %w", userID, err)
	}
	return model.Profile{
		ProfileID:  row.ProfileID,
		UserID:     row.UserID,
		FullName:   row.FullName,
		IsVerified: row.IsVerified,
	}, nil
}

func (s *PostgresStore) biddersFor(rows []bidRow) (map[string]model.Bidder, error) {
	ids := make([]string, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for _, b := range rows {
		if !seen[b.BidderID] {
			seen[b.BidderID] = true
			ids = append(ids, b.BidderID)
		}
	}
	if len(ids) == 0 {
		return map[string]model.Bidder{}, nil
	}

	var profiles []profileRow
	if err := s.db.Where("profile_id IN ?", ids).Find(&profiles).Error; err != nil {
		return nil, err
	}

	bidders := make(map[string]model.Bidder, len(profiles))
	for _, p := range profiles {
		bidders[p.ProfileID] = model.Bidder{
			ProfileID:  p.ProfileID,
			FullName:   p.FullName,
			IsVerified: p.IsVerified,
		}
	}
	return bidders, nil
}

func toAuction(row auctionRow) model.Auction {
	return model.Auction{
		AuctionID:     row.ID,
		Title:         row.Title,
		StartingBid:   row.StartingBid,
		CurrentBid:    row.CurrentBid,
		BidIncrement:  row.BidIncrement,
		Status:        model.AuctionStatus(row.Status),
		TotalBids:     row.TotalBids,
		TotalWatchers: row.TotalWatchers,
		StartTime:     row.StartTime,
		EndTime:       row.EndTime,
	}
}
