package bidding

import (
	"errors"
	"testing"
	"time"

	"auction-hub/internal/auctionerrors"
	model "auction-hub/internal/models"
	"auction-hub/internal/repository"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func liveAuction(starting, current float64) model.Auction {
	return model.Auction{
		AuctionID:   "auction1",
		Title:       "title1",
		StartingBid: starting,
		CurrentBid:  current,
		Status:      model.StatusLive,
	}
}

func snapshotOf(auction model.Auction) model.AuctionSnapshot {
	return model.AuctionSnapshot{Auction: auction}
}

var testProfile = model.Profile{ProfileID: "profile1", UserID: "user1", FullName: "Ada Walker", IsVerified: true}

// Tests the pure accept/reject decision
func TestValidateBid(t *testing.T) {
	tests := []struct {
		name          string
		auction       model.Auction
		amount        float64
		expectedError error
	}{
		{
			name:          "first_bid_above_starting",
			auction:       liveAuction(500, 0),
			amount:        501,
			expectedError: nil,
		},
		{
			name:          "first_bid_equal_starting",
			auction:       liveAuction(500, 0),
			amount:        500,
			expectedError: auctionerrors.ErrBidTooLow,
		},
		{
			name:          "equal_to_current_floor",
			auction:       liveAuction(50, 100),
			amount:        100,
			expectedError: auctionerrors.ErrBidTooLow,
		},
		{
			name:          "cent_above_current_floor",
			auction:       liveAuction(50, 100),
			amount:        100.01,
			expectedError: nil,
		},
		{
			name:          "repeat_of_new_floor",
			auction:       liveAuction(50, 100.01),
			amount:        100.01,
			expectedError: auctionerrors.ErrBidTooLow,
		},
		{
			name: "increment_is_advisory_only",
			auction: model.Auction{
				AuctionID:    "auction1",
				StartingBid:  50,
				CurrentBid:   100,
				BidIncrement: 25,
				Status:       model.StatusLive,
			},
			amount:        101, // below floor+increment, still acceptable
			expectedError: nil,
		},
		{
			name: "upcoming_is_biddable",
			auction: model.Auction{
				AuctionID:   "auction1",
				StartingBid: 50,
				Status:      model.StatusUpcoming,
			},
			amount:        60,
			expectedError: nil,
		},
		{
			name: "ended_is_not_biddable",
			auction: model.Auction{
				AuctionID:   "auction1",
				StartingBid: 50,
				CurrentBid:  100,
				Status:      model.StatusEnded,
			},
			amount:        500,
			expectedError: auctionerrors.ErrAuctionNotBiddable,
		},
		{
			name: "draft_is_not_biddable",
			auction: model.Auction{
				AuctionID:   "auction1",
				StartingBid: 50,
				Status:      model.StatusDraft,
			},
			amount:        500,
			expectedError: auctionerrors.ErrAuctionNotBiddable,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateBid(tc.auction, tc.amount)
			if tc.expectedError != nil {
				require.Error(t, err)
				require.True(t, errors.Is(err, tc.expectedError), "expected error: %v, got: %v", tc.expectedError, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

// Tests PlaceBid
func TestBiddingService_PlaceBid(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name          string
		auctionID     string
		userID        string
		amount        float64
		mockSetup     func(mockStore *repository.MockAuctionStore)
		expectError   bool
		expectedError error
	}{
		{
			name:      "valid_first_bid",
			auctionID: "auction1",
			userID:    "user1",
			amount:    501,
			mockSetup: func(mockStore *repository.MockAuctionStore) {
				mockStore.EXPECT().ResolveProfile("user1").Return(testProfile, nil)
				mockStore.EXPECT().FetchAuctionWithBids("auction1").Return(snapshotOf(liveAuction(500, 0)), nil)
				mockStore.EXPECT().AcceptBid("auction1", "profile1", 0.0, 501.0).Return(model.Bid{
					BidID:     "bid1",
					AuctionID: "auction1",
					Bidder:    model.Bidder{ProfileID: "profile1", FullName: "Ada Walker", IsVerified: true},
					Amount:    501,
					CreatedAt: now,
				}, nil)
			},
			expectError: false,
		},
		{
			name:          "empty_auctionID",
			auctionID:     "",
			userID:        "user1",
			amount:        50,
			mockSetup:     func(*repository.MockAuctionStore) {},
			expectError:   true,
			expectedError: auctionerrors.ErrInvalidBid,
		},
		{
			name:          "empty_userID",
			auctionID:     "auction1",
			userID:        "",
			amount:        50,
			mockSetup:     func(*repository.MockAuctionStore) {},
			expectError:   true,
			expectedError: auctionerrors.ErrInvalidBid,
		},
		{
			name:          "non_positive_amount",
			auctionID:     "auction1",
			userID:        "user1",
			amount:        0,
			mockSetup:     func(*repository.MockAuctionStore) {},
			expectError:   true,
			expectedError: auctionerrors.ErrInvalidBid,
		},
		{
			name:      "unknown_profile",
			auctionID: "auction1",
			userID:    "ghost",
			amount:    600,
			mockSetup: func(mockStore *repository.MockAuctionStore) {
				mockStore.EXPECT().ResolveProfile("ghost").Return(model.Profile{}, auctionerrors.ErrProfileNotFound)
			},
			expectError:   true,
			expectedError: auctionerrors.ErrProfileNotFound,
		},
		{
			name:      "bid_equal_to_floor",
			auctionID: "auction1",
			userID:    "user1",
			amount:    500,
			mockSetup: func(mockStore *repository.MockAuctionStore) {
				mockStore.EXPECT().ResolveProfile("user1").Return(testProfile, nil)
				mockStore.EXPECT().FetchAuctionWithBids("auction1").Return(snapshotOf(liveAuction(500, 0)), nil)
			},
			expectError:   true,
			expectedError: auctionerrors.ErrBidTooLow,
		},
		{
			name:      "auction_ended",
			auctionID: "auction1",
			userID:    "user1",
			amount:    600,
			mockSetup: func(mockStore *repository.MockAuctionStore) {
				ended := liveAuction(500, 550)
				ended.Status = model.StatusEnded
				mockStore.EXPECT().ResolveProfile("user1").Return(testProfile, nil)
				mockStore.EXPECT().FetchAuctionWithBids("auction1").Return(snapshotOf(ended), nil)
			},
			expectError:   true,
			expectedError: auctionerrors.ErrAuctionNotBiddable,
		},
		{
			name:      "lost_race_retry_wins",
			auctionID: "auction1",
			userID:    "user1",
			amount:    200,
			mockSetup: func(mockStore *repository.MockAuctionStore) {
				gomock.InOrder(
					mockStore.EXPECT().ResolveProfile("user1").Return(testProfile, nil),
					mockStore.EXPECT().FetchAuctionWithBids("auction1").Return(snapshotOf(liveAuction(100, 0)), nil),
					mockStore.EXPECT().AcceptBid("auction1", "profile1", 0.0, 200.0).Return(model.Bid{}, auctionerrors.ErrStaleCurrentBid),
					mockStore.EXPECT().FetchAuctionWithBids("auction1").Return(snapshotOf(liveAuction(100, 150)), nil),
					mockStore.EXPECT().AcceptBid("auction1", "profile1", 150.0, 200.0).Return(model.Bid{
						BidID:     "bid2",
						AuctionID: "auction1",
						Bidder:    model.Bidder{ProfileID: "profile1", FullName: "Ada Walker", IsVerified: true},
						Amount:    200,
						CreatedAt: now,
					}, nil),
				)
			},
			expectError: false,
		},
		{
			name:      "lost_race_to_higher_bid",
			auctionID: "auction1",
			userID:    "user1",
			amount:    150,
			mockSetup: func(mockStore *repository.MockAuctionStore) {
				gomock.InOrder(
					mockStore.EXPECT().ResolveProfile("user1").Return(testProfile, nil),
					mockStore.EXPECT().FetchAuctionWithBids("auction1").Return(snapshotOf(liveAuction(100, 0)), nil),
					mockStore.EXPECT().AcceptBid("auction1", "profile1", 0.0, 150.0).Return(model.Bid{}, auctionerrors.ErrStaleCurrentBid),
					// the 200 bid won the race; 150 must now be rejected
					mockStore.EXPECT().FetchAuctionWithBids("auction1").Return(snapshotOf(liveAuction(100, 200)), nil),
				)
			},
			expectError:   true,
			expectedError: auctionerrors.ErrBidTooLow,
		},
		{
			name:      "lost_race_twice",
			auctionID: "auction1",
			userID:    "user1",
			amount:    300,
			mockSetup: func(mockStore *repository.MockAuctionStore) {
				gomock.InOrder(
					mockStore.EXPECT().ResolveProfile("user1").Return(testProfile, nil),
					mockStore.EXPECT().FetchAuctionWithBids("auction1").Return(snapshotOf(liveAuction(100, 0)), nil),
					mockStore.EXPECT().AcceptBid("auction1", "profile1", 0.0, 300.0).Return(model.Bid{}, auctionerrors.ErrStaleCurrentBid),
					mockStore.EXPECT().FetchAuctionWithBids("auction1").Return(snapshotOf(liveAuction(100, 150)), nil),
					mockStore.EXPECT().AcceptBid("auction1", "profile1", 150.0, 300.0).Return(model.Bid{}, auctionerrors.ErrStaleCurrentBid),
				)
			},
			expectError:   true,
			expectedError: auctionerrors.ErrBidTooLow,
		},
		{
			name:      "store_accept_fails",
			auctionID: "auction1",
			userID:    "user1",
			amount:    600,
			mockSetup: func(mockStore *repository.MockAuctionStore) {
				mockStore.EXPECT().ResolveProfile("user1").Return(testProfile, nil)
				mockStore.EXPECT().FetchAuctionWithBids("auction1").Return(snapshotOf(liveAuction(500, 0)), nil)
				mockStore.EXPECT().AcceptBid("auction1", "profile1", 0.0, 600.0).Return(model.Bid{}, errors.New("store write failed"))
			},
			expectError:   true,
			expectedError: nil, // wrapped store error, no sentinel to match
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockStore := repository.NewMockAuctionStore(ctrl)
			service := NewBiddingService(mockStore)
			tc.mockSetup(mockStore)

			bid, currentBid, err := service.PlaceBid(tc.auctionID, tc.userID, tc.amount)

			if tc.expectError {
				require.Error(t, err)
				if tc.expectedError != nil {
					require.True(t, errors.Is(err, tc.expectedError), "expected error: %v, got: %v", tc.expectedError, err)
				}
			} else {
				require.NoError(t, err)
				require.NotEmpty(t, bid.BidID)
				require.Equal(t, tc.auctionID, bid.AuctionID)
				require.Equal(t, tc.amount, bid.Amount)
				require.Equal(t, tc.amount, currentBid)
			}
		})
	}
}

// acceptFailStore reads from the real store but refuses every acceptance.
type acceptFailStore struct {
	*repository.MemoryStore
}

func (acceptFailStore) AcceptBid(auctionID, profileID string, expectedPrevious, amount float64) (model.Bid, error) {
	return model.Bid{}, errors.New("write failed")
}

// A bid the store fails to record must leave the auction exactly as it was:
// same current bid, same bid count, no bid row.
func TestBiddingService_PlaceBid_FailedAcceptLeavesSnapshotUntouched(t *testing.T) {
	store := repository.NewMemoryStore()
	store.AddAuction(model.Auction{AuctionID: "auction1", StartingBid: 50, CurrentBid: 100, Status: model.StatusLive})
	store.AddProfile(testProfile)

	service := NewBiddingService(acceptFailStore{store})
	_, _, err := service.PlaceBid("auction1", "user1", 150)
	require.Error(t, err)

	snapshot, err := store.FetchAuctionWithBids("auction1")
	require.NoError(t, err)
	require.Equal(t, 100.0, snapshot.Auction.CurrentBid)
	require.Equal(t, 0, snapshot.Auction.TotalBids)
	require.Empty(t, snapshot.Bids)
}

// Tests WinningBid
func TestBiddingService_WinningBid(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStore := repository.NewMockAuctionStore(ctrl)
	service := NewBiddingService(mockStore)

	auction := liveAuction(100, 300)
	bids := []model.Bid{
		{BidID: "bid3", AuctionID: "auction1", Amount: 300},
		{BidID: "bid2", AuctionID: "auction1", Amount: 200},
		{BidID: "bid1", AuctionID: "auction1", Amount: 150},
	}
	mockStore.EXPECT().FetchAuctionWithBids("auction1").Return(model.AuctionSnapshot{Auction: auction, Bids: bids}, nil)

	winning, err := service.WinningBid("auction1")
	require.NoError(t, err)
	require.Equal(t, "bid3", winning.BidID)
	require.Equal(t, 300.0, winning.Amount)

	mockStore.EXPECT().FetchAuctionWithBids("auction2").Return(snapshotOf(liveAuction(100, 0)), nil)
	_, err = service.WinningBid("auction2")
	require.True(t, errors.Is(err, auctionerrors.ErrNoBids))
}

// Tests AuctionStatus bid trimming
func TestBiddingService_AuctionStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStore := repository.NewMockAuctionStore(ctrl)
	service := NewBiddingService(mockStore)

	bids := make([]model.Bid, 0, 15)
	for i := 15; i > 0; i-- {
		bids = append(bids, model.Bid{BidID: uuid.NewString(), AuctionID: "auction1", Amount: float64(100 + i)})
	}
	mockStore.EXPECT().FetchAuctionWithBids("auction1").Return(model.AuctionSnapshot{
		Auction: liveAuction(100, 115),
		Bids:    bids,
	}, nil)

	status, err := service.AuctionStatus("auction1")
	require.NoError(t, err)
	require.Len(t, status.Bids, 10)
	require.Equal(t, 115.0, status.Bids[0].Amount, "trimming keeps the newest bids")
}

// Tests ComposeChatMessage
func TestBiddingService_ComposeChatMessage(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStore := repository.NewMockAuctionStore(ctrl)
	service := NewBiddingService(mockStore)

	mockStore.EXPECT().ResolveProfile("user1").Return(testProfile, nil)
	msg := service.ComposeChatMessage("user1", "hello room")
	require.Equal(t, "Ada Walker", msg.User)
	require.Equal(t, "hello room", msg.Text)
	require.NotEmpty(t, msg.ID)
	_, err := uuid.Parse(msg.ID)
	require.NoError(t, err)

	mockStore.EXPECT().ResolveProfile("ghost").Return(model.Profile{}, auctionerrors.ErrProfileNotFound)
	anon := service.ComposeChatMessage("ghost", "hi")
	require.Equal(t, "Anonymous", anon.User)
}
