package protocol

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	model "auction-hub/internal/models"

	"github.com/stretchr/testify/require"
)

func TestDecodeClientIntent(t *testing.T) {
	tests := []struct {
		name          string
		frame         string
		expected      ClientIntent
		expectedError error
	}{
		{
			name:     "join_auction",
			frame:    `{"type":"join_auction","auctionId":"auction1","userId":"user1"}`,
			expected: JoinAuction{AuctionID: "auction1", UserID: "user1"},
		},
		{
			name:          "join_auction_missing_user",
			frame:         `{"type":"join_auction","auctionId":"auction1"}`,
			expectedError: ErrMalformedMessage,
		},
		{
			name:     "place_bid",
			frame:    `{"type":"place_bid","bidAmount":150.5}`,
			expected: PlaceBid{Amount: 150.5},
		},
		{
			name:     "send_message",
			frame:    `{"type":"send_message","message":"hello"}`,
			expected: SendMessage{Text: "hello"},
		},
		{
			name:          "not_json",
			frame:         `{"type":`,
			expectedError: ErrMalformedMessage,
		},
		{
			name:          "unknown_type",
			frame:         `{"type":"start_auction"}`,
			expectedError: ErrUnknownType,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			intent, err := DecodeClientIntent([]byte(tc.frame))
			if tc.expectedError != nil {
				require.Error(t, err)
				require.True(t, errors.Is(err, tc.expectedError), "expected error: %v, got: %v", tc.expectedError, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expected, intent)
		})
	}
}

func TestClientIntentRoundTrip(t *testing.T) {
	intents := []ClientIntent{
		JoinAuction{AuctionID: "auction1", UserID: "user1"},
		PlaceBid{Amount: 275.25},
		SendMessage{Text: "going once"},
	}

	for _, intent := range intents {
		frame, err := EncodeClientIntent(intent)
		require.NoError(t, err)

		decoded, err := DecodeClientIntent(frame)
		require.NoError(t, err)
		require.Equal(t, intent, decoded)
	}
}

func TestEncodeServerEvent_WireShape(t *testing.T) {
	t.Run("auction_status_empty_bids_not_null", func(t *testing.T) {
		frame, err := EncodeServerEvent(AuctionStatus{Auction: model.Auction{AuctionID: "auction1"}})
		require.NoError(t, err)

		var raw map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(frame, &raw))
		require.JSONEq(t, `"auction_status"`, string(raw["type"]))
		require.Equal(t, "[]", string(raw["bids"]), "an auction without bids syncs an empty list, not null")
	})

	t.Run("new_bid_keeps_zero_current_bid", func(t *testing.T) {
		frame, err := EncodeServerEvent(NewBid{Bid: model.Bid{BidID: "bid1"}, CurrentBid: 0})
		require.NoError(t, err)

		var raw map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(frame, &raw))
		require.Contains(t, string(frame), `"currentBid":0`)
		require.JSONEq(t, `"new_bid"`, string(raw["type"]))
	})

	t.Run("error_message_is_string", func(t *testing.T) {
		frame, err := EncodeServerEvent(ErrorEvent{Message: "Must join auction first"})
		require.NoError(t, err)
		require.JSONEq(t, `{"type":"error","message":"Must join auction first"}`, string(frame))
	})

	t.Run("chat_message_is_object", func(t *testing.T) {
		frame, err := EncodeServerEvent(ChatMessage{Message: model.ChatMessage{ID: "m1", User: "Ada Walker", Text: "hi"}})
		require.NoError(t, err)

		var env struct {
			Type    string          `json:"type"`
			Message json.RawMessage `json:"message"`
		}
		require.NoError(t, json.Unmarshal(frame, &env))
		require.Equal(t, "chat_message", env.Type)

		var msg model.ChatMessage
		require.NoError(t, json.Unmarshal(env.Message, &msg))
		require.Equal(t, "Ada Walker", msg.User)
	})
}

func TestServerEventRoundTrip(t *testing.T) {
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	events := []ServerEvent{
		AuctionStatus{
			Auction: model.Auction{AuctionID: "auction1", Title: "Lot 1", StartingBid: 100, CurrentBid: 150, Status: model.StatusLive},
			Bids: []model.Bid{
				{BidID: "bid2", AuctionID: "auction1", Amount: 150, CreatedAt: created, Bidder: model.Bidder{ProfileID: "profile1", FullName: "Ada Walker"}},
				{BidID: "bid1", AuctionID: "auction1", Amount: 120, CreatedAt: created},
			},
		},
		NewBid{
			Bid:        model.Bid{BidID: "bid3", AuctionID: "auction1", Amount: 175, CreatedAt: created},
			CurrentBid: 175,
		},
		ChatMessage{Message: model.ChatMessage{ID: "m1", User: "Anonymous", Text: "hello", Timestamp: created}},
		ErrorEvent{Message: "Bid amount must be greater than current highest bid of 175.00"},
	}

	for _, event := range events {
		frame, err := EncodeServerEvent(event)
		require.NoError(t, err)

		decoded, err := DecodeServerEvent(frame)
		require.NoError(t, err)
		require.Equal(t, event, decoded)
	}
}

func TestDecodeServerEvent_Malformed(t *testing.T) {
	tests := []struct {
		name          string
		frame         string
		expectedError error
	}{
		{name: "auction_status_without_auction", frame: `{"type":"auction_status"}`, expectedError: ErrMalformedMessage},
		{name: "new_bid_without_bid", frame: `{"type":"new_bid","currentBid":10}`, expectedError: ErrMalformedMessage},
		{name: "new_bid_without_current_bid", frame: `{"type":"new_bid","bid":{"id":"bid1"}}`, expectedError: ErrMalformedMessage},
		{name: "chat_without_payload", frame: `{"type":"chat_message"}`, expectedError: ErrMalformedMessage},
		{name: "unknown_type", frame: `{"type":"auction_closed"}`, expectedError: ErrUnknownType},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := DecodeServerEvent([]byte(tc.frame))
			require.Error(t, err)
			require.True(t, errors.Is(err, tc.expectedError), "expected error: %v, got: %v", tc.expectedError, err)
		})
	}
}
