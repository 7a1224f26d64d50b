// Package protocol defines the wire envelope spoken over the live channel.
// Each direction is a closed set of variants so dispatch sites can switch
// exhaustively; adding a message type means adding a case, not a string.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	model "auction-hub/internal/models"
)

var (
	ErrMalformedMessage = errors.New("invalid message format")
	ErrUnknownType      = errors.New("unknown message type")
)

// ClientIntent is a message a session sends to the room server.
type ClientIntent interface{ isClientIntent() }

// JoinAuction registers the session in an auction room. It must be the
// first intent on a connection.
type JoinAuction struct {
	AuctionID string
	UserID    string
}

// PlaceBid proposes a bid amount for the joined auction.
type PlaceBid struct {
	Amount float64
}

// SendMessage posts a chat message to the joined room.
type SendMessage struct {
	Text string
}

func (JoinAuction) isClientIntent() {}
func (PlaceBid) isClientIntent()    {}
func (SendMessage) isClientIntent() {}

// ServerEvent is a message the room server delivers to sessions.
type ServerEvent interface{ isServerEvent() }

// AuctionStatus is the authoritative sync sent on join: the client replaces
// its local auction and bid list wholesale.
type AuctionStatus struct {
	Auction model.Auction
	Bids    []model.Bid
}

// NewBid announces an accepted bid together with the new current bid.
type NewBid struct {
	Bid        model.Bid
	CurrentBid float64
}

// ChatMessage carries one room chat entry. The sender receives its own
// messages through this event like everyone else.
type ChatMessage struct {
	Message model.ChatMessage
}

// ErrorEvent reports a protocol or business rejection to one session.
type ErrorEvent struct {
	Message string
}

func (AuctionStatus) isServerEvent() {}
func (NewBid) isServerEvent()        {}
func (ChatMessage) isServerEvent()   {}
func (ErrorEvent) isServerEvent()    {}

type clientEnvelope struct {
	Type      string  `json:"type"`
	AuctionID string  `json:"auctionId,omitempty"`
	UserID    string  `json:"userId,omitempty"`
	BidAmount float64 `json:"bidAmount,omitempty"`
	Message   string  `json:"message,omitempty"`
}

type serverEnvelope struct {
	Type       string          `json:"type"`
	Auction    *model.Auction  `json:"auction,omitempty"`
	Bids       []model.Bid     `json:"bids,omitempty"`
	Bid        *model.Bid      `json:"bid,omitempty"`
	CurrentBid *float64        `json:"currentBid,omitempty"`
	Message    json.RawMessage `json:"message,omitempty"`
}

// DecodeClientIntent parses a client frame into its typed intent.
func DecodeClientIntent(data []byte) (ClientIntent, error) {
	var env clientEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode client intent: %w", ErrMalformedMessage)
	}

	switch env.Type {
	case "join_auction":
		if env.AuctionID == "" || env.UserID == "" {
			return nil, fmt.Errorf("decode join_auction: %w", ErrMalformedMessage)
		}
		return JoinAuction{AuctionID: env.AuctionID, UserID: env.UserID}, nil
	case "place_bid":
		return PlaceBid{Amount: env.BidAmount}, nil
	case "send_message":
		return SendMessage{Text: env.Message}, nil
	default:
		return nil, fmt.Errorf("decode %q: %w", env.Type, ErrUnknownType)
	}
}

// EncodeClientIntent serializes a typed intent into its wire frame.
func EncodeClientIntent(intent ClientIntent) ([]byte, error) {
	switch m := intent.(type) {
	case JoinAuction:
		return json.Marshal(clientEnvelope{Type: "join_auction", AuctionID: m.AuctionID, UserID: m.UserID})
	case PlaceBid:
		return json.Marshal(clientEnvelope{Type: "place_bid", BidAmount: m.Amount})
	case SendMessage:
		return json.Marshal(clientEnvelope{Type: "send_message", Message: m.Text})
	default:
		return nil, fmt.Errorf("encode client intent %T: %w", intent, ErrUnknownType)
	}
}

// EncodeServerEvent serializes a typed event into its wire frame.
func EncodeServerEvent(event ServerEvent) ([]byte, error) {
	switch e := event.(type) {
	case AuctionStatus:
		auction := e.Auction
		bids := e.Bids
		if bids == nil {
			bids = []model.Bid{}
		}
		return json.Marshal(serverEnvelope{Type: "auction_status", Auction: &auction, Bids: bids})
	case NewBid:
		bid := e.Bid
		current := e.CurrentBid
		return json.Marshal(serverEnvelope{Type: "new_bid", Bid: &bid, CurrentBid: &current})
	case ChatMessage:
		raw, err := json.Marshal(e.Message)
		if err != nil {
			return nil, err
		}
		return json.Marshal(serverEnvelope{Type: "chat_message", Message: raw})
	case ErrorEvent:
		raw, err := json.Marshal(e.Message)
		if err != nil {
			return nil, err
		}
		return json.Marshal(serverEnvelope{Type: "error", Message: raw})
	default:
		return nil, fmt.Errorf("encode server event %T: %w", event, ErrUnknownType)
	}
}

// DecodeServerEvent parses a server frame into its typed event. The client
// connection manager drives its state machine off the result.
func DecodeServerEvent(data []byte) (ServerEvent, error) {
	var env serverEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode server event: %w", ErrMalformedMessage)
	}

	switch env.Type {
	case "auction_status":
		if env.Auction == nil {
			return nil, fmt.Errorf("decode auction_status: %w", ErrMalformedMessage)
		}
		return AuctionStatus{Auction: *env.Auction, Bids: env.Bids}, nil
	case "new_bid":
		if env.Bid == nil || env.CurrentBid == nil {
			return nil, fmt.Errorf("decode new_bid: %w", ErrMalformedMessage)
		}
		return NewBid{Bid: *env.Bid, CurrentBid: *env.CurrentBid}, nil
	case "chat_message":
		var msg model.ChatMessage
		if err := json.Unmarshal(env.Message, &msg); err != nil {
			return nil, fmt.Errorf("decode chat_message: %w", ErrMalformedMessage)
		}
		return ChatMessage{Message: msg}, nil
	case "error":
		var msg string
		if err := json.Unmarshal(env.Message, &msg); err != nil {
			return nil, fmt.Errorf("decode error event: %w", ErrMalformedMessage)
		}
		return ErrorEvent{Message: msg}, nil
	default:
		return nil, fmt.Errorf("decode %q: %w", env.Type, ErrUnknownType)
	}
}
