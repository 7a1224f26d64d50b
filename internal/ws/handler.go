package ws

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"auction-hub/internal/auctionerrors"
	bidding "auction-hub/internal/biddingService"
	"auction-hub/internal/protocol"
	"auction-hub/internal/room"
	"auction-hub/utils"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	maxFrame   = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origin enforcement belongs to the deployment proxy
	},
}

// Handler serves the live channel: one connection, one session, one room.
type Handler struct {
	registry *room.Registry
	service  *bidding.BiddingService
}

// NewHandler creates a live-channel handler.
func NewHandler(registry *room.Registry, service *bidding.BiddingService) *Handler {
	return &Handler{
		registry: registry,
		service:  service,
	}
}

// HandleLive upgrades the request and runs the session protocol until the
// connection drops. Every connection gets its own read loop here and its own
// write pump; cross-connection coordination happens only through the
// registry and the bidding service.
func (h *Handler) HandleLive(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.Warn("websocket upgrade failed", map[string]any{"error": err.Error()})
		return
	}

	session := room.NewSession(utils.GenerateID(), "")
	joinedAuction := ""

	defer func() {
		if joinedAuction != "" {
			h.registry.Leave(joinedAuction, session)
		}
		session.Close()
		conn.Close()
	}()

	go h.writePump(conn, session)

	conn.SetReadLimit(maxFrame)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				utils.Info("websocket closed uncleanly", map[string]any{
					"session_id": session.ID,
					"auction_id": joinedAuction,
					"error":      err.Error(),
				})
			}
			return
		}

		intent, err := protocol.DecodeClientIntent(data)
		if err != nil {
			// Protocol error: reject, keep the connection open.
			session.Send(protocol.ErrorEvent{Message: rejectionMessage(err)})
			continue
		}

		switch m := intent.(type) {
		case protocol.JoinAuction:
			// A session occupies one room at a time; joining again moves it.
			if joinedAuction != "" {
				h.registry.Leave(joinedAuction, session)
			}
			session.UserID = m.UserID
			joinedAuction = m.AuctionID
			h.registry.Join(joinedAuction, session)

			status, err := h.service.AuctionStatus(joinedAuction)
			if err != nil {
				utils.Warn("join: auction status unavailable", map[string]any{
					"auction_id": joinedAuction,
					"user_id":    m.UserID,
					"error":      err.Error(),
				})
				session.Send(protocol.ErrorEvent{Message: rejectionMessage(err)})
				continue
			}
			session.Send(protocol.AuctionStatus{Auction: status.Auction, Bids: status.Bids})

		case protocol.PlaceBid:
			if joinedAuction == "" {
				session.Send(protocol.ErrorEvent{Message: "Must join auction first"})
				continue
			}

			bid, currentBid, err := h.service.PlaceBid(joinedAuction, session.UserID, m.Amount)
			if err != nil {
				// Business rejection goes to the originating session only;
				// nothing is broadcast, nothing was applied.
				utils.Warn("bid rejected", map[string]any{
					"auction_id": joinedAuction,
					"user_id":    session.UserID,
					"amount":     m.Amount,
					"error":      err.Error(),
				})
				session.Send(protocol.ErrorEvent{Message: rejectionMessage(err)})
				continue
			}

			utils.Info("bid accepted", map[string]any{
				"auction_id": joinedAuction,
				"bid_id":     bid.BidID,
				"user_id":    session.UserID,
				"amount":     bid.Amount,
			})
			// No exclusion: the bidder converges on the broadcast like
			// every other session instead of trusting local state.
			h.registry.Broadcast(joinedAuction, protocol.NewBid{Bid: bid, CurrentBid: currentBid}, nil)

		case protocol.SendMessage:
			if joinedAuction == "" {
				session.Send(protocol.ErrorEvent{Message: "Must join auction first"})
				continue
			}

			msg := h.service.ComposeChatMessage(session.UserID, m.Text)
			h.registry.Broadcast(joinedAuction, protocol.ChatMessage{Message: msg}, nil)
		}
	}
}

// writePump drains the session outbox onto the connection and keeps the
// peer alive with pings. It owns all writes to the connection.
func (h *Handler) writePump(conn *websocket.Conn, session *room.Session) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case frame := <-session.Outbox():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-session.Done():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// rejectionMessage turns an internal error into the message delivered on an
// error event. Business rejections keep their detail; anything else is
// reported generically.
func rejectionMessage(err error) string {
	switch {
	case errors.Is(err, auctionerrors.ErrProfileNotFound):
		return "User profile not found"
	case errors.Is(err, auctionerrors.ErrAuctionNotFound):
		return "Auction not found"
	case errors.Is(err, auctionerrors.ErrBidTooLow),
		errors.Is(err, auctionerrors.ErrAuctionNotBiddable),
		errors.Is(err, auctionerrors.ErrInvalidBid):
		return strings.TrimPrefix(err.Error(), "service: ")
	case errors.Is(err, protocol.ErrMalformedMessage):
		return "Invalid message format"
	case errors.Is(err, protocol.ErrUnknownType):
		return "Unknown message type"
	default:
		return "Failed to process request"
	}
}
