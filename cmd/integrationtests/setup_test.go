package integrationtests

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	bidding "auction-hub/internal/biddingService"
	model "auction-hub/internal/models"
	"auction-hub/internal/protocol"
	"auction-hub/internal/repository"
	"auction-hub/internal/room"
	"auction-hub/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// SeededStore builds an in-memory store with the standard test fixtures.
func SeededStore(auctions ...model.Auction) *repository.MemoryStore {
	store := repository.NewMemoryStore()
	for _, auction := range auctions {
		store.AddAuction(auction)
	}
	store.AddProfile(model.Profile{ProfileID: "profile1", UserID: "user1", FullName: "Ada Walker", IsVerified: true})
	store.AddProfile(model.Profile{ProfileID: "profile2", UserID: "user2", FullName: "Ben Okafor", IsVerified: false})
	store.AddProfile(model.Profile{ProfileID: "profile3", UserID: "user3", FullName: "Carla Mendes", IsVerified: true})
	return store
}

// SetupTestRouter initializes the router with an in-memory store seeded with
// the given auctions.
func SetupTestRouter(auctions ...model.Auction) (*gin.Engine, *room.Registry) {
	gin.SetMode(gin.TestMode)
	service := bidding.NewBiddingService(SeededStore(auctions...))
	registry := room.NewRegistry()
	return server.SetupRouter(service, registry), registry
}

// StartTestServer runs the full router on a real listener so websocket
// clients can dial it.
func StartTestServer(t *testing.T, auctions ...model.Auction) (*httptest.Server, *room.Registry) {
	router, registry := SetupTestRouter(auctions...)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, registry
}

// ExecuteRequestAndParse executes an HTTP request on the given router and parses the response
func ExecuteRequestAndParse(t *testing.T, router *gin.Engine, method, url string, body any) (map[string]any, *httptest.ResponseRecorder) {
	var reqBody []byte
	var err error

	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	case string:
		reqBody = []byte(v)
	default:
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		err := json.Unmarshal(w.Body.Bytes(), &resp)
		if err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
	}

	return resp, w
}

// roomClient is one websocket participant in a live auction room.
type roomClient struct {
	t    *testing.T
	conn *websocket.Conn
}

// DialRoom connects a websocket client to an auction's live endpoint.
func DialRoom(t *testing.T, srv *httptest.Server, auctionID string) *roomClient {
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/auctions/" + auctionID + "/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &roomClient{t: t, conn: conn}
}

func (c *roomClient) send(intent protocol.ClientIntent) {
	c.t.Helper()
	frame, err := protocol.EncodeClientIntent(intent)
	require.NoError(c.t, err)
	require.NoError(c.t, c.conn.WriteMessage(websocket.TextMessage, frame))
}

func (c *roomClient) recv() protocol.ServerEvent {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, frame, err := c.conn.ReadMessage()
	require.NoError(c.t, err, "expected a server frame")
	event, err := protocol.DecodeServerEvent(frame)
	require.NoError(c.t, err)
	return event
}

// expectSilence asserts that no frame arrives within a short window.
func (c *roomClient) expectSilence() {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(150*time.Millisecond)))
	_, frame, err := c.conn.ReadMessage()
	if err == nil {
		c.t.Fatalf("unexpected frame: %s", frame)
	}
}

func (c *roomClient) closeCleanly() {
	c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "leaving"))
	c.conn.Close()
}

// join sends the join intent and consumes the auction_status reply.
func (c *roomClient) join(auctionID, userID string) protocol.AuctionStatus {
	c.t.Helper()
	c.send(protocol.JoinAuction{AuctionID: auctionID, UserID: userID})
	event := c.recv()
	status, ok := event.(protocol.AuctionStatus)
	require.True(c.t, ok, "expected auction_status, got %T", event)
	return status
}

func liveAuction(id string, startingBid float64) model.Auction {
	now := time.Now().UTC()
	return model.Auction{
		AuctionID:   id,
		Title:       "Lot " + id,
		StartingBid: startingBid,
		Status:      model.StatusLive,
		StartTime:   now,
		EndTime:     now.Add(time.Hour),
	}
}
