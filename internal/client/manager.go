// Package client implements the connection manager a bidding UI embeds: it
// keeps a live session to the room server when it can, falls back to polling
// the store when it cannot, and reconciles local state with whatever the
// server says is true.
package client

import (
	"fmt"
	"sync"
	"time"

	bidding "auction-hub/internal/biddingService"
	model "auction-hub/internal/models"
	"auction-hub/internal/protocol"
	"auction-hub/utils"
)

// State is the connection lifecycle position of the manager.
type State string

const (
	StateIdle         State = "idle"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateDisconnected State = "disconnected"
	StateReconnecting State = "reconnecting"
	StateOffline      State = "offline"
)

// Defaults for the reconnect and polling policy.
const (
	DefaultMaxReconnectAttempts = 3
	DefaultBackoffBase          = 3 * time.Second
	DefaultPollInterval         = 5 * time.Second
	DefaultRefetchDelay         = 500 * time.Millisecond
)

// AuctionAPI is the slice of the bidding service the manager needs for the
// direct-store path: the initial fetch, polling, and offline bid placement.
type AuctionAPI interface {
	Snapshot(auctionID string) (model.AuctionSnapshot, error)
	PlaceBid(auctionID, userID string, amount float64) (model.Bid, float64, error)
	ResolveProfileID(userID string) (string, error)
	ComposeChatMessage(userID, text string) model.ChatMessage
}

var _ AuctionAPI = (*bidding.BiddingService)(nil)

// Event is a notification surfaced to the embedding UI.
type Event interface{ isEvent() }

// StateChanged reports a connection state transition.
type StateChanged struct{ State State }

// BidNotification reports a bid accepted for another participant.
type BidNotification struct{ Bid model.Bid }

// ErrorReceived carries an error event from the server.
type ErrorReceived struct{ Message string }

func (StateChanged) isEvent()    {}
func (BidNotification) isEvent() {}
func (ErrorReceived) isEvent()   {}

// ChatEntry is one transcript line. Synced is false for messages written
// while the live channel was down; they exist only locally.
type ChatEntry struct {
	Message model.ChatMessage
	Synced  bool
}

// View is a consistent copy of everything the UI renders.
type View struct {
	State             State
	Auction           model.Auction
	HasAuction        bool
	Bids              []model.Bid
	Chat              []ChatEntry
	ReconnectAttempts int
}

// Config configures a Manager. Zero durations and counts take the defaults
// above.
type Config struct {
	URL       string
	AuctionID string
	UserID    string

	Dialer Dialer
	API    AuctionAPI

	MaxReconnectAttempts int
	BackoffBase          time.Duration
	PollInterval         time.Duration
	RefetchDelay         time.Duration
}

type command interface{ isCommand() }

type placeBidCmd struct {
	amount float64
	reply  chan error
}

type sendChatCmd struct {
	text string
}

func (placeBidCmd) isCommand() {}
func (sendChatCmd) isCommand() {}

type readResult struct {
	data []byte
	err  error
}

// Manager runs the client connection state machine. All mutable state is
// owned by the run loop goroutine; View and Events are the only windows in.
type Manager struct {
	cfg       Config
	profileID string

	cmds   chan command
	events chan Event
	stop   chan struct{}
	done   chan struct{}

	// loop-owned, mirrored for View under viewMu
	viewMu   sync.RWMutex
	state    State
	auction  model.Auction
	hasAuct  bool
	bids     []model.Bid
	chat     []ChatEntry
	attempts int
}

// NewManager creates a manager for one auction room.
func NewManager(cfg Config) *Manager {
	if cfg.MaxReconnectAttempts == 0 {
		cfg.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if cfg.BackoffBase == 0 {
		cfg.BackoffBase = DefaultBackoffBase
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.RefetchDelay == 0 {
		cfg.RefetchDelay = DefaultRefetchDelay
	}

	return &Manager{
		cfg:    cfg,
		cmds:   make(chan command, 16),
		events: make(chan Event, 32),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		state:  StateIdle,
	}
}

// Start launches the run loop.
func (m *Manager) Start() {
	go m.run()
}

// Stop closes the live channel cleanly and halts all timers. It blocks until
// the run loop has exited.
func (m *Manager) Stop() {
	close(m.stop)
	<-m.done
}

// Events is the stream of UI notifications. Slow consumers lose events
// rather than stalling the state machine.
func (m *Manager) Events() <-chan Event { return m.events }

// State returns the current connection state.
func (m *Manager) State() State {
	m.viewMu.RLock()
	defer m.viewMu.RUnlock()
	return m.state
}

// View returns a consistent copy of the render state.
func (m *Manager) View() View {
	m.viewMu.RLock()
	defer m.viewMu.RUnlock()
	return View{
		State:             m.state,
		Auction:           m.auction,
		HasAuction:        m.hasAuct,
		Bids:              append([]model.Bid(nil), m.bids...),
		Chat:              append([]ChatEntry(nil), m.chat...),
		ReconnectAttempts: m.attempts,
	}
}

// PlaceBid submits a bid. Connected, it goes over the live channel and the
// result arrives as a new_bid or error event; the call only reports whether
// the intent was sent. Not connected, it is written straight to the store
// under the same floor rule and the error is the store's answer.
func (m *Manager) PlaceBid(amount float64) error {
	reply := make(chan error, 1)
	select {
	case m.cmds <- placeBidCmd{amount: amount, reply: reply}:
	case <-m.done:
		return fmt.Errorf("client: manager stopped")
	}
	select {
	case err := <-reply:
		return err
	case <-m.done:
		return fmt.Errorf("client: manager stopped")
	}
}

// SendChat submits a chat message. Connected, the transcript picks it up
// from the broadcast echo; otherwise it is appended locally and marked
// unsynchronized.
func (m *Manager) SendChat(text string) {
	select {
	case m.cmds <- sendChatCmd{text: text}:
	case <-m.done:
	}
}

func (m *Manager) run() {
	defer close(m.done)

	// Resolve the local bidder identity once so own-bid broadcasts don't
	// raise notifications.
	if id, err := m.cfg.API.ResolveProfileID(m.cfg.UserID); err == nil {
		m.profileID = id
	}

	// Seed from the store before the live channel is up.
	if snapshot, err := m.cfg.API.Snapshot(m.cfg.AuctionID); err == nil {
		m.applySnapshot(snapshot)
	} else {
		utils.Warn("client: initial snapshot fetch failed", map[string]any{
			"auction_id": m.cfg.AuctionID,
			"error":      err.Error(),
		})
	}

	poll := time.NewTicker(m.cfg.PollInterval)
	defer poll.Stop()

	var (
		conn        Conn
		frames      chan readResult
		reconnectCh <-chan time.Time
		refetchCh   <-chan time.Time
	)

	disconnect := func() {
		if conn != nil {
			conn.Close()
			conn = nil
		}
		frames = nil
	}
	defer disconnect()

	connect := func() {
		m.setState(StateConnecting)
		c, err := m.cfg.Dialer.Dial(m.cfg.URL)
		if err != nil {
			utils.Warn("client: connect failed", map[string]any{"error": err.Error()})
			reconnectCh = m.scheduleReconnect()
			return
		}

		join, _ := protocol.EncodeClientIntent(protocol.JoinAuction{
			AuctionID: m.cfg.AuctionID,
			UserID:    m.cfg.UserID,
		})
		if err := c.WriteMessage(join); err != nil {
			c.Close()
			reconnectCh = m.scheduleReconnect()
			return
		}

		conn = c
		frames = make(chan readResult, 16)
		go readLoop(c, frames)
		m.setAttempts(0)
		m.setState(StateConnected)
	}

	connect()

	for {
		select {
		case <-m.stop:
			return

		case <-reconnectCh:
			reconnectCh = nil
			connect()

		case <-refetchCh:
			refetchCh = nil
			m.pollOnce()

		case <-poll.C:
			// Polling only matters while the live channel is down and we
			// already know which auction to watch.
			if m.State() != StateConnected && m.hasAuction() {
				m.pollOnce()
			}

		case res := <-frames:
			if res.err != nil {
				disconnect()
				if res.err == ErrCleanClose {
					m.setState(StateOffline)
					continue
				}
				m.setState(StateDisconnected)
				reconnectCh = m.scheduleReconnect()
				continue
			}
			m.handleFrame(res.data)

		case cmd := <-m.cmds:
			switch c := cmd.(type) {
			case placeBidCmd:
				if conn != nil && m.State() == StateConnected {
					frame, _ := protocol.EncodeClientIntent(protocol.PlaceBid{Amount: c.amount})
					c.reply <- conn.WriteMessage(frame)
					continue
				}
				// Offline path: conditional write against the store, then an
				// optimistic local append reconciled by a delayed refetch.
				bid, currentBid, err := m.cfg.API.PlaceBid(m.cfg.AuctionID, m.cfg.UserID, c.amount)
				if err == nil {
					m.applyNewBid(bid, currentBid)
					refetchCh = time.After(m.cfg.RefetchDelay)
				}
				c.reply <- err

			case sendChatCmd:
				if conn != nil && m.State() == StateConnected {
					frame, _ := protocol.EncodeClientIntent(protocol.SendMessage{Text: c.text})
					if err := conn.WriteMessage(frame); err == nil {
						// Transcript waits for the broadcast echo.
						continue
					}
				}
				msg := m.cfg.API.ComposeChatMessage(m.cfg.UserID, c.text)
				m.appendChat(ChatEntry{Message: msg, Synced: false})
			}
		}
	}
}

func readLoop(conn Conn, frames chan<- readResult) {
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			frames <- readResult{err: err}
			return
		}
		frames <- readResult{data: data}
	}
}

func (m *Manager) handleFrame(data []byte) {
	event, err := protocol.DecodeServerEvent(data)
	if err != nil {
		utils.Warn("client: undecodable frame", map[string]any{"error": err.Error()})
		return
	}

	switch e := event.(type) {
	case protocol.AuctionStatus:
		m.applySnapshot(model.AuctionSnapshot{Auction: e.Auction, Bids: e.Bids})
	case protocol.NewBid:
		m.applyNewBid(e.Bid, e.CurrentBid)
		if e.Bid.Bidder.ProfileID != m.profileID {
			m.emit(BidNotification{Bid: e.Bid})
		}
	case protocol.ChatMessage:
		m.appendChat(ChatEntry{Message: e.Message, Synced: true})
	case protocol.ErrorEvent:
		// Surfaced only; no state transition.
		m.emit(ErrorReceived{Message: e.Message})
	}
}

// scheduleReconnect returns the backoff timer channel, or moves the manager
// offline once the attempts are spent.
func (m *Manager) scheduleReconnect() <-chan time.Time {
	m.viewMu.Lock()
	attempts := m.attempts
	if attempts >= m.cfg.MaxReconnectAttempts {
		m.viewMu.Unlock()
		m.setState(StateOffline)
		return nil
	}
	m.attempts++
	m.viewMu.Unlock()

	delay := m.cfg.BackoffBase * time.Duration(attempts+1)
	m.setState(StateReconnecting)
	return time.After(delay)
}

func (m *Manager) pollOnce() {
	snapshot, err := m.cfg.API.Snapshot(m.cfg.AuctionID)
	if err != nil {
		utils.Warn("client: poll failed", map[string]any{
			"auction_id": m.cfg.AuctionID,
			"error":      err.Error(),
		})
		return
	}
	m.applySnapshot(snapshot)
}

// applySnapshot replaces auction and bid state wholesale; the server (or
// store) is authoritative.
func (m *Manager) applySnapshot(snapshot model.AuctionSnapshot) {
	m.viewMu.Lock()
	defer m.viewMu.Unlock()
	m.auction = snapshot.Auction
	m.hasAuct = true
	m.bids = append([]model.Bid(nil), snapshot.Bids...)
}

func (m *Manager) applyNewBid(bid model.Bid, currentBid float64) {
	m.viewMu.Lock()
	defer m.viewMu.Unlock()
	m.bids = append([]model.Bid{bid}, m.bids...)
	m.auction.CurrentBid = currentBid
	m.auction.TotalBids++
}

func (m *Manager) appendChat(entry ChatEntry) {
	m.viewMu.Lock()
	defer m.viewMu.Unlock()
	m.chat = append(m.chat, entry)
}

func (m *Manager) hasAuction() bool {
	m.viewMu.RLock()
	defer m.viewMu.RUnlock()
	return m.hasAuct
}

func (m *Manager) setAttempts(n int) {
	m.viewMu.Lock()
	defer m.viewMu.Unlock()
	m.attempts = n
}

func (m *Manager) setState(s State) {
	m.viewMu.Lock()
	changed := m.state != s
	m.state = s
	m.viewMu.Unlock()
	if changed {
		m.emit(StateChanged{State: s})
	}
}

func (m *Manager) emit(e Event) {
	select {
	case m.events <- e:
	default:
		// UI is behind; drop rather than block the loop.
	}
}
