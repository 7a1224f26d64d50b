package main

import (
	"fmt"
	"os"
	"time"

	bidding "auction-hub/internal/biddingService"
	model "auction-hub/internal/models"
	"auction-hub/internal/repository"
	"auction-hub/internal/room"
	"auction-hub/internal/server"
	"auction-hub/internal/storage"
	"auction-hub/pkg/config"
	"auction-hub/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	store, cleanup, err := buildStore(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize store: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	biddingSvc := bidding.NewBiddingService(store)
	registry := room.NewRegistry()

	router := server.SetupRouter(biddingSvc, registry)

	utils.Info("starting auction server", map[string]any{"address": cfg.Server.Address})
	if err := router.Run(cfg.Server.Address); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
		os.Exit(1)
	}
}

// buildStore selects Postgres when configured, otherwise an in-memory store
// seeded with demo data.
func buildStore(cfg *config.Config) (repository.AuctionStore, func(), error) {
	if cfg.DB.Enabled {
		db, err := storage.NewPostgresDB(cfg.DB.Host, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.Port)
		if err != nil {
			return nil, nil, err
		}
		store := repository.NewPostgresStore(db)
		if err := store.Migrate(); err != nil {
			db.Close()
			return nil, nil, err
		}
		return store, func() { db.Close() }, nil
	}

	store := repository.NewMemoryStore()
	prepopulate(store)
	return store, func() {}, nil
}

// prepopulate seeds demo auctions and profiles for the in-memory store
func prepopulate(store *repository.MemoryStore) {
	now := time.Now().UTC()

	auctions := []model.Auction{
		{AuctionID: "auction1", Title: "Vintage Rolex Submariner", StartingBid: 500, BidIncrement: 25, Status: model.StatusLive, StartTime: now, EndTime: now.Add(2 * time.Hour)},
		{AuctionID: "auction2", Title: "First Edition Hobbit", StartingBid: 1200, BidIncrement: 50, Status: model.StatusLive, StartTime: now, EndTime: now.Add(4 * time.Hour)},
		{AuctionID: "auction3", Title: "Mid-century Armchair", StartingBid: 150, BidIncrement: 10, Status: model.StatusUpcoming, StartTime: now.Add(time.Hour), EndTime: now.Add(6 * time.Hour)},
	}
	for _, auction := range auctions {
		store.AddAuction(auction)
	}

	profiles := []model.Profile{
		{ProfileID: "profile1", UserID: "user1", FullName: "Ada Walker", IsVerified: true},
		{ProfileID: "profile2", UserID: "user2", FullName: "Ben Okafor", IsVerified: false},
		{ProfileID: "profile3", UserID: "user3", FullName: "Carla Mendes", IsVerified: true},
	}
	for _, profile := range profiles {
		store.AddProfile(profile)
	}
}
