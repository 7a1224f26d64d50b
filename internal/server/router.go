package server

import (
	"net/http"

	bidding "auction-hub/internal/biddingService"
	"auction-hub/internal/room"
	"auction-hub/internal/ws"
	handler "auction-hub/services/auction/handler"

	"github.com/gin-gonic/gin"
)

// SetupRouter configures all Gin routes for the application
func SetupRouter(biddingService *bidding.BiddingService, registry *room.Registry) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging

	auctionHandler := handler.NewAuctionHandler(biddingService)
	liveHandler := ws.NewHandler(registry, biddingService)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auctions := router.Group("/auctions")
	{
		auctions.GET("/:auction_id", auctionHandler.GetAuctionHandler)
		auctions.GET("/:auction_id/bids", auctionHandler.GetBidsByAuctionHandler)
		auctions.GET("/:auction_id/winning", auctionHandler.GetWinningBidHandler)
		auctions.POST("/:auction_id/bids", auctionHandler.PlaceBidHandler)

		// live bidding room
		auctions.GET("/:auction_id/live", liveHandler.HandleLive)
	}

	return router
}
