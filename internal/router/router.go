package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4" // import the Echo web framework to handle routing

    "github.com/jpaulsen/squares-raffle/internal/handler" // import the handlers that implement business logic
)

// RegisterRoutes wires every endpoint of the squares game onto the
// provided Echo instance.  cacheMW is applied to hot, read-only board
// endpoints so bursts of sellers polling the same board hit Redis
// rather than MySQL.  rateMW is applied to state-changing endpoints to
// keep a stuck client from hammering the reservation path.  Either may
// be a no-op middleware when the backing Redis is disabled.
func RegisterRoutes(e *echo.Echo, h *handler.GameHandler, cacheMW, rateMW echo.MiddlewareFunc) {
    // Health check for load balancers and monitoring.
    e.GET("/healthz", handler.Health)

    // Board event stream.  Observers receive SQUARE_UPDATE and friends
    // until they disconnect.
    e.GET("/ws", h.ServeWS)

    api := e.Group("/api")

    // Read-only board state.  These answer "what does the board look
    // like right now" and are what every seller's screen polls, hence
    // the response cache.
    api.GET("/stats", h.GetStats, cacheMW)
    api.GET("/game", h.GetGame, cacheMW)
    api.GET("/game-round/:id", h.GetRound)
    api.GET("/participants", h.ListParticipants)
    api.GET("/participant/:id", h.GetParticipant)
    api.GET("/export", h.Export)

    // Soft selections.  Advisory claims shared between seller sessions;
    // no rate limit because selecting squares is the whole point of the
    // UI and the broker is cheap in-process state.
    api.GET("/selections", h.ListSelections)
    api.POST("/selections", h.ApplySelection)

    // Reservation lifecycle: the money path.
    api.POST("/reserve", h.Reserve, rateMW)
    api.POST("/confirm-payment/:participantId", h.ConfirmPayment, rateMW)
    api.POST("/cancel-reservation/:participantId", h.CancelReservation, rateMW)

    // Admin operations.  There is no auth layer, so these are expected
    // to be reachable only from the operator's network.
    api.POST("/new-round", h.NewRound, rateMW)
    api.POST("/update-price", h.UpdatePrice, rateMW)
    api.POST("/draw-winner", h.DrawWinner, rateMW)
    api.POST("/manual-winner", h.ManualWinner, rateMW)
    api.POST("/reset-system", h.ResetSystem, rateMW)
    api.POST("/cleanup-reservations", h.CleanupReservations, rateMW)

    // Winner history.
    api.GET("/winner", h.Winner)
    api.GET("/winner/:roundId", h.WinnerByRound)
    api.GET("/winners", h.Winners)

    // Marketing surface: raw participant and round data for follow-up
    // campaigns.  Kept under its own prefix so it can grow (or gain an
    // auth layer) without touching the game routes.
    marketing := api.Group("/marketing")
    marketing.GET("/participants", h.MarketingParticipants)
    marketing.GET("/history", h.MarketingHistory)
    marketing.GET("/winners", h.MarketingWinners)
    marketing.GET("/participant/email/:email", h.MarketingByEmail)
    marketing.GET("/participant/phone/:phone", h.MarketingByPhone)
}
