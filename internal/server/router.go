package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/koperasichain/backend/internal/config"
	"github.com/koperasichain/backend/internal/http/handlers"
	"github.com/koperasichain/backend/internal/version"
	"github.com/koperasichain/backend/internal/ws"
)

type Dependencies struct {
	Pinger         handlers.ChainPinger
	SessionHandler *handlers.SessionHandler
	ActionsHandler *handlers.ActionsHandler
	WSHandler      *ws.Handler
}

func NewRouter(cfg config.Config, logger *slog.Logger, deps Dependencies) *gin.Engine {
	if cfg.Env == "prod" || cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		logger.Info("request", "method", c.Request.Method, "path", c.Request.URL.Path)
		c.Next()
	})

	health := handlers.NewHealthHandler(deps.Pinger)
	meta := handlers.NewMetaHandler(cfg.Env, version.Version, cfg.CooperativeContract, cfg.TokenContract)

	r.GET("/health", health.Health)
	r.GET("/ready", health.Ready)
	r.GET("/v1/meta", meta.GetMeta)

	if deps.SessionHandler != nil {
		r.POST("/v1/sessions", deps.SessionHandler.Create)

		scoped := r.Group("/v1/sessions/:sessionId")
		scoped.DELETE("", deps.SessionHandler.Delete)
		scoped.POST("/refresh", deps.SessionHandler.Refresh)
		scoped.GET("/account", deps.SessionHandler.GetAccount)
		scoped.GET("/loans/pending", deps.SessionHandler.GetPendingLoans)

		if deps.ActionsHandler != nil {
			scoped.POST("/register", deps.ActionsHandler.Register)
			scoped.POST("/deposits", deps.ActionsHandler.Deposit)
			scoped.POST("/withdrawals", deps.ActionsHandler.Withdraw)
			scoped.POST("/loans", deps.ActionsHandler.RequestLoan)
			scoped.POST("/loans/:loanId/installments", deps.ActionsHandler.PayInstallment)
			scoped.POST("/loans/:loanId/approve", deps.ActionsHandler.ApproveLoan)
			scoped.POST("/faucet", deps.ActionsHandler.Faucet)
		}
	}

	if deps.WSHandler != nil {
		r.GET("/ws", deps.WSHandler.HandleWebSocket)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	})

	return r
}
