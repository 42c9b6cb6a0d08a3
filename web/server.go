// Package web exposes the chat widget's HTTP surface: message processing,
// a read-only status snapshot for dashboards, and the clear control.
package web

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	dispatcherx "github.com/grubgather/grubgather/agent/dispatcher"
	storex "github.com/grubgather/grubgather/agent/store"
	logx "github.com/grubgather/grubgather/pkg/logger"
)

type Config struct {
	Addr  string `split_words:"true" default:":8080"`
	Debug bool   `split_words:"true" default:"false"`
}

type Server struct {
	dispatcher *dispatcherx.Dispatcher
	store      *storex.OrderStore
	engine     *gin.Engine
	log        zerolog.Logger
}

func New(d *dispatcherx.Dispatcher, st *storex.OrderStore, cfg Config) *Server {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		dispatcher: d,
		store:      st,
		engine:     gin.New(),
		log:        logx.Component("web"),
	}

	s.engine.Use(gin.Recovery())
	s.engine.POST("/api/process_message", s.processMessage)
	s.engine.GET("/api/get_status", s.getStatus)
	s.engine.GET("/api/clear_orders", s.clearOrders)

	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Run(addr string) error {
	s.log.Info().Str("addr", addr).Msg("web interface listening")
	return s.engine.Run(addr)
}

type processMessageRequest struct {
	User    string `json:"user"`
	Message string `json:"message"`
}

func (s *Server) processMessage(c *gin.Context) {
	var req processMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format", "success": false})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no message provided", "success": false})
		return
	}

	user := strings.TrimSpace(req.User)
	if user == "" {
		user = "Anonymous"
	}

	reply, parsed := s.dispatcher.HandleMessage(c.Request.Context(), user, req.Message)
	c.JSON(http.StatusOK, gin.H{
		"message":  req.Message,
		"user":     user,
		"parsed":   parsed,
		"response": reply,
		"success":  true,
	})
}

func (s *Server) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Snapshot())
}

func (s *Server) clearOrders(c *gin.Context) {
	s.store.Clear()
	s.log.Info().Msg("order store cleared")
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Orders cleared"})
}
