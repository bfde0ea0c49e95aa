package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ouroboros-study/ouroboros-api/internal/timer"
	appErrors "github.com/ouroboros-study/ouroboros-api/pkg/errors"
	"github.com/ouroboros-study/ouroboros-api/pkg/response"
)

// TimerHandler exposes the study timer over HTTP and a websocket relay.
type TimerHandler struct {
	timer    *timer.Timer
	hub      *timer.Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewTimerHandler builds a new handler. An origin of "*" accepts any websocket origin.
func NewTimerHandler(t *timer.Timer, hub *timer.Hub, allowedOrigins []string, logger *zap.Logger) *TimerHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[strings.TrimSpace(o)] = struct{}{}
	}
	return &TimerHandler{
		timer:  t,
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				if _, ok := origins["*"]; ok {
					return true
				}
				_, ok := origins[origin]
				return ok
			},
		},
	}
}

// State godoc
// @Summary Current timer state
// @Tags Timer
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timer [get]
func (h *TimerHandler) State(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.timer.Snapshot(), nil)
}

// Command godoc
// @Summary Start, pause or reset the timer
// @Tags Timer
// @Produce json
// @Param action path string true "start, pause or reset"
// @Success 200 {object} response.Envelope
// @Router /timer/{action} [post]
func (h *TimerHandler) Command(c *gin.Context) {
	if !h.hub.Apply(c.Param("action")) {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "unknown timer action"))
		return
	}
	response.JSON(c, http.StatusOK, h.timer.Snapshot(), nil)
}

// Stream upgrades to a websocket that receives a snapshot every tick and on
// each transition, and accepts {"action": "..."} commands.
func (h *TimerHandler) Stream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("timer websocket upgrade failed", zap.Error(err))
		return
	}
	h.hub.Serve(conn)
}
