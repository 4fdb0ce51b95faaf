package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/navid-fn/coinview/configs"
	"github.com/navid-fn/coinview/internal/search"
	"github.com/navid-fn/coinview/internal/service"
	"github.com/navid-fn/coinview/internal/views"
	"github.com/sirupsen/logrus"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsReadTimeout  = 60 * time.Second
	wsPingInterval = 30 * time.Second
	wsSendBuffer   = 16
	wsMaxMessage   = 1024
)

type SearchHandler struct {
	marketService *service.MarketService
	cfg           configs.SearchConfig
	logger        *logrus.Logger
	upgrader      websocket.Upgrader
}

func NewSearchHandler(service *service.MarketService, cfg configs.SearchConfig, logger *logrus.Logger) *SearchHandler {
	return &SearchHandler{
		marketService: service,
		cfg:           cfg,
		logger:        logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// searchFrame is one pushed search state.
type searchFrame struct {
	Query       string          `json:"query"`
	Loading     bool            `json:"loading"`
	Results     []views.CoinRow `json:"results"`
	Placeholder string          `json:"placeholder,omitempty"`
	Error       string          `json:"error,omitempty"`
}

func newSearchFrame(st search.State) searchFrame {
	frame := searchFrame{
		Query:   st.Query,
		Loading: st.Loading,
		Results: views.NewCoinRows(st.Results),
	}
	if st.Err != nil {
		frame.Error = st.Err.Error()
	}
	if !st.Loading && len(st.Results) == 0 {
		frame.Placeholder = placeholderNoResults
	}
	return frame
}

// Search is a single non-debounced lookup.
func (h *SearchHandler) Search(c *gin.Context) {
	q := c.Query("q")
	resp, err := h.marketService.SearchCoin(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newSearchFrame(search.State{Query: q, Results: resp.Data.Coins}))
}

// Live upgrades to a websocket. Each text frame from the client is the
// current search box contents; the server debounces and pushes states back.
func (h *SearchHandler) Live(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	log := h.logger.WithField("remote", c.ClientIP())
	log.Info("Live search connected")

	searcher := search.New(ctx, h.marketService, h.cfg, h.logger)
	defer searcher.Close()

	frames := make(chan searchFrame, wsSendBuffer)
	searcher.OnUpdate(func(st search.State) {
		select {
		case frames <- newSearchFrame(st):
		default:
			log.Warn("Live search client too slow, dropping frame")
		}
	})

	readErrors := make(chan error, 1)
	go func() {
		conn.SetReadLimit(wsMaxMessage)
		conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		})
		for {
			msgType, msg, err := conn.ReadMessage()
			if err != nil {
				readErrors <- err
				return
			}
			if msgType == websocket.TextMessage {
				searcher.OnTextChange(string(msg))
			}
		}
	}()

	pingTicker := time.NewTicker(wsPingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-readErrors:
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Warn("Live search read error")
			} else {
				log.Info("Live search disconnected")
			}
			return
		case frame := <-frames:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(frame); err != nil {
				log.WithError(err).Warn("Live search write failed")
				return
			}
		case <-pingTicker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
