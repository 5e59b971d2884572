package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"serverstatus/internal/config"
	"serverstatus/internal/metrics"
	"serverstatus/internal/models"
	"serverstatus/internal/probe"
)

const (
	maxPortsPerRequest = 64
	maxRequestTimeout  = 30 * time.Second
	streamWriteTimeout = 5 * time.Second
)

var streamUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		host := strings.ToLower(strings.TrimSpace(r.Host))
		originHost := strings.ToLower(strings.TrimSpace(u.Host))
		return host == originHost
	},
}

// Server answers reachability checks on demand. Nothing is kept between requests.
type Server struct {
	httpServer  *http.Server
	engine      *gin.Engine
	prober      *probe.Prober
	targets     []models.Target
	timeout     time.Duration
	concurrency int
}

// CheckResponse is returned by /api/check.
type CheckResponse struct {
	models.Run
	Summary metrics.Summary `json:"summary"`
}

// StreamMessage is one frame of /api/check/ws.
type StreamMessage struct {
	Type    string              `json:"type"`
	Index   *int                `json:"index,omitempty"`
	Result  *models.CheckResult `json:"result,omitempty"`
	Summary *metrics.Summary    `json:"summary,omitempty"`
}

// New creates a configured HTTP server.
func New(addr string, cfg config.Config, prober *probe.Prober) *Server {
	engine := gin.New()
	engine.Use(gin.LoggerWithWriter(log.Writer()), gin.Recovery())

	s := &Server{
		httpServer:  &http.Server{Addr: addr, Handler: engine, ReadHeaderTimeout: 10 * time.Second},
		engine:      engine,
		prober:      prober,
		targets:     cfg.Targets,
		timeout:     cfg.Timeout(),
		concurrency: cfg.Concurrency,
	}
	s.registerRoutes(engine)
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run blocks and serves HTTP traffic.
func (s *Server) Run() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts the server down.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) registerRoutes(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	api := r.Group("/api")
	api.GET("/targets", s.handleTargets)
	api.GET("/check", s.handleCheck)
	api.GET("/check/ws", s.handleCheckStream)
}

func (s *Server) handleTargets(c *gin.Context) {
	c.JSON(http.StatusOK, s.targets)
}

func (s *Server) handleCheck(c *gin.Context) {
	targets, timeout, err := s.parseCheckRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	run := probe.NewRunner(s.prober, timeout, s.concurrency).Run(c.Request.Context(), targets, nil)
	c.JSON(http.StatusOK, CheckResponse{
		Run:     run,
		Summary: metrics.Summarize(run.Results),
	})
}

func (s *Server) handleCheckStream(c *gin.Context) {
	targets, timeout, err := s.parseCheckRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conn, err := streamUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	var writeErr error
	observe := func(i int, res models.CheckResult) {
		if writeErr != nil {
			return
		}
		idx := i
		result := res
		if writeErr = writeStream(conn, StreamMessage{Type: "result", Index: &idx, Result: &result}); writeErr != nil {
			cancel()
		}
	}

	run := probe.NewRunner(s.prober, timeout, s.concurrency).Run(ctx, targets, observe)
	if writeErr != nil {
		return
	}

	summary := metrics.Summarize(run.Results)
	if err := writeStream(conn, StreamMessage{Type: "summary", Summary: &summary}); err != nil {
		return
	}
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"),
		time.Now().Add(streamWriteTimeout),
	)
}

func writeStream(conn *websocket.Conn, msg StreamMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	return conn.WriteJSON(msg)
}

// parseCheckRequest reads host, port and timeout query parameters. Without
// a host the configured targets are checked.
func (s *Server) parseCheckRequest(c *gin.Context) ([]models.Target, time.Duration, error) {
	timeout := s.timeout
	if raw := strings.TrimSpace(c.Query("timeout")); raw != "" {
		parsed, err := parseTimeout(raw)
		if err != nil {
			return nil, 0, err
		}
		timeout = parsed
	}

	host := strings.TrimSpace(c.Query("host"))
	rawPorts := c.QueryArray("port")
	if host == "" {
		if len(rawPorts) > 0 {
			return nil, 0, errors.New("host is required when port is given")
		}
		return s.targets, timeout, nil
	}
	if len(rawPorts) == 0 {
		return nil, 0, errors.New("at least one port is required")
	}
	if len(rawPorts) > maxPortsPerRequest {
		return nil, 0, fmt.Errorf("at most %d ports per request", maxPortsPerRequest)
	}

	ports := make([]int, 0, len(rawPorts))
	for _, raw := range rawPorts {
		port, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, 0, fmt.Errorf("invalid port %q", raw)
		}
		if err := config.ValidatePort(port); err != nil {
			return nil, 0, err
		}
		ports = append(ports, port)
	}

	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		name = host
	}
	return []models.Target{{ID: host, Name: name, Host: host, Ports: ports}}, timeout, nil
}

// parseTimeout accepts a Go duration ("1500ms") or plain seconds ("3", "0.5").
func parseTimeout(raw string) (time.Duration, error) {
	d, err := time.ParseDuration(raw)
	if err != nil {
		secs, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil || math.IsNaN(secs) || math.IsInf(secs, 0) {
			return 0, fmt.Errorf("invalid timeout %q", raw)
		}
		if secs < 0 {
			return 0, fmt.Errorf("timeout %q must not be negative", raw)
		}
		// Large values overflow Duration; clamp before converting.
		if secs*float64(time.Second) > float64(maxRequestTimeout) {
			return maxRequestTimeout, nil
		}
		d = time.Duration(secs * float64(time.Second))
	}
	if d < 0 {
		return 0, fmt.Errorf("timeout %q must not be negative", raw)
	}
	if d > maxRequestTimeout {
		d = maxRequestTimeout
	}
	return d, nil
}
