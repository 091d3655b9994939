// Package fixture serves a stand-in for the chat archive viewer that exposes
// the same selectors the verification scenario relies on. It backs the
// browser tests and the `uiverify fixture` command.
package fixture

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/flosch/pongo2/v6"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//go:embed templates/index.html
var indexTemplate []byte

var index = pongo2.Must(pongo2.FromBytes(indexTemplate))

// ReadyPath is polled by the page before it hides the loading indicator.
const ReadyPath = "/api/ready"

// Options injects faults into the fixture.
type Options struct {
	// ReadyDelay holds back the ready response, keeping "Loading..." on screen.
	ReadyDelay time.Duration
	// StallLoading answers the ready request with 503 so the loader never hides.
	StallLoading bool
	// OmitChatTestID drops data-testid from the chat header title.
	OmitChatTestID bool
	// OmitBackLabel drops the accessible label from the back button.
	OmitBackLabel bool
}

// Server is the fixture application.
type Server struct {
	opts          Options
	conversations []Conversation
	engine        *gin.Engine
	logger        *zap.Logger
}

// NewServer builds the fixture with the mock archive.
func NewServer(opts Options, logger *zap.Logger) *Server {
	s := &Server{
		opts:          opts,
		conversations: MockConversations(),
		logger:        logger.With(zap.String("component", "fixture")),
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.GET("/", s.handleIndex)
	r.GET(ReadyPath, s.handleReady)
	r.GET("/api/conversations", s.handleConversations)
	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	s.engine = r
	return s
}

// Handler returns the HTTP handler, for httptest servers.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Fixture listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("fixture server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("fixture shutdown: %w", err)
		}
		s.logger.Info("Fixture stopped")
		return nil
	}
}

func (s *Server) handleIndex(c *gin.Context) {
	ctx := pongo2.Context{
		"title":         "Chat Archive",
		"conversations": s.conversations,
		"test_ids":      !s.opts.OmitChatTestID,
		"back_label":    !s.opts.OmitBackLabel,
		"ready_path":    ReadyPath,
	}
	out, err := index.Execute(ctx)
	if err != nil {
		s.logger.Error("Failed to render index", zap.Error(err))
		c.String(http.StatusInternalServerError, "render error")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(out))
}

func (s *Server) handleReady(c *gin.Context) {
	if s.opts.StallLoading {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ready": false})
		return
	}
	if s.opts.ReadyDelay > 0 {
		select {
		case <-time.After(s.opts.ReadyDelay):
		case <-c.Request.Context().Done():
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"ready": true, "conversations": len(s.conversations)})
}

func (s *Server) handleConversations(c *gin.Context) {
	type item struct {
		ID       string `json:"id"`
		Title    string `json:"title"`
		Type     string `json:"type"`
		Messages int    `json:"messages"`
	}
	items := make([]item, 0, len(s.conversations))
	for _, conv := range s.conversations {
		items = append(items, item{ID: conv.ID, Title: conv.Title, Type: conv.Type, Messages: len(conv.Messages)})
	}
	c.JSON(http.StatusOK, gin.H{"conversations": items})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("Request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
