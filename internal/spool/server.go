package spool

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bhargavkumar1612/photoBomb-sub000/internal/logging"
	"github.com/bhargavkumar1612/photoBomb-sub000/internal/version"
)

// Server exposes the daemon's registration API over a unix socket.
// Binding to a filesystem socket keeps the queue private to the local
// user; the socket's parent directory is created 0700.
type Server struct {
	state  *State
	worker *Worker
	logger *logging.Logger

	socketPath string
	httpServer *http.Server
}

// NewServer wires the HTTP surface over the given state and worker.
func NewServer(socketPath string, state *State, worker *Worker, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewDefaultCLILogger()
	}
	return &Server{
		state:      state,
		worker:     worker,
		logger:     logger,
		socketPath: socketPath,
	}
}

// routes builds the gin engine. Split out so tests can hit the handlers
// without a socket.
func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/healthz", s.handleHealth)
	engine.GET("/registrations", s.handleList)
	engine.POST("/registrations", s.handleRegister)
	engine.GET("/registrations/:id/progress", s.handleProgress)
	engine.GET("/registrations/:id/records", s.handleRecords)
	engine.DELETE("/registrations/:id", s.handleAbort)

	return engine
}

// Serve listens on the unix socket until ctx is cancelled. A stale
// socket file from a crashed daemon is removed first.
func (s *Server) Serve(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0700); err != nil {
		return err
	}
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return err
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return err
	}
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return err
	}

	s.httpServer = &http.Server{Handler: s.routes()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = s.httpServer.Shutdown(shutdownCtx)
		_ = os.Remove(s.socketPath)
	}()

	s.logger.Info().Str("socket", s.socketPath).Msg("Spool daemon listening")
	if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type healthResponse struct {
	Status  string `json:"status"`
	Origin  string `json:"origin"`
	Version string `json:"version"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{
		Status:  "ok",
		Origin:  s.state.Origin,
		Version: version.Version,
	})
}

func (s *Server) handleList(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"registrations": s.state.Registrations()})
}

type registerRequest struct {
	BatchID string          `json:"batch_id" binding:"required"`
	Files   []UploadRequest `json:"files" binding:"required,min=1"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	records := make([]*Record, len(req.Files))
	for i, f := range req.Files {
		records[i] = &Record{
			ID:        uuid.NewString(),
			Filename:  f.Filename,
			LocalPath: f.LocalPath,
			Size:      f.Size,
		}
	}

	if err := s.state.AddBatch(req.BatchID, records); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	s.logger.Info().Str("batch", req.BatchID).Int("files", len(records)).Msg("Batch registered")
	s.worker.Kick()
	c.JSON(http.StatusCreated, gin.H{"batch_id": req.BatchID})
}

func (s *Server) handleProgress(c *gin.Context) {
	progress, err := s.state.Progress(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, progress)
}

func (s *Server) handleRecords(c *gin.Context) {
	records, err := s.state.Records(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

func (s *Server) handleAbort(c *gin.Context) {
	batchID := c.Param("id")
	status, err := s.state.Status(batchID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	switch status {
	case StatusCompleted, StatusFailed, StatusAborted:
		// Terminal already: abort is a no-op, not an error
		c.JSON(http.StatusOK, gin.H{"batch_id": batchID, "status": status})
		return
	}

	if err := s.state.AbortBatch(batchID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.worker.CancelBatch(batchID)
	s.logger.Info().Str("batch", batchID).Msg("Batch aborted")
	c.JSON(http.StatusOK, gin.H{"batch_id": batchID, "status": StatusAborted})
}
