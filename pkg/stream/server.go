package stream

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"gocv.io/x/gocv"

	"github.com/teslashibe/go-naneye/internal/log"
	"github.com/teslashibe/go-naneye/pkg/framesync"
	"github.com/teslashibe/go-naneye/pkg/naneye"
	"github.com/teslashibe/go-naneye/pkg/viewer"
)

// Config tunes the streaming server.
type Config struct {
	// Port is the listen port. Default "8090".
	Port string

	// Quality is the JPEG encode quality 1-100. Default 85.
	Quality int

	// Timeout is the per-retrieval wait on the queue. Default 1s.
	Timeout time.Duration
}

// Server consumes a framesync queue, JPEG-encodes each delivery (stereo
// pairs as a side-by-side composite) and pushes the result to websocket
// subscribers. It also exposes the queue's operational stats as JSON.
type Server struct {
	app   *fiber.App
	queue *framesync.Queue
	hub   *Hub
	cfg   Config
}

// NewServer creates the streaming server for the given queue.
func NewServer(q *framesync.Queue, cfg Config) *Server {
	if cfg.Port == "" {
		cfg.Port = "8090"
	}
	if cfg.Quality == 0 {
		cfg.Quality = 85
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = time.Second
	}

	s := &Server{
		app:   fiber.New(fiber.Config{DisableStartupMessage: true}),
		queue: q,
		hub:   newHub(),
		cfg:   cfg,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Get("/api/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"mode":    s.queue.Mode().String(),
			"clients": s.hub.ClientCount(),
		})
	})

	s.app.Get("/api/stats", func(c *fiber.Ctx) error {
		return c.JSON(s.queue.Stats())
	})

	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	s.app.Get("/ws/frames", websocket.New(func(conn *websocket.Conn) {
		newClient(s.hub, conn).run()
	}))
}

// Run starts the hub, the encode pump and the HTTP listener, blocking until
// ctx is cancelled or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	pumpCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.hub.Run(pumpCtx)
	go s.pump(pumpCtx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(":" + s.cfg.Port)
	}()
	log.Info("stream server listening", "port", s.cfg.Port, "mode", s.queue.Mode().String())

	select {
	case <-ctx.Done():
		return s.app.Shutdown()
	case err := <-errCh:
		return err
	}
}

// pump drains the queue and broadcasts encoded frames. With no clients
// connected it still drains (keeping the queue fresh) but skips the encode.
func (s *Server) pump(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		jpeg, err := s.nextJPEG()
		if errors.Is(err, framesync.ErrNoFrame) {
			continue
		}
		if err != nil {
			log.Error("frame encode failed", "error", err)
			continue
		}
		if jpeg != nil {
			s.hub.Broadcast(jpeg)
		}
	}
}

func (s *Server) nextJPEG() ([]byte, error) {
	var img gocv.Mat
	var err error

	if s.queue.Mode() == framesync.ModeStereo {
		var left, right naneye.Frame
		left, right, err = s.queue.NextPair(s.cfg.Timeout)
		if err != nil {
			return nil, err
		}
		if s.hub.ClientCount() == 0 {
			return nil, nil
		}
		img, err = viewer.SideBySide(left, right)
	} else {
		var f naneye.Frame
		f, err = s.queue.Next(s.cfg.Timeout)
		if err != nil {
			return nil, err
		}
		if s.hub.ClientCount() == 0 {
			return nil, nil
		}
		img, err = f.Mat()
	}
	if err != nil {
		return nil, err
	}
	defer img.Close()

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, img,
		[]int{gocv.IMWriteJpegQuality, s.cfg.Quality})
	if err != nil {
		return nil, err
	}
	defer buf.Close()

	out := make([]byte, len(buf.GetBytes()))
	copy(out, buf.GetBytes())
	return out, nil
}
