// naneye-stream - capture from a NanEye camera and serve the frames over
// HTTP: JPEG frames on a websocket feed, queue stats as JSON.
//
//	naneye-stream -sim
//	naneye-watch -url ws://localhost:8090/ws/frames
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teslashibe/go-naneye/internal/config"
	"github.com/teslashibe/go-naneye/internal/log"
	"github.com/teslashibe/go-naneye/pkg/framesync"
	"github.com/teslashibe/go-naneye/pkg/naneye"
	"github.com/teslashibe/go-naneye/pkg/stream"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (optional)")
	port := flag.String("port", "", "listen port (overrides config)")
	sim := flag.Bool("sim", false, "use the synthetic driver instead of hardware")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *port != "" {
		cfg.Stream.Port = *port
	}
	if *sim {
		cfg.Sim.Enabled = true
	}
	log.Init(cfg.LogLevel)

	cam, err := openCamera(cfg)
	if err != nil {
		log.Error("camera init failed", "error", err)
		os.Exit(1)
	}
	defer cam.Close()

	qcfg := cfg.QueueConfig()
	qcfg.Logger = log.L()
	queue, err := framesync.New(qcfg)
	if err != nil {
		log.Error("queue init failed", "error", err)
		os.Exit(1)
	}

	cam.OnFrame(queue.Submit)
	if err := cam.Start(); err != nil {
		log.Error("capture start failed", "error", err)
		os.Exit(1)
	}
	log.Info("capture started", "sensor", cfg.Sensor, "mode", cfg.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := stream.NewServer(queue, stream.Config{
		Port:    cfg.Stream.Port,
		Quality: cfg.Stream.Quality,
		Timeout: time.Second,
	})
	if err := srv.Run(ctx); err != nil {
		log.Error("stream server failed", "error", err)
	}

	if err := cam.Stop(); err != nil {
		log.Warn("capture stop failed", "error", err)
	}
	stats := queue.Stats()
	log.Info("capture finished",
		"submitted", stats.Submitted,
		"delivered", stats.Delivered,
		"evicted", stats.Evicted)
}

func openCamera(cfg config.Config) (*naneye.Camera, error) {
	if cfg.Sim.Enabled {
		sim := naneye.NewSimulator(
			naneye.WithFrameRate(cfg.Sim.FPS),
			naneye.WithTimestampJitter(cfg.Sim.JitterUS),
		)
		return naneye.NewCameraWithDriver(sim, cfg.SensorType(), cfg.CaptureMode())
	}
	return naneye.NewCamera(cfg.SensorType(), cfg.CaptureMode())
}
