// naneye-view - capture from a NanEye camera and display it in an OpenCV
// window. Stereo mode shows the two sensors side by side.
//
// Run against real hardware (Windows, after naneye-install):
//
//	naneye-view -config naneye.yaml
//
// Or anywhere with the synthetic driver:
//
//	naneye-view -sim
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/teslashibe/go-naneye/internal/config"
	"github.com/teslashibe/go-naneye/internal/log"
	"github.com/teslashibe/go-naneye/pkg/framesync"
	"github.com/teslashibe/go-naneye/pkg/naneye"
	"github.com/teslashibe/go-naneye/pkg/viewer"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (optional)")
	mode := flag.String("mode", "", "capture mode: ch1, ch2 or stereo (overrides config)")
	sim := flag.Bool("sim", false, "use the synthetic driver instead of hardware")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *mode != "" {
		cfg.Mode = *mode
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
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
	fmt.Println("Capture running. Press 'q' or ESC in the window to quit.")

	v := viewer.New(queue, viewer.Options{})
	if err := v.Run(); err != nil {
		log.Error("viewer failed", "error", err)
	}

	if err := cam.Stop(); err != nil {
		log.Warn("capture stop failed", "error", err)
	}

	stats := queue.Stats()
	log.Info("capture finished",
		"submitted", stats.Submitted,
		"delivered", stats.Delivered,
		"evicted", stats.Evicted,
		"unroutable", stats.Unroutable)
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
