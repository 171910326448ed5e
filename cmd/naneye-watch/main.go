// naneye-watch - subscribe to a naneye-stream frame feed from another
// machine, report throughput and optionally save frames to disk.
//
//	naneye-watch -url ws://192.168.1.20:8090/ws/frames -save-every 30 -out frames/
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

func main() {
	url := flag.String("url", "ws://localhost:8090/ws/frames", "frame feed websocket URL")
	saveEvery := flag.Int("save-every", 0, "save every Nth frame (0 = never)")
	outDir := flag.String("out", "frames", "directory for saved frames")
	flag.Parse()

	fmt.Printf("Connecting to %s...\n", *url)
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.Dial(*url, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect failed: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()
	fmt.Println("Connected. Receiving frames (Ctrl+C to stop)...")

	if *saveEvery > 0 {
		if err := os.MkdirAll(*outDir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "create %s: %v\n", *outDir, err)
			os.Exit(1)
		}
	}

	frames := 0
	bytes := 0
	start := time.Now()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		elapsed := time.Since(start).Seconds()
		fmt.Printf("\n\nStats: %d frames, %.1f MB in %.1fs (%.1f fps)\n",
			frames, float64(bytes)/1e6, elapsed, float64(frames)/elapsed)
		conn.Close()
		os.Exit(0)
	}()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			fmt.Printf("\nStream closed: %v\n", err)
			return
		}
		if msgType != websocket.BinaryMessage {
			continue
		}

		frames++
		bytes += len(data)
		fmt.Printf("\rFrame %d: %d bytes (%.1f fps)     ",
			frames, len(data), float64(frames)/time.Since(start).Seconds())

		if *saveEvery > 0 && frames%*saveEvery == 0 {
			name := filepath.Join(*outDir, fmt.Sprintf("frame_%06d.jpg", frames))
			if err := os.WriteFile(name, data, 0o644); err != nil {
				fmt.Printf("\nsave failed: %v\n", err)
			}
		}
	}
}
