// Command xorg-capture-engine runs the capture-and-publish frame loop
// against a single X display and keeps it alive until terminated.
package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"xorgcapture/internal/display"
	"xorgcapture/internal/settings"
	"xorgcapture/internal/xorg"
)

func main() {
	cfg, err := settings.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("xorg-capture-engine: %v", err)
	}

	logger := log.New(os.Stderr, "xorg-capture-engine: ", log.LstdFlags)

	// disp is the concrete display.Display backing the session's
	// xorg.Options.Display; open only runs once per process (Manager
	// opens the X connection on the first Join), so capturing it here
	// is enough to Subscribe below once it exists.
	var disp *display.Display

	open := func(displayName string, logger *log.Logger) (xorg.Options, error) {
		conn, capturer, cursor, injector, err := xorg.OpenX11(displayName, logger)
		if err != nil {
			return xorg.Options{}, err
		}
		disp = display.New()
		return xorg.Options{
			Connection: conn,
			Capturer:   capturer,
			Cursor:     cursor,
			Injector:   injector,
			Display:    disp,
		}, nil
	}

	mgr := xorg.NewManager(open, cfg.Display, cfg.Width, cfg.Height, cfg.FPS, logger)

	const localViewer = "local"
	if _, err := mgr.Join(localViewer); err != nil {
		log.Fatalf("xorg-capture-engine: %v", err)
	}

	viewerID, feed := disp.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range feed {
			logger.Printf("frame: layer=%s rect=%+v %dx%d", update.Layer, update.Rect, update.Width, update.Height)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Printf("received %s, shutting down", sig)

	mgr.Leave(localViewer)
	disp.Unsubscribe(viewerID)
	<-done
}
