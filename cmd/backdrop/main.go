package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/gogpu/gg"

	"github.com/B06o/muse-greet/internal/backdrop"
	"github.com/B06o/muse-greet/internal/desktop"
)

func main() {
	verbose := flag.Bool("v", false, "Verbose logging (same as BACKDROP_DEBUG=1)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `backdrop - animated greeting background

Usage:
  backdrop [options]

Options:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Environment:
  BACKDROP_DEBUG - any non-empty value enables debug logging

Keys:
  Escape closes the window.
`)
	}
	flag.Parse()

	level := slog.LevelInfo
	if *verbose || os.Getenv("BACKDROP_DEBUG") != "" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	backdrop.SetLogger(logger)
	gg.SetLogger(logger.With(slog.String("component", "gg")))

	if err := desktop.RunDesktop(desktop.DefaultConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "backdrop: %v\n", err)
		os.Exit(1)
	}
}
