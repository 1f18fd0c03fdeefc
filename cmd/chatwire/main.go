package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/chatwire/chatwire/internal/client"
	"github.com/chatwire/chatwire/internal/config"
	"github.com/chatwire/chatwire/internal/registry"
	"github.com/chatwire/chatwire/internal/relay"
	"github.com/chatwire/chatwire/internal/tui"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "start":
		runStart(os.Args[2:])
	case "connect":
		runConnect(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: chatwire start [--port N] [--host H] [--config FILE]")
	fmt.Fprintln(os.Stderr, "       chatwire connect --token T [--host H] [--port N] [--name NAME]")
}

func runStart(args []string) {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "Path to config file")
	port := fs.Int("port", 0, "Override server port")
	host := fs.String("host", "", "Override bind host")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = config.Default()
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *host != "" {
		cfg.Server.Host = *host
	}

	reg := registry.New()
	bc := relay.NewBroadcaster(reg)
	presence := relay.NewPresence(reg, bc)
	typing := relay.NewTyping(bc, cfg.Typing.TTL.Std(), cfg.Typing.SweepInterval.Std())
	router := relay.NewRouter(bc, typing)
	server := relay.NewServer(cfg, reg, bc, presence, typing, router)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go typing.Start(ctx)

	mux := http.NewServeMux()
	server.SetupRoutes(mux)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutting down...")
		server.Shutdown()
		cancel()
		os.Exit(0)
	}()

	if err := relay.ListenAndServe(cfg.Server.Host, cfg.Server.Port, mux); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func runConnect(args []string) {
	fs := flag.NewFlagSet("connect", flag.ExitOnError)
	host := fs.String("host", "localhost", "Relay host")
	port := fs.Int("port", 8080, "Relay port")
	token := fs.String("token", "", "Auth token")
	name := fs.String("name", "", "Display name (assigned by the relay if empty)")
	fs.Parse(args)

	url := fmt.Sprintf("ws://%s:%d/ws", *host, *port)
	cfg := config.Default()
	ctrl := client.New(url, *token, *name, client.WebsocketDialer{}, client.Options{
		MaxAttempts:   cfg.Client.ReconnectAttempts,
		RetryInterval: cfg.Client.ReconnectInterval.Std(),
	})

	p := tea.NewProgram(tui.New(ctrl), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	ctrl.Disconnect()
}
