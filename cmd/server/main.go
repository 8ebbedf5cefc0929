package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tablelobby/backend/internal/auth"
	"github.com/tablelobby/backend/internal/config"
	"github.com/tablelobby/backend/internal/health"
	"github.com/tablelobby/backend/internal/lobby"
	"github.com/tablelobby/backend/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	port := flag.Int("port", 0, "Override server port")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *port > 0 {
		cfg.Server.Port = *port
	}

	creds := make([]auth.Credential, 0, len(cfg.Auth.Users))
	for _, u := range cfg.Auth.Users {
		role, err := auth.ParseRole(u.Role)
		if err != nil {
			log.Fatalf("Invalid config: %v", err)
		}
		creds = append(creds, auth.Credential{Username: u.Username, Password: u.Password, Role: role})
	}
	checker := auth.NewStaticChecker(creds)

	hub := lobby.NewHub(cfg.Lobby.SendBuffer)
	seed := make([]lobby.Table, 0, len(cfg.Lobby.Seed))
	for _, t := range cfg.Lobby.Seed {
		seed = append(seed, lobby.Table{Name: t.Name, Participants: t.Participants})
	}
	hub.Seed(seed)
	if len(seed) > 0 {
		log.Printf("Seeded lobby with %d tables", len(seed))
	}

	server := ws.NewServer(cfg, hub, checker, health.NewProbe())

	mux := http.NewServeMux()
	server.SetupRoutes(mux)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutting down...")
		os.Exit(0)
	}()

	if err := ws.ListenAndServe(cfg.Server.Host, cfg.Server.Port, mux); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
