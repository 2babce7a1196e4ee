package main

import (
	"log"

	"github.com/rasterpost/rasterpost/config"
	"github.com/rasterpost/rasterpost/server"
)

func main() {
	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("Config initialization failed: %v", err)
	}

	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("Rasterpost starting up...")

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Server setup failed: %v", err)
	}

	if err := srv.Run(); err != nil {
		log.Fatalf("Daemon exited with error: %v", err)
	}
}
