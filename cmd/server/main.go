package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/jogcadence/internal/app"
	"github.com/jogcadence/internal/config"
	"github.com/jogcadence/internal/router"
)

func main() {
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	api, err := app.Bootstrap(cfg)
	if err != nil {
		log.Fatalf("failed to initialize: %v", err)
	}
	defer api.Close()

	r := router.SetupRouter(cfg.SessionSecret, api)
	log.Printf("[server] listening on %s", cfg.ListenAddr)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}
