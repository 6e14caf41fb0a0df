package app

import (
	"fmt"
	"log"

	"github.com/jogcadence/internal/config"
	"github.com/jogcadence/internal/db"
	"github.com/jogcadence/internal/handler"
)

// Bootstrap 初始化数据库、调度策略与默认账号，返回装配好的 API
func Bootstrap(cfg config.AppConfig) (*handler.API, error) {
	if err := db.Init(cfg.DatabaseURL); err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	policy, err := config.LoadPolicy(cfg.SchedulePolicyFile)
	if err != nil {
		return nil, err
	}

	created, err := db.EnsureUser(db.DB, cfg.SuperRootUserName, cfg.SuperRootPassword)
	if err != nil {
		return nil, fmt.Errorf("ensure super root user: %w", err)
	}
	if created {
		log.Printf("[bootstrap] created user %s", cfg.SuperRootUserName)
	}

	return handler.NewAPI(db.DB, handler.Options{
		Policy:         policy,
		Location:       cfg.Location,
		JWTSecret:      cfg.JWTSecret,
		CalendarAccess: cfg.CalendarAccess,
		CompanionURL:   cfg.CompanionURL,
	}), nil
}
