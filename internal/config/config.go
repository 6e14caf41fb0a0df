package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr         string
	Port               string
	DatabaseURL        string
	SessionSecret      string
	JWTSecret          string
	GinMode            string
	SuperRootUserName  string
	SuperRootPassword  string
	SchedulePolicyFile string
	CompanionURL       string
	CalendarAccess     string
	Location           *time.Location
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
// 工作目录下存在 .env 时先加载，已有的环境变量不会被覆盖。
func Load() AppConfig {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[config] failed to load .env: %v", err)
	}

	port := envOrDefault("PORT", "8080")

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	calendarAccess := strings.ToLower(envOrDefault("CALENDAR_ACCESS", "granted"))
	if calendarAccess != "denied" {
		calendarAccess = "granted"
	}

	return AppConfig{
		ListenAddr:         listenAddr,
		Port:               port,
		DatabaseURL:        envOrDefault("DATABASE_URL", "jogcadence.db"),
		SessionSecret:      envOrDefault("SESSION_SECRET", "jogcadence-dev-secret"),
		JWTSecret:          envOrDefault("JWT_SECRET", "jogcadence-dev-jwt-secret"),
		GinMode:            envOrDefault("GIN_MODE", "release"),
		SuperRootUserName:  strings.TrimSpace(os.Getenv("SUPER_ROOT_USER_NAME")),
		SuperRootPassword:  strings.TrimSpace(os.Getenv("SUPER_ROOT_PASSWORD")),
		SchedulePolicyFile: strings.TrimSpace(os.Getenv("SCHEDULE_POLICY_FILE")),
		CompanionURL:       strings.TrimSpace(os.Getenv("COMPANION_URL")),
		CalendarAccess:     calendarAccess,
		Location:           loadLocation(os.Getenv("TIMEZONE")),
	}
}

func envOrDefault(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func loadLocation(name string) *time.Location {
	name = strings.TrimSpace(name)
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("[config] unknown TIMEZONE %q, falling back to local: %v", name, err)
		return time.Local
	}
	return loc
}
