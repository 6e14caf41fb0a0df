package handler

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/jogcadence/internal/calendar"
	"github.com/jogcadence/internal/companion"
	"github.com/jogcadence/internal/config"
	"github.com/jogcadence/internal/service"
	"gorm.io/gorm"
)

// Options 汇总构造 API 所需的运行参数
type Options struct {
	Policy         config.SchedulePolicy
	Location       *time.Location
	JWTSecret      string
	CalendarAccess string
	CompanionURL   string
}

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db          *gorm.DB
	goals       *service.GoalService
	sessions    *service.SessionService
	preferences *service.PreferenceService
	settings    *service.SettingService
	scheduler   *service.Scheduler
	sync        *service.SyncService
	publisher   *companion.Publisher
	tokens      *TokenIssuer
	location    *time.Location
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, opts Options) *API {
	location := opts.Location
	if location == nil {
		location = time.Local
	}

	settings := service.NewSettingService(gdb, service.SettingDefaults{
		CalendarAccess: opts.CalendarAccess,
		CompanionURL:   opts.CompanionURL,
	})
	goals := service.NewGoalService(gdb)
	sessions := service.NewSessionService(gdb)
	preferences := service.NewPreferenceService(gdb)

	companionURL := strings.TrimSpace(opts.CompanionURL)
	if current, err := settings.GetSettings(context.Background()); err != nil {
		log.Printf("[sync] failed to load companion settings: %v", err)
	} else {
		companionURL = current.CompanionURL
	}

	var publisher *companion.Publisher
	var snapshotPublisher service.SnapshotPublisher
	if companionURL != "" {
		publisher = companion.NewPublisher(companion.NewHTTPChannel(companionURL), settings)
		snapshotPublisher = publisher
	}

	scheduler := service.NewScheduler(service.SchedulerDeps{
		Calendar:    calendar.NewStore(gdb, settings),
		Goals:       goals,
		Sessions:    sessions,
		Preferences: preferences,
		Publisher:   snapshotPublisher,
		Policy:      opts.Policy,
		Location:    location,
	})

	return &API{
		db:          gdb,
		goals:       goals,
		sessions:    sessions,
		preferences: preferences,
		settings:    settings,
		scheduler:   scheduler,
		sync:        service.NewSyncService(goals, sessions, scheduler),
		publisher:   publisher,
		tokens:      NewTokenIssuer(opts.JWTSecret, 0),
		location:    location,
	}
}

// DB exposes the underlying gorm instance.
func (a *API) DB() *gorm.DB {
	return a.db
}

// Scheduler 暴露调度器，供命令行工具与测试复用
func (a *API) Scheduler() *service.Scheduler {
	return a.scheduler
}

// Sync 暴露同步服务
func (a *API) Sync() *service.SyncService {
	return a.sync
}

// Goals 暴露目标服务
func (a *API) Goals() *service.GoalService {
	return a.goals
}

// Close 等待后台推送结束
func (a *API) Close() {
	if a.publisher != nil {
		a.publisher.Wait()
	}
}
