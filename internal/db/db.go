package db

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB 是一个全局的数据库连接实例，仅供 cmd 入口使用；服务层通过构造函数注入
var DB *gorm.DB

const defaultDatabasePath = "jogcadence.db"

// Models 返回需要迁移的全部模型
func Models() []any {
	return []any{
		&User{},
		&Goal{},
		&Session{},
		&Preference{},
		&CalendarEvent{},
		&SystemSetting{},
	}
}

// Init 初始化数据库连接并执行自动迁移。
// databaseURL 以 postgres:// 或 postgresql:// 开头时使用 PostgreSQL，否则视为 SQLite 文件路径；
// 为空时回退到默认值 jogcadence.db。
func Init(databaseURL string) error {
	gdb, err := Open(databaseURL, logger.Warn)
	if err != nil {
		return err
	}

	if err := gdb.AutoMigrate(Models()...); err != nil {
		return err
	}

	DB = gdb
	return nil
}

// Open 打开数据库连接但不迁移
func Open(databaseURL string, level logger.LogLevel) (*gorm.DB, error) {
	dialector, err := dialectorFor(databaseURL)
	if err != nil {
		return nil, err
	}

	return gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
}

func dialectorFor(databaseURL string) (gorm.Dialector, error) {
	url := strings.TrimSpace(databaseURL)
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		return postgres.Open(url), nil
	}

	if url == "" {
		url = defaultDatabasePath
	}

	if !strings.HasPrefix(url, "file:") {
		if err := ensureParentDir(url); err != nil {
			return nil, err
		}
	}

	return sqlite.Open(url), nil
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
