package store

import (
	"context"
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kart-io/docbase/internal/model"
)

// DBOptions 数据库连接配置。
type DBOptions struct {
	// Driver 取值 sqlite、mysql 或 postgres。
	Driver string
	// DSN 数据源。sqlite 为文件路径。
	DSN string
}

// datastore 基于 gorm 实现 Factory。
type datastore struct {
	db *gorm.DB
}

var _ Factory = (*datastore)(nil)

// NewDatastore 按配置打开数据库并返回存储工厂。
func NewDatastore(opts *DBOptions) (Factory, error) {
	if opts == nil {
		return nil, fmt.Errorf("database options is nil")
	}

	var dialector gorm.Dialector
	switch opts.Driver {
	case "sqlite":
		dialector = sqlite.Open(opts.DSN)
	case "mysql":
		dialector = mysql.Open(opts.DSN)
	case "postgres":
		dialector = postgres.Open(opts.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &datastore{db: db}, nil
}

// AutoMigrate 创建或更新全部表结构。
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Project{},
		&model.Document{},
		&model.Chat{},
		&model.ChatDocument{},
		&model.Message{},
	)
}

func (ds *datastore) Projects() ProjectStore {
	return newProjects(ds.db)
}

func (ds *datastore) Documents() DocumentStore {
	return newDocuments(ds.db)
}

func (ds *datastore) Chats() ChatStore {
	return newChats(ds.db)
}

func (ds *datastore) Messages() MessageStore {
	return newMessages(ds.db)
}

// Transaction 在单个数据库事务内执行 fn。
func (ds *datastore) Transaction(ctx context.Context, fn func(txFactory Factory) error) error {
	return ds.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&datastore{db: tx})
	})
}

func (ds *datastore) DB() *gorm.DB {
	return ds.db
}

func (ds *datastore) Close() error {
	sqlDB, err := ds.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
