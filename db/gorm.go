package db

import (
	"net"
	"time"

	"cdstash/config"
	"cdstash/logger"
	"cdstash/model"

	"github.com/cockroachdb/errors"
	"github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// MySQLDSN 由配置拼出 MySQL DSN
func MySQLDSN(cfg *config.Config) string {
	c := mysql.NewConfig()
	c.User = cfg.DBUser
	c.Passwd = cfg.DBPassword
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(cfg.DBHost, cfg.DBPort)
	c.DBName = cfg.DBName
	c.ParseTime = true
	c.Loc = time.Local
	c.Params = map[string]string{"charset": "utf8mb4"}
	return c.FormatDSN()
}

// OpenGorm 按 STORE_DRIVER 打开 MySQL 或 SQLite，并迁移表结构
func OpenGorm(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.StoreDriver {
	case config.StoreMySQL:
		dialector = gormmysql.Open(MySQLDSN(cfg))
	case config.StoreSQLite:
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		return nil, errors.Newf("store driver %q is not backed by GORM", cfg.StoreDriver)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		// 禁用外键约束
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database with GORM")
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get underlying sql.DB")
	}
	if cfg.StoreDriver == config.StoreMySQL {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	if err := AutoMigrate(gdb); err != nil {
		return nil, err
	}
	logger.Info("Connected to the database with GORM", logger.String("driver", cfg.StoreDriver))
	return gdb, nil
}

// AutoMigrate 迁移专辑、曲目、播放列表三张表
func AutoMigrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(&model.Album{}, &model.Track{}, &model.Playlist{}); err != nil {
		return errors.Wrap(err, "failed to auto migrate models")
	}
	return nil
}

// CloseGorm 关闭 GORM 数据库连接
func CloseGorm(gdb *gorm.DB) error {
	if gdb == nil {
		return nil
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
