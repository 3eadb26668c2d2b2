package setup

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/ncruces/go-sqlite3/gormlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	_ "github.com/ncruces/go-sqlite3/embed" // SQLite engine
)

// Supported SQL drivers.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// DBOptions selects and addresses the SQL database.
type DBOptions struct {
	Driver     string
	DSN        string // used verbatim when set
	User       string
	Password   string
	Host       string
	Port       string
	Name       string
	SQLitePath string
}

// InitDB opens the configured database and sizes its connection pool.
func InitDB(opts DBOptions) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	}

	var dialector gorm.Dialector
	switch opts.Driver {
	case "", DriverSQLite:
		dsn := opts.DSN
		if dsn == "" {
			path := opts.SQLitePath
			if path == "" {
				path = "thumbio.db"
			}
			dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
		}
		dialector = gormlite.Open(dsn)
	case DriverMySQL:
		dsn, err := mysqlDSN(opts)
		if err != nil {
			return nil, err
		}
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", opts.Driver)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driverName(opts.Driver), err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if opts.Driver == DriverMySQL {
		sqlDB.SetMaxOpenConns(50)
		sqlDB.SetMaxIdleConns(10)
	} else {
		// SQLite allows one writer at a time.
		sqlDB.SetMaxOpenConns(1)
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	logrus.WithField("driver", driverName(opts.Driver)).Info("Setup: database connected")
	return db, nil
}

func driverName(d string) string {
	if d == "" {
		return DriverSQLite
	}
	return d
}

// mysqlDSN builds the MySQL DSN from discrete settings unless DSN is given.
func mysqlDSN(opts DBOptions) (string, error) {
	if opts.DSN != "" {
		return opts.DSN, nil
	}
	if opts.User == "" {
		return "", fmt.Errorf("DB_USER environment variable not set")
	}
	if opts.Password == "" {
		return "", fmt.Errorf("DB_PASSWORD environment variable not set")
	}
	host, port, name := opts.Host, opts.Port, opts.Name
	if host == "" {
		host = "127.0.0.1"
	}
	if port == "" {
		port = "3306"
	}
	if name == "" {
		name = "thumbio"
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		opts.User, opts.Password, host, port, name), nil
}

// InitRedis connects to Redis and verifies the connection with PING.
func InitRedis(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     20,
		MinIdleConns: 5,
		MaxConnAge:   30 * time.Minute,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	logrus.WithField("addr", addr).Info("Setup: Redis connected")
	return client, nil
}
