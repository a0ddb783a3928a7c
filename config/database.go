package config

import (
	"fmt"
	"time"

	"campus-eats-api/models"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// OpenDB connects to the configured database. SQL logging goes through log
// at warn level; slow queries and failures are reported.
func OpenDB(cfg DatabaseConfig, log *logrus.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}

	if log == nil {
		log = logrus.StandardLogger()
	}
	gormCfg := &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(log, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	}
	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Driver, err)
	}
	return db, nil
}

// Models lists every persisted type in migration order.
func Models() []any {
	return []any{
		&models.User{},
		&models.Vendor{},
		&models.Meal{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusHistory{},
		&models.Delivery{},
		&models.Payment{},
		&models.Subscription{},
		&models.Cart{},
		&models.CartItem{},
	}
}

// Migrate auto-migrates all models and adds the indexes gorm tags cannot
// express.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	// MySQL has no partial indexes; there the subscription service's
	// transactional check is the only guard.
	switch db.Dialector.Name() {
	case "sqlite", "postgres":
		if err := db.Exec(oneActiveSubscriptionIndex).Error; err != nil {
			return fmt.Errorf("create subscription index: %w", err)
		}
	}
	return nil
}

// At most one ACTIVE pass per (user, vendor).
const oneActiveSubscriptionIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_subscriptions_one_active
	ON subscriptions (user_id, vendor_id) WHERE status = 'ACTIVE'`
