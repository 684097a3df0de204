package db

import (
	"log"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/familymenu/nutrition-ai/internal/chat"
	"github.com/familymenu/nutrition-ai/internal/meals"
)

// Connect opens a pooled MySQL handle. Every caller borrows short-lived
// connections from the pool; nothing holds a single shared connection.
func Connect(dsn string) *gorm.DB {
	gdb, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("mysql open: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		log.Fatalf("mysql pool: %v", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := gdb.AutoMigrate(
		&chat.Session{},
		&chat.Message{},
		&meals.Suggestion{},
		&meals.Job{},
	); err != nil {
		log.Fatalf("automigrate: %v", err)
	}
	return gdb
}
