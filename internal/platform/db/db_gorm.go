package db

import (
	"log"
	"os"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"crypto_advisor/internal/feature/auth/domain/entity"
)

// OpenDB opens the SQLite database holding user accounts and migrates its
// schema. Price data never lives here; datasets are flat CSV files owned by
// the csvstore.
func OpenDB() *gorm.DB {
	path := os.Getenv("SQLITE_PATH")
	if path == "" {
		path = "advisor.db"
	}

	// TranslateErrorでドライバ固有の重複キーエラーをgorm.ErrDuplicatedKeyへ変換
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("DB open failed: %v", err)
	}

	if err := db.AutoMigrate(&entity.User{}); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	return db
}
