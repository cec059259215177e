package gormstore

import (
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenMySQL opens a MySQL-backed store and migrates the schema. The DSN
// must include parseTime=True so timestamp columns scan into time.Time.
func OpenMySQL(dsn string) (*Store, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	return migrate(db)
}

// OpenSQLite opens a SQLite-backed store and migrates the schema.
// ":memory:" gives an ephemeral database; used by tests and local
// development.
func OpenSQLite(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	return migrate(db)
}

func migrate(db *gorm.DB) (*Store, error) {
	err := db.AutoMigrate(
		&User{},
		&OneTimeCode{},
		&RefreshToken{},
		&StudentProfile{},
		&RecruiterProfile{},
	)
	if err != nil {
		return nil, err
	}
	return NewStore(db)
}
