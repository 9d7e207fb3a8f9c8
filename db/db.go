package db

import (
	"fmt"
	"os"
	"path/filepath"

	"hub/config"
	"hub/models"
	"hub/pocketbase"
	"hub/store"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
	"github.com/rs/zerolog"
)

// Connect opens the gorm database (sqlite3 by default) and migrates the
// records table. Set AUTOMIGRATE=0 to skip the migration.
func Connect(conf config.Configuration, log zerolog.Logger) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)

	if conf.Database == "postgres" || conf.Database == "postgresql" {
		log.Info().Str("host", conf.DbHost).Msg("using postgres connection")
		path := "host=" + conf.DbHost + " port=" + conf.DbPort
		path += " user=" + conf.DbUser + " dbname=" + conf.DbName
		path += " password=" + conf.DbPass + " sslmode=disable"
		db, err = gorm.Open("postgres", path)
	} else {
		log.Info().Str("path", conf.DbName).Msg("using sqlite3 connection")
		if dir := filepath.Dir(conf.DbName); dir != "" {
			_ = os.MkdirAll(dir, 0o755)
		}
		db, err = gorm.Open("sqlite3", conf.DbName)
	}
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	db.LogMode(conf.LogLevel == "debug")
	if conf.Database == "sqlite3" {
		// one connection: sqlite serializes writers
		db.DB().SetMaxOpenConns(1)
	}

	if os.Getenv("AUTOMIGRATE") != "0" {
		if err := db.AutoMigrate(&models.RecordRow{}).Error; err != nil {
			db.Close()
			return nil, fmt.Errorf("automigrate: %w", err)
		}
	}
	return db, nil
}

// Open returns the configured store and a function releasing its resources.
func Open(conf config.Configuration, log zerolog.Logger) (store.Store, func() error, error) {
	if conf.Store == config.STORE_POCKETBASE {
		if conf.PocketBase.URL == "" {
			return nil, nil, fmt.Errorf("pocketbase url not configured")
		}
		log.Info().Str("url", conf.PocketBase.URL).Msg("using pocketbase store")
		client := pocketbase.NewClient(conf.PocketBase.URL, conf.PocketBase.AdminEmail, conf.PocketBase.AdminPassword)
		return store.NewPocketBase(client, log), func() error { return nil }, nil
	}

	db, err := Connect(conf, log)
	if err != nil {
		return nil, nil, err
	}
	return store.NewSQL(db), db.Close, nil
}
