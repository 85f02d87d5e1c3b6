package storage

import (
	"database/sql"
	"log"
	"os"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Database interface {
	Open() error
	Close()
	Account(name string) AccountStore
}

// sqliteDatabase holds per-account credential data in a sqlite database
type sqliteDatabase struct {
	connection string
	db         *gorm.DB
	sqldb      *sql.DB
}

func (s *sqliteDatabase) Open() error {
	if s.db != nil {
		s.Close()
	}
	newLogger := logger.New(
		log.New(os.Stdout, "", log.LstdFlags), // io writer
		logger.Config{
			SlowThreshold:             time.Second,  // Slow SQL threshold
			LogLevel:                  logger.Error, // Log level
			IgnoreRecordNotFoundError: true,         // Ignore ErrRecordNotFound error for logger
			Colorful:                  false,        // Disable color
		},
	)
	db, err := gorm.Open(sqlite.Open(s.connection), &gorm.Config{
		Logger: newLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return err
	}
	s.sqldb, err = db.DB()
	if err != nil {
		return err
	}
	s.db = db
	// create tables
	s.db.Migrator().AutoMigrate(&AccountData{})
	return nil
}

func (s *sqliteDatabase) Close() {
	if s.db != nil {
		s.sqldb.Close()
		s.sqldb = nil
		s.db = nil
	}
}

// Account scopes the key-value capability to one configured account.
func (s *sqliteDatabase) Account(name string) AccountStore {
	return &accountStore{db: s, account: name}
}

func NewDatabase(connection string) Database {
	return &sqliteDatabase{
		connection: connection,
	}
}
