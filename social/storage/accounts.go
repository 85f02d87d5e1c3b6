// Package storage is the credential side of persistence: an opaque
// string key-value store per account, used for OAuth client keys, access
// tokens and basic passwords. The activity/actor/note graph itself is
// persisted elsewhere, by the surrounding application.
package storage

import "gorm.io/gorm"

// AccountData represents an ORM object for one credential entry
type AccountData struct {
	Account string `gorm:"primaryKey"`
	Key     string `gorm:"primaryKey"`
	Value   string
}

// AccountStore is the reader/writer capability handed to connection
// setup code. It matches social.KeyValueStore.
type AccountStore interface {
	GetString(key string) (string, error)
	SetString(key, value string) error
}

type accountStore struct {
	db      *sqliteDatabase
	account string
}

func (a *accountStore) GetString(key string) (string, error) {
	var row AccountData
	tx := a.db.db.First(&row, AccountData{Account: a.account, Key: key})
	if tx.Error == gorm.ErrRecordNotFound {
		return "", nil
	} else if tx.Error != nil {
		return "", tx.Error
	}
	return row.Value, nil
}

func (a *accountStore) SetString(key, value string) error {
	tx := a.db.db.Save(&AccountData{Account: a.account, Key: key, Value: value})
	return tx.Error
}

// MemoryStore is an in-memory AccountStore for tests and throwaway runs.
type MemoryStore struct {
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) GetString(key string) (string, error) {
	return m.values[key], nil
}

func (m *MemoryStore) SetString(key, value string) error {
	m.values[key] = value
	return nil
}
