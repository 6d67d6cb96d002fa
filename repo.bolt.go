package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/boltdb/bolt"
	"go.uber.org/zap"
)

type boltShelfStorage struct {
	logger *zap.Logger
	client *bolt.DB
	config *BoltDBConfig
	key    string
}

// GetBoltDBClient setup the database and the bucket then provides a ready to use client.
func GetBoltDBClient(config *Config) (*bolt.DB, error) {
	if err := os.MkdirAll(filepath.Dir(config.BoltDB.FilePath), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create database folder: %v", err)
	}
	db, err := bolt.Open(config.BoltDB.FilePath, 0o600, &bolt.Options{Timeout: config.BoltDB.Timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open the database, %v", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, errB := tx.CreateBucketIfNotExists([]byte(config.BoltDB.BucketName)); errB != nil {
			return fmt.Errorf("failed to create %s bucket: %v", config.BoltDB.BucketName, errB)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set up bucket: %v", err)
	}
	return db, nil
}

// NewBoltShelfStorage provides an instance of bolt-based shelf storage.
func NewBoltShelfStorage(logger *zap.Logger, boltConfig *BoltDBConfig, client *bolt.DB, key string) ShelfStorage {
	return &boltShelfStorage{
		logger: logger,
		client: client,
		config: boltConfig,
		key:    key,
	}
}

// Close shuts down the bolt-based shelf storage.
func (bs *boltShelfStorage) Close() error {
	return bs.client.Close()
}

// Load reads the shelf record from the bucket.
func (bs *boltShelfStorage) Load(_ context.Context) (Shelf, error) {
	var shelf Shelf
	// initialize a readable transaction.
	tx, err := bs.client.Begin(false)
	if err != nil {
		return shelf, err
	}
	defer tx.Rollback()

	result := tx.Bucket([]byte(bs.config.BucketName)).Get([]byte(bs.key))
	if result == nil {
		return shelf, ErrShelfNotFound
	}
	err = json.Unmarshal(result, &shelf)
	return shelf, err
}

// Save overwrites the shelf record in the bucket.
func (bs *boltShelfStorage) Save(_ context.Context, shelf Shelf) error {
	shelfBytes, err := json.Marshal(shelf)
	if err != nil {
		return err
	}
	return bs.client.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bs.config.BucketName)).Put([]byte(bs.key), shelfBytes)
	})
}
