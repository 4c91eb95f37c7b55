package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Migration struct {
	Version     int
	Description string
	Up          func(*mongo.Database) error
}

type Migrator struct {
	db         *mongo.Database
	migrations []Migration
}

func NewMigrator(db *mongo.Database) *Migrator {
	return &Migrator{
		db:         db,
		migrations: getMigrations(),
	}
}

func (m *Migrator) Up() error {
	currentVersion, err := m.getCurrentVersion()
	if err != nil {
		return err
	}

	for _, migration := range m.migrations {
		if migration.Version > currentVersion {
			log.Printf("Running migration %d: %s", migration.Version, migration.Description)

			err := migration.Up(m.db)
			if err != nil {
				return fmt.Errorf("migration %d failed: %w", migration.Version, err)
			}

			err = m.updateVersion(migration.Version)
			if err != nil {
				return fmt.Errorf("failed to update migration version: %w", err)
			}
		}
	}

	return nil
}

func (m *Migrator) getCurrentVersion() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var doc struct {
		Version int `bson:"version"`
	}
	err := m.db.Collection("migrations").FindOne(ctx, bson.M{}, options.FindOne().SetSort(bson.M{"version": -1})).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, nil
		}
		return 0, err
	}
	return doc.Version, nil
}

func (m *Migrator) updateVersion(version int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := m.db.Collection("migrations").InsertOne(ctx, bson.M{
		"version":    version,
		"applied_at": time.Now(),
	})
	return err
}

func getMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create trip indexes",
			Up: func(db *mongo.Database) error {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				_, err := db.Collection("trips").Indexes().CreateMany(ctx, []mongo.IndexModel{
					{Keys: bson.D{{Key: "status", Value: 1}}},
					{Keys: bson.D{{Key: "worker_id", Value: 1}, {Key: "status", Value: 1}}},
					{Keys: bson.D{{Key: "requester_id", Value: 1}, {Key: "requested_at", Value: -1}}},
					{Keys: bson.D{{Key: "trip_number", Value: 1}}, Options: options.Index().SetUnique(true)},
				})
				return err
			},
		},
		{
			Version:     2,
			Description: "Create worker indexes",
			Up: func(db *mongo.Database) error {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				_, err := db.Collection("workers").Indexes().CreateMany(ctx, []mongo.IndexModel{
					{Keys: bson.D{{Key: "role", Value: 1}, {Key: "is_available", Value: 1}}},
					{Keys: bson.D{{Key: "current_location", Value: "2dsphere"}}},
					{Keys: bson.D{{Key: "phone", Value: 1}}, Options: options.Index().SetUnique(true)},
				})
				return err
			},
		},
		{
			Version:     3,
			Description: "Create requester indexes",
			Up: func(db *mongo.Database) error {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				_, err := db.Collection("requesters").Indexes().CreateOne(ctx, mongo.IndexModel{
					Keys:    bson.D{{Key: "phone", Value: 1}},
					Options: options.Index().SetUnique(true),
				})
				return err
			},
		},
	}
}
