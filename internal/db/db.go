package db

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Connect initializes the database connection and runs migrations.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

// There is no conversations table: a conversation exists implicitly as
// long as at least one message between the pair exists.
func runMigrations(db *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
            id SERIAL PRIMARY KEY,
            email TEXT NOT NULL UNIQUE,
            username TEXT NOT NULL UNIQUE,
            phone TEXT NOT NULL UNIQUE,
            password_hash TEXT NOT NULL,
            profile_pic TEXT,
            bio TEXT,
            created_at TIMESTAMPTZ DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS messages (
            id SERIAL PRIMARY KEY,
            sender_id INT NOT NULL REFERENCES profiles(id),
            receiver_id INT NOT NULL REFERENCES profiles(id),
            body TEXT,
            attachment_url TEXT,
            seen BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            CHECK (sender_id <> receiver_id),
            CHECK (body IS NOT NULL OR attachment_url IS NOT NULL)
        );`,
		`CREATE INDEX IF NOT EXISTS idx_messages_receiver ON messages (receiver_id, created_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_sender ON messages (sender_id, created_at DESC);`,
		`CREATE TABLE IF NOT EXISTS blocks (
            blocker_id INT NOT NULL REFERENCES profiles(id),
            blocked_id INT NOT NULL REFERENCES profiles(id),
            created_at TIMESTAMPTZ DEFAULT NOW(),
            PRIMARY KEY (blocker_id, blocked_id)
        );`,
		`CREATE TABLE IF NOT EXISTS posts (
            id SERIAL PRIMARY KEY,
            author_id INT REFERENCES profiles(id),
            title TEXT NOT NULL,
            body TEXT NOT NULL,
            category TEXT NOT NULL DEFAULT 'general',
            upvotes INT NOT NULL DEFAULT 0,
            downvotes INT NOT NULL DEFAULT 0,
            reshares INT NOT NULL DEFAULT 0,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS comments (
            id SERIAL PRIMARY KEY,
            post_id INT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
            author_id INT REFERENCES profiles(id),
            body TEXT NOT NULL,
            upvotes INT NOT NULL DEFAULT 0,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS sos_events (
            id SERIAL PRIMARY KEY,
            user_id INT REFERENCES profiles(id),
            lat DOUBLE PRECISION,
            lng DOUBLE PRECISION,
            accuracy_m DOUBLE PRECISION,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	log.Println("database migrations applied")
	return nil
}
