// Package store persists domain documents in an embedded Badger database.
//
// Every document is stored as JSON under a typed key prefix ("device:{id}").
// Secondary indexes live under "{prefix}idx:{name}:{value}" and point back at
// the primary ID, which lets us enforce uniqueness (emails, MAC addresses,
// display names) inside the same transaction that writes the document.
package store

import (
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/signboardapp/signboard-server/internal/domain"
)

// Key prefixes for the document collections.
const (
	profilePrefix      = "profile:"
	devicePrefix       = "device:"
	tagPrefix          = "tag:"
	contentPrefix      = "content:"
	schedulePrefix     = "schedule:"
	refreshTokenPrefix = "rtoken:"
)

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	Profiles      *Entity[domain.Profile]
	Devices       *Entity[domain.Device]
	Tags          *Entity[domain.Tag]
	Contents      *Entity[domain.Content]
	Schedules     *Entity[domain.Schedule]
	RefreshTokens *Entity[domain.RefreshToken]
}

// New creates a new Store instance at the given database path.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Sync writes to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	store := &Store{
		db:     db,
		logger: logger,
	}

	store.initProfiles()
	store.initDevices()
	store.initTags()
	store.initContents()
	store.initSchedules()
	store.initRefreshTokens()

	if logger != nil {
		logger.Info("Badger database opened successfully", "path", path)
	}

	return store, nil
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing database connection")
	}
	return s.db.Close()
}

// initProfiles sets up the Profiles entity.
// Emails are indexed case-insensitively so logins aren't case-sensitive.
func (s *Store) initProfiles() {
	s.Profiles = NewEntity[domain.Profile](s, profilePrefix).
		WithIndexTransform("email",
			func(p *domain.Profile) []string {
				return []string{normalizeEmail(p.Email)}
			},
			normalizeEmail,
		)
}

// initDevices sets up the Devices entity.
// A panel's MAC address identifies it on the network, so it must be unique.
func (s *Store) initDevices() {
	s.Devices = NewEntity[domain.Device](s, devicePrefix).
		WithIndexTransform("macAddress",
			func(d *domain.Device) []string {
				return []string{normalizeMAC(d.MACAddress)}
			},
			normalizeMAC,
		)
}

// initTags sets up the Tags entity with a unique display name index.
func (s *Store) initTags() {
	s.Tags = NewEntity[domain.Tag](s, tagPrefix).
		WithIndexTransform("displayName",
			func(t *domain.Tag) []string {
				return []string{normalizeName(t.DisplayName)}
			},
			normalizeName,
		)
}

// initContents sets up the Contents entity with a unique display name index.
func (s *Store) initContents() {
	s.Contents = NewEntity[domain.Content](s, contentPrefix).
		WithIndexTransform("displayName",
			func(c *domain.Content) []string {
				return []string{normalizeName(c.DisplayName)}
			},
			normalizeName,
		)
}

// initSchedules sets up the Schedules entity with a unique display name index.
func (s *Store) initSchedules() {
	s.Schedules = NewEntity[domain.Schedule](s, schedulePrefix).
		WithIndexTransform("displayName",
			func(sc *domain.Schedule) []string {
				return []string{normalizeName(sc.DisplayName)}
			},
			normalizeName,
		)
}

// initRefreshTokens sets up the RefreshTokens entity.
// Indexed by token hash (lookup on refresh) and by profile (revocation).
func (s *Store) initRefreshTokens() {
	s.RefreshTokens = NewEntity[domain.RefreshToken](s, refreshTokenPrefix).
		WithIndex("hash", func(t *domain.RefreshToken) []string {
			return []string{t.TokenHash}
		})
}

// normalizeEmail normalizes an email address for consistent lookups.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// normalizeMAC normalizes a MAC address for consistent lookups.
// "AA-BB-CC-DD-EE-FF" and "aa:bb:cc:dd:ee:ff" index identically.
func normalizeMAC(mac string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(mac), "-", ":"))
}

// normalizeName normalizes a display name for uniqueness checks.
func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// getJSON reads a key inside a transaction and unmarshals it into dest.
func getJSON(txn *badger.Txn, key string, dest any) error {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, dest)
	})
}

// setJSON marshals a value and writes it under key inside a transaction.
func setJSON(txn *badger.Txn, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for %s: %w", key, err)
	}
	return txn.Set([]byte(key), data)
}
