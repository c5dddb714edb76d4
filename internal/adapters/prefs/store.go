// Package prefs persists device selections in a local leveldb database.
package prefs

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkeye/Vibe/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

const (
	KeyCamera     = "vibe.device.camera"
	KeyMicrophone = "vibe.device.microphone"
	KeySpeaker    = "vibe.device.speaker"
)

func keyOf(kind domain.DeviceKind) ([]byte, error) {
	switch kind {
	case domain.KindCamera:
		return []byte(KeyCamera), nil
	case domain.KindMicrophone:
		return []byte(KeyMicrophone), nil
	case domain.KindSpeaker:
		return []byte(KeySpeaker), nil
	}
	return nil, fmt.Errorf("preference key for %q: %w", kind, domain.ErrUnknownKind)
}

// Store is a core.PreferenceStore on top of leveldb.
type Store struct {
	db *leveldb.DB
}

// Open opens (or creates) the database directory at path.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open preferences %s: %w", path, err)
	}
	log.Info().Str("module", "adapters.prefs").Str("path", path).Msg("preferences opened")
	return &Store{db: db}, nil
}

// OpenStorage opens a store on an arbitrary leveldb storage, such as
// storage.NewMemStorage().
func OpenStorage(stor storage.Storage) (*Store, error) {
	db, err := leveldb.Open(stor, nil)
	if err != nil {
		return nil, fmt.Errorf("open preferences: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Load(ctx context.Context) (domain.Preferences, error) {
	var p domain.Preferences
	if err := ctx.Err(); err != nil {
		return p, err
	}
	for _, kind := range domain.AllKinds {
		key, _ := keyOf(kind)
		v, err := s.db.Get(key, nil)
		if errors.Is(err, leveldb.ErrNotFound) {
			continue
		}
		if err != nil {
			return domain.Preferences{}, fmt.Errorf("load %s: %w", key, err)
		}
		p.Set(kind, string(v))
	}
	return p, nil
}

func (s *Store) Save(ctx context.Context, kind domain.DeviceKind, deviceID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := keyOf(kind)
	if err != nil {
		return err
	}
	if deviceID == "" {
		return s.db.Delete(key, &opt.WriteOptions{Sync: true})
	}
	if err := s.db.Put(key, []byte(deviceID), &opt.WriteOptions{Sync: true}); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	log.Debug().Str("module", "adapters.prefs").Str("key", string(key)).Str("device", deviceID).Msg("preference saved")
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
