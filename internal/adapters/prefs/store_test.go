package prefs

import (
	"context"
	"testing"

	"github.com/dkeye/Vibe/internal/assert"
	"github.com/dkeye/Vibe/internal/domain"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, err := OpenStorage(storage.NewMemStorage())
	assert.NilErr(t, err)
	defer s.Close()

	p, err := s.Load(ctx)
	assert.NilErr(t, err)
	assert.DeepEqual(t, p, domain.Preferences{})

	assert.NilErr(t, s.Save(ctx, domain.KindCamera, "cam-1"))
	assert.NilErr(t, s.Save(ctx, domain.KindSpeaker, "spk-1"))
	assert.NilErr(t, s.Save(ctx, domain.KindCamera, "cam-2"))

	p, err = s.Load(ctx)
	assert.NilErr(t, err)
	assert.DeepEqual(t, p, domain.Preferences{Camera: "cam-2", Speaker: "spk-1"})

	assert.NilErr(t, s.Save(ctx, domain.KindSpeaker, ""))
	p, err = s.Load(ctx)
	assert.NilErr(t, err)
	assert.DeepEqual(t, p.Speaker, "")
}

func TestStoreFixedKeys(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, err := OpenStorage(storage.NewMemStorage())
	assert.NilErr(t, err)
	defer s.Close()

	assert.NilErr(t, s.Save(ctx, domain.KindMicrophone, "mic-7"))
	v, err := s.db.Get([]byte("vibe.device.microphone"), nil)
	assert.NilErr(t, err)
	assert.DeepEqual(t, string(v), "mic-7")

	assert.ErrorIs(t, s.Save(ctx, domain.DeviceKind("printer"), "x"), domain.ErrUnknownKind)
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	s, err := Open(dir)
	assert.NilErr(t, err)
	assert.NilErr(t, s.Save(ctx, domain.KindMicrophone, "mic-1"))
	assert.NilErr(t, s.Close())

	s, err = Open(dir)
	assert.NilErr(t, err)
	defer s.Close()
	p, err := s.Load(ctx)
	assert.NilErr(t, err)
	assert.DeepEqual(t, p.Microphone, "mic-1")
}

func TestStoreClosedFails(t *testing.T) {
	t.Parallel()

	s, err := OpenStorage(storage.NewMemStorage())
	assert.NilErr(t, err)
	assert.NilErr(t, s.Close())
	_, err = s.Load(context.Background())
	assert.NonNilErr(t, err)
}
