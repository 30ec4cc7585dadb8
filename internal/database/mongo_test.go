package repository

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LiveCS/internal/config"
)

func TestRoomLocks(t *testing.T) {
	t.Run("serializes concurrent appends to one room", func(t *testing.T) {
		locks := &roomLocks{locks: make(map[string]*sync.Mutex)}

		const workers = 16
		const iterations = 200
		counter := 0

		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < iterations; j++ {
					lock := locks.acquire("r1")
					counter++
					lock.Unlock()
				}
			}()
		}
		wg.Wait()

		// Lost increments would mean two holders inside the section.
		assert.Equal(t, workers*iterations, counter)
	})

	t.Run("rooms lock independently", func(t *testing.T) {
		locks := &roomLocks{locks: make(map[string]*sync.Mutex)}

		first := locks.acquire("r1")
		// Holding r1 must not block r2.
		second := locks.acquire("r2")
		second.Unlock()
		first.Unlock()
	})

	t.Run("forget evicts the entry without orphaning a holder", func(t *testing.T) {
		locks := &roomLocks{locks: make(map[string]*sync.Mutex)}

		held := locks.acquire("r1")
		locks.forget("r1")
		// The holder unlocks its own reference.
		held.Unlock()

		locks.mutex.Lock()
		_, ok := locks.locks["r1"]
		locks.mutex.Unlock()
		assert.False(t, ok)
	})
}

func TestNewMongoClient(t *testing.T) {
	t.Run("nil when mongo is disabled", func(t *testing.T) {
		conf := &config.Config{}

		db, err := NewMongoClient(conf, slog.Default())
		require.NoError(t, err)
		assert.Nil(t, db)
	})

	t.Run("configured from the mongo section", func(t *testing.T) {
		conf := &config.Config{}
		conf.Mongo.Enabled = true
		conf.Mongo.Host = "127.0.0.1"
		conf.Mongo.Port = "27017"
		conf.Mongo.User = "admin"
		conf.Mongo.Password = "pass"
		conf.Mongo.Database = "livecs"

		db, err := NewMongoClient(conf, slog.Default())
		require.NoError(t, err)
		require.NotNil(t, db)
		assert.Equal(t, "livecs", db.database)
	})
}
