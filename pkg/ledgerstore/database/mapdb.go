package database

import (
	"bytes"

	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/kvstore"
	"github.com/iotaledger/hive.go/kvstore/mapdb"
)

// mapEngine is an in-memory backend used by tests. Column families are
// mapped onto realms of a single mapdb store; the realm prefixes are fixed
// single bytes so column names can never shadow each other.
type mapEngine struct {
	store  kvstore.KVStore
	realms map[string]kvstore.KVStore
}

func openMapDB(_ Config) (*mapEngine, error) {
	store := mapdb.NewMapDB()

	realms := make(map[string]kvstore.KVStore)
	for i, cf := range ColumnFamilies() {
		realm, err := store.WithRealm(kvstore.Realm{byte(i)})
		if err != nil {
			return nil, ierrors.Wrapf(err, "failed to create realm for column family %s", cf.Name)
		}
		realms[cf.Name] = realm
	}

	return &mapEngine{
		store:  store,
		realms: realms,
	}, nil
}

func (e *mapEngine) realm(cf string) kvstore.KVStore {
	realm, exists := e.realms[cf]
	if !exists {
		panic(ierrors.Errorf("unknown column family %s", cf))
	}

	return realm
}

func (e *mapEngine) get(cf string, key []byte) ([]byte, error) {
	value, err := e.realm(cf).Get(key)
	if err != nil {
		if ierrors.Is(err, kvstore.ErrKeyNotFound) {
			return nil, nil
		}

		return nil, err
	}

	return value, nil
}

func (e *mapEngine) put(cf string, key, value []byte) error {
	return e.realm(cf).Set(key, value)
}

func (e *mapEngine) delete(cf string, key []byte) error {
	return e.realm(cf).Delete(key)
}

func (e *mapEngine) deleteRange(cf string, start, end []byte) error {
	realm := e.realm(cf)

	var doomed [][]byte
	if err := realm.IterateKeys(kvstore.EmptyPrefix, func(key kvstore.Key) bool {
		if bytes.Compare(key, start) >= 0 && bytes.Compare(key, end) < 0 {
			doomed = append(doomed, key)
		}

		return true
	}); err != nil {
		return err
	}

	for _, key := range doomed {
		if err := realm.Delete(key); err != nil {
			return err
		}
	}

	return nil
}

func (e *mapEngine) iterate(cf string, mode IteratorMode, consumer func(key, value []byte) bool) error {
	direction := kvstore.IterDirectionForward
	if mode.direction == IterReverse {
		direction = kvstore.IterDirectionBackward
	}

	// mapdb has no native seek, so keys outside the requested range are
	// skipped while walking.
	return e.realm(cf).Iterate(kvstore.EmptyPrefix, func(key kvstore.Key, value kvstore.Value) bool {
		if mode.hasSeek {
			if mode.direction == IterForward && bytes.Compare(key, mode.seek) < 0 {
				return true
			}
			if mode.direction == IterReverse && bytes.Compare(key, mode.seek) > 0 {
				return true
			}
		}

		return consumer(key, value)
	}, direction)
}

func (e *mapEngine) dropColumnFamily(cf string) (bool, error) {
	realm, exists := e.realms[cf]
	if !exists {
		return false, nil
	}

	return true, realm.Clear()
}

func (e *mapEngine) catchUpWithPrimary() error {
	return nil
}

func (e *mapEngine) flush() error {
	return e.store.Flush()
}

func (e *mapEngine) close() error {
	return e.store.Close()
}
