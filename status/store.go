package status

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/slp-responder/slp-responder/config"
)

// Store holds the current Snapshot behind an atomic pointer so connection
// handlers can read it without blocking a concurrent rebuild triggered by
// a config file change.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore builds an initial Snapshot from cfg and returns a Store holding it.
func NewStore(cfg config.StatusConfig) (*Store, error) {
	snap, err := Build(cfg)
	if err != nil {
		return nil, err
	}
	s := &Store{}
	s.current.Store(snap)
	return s, nil
}

// Current returns the most recently built Snapshot.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Reload rebuilds the snapshot from cfg and swaps it in atomically. Callers
// in the middle of serving the previous snapshot are unaffected: they hold
// their own pointer obtained from an earlier Current call.
func (s *Store) Reload(cfg config.StatusConfig) {
	snap, err := Build(cfg)
	if err != nil {
		logrus.WithError(err).Error("Failed to rebuild status snapshot, keeping previous one")
		return
	}
	s.current.Store(snap)
	logrus.Info("Status snapshot rebuilt")
}
