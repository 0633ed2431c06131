// Package lock provides the keyed locking used by ConceptBuilder's
// find-or-create critical section. Concurrent producers computing the same
// ConceptKey must not both insert; the builder acquires the key's lock
// around the store's get-or-create call.
//
// Two implementations are provided: KeyedMutex for in-process producers,
// and EtcdLocker for parallel importers running in separate processes.
package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/client/v3/concurrency"
)

// Locker serializes work per string key. Acquire blocks until the key's
// lock is held or the context is cancelled, and returns a release
// function. Distinct keys never contend.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// KeyedMutex is an in-process Locker backed by a map of mutexes, one per
// key. Mutex entries are reference-counted and removed once the last
// holder releases, so the map does not grow with the number of distinct
// concept keys ever seen.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

// NewKeyedMutex creates an empty in-process keyed locker.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyedLock)}
}

// Acquire locks the key. The context is only checked before locking:
// in-process critical sections are short enough that waiting out a held
// lock is cheaper than a cancellable wait path.
func (m *KeyedMutex) Acquire(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	l, ok := m.locks[key]
	if !ok {
		l = &keyedLock{}
		m.locks[key] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()

	released := false
	return func() {
		if released {
			return
		}
		released = true
		l.mu.Unlock()
		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, key)
		}
		m.mu.Unlock()
	}, nil
}

// EtcdConfig configures the etcd connection for an EtcdLocker.
type EtcdConfig struct {
	// Endpoints are the etcd cluster endpoints.
	Endpoints []string

	// Namespace prefixes every lock key. Defaults to "lexgraph".
	Namespace string

	// TTL is the lease TTL in seconds for held locks, so a crashed
	// importer cannot wedge a concept key forever. Defaults to 30.
	TTL int
}

// EtcdLocker is a distributed Locker backed by etcd leases. It serializes
// concept creation across separate importer processes; within one process
// prefer KeyedMutex.
type EtcdLocker struct {
	client    *clientv3.Client
	namespace string
	ttl       int
}

// NewEtcdLocker connects to etcd and verifies connectivity.
// The locker must be closed with Close when no longer needed.
func NewEtcdLocker(cfg EtcdConfig) (*EtcdLocker, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, fmt.Errorf("etcd endpoints cannot be empty")
	}
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "lexgraph"
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30
	}

	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, err := cli.Get(ctx, "health-check"); err != nil && err != context.DeadlineExceeded {
		cli.Close()
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}

	return &EtcdLocker{client: cli, namespace: namespace, ttl: ttl}, nil
}

// Acquire takes the distributed lock for the key. The returned release
// function unlocks and revokes the session lease.
func (l *EtcdLocker) Acquire(ctx context.Context, key string) (func(), error) {
	session, err := concurrency.NewSession(l.client, concurrency.WithTTL(l.ttl), concurrency.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd session: %w", err)
	}
	mutex := concurrency.NewMutex(session, l.namespace+"/lock/"+key)
	if err := mutex.Lock(ctx); err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to lock %q: %w", key, err)
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		// Unlock with a fresh timeout: the caller's context may already
		// be cancelled and the lock must still be freed.
		unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mutex.Unlock(unlockCtx)
		_ = session.Close()
	}, nil
}

// Close closes the etcd client.
func (l *EtcdLocker) Close() error {
	return l.client.Close()
}
