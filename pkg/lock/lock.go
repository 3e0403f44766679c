// Package lock даёт эксклюзивное владение позицией на время заполнения.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrNotHeld = errors.New("lock not held")

type Locker interface {
	// Lock блокирует до захвата ключа либо до отмены ctx.
	Lock(ctx context.Context, key string, ttl time.Duration) error
	Unlock(ctx context.Context, key string) error
}

// Local: блокировка в пределах процесса.
type Local struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func NewLocal() *Local {
	return &Local{slots: make(map[string]chan struct{})}
}

func (l *Local) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	ch, ok := l.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[key] = ch
	}
	return ch
}

// ttl игнорируется: локальный держатель не может пропасть, не освободив ключ.
func (l *Local) Lock(ctx context.Context, key string, _ time.Duration) error {
	select {
	case l.slot(key) <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Local) Unlock(_ context.Context, key string) error {
	select {
	case <-l.slot(key):
		return nil
	default:
		return ErrNotHeld
	}
}
