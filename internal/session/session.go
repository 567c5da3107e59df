// Package session владеет состоянием "кто сейчас аутентифицирован".
// Вместо неявного глобального контекста подписчики получают события
// через каналы.
package session

import (
	"sync"

	"go.uber.org/zap"
)

type Event int

const (
	EventSignedIn Event = iota
	EventRefreshed
	EventSignedOut
)

func (e Event) String() string {
	switch e {
	case EventSignedIn:
		return "signed_in"
	case EventRefreshed:
		return "refreshed"
	case EventSignedOut:
		return "signed_out"
	default:
		return "unknown"
	}
}

const subscriberBuffer = 8

type Manager struct {
	mu   sync.RWMutex
	subs []chan Event
	log  *zap.SugaredLogger
}

func NewManager(log *zap.SugaredLogger) *Manager {
	return &Manager{log: log}
}

// Subscribe возвращает канал событий. Канал буферизован; медленный
// подписчик теряет события, а не блокирует публикацию.
func (m *Manager) Subscribe() <-chan Event {
	ch := make(chan Event, subscriberBuffer)

	m.mu.Lock()
	m.subs = append(m.subs, ch)
	m.mu.Unlock()

	return ch
}

func (m *Manager) Notify(e Event) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, ch := range m.subs {
		select {
		case ch <- e:
		default:
			m.log.Debugw("session subscriber is slow, event dropped", "event", e.String())
		}
	}
}
