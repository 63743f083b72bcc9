package telegram

import "sync"

// chatLocks serializes handlers per chat so two events for the same chat can
// never race on the session row, even if Telegram delivers them in parallel.
type chatLocks struct {
	mu sync.Mutex
	m  map[int64]*sync.Mutex
}

func newChatLocks() *chatLocks {
	return &chatLocks{m: make(map[int64]*sync.Mutex)}
}

// Lock acquires the chat's mutex, creating it on first use, and returns the
// unlock func.
func (l *chatLocks) Lock(chatID int64) func() {
	l.mu.Lock()
	m, ok := l.m[chatID]
	if !ok {
		m = &sync.Mutex{}
		l.m[chatID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
