package database

import "sync"

// GuildLocks hands out one mutex per guild id. Every read-modify-write of a
// guild's configuration or pin snapshots happens while holding it.
type GuildLocks struct {
	mutex sync.Mutex
	locks map[string]*sync.Mutex
}

// NewGuildLocks creates an empty lock table.
func NewGuildLocks() *GuildLocks {
	return &GuildLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock blocks until the guild's scope is free and returns its release func.
func (g *GuildLocks) Lock(guildID string) func() {
	g.mutex.Lock()
	l, ok := g.locks[guildID]
	if !ok {
		l = &sync.Mutex{}
		g.locks[guildID] = l
	}
	g.mutex.Unlock()

	l.Lock()
	return l.Unlock
}
