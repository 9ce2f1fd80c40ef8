package realtime

import "sync"

// aliasTable maps platform stop ids to the station ids used in trip plans.
// It is swapped whole when the catalog is reloaded.
type aliasTable struct {
	mu sync.RWMutex
	m  map[string]string
}

func (a *aliasTable) set(m map[string]string) {
	a.mu.Lock()
	a.m = m
	a.mu.Unlock()
}

func (a *aliasTable) snapshot() map[string]string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.m
}

func (a *aliasTable) station(stopID string) string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if station, ok := a.m[stopID]; ok {
		return station
	}
	return stopID
}
