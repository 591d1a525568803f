package cache

import (
	"sync"

	"github.com/antarctica/lantern-go/pkg/record"
)

// flash is the in-memory layer consulted first on get and cleared on any
// create/refresh/purge (spec.md sec 4.B), grounded on the teacher's
// providerMap in-memory registry pattern (pkg/migration/worker.go).
type flash struct {
	mu   sync.RWMutex
	data map[string]record.RecordRevision
}

func newFlash() *flash {
	return &flash{data: map[string]record.RecordRevision{}}
}

func (f *flash) get(id string) (record.RecordRevision, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	rev, ok := f.data[id]
	return rev, ok
}

func (f *flash) put(rev record.RecordRevision) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[rev.FileIdentifier.String()] = rev
}

func (f *flash) clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data = map[string]record.RecordRevision{}
}
