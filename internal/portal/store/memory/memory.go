// Package memory holds in-process stores for tests and dev runs.  A single
// Store implements every store interface so that grant issue and request
// approval share one lock.
package memory

import (
	"strings"
	"sync"

	"github.com/woreda-portal/server/internal/portal/store"
)

type Store struct {
	mu sync.RWMutex

	tenants      map[string]store.TenantRecord
	requests     []store.AccessRequestRecord // insertion order
	grants       map[string]store.AccessGrantRecord
	appointments []store.AppointmentRecord
}

var (
	_ store.AccessRequestStore = (*Store)(nil)
	_ store.AccessGrantStore   = (*Store)(nil)
	_ store.AppointmentStore   = (*Store)(nil)
	_ store.TenantStore        = (*Store)(nil)
)

// New returns an empty store that already knows the given tenant ids.
func New(tenants ...string) *Store {
	s := &Store{
		tenants: make(map[string]store.TenantRecord, len(tenants)),
		grants:  make(map[string]store.AccessGrantRecord),
	}
	for _, t := range tenants {
		t = strings.TrimSpace(t)
		if t != "" {
			s.tenants[t] = store.TenantRecord{TenantID: t, Name: t}
		}
	}
	return s
}
