package refreshrepofake

import (
	"sync"

	"github.com/jrsteele09/marketplace-client/internal/errors"
	"github.com/jrsteele09/marketplace-client/token/refresh"
)

var _ refresh.Repo = (*FakeGrantRepo)(nil)

type FakeGrantRepo struct {
	grants   map[string]refresh.Grant
	families map[string]map[string]struct{} // family to tokens
	lock     sync.RWMutex
}

func NewFakeGrantRepo() *FakeGrantRepo {
	return &FakeGrantRepo{
		grants:   make(map[string]refresh.Grant),
		families: make(map[string]map[string]struct{}),
	}
}

func (r *FakeGrantRepo) Upsert(grant *refresh.Grant) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.grants[grant.Token] = *grant
	members, ok := r.families[grant.Family]
	if !ok {
		members = make(map[string]struct{})
		r.families[grant.Family] = members
	}
	members[grant.Token] = struct{}{}
	return nil
}

func (r *FakeGrantRepo) Get(token string) (*refresh.Grant, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	g, ok := r.grants[token]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return &g, nil
}

func (r *FakeGrantRepo) Delete(token string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	g, ok := r.grants[token]
	if !ok {
		return errors.ErrNotFound
	}
	delete(r.grants, token)
	if members := r.families[g.Family]; members != nil {
		delete(members, token)
		if len(members) == 0 {
			delete(r.families, g.Family)
		}
	}
	return nil
}

func (r *FakeGrantRepo) DeleteFamily(family string) (int, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	members := r.families[family]
	for token := range members {
		delete(r.grants, token)
	}
	delete(r.families, family)
	return len(members), nil
}

// Len counts live and consumed grants.
func (r *FakeGrantRepo) Len() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return len(r.grants)
}
