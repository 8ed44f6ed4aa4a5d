package fakeuserrepo

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jrsteele09/marketplace-client/internal/errors"
	"github.com/jrsteele09/marketplace-client/users"
)

var _ users.Directory = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	users    map[string]*users.Profile
	emailIds map[string]string // email to user id
	lock     sync.RWMutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users:    make(map[string]*users.Profile),
		emailIds: make(map[string]string),
	}
}

func (ur *FakeUserRepo) Upsert(profile *users.Profile) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if profile.ID == "" {
		profile.ID = uuid.New().String()
	}
	ur.users[profile.ID] = profile
	ur.emailIds[profile.Email] = profile.ID
	return nil
}

// GetByEmail returns a copy so callers cannot mutate the stored profile.
func (ur *FakeUserRepo) GetByEmail(email string) (*users.Profile, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.emailIds[email]
	if !ok {
		return nil, errors.ErrNotFound
	}
	p := *ur.users[id]
	return &p, nil
}

func (ur *FakeUserRepo) GetByID(id string) (*users.Profile, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	stored, ok := ur.users[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	p := *stored
	return &p, nil
}

// List pages through profiles ordered by email and reports the total count.
func (ur *FakeUserRepo) List(offset, limit int) ([]*users.Profile, int, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	all := make([]*users.Profile, 0, len(ur.users))
	for _, v := range ur.users {
		p := *v
		all = append(all, &p)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Email < all[j].Email
	})

	if offset >= len(all) {
		return []*users.Profile{}, len(all), nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end], len(all), nil
}

func (ur *FakeUserRepo) SetRole(id string, role users.Role) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	p, ok := ur.users[id]
	if !ok {
		return errors.ErrNotFound
	}
	p.Role = role
	return nil
}

func (ur *FakeUserRepo) Update(id string, update users.ProfileUpdate) (*users.Profile, error) {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	p, ok := ur.users[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	if update.Bio != nil {
		bio := *update.Bio
		p.Bio = &bio
	}
	if update.Skills != nil {
		p.Skills = append([]string(nil), (*update.Skills)...)
	}
	out := *p
	return &out, nil
}
