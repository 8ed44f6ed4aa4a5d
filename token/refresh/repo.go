package refresh

import (
	"time"
)

// Grant is the server-side record behind one refresh cookie. Every sign-in
// starts a family; each rotation adds a grant to it and consumes the one
// presented.
type Grant struct {
	Token    string
	UserID   string
	Family   string
	IssuedAt time.Time
	Consumed bool
}

type Repo interface {
	Upsert(grant *Grant) error
	Get(token string) (*Grant, error)
	Delete(token string) error
	// DeleteFamily removes every grant of a sign-in and reports how many
	// there were.
	DeleteFamily(family string) (int, error)
}
