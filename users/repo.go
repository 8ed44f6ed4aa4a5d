package users

// Directory stores profiles by id and email. The in-process API double keeps
// its accounts in one.
type Directory interface {
	Upsert(profile *Profile) error
	GetByEmail(email string) (*Profile, error)
	GetByID(id string) (*Profile, error)
	List(offset, limit int) ([]*Profile, int, error)
	SetRole(id string, role Role) error
	Update(id string, update ProfileUpdate) (*Profile, error)
}
