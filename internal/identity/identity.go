package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrUserNotFound = errors.New("user not found")

type Role string

const (
	RoleDoctor  Role = "DOCTOR"
	RolePatient Role = "PATIENT"
)

// Identity is a resolved doctor or patient. The scheduling core only reads
// identities; they are owned by the user directory.
type Identity struct {
	ID        uuid.UUID
	Username  string
	Role      Role
	FullName  string
	Email     *string
	Specialty *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (i *Identity) IsDoctor() bool  { return i.Role == RoleDoctor }
func (i *Identity) IsPatient() bool { return i.Role == RolePatient }

// Directory resolves identities. Both lookups return ErrUserNotFound when
// nothing matches.
type Directory interface {
	FindUserByUsername(ctx context.Context, username string) (*Identity, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (*Identity, error)
}
