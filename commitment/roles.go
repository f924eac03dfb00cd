package commitment

import (
	"github.com/pkg/errors"
)

// Role is the participant role bound into an identity commitment.
type Role uint8

const (
	// RoleMember is a regular participant.
	RoleMember Role = iota
	// RoleModerator moderates channels on the local node.
	RoleModerator
	// RoleOperator administers the local node.
	RoleOperator
	// RoleFederatedPeer is a remote node registering through federation.
	RoleFederatedPeer
)

// ErrUnknownRole is returned when a label has no role mapping.
var ErrUnknownRole = errors.New("commitment: unknown role")

// roleTable is the single bidirectional mapping between roles, their
// labels and the numeric codes hashed into commitments. Codes start at 1
// so that a zero value never silently passes as a valid role element.
var roleTable = []struct {
	role  Role
	label string
	code  int64
}{
	{RoleMember, "member", 1},
	{RoleModerator, "moderator", 2},
	{RoleOperator, "operator", 3},
	{RoleFederatedPeer, "federated-peer", 4},
}

var roleByLabel = func() map[string]Role {
	m := make(map[string]Role, len(roleTable))
	for _, e := range roleTable {
		m[e.label] = e.role
	}
	return m
}()

// ParseRole maps a label to its Role. Unknown labels are errors, never a
// default role.
func ParseRole(label string) (Role, error) {
	r, ok := roleByLabel[label]
	if !ok {
		return 0, errors.WithMessage(ErrUnknownRole, label)
	}
	return r, nil
}

func (r Role) String() string {
	for _, e := range roleTable {
		if e.role == r {
			return e.label
		}
	}
	return "unknown"
}

// Code returns the field element value the role contributes to the
// commitment hash.
func (r Role) Code() (int64, error) {
	for _, e := range roleTable {
		if e.role == r {
			return e.code, nil
		}
	}
	return 0, errors.WithMessagef(ErrUnknownRole, "code %d", r)
}
