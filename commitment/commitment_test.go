package commitment_test

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/veilchat/zkregistry/commitment"
	"github.com/veilchat/zkregistry/field"
)

const testSecret = "0001020304050607080910111213141516171819202122232425262728293031"

func TestGenerateDeterministic(t *testing.T) {
	a, err := commitment.Generate(testSecret, commitment.RoleMember, "node.veilchat.example")
	require.NoError(t, err)
	b, err := commitment.Generate(testSecret, commitment.RoleMember, "node.veilchat.example")
	require.NoError(t, err)

	require.Equal(t, a, b)
	require.Len(t, a, 64)
}

func TestGenerateDistinctSecrets(t *testing.T) {
	s2 := "1101020304050607080910111213141516171819202122232425262728293031"

	a, err := commitment.Generate(testSecret, commitment.RoleMember, "node")
	require.NoError(t, err)
	b, err := commitment.Generate(s2, commitment.RoleMember, "node")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestGenerateDistinctRoles(t *testing.T) {
	a, err := commitment.Generate(testSecret, commitment.RoleMember, "node")
	require.NoError(t, err)
	b, err := commitment.Generate(testSecret, commitment.RoleModerator, "node")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestGenerateDistinctNodes(t *testing.T) {
	a, err := commitment.Generate(testSecret, commitment.RoleMember, "node-a")
	require.NoError(t, err)
	b, err := commitment.Generate(testSecret, commitment.RoleMember, "node-b")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestGenerateRejectsOverfieldSecret(t *testing.T) {
	_, err := commitment.Generate(strings.Repeat("ff", 32), commitment.RoleMember, "node")
	require.Error(t, err)
	require.True(t, errors.Is(err, field.ErrInvalidHex))
}

func TestGenerateRejectsShortSecret(t *testing.T) {
	_, err := commitment.Generate(strings.Repeat("ab", 15), commitment.RoleMember, "node")
	require.Error(t, err)
	require.True(t, errors.Is(err, field.ErrInvalidHex))
}

func TestGenerateSixteenByteSecret(t *testing.T) {
	out, err := commitment.Generate(strings.Repeat("ab", 16), commitment.RoleMember, "node")
	require.NoError(t, err)
	require.Len(t, out, 64)
}

func TestParseRole(t *testing.T) {
	for _, label := range []string{"member", "moderator", "operator", "federated-peer"} {
		r, err := commitment.ParseRole(label)
		require.NoError(t, err)
		require.Equal(t, label, r.String())
	}

	_, err := commitment.ParseRole("admin")
	require.Error(t, err)
	require.True(t, errors.Is(err, commitment.ErrUnknownRole))
}

func TestRoleCodesDistinct(t *testing.T) {
	seen := map[int64]bool{}
	for _, r := range []commitment.Role{
		commitment.RoleMember, commitment.RoleModerator,
		commitment.RoleOperator, commitment.RoleFederatedPeer,
	} {
		code, err := r.Code()
		require.NoError(t, err)
		require.False(t, seen[code], "duplicate role code %d", code)
		seen[code] = true
	}
}
