package nullifier_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/veilchat/zkregistry/nullifier"
)

func TestComputeDeterministic(t *testing.T) {
	a := nullifier.Compute("aabbcc", "registration")
	b := nullifier.Compute("aabbcc", "registration")
	require.Equal(t, a, b)
	require.Len(t, a, 64)
}

func TestComputeTopicSeparation(t *testing.T) {
	a := nullifier.Compute("aabbcc", "registration")
	b := nullifier.Compute("aabbcc", "governance")
	require.NotEqual(t, a, b)
}

func TestComputeCommitmentSeparation(t *testing.T) {
	a := nullifier.Compute("aabbcc", "registration")
	b := nullifier.Compute("aabbcd", "registration")
	require.NotEqual(t, a, b)
}
