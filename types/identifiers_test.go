package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOperatorIDFromHex(t *testing.T) {
	t.Run("round-trips through hex", func(t *testing.T) {
		id, err := OperatorIDFromHex("000102030405060708090a0b0c0d0e0f")

		require.NoError(t, err)
		require.Equal(t, "000102030405060708090a0b0c0d0e0f", id.String())
		require.False(t, id.IsZero())
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		_, err := OperatorIDFromHex("0001")

		require.Error(t, err)
	})

	t.Run("rejects non-hex input", func(t *testing.T) {
		_, err := OperatorIDFromHex("zz0102030405060708090a0b0c0d0e0f")

		require.Error(t, err)
	})
}

func TestOperatorID_Compare(t *testing.T) {
	a, err := OperatorIDFromHex("000102030405060708090a0b0c0d0e0f")
	require.NoError(t, err)
	b, err := OperatorIDFromHex("010102030405060708090a0b0c0d0e0f")
	require.NoError(t, err)

	require.Equal(t, -1, a.Compare(b))
	require.Equal(t, 1, b.Compare(a))
	require.Equal(t, 0, a.Compare(a))
	require.True(t, OperatorID{}.IsZero())
}

func TestOperatorInstanceID_StableHash(t *testing.T) {
	id, err := OperatorIDFromHex("000102030405060708090a0b0c0d0e0f")
	require.NoError(t, err)
	other, err := OperatorIDFromHex("0f0102030405060708090a0b0c0d0e0f")
	require.NoError(t, err)

	t.Run("is deterministic", func(t *testing.T) {
		a := OperatorInstance(3, id)
		b := OperatorInstance(3, id)

		require.Equal(t, a.StableHash(), b.StableHash())
	})

	t.Run("distinguishes subtask indexes", func(t *testing.T) {
		require.NotEqual(t, OperatorInstance(0, id).StableHash(), OperatorInstance(1, id).StableHash())
	})

	t.Run("distinguishes operator ids", func(t *testing.T) {
		require.NotEqual(t, OperatorInstance(0, id).StableHash(), OperatorInstance(0, other).StableHash())
	})
}
