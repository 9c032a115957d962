package obfuscate

import (
	"errors"
	"math/rand"
	"testing"

	"chirp/internal/apperr"
	"github.com/stretchr/testify/require"
)

func TestObfuscateIsSelfInverse(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		n := r.Intn(64)
		b := make([]byte, n)
		for j := range b {
			b[j] = byte(0x20 + r.Intn(0x5F))
		}
		s := string(b)
		require.Equal(t, s, Obfuscate(Obfuscate(s)))
		got, err := Read(Write(s))
		require.NoError(t, err)
		require.Equal(t, s, got)
	}
}

func TestObfuscateKnownValues(t *testing.T) {
	require.Equal(t, "P", Obfuscate("!"))
	require.Equal(t, "O", Obfuscate("~"))
	require.Equal(t, "w6==@", Obfuscate("Hello"))
	require.Equal(t, "a b", Obfuscate("2 3"))
	require.NotContains(t, Write("key:secret"), "secret")
}

func TestReadRejectsGarbage(t *testing.T) {
	_, err := Read("%%%")
	require.True(t, errors.Is(err, apperr.ErrCommandLine))
}
