package cpm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFileName(t *testing.T) {
	tests := []struct {
		input    string
		user     int
		name     string
		ext      string
		rendered string
	}{
		{"FoO.Pas", AnyUser, "FOO     ", "PAS", "FOO.PAS"},
		{"3:game.cod", 3, "GAME    ", "COD", "3:GAME.COD"},
		{"15:A", 15, "A       ", "   ", "15:A"},
		{"LOADER.", AnyUser, "LOADER  ", "   ", "LOADER"},
		{"x{1}~.$$$", AnyUser, "X{1}~   ", "$$$", "X{1}~.$$$"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			fn, err := ParseFileName(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.user, fn.User)
			assert.Equal(t, tt.name, string(fn.Name[:]))
			assert.Equal(t, tt.ext, string(fn.Extension[:]))
			assert.Equal(t, tt.rendered, fn.String())
		})
	}
}

func TestParseFileNameInvalid(t *testing.T) {
	for _, input := range []string{
		"",
		".BAS",
		"a.b.c",
		"a.bdec",
		"abcdefghi.bec",
		"abcd😀.bec",
		"abcd.b+",
		"a+bcd.b",
		"16:A.B",
		"x:A.B",
		"A B.C",
	} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseFileName(input)
			assert.ErrorIs(t, err, ErrInvalidFileName)
		})
	}
}

func TestFileNameMatches(t *testing.T) {
	fn, err := ParseFileName("game.cod")
	require.NoError(t, err)

	stored := testKey(4, "GAME", "COD")
	stored.Extension[0] |= 0x80
	assert.True(t, fn.Matches(stored))

	lower := testKey(0, "game", "cod")
	assert.True(t, fn.Matches(lower))

	assert.False(t, fn.Matches(testKey(0, "GAMES", "COD")))

	owned, err := ParseFileName("3:GAME.COD")
	require.NoError(t, err)
	assert.False(t, owned.Matches(stored))
	assert.True(t, owned.Matches(testKey(3, "GAME", "COD")))
	assert.Equal(t, testKey(3, "GAME", "COD"), owned.Key(3))
}
