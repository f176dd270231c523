package steam

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/dota-coach/internal/apperr"
)

func TestParseAccount(t *testing.T) {
	cases := []struct {
		in   string
		want AccountID
	}{
		{"76561197960287930", 22202},
		{"22202", 22202},
		{"[U:1:22202]", 22202},
		{"STEAM_0:0:11101", 22202},
		{"STEAM_1:1:11101", 22203},
		{"https://steamcommunity.com/profiles/76561197960287930/", 22202},
		{" 86745912 ", 86745912},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseAccount(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseAccountErrors(t *testing.T) {
	for _, in := range []string{"", "gaben", "[U:1:x]", "STEAM_0:0", "STEAM_0:2:5", "99999999999"} {
		_, err := ParseAccount(in)
		assert.Error(t, err, in)
		assert.True(t, apperr.Is(err, apperr.ErrInputNotFound), in)
	}
}

func TestAccountForms(t *testing.T) {
	a := AccountID(22202)
	assert.Equal(t, uint64(76561197960287930), a.ID64())
	assert.Equal(t, "[U:1:22202]", a.ID3())
	assert.Equal(t, "22202", a.String())
}
