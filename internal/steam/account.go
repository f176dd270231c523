// Package steam converts between the Steam account identifier formats
// players copy from profiles and match sites.
package steam

import (
	"strconv"
	"strings"

	"github.com/pable/dota-coach/internal/apperr"
)

// individualBase is the SteamID64 of account 0 in the public universe.
const individualBase uint64 = 76561197960265728

// AccountID is the 32-bit account number providers use to identify players
// inside a match.
type AccountID uint32

// ID64 returns the SteamID64 form.
func (a AccountID) ID64() uint64 { return individualBase + uint64(a) }

// ID3 returns the [U:1:N] form.
func (a AccountID) ID3() string { return "[U:1:" + strconv.FormatUint(uint64(a), 10) + "]" }

func (a AccountID) String() string { return strconv.FormatUint(uint64(a), 10) }

// ParseAccount accepts a SteamID64, a [U:1:N] SteamID3, a STEAM_X:Y:Z
// SteamID2 or a bare 32-bit account number, as well as profile URLs ending
// in a SteamID64.
func ParseAccount(s string) (AccountID, error) {
	v := strings.TrimSpace(s)
	v = strings.TrimRight(v, "/")
	if i := strings.LastIndex(v, "/"); i >= 0 {
		v = v[i+1:]
	}

	switch {
	case strings.HasPrefix(v, "[U:1:") && strings.HasSuffix(v, "]"):
		n, err := strconv.ParseUint(v[len("[U:1:"):len(v)-1], 10, 32)
		if err != nil {
			return 0, apperr.NotFoundf("invalid SteamID3 %q", s)
		}
		return AccountID(n), nil

	case strings.HasPrefix(strings.ToUpper(v), "STEAM_"):
		parts := strings.Split(v[len("STEAM_"):], ":")
		if len(parts) != 3 {
			return 0, apperr.NotFoundf("invalid SteamID2 %q", s)
		}
		y, errY := strconv.ParseUint(parts[1], 10, 1)
		z, errZ := strconv.ParseUint(parts[2], 10, 31)
		if errY != nil || errZ != nil {
			return 0, apperr.NotFoundf("invalid SteamID2 %q", s)
		}
		return AccountID(z*2 + y), nil
	}

	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, apperr.NotFoundf("unrecognized steam account %q", s)
	}
	if n >= individualBase {
		n -= individualBase
		if n > 1<<32-1 {
			return 0, apperr.NotFoundf("SteamID64 %q out of range", s)
		}
		return AccountID(n), nil
	}
	if n > 1<<32-1 {
		return 0, apperr.NotFoundf("account id %q out of range", s)
	}
	return AccountID(n), nil
}
