package team

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// InviteAlphabet omits I, O, 0 and 1 so codes survive being read aloud.
const InviteAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// InviteCodeGroup is the number of symbols on each side of the dash.
const InviteCodeGroup = 4

// ErrInvalidInviteCode is returned for codes that do not match XXXX-XXXX.
var ErrInvalidInviteCode = errors.New("invite code must match XXXX-XXXX")

var inviteCodePattern = regexp.MustCompile(`^[` + InviteAlphabet + `]{4}-[` + InviteAlphabet + `]{4}$`)

// NormalizeInviteCode trims surrounding whitespace and upper-cases.
// POST: result is comparable against stored codes
func NormalizeInviteCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsValidInviteCode reports whether code is already in canonical form.
func IsValidInviteCode(code string) bool {
	return inviteCodePattern.MatchString(code)
}

// GenerateInviteCode draws 8 symbols from InviteAlphabet.
// PRE: r is a source of random bytes, or nil for crypto/rand
// POST: returns a code satisfying IsValidInviteCode
// Uniqueness is not checked here; the store rejects duplicates.
func GenerateInviteCode(r io.Reader) (string, error) {
	if r == nil {
		r = rand.Reader
	}
	// 256 is a multiple of 32, so byte % 32 is unbiased.
	buf := make([]byte, 2*InviteCodeGroup)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	var b strings.Builder
	b.Grow(len(buf) + 1)
	for i, v := range buf {
		if i == InviteCodeGroup {
			b.WriteByte('-')
		}
		b.WriteByte(InviteAlphabet[int(v)%len(InviteAlphabet)])
	}
	return b.String(), nil
}
