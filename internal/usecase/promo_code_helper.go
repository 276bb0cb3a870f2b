package usecase

import (
	"crypto/rand"
	"strings"
)

// promoAlphabet skips look-alikes (O/0, I/1). Its length divides 256, so byte
// values map onto it without bias.
const promoAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	promoGroups    = 3
	promoGroupSize = 4
)

// generatePromoCode returns a random code shaped like XXXX-XXXX-XXXX.
func generatePromoCode() (string, error) {
	raw := make([]byte, promoGroups*promoGroupSize)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	var b strings.Builder
	b.Grow(len(raw) + promoGroups - 1)
	for i, v := range raw {
		if i > 0 && i%promoGroupSize == 0 {
			b.WriteByte('-')
		}
		b.WriteByte(promoAlphabet[int(v)%len(promoAlphabet)])
	}
	return b.String(), nil
}
