package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"
)

const (
	paymentReferencePrefix = "CE_"
	base36Alphabet         = "0123456789abcdefghijklmnopqrstuvwxyz"
	referenceSuffixLength  = 9
)

// GenerateSecureRandomString returns n characters drawn uniformly from base36 using crypto/rand.
func GenerateSecureRandomString(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("length must be positive")
	}
	max := big.NewInt(int64(len(base36Alphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		b[i] = base36Alphabet[idx.Int64()]
	}
	return string(b), nil
}

// GeneratePaymentReference builds a checkout reference of the form CE_<unix millis>_<9 base36 chars>.
func GeneratePaymentReference(now time.Time) (string, error) {
	suffix, err := GenerateSecureRandomString(referenceSuffixLength)
	if err != nil {
		return "", err
	}
	return paymentReferencePrefix + strconv.FormatInt(now.UnixMilli(), 10) + "_" + suffix, nil
}
