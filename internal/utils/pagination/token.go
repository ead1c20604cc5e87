package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

const timeFormat = time.RFC3339Nano // Use a precise time format

// EncodeEscrowToken creates a base64 encoded keyset token from the last row of a page,
// ordered by deposit time then order ID.
func EncodeEscrowToken(depositedAt time.Time, orderID string) string {
	return EncodeMultiFieldToken(depositedAt.UTC().Format(timeFormat), orderID)
}

// DecodeEscrowToken parses a token produced by EncodeEscrowToken.
func DecodeEscrowToken(token string) (time.Time, string, error) {
	// The timestamp never contains the separator, so the order ID keeps any "|" it has.
	parts, err := decodeFields(token, 2)
	if err != nil {
		return time.Time{}, "", err
	}
	if len(parts) != 2 || parts[1] == "" {
		return time.Time{}, "", fmt.Errorf("invalid pagination token format (split)")
	}

	depositedAt, err := time.Parse(timeFormat, parts[0])
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid pagination token format (deposited_at parse): %w", err)
	}

	return depositedAt, parts[1], nil
}

// EncodeMultiFieldToken creates a token with any number of string fields.
// Only the last field may contain the "|" separator.
func EncodeMultiFieldToken(fields ...string) string {
	tokenStr := strings.Join(fields, "|")
	return base64.URLEncoding.EncodeToString([]byte(tokenStr))
}

// DecodeMultiFieldToken decodes a token into its component fields
func DecodeMultiFieldToken(token string) ([]string, error) {
	return decodeFields(token, -1)
}

func decodeFields(token string, n int) ([]string, error) {
	decodedBytes, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}

	tokenStr := string(decodedBytes)
	parts := strings.SplitN(tokenStr, "|", n)
	return parts, nil
}
