package billing

import (
	"context"
	"crypto/rand"
	"fmt"
)

const (
	numberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	numberLength   = 8
	numberAttempts = 16
)

// NumberChecker reports whether an invoice number is already taken.
type NumberChecker interface {
	NumberExists(ctx context.Context, number string) (bool, error)
}

// randomNumber draws an 8 character invoice number from A-Z0-9.
func randomNumber() (string, error) {
	buf := make([]byte, numberLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("billing: draw invoice number: %w", err)
	}
	for i, b := range buf {
		buf[i] = numberAlphabet[int(b)%len(numberAlphabet)]
	}
	return string(buf), nil
}

// allocateNumber draws candidates until one is unused. The read check is
// only a fast path; the database unique constraint stays authoritative
// and insertion retries on a collision.
func allocateNumber(ctx context.Context, checker NumberChecker) (string, error) {
	for i := 0; i < numberAttempts; i++ {
		number, err := randomNumber()
		if err != nil {
			return "", err
		}
		taken, err := checker.NumberExists(ctx, number)
		if err != nil {
			return "", err
		}
		if !taken {
			return number, nil
		}
	}
	return "", fmt.Errorf("billing: could not allocate a free invoice number after %d attempts", numberAttempts)
}
