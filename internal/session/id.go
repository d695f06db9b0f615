package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

// Generator produces a candidate session id. It must fail rather than fall
// back to a weaker source, and it is never retried by the store.
type Generator func() (string, error)

// RandomID returns a Generator reading width bytes from crypto/rand and
// encoding them as unpadded URL-safe base64.
func RandomID(width int) Generator {
	return randomIDFrom(rand.Reader, width)
}

func randomIDFrom(src io.Reader, width int) Generator {
	return func() (string, error) {
		if width <= 0 {
			return "", fmt.Errorf("%w: invalid id width %d", ErrEntropy, width)
		}
		buf := make([]byte, width)
		if _, err := io.ReadFull(src, buf); err != nil {
			return "", fmt.Errorf("%w: %v", ErrEntropy, err)
		}
		return base64.RawURLEncoding.EncodeToString(buf), nil
	}
}
