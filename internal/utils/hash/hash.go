package hash

import (
	"crypto/sha256"
	"fmt"
)

type Hash struct {
	data []byte
}

func FromString(s string) Hash {
	return Hash{data: []byte(s)}
}

func (h Hash) ComputeHash() string {
	hash := sha256.Sum256(h.data)
	return fmt.Sprintf("%x", hash)
}
