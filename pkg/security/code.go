package security

import (
	"crypto/rand"
	"errors"
	"math/big"
)

// codeAlphabet leaves out characters that are easy to misread in an e-mail.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"

// GenerateCode returns a random single-use code drawn from codeAlphabet.
func GenerateCode(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("length must be positive")
	}
	n := big.NewInt(int64(len(codeAlphabet)))
	out := make([]byte, length)
	for i := range out {
		idx, err := rand.Int(rand.Reader, n)
		if err != nil {
			return "", err
		}
		out[i] = codeAlphabet[idx.Int64()]
	}
	return string(out), nil
}
