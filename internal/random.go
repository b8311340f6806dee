package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
)

// TokenID identifies an issued refresh token without revealing its secret.
type TokenID [16]byte

const (
	refreshSecretSize   = 32
	refreshTokenRawSize = len(TokenID{}) + refreshSecretSize
)

// NewTokenID returns a random TokenID.
func NewTokenID() (TokenID, error) {
	var id TokenID
	_, err := rand.Read(id[:])
	return id, err
}

func (id TokenID) String() string {
	return base64.RawURLEncoding.EncodeToString(id[:])
}

// NewRefreshToken mints an opaque refresh token. Only the returned hash of its
// secret should be kept by the issuer.
func NewRefreshToken() (id string, token string, secretHash [32]byte, err error) {
	tid, err := NewTokenID()
	if err != nil {
		return "", "", secretHash, err
	}
	var secret [refreshSecretSize]byte
	if _, err := rand.Read(secret[:]); err != nil {
		return "", "", secretHash, err
	}

	var raw [refreshTokenRawSize]byte
	copy(raw[:len(tid)], tid[:])
	copy(raw[len(tid):], secret[:])

	return tid.String(), base64.RawURLEncoding.EncodeToString(raw[:]), sha256.Sum256(secret[:]), nil
}

// DecodeRefreshToken splits token into its id and the hash of its secret.
func DecodeRefreshToken(token string) (string, [32]byte, error) {
	var secretHash [32]byte

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", secretHash, err
	}
	if len(raw) != refreshTokenRawSize {
		return "", secretHash, errors.New("invalid refresh token size")
	}

	var tid TokenID
	copy(tid[:], raw[:len(tid)])
	return tid.String(), sha256.Sum256(raw[len(tid):]), nil
}

// NumericCode returns a zero-padded random decimal code of the given length.
func NumericCode(digits int) (string, error) {
	if digits <= 0 || digits > 18 {
		return "", fmt.Errorf("invalid code length %d", digits)
	}
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", digits, n.Int64()), nil
}
