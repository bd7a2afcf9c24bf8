package application

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	ErrInvalidPasswordHash         = errors.New("invalid password hash format")
	ErrIncompatiblePasswordVersion = errors.New("incompatible password hash version")
)

// Argon2idParams tunes the admin password hash. SaltLength and KeyLength are
// taken from the encoded value when verifying.
type Argon2idParams struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

var DefaultArgon2idParams = Argon2idParams{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

var b64 = base64.RawStdEncoding

// HashPassword hashes password with DefaultArgon2idParams.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	return CreatePasswordHash(password, DefaultArgon2idParams)
}

// CreatePasswordHash returns password hashed in the PHC string format,
// $argon2id$v=19$m=<memory>,t=<iterations>,p=<parallelism>$<salt>$<key>.
func CreatePasswordHash(password string, params Argon2idParams) (string, error) {
	h := phcHash{params: params, salt: make([]byte, params.SaltLength)}
	if _, err := rand.Read(h.salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	h.key = h.derive(password)
	return h.String(), nil
}

// VerifyPassword returns nil when password matches encoded and
// ErrInvalidCredentials when it does not.
func VerifyPassword(encoded, password string) error {
	h, err := parsePHCHash(encoded)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare(h.key, h.derive(password)) != 1 {
		return ErrInvalidCredentials
	}
	return nil
}

type phcHash struct {
	params Argon2idParams
	salt   []byte
	key    []byte
}

func (h phcHash) derive(password string) []byte {
	p := h.params
	return argon2.IDKey([]byte(password), h.salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)
}

func (h phcHash) String() string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.params.Memory, h.params.Iterations, h.params.Parallelism,
		b64.EncodeToString(h.salt), b64.EncodeToString(h.key))
}

func parsePHCHash(encoded string) (phcHash, error) {
	// Leading "$" yields an empty first field.
	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[0] != "" || fields[1] != "argon2id" {
		return phcHash{}, ErrInvalidPasswordHash
	}

	var version int
	if _, err := fmt.Sscanf(fields[2], "v=%d", &version); err != nil {
		return phcHash{}, fmt.Errorf("%w: version: %v", ErrInvalidPasswordHash, err)
	}
	if version != argon2.Version {
		return phcHash{}, ErrIncompatiblePasswordVersion
	}

	var h phcHash
	if _, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &h.params.Memory, &h.params.Iterations, &h.params.Parallelism); err != nil {
		return phcHash{}, fmt.Errorf("%w: parameters: %v", ErrInvalidPasswordHash, err)
	}

	var err error
	if h.salt, err = b64.DecodeString(fields[4]); err != nil {
		return phcHash{}, fmt.Errorf("%w: salt: %v", ErrInvalidPasswordHash, err)
	}
	if h.key, err = b64.DecodeString(fields[5]); err != nil {
		return phcHash{}, fmt.Errorf("%w: key: %v", ErrInvalidPasswordHash, err)
	}
	if len(h.key) == 0 {
		return phcHash{}, ErrInvalidPasswordHash
	}
	h.params.SaltLength = uint32(len(h.salt))
	h.params.KeyLength = uint32(len(h.key))
	return h, nil
}
