package helpers

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const argon2Prefix = "$argon2id$"

var errMalformedDigest = errors.New("malformed password digest")

// BcryptHasher hashes passwords with bcrypt
type BcryptHasher struct {
	Cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{Cost: cost}
}

func (h *BcryptHasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h *BcryptHasher) Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// Argon2Hasher hashes passwords with argon2id and a random salt per digest.
// Digests use the PHC string format so parameters travel with the hash:
// $argon2id$v=19$m=65536,t=1,p=4$<salt>$<key>
type Argon2Hasher struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
	SaltLen uint32
}

func NewArgon2Hasher(time, memoryKiB uint32, threads uint8) *Argon2Hasher {
	if time == 0 {
		time = 1
	}
	if memoryKiB == 0 {
		memoryKiB = 64 * 1024
	}
	if threads == 0 {
		threads = 4
	}
	return &Argon2Hasher{Time: time, Memory: memoryKiB, Threads: threads, KeyLen: 32, SaltLen: 16}
}

func (h *Argon2Hasher) Hash(plain string) (string, error) {
	salt := make([]byte, h.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(plain), salt, h.Time, h.Memory, h.Threads, h.KeyLen)
	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s", argon2Prefix, argon2.Version,
		h.Memory, h.Time, h.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

// Verify recomputes the key with the parameters stored in hash.
func (h *Argon2Hasher) Verify(plain, hash string) bool {
	p, salt, key, err := decodeArgon2(hash)
	if err != nil {
		return false
	}
	got := argon2.IDKey([]byte(plain), salt, p.Time, p.Memory, p.Threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(got, key) == 1
}

func decodeArgon2(hash string) (Argon2Hasher, []byte, []byte, error) {
	var p Argon2Hasher
	parts := strings.Split(hash, "$")
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	if len(parts) != 6 || parts[1] != "argon2id" {
		return p, nil, nil, errMalformedDigest
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, errMalformedDigest
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		return p, nil, nil, errMalformedDigest
	}
	// argon2.IDKey panics on zero rounds or threads.
	if p.Memory < 1 || p.Time < 1 || p.Threads < 1 {
		return p, nil, nil, errMalformedDigest
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, errMalformedDigest
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, errMalformedDigest
	}
	return p, salt, key, nil
}

// MultiHasher hashes with argon2id and still verifies bcrypt digests, so
// accounts hashed before a switch keep working until their next rotation.
type MultiHasher struct {
	Argon2 *Argon2Hasher
	Bcrypt *BcryptHasher
	// PreferBcrypt makes Hash produce bcrypt digests.
	PreferBcrypt bool
}

func (m *MultiHasher) Hash(plain string) (string, error) {
	if m.PreferBcrypt {
		return m.Bcrypt.Hash(plain)
	}
	return m.Argon2.Hash(plain)
}

func (m *MultiHasher) Verify(plain, hash string) bool {
	switch {
	case hash == "":
		return false
	case strings.HasPrefix(hash, argon2Prefix):
		return m.Argon2.Verify(plain, hash)
	default:
		return m.Bcrypt.Verify(plain, hash)
	}
}

// NewPasswordHasher builds the hasher selected by algorithm ("argon2id" or "bcrypt").
func NewPasswordHasher(algorithm string, bcryptCost int, argonTime, argonMemoryKiB uint32, argonThreads uint8) (*MultiHasher, error) {
	m := &MultiHasher{
		Argon2: NewArgon2Hasher(argonTime, argonMemoryKiB, argonThreads),
		Bcrypt: NewBcryptHasher(bcryptCost),
	}
	switch strings.ToLower(algorithm) {
	case "", "argon2id", "argon2":
	case "bcrypt":
		m.PreferBcrypt = true
	default:
		return nil, fmt.Errorf("unsupported password hash algorithm %q", algorithm)
	}
	return m, nil
}
