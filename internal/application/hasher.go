package application

// PasswordHasher turns raw passwords into digests and checks them.
type PasswordHasher interface {
	Hash(raw string) (string, error)
	Verify(raw, digest string) bool
}

// HasherFuncs adapts a plain function pair to PasswordHasher.
type HasherFuncs struct {
	HashFunc   func(raw string) (string, error)
	VerifyFunc func(raw, digest string) bool
}

func (h HasherFuncs) Hash(raw string) (string, error) { return h.HashFunc(raw) }

func (h HasherFuncs) Verify(raw, digest string) bool { return h.VerifyFunc(raw, digest) }
