package password

import "github.com/5w1tchy/book-art/internal/config"

type Params struct {
	Memory      uint32 // kibibytes
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// FromConfig takes the argon2id cost from config; salt and key sizes are fixed.
func FromConfig(c config.AuthConfig) Params {
	return Params{
		Memory:      c.Argon2Memory,
		Iterations:  c.Argon2Iter,
		Parallelism: c.Argon2Par,
		SaltLength:  16,
		KeyLength:   32,
	}
}
