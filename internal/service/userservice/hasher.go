package userservice

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher gera e confere credenciais.
// Compare devolve needsRehash=true quando a credencial gravada ainda não é um hash
// (conjuntos antigos guardavam a senha em texto puro).
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(stored, password string) (ok bool, needsRehash bool)
}

// BcryptHasher implementa PasswordHasher com bcrypt.
type BcryptHasher struct {
	Cost int
}

// NewBcryptHasher valida o custo; fora do intervalo do bcrypt usa o padrão.
func NewBcryptHasher(cost int) BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return BcryptHasher{Cost: cost}
}

func (h BcryptHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (h BcryptHasher) Compare(stored, password string) (bool, bool) {
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil, false
	}
	// Credencial legada em texto puro: compara em tempo constante e pede rehash.
	ok := subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1
	return ok, ok
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
