package token

import (
	"strings"

	"github.com/oguzhanozgokce/account-service/internal/core/domain"
)

// Validator answers yes/no questions about tokens. Every check fails closed:
// anything that cannot be decoded is treated as invalid and expired.
type Validator struct {
	codec *Codec
}

func NewValidator(codec *Codec) *Validator {
	return &Validator{codec: codec}
}

// ExtractSubject returns the subject claim, or false when the token does not
// decode or carries a blank subject.
func (v *Validator) ExtractSubject(tokenString string) (string, bool) {
	claims, err := v.codec.Decode(tokenString)
	if err != nil {
		return "", false
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", false
	}
	return claims.Subject, true
}

// IsExpired reports whether the token is past its expiry or undecodable.
func (v *Validator) IsExpired(tokenString string) bool {
	claims, err := v.codec.Decode(tokenString)
	if err != nil {
		return true
	}
	return claims.ExpiredAt(v.codec.now())
}

// Validate reports whether the token belongs to user and is still live.
func (v *Validator) Validate(tokenString string, user *domain.User) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	if user == nil {
		return false
	}
	claims, err := v.codec.Decode(tokenString)
	if err != nil {
		return false
	}
	if claims.Subject == "" || claims.Subject != user.Username {
		return false
	}
	return !claims.ExpiredAt(v.codec.now())
}

// Service bundles issuing and validation behind ports.TokenService.
type Service struct {
	*Codec
	*Validator
}

func NewService(codec *Codec) *Service {
	return &Service{Codec: codec, Validator: NewValidator(codec)}
}
