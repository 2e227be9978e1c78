// Package password реализует хеширование и проверку паролей.
//
// Хеши хранятся в формате $argon2id$v=19$m=...,t=...,p=...$salt$hash.
package password

import (
	"errors"
	"fmt"

	"github.com/alexedwards/argon2id"
)

var (
	// ErrMismatch пароль не соответствует хешу.
	ErrMismatch = errors.New("password does not match")
	// ErrInvalidHash строка хеша имеет неверный формат или недопустимые параметры.
	ErrInvalidHash = errors.New("invalid password hash")
)

var params = &argon2id.Params{
	Memory:      64 * 1024,
	Iterations:  1,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

// GetHash принимает пароль пользователя и возвращает его argon2id-хеш.
func GetHash(password string) (string, error) {
	const op = "password.GetHash"
	hash, err := argon2id.CreateHash(password, params)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return hash, nil
}

// CompareHash сравнивает хеш с введённым паролем.
//
// Возвращает nil, если пароль соответствует хешу, иначе ErrMismatch или ErrInvalidHash.
func CompareHash(encodedHash, password string) error {
	const op = "password.CompareHash"

	// argon2 паникует на нулевых t и p, пустой ключ совпал бы с любым паролем
	p, salt, key, err := argon2id.DecodeHash(encodedHash)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", op, ErrInvalidHash, err)
	}
	if p.Iterations < 1 || p.Parallelism < 1 || len(salt) == 0 || len(key) == 0 {
		return fmt.Errorf("%s: %w", op, ErrInvalidHash)
	}

	match, err := argon2id.ComparePasswordAndHash(password, encodedHash)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", op, ErrInvalidHash, err)
	}
	if !match {
		return fmt.Errorf("%s: %w", op, ErrMismatch)
	}
	return nil
}
