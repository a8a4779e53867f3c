package otp

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// CodeLength is the number of digits in an emailed sign-in code.
const CodeLength = 6

// hashCode hashes a one-time code using bcrypt.
func hashCode(code string) (string, error) {
	if len(code) != CodeLength {
		return "", errors.New("otp: invalid code length")
	}

	bytes, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(bytes), nil
}

// verifyCode compares a submitted code with the stored hash.
func verifyCode(hash string, code string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}
