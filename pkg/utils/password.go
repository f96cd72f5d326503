package utils

import (
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// 与前端表单保持一致的口令规则
const (
	PasswordMinLen = 8
	PasswordMaxLen = 16
)

var HashCost = 12

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), HashCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func CheckPassword(pw, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(pw)) == nil
}

// StrongPassword 8-16 位，至少一个大写字母和一个特殊字符
func StrongPassword(pw string) bool {
	n := len([]rune(pw))
	if n < PasswordMinLen || n > PasswordMaxLen {
		return false
	}
	var upper, special bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			special = true
		}
	}
	return upper && special
}
