package utils

import (
	"regexp"
	"time"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// IsValidCarYear accepts model years from the dawn of the automobile up to
// next year's models.
func IsValidCarYear(year int) bool {
	return year >= 1886 && year <= time.Now().Year()+1
}
