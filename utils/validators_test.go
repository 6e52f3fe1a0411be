package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("driver@modsquad.com"))
	assert.True(t, IsValidEmail("first.last+tag@garage.co.uk"))

	assert.False(t, IsValidEmail(""))
	assert.False(t, IsValidEmail("no-at-sign"))
	assert.False(t, IsValidEmail("missing@tld"))
	assert.False(t, IsValidEmail("@modsquad.com"))
}

func TestIsValidCarYear(t *testing.T) {
	nextYear := time.Now().Year() + 1

	assert.True(t, IsValidCarYear(1886))
	assert.True(t, IsValidCarYear(1999))
	assert.True(t, IsValidCarYear(nextYear))

	assert.False(t, IsValidCarYear(1885))
	assert.False(t, IsValidCarYear(0))
	assert.False(t, IsValidCarYear(nextYear+1))
}
