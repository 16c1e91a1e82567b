package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// duplicateKeyMarkers are the driver-specific texts for a unique
// constraint violation (postgres 23505, mysql 1062, sqlite 2067), for
// drivers gorm's TranslateError misses.
var duplicateKeyMarkers = []string{
	"duplicate key value violates unique constraint",
	"Error 1062",
	"UNIQUE constraint failed",
}

// IsDuplicateKeyErr reports whether err is a unique constraint violation
// on any of the supported dialects.
func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	for _, marker := range duplicateKeyMarkers {
		if strings.Contains(err.Error(), marker) {
			return true
		}
	}
	return false
}
