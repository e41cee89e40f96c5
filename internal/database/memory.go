package database

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// OpenInMemory opens a private, migrated in-memory SQLite database. Databases
// with the same name share state for the life of the process.
func OpenInMemory(name string) (*gorm.DB, error) {
	clean := strings.NewReplacer("/", "_", " ", "_", "#", "_", "?", "_", "%", "_", "&", "_").Replace(name)
	return Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", clean), false)
}
