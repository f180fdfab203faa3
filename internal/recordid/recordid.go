// Package recordid validates CRM record identifiers and derives stable ones for inbox files.
package recordid

import (
	"path/filepath"

	"github.com/google/uuid"
)

// inboxNamespace scopes the name-based UUIDs generated for inbox files.
var inboxNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("crmsheet:inbox"))

// Parse validates id as a UUID and returns its canonical lowercase form.
func Parse(id string) (string, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// New returns a fresh random record id.
func New() string {
	return uuid.NewString()
}

// FromPath returns a stable record id for the given absolute path.
// Same path always yields the same id, so re-importing a file replaces its record.
func FromPath(absolutePath string) string {
	normalized := filepath.Clean(absolutePath)
	return uuid.NewSHA1(inboxNamespace, []byte(normalized)).String()
}
