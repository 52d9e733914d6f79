package record

import (
	"strconv"
	"strings"
)

// Record is one user entry. ID is the creation time in Unix milliseconds
// and is unique within a Store.
type Record struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Fields holds the user-editable part of a Record.
type Fields struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Fields returns the editable fields of r.
func (r Record) Fields() Fields {
	return Fields{Name: r.Name, Email: r.Email, Role: r.Role}
}

// Values returns the string form of every field, id first.
func (r Record) Values() []string {
	return []string{strconv.FormatInt(r.ID, 10), r.Name, r.Email, r.Role}
}

// ParseID parses a decimal record id.
func ParseID(s string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
}
