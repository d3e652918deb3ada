package models

import "time"

// Source is a remote machine whose Codex sessions are synced locally.
// The password is stored in sources.json but never exposed over the API.
type Source struct {
	ID        string     `json:"id"`
	Label     string     `json:"label"`
	Host      string     `json:"host"`
	User      string     `json:"user"`
	Port      int        `json:"port"`
	Path      string     `json:"path"`
	Password  string     `json:"password,omitempty"`
	LastSync  *time.Time `json:"last_sync"`
	LastError *string    `json:"last_error"`
}

// Sanitized returns a copy of the source with the password removed.
func (s Source) Sanitized() Source {
	s.Password = ""
	return s
}
