// Package credstore persists and serves OAuth credentials for the
// streamer, music-provider, and bot subjects, and holds the single
// in-memory bot credential (BotSlot).
package credstore

import (
	"errors"
	"time"

	"github.com/nerix-tools/redemptiond/internal/store"
)

// Credential is the provider-agnostic shape callers work with; Store
// implementations translate to and from their own storage row.
type Credential struct {
	SubjectKind store.CredentialKind
	SubjectID   string
	AccessToken string
	RefreshToken string
	Scopes      []string
	ExpiresAt   time.Time
	Broken      bool
}

// ErrNotFound is returned by Get when no credential is on file.
var ErrNotFound = errors.New("credstore: not found")

// Store is the credential persistence interface: Get, Save, List,
// MarkBroken.
type Store interface {
	Get(kind store.CredentialKind, subjectID string) (*Credential, error)
	Save(c Credential) error
	List(kind store.CredentialKind) ([]Credential, error)
	MarkBroken(kind store.CredentialKind, subjectID string) error
}

// DBStore is the production Store, backed by internal/store's
// credentials repository.
type DBStore struct {
	db *store.DB
}

// NewDBStore builds a DBStore over db.
func NewDBStore(db *store.DB) *DBStore {
	return &DBStore{db: db}
}

func (s *DBStore) Get(kind store.CredentialKind, subjectID string) (*Credential, error) {
	row, err := s.db.GetCredential(kind, subjectID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return fromRow(row), nil
}

func (s *DBStore) Save(c Credential) error {
	return s.db.UpsertCredential(store.Credential{
		SubjectKind: c.SubjectKind,
		SubjectID:   c.SubjectID,
		AccessToken: c.AccessToken,
		RefreshToken: c.RefreshToken,
		Scopes:      c.Scopes,
		ExpiresAt:   c.ExpiresAt,
		Broken:      c.Broken,
	})
}

func (s *DBStore) List(kind store.CredentialKind) ([]Credential, error) {
	rows, err := s.db.ListCredentialsByKind(kind)
	if err != nil {
		return nil, err
	}
	out := make([]Credential, len(rows))
	for i := range rows {
		out[i] = *fromRow(&rows[i])
	}
	return out, nil
}

func (s *DBStore) MarkBroken(kind store.CredentialKind, subjectID string) error {
	return s.db.MarkCredentialBroken(kind, subjectID)
}

func fromRow(row *store.Credential) *Credential {
	return &Credential{
		SubjectKind: row.SubjectKind,
		SubjectID:   row.SubjectID,
		AccessToken: row.AccessToken,
		RefreshToken: row.RefreshToken,
		Scopes:      row.Scopes,
		ExpiresAt:   row.ExpiresAt,
		Broken:      row.Broken,
	}
}
