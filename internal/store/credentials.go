package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// GetCredential fetches the persisted OAuth credential for the given
// subject, or ErrNotFound.
func (db *DB) GetCredential(kind CredentialKind, subjectID string) (*Credential, error) {
	var c Credential
	err := db.Get(&c, `SELECT subject_kind, subject_id, access_token, refresh_token, scopes, expires_at, broken
		FROM credentials WHERE subject_kind = $1 AND subject_id = $2`, kind, subjectID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get credential %s/%s: %w", kind, subjectID, err)
	}
	c.Scopes = splitScopes(c.ScopesRaw)
	return &c, nil
}

// UpsertCredential stores a freshly obtained or refreshed credential.
func (db *DB) UpsertCredential(c Credential) error {
	scopesRaw := strings.Join(c.Scopes, " ")
	_, err := db.Exec(`INSERT INTO credentials (subject_kind, subject_id, access_token, refresh_token, scopes, expires_at, broken)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE)
		ON CONFLICT (subject_kind, subject_id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			scopes = excluded.scopes,
			expires_at = excluded.expires_at,
			broken = FALSE`,
		c.SubjectKind, c.SubjectID, c.AccessToken, c.RefreshToken, scopesRaw, c.ExpiresAt)
	if err != nil {
		return fmt.Errorf("store: upsert credential %s/%s: %w", c.SubjectKind, c.SubjectID, err)
	}
	return nil
}

// MarkCredentialBroken flags a credential whose refresh attempt was
// rejected by the provider, per spec.md §7's "broken credential" error
// class: surfaced to operators rather than retried forever.
func (db *DB) MarkCredentialBroken(kind CredentialKind, subjectID string) error {
	_, err := db.Exec(`UPDATE credentials SET broken = TRUE WHERE subject_kind = $1 AND subject_id = $2`, kind, subjectID)
	if err != nil {
		return fmt.Errorf("store: mark credential broken %s/%s: %w", kind, subjectID, err)
	}
	return nil
}

// ListExpiringCredentials returns every non-broken credential that expires
// before cutoff, the query backing the token refresher's periodic tick.
func (db *DB) ListExpiringCredentials(cutoff time.Time) ([]Credential, error) {
	var rows []Credential
	err := db.Select(&rows, `SELECT subject_kind, subject_id, access_token, refresh_token, scopes, expires_at, broken
		FROM credentials WHERE broken = FALSE AND expires_at <= $1`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("store: list expiring credentials: %w", err)
	}
	for i := range rows {
		rows[i].Scopes = splitScopes(rows[i].ScopesRaw)
	}
	return rows, nil
}

// ListCredentialsByKind returns every credential of the given subject
// kind, used by the credential store's List operation.
func (db *DB) ListCredentialsByKind(kind CredentialKind) ([]Credential, error) {
	var rows []Credential
	err := db.Select(&rows, `SELECT subject_kind, subject_id, access_token, refresh_token, scopes, expires_at, broken
		FROM credentials WHERE subject_kind = $1`, kind)
	if err != nil {
		return nil, fmt.Errorf("store: list credentials for %s: %w", kind, err)
	}
	for i := range rows {
		rows[i].Scopes = splitScopes(rows[i].ScopesRaw)
	}
	return rows, nil
}

func splitScopes(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, " ")
}
