// Package settings resolves platform credentials from the settings table.
package settings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-webinar/recording-ingest/internal/models"
)

// ConfigurationMissingError names the settings field that is absent.
type ConfigurationMissingError struct {
	Field string
}

func (e *ConfigurationMissingError) Error() string {
	return fmt.Sprintf("configuration missing: %s", e.Field)
}

// Field names reported by ConfigurationMissingError.
const (
	FieldRecord                   = "settings record"
	FieldVideoLibraryID           = "video library id"
	FieldVideoAPIKey              = "video api key"
	FieldConferencingAccountID    = "conferencing account id"
	FieldConferencingClientID     = "conferencing client id"
	FieldConferencingClientSecret = "conferencing client secret"
)

// Repository reads the single settings record holding platform credentials.
type Repository struct {
	pool *pgxpool.Pool
	id   string
}

// NewRepository creates a settings repository keyed by the given settings id.
func NewRepository(pool *pgxpool.Pool, settingsID string) *Repository {
	return &Repository{pool: pool, id: settingsID}
}

// Resolve loads and validates credentials. A missing row or field is reported
// as *ConfigurationMissingError; there are no retries.
func (r *Repository) Resolve(ctx context.Context) (*models.Credentials, error) {
	const q = `SELECT data FROM settings WHERE id = $1`
	var raw []byte
	if err := r.pool.QueryRow(ctx, q, r.id).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &ConfigurationMissingError{Field: FieldRecord}
		}
		return nil, fmt.Errorf("read settings %s: %w", r.id, err)
	}
	creds, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decode settings %s: %w", r.id, err)
	}
	if err := Validate(creds); err != nil {
		return nil, err
	}
	return creds, nil
}

// idValue accepts an id stored either as a JSON string or a bare number.
type idValue string

func (v *idValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*v = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = idValue(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("library id must be a string or number: %w", err)
		}
		*v = idValue(n.String())
	}
	return nil
}

// Decode parses a settings document. The video library id may be numeric.
func Decode(raw []byte) (*models.Credentials, error) {
	var doc struct {
		models.Credentials
		VideoLibraryID idValue `json:"bunny_library_id"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	creds := doc.Credentials
	creds.VideoLibraryID = string(doc.VideoLibraryID)
	return &creds, nil
}

// Validate returns *ConfigurationMissingError for the first blank credential.
func Validate(c *models.Credentials) error {
	if c == nil {
		return &ConfigurationMissingError{Field: FieldRecord}
	}
	checks := []struct {
		field string
		value string
	}{
		{FieldVideoLibraryID, c.VideoLibraryID},
		{FieldVideoAPIKey, c.VideoAPIKey},
		{FieldConferencingAccountID, c.ConferencingAccountID},
		{FieldConferencingClientID, c.ConferencingClientID},
		{FieldConferencingClientSecret, c.ConferencingClientSecret},
	}
	for _, ch := range checks {
		if strings.TrimSpace(ch.value) == "" {
			return &ConfigurationMissingError{Field: ch.field}
		}
	}
	return nil
}
