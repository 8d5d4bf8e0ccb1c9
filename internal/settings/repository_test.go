package settings

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-webinar/recording-ingest/internal/models"
)

func validCredentials() *models.Credentials {
	return &models.Credentials{
		VideoLibraryID:           "1234",
		VideoAPIKey:              "bunny-key",
		ConferencingAccountID:    "acct",
		ConferencingClientID:     "client",
		ConferencingClientSecret: "secret",
	}
}

func TestValidate_Complete(t *testing.T) {
	require.NoError(t, Validate(validCredentials()))
}

func TestValidate_NamesMissingField(t *testing.T) {
	tests := []struct {
		name  string
		blank func(*models.Credentials)
		want  string
	}{
		{"library id", func(c *models.Credentials) { c.VideoLibraryID = "" }, FieldVideoLibraryID},
		{"api key", func(c *models.Credentials) { c.VideoAPIKey = "  " }, FieldVideoAPIKey},
		{"account id", func(c *models.Credentials) { c.ConferencingAccountID = "" }, FieldConferencingAccountID},
		{"client id", func(c *models.Credentials) { c.ConferencingClientID = "" }, FieldConferencingClientID},
		{"client secret", func(c *models.Credentials) { c.ConferencingClientSecret = "" }, FieldConferencingClientSecret},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCredentials()
			tt.blank(c)
			err := Validate(c)
			var missing *ConfigurationMissingError
			require.True(t, errors.As(err, &missing))
			require.Equal(t, tt.want, missing.Field)
			require.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_NilRecord(t *testing.T) {
	var missing *ConfigurationMissingError
	require.ErrorAs(t, Validate(nil), &missing)
	require.Equal(t, FieldRecord, missing.Field)
}

func TestDecode_LibraryIDForms(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"number", `{"bunny_library_id": 12345, "bunny_api_key": "k"}`, "12345"},
		{"string", `{"bunny_library_id": "12345", "bunny_api_key": "k"}`, "12345"},
		{"null", `{"bunny_library_id": null, "bunny_api_key": "k"}`, ""},
		{"absent", `{"bunny_api_key": "k"}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creds, err := Decode([]byte(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, tt.want, creds.VideoLibraryID)
			assert.Equal(t, "k", creds.VideoAPIKey)
		})
	}
}

func TestDecode_NumericLibraryIDValidates(t *testing.T) {
	creds, err := Decode([]byte(`{
		"bunny_library_id": 12345,
		"bunny_api_key": "bunny-key",
		"zoom_account_id": "acct",
		"zoom_client_id": "client",
		"zoom_client_secret": "secret"
	}`))
	require.NoError(t, err)
	require.NoError(t, Validate(creds))
}

func TestDecode_MissingLibraryIDIsConfigurationError(t *testing.T) {
	creds, err := Decode([]byte(`{"bunny_api_key": "k", "zoom_account_id": "a", "zoom_client_id": "c", "zoom_client_secret": "s"}`))
	require.NoError(t, err)
	var missing *ConfigurationMissingError
	require.ErrorAs(t, Validate(creds), &missing)
	assert.Equal(t, FieldVideoLibraryID, missing.Field)
}

func TestDecode_RejectsNonScalarLibraryID(t *testing.T) {
	_, err := Decode([]byte(`{"bunny_library_id": {"id": 1}}`))
	require.Error(t, err)
}
