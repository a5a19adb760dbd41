package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealOpenRoundTrip(t *testing.T) {
	plaintext := []byte(`{"access_token":"A1","refresh_token":"R1"}`)

	sealed, err := sealRecord(plaintext, "correct horse battery staple")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "A1")

	opened, err := openRecord(sealed, "correct horse battery staple")
	require.NoError(t, err)
	assert.Equal(t, plaintext, opened)
}

func TestOpenRecordWrongKey(t *testing.T) {
	sealed, err := sealRecord([]byte("secret"), "key-one")
	require.NoError(t, err)

	_, err = openRecord(sealed, "key-two")
	assert.Error(t, err)
}

func TestOpenRecordRejectsGarbage(t *testing.T) {
	_, err := openRecord("%%not-base64%%", "key")
	assert.Error(t, err)

	_, err = openRecord("dG9vc2hvcnQ=", "key")
	assert.Error(t, err)
}
