package record

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func generateECKeyPair(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return key
}

func TestAdminEncodeDecodeRoundTrip(t *testing.T) {
	signingKey := generateECKeyPair(t)
	encryptionKey := generateECKeyPair(t)
	recordID := NewID()

	admin := Administration{
		GitLabIssues: []string{"https://gitlab.example/issues/1"},
		AccessPermissions: []AccessPermission{
			{Directory: "restricted", Group: "bas-staff"},
		},
	}

	token, err := EncodeAdmin(signingKey, &encryptionKey.PublicKey, recordID, admin)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	decoded, err := DecodeAdmin(encryptionKey, &signingKey.PublicKey, recordID, token)
	require.NoError(t, err)
	require.Equal(t, admin.GitLabIssues, decoded.GitLabIssues)
	require.Equal(t, admin.AccessPermissions, decoded.AccessPermissions)
	require.True(t, decoded.Subject.Equal(recordID))
}

func TestAdminDecodeWrongSigningKeyFails(t *testing.T) {
	signingKey := generateECKeyPair(t)
	otherSigningKey := generateECKeyPair(t)
	encryptionKey := generateECKeyPair(t)
	recordID := NewID()

	token, err := EncodeAdmin(signingKey, &encryptionKey.PublicKey, recordID, Administration{})
	require.NoError(t, err)

	_, err = DecodeAdmin(encryptionKey, &otherSigningKey.PublicKey, recordID, token)
	require.Error(t, err)
	var integrityErr *AdminIntegrityError
	require.ErrorAs(t, err, &integrityErr)
}

func TestAdminDecodeSubjectMismatchFails(t *testing.T) {
	signingKey := generateECKeyPair(t)
	encryptionKey := generateECKeyPair(t)
	recordID := NewID()
	otherID := NewID()

	token, err := EncodeAdmin(signingKey, &encryptionKey.PublicKey, recordID, Administration{})
	require.NoError(t, err)

	_, err = DecodeAdmin(encryptionKey, &signingKey.PublicKey, otherID, token)
	require.Error(t, err)
	var mismatchErr *AdminSubjectMismatchError
	require.ErrorAs(t, err, &mismatchErr)
}

func TestSetAndStripAdminMetadata(t *testing.T) {
	rec, err := Structure([]byte(minimalRecordJSON))
	require.NoError(t, err)

	SetAdmin(&rec, "sealed-token")
	tok, ok := AdminToken(rec)
	require.True(t, ok)
	require.Equal(t, "sealed-token", tok)

	StripAdminMetadata(&rec)
	_, ok = AdminToken(rec)
	require.False(t, ok)
	require.Nil(t, rec.Identification.SupplementalInformation)
}
