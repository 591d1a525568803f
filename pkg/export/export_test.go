package export

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/antarctica/lantern-go/pkg/record"
)

// testAdminKeys generates a fresh signing/encryption keypair for sealing
// admin tokens in tests (pkg/record/admin_test.go's generateECKeyPair
// style).
func testAdminKeys(t *testing.T) (AdminKeys, *ecdsa.PrivateKey, *ecdsa.PublicKey) {
	t.Helper()
	signingKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	encryptionKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return AdminKeys{EncryptionKey: encryptionKey, SigningKey: &signingKey.PublicKey}, signingKey, &encryptionKey.PublicKey
}

// sealAdmin seals admin onto rec using the private halves matching keys,
// as produced by testAdminKeys.
func sealAdmin(t *testing.T, rec *record.Record, signingKey *ecdsa.PrivateKey, encryptionKey *ecdsa.PublicKey, admin record.Administration) {
	t.Helper()
	token, err := record.EncodeAdmin(signingKey, encryptionKey, rec.FileIdentifier, admin)
	require.NoError(t, err)
	record.SetAdmin(rec, token)
}

func testRevision(id record.ID, title string) record.RecordRevision {
	return record.RecordRevision{
		Record: record.Record{
			FileIdentifier: id,
			HierarchyLevel: record.HierarchyDataset,
			Identification: record.Identification{
				Title:    title,
				Abstract: "an abstract",
				Dates: []record.DateEntry{
					{Role: record.DateRoleCreation, Date: record.Date{Precision: record.PrecisionYear, Year: 2020}},
				},
				Identifiers: []record.Identifier{
					{Identifier: id.String(), Namespace: record.CatalogueNamespace},
				},
			},
		},
		FileRevision: "abc123",
	}
}
