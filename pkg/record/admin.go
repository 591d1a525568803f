package record

import (
	"crypto/ecdsa"
	"fmt"
	"time"

	josejwt "github.com/go-jose/go-jose/v4/jwt"

	jose "github.com/go-jose/go-jose/v4"
)

const (
	adminIssuer       = "magic.data.bas.ac.uk"
	adminAudience     = "data.bas.ac.uk"
	adminTokenLifetime = 100 * 365 * 24 * time.Hour
)

// AccessPermission grants a group access to a directory of a record's
// restricted resources for a bounded (or indefinite) period.
type AccessPermission struct {
	Directory string     `json:"directory"`
	Group     string     `json:"group"`
	Expiry    *time.Time `json:"expiry,omitempty"`
	Comments  string     `json:"comments,omitempty"`
}

// Administration is the side-channel payload sealed inside a record's
// administrative_metadata supplemental-information entry (spec.md sec 3).
type Administration struct {
	Subject             ID                 `json:"-"`
	GitLabIssues        []string           `json:"gitlab_issues,omitempty"`
	AccessPermissions   []AccessPermission `json:"access_permissions,omitempty"`
	MetadataPermissions map[string]any     `json:"metadata_permissions,omitempty"`
	ResourcePermissions map[string]any     `json:"resource_permissions,omitempty"`
}

type adminClaims struct {
	josejwt.Claims
	Payload Administration `json:"pyd"`
}

// EncodeAdmin seals admin as a signed-then-encrypted JWT (ES256 signature,
// ECDH-ES+A128KW key agreement, A256GCM content encryption), bound to
// recordID through the JWT subject claim; the payload's own Subject field
// is not serialised (spec.md sec 3, sec 9 "JWE/JWT for admin seal"). It
// fails if a non-zero admin.Subject does not match recordID.
func EncodeAdmin(signingKey *ecdsa.PrivateKey, encryptionKey *ecdsa.PublicKey, recordID ID, admin Administration) (string, error) {
	if !admin.Subject.IsZero() && !admin.Subject.Equal(recordID) {
		return "", &AdminSubjectMismatchError{RecordID: recordID, AdminID: admin.Subject}
	}
	admin.Subject = recordID

	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.ES256, Key: signingKey}, nil)
	if err != nil {
		return "", fmt.Errorf("constructing signer: %w", err)
	}
	encrypter, err := jose.NewEncrypter(jose.A256GCM,
		jose.Recipient{Algorithm: jose.ECDH_ES_A128KW, Key: encryptionKey}, nil)
	if err != nil {
		return "", fmt.Errorf("constructing encrypter: %w", err)
	}

	now := time.Now().UTC()
	claims := adminClaims{
		Claims: josejwt.Claims{
			Issuer:   adminIssuer,
			Audience: josejwt.Audience{adminAudience},
			Subject:  recordID.String(),
			IssuedAt: josejwt.NewNumericDate(now),
			Expiry:   josejwt.NewNumericDate(now.Add(adminTokenLifetime)),
		},
		Payload: admin,
	}

	token, err := josejwt.SignedAndEncrypted(signer, encrypter).Claims(claims).Serialize()
	if err != nil {
		return "", fmt.Errorf("sealing administrative metadata: %w", err)
	}
	return token, nil
}

// DecodeAdmin unseals token, verifying signature, issuer, audience, and
// that the subject claim equals recordID. Returns AdminIntegrityError for
// signature/issuer/audience failures, AdminSubjectMismatchError for a
// subject mismatch (spec.md sec 3, sec 7).
func DecodeAdmin(encryptionKey *ecdsa.PrivateKey, signingKey *ecdsa.PublicKey, recordID ID, token string) (Administration, error) {
	nested, err := josejwt.ParseSignedAndEncrypted(token,
		[]jose.KeyAlgorithm{jose.ECDH_ES_A128KW}, []jose.ContentEncryption{jose.A256GCM},
		[]jose.SignatureAlgorithm{jose.ES256})
	if err != nil {
		return Administration{}, &AdminIntegrityError{Reason: fmt.Sprintf("parsing token: %s", err)}
	}
	signed, err := nested.Decrypt(encryptionKey)
	if err != nil {
		return Administration{}, &AdminIntegrityError{Reason: fmt.Sprintf("decrypting token: %s", err)}
	}

	var claims adminClaims
	if err := signed.Claims(signingKey, &claims); err != nil {
		return Administration{}, &AdminIntegrityError{Reason: fmt.Sprintf("verifying signature: %s", err)}
	}

	if claims.Issuer != adminIssuer {
		return Administration{}, &AdminIntegrityError{Reason: fmt.Sprintf("unexpected issuer: %s", claims.Issuer)}
	}
	if len(claims.Audience) != 1 || claims.Audience[0] != adminAudience {
		return Administration{}, &AdminIntegrityError{Reason: fmt.Sprintf("unexpected audience: %v", claims.Audience)}
	}

	subject, err := ParseID(claims.Subject)
	if err != nil {
		return Administration{}, &AdminIntegrityError{Reason: fmt.Sprintf("malformed subject claim: %s", err)}
	}
	if !subject.Equal(recordID) {
		return Administration{}, &AdminSubjectMismatchError{RecordID: recordID, AdminID: subject}
	}

	claims.Payload.Subject = subject
	return claims.Payload, nil
}

// SetAdmin merges a sealed token into record's supplemental_information
// under the reserved administrative_metadata key, preserving any other
// freeform keys already present (spec.md sec 4.A, "set_admin").
func SetAdmin(rec *Record, token string) {
	if rec.Identification.SupplementalInformation == nil {
		rec.Identification.SupplementalInformation = map[string]any{}
	}
	rec.Identification.SupplementalInformation[AdminMetadataKey] = token
}

// AdminToken returns the raw sealed token stored in rec's supplemental
// information, if any.
func AdminToken(rec Record) (string, bool) {
	if rec.Identification.SupplementalInformation == nil {
		return "", false
	}
	tok, ok := rec.Identification.SupplementalInformation[AdminMetadataKey].(string)
	return tok, ok
}

// StripAdminMetadata removes the administrative_metadata key; if it was
// the only key present, supplemental_information reverts to nil (spec.md
// sec 4.A, "strip_admin_metadata").
func StripAdminMetadata(rec *Record) {
	if rec.Identification.SupplementalInformation == nil {
		return
	}
	delete(rec.Identification.SupplementalInformation, AdminMetadataKey)
	if len(rec.Identification.SupplementalInformation) == 0 {
		rec.Identification.SupplementalInformation = nil
	}
}
