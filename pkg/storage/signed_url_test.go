package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerGenerateAndParse(t *testing.T) {
	signer := NewSignedURLSigner(KindReport, "secret", time.Hour)
	token, expiresAt, err := signer.Generate("report-1", "reports/compliance.csv")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.False(t, expiresAt.IsZero())

	resourceID, path, parsedExpiry, err := signer.Parse(token, false)
	require.NoError(t, err)
	require.Equal(t, "report-1", resourceID)
	require.Equal(t, "reports/compliance.csv", path)
	require.WithinDuration(t, expiresAt, parsedExpiry, time.Second)
}

func TestSignedURLSignerExpired(t *testing.T) {
	signer := NewSignedURLSigner(KindReport, "secret", time.Millisecond*10)
	token, _, err := signer.Generate("report-1", "reports/compliance.csv")
	require.NoError(t, err)
	time.Sleep(time.Millisecond * 20)

	_, _, _, err = signer.Parse(token, false)
	require.Error(t, err)

	resourceID, path, _, err := signer.Parse(token, true)
	require.NoError(t, err)
	require.Equal(t, "report-1", resourceID)
	require.Equal(t, "reports/compliance.csv", path)
}

func TestSignedURLSignerRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner(KindReport, "secret", time.Hour)
	token, _, err := signer.Generate("report-1", "reports/compliance.csv")
	require.NoError(t, err)

	_, _, _, err = signer.Parse(token+"x", false)
	require.Error(t, err)

	other := NewSignedURLSigner(KindReport, "other-secret", time.Hour)
	_, _, _, err = other.Parse(token, false)
	require.Error(t, err)
}

func TestSignedURLSignerScopedToKind(t *testing.T) {
	reports := NewSignedURLSigner(KindReport, "secret", time.Hour)
	images := NewSignedURLSigner(KindDiscussionImage, "secret", time.Hour)

	token, _, err := reports.Generate("report-1", "reports/compliance.csv")
	require.NoError(t, err)

	// Same secret, different resource kind.
	_, _, _, err = images.Parse(token, false)
	require.Error(t, err)

	// Rewriting the kind segment breaks the signature.
	forged := strings.Replace(token, string(KindReport), string(KindDiscussionImage), 1)
	_, _, _, err = images.Parse(forged, false)
	require.Error(t, err)
}
