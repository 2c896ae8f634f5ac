package signature

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	reportID, signerID := uuid.New(), uuid.New()
	data := map[string]interface{}{"emissions": map[string]string{"total": "15.0000"}}

	t.Run("binds content and payload hashes", func(t *testing.T) {
		sig, err := New(reportID, signerID, data, TypeElectronic)
		require.NoError(t, err)

		contentHash, err := HashContent(data)
		require.NoError(t, err)
		assert.Equal(t, contentHash, sig.ContentHash)

		payloadHash, err := HashPayload(sig.Payload())
		require.NoError(t, err)
		assert.Equal(t, payloadHash, sig.SignatureHash)

		assert.Len(t, sig.Nonce, 32)
		assert.False(t, sig.IsRevoked)
	})

	t.Run("nonce makes repeat signatures distinct", func(t *testing.T) {
		first, err := New(reportID, signerID, data, TypeElectronic)
		require.NoError(t, err)
		second, err := New(reportID, signerID, data, TypeElectronic)
		require.NoError(t, err)

		assert.Equal(t, first.ContentHash, second.ContentHash)
		assert.NotEqual(t, first.SignatureHash, second.SignatureHash)
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		_, err := New(reportID, signerID, data, "wet_ink")
		assert.Error(t, err)
	})
}

func TestHashContentDetectsChanges(t *testing.T) {
	base := map[string]interface{}{"total": "15.0000", "scope1": "10.0000"}
	baseHash, err := HashContent(base)
	require.NoError(t, err)

	reordered, err := HashContent(map[string]interface{}{"scope1": "10.0000", "total": "15.0000"})
	require.NoError(t, err)
	assert.Equal(t, baseHash, reordered)

	changed, err := HashContent(map[string]interface{}{"total": "15.0001", "scope1": "10.0000"})
	require.NoError(t, err)
	assert.NotEqual(t, baseHash, changed)
}

func TestRevoke(t *testing.T) {
	sig, err := New(uuid.New(), uuid.New(), map[string]string{"a": "b"}, TypeDigital)
	require.NoError(t, err)

	revoker := uuid.New()
	sig.Revoke(revoker, "period was wrong")

	assert.True(t, sig.IsRevoked)
	require.NotNil(t, sig.RevokedAt)
	assert.Equal(t, &revoker, sig.RevokedBy)
	assert.Equal(t, "period was wrong", sig.RevokedReason)
}
