package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventCodec(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		event := testEvent()

		message, err := encodeEvent(event)
		require.NoError(t, err)
		require.Contains(t, message, "data")
		assert.NotEmpty(t, message["data"])

		decoded, err := decodeEvent(message)
		require.NoError(t, err)
		assert.Equal(t, event.DealID, decoded.DealID)
		assert.Equal(t, event.SellerCode, decoded.SellerCode)
		assert.Equal(t, event.TaxType, decoded.TaxType)
		assert.Equal(t, event.Display, decoded.Display)
		assert.InDelta(t, event.Normalized, decoded.Normalized, 1e-9)
		assert.True(t, event.CreatedAt.UTC().Equal(decoded.CreatedAt.UTC()))
	})

	t.Run("missing data field", func(t *testing.T) {
		_, err := decodeEvent(map[string]any{"other": "x"})
		assert.ErrorContains(t, err, "data field")
	})

	t.Run("invalid base64", func(t *testing.T) {
		_, err := decodeEvent(map[string]any{"data": "!!not-base64!!"})
		assert.ErrorContains(t, err, "base64")
	})

	t.Run("invalid msgpack payload", func(t *testing.T) {
		_, err := decodeEvent(map[string]any{"data": "aGVsbG8="})
		assert.Error(t, err)
	})
}
