package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShareableLinkRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		payload LinkPayload
	}{
		{
			name: "plain",
			payload: LinkPayload{
				ID:        "pay_123",
				Amount:    "10.50",
				Recipient: "0xE4d365a5a8fC0DCEE9E3C5985D7FcBab8B4A0fE1",
				Memo:      "invoice",
			},
		},
		{
			name: "memo with spaces and symbols",
			payload: LinkPayload{
				ID:        "pay_456",
				Amount:    "0.000001",
				Recipient: "0xE4d365a5a8fC0DCEE9E3C5985D7FcBab8B4A0fE1",
				Memo:      "coffee & cake #42 (50% off)",
			},
		},
		{
			name: "unicode memo",
			payload: LinkPayload{
				ID:        "pay_789",
				Amount:    "1000000",
				Recipient: "0xE4d365a5a8fC0DCEE9E3C5985D7FcBab8B4A0fE1",
				Memo:      "支払い リクエスト ✓",
			},
		},
		{
			name: "empty memo",
			payload: LinkPayload{
				ID:        "pay_abc",
				Amount:    "5",
				Recipient: "0xE4d365a5a8fC0DCEE9E3C5985D7FcBab8B4A0fE1",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link := EncodeShareableLink("https://pay.example.com", tt.payload)
			parsed, err := ParseShareableLink(link)
			require.NoError(t, err)
			assert.Equal(t, tt.payload, parsed)
		})
	}
}

func TestEncodeShareableLinkTrimsBaseSlash(t *testing.T) {
	p := LinkPayload{ID: "pay_1", Amount: "1", Recipient: "0xabc"}
	withSlash := EncodeShareableLink("https://pay.example.com/", p)
	without := EncodeShareableLink("https://pay.example.com", p)
	assert.Equal(t, without, withSlash)
	assert.Contains(t, withSlash, "https://pay.example.com/pay?")
}

func TestParseShareableLinkMissingID(t *testing.T) {
	_, err := ParseShareableLink("https://pay.example.com/pay?amount=10")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id")
}

func TestParseShareableLinkMalformed(t *testing.T) {
	_, err := ParseShareableLink("://not a url")
	require.Error(t, err)
}

func TestExplorerTxLink(t *testing.T) {
	link := ExplorerTxLink("https://flarescan.com", "0xabc")
	assert.Equal(t, "https://flarescan.com/tx/0xabc", link)

	link = ExplorerTxLink("https://flarescan.com/", "0xabc")
	assert.Equal(t, "https://flarescan.com/tx/0xabc", link)

	assert.Empty(t, ExplorerTxLink("", "0xabc"))
	assert.Empty(t, ExplorerTxLink("https://flarescan.com", ""))
}
