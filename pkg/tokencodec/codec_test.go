package tokencodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec_RoundTrip(t *testing.T) {
	codec, err := New("chave-de-teste", false)
	require.NoError(t, err)

	blob, err := codec.Encode("EAATOKEN1234567890")
	require.NoError(t, err)
	assert.NotEqual(t, "EAATOKEN1234567890", blob)

	token, legacy, err := codec.Decode(blob)
	require.NoError(t, err)
	assert.False(t, legacy)
	assert.Equal(t, "EAATOKEN1234567890", token)
}

func TestCodec_EncodeProducesDistinctBlobs(t *testing.T) {
	codec, err := New("chave-de-teste", false)
	require.NoError(t, err)

	a, err := codec.Encode("mesmo-token")
	require.NoError(t, err)
	b, err := codec.Encode("mesmo-token")
	require.NoError(t, err)

	// Nonce aleatório: o mesmo token nunca produz o mesmo blob
	assert.NotEqual(t, a, b)
}

func TestCodec_DecodeRejectsTampered(t *testing.T) {
	codec, err := New("chave-de-teste", false)
	require.NoError(t, err)

	blob, err := codec.Encode("token-sensivel")
	require.NoError(t, err)

	tampered := blob[:len(blob)-4] + "AAAA"
	_, _, err = codec.Decode(tampered)
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestCodec_DecodeWithWrongKeyFails(t *testing.T) {
	codecA, err := New("chave-a", false)
	require.NoError(t, err)
	codecB, err := New("chave-b", false)
	require.NoError(t, err)

	blob, err := codecA.Encode("token")
	require.NoError(t, err)

	_, _, err = codecB.Decode(blob)
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestCodec_LegacyPlaintextFallback(t *testing.T) {
	tests := []struct {
		name        string
		allowLegacy bool
		blob        string
		wantToken   string
		wantLegacy  bool
		wantErr     bool
	}{
		{
			name:        "fallback habilitado aceita texto puro pré-migração",
			allowLegacy: true,
			blob:        "EAAtoken-legado-sem-cifra",
			wantToken:   "EAAtoken-legado-sem-cifra",
			wantLegacy:  true,
		},
		{
			name:        "fallback desabilitado rejeita texto puro",
			allowLegacy: false,
			blob:        "EAAtoken-legado-sem-cifra",
			wantErr:     true,
		},
		{
			name:        "blob vazio sempre falha",
			allowLegacy: true,
			blob:        "",
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec, err := New("chave-de-teste", tt.allowLegacy)
			require.NoError(t, err)

			token, legacy, err := codec.Decode(tt.blob)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantToken, token)
			assert.Equal(t, tt.wantLegacy, legacy)
		})
	}
}

func TestCodec_LegacyFallbackNeverAppliesToEncryptedBlob(t *testing.T) {
	codec, err := New("chave-de-teste", true)
	require.NoError(t, err)

	blob, err := codec.Encode("token-cifrado")
	require.NoError(t, err)

	token, legacy, err := codec.Decode(blob)
	require.NoError(t, err)
	assert.False(t, legacy)
	assert.Equal(t, "token-cifrado", token)
}

func TestNew_RequiresSecret(t *testing.T) {
	_, err := New("", false)
	assert.Error(t, err)
}
