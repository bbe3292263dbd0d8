package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func signPayload(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"object":"ad_account","entry":[]}`)
	secret := "segredo-do-app"

	tests := []struct {
		name     string
		secret   string
		payload  []byte
		header   string
		expected bool
	}{
		{
			name:     "Assinatura válida é aceita",
			secret:   secret,
			payload:  payload,
			header:   signPayload(secret, payload),
			expected: true,
		},
		{
			name:     "Corpo adulterado é rejeitado",
			secret:   secret,
			payload:  []byte(`{"object":"ad_account","entry":[{}]}`),
			header:   signPayload(secret, payload),
			expected: false,
		},
		{
			name:     "Segredo errado é rejeitado",
			secret:   "outro-segredo",
			payload:  payload,
			header:   signPayload(secret, payload),
			expected: false,
		},
		{
			name:     "Cabeçalho sem prefixo é rejeitado",
			secret:   secret,
			payload:  payload,
			header:   "md5=abcdef",
			expected: false,
		},
		{
			name:     "Hex malformado é rejeitado sem pânico",
			secret:   secret,
			payload:  payload,
			header:   "sha256=nao-e-hex",
			expected: false,
		},
		{
			name:     "Cabeçalho vazio é rejeitado",
			secret:   secret,
			payload:  payload,
			header:   "",
			expected: false,
		},
		{
			name:     "Segredo vazio é rejeitado",
			secret:   "",
			payload:  payload,
			header:   signPayload(secret, payload),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, VerifySignature(tt.secret, tt.payload, tt.header))
		})
	}
}

func TestParseEnvelope(t *testing.T) {
	t.Run("Envelope válido", func(t *testing.T) {
		body := []byte(`{
			"object": "ad_account",
			"entry": [
				{"id": "act_123", "time": 1717977600, "changes": [{"field": "campaigns", "value": {"campaign_id": "c1"}}]}
			]
		}`)

		envelope, err := ParseEnvelope(body)
		assert.NoError(t, err)
		assert.Equal(t, "ad_account", envelope.Object)
		assert.Len(t, envelope.Entry, 1)
		assert.Equal(t, "campaigns", envelope.Entry[0].Changes[0].Field)
	})

	t.Run("JSON malformado", func(t *testing.T) {
		_, err := ParseEnvelope([]byte(`{nao-e-json`))
		assert.ErrorIs(t, err, ErrInvalidPayload)
	})

	t.Run("Objeto ausente", func(t *testing.T) {
		_, err := ParseEnvelope([]byte(`{"entry":[{"id":"1"}]}`))
		assert.ErrorIs(t, err, ErrInvalidPayload)
	})

	t.Run("Envelope sem entradas", func(t *testing.T) {
		_, err := ParseEnvelope([]byte(`{"object":"ad_account","entry":[]}`))
		assert.ErrorIs(t, err, ErrEmptyEntry)
	})

	t.Run("Entrada malformada é rejeitada", func(t *testing.T) {
		tests := []struct {
			name string
			body string
		}{
			{
				name: "Entrada sem id",
				body: `{"object":"ad_account","entry":[{"time":1717977600,"changes":[{"field":"campaigns","value":{}}]}]}`,
			},
			{
				name: "Entrada sem instante",
				body: `{"object":"ad_account","entry":[{"id":"act_123","changes":[{"field":"campaigns","value":{}}]}]}`,
			},
			{
				name: "Entrada sem mudanças",
				body: `{"object":"ad_account","entry":[{"id":"act_123","time":1717977600,"changes":[]}]}`,
			},
			{
				name: "Mudança sem campo",
				body: `{"object":"ad_account","entry":[{"id":"act_123","time":1717977600,"changes":[{"value":{}}]}]}`,
			},
			{
				name: "Mudança sem valor",
				body: `{"object":"ad_account","entry":[{"id":"act_123","time":1717977600,"changes":[{"field":"campaigns"}]}]}`,
			},
			{
				name: "Mudança com valor nulo",
				body: `{"object":"ad_account","entry":[{"id":"act_123","time":1717977600,"changes":[{"field":"campaigns","value":null}]}]}`,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := ParseEnvelope([]byte(tt.body))
				assert.ErrorIs(t, err, ErrInvalidPayload)
			})
		}
	})
}
