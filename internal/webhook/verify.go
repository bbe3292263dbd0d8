package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const signaturePrefix = "sha256="

// VerifySignature confere a assinatura X-Hub-Signature-256 do corpo cru do
// webhook. Qualquer entrada malformada resulta em falso, nunca em pânico.
func VerifySignature(appSecret string, payload []byte, header string) bool {
	if appSecret == "" || header == "" {
		return false
	}

	if !strings.HasPrefix(header, signaturePrefix) {
		return false
	}

	provided, err := hex.DecodeString(strings.TrimPrefix(header, signaturePrefix))
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(payload)
	expected := mac.Sum(nil)

	// Comparação em tempo constante
	return hmac.Equal(provided, expected)
}
