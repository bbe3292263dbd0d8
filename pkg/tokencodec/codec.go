// Package tokencodec encapsula a criptografia de tokens de acesso em repouso.
// Os tokens são cifrados com XChaCha20-Poly1305 e armazenados como
// base64(nonce || ciphertext).
package tokencodec

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"

	"golang.org/x/crypto/chacha20poly1305"
)

var (
	// ErrInvalidCiphertext indica que o blob armazenado não pôde ser decifrado
	ErrInvalidCiphertext = errors.New("tokencodec: ciphertext inválido")

	// ErrEmptyToken indica tentativa de cifrar um token vazio
	ErrEmptyToken = errors.New("tokencodec: token vazio")
)

// Codec cifra e decifra tokens de credenciais. É uma função pura sobre o
// material recebido: não faz I/O nem guarda estado mutável.
type Codec struct {
	aead cipher.AEAD

	// allowLegacyPlaintext habilita o fallback de leitura para tokens
	// gravados antes da migração para blobs cifrados. Nunca afeta a escrita.
	allowLegacyPlaintext bool
}

// New cria um Codec a partir de uma chave secreta arbitrária. A chave é
// derivada via SHA-256 para o tamanho exigido pelo XChaCha20-Poly1305.
func New(secret string, allowLegacyPlaintext bool) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("tokencodec: chave secreta não configurada")
	}

	key := sha256.Sum256([]byte(secret))

	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, err
	}

	return &Codec{aead: aead, allowLegacyPlaintext: allowLegacyPlaintext}, nil
}

// Encode cifra o token e retorna o blob em base64. Toda escrita nova é
// cifrada — o fallback legado existe apenas no caminho de leitura.
func (c *Codec) Encode(token string) (string, error) {
	if token == "" {
		return "", ErrEmptyToken
	}

	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	out := make([]byte, 0, len(nonce)+len(token)+16)
	out = append(out, nonce...)
	out = append(out, c.aead.Seal(nil, nonce, []byte(token), nil)...)

	return base64.StdEncoding.EncodeToString(out), nil
}

// Decode decifra um blob gravado por Encode. Para compatibilidade com dados
// pré-migração, um valor que não decifra pode ser aceito como texto puro
// quando o fallback legado está habilitado; nesse caso legacy=true para que
// o chamador regrave o valor cifrado.
func (c *Codec) Decode(blob string) (token string, legacy bool, err error) {
	if blob == "" {
		return "", false, ErrInvalidCiphertext
	}

	raw, decErr := base64.StdEncoding.DecodeString(blob)
	if decErr == nil && len(raw) > chacha20poly1305.NonceSizeX {
		nonce := raw[:chacha20poly1305.NonceSizeX]
		ct := raw[chacha20poly1305.NonceSizeX:]

		plain, openErr := c.aead.Open(nil, nonce, ct, nil)
		if openErr == nil {
			return string(plain), false, nil
		}
	}

	if c.allowLegacyPlaintext {
		return blob, true, nil
	}

	return "", false, ErrInvalidCiphertext
}
