package webhook

import (
	"encoding/json"
	"errors"
)

// Erros de validação do envelope
var (
	ErrInvalidPayload = errors.New("payload de webhook inválido")
	ErrEmptyEntry     = errors.New("envelope sem entradas")
)

// Change é uma mudança individual notificada pela plataforma.
type Change struct {
	Field string          `json:"field"`
	Value json.RawMessage `json:"value"`
}

// Entry agrupa as mudanças de um objeto (conta de anúncios) em um instante.
type Entry struct {
	ID      string   `json:"id"`
	Time    int64    `json:"time"`
	Changes []Change `json:"changes"`
}

// Envelope é o corpo padrão de notificação da plataforma.
type Envelope struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// ParseEnvelope decodifica e valida o envelope inteiro antes de qualquer
// mudança chegar à fila: objeto presente, cada entrada com id, instante e
// mudanças, e cada mudança com campo e valor definidos.
func ParseEnvelope(body []byte) (*Envelope, error) {
	var envelope Envelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, ErrInvalidPayload
	}

	if envelope.Object == "" {
		return nil, ErrInvalidPayload
	}

	if len(envelope.Entry) == 0 {
		return nil, ErrEmptyEntry
	}

	for _, entry := range envelope.Entry {
		if entry.ID == "" || entry.Time == 0 || len(entry.Changes) == 0 {
			return nil, ErrInvalidPayload
		}

		for _, change := range entry.Changes {
			if change.Field == "" || len(change.Value) == 0 || string(change.Value) == "null" {
				return nil, ErrInvalidPayload
			}
		}
	}

	return &envelope, nil
}
