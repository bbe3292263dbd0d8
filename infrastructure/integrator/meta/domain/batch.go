package metadomain

// MaxBatchSize é o teto imposto pelo protocolo da Graph API para um lote
// físico de requisições.
const MaxBatchSize = 50

// BatchRequest é uma requisição lógica dentro de um lote físico.
type BatchRequest struct {
	Method      string `json:"method"`
	RelativeURL string `json:"relative_url"`
	Body        string `json:"body,omitempty"`
}

// BatchResponse é a resposta posicional de uma requisição lógica. Um elemento
// nulo no array físico indica que a requisição não foi atendida.
type BatchResponse struct {
	Code int    `json:"code"`
	Body string `json:"body"`
}

// Succeeded informa se a resposta individual foi bem-sucedida (2xx).
func (r *BatchResponse) Succeeded() bool {
	return r.Code >= 200 && r.Code < 300
}
