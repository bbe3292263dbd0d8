package domain

import (
	"time"
)

type AccountStatus string

const (
	AccountStatusActive   AccountStatus = "ACTIVE"
	AccountStatusPaused   AccountStatus = "PAUSED"
	AccountStatusInactive AccountStatus = "INACTIVE"
)

type SyncStatus string

const (
	SyncStatusIdle    SyncStatus = "IDLE"
	SyncStatusSyncing SyncStatus = "SYNCING"
	SyncStatusError   SyncStatus = "ERROR"
)

// Account é uma conta de anúncios conectada à plataforma externa. O token de
// acesso fica cifrado em CredentialBlob e nunca sai em respostas da API.
type Account struct {
	ID         string        `json:"id"`
	ExternalID string        `json:"external_id"`
	Name       string        `json:"name"`
	Nickname   *string       `json:"nickname"`
	Status     AccountStatus `json:"status"`

	CredentialBlob      *string    `json:"-"`
	CredentialExpiresAt *time.Time `json:"-"`
	CredentialCheckedAt *time.Time `json:"-"`

	SyncStatus   SyncStatus `json:"sync_status"`
	SyncError    *string    `json:"sync_error,omitempty"`
	LastSyncedAt *time.Time `json:"last_synced_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Connected indica se a conta tem credencial armazenada.
func (a *Account) Connected() bool {
	return a.CredentialBlob != nil && *a.CredentialBlob != ""
}

type AccountResponse struct {
	ID           string        `json:"id"`
	ExternalID   string        `json:"external_id"`
	Name         string        `json:"name"`
	Nickname     *string       `json:"nickname"`
	Status       AccountStatus `json:"status"`
	HasToken     bool          `json:"hasToken"`
	SyncStatus   SyncStatus    `json:"sync_status"`
	LastSyncedAt *time.Time    `json:"last_synced_at"`
}

func (a *Account) ToResponse() *AccountResponse {
	return &AccountResponse{
		ID:           a.ID,
		ExternalID:   a.ExternalID,
		Name:         a.Name,
		Nickname:     a.Nickname,
		Status:       a.Status,
		HasToken:     a.Connected(),
		SyncStatus:   a.SyncStatus,
		LastSyncedAt: a.LastSyncedAt,
	}
}

type UpdateAccountRequest struct {
	ID       string  `json:"id"`
	Nickname *string `json:"nickname,omitempty"`
	Token    *string `json:"token,omitempty"`
	Status   *string `json:"status,omitempty"`
}

type SyncAccountResponse struct {
	AccountID string `json:"account_id"`
	Status    string `json:"status"`
	Message   string `json:"message"`
	Error     bool   `json:"error"`
}
