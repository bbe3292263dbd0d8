package domain

import (
	"time"
)

type EntityStatus string

const (
	EntityStatusActive   EntityStatus = "ACTIVE"
	EntityStatusPaused   EntityStatus = "PAUSED"
	EntityStatusDeleted  EntityStatus = "DELETED"
	EntityStatusArchived EntityStatus = "ARCHIVED"
)

// Metrics agrega os números de desempenho de um nível da hierarquia na janela
// sincronizada mais recente.
type Metrics struct {
	Spend             float64 `json:"spend"`
	Impressions       int     `json:"impressions"`
	Clicks            int     `json:"clicks"`
	Conversions       int     `json:"conversions"`
	CTR               float64 `json:"ctr"`
	CostPerConversion float64 `json:"cost_per_conversion"`
}

type Campaign struct {
	ID         string       `json:"id"`
	AccountID  string       `json:"account_id"`
	ExternalID string       `json:"external_id"`
	Name       string       `json:"name"`
	Status     EntityStatus `json:"status"`
	Objective  string       `json:"objective"`
	Metrics    Metrics      `json:"metrics"`
	SyncedAt   time.Time    `json:"synced_at"`
}

type AdGroup struct {
	ID         string       `json:"id"`
	CampaignID string       `json:"campaign_id"`
	ExternalID string       `json:"external_id"`
	Name       string       `json:"name"`
	Status     EntityStatus `json:"status"`
	Metrics    Metrics      `json:"metrics"`
	SyncedAt   time.Time    `json:"synced_at"`
}

type Ad struct {
	ID           string       `json:"id"`
	AdGroupID    string       `json:"ad_group_id"`
	ExternalID   string       `json:"external_id"`
	Name         string       `json:"name"`
	Status       EntityStatus `json:"status"`
	CreativeID   *string      `json:"creative_id"`
	CreativeBody *string      `json:"creative_body"`
	Metrics      Metrics      `json:"metrics"`
	SyncedAt     time.Time    `json:"synced_at"`
}
