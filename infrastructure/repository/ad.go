package repository

import (
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	_ "github.com/lib/pq"
	"github.com/vfg2006/campaign-manager-api/infrastructure/database/postgres"
	"github.com/vfg2006/campaign-manager-api/internal/domain"
	"github.com/vfg2006/campaign-manager-api/pkg/utils"
)

const adsTable = "ads"

type AdRepository interface {
	ListByAdGroupID(adGroupID string) ([]*domain.Ad, error)
	SaveOrUpdate(ads []*domain.Ad) (map[string]string, error)
	MarkAbsentAsDeleted(adGroupID string, presentExternalIDs []string) (int64, error)
}

type adRepository struct {
	conn *postgres.Connection
}

func NewAdRepository(conn *postgres.Connection) AdRepository {
	return &adRepository{
		conn: conn,
	}
}

const adColumns = "id, ad_group_id, external_id, name, status, creative_id, creative_body, " +
	"spend, impressions, clicks, conversions, ctr, cost_per_conversion, synced_at"

func (r *adRepository) ListByAdGroupID(adGroupID string) ([]*domain.Ad, error) {
	adsSQL, adsArgs, err := squirrel.
		Select(adColumns).
		From(adsTable).
		Where(squirrel.Eq{"ad_group_id": adGroupID}).
		Where(squirrel.NotEq{"status": domain.EntityStatusDeleted}).
		OrderBy("name ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.conn.Query(adsSQL, adsArgs...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	defer rows.Close()

	ads := make([]*domain.Ad, 0)

	for rows.Next() {
		ad := &domain.Ad{}
		if err := rows.Scan(
			&ad.ID,
			&ad.AdGroupID,
			&ad.ExternalID,
			&ad.Name,
			&ad.Status,
			&ad.CreativeID,
			&ad.CreativeBody,
			&ad.Metrics.Spend,
			&ad.Metrics.Impressions,
			&ad.Metrics.Clicks,
			&ad.Metrics.Conversions,
			&ad.Metrics.CTR,
			&ad.Metrics.CostPerConversion,
			&ad.SyncedAt,
		); err != nil {
			return nil, err
		}

		ads = append(ads, ad)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao iterar sobre os resultados: %w", err)
	}

	return ads, nil
}

func (r *adRepository) SaveOrUpdate(ads []*domain.Ad) (map[string]string, error) {
	idsByExternalID := make(map[string]string, len(ads))
	if len(ads) == 0 {
		return idsByExternalID, nil
	}

	query := squirrel.StatementBuilder.
		Insert(adsTable).
		Columns(
			"id", "ad_group_id", "external_id", "name", "status", "creative_id", "creative_body",
			"spend", "impressions", "clicks", "conversions", "ctr", "cost_per_conversion",
			"synced_at",
		).
		PlaceholderFormat(squirrel.Dollar)

	for _, ad := range ads {
		if ad.ID == "" {
			id, err := utils.GenerateID()
			if err != nil {
				return nil, fmt.Errorf("erro ao gerar id interno: %w", err)
			}
			ad.ID = id
		}

		query = query.Values(
			ad.ID,
			ad.AdGroupID,
			ad.ExternalID,
			ad.Name,
			ad.Status,
			ad.CreativeID,
			ad.CreativeBody,
			ad.Metrics.Spend,
			ad.Metrics.Impressions,
			ad.Metrics.Clicks,
			ad.Metrics.Conversions,
			ad.Metrics.CTR,
			ad.Metrics.CostPerConversion,
			ad.SyncedAt,
		)
	}

	query = query.Suffix(`
		ON CONFLICT (ad_group_id, external_id) DO UPDATE SET
			name = EXCLUDED.name,
			status = EXCLUDED.status,
			creative_id = EXCLUDED.creative_id,
			creative_body = EXCLUDED.creative_body,
			spend = EXCLUDED.spend,
			impressions = EXCLUDED.impressions,
			clicks = EXCLUDED.clicks,
			conversions = EXCLUDED.conversions,
			ctr = EXCLUDED.ctr,
			cost_per_conversion = EXCLUDED.cost_per_conversion,
			synced_at = EXCLUDED.synced_at
		RETURNING id, external_id
	`)

	sqlQuery, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(sqlQuery, args...)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return nil, fmt.Errorf("database error: %w (code: %s)", pqErr, pqErr.Code)
		}
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, externalID string
		if err := rows.Scan(&id, &externalID); err != nil {
			return nil, err
		}
		idsByExternalID[externalID] = id
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao iterar sobre os resultados: %w", err)
	}

	return idsByExternalID, nil
}

func (r *adRepository) MarkAbsentAsDeleted(adGroupID string, presentExternalIDs []string) (int64, error) {
	queryBuilder := squirrel.
		Update(adsTable).
		Set("status", domain.EntityStatusDeleted).
		Where(squirrel.Eq{"ad_group_id": adGroupID}).
		Where(squirrel.NotEq{"status": domain.EntityStatusDeleted}).
		PlaceholderFormat(squirrel.Dollar)

	if len(presentExternalIDs) > 0 {
		queryBuilder = queryBuilder.Where(squirrel.NotEq{"external_id": presentExternalIDs})
	}

	sqlQuery, args, err := queryBuilder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build query: %w", err)
	}

	result, err := r.conn.Exec(sqlQuery, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to execute query: %w", err)
	}

	return result.RowsAffected()
}
