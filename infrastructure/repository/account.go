package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	_ "github.com/lib/pq"
	"github.com/vfg2006/campaign-manager-api/infrastructure/database/postgres"
	"github.com/vfg2006/campaign-manager-api/internal/domain"
)

const accountsTable = "accounts a"

type AccountRepository interface {
	GetAccountByID(accountID string) (*domain.Account, error)
	GetAccountByExternalID(accountExternalID string) (*domain.Account, error)
	ListAccounts(availableStatus []domain.AccountStatus) ([]*domain.Account, error)
	UpdateAccount(account *domain.UpdateAccountRequest) error
	UpdateCredential(accountID, credentialBlob string, expiresAt *time.Time) error
	UpdateCredentialCheckedAt(accountID string, checkedAt time.Time) error
	UpdateStatus(accountID string, status domain.AccountStatus) error
	UpdateSyncState(accountID string, status domain.SyncStatus, syncError *string, lastSyncedAt *time.Time) error
}

type accountRepository struct {
	conn *postgres.Connection
}

func NewAccountRepository(conn *postgres.Connection) AccountRepository {
	return &accountRepository{
		conn: conn,
	}
}

const accountColumns = "a.id, a.external_id, a.name, a.nickname, a.status, " +
	"a.credential_blob, a.credential_expires_at, a.credential_checked_at, " +
	"a.sync_status, a.sync_error, a.last_synced_at, a.created_at, a.updated_at"

func (a *accountRepository) GetAccountByExternalID(accountExternalID string) (*domain.Account, error) {
	return a.getAccount(squirrel.Eq{"a.external_id": accountExternalID})
}

func (a *accountRepository) GetAccountByID(accountID string) (*domain.Account, error) {
	return a.getAccount(squirrel.Eq{"a.id": accountID})
}

func (a *accountRepository) getAccount(whereClause map[string]interface{}) (*domain.Account, error) {
	accountsSQL, accountsArgs, err := squirrel.
		Select(accountColumns).
		From(accountsTable).
		Where(whereClause).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	row := a.conn.QueryRow(accountsSQL, accountsArgs...)

	acc, err := a.deserializeAccount(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return acc, err
}

func (a *accountRepository) deserializeAccount(row *sql.Row) (*domain.Account, error) {
	acc := &domain.Account{}

	if err := row.Scan(
		&acc.ID,
		&acc.ExternalID,
		&acc.Name,
		&acc.Nickname,
		&acc.Status,
		&acc.CredentialBlob,
		&acc.CredentialExpiresAt,
		&acc.CredentialCheckedAt,
		&acc.SyncStatus,
		&acc.SyncError,
		&acc.LastSyncedAt,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return acc, nil
}

func (a *accountRepository) ListAccounts(availableStatus []domain.AccountStatus) ([]*domain.Account, error) {
	queryBuilder := squirrel.
		Select(accountColumns).
		From(accountsTable).
		OrderBy("a.nickname ASC").
		PlaceholderFormat(squirrel.Dollar)

	if len(availableStatus) > 0 {
		queryBuilder = queryBuilder.Where(squirrel.Eq{"a.status": availableStatus})
	}

	accountsSQL, accountsArgs, err := queryBuilder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := a.conn.Query(accountsSQL, accountsArgs...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}
	defer rows.Close()

	accounts := make([]*domain.Account, 0)

	for rows.Next() {
		acc := &domain.Account{}
		if err := rows.Scan(
			&acc.ID,
			&acc.ExternalID,
			&acc.Name,
			&acc.Nickname,
			&acc.Status,
			&acc.CredentialBlob,
			&acc.CredentialExpiresAt,
			&acc.CredentialCheckedAt,
			&acc.SyncStatus,
			&acc.SyncError,
			&acc.LastSyncedAt,
			&acc.CreatedAt,
			&acc.UpdatedAt,
		); err != nil {
			return nil, err
		}

		accounts = append(accounts, acc)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao iterar sobre os resultados: %w", err)
	}

	if len(accounts) == 0 {
		return nil, nil
	}

	return accounts, nil
}

func (a *accountRepository) UpdateAccount(account *domain.UpdateAccountRequest) error {
	if account.ID == "" {
		return errors.New("ID is required")
	}

	queryBuilder := squirrel.
		Update("accounts").
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": account.ID}).
		PlaceholderFormat(squirrel.Dollar)

	if account.Nickname != nil {
		queryBuilder = queryBuilder.Set("nickname", *account.Nickname)
	}

	if account.Status != nil {
		queryBuilder = queryBuilder.Set("status", *account.Status)
	}

	return a.execUpdate(queryBuilder)
}

// UpdateCredential grava o blob cifrado do token. expiresAt nulo significa
// token sem expiração conhecida.
func (a *accountRepository) UpdateCredential(accountID, credentialBlob string, expiresAt *time.Time) error {
	queryBuilder := squirrel.
		Update("accounts").
		Set("credential_blob", credentialBlob).
		Set("credential_expires_at", expiresAt).
		Set("credential_checked_at", squirrel.Expr("NOW()")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": accountID}).
		PlaceholderFormat(squirrel.Dollar)

	return a.execUpdate(queryBuilder)
}

// UpdateCredentialCheckedAt marca a última validação bem-sucedida do token
// junto à plataforma.
func (a *accountRepository) UpdateCredentialCheckedAt(accountID string, checkedAt time.Time) error {
	queryBuilder := squirrel.
		Update("accounts").
		Set("credential_checked_at", checkedAt).
		Where(squirrel.Eq{"id": accountID}).
		PlaceholderFormat(squirrel.Dollar)

	return a.execUpdate(queryBuilder)
}

func (a *accountRepository) UpdateStatus(accountID string, status domain.AccountStatus) error {
	queryBuilder := squirrel.
		Update("accounts").
		Set("status", status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": accountID}).
		PlaceholderFormat(squirrel.Dollar)

	return a.execUpdate(queryBuilder)
}

// UpdateSyncState registra a transição de estado da sincronização. lastSyncedAt
// só é tocado quando informado, preservando o carimbo da última conclusão.
func (a *accountRepository) UpdateSyncState(accountID string, status domain.SyncStatus, syncError *string, lastSyncedAt *time.Time) error {
	queryBuilder := squirrel.
		Update("accounts").
		Set("sync_status", status).
		Set("sync_error", syncError).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": accountID}).
		PlaceholderFormat(squirrel.Dollar)

	if lastSyncedAt != nil {
		queryBuilder = queryBuilder.Set("last_synced_at", *lastSyncedAt)
	}

	return a.execUpdate(queryBuilder)
}

func (a *accountRepository) execUpdate(queryBuilder squirrel.UpdateBuilder) error {
	sqlQuery, args, err := queryBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	result, err := a.conn.Exec(sqlQuery, args...)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return fmt.Errorf("database error: %w (code: %s)", pqErr, pqErr.Code)
		}
		return fmt.Errorf("failed to execute query: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return errors.New("account not found")
	}

	return nil
}
