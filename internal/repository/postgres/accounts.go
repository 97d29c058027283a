package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SOS-Tag/sos-tag-api/internal/core/domain"
	"github.com/SOS-Tag/sos-tag-api/internal/core/port"
	"github.com/SOS-Tag/sos-tag-api/internal/repository"
)

const uniqueViolation = "23505"

var accountColumns = []string{
	"id",
	"fname",
	"lname",
	"email",
	"phone",
	"street",
	"city",
	"zip_code",
	"country",
	"password_hash",
	"roles",
	"token_version",
	"confirmed",
	"activated",
	"created_at",
	"updated_at",
}

// Sortable column whitelist for List. Requests naming anything else fall back
// to created_at.
var sortColumns = map[string]string{
	"fname":     "fname",
	"lname":     "lname",
	"email":     "email",
	"createdAt": "created_at",
}

type pgExecutor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AccountRepository implements port.AccountRepository using PostgreSQL.
type AccountRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewAccountRepository wires a PostgreSQL-backed account repository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// NewAccountRepositoryWithExecutor is used by tests to substitute the pool.
func NewAccountRepositoryWithExecutor(exec pgExecutor) *AccountRepository {
	return &AccountRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new account row. Email is stored lowercase; a losing
// concurrent insert with the same email surfaces as ErrDuplicateEmail via the
// unique index.
func (r *AccountRepository) Create(ctx context.Context, account domain.Account) error {
	street, city, zipCode, country := addressValues(account.Address)

	query := r.builder.Insert("accounts").
		Columns(accountColumns...).
		Values(
			account.ID,
			account.Fname,
			account.Lname,
			strings.ToLower(account.Email),
			account.Phone,
			street,
			city,
			zipCode,
			country,
			account.PasswordHash,
			account.Roles,
			account.TokenVersion,
			account.Confirmed,
			account.Activated,
			account.CreatedAt,
			account.UpdatedAt,
		)

	stmt, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build insert account sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrDuplicateEmail
		}
		return fmt.Errorf("insert account: %w", err)
	}

	return nil
}

// GetByID retrieves an account by identifier.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.getWhere(ctx, squirrel.Eq{"id": id})
}

// GetByEmail retrieves an account by email, case-insensitively.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.getWhere(ctx, squirrel.Eq{"email": strings.ToLower(strings.TrimSpace(email))})
}

// SetConfirmed flips the confirmed flag to true.
func (r *AccountRepository) SetConfirmed(ctx context.Context, id string) error {
	return r.update(ctx, id, map[string]any{"confirmed": true})
}

// UpdatePassword stores a new password hash.
func (r *AccountRepository) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	return r.update(ctx, id, map[string]any{"password_hash": passwordHash})
}

// UpdateProfile applies a partial profile update and returns the fresh row.
func (r *AccountRepository) UpdateProfile(ctx context.Context, id string, update port.ProfileUpdate) (*domain.Account, error) {
	values := map[string]any{}
	setIfPresent(values, "fname", update.Fname)
	setIfPresent(values, "lname", update.Lname)
	setIfPresent(values, "phone", update.Phone)
	setIfPresent(values, "street", update.Street)
	setIfPresent(values, "city", update.City)
	setIfPresent(values, "zip_code", update.ZipCode)
	setIfPresent(values, "country", update.Country)

	if len(values) > 0 {
		if err := r.update(ctx, id, values); err != nil {
			return nil, err
		}
	}

	return r.GetByID(ctx, id)
}

// UpsertGoogle creates or updates the account matched by email with the
// verified Google profile, marking it confirmed. Runs as a single atomic
// statement so concurrent first logins cannot race into duplicates.
func (r *AccountRepository) UpsertGoogle(ctx context.Context, profile port.GoogleUpsert) (*domain.Account, error) {
	query := r.builder.Insert("accounts").
		Columns("id", "fname", "lname", "email", "phone", "password_hash", "roles", "token_version", "confirmed", "activated", "created_at", "updated_at").
		Values(
			profile.NewID,
			profile.Fname,
			profile.Lname,
			strings.ToLower(profile.Email),
			"",
			nil,
			[]string{domain.RoleUser},
			0,
			true,
			true,
			squirrel.Expr("NOW()"),
			squirrel.Expr("NOW()"),
		).
		Suffix(`ON CONFLICT (email) DO UPDATE
			SET fname = EXCLUDED.fname,
			    lname = EXCLUDED.lname,
			    confirmed = TRUE,
			    updated_at = NOW()
			RETURNING ` + strings.Join(accountColumns, ", "))

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build upsert account sql: %w", err)
	}

	account, err := scanAccount(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		return nil, fmt.Errorf("upsert account: %w", err)
	}

	return account, nil
}

// IncrementTokenVersion atomically bumps the token version and returns the
// new value, invalidating every previously issued refresh token.
func (r *AccountRepository) IncrementTokenVersion(ctx context.Context, id string) (int, error) {
	stmt, args, err := r.builder.Update("accounts").
		Set("token_version", squirrel.Expr("token_version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING token_version").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build bump token version sql: %w", err)
	}

	var version int
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, repository.ErrNotFound
		}
		return 0, fmt.Errorf("bump token version: %w", err)
	}

	return version, nil
}

// Delete removes the account row.
func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	stmt, args, err := r.builder.Delete("accounts").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete account sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// List returns a page of accounts plus the unpaginated total. Filter matches
// a case-insensitive substring over fname, lname and email.
func (r *AccountRepository) List(ctx context.Context, opts port.ListOptions) ([]domain.Account, int, error) {
	page := opts.Page
	if page < 1 {
		page = 1
	}
	limit := opts.Limit
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	var where squirrel.Sqlizer
	if filter := strings.TrimSpace(opts.Filter); filter != "" {
		pattern := "%" + filter + "%"
		where = squirrel.Or{
			squirrel.ILike{"fname": pattern},
			squirrel.ILike{"lname": pattern},
			squirrel.ILike{"email": pattern},
		}
	}

	countQuery := r.builder.Select("COUNT(*)").From("accounts")
	if where != nil {
		countQuery = countQuery.Where(where)
	}

	stmt, args, err := countQuery.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count accounts sql: %w", err)
	}

	var total int
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count accounts: %w", err)
	}

	sortColumn, ok := sortColumns[opts.SortBy]
	if !ok {
		sortColumn = "created_at"
	}
	direction := "ASC"
	if opts.Desc {
		direction = "DESC"
	}

	listQuery := r.builder.Select(accountColumns...).
		From("accounts").
		OrderBy(sortColumn + " " + direction).
		Limit(uint64(limit)).
		Offset(uint64((page - 1) * limit))
	if where != nil {
		listQuery = listQuery.Where(where)
	}

	stmt, args, err = listQuery.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list accounts sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]domain.Account, 0, limit)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan account row: %w", err)
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate account rows: %w", err)
	}

	return accounts, total, nil
}

func (r *AccountRepository) getWhere(ctx context.Context, where squirrel.Sqlizer) (*domain.Account, error) {
	stmt, args, err := r.builder.Select(accountColumns...).
		From("accounts").
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select account sql: %w", err)
	}

	account, err := scanAccount(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("select account: %w", err)
	}

	return account, nil
}

func (r *AccountRepository) update(ctx context.Context, id string, values map[string]any) error {
	query := r.builder.Update("accounts").
		SetMap(values).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id})

	stmt, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build update account sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account      domain.Account
		street       sql.NullString
		city         sql.NullString
		zipCode      sql.NullString
		country      sql.NullString
		passwordHash sql.NullString
	)

	if err := row.Scan(
		&account.ID,
		&account.Fname,
		&account.Lname,
		&account.Email,
		&account.Phone,
		&street,
		&city,
		&zipCode,
		&country,
		&passwordHash,
		&account.Roles,
		&account.TokenVersion,
		&account.Confirmed,
		&account.Activated,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if passwordHash.Valid {
		hash := passwordHash.String
		account.PasswordHash = &hash
	}

	if street.Valid || city.Valid || zipCode.Valid || country.Valid {
		account.Address = &domain.Address{
			Street:  street.String,
			City:    city.String,
			ZipCode: zipCode.String,
			Country: country.String,
		}
	}

	return &account, nil
}

func addressValues(address *domain.Address) (street, city, zipCode, country any) {
	if address == nil {
		return nil, nil, nil, nil
	}
	return address.Street, address.City, address.ZipCode, address.Country
}

func setIfPresent(values map[string]any, column string, value *string) {
	if value != nil {
		values[column] = *value
	}
}

var _ port.AccountRepository = (*AccountRepository)(nil)
