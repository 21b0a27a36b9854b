package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// StaffRepository handles persistence for staff accounts.
type StaffRepository interface {
	Create(ctx context.Context, account *domain.StaffAccount) error
	Update(ctx context.Context, account *domain.StaffAccount) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.StaffAccount, error)
	GetByUsername(ctx context.Context, username string) (*domain.StaffAccount, error)
	List(ctx context.Context, filter StaffFilter) ([]domain.StaffAccount, error)
	Count(ctx context.Context, filter StaffFilter) (int, error)
}

// StaffFilter defines query params for staff listing.
type StaffFilter struct {
	Role              *domain.Role
	ExcludeRole       *domain.Role
	Active            *bool
	Search            string
	ExcludeSuperusers bool
	Limit             int
	Offset            int
}

type staffRepository struct {
	pool *pgxpool.Pool
}

// NewStaffRepository instantiates the repository.
func NewStaffRepository(pool *pgxpool.Pool) StaffRepository {
	return &staffRepository{pool: pool}
}

var staffColumns = []string{
	"id", "username", "email", "full_name", "password_hash", "role", "is_superuser", "active_flag", "created_at", "updated_at",
}

func staffConditions(f StaffFilter) squirrel.And {
	conds := squirrel.And{}
	if f.Role != nil {
		conds = append(conds, squirrel.Eq{"role": string(*f.Role)})
	}
	if f.ExcludeRole != nil {
		conds = append(conds, squirrel.NotEq{"role": string(*f.ExcludeRole)})
	}
	if f.Active != nil {
		conds = append(conds, squirrel.Eq{"active_flag": *f.Active})
	}
	if f.ExcludeSuperusers {
		conds = append(conds, squirrel.Eq{"is_superuser": false})
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + term + "%"
		conds = append(conds, squirrel.Or{
			squirrel.ILike{"username": like},
			squirrel.ILike{"full_name": like},
			squirrel.ILike{"email": like},
		})
	}
	return conds
}

func buildStaffList(f StaffFilter) squirrel.SelectBuilder {
	query := psql.Select(staffColumns...).
		From("staff_accounts").
		Where(staffConditions(f)).
		OrderBy("created_at DESC", "id DESC")
	if f.Limit > 0 {
		query = query.Limit(uint64(f.Limit))
		if f.Offset > 0 {
			query = query.Offset(uint64(f.Offset))
		}
	}
	return query
}

func scanStaff(row rowScanner) (*domain.StaffAccount, error) {
	var (
		account domain.StaffAccount
		role    string
	)
	if err := row.Scan(
		&account.ID,
		&account.Username,
		&account.Email,
		&account.FullName,
		&account.PasswordHash,
		&role,
		&account.IsSuperuser,
		&account.Active,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		return nil, err
	}
	account.Role = domain.Role(role)
	return &account, nil
}

func (r *staffRepository) Create(ctx context.Context, account *domain.StaffAccount) error {
	const query = `
        INSERT INTO staff_accounts (username, email, full_name, password_hash, role, is_superuser, active_flag)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`

	return QuerierFromCtx(ctx, r.pool).QueryRow(ctx, query,
		account.Username,
		account.Email,
		account.FullName,
		account.PasswordHash,
		string(account.Role),
		account.IsSuperuser,
		account.Active,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
}

func (r *staffRepository) Update(ctx context.Context, account *domain.StaffAccount) error {
	const query = `
        UPDATE staff_accounts
        SET username=$1, email=$2, full_name=$3, password_hash=$4, role=$5, active_flag=$6, updated_at=NOW()
        WHERE id=$7`

	cmd, err := QuerierFromCtx(ctx, r.pool).Exec(ctx, query,
		account.Username,
		account.Email,
		account.FullName,
		account.PasswordHash,
		string(account.Role),
		account.Active,
		account.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *staffRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const query = `UPDATE staff_accounts SET password_hash=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := QuerierFromCtx(ctx, r.pool).Exec(ctx, query, passwordHash, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *staffRepository) Delete(ctx context.Context, id string) error {
	cmd, err := QuerierFromCtx(ctx, r.pool).Exec(ctx, `DELETE FROM staff_accounts WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *staffRepository) GetByID(ctx context.Context, id string) (*domain.StaffAccount, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

func (r *staffRepository) GetByUsername(ctx context.Context, username string) (*domain.StaffAccount, error) {
	return r.getOne(ctx, squirrel.Eq{"username": username})
}

func (r *staffRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*domain.StaffAccount, error) {
	query, args, err := psql.Select(staffColumns...).From("staff_accounts").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build staff query: %w", err)
	}
	return scanStaff(QuerierFromCtx(ctx, r.pool).QueryRow(ctx, query, args...))
}

func (r *staffRepository) List(ctx context.Context, filter StaffFilter) ([]domain.StaffAccount, error) {
	query, args, err := buildStaffList(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build staff list: %w", err)
	}
	rows, err := QuerierFromCtx(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StaffAccount
	for rows.Next() {
		account, err := scanStaff(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *account)
	}
	return result, rows.Err()
}

func (r *staffRepository) Count(ctx context.Context, filter StaffFilter) (int, error) {
	query, args, err := psql.Select("COUNT(*)").From("staff_accounts").Where(staffConditions(filter)).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build staff count: %w", err)
	}
	var count int
	err = QuerierFromCtx(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&count)
	return count, err
}
