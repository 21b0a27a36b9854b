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

// ProductFilter defines query params for product listing.
type ProductFilter struct {
	Search string
	Limit  int
	Offset int
}

// ProductRepository handles product persistence.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, error)
	Count(ctx context.Context, filter ProductFilter) (int, error)
}

type productRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository instantiates the repository.
func NewProductRepository(pool *pgxpool.Pool) ProductRepository {
	return &productRepository{pool: pool}
}

var productColumns = []string{
	"p.id", "p.serial_number", "p.model_name", "p.sold_to", "p.sold_date", "p.installation_date",
	"p.assigned_engineer_id", "p.invoice_ref", "p.warranty_start", "p.warranty_end",
	"p.created_at", "p.updated_at", "s.username",
}

func productConditions(f ProductFilter) squirrel.And {
	conds := squirrel.And{}
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + term + "%"
		conds = append(conds, squirrel.Or{
			squirrel.ILike{"p.serial_number": like},
			squirrel.ILike{"p.model_name": like},
			squirrel.ILike{"p.sold_to": like},
		})
	}
	return conds
}

func buildProductList(f ProductFilter) squirrel.SelectBuilder {
	query := psql.Select(productColumns...).
		From("products p").
		LeftJoin("staff_accounts s ON s.id = p.assigned_engineer_id").
		Where(productConditions(f)).
		OrderBy("p.created_at DESC", "p.id DESC")
	if f.Limit > 0 {
		query = query.Limit(uint64(f.Limit))
		if f.Offset > 0 {
			query = query.Offset(uint64(f.Offset))
		}
	}
	return query
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var p domain.Product
	if err := row.Scan(
		&p.ID,
		&p.SerialNumber,
		&p.ModelName,
		&p.SoldTo,
		&p.SoldDate,
		&p.InstallationDate,
		&p.AssignedEngineerID,
		&p.InvoiceRef,
		&p.WarrantyStart,
		&p.WarrantyEnd,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.EngineerUsername,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	const query = `
        INSERT INTO products (serial_number, model_name, sold_to, sold_date, installation_date, assigned_engineer_id,
            invoice_ref, warranty_start, warranty_end)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	return QuerierFromCtx(ctx, r.pool).QueryRow(ctx, query,
		product.SerialNumber,
		product.ModelName,
		product.SoldTo,
		product.SoldDate,
		product.InstallationDate,
		product.AssignedEngineerID,
		product.InvoiceRef,
		product.WarrantyStart,
		product.WarrantyEnd,
	).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
}

func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	const query = `
        UPDATE products SET serial_number=$1, model_name=$2, sold_to=$3, sold_date=$4, installation_date=$5,
            assigned_engineer_id=$6, invoice_ref=$7, warranty_start=$8, warranty_end=$9, updated_at=NOW()
        WHERE id=$10`
	cmd, err := QuerierFromCtx(ctx, r.pool).Exec(ctx, query,
		product.SerialNumber,
		product.ModelName,
		product.SoldTo,
		product.SoldDate,
		product.InstallationDate,
		product.AssignedEngineerID,
		product.InvoiceRef,
		product.WarrantyStart,
		product.WarrantyEnd,
		product.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *productRepository) Delete(ctx context.Context, id string) error {
	cmd, err := QuerierFromCtx(ctx, r.pool).Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *productRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	query, args, err := psql.Select(productColumns...).
		From("products p").
		LeftJoin("staff_accounts s ON s.id = p.assigned_engineer_id").
		Where(squirrel.Eq{"p.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build product query: %w", err)
	}
	return scanProduct(QuerierFromCtx(ctx, r.pool).QueryRow(ctx, query, args...))
}

func (r *productRepository) List(ctx context.Context, filter ProductFilter) ([]domain.Product, error) {
	query, args, err := buildProductList(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build product list: %w", err)
	}
	rows, err := QuerierFromCtx(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *product)
	}
	return result, rows.Err()
}

func (r *productRepository) Count(ctx context.Context, filter ProductFilter) (int, error) {
	query, args, err := psql.Select("COUNT(*)").From("products p").Where(productConditions(filter)).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build product count: %w", err)
	}
	var count int
	err = QuerierFromCtx(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&count)
	return count, err
}
