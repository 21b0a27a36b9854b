package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// ComplaintFilter captures list, count and sweep parameters. Zero values
// mean "no constraint".
type ComplaintFilter struct {
	Search             string
	Statuses           []domain.ComplaintStatus
	AssignedEngineerID *string
	Unassigned         bool
	Assigned           bool
	PaymentStatus      *domain.PaymentStatus
	CreatedFrom        *time.Time // created_at >= value
	CreatedBefore      *time.Time // created_at < value
	CreatedNotAfter    *time.Time // created_at <= value
	AssignedNotAfter   *time.Time // assigned_date <= value
	Unresolved         bool
	Limit              int
	Offset             int
}

// ComplaintRepository encapsulates complaint persistence.
type ComplaintRepository interface {
	Create(ctx context.Context, complaint *domain.Complaint) error
	Update(ctx context.Context, complaint *domain.Complaint) error
	UpdateSMSLog(ctx context.Context, id, message string) error
	GetByID(ctx context.Context, id string) (*domain.Complaint, error)
	TicketNumberExists(ctx context.Context, ticket string) (bool, error)
	List(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error)
	Count(ctx context.Context, filter ComplaintFilter) (int, error)
	MarkPending(ctx context.Context, filter ComplaintFilter, now time.Time) (int64, error)
}

type complaintRepository struct {
	pool *pgxpool.Pool
}

// NewComplaintRepository instantiates repository.
func NewComplaintRepository(pool *pgxpool.Pool) ComplaintRepository {
	return &complaintRepository{pool: pool}
}

var complaintColumns = []string{
	"c.id", "c.ticket_number", "c.customer_name", "c.mobile_number", "c.email",
	"c.pincode", "c.city", "c.state", "c.area", "c.street", "c.landmark",
	"c.product_id", "c.issue_type", "c.description", "c.status", "c.assigned_engineer_id",
	"c.product_serial_number", "c.service_confirmation_photo", "c.service_cost",
	"c.payment_method", "c.payment_status", "c.payment_confirmation_photo", "c.sms_log",
	"c.created_at", "c.updated_at", "c.assigned_date", "c.resolved_date",
	"p.model_name", "s.username",
}

func complaintSelect() squirrel.SelectBuilder {
	return psql.Select(complaintColumns...).
		From("complaints c").
		LeftJoin("products p ON p.id = c.product_id").
		LeftJoin("staff_accounts s ON s.id = c.assigned_engineer_id")
}

// complaintConditions turns a filter into a WHERE clause over the joined
// complaint select.
func complaintConditions(f ComplaintFilter) squirrel.And {
	conds := squirrel.And{}
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + term + "%"
		conds = append(conds, squirrel.Or{
			squirrel.ILike{"c.ticket_number": like},
			squirrel.ILike{"c.customer_name": like},
			squirrel.ILike{"c.mobile_number": like},
			squirrel.ILike{"c.email": like},
			squirrel.ILike{"p.model_name": like},
		})
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		conds = append(conds, squirrel.Eq{"c.status": statuses})
	}
	if f.AssignedEngineerID != nil {
		conds = append(conds, squirrel.Eq{"c.assigned_engineer_id": *f.AssignedEngineerID})
	}
	if f.Unassigned {
		conds = append(conds, squirrel.Eq{"c.assigned_engineer_id": nil})
	}
	if f.Assigned {
		conds = append(conds, squirrel.NotEq{"c.assigned_engineer_id": nil})
	}
	if f.PaymentStatus != nil {
		conds = append(conds, squirrel.Eq{"c.payment_status": string(*f.PaymentStatus)})
	}
	if f.CreatedFrom != nil {
		conds = append(conds, squirrel.GtOrEq{"c.created_at": *f.CreatedFrom})
	}
	if f.CreatedBefore != nil {
		conds = append(conds, squirrel.Lt{"c.created_at": *f.CreatedBefore})
	}
	if f.CreatedNotAfter != nil {
		conds = append(conds, squirrel.LtOrEq{"c.created_at": *f.CreatedNotAfter})
	}
	if f.AssignedNotAfter != nil {
		conds = append(conds, squirrel.LtOrEq{"c.assigned_date": *f.AssignedNotAfter})
	}
	if f.Unresolved {
		conds = append(conds, squirrel.Eq{"c.resolved_date": nil})
	}
	return conds
}

func buildComplaintList(f ComplaintFilter) squirrel.SelectBuilder {
	query := complaintSelect().Where(complaintConditions(f)).OrderBy("c.created_at DESC", "c.id DESC")
	if f.Limit > 0 {
		query = query.Limit(uint64(f.Limit))
		if f.Offset > 0 {
			query = query.Offset(uint64(f.Offset))
		}
	}
	return query
}

func buildComplaintCount(f ComplaintFilter) squirrel.SelectBuilder {
	return psql.Select("COUNT(*)").
		From("complaints c").
		LeftJoin("products p ON p.id = c.product_id").
		Where(complaintConditions(f))
}

func buildMarkPending(f ComplaintFilter, now time.Time) (string, []any, error) {
	inner, innerArgs, err := squirrel.Select("c.id").
		From("complaints c").
		LeftJoin("products p ON p.id = c.product_id").
		Where(complaintConditions(f)).
		ToSql()
	if err != nil {
		return "", nil, err
	}
	return psql.Update("complaints").
		Set("status", string(domain.ComplaintStatusPending)).
		Set("updated_at", now).
		Where(squirrel.Expr("id IN ("+inner+")", innerArgs...)).
		ToSql()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComplaint(row rowScanner) (*domain.Complaint, error) {
	var (
		c             domain.Complaint
		issueType     string
		status        string
		paymentMethod *string
		paymentStatus string
	)
	if err := row.Scan(
		&c.ID,
		&c.TicketNumber,
		&c.CustomerName,
		&c.MobileNumber,
		&c.Email,
		&c.Address.Pincode,
		&c.Address.City,
		&c.Address.State,
		&c.Address.Area,
		&c.Address.Street,
		&c.Address.Landmark,
		&c.ProductID,
		&issueType,
		&c.Description,
		&status,
		&c.AssignedEngineerID,
		&c.ProductSerialNumber,
		&c.ServiceConfirmationPhoto,
		&c.ServiceCost,
		&paymentMethod,
		&paymentStatus,
		&c.PaymentConfirmationPhoto,
		&c.SMSLog,
		&c.CreatedAt,
		&c.UpdatedAt,
		&c.AssignedDate,
		&c.ResolvedDate,
		&c.ProductName,
		&c.EngineerUsername,
	); err != nil {
		return nil, err
	}
	c.IssueType = domain.IssueType(issueType)
	c.Status = domain.ComplaintStatus(status)
	c.PaymentStatus = domain.PaymentStatus(paymentStatus)
	if paymentMethod != nil {
		method := domain.PaymentMethod(*paymentMethod)
		c.PaymentMethod = &method
	}
	return &c, nil
}

func paymentMethodArg(m *domain.PaymentMethod) *string {
	if m == nil {
		return nil
	}
	v := string(*m)
	return &v
}

func (r *complaintRepository) Create(ctx context.Context, complaint *domain.Complaint) error {
	const query = `
        INSERT INTO complaints (ticket_number, customer_name, mobile_number, email, pincode, city, state, area, street, landmark,
            product_id, issue_type, description, status, assigned_engineer_id, payment_status, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$17)
        RETURNING id, created_at, updated_at`
	return QuerierFromCtx(ctx, r.pool).QueryRow(ctx, query,
		complaint.TicketNumber,
		complaint.CustomerName,
		complaint.MobileNumber,
		complaint.Email,
		complaint.Address.Pincode,
		complaint.Address.City,
		complaint.Address.State,
		complaint.Address.Area,
		complaint.Address.Street,
		complaint.Address.Landmark,
		complaint.ProductID,
		string(complaint.IssueType),
		complaint.Description,
		string(complaint.Status),
		complaint.AssignedEngineerID,
		string(complaint.PaymentStatus),
		complaint.CreatedAt,
	).Scan(&complaint.ID, &complaint.CreatedAt, &complaint.UpdatedAt)
}

func (r *complaintRepository) Update(ctx context.Context, complaint *domain.Complaint) error {
	const query = `
        UPDATE complaints SET status=$1, assigned_engineer_id=$2, product_serial_number=$3, service_confirmation_photo=$4,
            service_cost=$5, payment_method=$6, payment_status=$7, payment_confirmation_photo=$8,
            assigned_date=$9, resolved_date=$10, updated_at=$11
        WHERE id=$12`
	cmd, err := QuerierFromCtx(ctx, r.pool).Exec(ctx, query,
		string(complaint.Status),
		complaint.AssignedEngineerID,
		complaint.ProductSerialNumber,
		complaint.ServiceConfirmationPhoto,
		complaint.ServiceCost,
		paymentMethodArg(complaint.PaymentMethod),
		string(complaint.PaymentStatus),
		complaint.PaymentConfirmationPhoto,
		complaint.AssignedDate,
		complaint.ResolvedDate,
		complaint.UpdatedAt,
		complaint.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *complaintRepository) UpdateSMSLog(ctx context.Context, id, message string) error {
	const query = `UPDATE complaints SET sms_log=$1 WHERE id=$2`
	cmd, err := QuerierFromCtx(ctx, r.pool).Exec(ctx, query, message, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *complaintRepository) GetByID(ctx context.Context, id string) (*domain.Complaint, error) {
	return r.getOne(ctx, squirrel.Eq{"c.id": id})
}

func (r *complaintRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*domain.Complaint, error) {
	query, args, err := complaintSelect().Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build complaint query: %w", err)
	}
	return scanComplaint(QuerierFromCtx(ctx, r.pool).QueryRow(ctx, query, args...))
}

func (r *complaintRepository) TicketNumberExists(ctx context.Context, ticket string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM complaints WHERE ticket_number=$1)`
	var exists bool
	err := QuerierFromCtx(ctx, r.pool).QueryRow(ctx, query, ticket).Scan(&exists)
	return exists, err
}

func (r *complaintRepository) List(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error) {
	query, args, err := buildComplaintList(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build complaint list: %w", err)
	}
	rows, err := QuerierFromCtx(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Complaint
	for rows.Next() {
		complaint, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *complaint)
	}
	return result, rows.Err()
}

func (r *complaintRepository) Count(ctx context.Context, filter ComplaintFilter) (int, error) {
	query, args, err := buildComplaintCount(filter).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build complaint count: %w", err)
	}
	var count int
	err = QuerierFromCtx(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&count)
	return count, err
}

func (r *complaintRepository) MarkPending(ctx context.Context, filter ComplaintFilter, now time.Time) (int64, error) {
	query, args, err := buildMarkPending(filter, now)
	if err != nil {
		return 0, fmt.Errorf("build mark pending: %w", err)
	}
	cmd, err := QuerierFromCtx(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
