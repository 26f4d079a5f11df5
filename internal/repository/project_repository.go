package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/project-portal/internal/domain"
)

// ProjectFilter is the WHERE clause of a project listing. OwnerID is the
// security boundary set by the access gateway; the remaining fields only
// narrow it further.
type ProjectFilter struct {
	OwnerID      *string
	District     *string
	Division     *string
	NameContains *string
	Limit        int
	Offset       int
}

// ProjectRepository encapsulates project persistence.
type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) error
	Update(ctx context.Context, project *domain.Project) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	Count(ctx context.Context, filter ProjectFilter) (int64, error)
	List(ctx context.Context, filter ProjectFilter) ([]domain.Project, error)
	ListWithOwners(ctx context.Context, filter ProjectFilter) ([]domain.ProjectWithOwner, error)
}

type projectRepository struct {
	db DBTX
}

// NewProjectRepository instantiates repository.
func NewProjectRepository(db DBTX) ProjectRepository {
	return &projectRepository{db: db}
}

var projectColumnNames = []string{
	"id", "sl_no", "project_name", "nodal_department", "division", "district", "lac", "branch",
	"fund_source", "aa_no", "estimated_value", "financial_progress", "physical_progress",
	"pmc_work_order_date", "works_work_order_date", "consultant_name", "contractor_name",
	"completion_date_per_tender", "expected_completion_date", "provisions", "land_status",
	"remarks", "created_by", "created_at", "updated_at",
}

func projectColumns(alias string) string {
	if alias == "" {
		return strings.Join(projectColumnNames, ", ")
	}
	cols := make([]string, len(projectColumnNames))
	for i, c := range projectColumnNames {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}

func (r *projectRepository) Create(ctx context.Context, p *domain.Project) error {
	const query = `
        INSERT INTO projects (project_name, nodal_department, division, district, lac, branch,
            fund_source, aa_no, estimated_value, financial_progress, physical_progress,
            pmc_work_order_date, works_work_order_date, consultant_name, contractor_name,
            completion_date_per_tender, expected_completion_date, provisions, land_status,
            remarks, created_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
        RETURNING id, sl_no, created_at, updated_at`

	return r.db.QueryRow(ctx, query,
		p.ProjectName,
		p.NodalDepartment,
		p.Division,
		p.District,
		p.LAC,
		p.Branch,
		p.FundSource,
		p.AANo,
		p.EstimatedValue,
		p.FinancialProgress,
		p.PhysicalProgress,
		p.PMCWorkOrderDate,
		p.WorksWorkOrderDate,
		p.ConsultantName,
		p.ContractorName,
		p.CompletionDatePerTender,
		p.ExpectedCompletionDate,
		p.Provisions,
		p.LandStatus,
		p.Remarks,
		p.CreatedBy,
	).Scan(&p.ID, &p.SlNo, &p.CreatedAt, &p.UpdatedAt)
}

// Update writes every mutable column. created_by is not part of the statement.
func (r *projectRepository) Update(ctx context.Context, p *domain.Project) error {
	const query = `
        UPDATE projects SET project_name=$1, nodal_department=$2, division=$3, district=$4, lac=$5,
            branch=$6, fund_source=$7, aa_no=$8, estimated_value=$9, financial_progress=$10,
            physical_progress=$11, pmc_work_order_date=$12, works_work_order_date=$13,
            consultant_name=$14, contractor_name=$15, completion_date_per_tender=$16,
            expected_completion_date=$17, provisions=$18, land_status=$19, remarks=$20,
            updated_at=NOW()
        WHERE id=$21
        RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		p.ProjectName,
		p.NodalDepartment,
		p.Division,
		p.District,
		p.LAC,
		p.Branch,
		p.FundSource,
		p.AANo,
		p.EstimatedValue,
		p.FinancialProgress,
		p.PhysicalProgress,
		p.PMCWorkOrderDate,
		p.WorksWorkOrderDate,
		p.ConsultantName,
		p.ContractorName,
		p.CompletionDatePerTender,
		p.ExpectedCompletionDate,
		p.Provisions,
		p.LandStatus,
		p.Remarks,
		p.ID,
	).Scan(&p.UpdatedAt)
	return err
}

func (r *projectRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM projects WHERE id=$1`

	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *projectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	query := `SELECT ` + projectColumns("") + ` FROM projects WHERE id=$1`

	var p domain.Project
	if err := r.db.QueryRow(ctx, query, id).Scan(projectScanTargets(&p)...); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *projectRepository) Count(ctx context.Context, filter ProjectFilter) (int64, error) {
	where, args := buildProjectWhere(filter, "")
	query := `SELECT COUNT(*) FROM projects WHERE ` + where

	var total int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *projectRepository) List(ctx context.Context, filter ProjectFilter) ([]domain.Project, error) {
	where, args := buildProjectWhere(filter, "")
	limit, offset := pageBounds(filter)
	query := fmt.Sprintf(`SELECT %s FROM projects WHERE %s ORDER BY sl_no ASC LIMIT %d OFFSET %d`,
		projectColumns(""), where, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.Project, 0, limit)
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(projectScanTargets(&p)...); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *projectRepository) ListWithOwners(ctx context.Context, filter ProjectFilter) ([]domain.ProjectWithOwner, error) {
	where, args := buildProjectWhere(filter, "p")
	limit, offset := pageBounds(filter)
	query := fmt.Sprintf(`SELECT %s, u.name, u.email FROM projects p JOIN users u ON u.id = p.created_by
             WHERE %s ORDER BY p.sl_no ASC LIMIT %d OFFSET %d`,
		projectColumns("p"), where, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.ProjectWithOwner, 0, limit)
	for rows.Next() {
		var p domain.ProjectWithOwner
		targets := append(projectScanTargets(&p.Project), &p.OwnerName, &p.OwnerEmail)
		if err := rows.Scan(targets...); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// buildProjectWhere renders the filter. The owner clause is always emitted
// first; refinements are ANDed onto it and can only narrow the result.
func buildProjectWhere(filter ProjectFilter, alias string) (string, []any) {
	col := func(name string) string {
		if alias == "" {
			return name
		}
		return alias + "." + name
	}
	clauses := []string{"1=1"}
	args := []any{}

	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		clauses = append(clauses, fmt.Sprintf("%s=$%d", col("created_by"), len(args)))
	}
	if filter.District != nil && strings.TrimSpace(*filter.District) != "" {
		args = append(args, strings.TrimSpace(*filter.District))
		clauses = append(clauses, fmt.Sprintf("%s=$%d", col("district"), len(args)))
	}
	if filter.Division != nil && strings.TrimSpace(*filter.Division) != "" {
		args = append(args, strings.TrimSpace(*filter.Division))
		clauses = append(clauses, fmt.Sprintf("%s=$%d", col("division"), len(args)))
	}
	if filter.NameContains != nil && strings.TrimSpace(*filter.NameContains) != "" {
		search := "%" + escapeLike(strings.ToLower(strings.TrimSpace(*filter.NameContains))) + "%"
		args = append(args, search)
		clauses = append(clauses, fmt.Sprintf("LOWER(%s) LIKE $%d", col("project_name"), len(args)))
	}
	return strings.Join(clauses, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func pageBounds(filter ProjectFilter) (int, int) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func projectScanTargets(p *domain.Project) []any {
	return []any{
		&p.ID,
		&p.SlNo,
		&p.ProjectName,
		&p.NodalDepartment,
		&p.Division,
		&p.District,
		&p.LAC,
		&p.Branch,
		&p.FundSource,
		&p.AANo,
		&p.EstimatedValue,
		&p.FinancialProgress,
		&p.PhysicalProgress,
		&p.PMCWorkOrderDate,
		&p.WorksWorkOrderDate,
		&p.ConsultantName,
		&p.ContractorName,
		&p.CompletionDatePerTender,
		&p.ExpectedCompletionDate,
		&p.Provisions,
		&p.LandStatus,
		&p.Remarks,
		&p.CreatedBy,
		&p.CreatedAt,
		&p.UpdatedAt,
	}
}
