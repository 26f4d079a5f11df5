package dto

import (
	"time"

	"github.com/spec-kit/project-portal/internal/domain"
	apperrors "github.com/spec-kit/project-portal/pkg/util/errorutil"
)

// DateLayout is the wire format of project dates.
const DateLayout = "2006-01-02"

// ProjectRequest is the body of create and update calls. Every field is
// optional at this layer; create additionally requires projectName. Any
// createdBy sent by the client is not part of the struct and is dropped.
type ProjectRequest struct {
	ProjectName             *string  `json:"projectName" validate:"omitempty,max=500"`
	NodalDepartment         *string  `json:"nodalDepartment" validate:"omitempty,max=255"`
	Division                *string  `json:"division" validate:"omitempty,max=255"`
	District                *string  `json:"district" validate:"omitempty,max=255"`
	LAC                     *string  `json:"lac" validate:"omitempty,max=255"`
	Branch                  *string  `json:"branch" validate:"omitempty,max=255"`
	FundSource              *string  `json:"fundSource" validate:"omitempty,max=255"`
	AANo                    *string  `json:"aaNo" validate:"omitempty,max=255"`
	EstimatedValue          *float64 `json:"estimatedValue" validate:"omitempty,gte=0"`
	FinancialProgress       *float64 `json:"financialProgress" validate:"omitempty,gte=0,lte=100"`
	PhysicalProgress        *float64 `json:"physicalProgress" validate:"omitempty,gte=0,lte=100"`
	PMCWorkOrderDate        *string  `json:"pmcWorkOrderDate" validate:"omitempty,datetime=2006-01-02"`
	WorksWorkOrderDate      *string  `json:"worksWorkOrderDate" validate:"omitempty,datetime=2006-01-02"`
	ConsultantName          *string  `json:"consultantName" validate:"omitempty,max=255"`
	ContractorName          *string  `json:"contractorName" validate:"omitempty,max=255"`
	CompletionDatePerTender *string  `json:"completionDatePerTender" validate:"omitempty,datetime=2006-01-02"`
	ExpectedCompletionDate  *string  `json:"expectedCompletionDate" validate:"omitempty,datetime=2006-01-02"`
	Provisions              *string  `json:"provisions" validate:"omitempty,max=4000"`
	LandStatus              *string  `json:"landStatus" validate:"omitempty,max=255"`
	Remarks                 *string  `json:"remarks" validate:"omitempty,max=4000"`
}

// ToPatch converts the request into a domain patch. Call Validate first.
func (r ProjectRequest) ToPatch() (domain.ProjectPatch, error) {
	patch := domain.ProjectPatch{
		ProjectName:       r.ProjectName,
		NodalDepartment:   r.NodalDepartment,
		Division:          r.Division,
		District:          r.District,
		LAC:               r.LAC,
		Branch:            r.Branch,
		FundSource:        r.FundSource,
		AANo:              r.AANo,
		EstimatedValue:    r.EstimatedValue,
		FinancialProgress: r.FinancialProgress,
		PhysicalProgress:  r.PhysicalProgress,
		ConsultantName:    r.ConsultantName,
		ContractorName:    r.ContractorName,
		Provisions:        r.Provisions,
		LandStatus:        r.LandStatus,
		Remarks:           r.Remarks,
	}

	dates := []struct {
		field string
		in    *string
		out   **time.Time
	}{
		{"pmcWorkOrderDate", r.PMCWorkOrderDate, &patch.PMCWorkOrderDate},
		{"worksWorkOrderDate", r.WorksWorkOrderDate, &patch.WorksWorkOrderDate},
		{"completionDatePerTender", r.CompletionDatePerTender, &patch.CompletionDatePerTender},
		{"expectedCompletionDate", r.ExpectedCompletionDate, &patch.ExpectedCompletionDate},
	}
	for _, d := range dates {
		if d.in == nil || *d.in == "" {
			continue
		}
		t, err := time.Parse(DateLayout, *d.in)
		if err != nil {
			return domain.ProjectPatch{}, apperrors.NewValidationError("validation failed", map[string]any{
				d.field: "must be a date formatted YYYY-MM-DD",
			})
		}
		*d.out = &t
	}
	return patch, nil
}

// ProjectResponse is the JSON view of a project.
type ProjectResponse struct {
	ID                      string    `json:"id"`
	SlNo                    int64     `json:"slNo"`
	ProjectName             string    `json:"projectName"`
	NodalDepartment         *string   `json:"nodalDepartment"`
	Division                *string   `json:"division"`
	District                *string   `json:"district"`
	LAC                     *string   `json:"lac"`
	Branch                  *string   `json:"branch"`
	FundSource              *string   `json:"fundSource"`
	AANo                    *string   `json:"aaNo"`
	EstimatedValue          *float64  `json:"estimatedValue"`
	FinancialProgress       *float64  `json:"financialProgress"`
	PhysicalProgress        *float64  `json:"physicalProgress"`
	PMCWorkOrderDate        *string   `json:"pmcWorkOrderDate"`
	WorksWorkOrderDate      *string   `json:"worksWorkOrderDate"`
	ConsultantName          *string   `json:"consultantName"`
	ContractorName          *string   `json:"contractorName"`
	CompletionDatePerTender *string   `json:"completionDatePerTender"`
	ExpectedCompletionDate  *string   `json:"expectedCompletionDate"`
	Provisions              *string   `json:"provisions"`
	LandStatus              *string   `json:"landStatus"`
	Remarks                 *string   `json:"remarks"`
	CreatedBy               string    `json:"createdBy"`
	CreatedAt               time.Time `json:"createdAt"`
	UpdatedAt               time.Time `json:"updatedAt"`
}

// OwnerResponse names the creator of a project.
type OwnerResponse struct {
	Name  *string `json:"name"`
	Email string  `json:"email"`
}

// OwnedProjectResponse is a project with its creator attached.
type OwnedProjectResponse struct {
	ProjectResponse
	User OwnerResponse `json:"user"`
}

// PaginationResponse describes one page of a listing.
type PaginationResponse struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int   `json:"pages"`
}

// ProjectListResponse is the body of GET /api/projects.
type ProjectListResponse struct {
	Projects   []ProjectResponse  `json:"projects"`
	Pagination PaginationResponse `json:"pagination"`
}

// OwnedProjectListResponse is the body of GET /api/projects/all.
type OwnedProjectListResponse struct {
	Projects   []OwnedProjectResponse `json:"projects"`
	Pagination PaginationResponse     `json:"pagination"`
}

// NewProjectResponse renders p.
func NewProjectResponse(p *domain.Project) ProjectResponse {
	return ProjectResponse{
		ID:                      p.ID,
		SlNo:                    p.SlNo,
		ProjectName:             p.ProjectName,
		NodalDepartment:         p.NodalDepartment,
		Division:                p.Division,
		District:                p.District,
		LAC:                     p.LAC,
		Branch:                  p.Branch,
		FundSource:              p.FundSource,
		AANo:                    p.AANo,
		EstimatedValue:          p.EstimatedValue,
		FinancialProgress:       p.FinancialProgress,
		PhysicalProgress:        p.PhysicalProgress,
		PMCWorkOrderDate:        formatDate(p.PMCWorkOrderDate),
		WorksWorkOrderDate:      formatDate(p.WorksWorkOrderDate),
		ConsultantName:          p.ConsultantName,
		ContractorName:          p.ContractorName,
		CompletionDatePerTender: formatDate(p.CompletionDatePerTender),
		ExpectedCompletionDate:  formatDate(p.ExpectedCompletionDate),
		Provisions:              p.Provisions,
		LandStatus:              p.LandStatus,
		Remarks:                 p.Remarks,
		CreatedBy:               p.CreatedBy,
		CreatedAt:               p.CreatedAt,
		UpdatedAt:               p.UpdatedAt,
	}
}

// NewProjectListResponse renders a page of projects.
func NewProjectListResponse(items []domain.Project, page PaginationResponse) ProjectListResponse {
	out := make([]ProjectResponse, 0, len(items))
	for i := range items {
		out = append(out, NewProjectResponse(&items[i]))
	}
	return ProjectListResponse{Projects: out, Pagination: page}
}

// NewOwnedProjectListResponse renders a page of projects with creators.
func NewOwnedProjectListResponse(items []domain.ProjectWithOwner, page PaginationResponse) OwnedProjectListResponse {
	out := make([]OwnedProjectResponse, 0, len(items))
	for i := range items {
		out = append(out, OwnedProjectResponse{
			ProjectResponse: NewProjectResponse(&items[i].Project),
			User:            OwnerResponse{Name: items[i].OwnerName, Email: items[i].OwnerEmail},
		})
	}
	return OwnedProjectListResponse{Projects: out, Pagination: page}
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(DateLayout)
	return &s
}
