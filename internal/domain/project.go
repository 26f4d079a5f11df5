package domain

import "time"

// Project is the protected resource. CreatedBy is set once at creation.
type Project struct {
	ID                      string
	SlNo                    int64
	ProjectName             string
	NodalDepartment         *string
	Division                *string
	District                *string
	LAC                     *string
	Branch                  *string
	FundSource              *string
	AANo                    *string
	EstimatedValue          *float64
	FinancialProgress       *float64
	PhysicalProgress        *float64
	PMCWorkOrderDate        *time.Time
	WorksWorkOrderDate      *time.Time
	ConsultantName          *string
	ContractorName          *string
	CompletionDatePerTender *time.Time
	ExpectedCompletionDate  *time.Time
	Provisions              *string
	LandStatus              *string
	Remarks                 *string
	CreatedBy               string
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// ProjectWithOwner pairs a project with its creator's public details.
type ProjectWithOwner struct {
	Project
	OwnerName  *string
	OwnerEmail string
}

// ProjectPatch lists the mutable fields of a project. Nil means unchanged.
// There is deliberately no owner field.
type ProjectPatch struct {
	ProjectName             *string
	NodalDepartment         *string
	Division                *string
	District                *string
	LAC                     *string
	Branch                  *string
	FundSource              *string
	AANo                    *string
	EstimatedValue          *float64
	FinancialProgress       *float64
	PhysicalProgress        *float64
	PMCWorkOrderDate        *time.Time
	WorksWorkOrderDate      *time.Time
	ConsultantName          *string
	ContractorName          *string
	CompletionDatePerTender *time.Time
	ExpectedCompletionDate  *time.Time
	Provisions              *string
	LandStatus              *string
	Remarks                 *string
}

// Apply copies the set fields of p onto project.
func (p ProjectPatch) Apply(project *Project) {
	if p.ProjectName != nil {
		project.ProjectName = *p.ProjectName
	}
	setString(&project.NodalDepartment, p.NodalDepartment)
	setString(&project.Division, p.Division)
	setString(&project.District, p.District)
	setString(&project.LAC, p.LAC)
	setString(&project.Branch, p.Branch)
	setString(&project.FundSource, p.FundSource)
	setString(&project.AANo, p.AANo)
	setFloat(&project.EstimatedValue, p.EstimatedValue)
	setFloat(&project.FinancialProgress, p.FinancialProgress)
	setFloat(&project.PhysicalProgress, p.PhysicalProgress)
	setTime(&project.PMCWorkOrderDate, p.PMCWorkOrderDate)
	setTime(&project.WorksWorkOrderDate, p.WorksWorkOrderDate)
	setString(&project.ConsultantName, p.ConsultantName)
	setString(&project.ContractorName, p.ContractorName)
	setTime(&project.CompletionDatePerTender, p.CompletionDatePerTender)
	setTime(&project.ExpectedCompletionDate, p.ExpectedCompletionDate)
	setString(&project.Provisions, p.Provisions)
	setString(&project.LandStatus, p.LandStatus)
	setString(&project.Remarks, p.Remarks)
}

func setString(dst **string, src *string) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

func setFloat(dst **float64, src *float64) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

func setTime(dst **time.Time, src *time.Time) {
	if src != nil {
		v := *src
		*dst = &v
	}
}
