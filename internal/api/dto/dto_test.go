package dto

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/project-portal/internal/domain"
	apperrors "github.com/spec-kit/project-portal/pkg/util/errorutil"
)

func validationDetails(t *testing.T, err error) map[string]any {
	t.Helper()
	var de *apperrors.DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, 400, de.HTTPStatus)
	return de.Details
}

func TestValidateRegisterRequest(t *testing.T) {
	t.Parallel()

	require.NoError(t, Validate(RegisterRequest{Email: "ana@example.com", Password: "long-enough"}))

	details := validationDetails(t, Validate(RegisterRequest{Email: "not-an-email", Password: "short"}))
	assert.Contains(t, details, "email")
	assert.Contains(t, details, "password")
}

func TestValidateLoginRequiresFields(t *testing.T) {
	t.Parallel()

	details := validationDetails(t, Validate(LoginRequest{}))
	assert.Equal(t, "is required", details["email"])
	assert.Equal(t, "is required", details["password"])
}

func TestProjectRequestValidation(t *testing.T) {
	t.Parallel()

	tooMuch := 150.0
	negative := -1.0
	badDate := "31/12/2024"
	details := validationDetails(t, Validate(ProjectRequest{
		FinancialProgress: &tooMuch,
		EstimatedValue:    &negative,
		PMCWorkOrderDate:  &badDate,
	}))
	assert.Contains(t, details, "financialProgress")
	assert.Contains(t, details, "estimatedValue")
	assert.Contains(t, details, "pmcWorkOrderDate")
}

func TestProjectRequestIgnoresCreatedBy(t *testing.T) {
	t.Parallel()

	var req ProjectRequest
	require.NoError(t, json.Unmarshal([]byte(`{"projectName":"Canal","createdBy":"someone-else","expectedCompletionDate":"2025-03-31"}`), &req))
	require.NoError(t, Validate(req))

	patch, err := req.ToPatch()
	require.NoError(t, err)

	var project domain.Project
	project.CreatedBy = "owner"
	patch.Apply(&project)
	assert.Equal(t, "owner", project.CreatedBy)
	assert.Equal(t, "Canal", project.ProjectName)
	require.NotNil(t, project.ExpectedCompletionDate)
	assert.Equal(t, time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), *project.ExpectedCompletionDate)
}

func TestProjectResponseShape(t *testing.T) {
	t.Parallel()

	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	name := "Ana"
	items := []domain.ProjectWithOwner{{
		Project:    domain.Project{ID: "p-1", SlNo: 7, ProjectName: "Canal", PMCWorkOrderDate: &date, CreatedBy: "u-1"},
		OwnerName:  &name,
		OwnerEmail: "ana@example.com",
	}}
	resp := NewOwnedProjectListResponse(items, PaginationResponse{Total: 1, Page: 1, Limit: 10, Pages: 1})

	raw, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	project := decoded["projects"].([]any)[0].(map[string]any)
	assert.Equal(t, "Canal", project["projectName"])
	assert.Equal(t, "2024-06-01", project["pmcWorkOrderDate"])
	assert.Equal(t, "ana@example.com", project["user"].(map[string]any)["email"])
	assert.Equal(t, float64(1), decoded["pagination"].(map[string]any)["pages"])
	assert.NotContains(t, project, "passwordHash")
}
