package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectPatchApply(t *testing.T) {
	t.Parallel()

	district := "Kamrup"
	project := &Project{
		ID:          "p1",
		ProjectName: "Old",
		District:    &district,
		CreatedBy:   "owner-a",
	}

	name := "New"
	progress := 42.5
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	ProjectPatch{
		ProjectName:      &name,
		PhysicalProgress: &progress,
		PMCWorkOrderDate: &date,
	}.Apply(project)

	assert.Equal(t, "New", project.ProjectName)
	require.NotNil(t, project.PhysicalProgress)
	assert.InDelta(t, 42.5, *project.PhysicalProgress, 0.0001)
	require.NotNil(t, project.District)
	assert.Equal(t, "Kamrup", *project.District)
	assert.Equal(t, date, *project.PMCWorkOrderDate)
	assert.Equal(t, "owner-a", project.CreatedBy)
}

func TestRole(t *testing.T) {
	t.Parallel()

	assert.True(t, RoleAdmin.IsElevated())
	assert.False(t, RoleUser.IsElevated())
	assert.True(t, RoleUser.Valid())
	assert.False(t, Role("ROOT").Valid())
}
