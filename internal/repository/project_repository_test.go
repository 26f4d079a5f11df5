package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/project-portal/internal/domain"
)

func strPtr(s string) *string { return &s }

func projectRow(rows *pgxmock.Rows, id string, slNo int64, name, owner string) *pgxmock.Rows {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	district := "Kamrup"
	progress := 42.5
	return rows.AddRow(
		id, slNo, name,
		(*string)(nil), (*string)(nil), &district, (*string)(nil), (*string)(nil),
		(*string)(nil), (*string)(nil), (*float64)(nil), &progress, (*float64)(nil),
		(*time.Time)(nil), (*time.Time)(nil), (*string)(nil), (*string)(nil),
		(*time.Time)(nil), (*time.Time)(nil), (*string)(nil), (*string)(nil),
		(*string)(nil), owner, ts, ts,
	)
}

func TestBuildProjectWhereOwnerFirst(t *testing.T) {
	t.Parallel()

	where, args := buildProjectWhere(ProjectFilter{
		OwnerID:      strPtr("u-1"),
		District:     strPtr(" Kamrup "),
		NameContains: strPtr("50%_Road"),
	}, "")

	assert.Equal(t, "1=1 AND created_by=$1 AND district=$2 AND LOWER(project_name) LIKE $3", where)
	assert.Equal(t, []any{"u-1", "Kamrup", `%50\%\_road%`}, args)
}

func TestBuildProjectWhereWithoutOwner(t *testing.T) {
	t.Parallel()

	where, args := buildProjectWhere(ProjectFilter{Division: strPtr("North"), District: strPtr("  ")}, "p")
	assert.Equal(t, "1=1 AND p.division=$1", where)
	assert.Equal(t, []any{"North"}, args)
}

func TestProjectRepositoryCountAndListShareFilter(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	filter := ProjectFilter{OwnerID: strPtr("u-1"), Division: strPtr("North"), Limit: 2, Offset: 2}

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM projects WHERE 1=1 AND created_by=\$1 AND division=\$2`).
		WithArgs("u-1", "North").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(3)))
	rows := pgxmock.NewRows(projectColumnNames)
	projectRow(rows, "p-3", 3, "Bridge", "u-1")
	mock.ExpectQuery(`FROM projects WHERE 1=1 AND created_by=\$1 AND division=\$2 ORDER BY sl_no ASC LIMIT 2 OFFSET 2`).
		WithArgs("u-1", "North").
		WillReturnRows(rows)

	repo := NewProjectRepository(mock)
	total, err := repo.Count(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	items, err := repo.List(context.Background(), filter)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "p-3", items[0].ID)
	assert.Equal(t, int64(3), items[0].SlNo)
	assert.Equal(t, "u-1", items[0].CreatedBy)
	require.NotNil(t, items[0].District)
	assert.Equal(t, "Kamrup", *items[0].District)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepositoryListWithOwners(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cols := append(append([]string{}, projectColumnNames...), "name", "email")
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	ownerName := "Ana"
	rows := pgxmock.NewRows(cols).AddRow(
		"p-1", int64(1), "Canal",
		(*string)(nil), (*string)(nil), (*string)(nil), (*string)(nil), (*string)(nil),
		(*string)(nil), (*string)(nil), (*float64)(nil), (*float64)(nil), (*float64)(nil),
		(*time.Time)(nil), (*time.Time)(nil), (*string)(nil), (*string)(nil),
		(*time.Time)(nil), (*time.Time)(nil), (*string)(nil), (*string)(nil),
		(*string)(nil), "u-1", ts, ts,
		&ownerName, "ana@example.com",
	)
	mock.ExpectQuery(`JOIN users u ON u.id = p.created_by\s+WHERE 1=1 ORDER BY p.sl_no ASC LIMIT 10 OFFSET 0`).
		WillReturnRows(rows)

	items, err := NewProjectRepository(mock).ListWithOwners(context.Background(), ProjectFilter{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "ana@example.com", items[0].OwnerEmail)
	require.NotNil(t, items[0].OwnerName)
	assert.Equal(t, "Ana", *items[0].OwnerName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepositoryCreate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	args := make([]any, 21)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	args[0] = "Canal"
	args[20] = "u-1"
	mock.ExpectQuery(`INSERT INTO projects`).
		WithArgs(args...).
		WillReturnRows(pgxmock.NewRows([]string{"id", "sl_no", "created_at", "updated_at"}).AddRow("p-9", int64(9), ts, ts))

	project := &domain.Project{ProjectName: "Canal", CreatedBy: "u-1"}
	require.NoError(t, NewProjectRepository(mock).Create(context.Background(), project))
	assert.Equal(t, "p-9", project.ID)
	assert.Equal(t, int64(9), project.SlNo)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepositoryUpdateNeverWritesOwner(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	args := make([]any, 21)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	args[0] = "Renamed"
	args[20] = "p-1"
	mock.ExpectQuery(`UPDATE projects SET project_name=\$1`).
		WithArgs(args...).
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(ts))

	project := &domain.Project{ID: "p-1", ProjectName: "Renamed", CreatedBy: "someone-else"}
	require.NoError(t, NewProjectRepository(mock).Update(context.Background(), project))
	assert.Equal(t, ts, project.UpdatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepositoryDeleteMissing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`DELETE FROM projects WHERE id=\$1`).
		WithArgs("gone").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err = NewProjectRepository(mock).Delete(context.Background(), "gone")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
