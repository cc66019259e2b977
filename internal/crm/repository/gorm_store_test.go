package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/entity"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/repository"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormRepositories(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewGormRepositories(db)
	ctx := context.Background()
	now := time.Now()

	project := &entity.Project{
		ID:        "p-gorm-1",
		Name:      "Skyline Heights",
		Status:    entity.ProjectStatusActive,
		Amenities: entity.StringList{"Pool", "Gym"},
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repos.Projects.Create(ctx, project))

	got, err := repos.Projects.FindByID(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StringList{"Pool", "Gym"}, got.Amenities)

	got.Status = entity.ProjectStatusSoldOut
	got.AvailableUnits = 0
	require.NoError(t, repos.Projects.Update(ctx, got))
	got, _ = repos.Projects.FindByID(ctx, project.ID)
	assert.Equal(t, entity.ProjectStatusSoldOut, got.Status)

	assert.ErrorIs(t, repos.Projects.Update(ctx, &entity.Project{ID: "missing"}), repository.ErrNotFound)

	require.NoError(t, repos.Activities.Append(ctx, &entity.Activity{
		ID: "a-1", EntityType: entity.EntityProject, EntityID: project.ID, Type: entity.ActivityCreated, CreatedAt: now,
	}))
	require.NoError(t, repos.Activities.Append(ctx, &entity.Activity{
		ID: "a-2", EntityType: entity.EntityProject, EntityID: project.ID, Type: entity.ActivityStatusChange, CreatedAt: now.Add(time.Second),
	}))
	acts, err := repos.Activities.ListByEntity(ctx, entity.EntityProject, project.ID)
	require.NoError(t, err)
	require.Len(t, acts, 2)
	assert.Equal(t, "a-2", acts[0].ID)

	require.NoError(t, repos.Projects.Delete(ctx, project.ID))
	_, err = repos.Projects.FindByID(ctx, project.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, repos.Projects.Delete(ctx, project.ID), repository.ErrNotFound)

	settings, err := repos.Settings.Get(ctx)
	require.NoError(t, err)
	settings.CompanyName = "Acme Homes"
	require.NoError(t, repos.Settings.Save(ctx, settings))
	settings, _ = repos.Settings.Get(ctx)
	assert.Equal(t, "Acme Homes", settings.CompanyName)
}
