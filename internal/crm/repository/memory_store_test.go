package repository_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/entity"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreCRUD(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore[entity.Lead]()

	require.NoError(t, store.Create(ctx, &entity.Lead{ID: "l1", Name: "Amit Sharma", Status: entity.LeadStatusNew}))
	require.NoError(t, store.Create(ctx, &entity.Lead{ID: "l2", Name: "Priya Patel", Status: entity.LeadStatusContacted}))
	assert.ErrorIs(t, store.Create(ctx, &entity.Lead{ID: "l1"}), repository.ErrDuplicate)

	got, err := store.FindByID(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, "Amit Sharma", got.Name)

	// 返回的是副本
	got.Name = "changed"
	again, _ := store.FindByID(ctx, "l1")
	assert.Equal(t, "Amit Sharma", again.Name)

	got.Status = entity.LeadStatusQualified
	require.NoError(t, store.Update(ctx, got))
	again, _ = store.FindByID(ctx, "l1")
	assert.Equal(t, entity.LeadStatusQualified, again.Status)

	assert.ErrorIs(t, store.Update(ctx, &entity.Lead{ID: "missing"}), repository.ErrNotFound)

	all, err := store.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "l2", all[0].ID, "newest record first")

	require.NoError(t, store.Delete(ctx, "l2"))
	assert.ErrorIs(t, store.Delete(ctx, "l2"), repository.ErrNotFound)
	_, err = store.FindByID(ctx, "l2")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	all, _ = store.FindAll(ctx)
	assert.Len(t, all, 1)
}

func TestMemoryStoreConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore[entity.Project]()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("p%d", i)
			_ = store.Create(ctx, &entity.Project{ID: id})
			_ = store.Update(ctx, &entity.Project{ID: id, Name: "updated"})
			_, _ = store.FindAll(ctx)
		}(i)
	}
	wg.Wait()

	all, err := store.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 50)
	for _, p := range all {
		assert.Equal(t, "updated", p.Name)
	}
}

func TestMemoryActivityStore(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryActivityStore()

	require.NoError(t, store.Append(ctx, &entity.Activity{ID: "a1", EntityType: entity.EntityLead, EntityID: "l1", Type: entity.ActivityCreated}))
	require.NoError(t, store.Append(ctx, &entity.Activity{ID: "a2", EntityType: entity.EntityLead, EntityID: "l1", Type: entity.ActivityNote}))
	require.NoError(t, store.Append(ctx, &entity.Activity{ID: "a3", EntityType: entity.EntityProject, EntityID: "l1", Type: entity.ActivityCreated}))

	list, err := store.ListByEntity(ctx, entity.EntityLead, "l1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a2", list[0].ID)
	assert.Equal(t, "a1", list[1].ID)

	require.NoError(t, store.DeleteByEntity(ctx, entity.EntityLead, "l1"))
	list, _ = store.ListByEntity(ctx, entity.EntityLead, "l1")
	assert.NotNil(t, list)
	assert.Empty(t, list)

	list, _ = store.ListByEntity(ctx, entity.EntityProject, "l1")
	assert.Len(t, list, 1)
}

func TestMemoryFileStore(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryFileStore()

	require.NoError(t, store.Create(ctx, &entity.ProjectFile{ID: "f1", ProjectID: "p1", Name: "brochure.pdf"}))
	require.NoError(t, store.Create(ctx, &entity.ProjectFile{ID: "f2", ProjectID: "p1", Name: "floorplan.png"}))
	require.NoError(t, store.Create(ctx, &entity.ProjectFile{ID: "f3", ProjectID: "p2", Name: "other.pdf"}))

	files, err := store.ListByProject(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, files, 2)

	removed, err := store.DeleteByProject(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, removed, 2)

	files, _ = store.ListByProject(ctx, "p1")
	assert.Empty(t, files)
	_, err = store.FindByID(ctx, "f3")
	assert.NoError(t, err)
}

func TestMemorySettingsStore(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemorySettingsStore()

	s, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Gajrajah Realty", s.CompanyName)

	s.CompanyName = "Acme Homes"
	s.LeadSources = entity.StringList{"Website"}
	require.NoError(t, store.Save(ctx, s))

	got, _ := store.Get(ctx)
	assert.Equal(t, "Acme Homes", got.CompanyName)
	assert.Equal(t, entity.StringList{"Website"}, got.LeadSources)
	assert.Equal(t, entity.SettingsID, got.ID)
}
