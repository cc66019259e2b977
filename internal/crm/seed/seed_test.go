package seed_test

import (
	"context"
	"testing"

	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/entity"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/seed"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/service"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/testutil"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/shared/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var opts = seed.Options{AdminEmail: "admin@gajrajah.com", AdminPassword: "admin123"}

func TestRunSeedsDemoData(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	res, err := seed.Run(ctx, env.Services, opts, nil)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, 4, res.Users)
	assert.Equal(t, 3, res.Projects)
	assert.Equal(t, 5, res.Leads)
	assert.Equal(t, 1, res.Bookings)
	assert.Equal(t, 3, res.SiteVisits)

	leads, err := env.Services.Lead.List(ctx, query.Params{
		Filters: map[string]string{"status": entity.LeadStatusNew},
		Search:  "amit",
	})
	require.NoError(t, err)
	require.Len(t, leads.Items, 1)
	assert.Equal(t, "Amit Sharma", leads.Items[0].Name)

	units, err := env.Services.Inventory.List(ctx, query.Params{Filters: map[string]string{"status": entity.UnitStatusBooked}})
	require.NoError(t, err)
	require.Equal(t, 1, units.Total)
	assert.Equal(t, "A-201", units.Items[0].UnitNumber)

	login, err := env.Services.User.Login(ctx, &service.LoginRequest{Email: opts.AdminEmail, Password: opts.AdminPassword})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, login.User.Role)
}

func TestRunIsIdempotent(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	_, err := seed.Run(ctx, env.Services, opts, nil)
	require.NoError(t, err)

	res, err := seed.Run(ctx, env.Services, opts, nil)
	require.NoError(t, err)
	assert.True(t, res.Skipped)

	projects, err := env.Services.Project.List(ctx, query.Params{})
	require.NoError(t, err)
	assert.Equal(t, 3, projects.Total)
}
