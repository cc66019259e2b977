package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/entity"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/repository"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/service"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/sse"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/testutil"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/shared/cache"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/shared/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type bookingFixture struct {
	env     *testutil.TestEnv
	project *entity.Project
	unit    *entity.InventoryUnit
	lead    *entity.Lead
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	env := testutil.NewEnv(t)
	ctx := context.Background()

	project := createProject(t, env, "Green Valley", 10)
	unit, err := env.Services.Inventory.Create(ctx, "tester", &service.CreateUnitRequest{
		ProjectID:  project.ID,
		UnitNumber: "A-101",
		UnitType:   "2BHK",
		Price:      6500000,
	})
	require.NoError(t, err)
	lead, err := env.Services.Lead.Create(ctx, "tester", &service.CreateLeadRequest{
		Name:       "Amit Sharma",
		Phone:      "9820000000",
		Email:      "amit@example.com",
		AssignedTo: "Priya Agent",
	})
	require.NoError(t, err)
	return &bookingFixture{env: env, project: project, unit: unit, lead: lead}
}

func (f *bookingFixture) unitStatus(t *testing.T) string {
	t.Helper()
	u, err := f.env.Services.Inventory.Get(context.Background(), f.unit.ID)
	require.NoError(t, err)
	return u.Status
}

func (f *bookingFixture) available(t *testing.T) int {
	t.Helper()
	p, err := f.env.Services.Project.Get(context.Background(), f.project.ID)
	require.NoError(t, err)
	return p.AvailableUnits
}

func TestBookingCreateReservesUnit(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	b, err := f.env.Services.Booking.Create(ctx, "Admin", &service.CreateBookingRequest{
		LeadID:     f.lead.ID,
		UnitID:     f.unit.ID,
		PaidAmount: 500000,
	})
	require.NoError(t, err)

	assert.Equal(t, "Amit Sharma", b.CustomerName)
	assert.Equal(t, "9820000000", b.CustomerPhone)
	assert.Equal(t, "Priya Agent", b.AssignedTo)
	assert.Equal(t, "A-101", b.UnitNumber)
	assert.Equal(t, f.project.ID, b.ProjectID)
	assert.Equal(t, "Green Valley", b.ProjectName)
	assert.Equal(t, 6500000.0, b.Amount)
	assert.Equal(t, entity.BookingStatusPending, b.Status)
	assert.Equal(t, entity.PaymentStatusPartial, b.PaymentStatus)
	require.NotNil(t, b.BookingDate)

	assert.Equal(t, entity.UnitStatusBooked, f.unitStatus(t))
	assert.Equal(t, 9, f.available(t))

	lead, err := f.env.Services.Lead.Get(ctx, f.lead.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.LeadStatusBooked, lead.Status)

	_, err = f.env.Services.Booking.Create(ctx, "Admin", &service.CreateBookingRequest{CustomerName: "Other", UnitID: f.unit.ID})
	assert.ErrorIs(t, err, service.ErrUnitUnavailable)
}

func TestBookingCreateCompletedSellsUnit(t *testing.T) {
	f := newBookingFixture(t)

	b, err := f.env.Services.Booking.Create(context.Background(), "Admin", &service.CreateBookingRequest{
		CustomerName: "Vikram Singh",
		UnitID:       f.unit.ID,
		Status:       entity.BookingStatusCompleted,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusCompleted, b.Status)
	assert.Equal(t, entity.UnitStatusSold, f.unitStatus(t))
	assert.Equal(t, 9, f.available(t))
}

var errStoreDown = errors.New("store down")

type failingBookings struct {
	repository.Store[entity.Booking]
}

func (failingBookings) Create(context.Context, *entity.Booking) error {
	return errStoreDown
}

// flakyUnits fails every Update after the first one.
type flakyUnits struct {
	repository.Store[entity.InventoryUnit]
	updates int
}

func (s *flakyUnits) Update(ctx context.Context, u *entity.InventoryUnit) error {
	s.updates++
	if s.updates > 1 {
		return errStoreDown
	}
	return s.Store.Update(ctx, u)
}

func TestBookingCreateLogsFailedUnitRelease(t *testing.T) {
	repos := repository.NewMemoryRepositories()
	observed, logs := observer.New(zapcore.InfoLevel)
	env := &testutil.TestEnv{
		Repos: repos,
		Services: service.NewServices(repos, cache.NewMemoryCache(), storage.NewMemoryStore(),
			sse.NewHub(zap.NewNop()), testutil.AuthConfig(), zap.New(observed)),
	}
	ctx := context.Background()

	project := createProject(t, env, "Green Valley", 10)
	unit, err := env.Services.Inventory.Create(ctx, "tester", &service.CreateUnitRequest{
		ProjectID:  project.ID,
		UnitNumber: "A-101",
		Price:      6500000,
	})
	require.NoError(t, err)

	repos.Bookings = failingBookings{Store: repos.Bookings}
	repos.Inventory = &flakyUnits{Store: repos.Inventory}
	env.Services = service.NewServices(repos, cache.NewMemoryCache(), storage.NewMemoryStore(),
		sse.NewHub(zap.NewNop()), testutil.AuthConfig(), zap.New(observed))

	_, err = env.Services.Booking.Create(ctx, "Admin", &service.CreateBookingRequest{
		CustomerName: "Vikram Singh",
		UnitID:       unit.ID,
	})
	assert.ErrorIs(t, err, errStoreDown)

	entries := logs.FilterMessage("release unit after failed booking").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, unit.ID, entries[0].ContextMap()["unit_id"])
}

func TestBookingCreateValidation(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	_, err := f.env.Services.Booking.Create(ctx, "Admin", &service.CreateBookingRequest{UnitID: f.unit.ID})
	assert.ErrorIs(t, err, service.ErrValidation)

	_, err = f.env.Services.Booking.Create(ctx, "Admin", &service.CreateBookingRequest{CustomerName: "X", UnitID: "missing"})
	assert.ErrorIs(t, err, service.ErrValidation)

	_, err = f.env.Services.Booking.Create(ctx, "Admin", &service.CreateBookingRequest{CustomerName: "X", Amount: 100, PaidAmount: 200})
	assert.ErrorIs(t, err, service.ErrValidation)

	assert.Equal(t, entity.UnitStatusAvailable, f.unitStatus(t))
}

func TestBookingStatusSyncsUnit(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	b, err := f.env.Services.Booking.Create(ctx, "Admin", &service.CreateBookingRequest{LeadID: f.lead.ID, UnitID: f.unit.ID})
	require.NoError(t, err)

	change, err := f.env.Services.Booking.UpdateStatus(ctx, "Admin", b.ID, entity.BookingStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusPending, change.PreviousStatus)
	assert.Equal(t, "Priya Agent", change.Activity.CreatedBy)
	assert.Equal(t, entity.UnitStatusAvailable, f.unitStatus(t))
	assert.Equal(t, 10, f.available(t))

	_, err = f.env.Services.Booking.UpdateStatus(ctx, "Admin", b.ID, entity.BookingStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, entity.UnitStatusBooked, f.unitStatus(t))

	_, err = f.env.Services.Booking.UpdateStatus(ctx, "Admin", b.ID, entity.BookingStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, entity.UnitStatusSold, f.unitStatus(t))

	_, err = f.env.Services.Booking.UpdateStatus(ctx, "Admin", b.ID, "Refunded")
	assert.ErrorIs(t, err, service.ErrInvalidStatus)
	_, err = f.env.Services.Booking.UpdateStatus(ctx, "Admin", "missing", entity.BookingStatusConfirmed)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestBookingReactivateRequiresFreeUnit(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	first, err := f.env.Services.Booking.Create(ctx, "Admin", &service.CreateBookingRequest{CustomerName: "First", UnitID: f.unit.ID})
	require.NoError(t, err)
	_, err = f.env.Services.Booking.UpdateStatus(ctx, "Admin", first.ID, entity.BookingStatusCancelled)
	require.NoError(t, err)

	_, err = f.env.Services.Booking.Create(ctx, "Admin", &service.CreateBookingRequest{CustomerName: "Second", UnitID: f.unit.ID})
	require.NoError(t, err)

	_, err = f.env.Services.Booking.Update(ctx, "Admin", first.ID, &service.UpdateBookingRequest{Status: strPtr(entity.BookingStatusConfirmed)})
	assert.ErrorIs(t, err, service.ErrUnitUnavailable)

	got, err := f.env.Services.Booking.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusCancelled, got.Status)
}

func TestBookingUpdatePaymentStatus(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	b, err := f.env.Services.Booking.Create(ctx, "Admin", &service.CreateBookingRequest{CustomerName: "X", Amount: 1000})
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusPending, b.PaymentStatus)

	b, err = f.env.Services.Booking.Update(ctx, "Admin", b.ID, &service.UpdateBookingRequest{PaidAmount: floatPtr(1000)})
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusPaid, b.PaymentStatus)
}

func TestBookingDeleteFreesUnit(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	b, err := f.env.Services.Booking.Create(ctx, "Admin", &service.CreateBookingRequest{CustomerName: "X", UnitID: f.unit.ID})
	require.NoError(t, err)
	require.Equal(t, entity.UnitStatusBooked, f.unitStatus(t))

	require.NoError(t, f.env.Services.Booking.Delete(ctx, "Admin", b.ID))
	assert.Equal(t, entity.UnitStatusAvailable, f.unitStatus(t))
	_, err = f.env.Services.Booking.Get(ctx, b.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, f.env.Services.Booking.Delete(ctx, "Admin", b.ID), repository.ErrNotFound)
}

func TestInventoryUpdateAndDelete(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	u, err := f.env.Services.Inventory.Update(ctx, "Admin", f.unit.ID, &service.UpdateUnitRequest{
		Floor:  intPtr(4),
		Status: strPtr(entity.UnitStatusBlocked),
	})
	require.NoError(t, err)
	assert.Equal(t, 4, u.Floor)
	assert.Equal(t, "2BHK", u.UnitType)
	assert.Equal(t, 9, f.available(t))

	_, err = f.env.Services.Inventory.UpdateStatus(ctx, "Admin", f.unit.ID, "Demolished")
	assert.ErrorIs(t, err, service.ErrInvalidStatus)

	_, err = f.env.Services.Inventory.Create(ctx, "Admin", &service.CreateUnitRequest{ProjectID: "missing", UnitNumber: "Z-1"})
	assert.ErrorIs(t, err, service.ErrValidation)

	require.NoError(t, f.env.Services.Inventory.Delete(ctx, f.unit.ID))
	_, err = f.env.Services.Inventory.Get(ctx, f.unit.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
