package repository

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookingDomain "github.com/RyzenMagsino/Carwash/internal/domain/booking"
	"github.com/RyzenMagsino/Carwash/pkg/domain"
)

func seedBooking(t *testing.T, now time.Time) *bookingDomain.Booking {
	t.Helper()
	bk, err := bookingDomain.NewBooking(
		bookingDomain.Customer{Name: "Maria Santos", Email: "maria@example.com", Phone: "+639181234567"},
		bookingDomain.Vehicle{PlateNumber: "XYZ-5678", Type: "suv"},
		[]bookingDomain.ServiceItem{
			{Name: "Premium Wash", PriceCents: 25000},
			{Name: "Vacuum", PriceCents: 8000},
		},
		33000,
		nil,
		"regular customer",
		now,
	)
	require.NoError(t, err)
	return bk
}

func TestMemoryRepository_SaveAndFind(t *testing.T) {
	repo := NewMemoryBookingRepository()
	ctx := context.Background()
	bk := seedBooking(t, time.Now())

	require.NoError(t, repo.Save(ctx, bk))

	found, err := repo.FindByID(ctx, bk.ID())
	require.NoError(t, err)
	assert.Equal(t, bk.BookingNumber(), found.BookingNumber())
	assert.Equal(t, bk.Customer(), found.Customer())
	assert.Equal(t, bk.Services(), found.Services())

	byNumber, err := repo.FindByNumber(ctx, bk.BookingNumber())
	require.NoError(t, err)
	assert.Equal(t, bk.ID(), byNumber.ID())

	// Saving the same booking twice conflicts.
	assert.True(t, domain.IsConflict(repo.Save(ctx, bk)))
}

func TestMemoryRepository_FindMissing(t *testing.T) {
	repo := NewMemoryBookingRepository()
	ctx := context.Background()

	_, err := repo.FindByID(ctx, seedBooking(t, time.Now()).ID())
	assert.True(t, domain.IsNotFound(err))

	_, err = repo.FindByNumber(ctx, "BK-ZZZZZZ")
	assert.True(t, domain.IsNotFound(err))
}

func TestMemoryRepository_OptimisticLocking(t *testing.T) {
	repo := NewMemoryBookingRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	bk := seedBooking(t, now)
	require.NoError(t, repo.Save(ctx, bk))

	// Two aggregates loaded from the same stored version.
	first, err := repo.FindByID(ctx, bk.ID())
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, bk.ID())
	require.NoError(t, err)

	require.NoError(t, first.Approve("Team A", now))
	first.IncrementVersion()
	require.NoError(t, repo.Update(ctx, first))

	require.NoError(t, second.Reject(now))
	second.IncrementVersion()
	assert.True(t, domain.IsConflict(repo.Update(ctx, second)))

	stored, err := repo.FindByID(ctx, bk.ID())
	require.NoError(t, err)
	assert.Equal(t, bookingDomain.StatusApproved, stored.Status())
}

func TestMemoryRepository_ListAndCount(t *testing.T) {
	repo := NewMemoryBookingRepository()
	ctx := context.Background()
	base := time.Now().UTC()

	for i := 0; i < 5; i++ {
		bk := seedBooking(t, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, repo.Save(ctx, bk))
	}
	rejected := seedBooking(t, base.Add(time.Hour))
	require.NoError(t, rejected.Reject(base.Add(time.Hour)))
	require.NoError(t, repo.Save(ctx, rejected))

	all, total, err := repo.ListAll(ctx, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(6), total)
	assert.Len(t, all, 4)
	// Newest first.
	assert.Equal(t, rejected.ID(), all[0].ID())

	page2, _, err := repo.ListAll(ctx, 2, 4)
	require.NoError(t, err)
	assert.Len(t, page2, 2)

	pending, total, err := repo.ListByStatus(ctx, bookingDomain.StatusPending, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, pending, 5)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), counts["pending"])
	assert.Equal(t, int64(1), counts["rejected"])
}

func TestMemoryRepository_ListOngoing(t *testing.T) {
	repo := NewMemoryBookingRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	ongoing := seedBooking(t, now)
	require.NoError(t, ongoing.Approve("Team A", now))
	require.NoError(t, ongoing.StartService(now, 30*time.Minute))
	require.NoError(t, repo.Save(ctx, ongoing))

	require.NoError(t, repo.Save(ctx, seedBooking(t, now)))

	result, err := repo.ListOngoing(ctx)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, ongoing.ID(), result[0].ID())
	require.NotNil(t, result[0].ArrivalDeadline())
}

func TestMemoryRepository_SnapshotRestoreRoundTrip(t *testing.T) {
	repo := NewMemoryBookingRepository()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	bk := seedBooking(t, now)
	require.NoError(t, bk.Approve("Team A", now))
	require.NoError(t, bk.StartService(now.Add(time.Minute), 30*time.Minute))
	require.NoError(t, repo.Save(ctx, bk))

	var buf bytes.Buffer
	require.NoError(t, repo.Snapshot(&buf))

	restored := NewMemoryBookingRepository()
	require.NoError(t, restored.Restore(&buf))

	got, err := restored.FindByID(ctx, bk.ID())
	require.NoError(t, err)
	assert.Equal(t, bk.BookingNumber(), got.BookingNumber())
	assert.Equal(t, bookingDomain.StatusOngoing, got.Status())
	assert.Equal(t, "Team A", got.AssignedTeam())
	assert.Equal(t, bk.Version(), got.Version())
	require.NotNil(t, got.ApprovedAt())
	require.NotNil(t, got.ArrivalDeadline())
	assert.True(t, got.ApprovedAt().Equal(*bk.ApprovedAt()))
	assert.True(t, got.ArrivalDeadline().Equal(*bk.ArrivalDeadline()))
}

func TestMemoryRepository_RestoreRejectsUnknownStatus(t *testing.T) {
	repo := NewMemoryBookingRepository()
	snapshot := bytes.NewBufferString(`[{"id":"6b3b1c9a-6f0a-4a9f-9a69-5f3a4f1f2d33","booking_number":"BK-ABC234","status":"washing","version":1}]`)
	assert.Error(t, repo.Restore(snapshot))
}
