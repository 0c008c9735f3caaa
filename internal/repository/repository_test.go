package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/themainkeys/wingman.app-sub000/internal/identity"
	"github.com/themainkeys/wingman.app-sub000/internal/models"
	"github.com/themainkeys/wingman.app-sub000/internal/pricing"
	"github.com/themainkeys/wingman.app-sub000/pkg/database"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func intPtr(n int) *int { return &n }

func TestCatalog_VenueWithTablesOrderedByMinSpend(t *testing.T) {
	db := newTestDB(t)
	repo := NewCatalogRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.UpsertVenue(ctx, &models.Venue{ID: "v1", Name: "Club Nova", OperatingDays: []string{"Friday", "Saturday"}}))
	require.NoError(t, repo.UpsertTableOption(ctx, &models.TableOption{ID: "vip", VenueID: "v1", Name: "VIP", MinSpend: pricing.FromDollars(2000), TotalAvailable: intPtr(2)}))
	require.NoError(t, repo.UpsertTableOption(ctx, &models.TableOption{ID: "bar", VenueID: "v1", Name: "Bar", MinSpend: pricing.FromDollars(500)}))

	v, err := repo.FindVenue(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Friday", "Saturday"}, []string(v.OperatingDays))
	require.Len(t, v.TableOptions, 2)
	assert.Equal(t, "bar", v.TableOptions[0].ID)
	assert.Nil(t, v.TableOptions[0].TotalAvailable)
	require.NotNil(t, v.TableOptions[1].TotalAvailable)
	assert.Equal(t, 2, *v.TableOptions[1].TotalAvailable)

	// upsert updates in place
	require.NoError(t, repo.UpsertVenue(ctx, &models.Venue{ID: "v1", Name: "Club Nova II", OperatingDays: []string{"Sat"}}))
	v, err = repo.FindVenue(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, "Club Nova II", v.Name)
	assert.Len(t, v.TableOptions, 2)

	_, err = repo.FindVenue(ctx, "ghost")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCatalog_ExperiencePricesRoundTrip(t *testing.T) {
	db := newTestDB(t)
	repo := NewCatalogRepository(db)
	ctx := context.Background()

	general := pricing.FromDollars(120)
	female := pricing.FromDollars(90)
	require.NoError(t, repo.UpsertExperience(ctx, &models.Experience{
		ID: "yacht", Name: "Yacht Day", UnitType: models.UnitPerPerson, Capacity: intPtr(8),
		Prices: pricing.ExperiencePrices{General: &general, Female: &female},
	}))

	exp, err := repo.FindExperience(ctx, "yacht")
	require.NoError(t, err)
	require.NotNil(t, exp.Prices.General)
	assert.Equal(t, general, *exp.Prices.General)
	assert.Equal(t, female, *exp.Prices.Female)
	assert.Nil(t, exp.Prices.Promoter)
}

func TestSession_LoadMissingIsEmpty(t *testing.T) {
	repo := NewSessionRepository(newTestDB(t))
	state, err := repo.Load(context.Background(), 42)
	require.NoError(t, err)
	assert.Empty(t, state.Cart)
	assert.Empty(t, state.Booked)
}

func TestSession_SaveAndLoadKeepsVariants(t *testing.T) {
	repo := NewSessionRepository(newTestDB(t))
	ctx := context.Background()
	deposit := pricing.Deposit

	state := models.CartState{
		Cart: []models.BookableItem{{
			ID: "table-1", DisplayName: "Club Nova - VIP", Quantity: 1,
			FullPrice: pricing.FromDollars(2720), DepositPrice: &deposit, PaymentOption: models.PayDeposit,
			Details: models.TableDetails{VenueID: "v1", TableOptionID: "vip", GuestCount: 2, Guest: models.Self()},
		}},
		Watchlist: []models.BookableItem{{
			ID: "event-ph", DisplayName: "Techno Night", Quantity: 1, IsPlaceholder: true,
			Details: models.EventDetails{EventID: "ev-1", Guest: models.Self()},
		}},
	}
	require.NoError(t, repo.Save(ctx, 7, state))

	state.Cart[0].PaymentOption = models.PayFull
	require.NoError(t, repo.Save(ctx, 7, state))

	loaded, err := repo.Load(ctx, 7)
	require.NoError(t, err)
	require.Len(t, loaded.Cart, 1)
	assert.Equal(t, models.PayFull, loaded.Cart[0].PaymentOption)
	assert.Equal(t, models.KindTable, loaded.Cart[0].Kind())
	assert.Equal(t, state.Cart[0].Details, loaded.Cart[0].Details)
	require.Len(t, loaded.Watchlist, 1)
	assert.True(t, loaded.Watchlist[0].IsPlaceholder)
}

func TestReservation_Counts(t *testing.T) {
	db := newTestDB(t)
	repo := NewReservationRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, db, []models.TableReservation{
		{ItemID: "i1", UserID: 1, VenueID: "v1", TableOptionID: "vip", Date: "2026-10-24"},
		{ItemID: "i2", UserID: 2, VenueID: "v1", TableOptionID: "vip", Date: "2026-10-24"},
		{ItemID: "i3", UserID: 2, VenueID: "v1", TableOptionID: "bar", Date: "2026-10-24"},
		{ItemID: "i4", UserID: 3, VenueID: "v1", TableOptionID: "vip", Date: "2026-10-25"},
	}))

	counts, err := repo.CountByVenueDate(ctx, db, "v1", "2026-10-24")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"vip": 2, "bar": 1}, counts)

	n, err := repo.CountByTableDate(ctx, db, "vip", "2026-10-24")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, repo.DeleteByItemID(ctx, db, "i1"))
	n, err = repo.CountByTableDate(ctx, db, "vip", "2026-10-24")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestReservation_DuplicateItemRejected(t *testing.T) {
	db := newTestDB(t)
	repo := NewReservationRepository(db)
	ctx := context.Background()
	r := models.TableReservation{ItemID: "i1", UserID: 1, VenueID: "v1", TableOptionID: "vip", Date: "2026-10-24"}

	require.NoError(t, repo.Create(ctx, db, []models.TableReservation{r}))
	assert.Error(t, repo.Create(ctx, db, []models.TableReservation{r}))
}

func TestUser_DebitTokens(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	require.NoError(t, db.Create(&identity.User{ID: 1, Name: "Ana", TokenBalance: 5000}).Error)

	require.NoError(t, repo.DebitTokens(ctx, db, 1, 3000))
	assert.ErrorIs(t, repo.DebitTokens(ctx, db, 1, 2001), ErrInsufficientBalance)

	u, err := repo.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), u.TokenBalance)
	assert.Equal(t, identity.RoleUser, u.Role)
}

func TestGuestlist_AttendanceAndStats(t *testing.T) {
	db := newTestDB(t)
	repo := NewGuestlistRepository(db)
	ctx := context.Background()

	reqs := []*models.GuestlistJoinRequest{
		{ID: "g1", UserID: 1, VenueID: "v1", PromoterID: "p1", Date: "2026-10-24", MaleGuests: 1, Status: models.GuestlistPending, AttendanceStatus: models.AttendancePending},
		{ID: "g2", UserID: 2, VenueID: "v1", PromoterID: "p1", Date: "2026-10-24", FemaleGuests: 2, Status: models.GuestlistApproved, IsVIP: true, AttendanceStatus: models.AttendancePending},
		{ID: "g3", UserID: 3, VenueID: "v2", PromoterID: "p1", Date: "2026-10-24", MaleGuests: 1, Status: models.GuestlistPending, AttendanceStatus: models.AttendancePending},
	}
	for _, r := range reqs {
		require.NoError(t, repo.Create(ctx, db, r))
	}

	require.NoError(t, repo.UpdateAttendance(ctx, "g1", models.AttendanceNoShow))
	require.NoError(t, repo.UpdateAttendance(ctx, "g2", models.AttendanceShow))
	assert.ErrorIs(t, repo.UpdateAttendance(ctx, "ghost", models.AttendanceShow), gorm.ErrRecordNotFound)

	stats, err := repo.Stats(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, &models.GuestlistStats{VenueID: "v1", Requests: 2, Approved: 1, VIP: 1, Shows: 1, NoShows: 1}, stats)
}

func TestCancellation_Create(t *testing.T) {
	db := newTestDB(t)
	repo := NewCancellationRepository(db)
	ctx := context.Background()

	item := models.BookableItem{ID: "e1", Quantity: 1, Details: models.EventDetails{EventID: "ev-1", Guest: models.Self()}}
	require.NoError(t, repo.Create(ctx, db, &models.Cancellation{UserID: 1, ItemID: "e1", Kind: item.Kind(), Reason: "sick", Item: datatypes.NewJSONType(item)}))

	out, err := repo.FindByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, models.KindEvent, out[0].Kind)
	assert.Equal(t, "ev-1", out[0].Item.Data().Details.(models.EventDetails).EventID)
}
