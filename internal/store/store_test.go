package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/data"
	"storefront/internal/data/datatest"
	"storefront/internal/store"
)

func newStore(t *testing.T) (*store.Store, datatest.Fixture) {
	t.Helper()
	gdb, f := datatest.OpenSeeded(t)
	return store.New(gdb), f
}

func TestCatalogRows(t *testing.T) {
	st, _ := newStore(t)

	rows, err := st.CatalogRows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, "P1", rows[0].ProductID)
	assert.Equal(t, "S1001", rows[0].SellerID)
	assert.Equal(t, 5, rows[0].Stock)
	assert.Equal(t, "5.50", rows[1].Price.StringFixed(2))
	assert.Equal(t, "P3", rows[2].ProductID)
	assert.Zero(t, rows[2].Stock)
	assert.Empty(t, rows[2].SellerID)

	cats, err := st.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"books", "electronics", "garden", "toys"}, cats)
}

func TestDecrementStock(t *testing.T) {
	st, _ := newStore(t)
	ctx := context.Background()

	ok, err := st.DecrementStock(ctx, "P2", 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = st.DecrementStock(ctx, "P2", 2)
	require.NoError(t, err)
	assert.False(t, ok, "only one unit left")

	left, err := st.StockOf(ctx, "P2")
	require.NoError(t, err)
	assert.Equal(t, 1, left)

	_, err = st.LockStock(ctx, "P3")
	assert.True(t, store.IsNotFound(err))
}

func TestTransactionRollsBack(t *testing.T) {
	st, f := newStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := st.Transaction(ctx, func(tx *store.Store) error {
		if err := tx.CreateOrder(ctx, &data.Order{CustomerID: f.Carla, Status: data.StatusInProgress, PurchasedAt: time.Now()}); err != nil {
			return err
		}
		if _, err := tx.DecrementStock(ctx, "P1", 1); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	n, err := st.CountOrdersOf(ctx, f.Carla)
	require.NoError(t, err)
	assert.Zero(t, n)

	left, err := st.StockOf(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, 5, left)
}

func TestSearchOrders(t *testing.T) {
	st, f := newStore(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter store.OrderFilter
		want   []uint64
	}{
		{"all newest first", store.OrderFilter{}, []uint64{f.O4, f.O3, f.O2, f.O1}},
		{"by customer", store.OrderFilter{CustomerID: f.Ana}, []uint64{f.O2, f.O1}},
		{"by id", store.OrderFilter{OrderID: f.O3}, []uint64{f.O3}},
		{"by category", store.OrderFilter{Category: "books"}, []uint64{f.O3, f.O2}},
		{"status ignores case", store.OrderFilter{Status: "In Progress"}, []uint64{f.O2}},
		{"no match", store.OrderFilter{Category: "toys"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders, err := st.SearchOrders(ctx, tt.filter)
			require.NoError(t, err)
			var got []uint64
			for _, o := range orders {
				got = append(got, o.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTotals(t *testing.T) {
	st, f := newStore(t)
	ctx := context.Background()

	payments, err := st.PaymentTotals(ctx, []uint64{f.O1, f.O2})
	require.NoError(t, err)
	assert.Equal(t, "20.00", payments[f.O1].StringFixed(2))
	assert.Equal(t, "15.50", payments[f.O2].StringFixed(2))

	qty, err := st.QuantityTotals(ctx, []uint64{f.O2, f.O3})
	require.NoError(t, err)
	assert.EqualValues(t, 2, qty[f.O2])
	assert.EqualValues(t, 2, qty[f.O3])

	empty, err := st.PaymentTotals(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestOrderLines(t *testing.T) {
	st, f := newStore(t)

	lines, err := st.OrderLines(context.Background(), f.O2)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "P2", lines[0].ProductID)
	assert.Equal(t, "Go Programming", lines[0].Description)
	assert.Equal(t, "5.50", lines[0].Price.StringFixed(2))
	assert.Equal(t, "P1", lines[1].ProductID)
	assert.Equal(t, "S1001", lines[1].SellerID)
}

func TestTransitionOrder(t *testing.T) {
	st, f := newStore(t)
	ctx := context.Background()

	require.NoError(t, st.TransitionOrder(ctx, f.O2, data.StatusInProgress, data.StatusOnTheWay))
	o, err := st.FindOrder(ctx, f.O2)
	require.NoError(t, err)
	assert.Equal(t, data.StatusOnTheWay, o.Status)

	err = st.TransitionOrder(ctx, f.O2, data.StatusInProgress, data.StatusDelayed)
	assert.ErrorIs(t, err, store.ErrStatusChanged)
}

func TestUpsertReview(t *testing.T) {
	st, f := newStore(t)
	ctx := context.Background()

	none, err := st.FindReview(ctx, f.O2)
	require.NoError(t, err)
	assert.Nil(t, none)

	require.NoError(t, st.UpsertReview(ctx, &data.OrderReview{OrderID: f.O2, Score: 4, Comment: "ok", ReviewedAt: time.Now()}))
	require.NoError(t, st.UpsertReview(ctx, &data.OrderReview{OrderID: f.O2, Score: 2, Comment: "changed", ReviewedAt: time.Now()}))

	var n int64
	require.NoError(t, st.DB().Model(&data.OrderReview{}).Where("order_id = ?", f.O2).Count(&n).Error)
	assert.EqualValues(t, 1, n)

	r, err := st.FindReview(ctx, f.O2)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, 2, r.Score)
	assert.Equal(t, "changed", r.Comment)
}

func TestSearchCustomers(t *testing.T) {
	st, f := newStore(t)
	ctx := context.Background()

	got, err := st.SearchCustomers(ctx, store.CustomerFilter{FirstName: "AN"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, f.Ana, got[0].ID)

	got, err = st.SearchCustomers(ctx, store.CustomerFilter{Status: "delivered"})
	require.NoError(t, err)
	require.Len(t, got, 2)

	got, err = st.SearchCustomers(ctx, store.CustomerFilter{LastName: "lima"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, f.Carla, got[0].ID)
}

func TestEmailTakenAndZip(t *testing.T) {
	st, f := newStore(t)
	ctx := context.Background()

	taken, err := st.EmailTaken(ctx, f.AnaEmail)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = st.EmailTaken(ctx, datatest.ManagerLogin)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = st.EmailTaken(ctx, "new@example.com")
	require.NoError(t, err)
	assert.False(t, taken)

	ok, err := st.ZipExists(ctx, "01001")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = st.ZipExists(ctx, "99999")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsDuplicate(t *testing.T) {
	st, f := newStore(t)
	ctx := context.Background()

	err := st.CreateCustomer(ctx, &data.Customer{FirstName: "Ana", Email: f.AnaEmail})
	require.Error(t, err)
	assert.True(t, store.IsDuplicate(err))

	err = st.CreateLogin(ctx, &data.UserPortal{UserName: datatest.SellerLogin, Portal: data.PortalSeller})
	require.Error(t, err)
	assert.True(t, store.IsDuplicate(err))

	_, err = st.FindCustomer(ctx, 9999)
	assert.False(t, store.IsDuplicate(err))
}

func TestSearchPayments(t *testing.T) {
	st, f := newStore(t)
	ctx := context.Background()

	rows, err := st.SearchPayments(ctx, store.PaymentFilter{PaymentType: "credit_card"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, f.O1, rows[0].OrderID)
	assert.Equal(t, "Ana", rows[0].FirstName)
	assert.Equal(t, 2, rows[1].Installments)

	types, err := st.PaymentTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"boleto", "credit_card", "voucher"}, types)
}

func TestSellers(t *testing.T) {
	st, _ := newStore(t)
	ctx := context.Background()

	activity, err := st.SellerActivity(ctx)
	require.NoError(t, err)
	require.Len(t, activity, 3)
	assert.Equal(t, "S1001", activity[0].SellerID)
	assert.EqualValues(t, 3, activity[0].ItemCount)
	assert.Equal(t, "S1004", activity[2].SellerID)
	assert.Zero(t, activity[2].ItemCount)

	loc, err := st.SellerWithLocation(ctx, "S1002")
	require.NoError(t, err)
	require.NotNil(t, loc)
	assert.Equal(t, "rio de janeiro", loc.City)
	assert.Equal(t, "RJ", loc.State)
	assert.Equal(t, "paulo@sellers.example.com", loc.Email)

	missing, err := st.SellerWithLocation(ctx, "S9999")
	require.NoError(t, err)
	assert.Nil(t, missing)

	zip, err := st.ZipFor(ctx, "campinas", "SP")
	require.NoError(t, err)
	assert.Equal(t, "13010", zip)

	cities, err := st.Cities(ctx, "SP")
	require.NoError(t, err)
	assert.Equal(t, []string{"campinas", "sao paulo"}, cities)

	states, err := st.States(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"RJ", "SP"}, states)
}

func TestDeleteSellerKeepsOrderedProducts(t *testing.T) {
	st, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, st.DB().Create(&data.Product{ID: "P9", Category: "books", Description: "Unsold", Price: datatest.Money("1.00")}).Error)
	require.NoError(t, st.DB().Create(&data.ProductStock{ProductID: "P9", SellerID: "S1002", Stock: 1}).Error)

	require.NoError(t, st.Transaction(ctx, func(tx *store.Store) error {
		return tx.DeleteSeller(ctx, "S1002")
	}))

	var products []string
	require.NoError(t, st.DB().Model(&data.Product{}).Order("product_id").Pluck("product_id", &products).Error)
	assert.Equal(t, []string{"P1", "P2", "P3", "P4"}, products, "P2 is referenced by orders, P9 is not")

	_, err := st.StockOf(ctx, "P2")
	assert.True(t, store.IsNotFound(err))
	_, err = st.FindSeller(ctx, "S1002")
	assert.True(t, store.IsNotFound(err))
}

func TestDashboardQueries(t *testing.T) {
	st, _ := newStore(t)
	ctx := context.Background()

	total, err := st.TotalSales(ctx)
	require.NoError(t, err)
	assert.Equal(t, "56.50", total.StringFixed(2))

	n, err := st.CountOrders(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)

	avg, err := st.AverageRating(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, avg, 0.001)

	top, err := st.TopSellers(ctx, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "S1001", top[0].SellerID)
	assert.Equal(t, "40.00", top[0].Revenue.StringFixed(2))

	byCat, err := st.AverageReviewByCategory(ctx)
	require.NoError(t, err)
	require.Len(t, byCat, 2)
	assert.Equal(t, "books", byCat[0].Category)
	assert.InDelta(t, 3.0, byCat[0].Average, 0.001)
	assert.InDelta(t, 5.0, byCat[1].Average, 0.001)

	statuses, err := st.StatusCounts(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 3)
	assert.Equal(t, store.LabelCount{Label: data.StatusDelivered, Count: 2}, statuses[0])

	paymentsByType, err := st.PaymentTypeCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, store.LabelCount{Label: "credit_card", Count: 2}, paymentsByType[0])

	revenue, err := st.RevenueByCategory(ctx)
	require.NoError(t, err)
	require.Len(t, revenue, 2)
	assert.Equal(t, "electronics", revenue[0].Category)
	assert.Equal(t, "40.00", revenue[0].Amount.StringFixed(2))
	assert.Equal(t, "16.50", revenue[1].Amount.StringFixed(2))

	dates, err := st.DeliveryDates(ctx)
	require.NoError(t, err)
	assert.Len(t, dates, 4)
}
