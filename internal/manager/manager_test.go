package manager

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/apperr"
	"storefront/internal/data"
	"storefront/internal/data/datatest"
	"storefront/internal/logger"
	"storefront/internal/store"
)

func newService(t *testing.T) (*Service, *store.Store, datatest.Fixture) {
	t.Helper()
	gdb, fix := datatest.OpenSeeded(t)
	st := store.New(gdb)
	return NewService(st, logger.Discard()), st, fix
}

func sellerForm() SellerForm {
	return SellerForm{
		FirstName: "Tiago",
		LastName:  "Melo",
		Email:     "tiago@sellers.example.com",
		Phone:     "3333",
		City:      "campinas",
		State:     "SP",
	}
}

func TestNextSellerID(t *testing.T) {
	id, ok := NextSellerID(nil)
	require.True(t, ok)
	assert.Equal(t, "S1001", id)

	id, ok = NextSellerID([]string{"S1001", "S1002", "S1004"})
	require.True(t, ok)
	assert.Equal(t, "S1003", id)

	full := make([]string, 0, lastSellerNumber-firstSellerNumber+1)
	for n := firstSellerNumber; n <= lastSellerNumber; n++ {
		full = append(full, fmt.Sprintf("S%d", n))
	}
	_, ok = NextSellerID(full)
	assert.False(t, ok)
}

func TestListSellers(t *testing.T) {
	svc, _, _ := newService(t)

	rows, err := svc.ListSellers(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "S1001", rows[0].SellerID)
	assert.EqualValues(t, 3, rows[0].ItemCount)
	assert.Equal(t, "S1002", rows[1].SellerID)
	assert.EqualValues(t, 2, rows[1].ItemCount)
	assert.Equal(t, "S1004", rows[2].SellerID)
	assert.Zero(t, rows[2].ItemCount)
}

func TestSellerDetail(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	seller, err := svc.SellerDetail(ctx, "S1002")
	require.NoError(t, err)
	assert.Equal(t, "Paulo", seller.FirstName)
	assert.Equal(t, "rio de janeiro", seller.City)
	assert.Equal(t, "RJ", seller.State)

	_, err = svc.SellerDetail(ctx, "S9999")
	assert.ErrorIs(t, err, ErrSellerNotFound)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestCreateSeller(t *testing.T) {
	svc, st, _ := newService(t)
	ctx := context.Background()

	seller, err := svc.CreateSeller(ctx, sellerForm())
	require.NoError(t, err)
	assert.Equal(t, "S1003", seller.ID, "fills the first gap")
	assert.Equal(t, "13010", seller.ZipCode)

	next, err := svc.CreateSeller(ctx, sellerForm())
	require.NoError(t, err)
	assert.Equal(t, "S1005", next.ID)

	found, err := svc.SearchSellers(ctx, SellerFilter{LastName: "mel"})
	require.NoError(t, err)
	assert.Len(t, found, 2)

	form := sellerForm()
	form.City = "atlantis"
	_, err = svc.CreateSeller(ctx, form)
	assert.ErrorIs(t, err, ErrUnknownLocation)

	form = sellerForm()
	form.Email = " "
	_, err = svc.CreateSeller(ctx, form)
	assert.ErrorIs(t, err, ErrMissingSellerField)

	ids, err := st.SellerIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"S1001", "S1002", "S1003", "S1004", "S1005"}, ids)
}

func TestUpdateSeller(t *testing.T) {
	svc, st, _ := newService(t)
	ctx := context.Background()

	form := sellerForm()
	form.City, form.State = "sao paulo", "SP"
	updated, err := svc.UpdateSeller(ctx, "S1004", form)
	require.NoError(t, err)
	assert.Equal(t, "01001", updated.ZipCode)

	stored, err := st.FindSeller(ctx, "S1004")
	require.NoError(t, err)
	assert.Equal(t, "Tiago", stored.FirstName)
	assert.Equal(t, "01001", stored.ZipCode)

	_, err = svc.UpdateSeller(ctx, "S9999", sellerForm())
	assert.ErrorIs(t, err, ErrSellerNotFound)
}

func TestDeleteSeller(t *testing.T) {
	svc, st, _ := newService(t)
	ctx := context.Background()
	gdb := st.DB()

	require.NoError(t, gdb.Create(&data.Product{ID: "P9", Category: "books", Description: "Unsold", Price: datatest.Money("1.00")}).Error)
	require.NoError(t, gdb.Create(&data.ProductStock{ProductID: "P9", SellerID: "S1002", Stock: 4}).Error)

	require.NoError(t, svc.DeleteSeller(ctx, "S1002"))

	_, err := st.FindSeller(ctx, "S1002")
	assert.True(t, store.IsNotFound(err))

	var stock int64
	require.NoError(t, gdb.Model(&data.ProductStock{}).Where("seller_id = ?", "S1002").Count(&stock).Error)
	assert.Zero(t, stock)

	var products []string
	require.NoError(t, gdb.Model(&data.Product{}).Order("product_id").Pluck("product_id", &products).Error)
	assert.Equal(t, []string{"P1", "P2", "P3", "P4"}, products, "ordered product kept, unsold one removed")

	err = svc.DeleteSeller(ctx, "S1002")
	assert.ErrorIs(t, err, ErrSellerNotFound)
}

func TestLocations(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	states, err := svc.States(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"RJ", "SP"}, states)

	cities, err := svc.Cities(ctx, "SP")
	require.NoError(t, err)
	assert.Equal(t, []string{"campinas", "sao paulo"}, cities)
}

func TestSummary(t *testing.T) {
	svc, _, _ := newService(t)

	sum, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "56.50", sum.TotalSales.StringFixed(2))
	assert.EqualValues(t, 4, sum.TotalOrders)
	assert.InDelta(t, 4.0, sum.AverageRating, 1e-9)
	require.NotNil(t, sum.TopSeller)
	assert.Equal(t, "S1001", sum.TopSeller.SellerID)
	assert.Equal(t, "40.00", sum.TopSeller.Revenue.StringFixed(2))
}

func TestSummaryOfEmptyStore(t *testing.T) {
	svc := NewService(store.New(datatest.Open(t)), logger.Discard())

	sum, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.True(t, sum.TotalSales.IsZero())
	assert.Zero(t, sum.TotalOrders)
	assert.Nil(t, sum.TopSeller)
}

func TestRevenueByMonth(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	months := func(rows []MonthRevenue) map[string]string {
		out := make(map[string]string, len(rows))
		for _, r := range rows {
			out[r.Month] = r.Revenue.StringFixed(2)
		}
		return out
	}

	all, err := svc.RevenueByMonth(ctx, RevenueFilter{Category: "All", Status: "All"})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "2024-01", all[0].Month)
	assert.Equal(t, map[string]string{"2024-01": "20.00", "2024-02": "26.50", "2024-03": "10.00"}, months(all))

	books, err := svc.RevenueByMonth(ctx, RevenueFilter{Category: "books"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"2024-02": "26.50"}, months(books))

	delivered, err := svc.RevenueByMonth(ctx, RevenueFilter{Status: data.StatusDelivered})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"2024-01": "20.00", "2024-02": "11.00"}, months(delivered))
}

func TestCharts(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	revenue, err := svc.RevenueByCategory(ctx)
	require.NoError(t, err)
	require.Len(t, revenue, 2)
	assert.Equal(t, "electronics", revenue[0].Category)
	assert.Equal(t, "40.00", revenue[0].Amount.StringFixed(2))
	assert.Equal(t, "16.50", revenue[1].Amount.StringFixed(2))

	statuses, err := svc.StatusCounts(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, statuses)
	assert.Equal(t, store.LabelCount{Label: data.StatusDelivered, Count: 2}, statuses[0])

	methods, err := svc.PaymentMethodCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, store.LabelCount{Label: "credit_card", Count: 2}, methods[0])

	reviews, err := svc.AverageReviewByCategory(ctx)
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, "books", reviews[0].Category)
	assert.InDelta(t, 3.0, reviews[0].Average, 1e-9)
	assert.InDelta(t, 5.0, reviews[1].Average, 1e-9)

	delivery, err := svc.DeliveryPerformance(ctx)
	require.NoError(t, err)
	assert.Equal(t, []store.LabelCount{
		{Label: DeliveryOnTime, Count: 1},
		{Label: DeliveryLate, Count: 1},
		{Label: DeliveryPending, Count: 2},
	}, delivery)
}
