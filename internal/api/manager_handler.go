package api

import (
	"github.com/gin-gonic/gin"

	"storefront/internal/manager"
)

func (h *handler) listSellers(c *gin.Context) {
	rows, err := h.Manager.ListSellers(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, rows)
}

func (h *handler) searchSellers(c *gin.Context) {
	var f manager.SellerFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		invalidParams(c, err)
		return
	}
	rows, err := h.Manager.SearchSellers(c.Request.Context(), f)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, rows)
}

func (h *handler) sellerDetail(c *gin.Context) {
	seller, err := h.Manager.SellerDetail(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, seller)
}

func (h *handler) createSeller(c *gin.Context) {
	var form manager.SellerForm
	if err := c.ShouldBindJSON(&form); err != nil {
		invalidParams(c, err)
		return
	}
	seller, err := h.Manager.CreateSeller(c.Request.Context(), form)
	if err != nil {
		fail(c, err)
		return
	}
	created(c, seller)
}

func (h *handler) updateSeller(c *gin.Context) {
	var form manager.SellerForm
	if err := c.ShouldBindJSON(&form); err != nil {
		invalidParams(c, err)
		return
	}
	seller, err := h.Manager.UpdateSeller(c.Request.Context(), c.Param("id"), form)
	if err != nil {
		fail(c, err)
		return
	}
	h.catalogChanged(c)
	ok(c, seller)
}

func (h *handler) deleteSeller(c *gin.Context) {
	id := c.Param("id")
	if err := h.Manager.DeleteSeller(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	h.catalogChanged(c)
	ok(c, gin.H{"seller_id": id})
}

// catalogChanged drops the catalog snapshot after a seller change touched
// stock rows or products. The change itself is already committed.
func (h *handler) catalogChanged(c *gin.Context) {
	if err := h.Catalog.Invalidate(c.Request.Context()); err != nil {
		loggerOf(c).WarnContext(c.Request.Context(), "catalog invalidation failed", "error", err)
	}
}

func (h *handler) listStates(c *gin.Context) {
	states, err := h.Manager.States(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, states)
}

func (h *handler) listCities(c *gin.Context) {
	cities, err := h.Manager.Cities(c.Request.Context(), c.Query("state"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, cities)
}

func (h *handler) dashboardSummary(c *gin.Context) {
	sum, err := h.Manager.Summary(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, sum)
}

func (h *handler) revenueByMonth(c *gin.Context) {
	var f manager.RevenueFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		invalidParams(c, err)
		return
	}
	rows, err := h.Manager.RevenueByMonth(c.Request.Context(), f)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, rows)
}

func (h *handler) revenueByCategory(c *gin.Context) {
	rows, err := h.Manager.RevenueByCategory(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, rows)
}

func (h *handler) reviewsByCategory(c *gin.Context) {
	rows, err := h.Manager.AverageReviewByCategory(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, rows)
}

func (h *handler) statusCounts(c *gin.Context) {
	rows, err := h.Manager.StatusCounts(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, rows)
}

func (h *handler) paymentMethods(c *gin.Context) {
	rows, err := h.Manager.PaymentMethodCounts(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, rows)
}

func (h *handler) deliveryPerformance(c *gin.Context) {
	rows, err := h.Manager.DeliveryPerformance(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, rows)
}
