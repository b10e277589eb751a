package api

import (
	"context"

	"github.com/gin-gonic/gin"

	"storefront/internal/sellerops"
)

func (h *handler) sellerOrders(c *gin.Context) {
	var f sellerops.OrderFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		invalidParams(c, err)
		return
	}
	rows, err := h.SellerOps.SearchOrders(c.Request.Context(), f)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, rows)
}

func (h *handler) sellerOrderItems(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	items, err := h.SellerOps.OrderItems(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, items)
}

func (h *handler) shipOrder(c *gin.Context) {
	h.changeStatus(c, h.SellerOps.ShipOrder)
}

func (h *handler) delayOrder(c *gin.Context) {
	h.changeStatus(c, h.SellerOps.DelayOrder)
}

func (h *handler) changeStatus(c *gin.Context, change func(ctx context.Context, orderID uint64) error) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	if err := change(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	rows, err := h.SellerOps.SearchOrders(c.Request.Context(), sellerops.OrderFilter{OrderID: id})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, rows)
}

func (h *handler) sellerCustomers(c *gin.Context) {
	var f sellerops.CustomerFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		invalidParams(c, err)
		return
	}
	rows, err := h.SellerOps.SearchCustomers(c.Request.Context(), f)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, rows)
}

func (h *handler) sellerCustomerOrders(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	rows, err := h.SellerOps.CustomerOrders(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, rows)
}

func (h *handler) deleteCustomer(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	if err := h.SellerOps.DeleteCustomer(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	h.Carts.Drop(id)
	ok(c, gin.H{"customer_id": id})
}

func (h *handler) sellerPayments(c *gin.Context) {
	var f sellerops.PaymentFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		invalidParams(c, err)
		return
	}
	rows, err := h.SellerOps.SearchPayments(c.Request.Context(), f)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, rows)
}

func (h *handler) sellerStatuses(c *gin.Context) {
	listing(c, h.SellerOps.Statuses)
}

func (h *handler) sellerPaymentTypes(c *gin.Context) {
	listing(c, h.SellerOps.PaymentTypes)
}

func (h *handler) sellerCategories(c *gin.Context) {
	listing(c, h.SellerOps.Categories)
}

// listing renders a filter dropdown with "All" first.
func listing(c *gin.Context, load func(ctx context.Context) ([]string, error)) {
	values, err := load(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, append([]string{sellerops.All}, values...))
}
