package api

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"storefront/internal/apperr"
	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/history"
)

type catalogItem struct {
	catalog.Item
	PriceLabel string `json:"price_label"`
}

type cartView struct {
	Lines []cart.Line     `json:"lines"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

type addItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

type reviewRequest struct {
	Score   int    `json:"score"`
	Comment string `json:"comment"`
}

func (h *handler) listCatalog(c *gin.Context) {
	q := catalog.Query{
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Order:    catalog.Order(c.DefaultQuery("order", string(catalog.PriceDesc))),
	}
	items, err := h.Catalog.Query(c.Request.Context(), q)
	if err != nil {
		fail(c, err)
		return
	}
	out := make([]catalogItem, 0, len(items))
	for _, it := range items {
		out = append(out, catalogItem{Item: it, PriceLabel: it.PriceLabel()})
	}
	ok(c, out)
}

func (h *handler) listCategories(c *gin.Context) {
	cats, err := h.Catalog.Categories(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, append([]string{catalog.AllCategories}, cats...))
}

func (h *handler) cartOf(c *gin.Context) *cart.Cart {
	return h.Carts.For(claimsOf(c).CustomerID)
}

func viewOf(ct *cart.Cart) cartView {
	lines := ct.Lines()
	if lines == nil {
		lines = []cart.Line{}
	}
	return cartView{Lines: lines, Count: ct.Count(), Total: cart.Total(lines)}
}

func (h *handler) getCart(c *gin.Context) {
	ok(c, viewOf(h.cartOf(c)))
}

// addCartItem adds Quantity units of the product, one when omitted. More
// units than the catalog shows in stock are refused.
func (h *handler) addCartItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidParams(c, err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 0 {
		h.cartRejected(c, cart.ErrQuantity)
		return
	}
	item, err := h.Catalog.Lookup(c.Request.Context(), req.ProductID)
	if err != nil {
		fail(c, err)
		return
	}
	if req.Quantity > item.Stock {
		h.cartRejected(c, apperr.Wrapf(cart.ErrQuantity, "%d of %s requested, %d in stock", req.Quantity, item.ID, item.Stock))
		return
	}

	ct := h.cartOf(c)
	if err := ct.AddN(item.Product(), req.Quantity); err != nil {
		h.cartRejected(c, err)
		return
	}
	ok(c, viewOf(ct))
}

func (h *handler) setCartQuantity(c *gin.Context) {
	idx, valid := indexParam(c)
	if !valid {
		return
	}
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidParams(c, err)
		return
	}
	ct := h.cartOf(c)
	if err := ct.SetQuantity(idx, req.Quantity); err != nil {
		h.cartRejected(c, err)
		return
	}
	ok(c, viewOf(ct))
}

func (h *handler) removeCartItem(c *gin.Context) {
	idx, valid := indexParam(c)
	if !valid {
		return
	}
	ct := h.cartOf(c)
	if err := ct.Remove(idx); err != nil {
		h.cartRejected(c, err)
		return
	}
	ok(c, viewOf(ct))
}

func (h *handler) cartRejected(c *gin.Context, err error) {
	h.log.WarnContext(c.Request.Context(), "cart change rejected",
		"customer_id", claimsOf(c).CustomerID, "code", apperr.CodeOf(err), "error", err)
	fail(c, err)
}

func (h *handler) clearCart(c *gin.Context) {
	ct := h.cartOf(c)
	ct.Clear()
	ok(c, viewOf(ct))
}

func (h *handler) checkout(c *gin.Context) {
	customerID := claimsOf(c).CustomerID
	receipt, err := h.Checkout.PlaceOrder(c.Request.Context(), customerID, h.Carts.For(customerID))
	if err != nil {
		fail(c, err)
		return
	}
	created(c, receipt)
}

func (h *handler) listOrders(c *gin.Context) {
	orders, err := h.History.ListOrders(c.Request.Context(), claimsOf(c).CustomerID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, history.FilterOrders(orders, c.Query("search")))
}

// ownOrder loads an order of the calling customer. Orders of other
// customers are reported as missing.
func (h *handler) ownOrder(c *gin.Context) (history.OrderDetail, bool) {
	id, valid := idParam(c, "id")
	if !valid {
		return history.OrderDetail{}, false
	}
	detail, err := h.History.GetOrderDetail(c.Request.Context(), id)
	if err == nil && detail.CustomerID != claimsOf(c).CustomerID {
		err = apperr.Wrapf(history.ErrOrderNotFound, "order %d", id)
	}
	if err != nil {
		fail(c, err)
		return history.OrderDetail{}, false
	}
	return detail, true
}

func (h *handler) getOrder(c *gin.Context) {
	detail, found := h.ownOrder(c)
	if !found {
		return
	}
	ok(c, detail)
}

func (h *handler) submitReview(c *gin.Context) {
	detail, found := h.ownOrder(c)
	if !found {
		return
	}
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidParams(c, err)
		return
	}
	ctx := c.Request.Context()
	if err := h.History.SubmitReview(ctx, detail.OrderID, req.Score, req.Comment); err != nil {
		fail(c, err)
		return
	}
	updated, err := h.History.GetOrderDetail(ctx, detail.OrderID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, updated)
}
