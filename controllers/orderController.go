package controllers

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Kariqs/smart-inventory/middlewares"
	"github.com/Kariqs/smart-inventory/models"
	"github.com/Kariqs/smart-inventory/services"
	"github.com/Kariqs/smart-inventory/utils"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/rs/zerolog"
)

type OrderController struct {
	orders   *services.OrderService
	products *services.ProductService
	mailer   utils.Mailer
	baseURL  string
	log      zerolog.Logger
}

func NewOrderController(orders *services.OrderService, products *services.ProductService, mailer utils.Mailer, baseURL string, logger zerolog.Logger) *OrderController {
	return &OrderController{
		orders:   orders,
		products: products,
		mailer:   mailer,
		baseURL:  baseURL,
		log:      logger.With().Str("component", "order_controller").Logger(),
	}
}

type orderLineRequest struct {
	ProductID uint `json:"productId"`
	Quantity  int  `json:"quantity"`
}

type orderRequest struct {
	GuestName  string             `json:"guestName"`
	GuestEmail string             `json:"guestEmail"`
	OrderItems []orderLineRequest `json:"orderItems"`
}

func (r orderRequest) toModel() models.Order {
	order := models.Order{
		GuestName:  strings.TrimSpace(r.GuestName),
		GuestEmail: strings.TrimSpace(r.GuestEmail),
	}
	for _, line := range r.OrderItems {
		order.OrderItems = append(order.OrderItems, models.OrderItem{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	return order
}

// bindOrder reads an order from a JSON body or from a form whose lines are
// the parallel productId and quantity fields. Rows without a product are
// skipped.
func bindOrder(ctx *gin.Context) (models.Order, error) {
	var req orderRequest
	if ctx.ContentType() == binding.MIMEJSON {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			return req.toModel(), invalidForm(err)
		}
		return req.toModel(), nil
	}

	req.GuestName = ctx.PostForm("guestName")
	req.GuestEmail = ctx.PostForm("guestEmail")

	productIDs := ctx.PostFormArray("productId")
	quantities := ctx.PostFormArray("quantity")
	for i, rawID := range productIDs {
		if strings.TrimSpace(rawID) == "" {
			continue
		}
		productID, err := strconv.ParseUint(rawID, 10, 64)
		if err != nil {
			return req.toModel(), invalidForm(err)
		}
		quantity := 0
		if i < len(quantities) {
			if quantity, err = strconv.Atoi(strings.TrimSpace(quantities[i])); err != nil {
				return req.toModel(), invalidForm(err)
			}
		}
		req.OrderItems = append(req.OrderItems, orderLineRequest{ProductID: uint(productID), Quantity: quantity})
	}
	return req.toModel(), nil
}

func (c *OrderController) renderCreateForm(ctx *gin.Context, status int, order models.Order, errs []string) {
	products, err := c.products.Search(ctx.Request.Context(), services.ProductFilter{})
	if err != nil {
		respondWithError(ctx, c.log, err)
		return
	}
	render(ctx, status, "order_create.html", gin.H{
		"Title":    "Place Order",
		"Order":    order,
		"Products": products,
		"Errors":   errs,
	})
}

func (c *OrderController) CreateForm(ctx *gin.Context) {
	c.renderCreateForm(ctx, http.StatusOK, models.Order{}, nil)
}

// Create places a guest order and emails a confirmation.
func (c *OrderController) Create(ctx *gin.Context) {
	order, err := bindOrder(ctx)
	var created *models.Order
	if err == nil {
		created, err = c.orders.CreateOrder(ctx.Request.Context(), &order)
	}
	if err != nil {
		if middlewares.IsAjax(ctx) || !isFormError(err) {
			respondWithError(ctx, c.log, err)
			return
		}
		c.renderCreateForm(ctx, statusForError(err), order, formErrors(err))
		return
	}

	c.sendConfirmation(ctx, created)

	if middlewares.IsAjax(ctx) {
		sendJSONResponse(ctx, http.StatusOK, gin.H{
			"success":     true,
			"orderId":     created.ID,
			"totalAmount": created.TotalAmount,
			"cancelToken": created.CancelToken,
		})
		return
	}
	redirectWithFlash(ctx, c.trackPath(created), "success", "Order created successfully!")
}

func (c *OrderController) trackPath(order *models.Order) string {
	return fmt.Sprintf("/Order/TrackById/%d?token=%s", order.ID, url.QueryEscape(order.CancelToken))
}

// sendConfirmation mails the order summary. Failures are logged only.
func (c *OrderController) sendConfirmation(ctx *gin.Context, order *models.Order) {
	reqCtx := ctx.Request.Context()
	details, err := c.orders.GetOrderByID(reqCtx, order.ID)
	if err != nil {
		c.log.Error().Err(err).Uint("order_id", order.ID).Msg("failed to load order for confirmation email")
		return
	}

	lines := make([]utils.EmailLine, 0, len(details.OrderItems))
	for _, item := range details.OrderItems {
		lines = append(lines, utils.EmailLine{
			Product:  details.ProductName(item.ProductID),
			Quantity: item.Quantity,
			Price:    item.UnitPrice.StringFixed(2),
		})
	}

	body, err := utils.RenderEmail(utils.TemplateOrderConfirmation, utils.EmailData{
		Name:     details.GuestName,
		Message:  fmt.Sprintf("We received your order placed on %s.", details.OrderDate.Format("January 2, 2006 15:04 MST")),
		OrderID:  details.ID,
		Lines:    lines,
		Total:    details.TotalAmount.StringFixed(2),
		TrackURL: c.baseURL + c.trackPath(order),
	})
	if err != nil {
		c.log.Error().Err(err).Uint("order_id", order.ID).Msg("failed to render confirmation email")
		return
	}

	if err := c.mailer.Send(reqCtx, details.GuestEmail, fmt.Sprintf("Order #%d confirmation", details.ID), body); err != nil {
		c.log.Error().Err(err).Uint("order_id", order.ID).Msg("error sending order confirmation email")
	}
}

// Track renders the lookup page.
func (c *OrderController) Track(ctx *gin.Context) {
	render(ctx, http.StatusOK, "order_track.html", gin.H{"Title": "Track Order"})
}

func (c *OrderController) TrackByID(ctx *gin.Context) {
	id, err := parseID(ctx)
	if err != nil {
		respondWithError(ctx, c.log, err)
		return
	}

	order, err := c.orders.GetOrderByID(ctx.Request.Context(), id)
	if err != nil {
		respondWithError(ctx, c.log, err)
		return
	}

	if middlewares.IsAjax(ctx) {
		sendJSONResponse(ctx, http.StatusOK, gin.H{"success": true, "order": order})
		return
	}
	render(ctx, http.StatusOK, "order_details.html", gin.H{
		"Title":       fmt.Sprintf("Order #%d", order.ID),
		"Order":       order,
		"GuestView":   true,
		"CancelToken": ctx.Query("token"),
	})
}

// TrackByEmail lists the orders placed with an email address. The address is
// read from the query string or a posted form.
func (c *OrderController) TrackByEmail(ctx *gin.Context) {
	email := strings.TrimSpace(ctx.Query("email"))
	if ctx.Request.Method == http.MethodPost {
		email = strings.TrimSpace(ctx.PostForm("email"))
	}
	if ctx.Request.Method == http.MethodGet && email == "" && !middlewares.IsAjax(ctx) {
		render(ctx, http.StatusOK, "order_track_email.html", gin.H{"Title": "Track Orders by Email"})
		return
	}

	orders, err := c.orders.GetOrdersByGuestEmail(ctx.Request.Context(), email)
	if err != nil {
		if middlewares.IsAjax(ctx) || !isFormError(err) {
			respondWithError(ctx, c.log, err)
			return
		}
		render(ctx, http.StatusBadRequest, "order_track_email.html", gin.H{
			"Title":  "Track Orders by Email",
			"Email":  email,
			"Errors": formErrors(err),
		})
		return
	}

	if middlewares.IsAjax(ctx) {
		sendJSONResponse(ctx, http.StatusOK, gin.H{"success": true, "orders": orders})
		return
	}

	data := gin.H{
		"Title":    "Track Orders by Email",
		"Email":    email,
		"Orders":   orders,
		"Searched": true,
	}
	if len(orders) == 0 {
		data["Errors"] = []string{"No orders found for this email address."}
	}
	render(ctx, http.StatusOK, "order_track_email.html", data)
}

// DeleteOrder cancels an order on behalf of its guest. The posted guestEmail
// (and cancelToken when required) must match the order.
func (c *OrderController) DeleteOrder(ctx *gin.Context) {
	id, err := parseID(ctx)
	if err == nil {
		err = c.orders.CancelOrder(ctx.Request.Context(), id, ctx.PostForm("guestEmail"), ctx.PostForm("cancelToken"))
	}
	if err != nil {
		if middlewares.IsAjax(ctx) {
			respondWithError(ctx, c.log, err)
			return
		}
		if statusForError(err) == http.StatusInternalServerError {
			c.log.Error().Err(err).Uint("order_id", id).Msg("error cancelling order")
			redirectWithFlash(ctx, "/Order/Track", "danger", "An error occurred while deleting the order.")
			return
		}
		redirectWithFlash(ctx, "/Order/Track", "danger", "Order not found or could not be deleted.")
		return
	}

	if middlewares.IsAjax(ctx) {
		sendJSONResponse(ctx, http.StatusOK, gin.H{"success": true, "message": "Order deleted successfully."})
		return
	}
	redirectWithFlash(ctx, "/Order/Track", "success", "Order deleted successfully.")
}

// Index lists every order for admins.
func (c *OrderController) Index(ctx *gin.Context) {
	orders, err := c.orders.ListOrders(ctx.Request.Context())
	if err != nil {
		respondWithError(ctx, c.log, err)
		return
	}

	if middlewares.IsAjax(ctx) {
		sendJSONResponse(ctx, http.StatusOK, gin.H{"success": true, "orders": orders})
		return
	}
	render(ctx, http.StatusOK, "order_index.html", gin.H{"Title": "Orders", "Orders": orders})
}

func (c *OrderController) loadOrder(ctx *gin.Context) (*services.OrderDetails, bool) {
	id, err := parseID(ctx)
	if err != nil {
		respondWithError(ctx, c.log, err)
		return nil, false
	}
	order, err := c.orders.GetOrderByID(ctx.Request.Context(), id)
	if err != nil {
		respondWithError(ctx, c.log, err)
		return nil, false
	}
	return order, true
}

func (c *OrderController) Details(ctx *gin.Context) {
	order, ok := c.loadOrder(ctx)
	if !ok {
		return
	}

	if middlewares.IsAjax(ctx) {
		sendJSONResponse(ctx, http.StatusOK, gin.H{"success": true, "order": order})
		return
	}
	render(ctx, http.StatusOK, "order_details.html", gin.H{"Title": fmt.Sprintf("Order #%d", order.ID), "Order": order})
}

func (c *OrderController) EditForm(ctx *gin.Context) {
	order, ok := c.loadOrder(ctx)
	if !ok {
		return
	}
	render(ctx, http.StatusOK, "order_edit.html", gin.H{"Title": "Edit Order", "Order": order})
}

type orderEditForm struct {
	GuestName  string `json:"guestName" form:"guestName"`
	GuestEmail string `json:"guestEmail" form:"guestEmail"`
	Version    uint   `json:"version" form:"version"`
}

func (c *OrderController) Edit(ctx *gin.Context) {
	id, err := parseID(ctx)
	if err != nil {
		respondWithError(ctx, c.log, err)
		return
	}

	var form orderEditForm
	if err = ctx.ShouldBind(&form); err != nil {
		err = invalidForm(err)
	} else {
		err = c.orders.UpdateOrder(ctx.Request.Context(), middlewares.CurrentPrincipal(ctx), id, services.OrderUpdate{
			GuestName:  form.GuestName,
			GuestEmail: form.GuestEmail,
			Version:    form.Version,
		})
	}
	if err != nil {
		if middlewares.IsAjax(ctx) || !isFormError(err) {
			respondWithError(ctx, c.log, err)
			return
		}
		order, loadErr := c.orders.GetOrderByID(ctx.Request.Context(), id)
		if loadErr != nil {
			respondWithError(ctx, c.log, loadErr)
			return
		}
		order.GuestName, order.GuestEmail = form.GuestName, form.GuestEmail
		render(ctx, statusForError(err), "order_edit.html", gin.H{
			"Title":  "Edit Order",
			"Order":  order,
			"Errors": formErrors(err),
		})
		return
	}

	if middlewares.IsAjax(ctx) {
		sendJSONResponse(ctx, http.StatusOK, gin.H{"success": true, "message": "Order updated successfully.", "orderId": id})
		return
	}
	redirectWithFlash(ctx, "/Order", "success", "Order updated successfully.")
}

func (c *OrderController) DeleteForm(ctx *gin.Context) {
	order, ok := c.loadOrder(ctx)
	if !ok {
		return
	}
	render(ctx, http.StatusOK, "order_delete.html", gin.H{"Title": "Delete Order", "Order": order})
}

func (c *OrderController) Delete(ctx *gin.Context) {
	id, err := parseID(ctx)
	if err == nil {
		err = c.orders.DeleteOrder(ctx.Request.Context(), middlewares.CurrentPrincipal(ctx), id)
	}
	if err != nil {
		respondWithError(ctx, c.log, err)
		return
	}

	if middlewares.IsAjax(ctx) {
		sendJSONResponse(ctx, http.StatusOK, gin.H{"success": true, "message": "Order deleted successfully.", "orderId": id})
		return
	}
	redirectWithFlash(ctx, "/Order", "success", "Order deleted successfully.")
}
