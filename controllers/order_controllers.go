package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yeremiapane/delivery-services/events"
	"github.com/yeremiapane/delivery-services/models"
	"github.com/yeremiapane/delivery-services/services"
	"github.com/yeremiapane/delivery-services/store"
	"github.com/yeremiapane/delivery-services/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var orderSchema = store.Schema{
	"order_id":        "order_id",
	"user_id":         "user_id",
	"time_created":    "time_created",
	"restaurant_name": "restaurant",
	"order_status":    "order_status",
}

// Kicker wakes the notification dispatcher after an outbox write.
type Kicker interface {
	Kick()
}

type OrderController struct {
	DB         *gorm.DB
	orders     *store.Table[models.Order]
	dispatcher Kicker
	publisher  services.Publisher
	fields     fieldRegistry
}

func NewOrderController(db *gorm.DB, dispatcher Kicker, publisher services.Publisher) *OrderController {
	oc := &OrderController{
		DB:         db,
		orders:     store.NewTable[models.Order](db, "order_id", orderSchema),
		dispatcher: dispatcher,
		publisher:  publisher,
	}
	restaurant := stringField("restaurant", nil, "")
	oc.fields = fieldRegistry{
		"order_status":    stringField("order_status", models.IsValidOrderStatus, fmt.Sprintf("Invalid status. Must be one of %v", models.OrderStatuses)),
		"items":           setOrderItems,
		"restaurant":      restaurant,
		"restaurant_name": restaurant,
	}
	return oc
}

func (oc *OrderController) publish(event string, data interface{}) {
	if oc.publisher != nil {
		oc.publisher.Publish(event, data)
	}
}

func (oc *OrderController) kick() {
	if oc.dispatcher != nil {
		oc.dispatcher.Kick()
	}
}

// orderFilter builds the query shared by list and bulk delete.
func (oc *OrderController) orderFilter(c *gin.Context) (*store.Query, error) {
	q := oc.orders.Query()
	if userID, ok := c.GetQuery("user_id"); ok {
		q.Eq("user_id", userID)
	}
	if raw, ok := c.GetQuery("time_created"); ok {
		cutoff, err := hoursFilter("time_created", raw, time.Now())
		if err != nil {
			return nil, err
		}
		q.Where("time_created", store.Gte, models.NewTimestamp(cutoff))
	}
	if restaurant, ok := c.GetQuery("restaurant_name"); ok {
		q.Eq("restaurant_name", restaurant)
	}
	if status, ok := c.GetQuery("order_status"); ok {
		if !models.IsValidOrderStatus(status) {
			return nil, utils.BadRequest("Invalid status. Must be one of %v", models.OrderStatuses)
		}
		q.Eq("order_status", status)
	}
	return q, nil
}

// GetOrders -> GET /order
func (oc *OrderController) GetOrders(c *gin.Context) {
	q, err := oc.orderFilter(c)
	if err != nil {
		utils.RespondFailure(c, err)
		return
	}
	orders, err := oc.orders.Scan(c.Request.Context(), q)
	if err != nil {
		utils.RespondFailure(c, scanError(err))
		return
	}
	utils.RespondJSON(c, http.StatusOK, orders)
}

// DeleteOrders -> DELETE /order
func (oc *OrderController) DeleteOrders(c *gin.Context) {
	q, err := oc.orderFilter(c)
	if err != nil {
		utils.RespondFailure(c, err)
		return
	}
	deleted, err := oc.orders.DeleteWhere(c.Request.Context(), q)
	if err != nil {
		utils.RespondFailure(c, scanError(err))
		return
	}
	oc.publish(events.EventOrderDeleted, gin.H{"deleted": deleted})
	utils.RespondDeleted(c, "Orders deleted successfully", deleted)
}

type orderRequest struct {
	UserID         utils.FlexString         `json:"user_id"`
	RestaurantName string                   `json:"restaurant_name"`
	Items          []map[string]interface{} `json:"items"`
}

// orderLine reads one item of a POST body. Only price and quantity are
// required here.
func orderLine(raw map[string]interface{}) (models.OrderItem, decimal.Decimal, error) {
	price, err := utils.ParsePrice(raw["price"])
	if err != nil {
		return models.OrderItem{}, decimal.Zero, err
	}
	qty, err := utils.ParseQuantity(raw["quantity"])
	if err != nil {
		return models.OrderItem{}, decimal.Zero, err
	}
	item := models.OrderItem{
		ItemID:   textValue(raw["item_id"]),
		Name:     textValue(raw["name"]),
		Quantity: qty,
		Price:    priceText(raw["price"], price),
	}
	return item, price.Mul(decimal.NewFromInt(qty)), nil
}

// textValue renders an identifier given as a string or a number.
func textValue(v interface{}) string {
	switch n := utils.NormalizeNumber(v).(type) {
	case nil:
		return ""
	case string:
		return n
	default:
		return fmt.Sprint(n)
	}
}

// priceText keeps a string price as sent and renders numbers with two
// decimals.
func priceText(raw interface{}, parsed decimal.Decimal) string {
	if s, ok := raw.(string); ok {
		return s
	}
	return utils.FormatPrice(parsed)
}

// CreateOrder -> POST /order
// The order and its "created" notification commit together; the dispatcher
// delivers the notification afterwards.
func (oc *OrderController) CreateOrder(c *gin.Context) {
	var body orderRequest
	if err := bindJSON(c, &body); err != nil {
		utils.RespondMessage(c, http.StatusBadRequest, "Request body is missing or invalid")
		return
	}
	if body.UserID == "" {
		utils.RespondFailure(c, missingFields([]string{"user_id"}))
		return
	}
	if len(body.Items) == 0 {
		utils.RespondFailure(c, missingFields([]string{"items"}))
		return
	}

	items := make(datatypes.JSONSlice[models.OrderItem], 0, len(body.Items))
	total := decimal.Zero
	for i, raw := range body.Items {
		item, lineTotal, err := orderLine(raw)
		if err != nil {
			utils.RespondMessage(c, http.StatusBadRequest, fmt.Sprintf("Item at index %d contained invalid price", i))
			return
		}
		items = append(items, item)
		total = total.Add(lineTotal)
	}

	order := models.Order{
		OrderID:     uuid.NewString(),
		UserID:      body.UserID.String(),
		Restaurant:  body.RestaurantName,
		Items:       items,
		TimeCreated: models.Now(),
		TotalPrice:  utils.FormatPrice(total),
		OrderStatus: models.OrderCreated,
	}
	notifType, _ := models.NotifTypeForStatus(models.OrderCreated)

	ctx := c.Request.Context()
	err := oc.orders.Transaction(ctx, func(tx *gorm.DB) error {
		if err := oc.orders.WithTx(tx).Insert(ctx, &order); err != nil {
			return err
		}
		_, err := services.EnqueueNotification(tx, order.OrderID, order.UserID, notifType)
		return err
	})
	if err != nil {
		utils.RespondFailure(c, err)
		return
	}
	oc.kick()
	oc.publish(events.EventOrderCreated, order)

	utils.InfoLogger.WithField("order_id", order.OrderID).Info("Order created")
	utils.RespondJSON(c, http.StatusCreated, order)
}

// GetOrder -> GET /order/:order_id
func (oc *OrderController) GetOrder(c *gin.Context) {
	order, err := oc.orders.Get(c.Request.Context(), c.Param("order_id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.RespondMessage(c, http.StatusNotFound, "Order not found")
			return
		}
		utils.RespondFailure(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, order)
}

// setOrderItems replaces the item list. Every item must be complete and the
// total is recomputed from the new list.
func setOrderItems(value interface{}) (map[string]interface{}, error) {
	list, ok := value.([]interface{})
	if !ok {
		return nil, utils.BadRequest("items must be a list")
	}
	items := make(datatypes.JSONSlice[models.OrderItem], 0, len(list))
	total := decimal.Zero
	for i, entry := range list {
		raw, ok := entry.(map[string]interface{})
		if !ok {
			return nil, utils.BadRequest("Item at index %d missing one of item_id, name, quantity, price", i)
		}
		for _, key := range []string{"item_id", "name", "quantity", "price"} {
			if _, present := raw[key]; !present {
				return nil, utils.BadRequest("Item at index %d missing one of item_id, name, quantity, price", i)
			}
		}
		item, lineTotal, err := orderLine(raw)
		if err != nil {
			return nil, utils.BadRequest("Invalid quantity or price in item at index %d", i)
		}
		items = append(items, item)
		total = total.Add(lineTotal)
	}
	return map[string]interface{}{
		"items":       items,
		"total_price": utils.FormatPrice(total),
	}, nil
}

// UpdateOrder -> PATCH /order/:order_id
// An order_status change queues the matching notification in the same
// transaction as the update.
func (oc *OrderController) UpdateOrder(c *gin.Context) {
	var body patchRequest
	if err := bindJSON(c, &body); err != nil {
		utils.RespondMessage(c, http.StatusBadRequest, "Missing updateKey in body")
		return
	}
	if err := body.validate(); err != nil {
		utils.RespondFailure(c, err)
		return
	}

	orderID := c.Param("order_id")
	ctx := c.Request.Context()
	existing, err := oc.orders.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.RespondMessage(c, http.StatusNotFound, fmt.Sprintf("Order %s not found", orderID))
			return
		}
		utils.RespondFailure(c, err)
		return
	}

	fields, err := oc.fields.resolve(body.UpdateKey, body.UpdateValue)
	if err != nil {
		utils.RespondFailure(c, err)
		return
	}

	var updated *models.Order
	queued := false
	err = oc.orders.Transaction(ctx, func(tx *gorm.DB) error {
		orders := oc.orders.WithTx(tx)
		if err := orders.Update(ctx, orderID, fields); err != nil {
			return err
		}
		if status, ok := fields["order_status"].(string); ok && status != existing.OrderStatus {
			notifType, _ := models.NotifTypeForStatus(status)
			if _, err := services.EnqueueNotification(tx, orderID, existing.UserID, notifType); err != nil {
				return err
			}
			queued = true
		}
		order, err := orders.Get(ctx, orderID)
		if err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.RespondMessage(c, http.StatusNotFound, fmt.Sprintf("Order %s not found", orderID))
			return
		}
		utils.RespondFailure(c, err)
		return
	}
	if queued {
		oc.kick()
	}
	oc.publish(events.EventOrderUpdated, updated)
	utils.RespondJSON(c, http.StatusOK, updated)
}

// DeleteOrder -> DELETE /order/:order_id
func (oc *OrderController) DeleteOrder(c *gin.Context) {
	orderID := c.Param("order_id")
	if err := oc.orders.Delete(c.Request.Context(), orderID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.RespondMessage(c, http.StatusNotFound, fmt.Sprintf("No order found with ID %s", orderID))
			return
		}
		utils.RespondFailure(c, err)
		return
	}
	oc.publish(events.EventOrderDeleted, gin.H{"order_id": orderID})
	utils.RespondMessage(c, http.StatusOK, fmt.Sprintf("Order %s deleted successfully", orderID))
}
