package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/delivery-services/models"
	"github.com/yeremiapane/delivery-services/store"
	"github.com/yeremiapane/delivery-services/utils"
	"gorm.io/gorm"
)

var notificationTypeSchema = store.Schema{
	"id":          "id",
	"type":        "type",
	"description": "description",
	"message":     "message",
}

// notificationTypeListSchema is what GET may filter on.
var notificationTypeListSchema = store.Schema{
	"type":        "type",
	"description": "description",
	"message":     "message",
}

type NotificationTypeController struct {
	DB     *gorm.DB
	types  *store.Table[models.NotificationType]
	fields fieldRegistry
}

func NewNotificationTypeController(db *gorm.DB) *NotificationTypeController {
	return &NotificationTypeController{
		DB:    db,
		types: store.NewTable[models.NotificationType](db, "id", notificationTypeSchema),
		fields: fieldRegistry{
			"type":        stringField("type", nil, ""),
			"description": stringField("description", nil, ""),
			"message":     stringField("message", nil, ""),
		},
	}
}

// exactFilter applies every query parameter as an exact match over schema.
func exactFilter(c *gin.Context, schema store.Schema) *store.Query {
	q := schema.Query()
	for param, values := range c.Request.URL.Query() {
		q.Eq(param, values[0])
	}
	return q
}

// GetNotificationTypes -> GET /notification/type
func (nc *NotificationTypeController) GetNotificationTypes(c *gin.Context) {
	types, err := nc.types.Scan(c.Request.Context(), exactFilter(c, notificationTypeListSchema))
	if err != nil {
		utils.RespondFailure(c, scanError(err))
		return
	}
	utils.RespondJSON(c, http.StatusOK, types)
}

type notificationTypeRequest struct {
	ID          utils.FlexString `json:"id" binding:"required"`
	Type        string           `json:"type" binding:"required"`
	Description string           `json:"description"`
	Message     string           `json:"message" binding:"required"`
}

// PutNotificationType -> POST /notification/type (create or overwrite)
func (nc *NotificationTypeController) PutNotificationType(c *gin.Context) {
	var body notificationTypeRequest
	if err := bindJSON(c, &body); err != nil {
		utils.RespondMessage(c, http.StatusBadRequest, "Missing required fields for new notification")
		return
	}
	notifType := models.NotificationType{
		ID:          body.ID.String(),
		Type:        body.Type,
		Description: body.Description,
		Message:     body.Message,
	}
	if err := nc.types.Put(c.Request.Context(), &notifType); err != nil {
		utils.RespondFailure(c, err)
		return
	}
	utils.RespondMessage(c, http.StatusCreated, "Notification type created")
}

type notificationTypePatch struct {
	ID    utils.FlexString `json:"id" binding:"required"`
	Key   string           `json:"key" binding:"required"`
	Value interface{}      `json:"value"`
}

// UpdateNotificationType -> PATCH /notification/type
func (nc *NotificationTypeController) UpdateNotificationType(c *gin.Context) {
	var body notificationTypePatch
	if err := bindJSON(c, &body); err != nil || body.Value == nil {
		utils.RespondMessage(c, http.StatusBadRequest, "Missing required fields for update")
		return
	}
	fields, err := nc.fields.resolve(body.Key, body.Value)
	if err != nil {
		utils.RespondFailure(c, err)
		return
	}
	if err := nc.types.Update(c.Request.Context(), body.ID.String(), fields); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.RespondMessage(c, http.StatusNotFound, "Notification type not found")
			return
		}
		utils.RespondFailure(c, err)
		return
	}
	utils.RespondMessage(c, http.StatusOK, "Notification type updated")
}

// DeleteNotificationTypes -> DELETE /notification/type
func (nc *NotificationTypeController) DeleteNotificationTypes(c *gin.Context) {
	deleted, err := nc.types.DeleteWhere(c.Request.Context(), exactFilter(c, nc.types.Schema()))
	if err != nil {
		utils.RespondFailure(c, scanError(err))
		return
	}

	msg := "Multiple notification types deleted"
	switch deleted {
	case 0:
		msg = "No notification types matched"
	case 1:
		msg = "Notification type deleted"
	}
	utils.RespondDeleted(c, msg, deleted)
}
