package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yeremiapane/delivery-services/models"
	"github.com/yeremiapane/delivery-services/store"
	"github.com/yeremiapane/delivery-services/utils"
	"gorm.io/gorm"
)

var sentNotificationSchema = store.Schema{
	"notif_id":   "notif_id",
	"id":         "account_id",
	"notif_type": "notif_type",
	"method":     "method",
	"time_sent":  "time_sent",
}

type SentNotificationController struct {
	DB    *gorm.DB
	sent  *store.Table[models.SentNotification]
	types *store.Table[models.NotificationType]
}

func NewSentNotificationController(db *gorm.DB) *SentNotificationController {
	return &SentNotificationController{
		DB:    db,
		sent:  store.NewTable[models.SentNotification](db, "notif_id", sentNotificationSchema),
		types: store.NewTable[models.NotificationType](db, "id", notificationTypeSchema),
	}
}

type sentNotificationRequest struct {
	NotifID   *utils.FlexString `json:"notif_id"`
	Method    *string           `json:"method"`
	NotifType *utils.FlexString `json:"notif_type"`
	ID        *utils.FlexString `json:"id"`
	TimeSent  *string           `json:"time_sent"`
}

func (r *sentNotificationRequest) missing() []string {
	var names []string
	if r.NotifID == nil {
		names = append(names, "notif_id")
	}
	if r.Method == nil {
		names = append(names, "method")
	}
	if r.NotifType == nil {
		names = append(names, "notif_type")
	}
	if r.ID == nil {
		names = append(names, "id")
	}
	if r.TimeSent == nil {
		names = append(names, "time_sent")
	}
	return names
}

// RecordSentNotification -> POST /notification
func (sc *SentNotificationController) RecordSentNotification(c *gin.Context) {
	var body sentNotificationRequest
	if err := bindJSON(c, &body); err != nil {
		utils.RespondMessage(c, http.StatusBadRequest, "Request body is missing or invalid")
		return
	}
	if names := body.missing(); len(names) > 0 {
		utils.RespondFailure(c, missingFields(names))
		return
	}
	if !models.IsValidNotificationMethod(*body.Method) {
		utils.RespondMessage(c, http.StatusBadRequest, fmt.Sprintf("Invalid notification method %s", *body.Method))
		return
	}
	timeSent, err := models.ParseTimestamp(*body.TimeSent)
	if err != nil {
		utils.RespondMessage(c, http.StatusBadRequest, "Invalid time_sent")
		return
	}

	ctx := c.Request.Context()
	notifType, err := sc.types.Get(ctx, body.NotifType.String())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.RespondMessage(c, http.StatusBadRequest, fmt.Sprintf("Notification type with id %s not found", body.NotifType))
			return
		}
		utils.RespondFailure(c, err)
		return
	}

	record := models.SentNotification{
		NotifID:   body.NotifID.String(),
		AccountID: body.ID.String(),
		NotifType: notifType.ID,
		TimeSent:  timeSent,
		Method:    *body.Method,
	}
	if err := sc.sent.Put(ctx, &record); err != nil {
		utils.RespondFailure(c, err)
		return
	}

	utils.InfoLogger.WithField("notif_id", record.NotifID).Info("Sent notification recorded")
	utils.RespondMessage(c, http.StatusCreated, fmt.Sprintf("UserID %s was sent the message '%s'", record.AccountID, notifType.Message))
}

// sentFilter validates the query string and builds the shared GET/DELETE
// filter.
func (sc *SentNotificationController) sentFilter(c *gin.Context) (*store.Query, error) {
	q := sc.sent.Query()
	for param, values := range c.Request.URL.Query() {
		if !sc.sent.Schema().Has(param) {
			return nil, utils.BadRequest("Unknown query parameter")
		}
		value := values[0]
		switch param {
		case "notif_id":
			if !isDigits(value) && !isUUID(value) {
				return nil, utils.BadRequest("Incorrect type for notif_id")
			}
			q.Eq(param, value)
		case "id":
			if !isDigits(value) {
				return nil, utils.BadRequest("Incorrect type for id")
			}
			q.Eq(param, value)
		case "time_sent":
			direction, raw, _ := strings.Cut(value, ":")
			ts, err := models.ParseTimestamp(raw)
			if err != nil {
				return nil, utils.BadRequest("Invalid time_sent filter. Use before:<timestamp> or after:<timestamp>")
			}
			switch direction {
			case "before":
				q.Where(param, store.Lt, ts)
			case "after":
				q.Where(param, store.Gt, ts)
			default:
				return nil, utils.BadRequest("Invalid time_sent filter. Use before:<timestamp> or after:<timestamp>")
			}
		default:
			q.Eq(param, value)
		}
	}
	return q, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// GetSentNotifications -> GET /notification
func (sc *SentNotificationController) GetSentNotifications(c *gin.Context) {
	q, err := sc.sentFilter(c)
	if err != nil {
		utils.RespondFailure(c, err)
		return
	}
	sent, err := sc.sent.Scan(c.Request.Context(), q)
	if err != nil {
		utils.RespondFailure(c, scanError(err))
		return
	}
	utils.RespondJSON(c, http.StatusOK, sent)
}

// DeleteSentNotifications -> DELETE /notification
// Unlike the other bulk deletes this one answers 201.
func (sc *SentNotificationController) DeleteSentNotifications(c *gin.Context) {
	q, err := sc.sentFilter(c)
	if err != nil {
		utils.RespondFailure(c, err)
		return
	}
	deleted, err := sc.sent.DeleteWhere(c.Request.Context(), q)
	if err != nil {
		utils.RespondFailure(c, scanError(err))
		return
	}
	c.JSON(http.StatusCreated, utils.MessageResponse{Message: "Notification deleted successfully", Deleted: &deleted})
}

// MethodNotAllowed answers any other method on /notification.
func (sc *SentNotificationController) MethodNotAllowed(c *gin.Context) {
	utils.RespondMessage(c, http.StatusMethodNotAllowed, "Method Not Allowed on /notification/")
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
