package controllers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/delivery-services/controllers"
	"github.com/yeremiapane/delivery-services/database"
	"gorm.io/gorm"
)

func setupNotificationRouter(t *testing.T, db *gorm.DB) *gin.Engine {
	t.Helper()
	_, err := database.SeedNotificationTypes(context.Background(), db)
	require.NoError(t, err)

	r := gin.New()
	typeCtrl := controllers.NewNotificationTypeController(db)
	sentCtrl := controllers.NewSentNotificationController(db)

	types := r.Group("/notification/type")
	{
		types.GET("", typeCtrl.GetNotificationTypes)
		types.POST("", typeCtrl.PutNotificationType)
		types.PATCH("", typeCtrl.UpdateNotificationType)
		types.DELETE("", typeCtrl.DeleteNotificationTypes)
	}
	for _, path := range []string{"/notification", "/notification/"} {
		r.POST(path, sentCtrl.RecordSentNotification)
		r.GET(path, sentCtrl.GetSentNotifications)
		r.DELETE(path, sentCtrl.DeleteSentNotifications)
		r.PUT(path, sentCtrl.MethodNotAllowed)
	}
	return r
}

func TestNotificationTypeCRUD(t *testing.T) {
	r := setupNotificationRouter(t, setupTestDB(t))

	w := perform(r, http.MethodGet, "/notification/type", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeList(t, w), 10)

	w = perform(r, http.MethodPost, "/notification/type", map[string]interface{}{
		"id": 11, "type": "Promo", "description": "marketing", "message": "Half price today",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Notification type created", decodeMessage(t, w))

	// POST overwrites an existing id
	w = perform(r, http.MethodPost, "/notification/type", map[string]interface{}{
		"id": "11", "type": "Promo", "description": "marketing", "message": "Free dessert",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = perform(r, http.MethodGet, "/notification/type?type=Promo", nil)
	require.Equal(t, http.StatusOK, w.Code)
	promos := decodeList(t, w)
	require.Len(t, promos, 1)
	assert.Equal(t, "Free dessert", promos[0]["message"])

	w = perform(r, http.MethodGet, "/notification/type?type=Nope", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeList(t, w))

	w = perform(r, http.MethodGet, "/notification/type?colour=red", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Unknown query parameter", decodeMessage(t, w))

	w = perform(r, http.MethodPost, "/notification/type", map[string]interface{}{"id": "12", "type": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing required fields for new notification", decodeMessage(t, w))
}

func TestNotificationTypePatch(t *testing.T) {
	r := setupNotificationRouter(t, setupTestDB(t))

	w := perform(r, http.MethodPatch, "/notification/type", map[string]interface{}{"id": "1", "key": "message", "value": "Got it!"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Notification type updated", decodeMessage(t, w))

	w = perform(r, http.MethodGet, "/notification/type?message=Got+it%21", nil)
	assert.Len(t, decodeList(t, w), 1)

	w = perform(r, http.MethodPatch, "/notification/type", map[string]interface{}{"id": "99", "key": "message", "value": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Notification type not found", decodeMessage(t, w))

	w = perform(r, http.MethodPatch, "/notification/type", map[string]interface{}{"id": "1", "key": "id", "value": "100"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = perform(r, http.MethodPatch, "/notification/type", map[string]interface{}{"id": "1", "key": "message"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing required fields for update", decodeMessage(t, w))
}

func TestNotificationTypeDeleteMessages(t *testing.T) {
	r := setupNotificationRouter(t, setupTestDB(t))

	w := perform(r, http.MethodDelete, "/notification/type?type=Nothing+here", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "No notification types matched", decodeMessage(t, w))
	assert.Zero(t, decodeDeleted(t, w))

	w = perform(r, http.MethodDelete, "/notification/type?id=4", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Notification type deleted", decodeMessage(t, w))
	assert.Equal(t, int64(1), decodeDeleted(t, w))

	w = perform(r, http.MethodDelete, "/notification/type", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Multiple notification types deleted", decodeMessage(t, w))
	assert.Equal(t, int64(9), decodeDeleted(t, w))

	w = perform(r, http.MethodDelete, "/notification/type?shape=round", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func sentBody(notifID, accountID, notifType, timeSent string) map[string]interface{} {
	return map[string]interface{}{
		"notif_id":   notifID,
		"method":     "email",
		"notif_type": notifType,
		"id":         accountID,
		"time_sent":  timeSent,
	}
}

func TestSentNotificationPost(t *testing.T) {
	r := setupNotificationRouter(t, setupTestDB(t))

	w := perform(r, http.MethodPost, "/notification/", sentBody("1", "7", "1", "2025-02-01T10:00:00"))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "UserID 7 was sent the message 'The restaurant has received your order!'", decodeMessage(t, w))

	w = perform(r, http.MethodPost, "/notification", map[string]interface{}{"notif_id": "2", "id": "7", "notif_type": "1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing required fields: method, time_sent", decodeMessage(t, w))

	w = perform(r, http.MethodPost, "/notification", sentBody("3", "7", "404", "2025-02-01T10:00:00"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Notification type with id 404 not found", decodeMessage(t, w))

	w = perform(r, http.MethodPost, "/notification", sentBody("4", "7", "1", "yesterday"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	bad := sentBody("5", "7", "1", "2025-02-01T10:00:00")
	bad["method"] = "carrier pigeon"
	w = perform(r, http.MethodPost, "/notification", bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = perform(r, http.MethodPut, "/notification", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "Method Not Allowed on /notification/", decodeMessage(t, w))
}

func TestSentNotificationTimeFilterIsStrict(t *testing.T) {
	r := setupNotificationRouter(t, setupTestDB(t))
	for _, body := range []map[string]interface{}{
		sentBody("1", "7", "1", "2024-12-31T23:00:00"),
		sentBody("2", "7", "2", "2025-01-01T00:00:00"),
		sentBody("3", "8", "3", "2025-01-02T00:00:00"),
	} {
		require.Equal(t, http.StatusCreated, perform(r, http.MethodPost, "/notification", body).Code)
	}

	w := perform(r, http.MethodGet, "/notification?time_sent=after:2025-01-01T00:00:00", nil)
	require.Equal(t, http.StatusOK, w.Code)
	after := decodeList(t, w)
	require.Len(t, after, 1)
	assert.Equal(t, "3", after[0]["notif_id"])
	assert.Equal(t, "2025-01-02T00:00:00", after[0]["time_sent"])

	w = perform(r, http.MethodGet, "/notification?time_sent=before:2025-01-01T00:00:00", nil)
	require.Equal(t, http.StatusOK, w.Code)
	before := decodeList(t, w)
	require.Len(t, before, 1)
	assert.Equal(t, "1", before[0]["notif_id"])

	w = perform(r, http.MethodGet, "/notification?time_sent=after:2024-01-01T00:00:00&id=7", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeList(t, w), 2)
}

func TestSentNotificationFilterValidation(t *testing.T) {
	r := setupNotificationRouter(t, setupTestDB(t))
	eventID := uuid.NewString()
	require.Equal(t, http.StatusCreated, perform(r, http.MethodPost, "/notification", sentBody(eventID, "7", "1", "2025-02-01T10:00:00")).Code)

	w := perform(r, http.MethodGet, "/notification?notif_id="+eventID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeList(t, w), 1)

	const badTimeFilter = "Invalid time_sent filter. Use before:<timestamp> or after:<timestamp>"
	cases := []struct {
		path string
		msg  string
	}{
		{"/notification?colour=red", "Unknown query parameter"},
		{"/notification?id=abc", "Incorrect type for id"},
		{"/notification?notif_id=not-a-number", "Incorrect type for notif_id"},
		{"/notification?time_sent=2025-01-01", badTimeFilter},
		{"/notification?time_sent=during:2025-01-01T00:00:00", badTimeFilter},
	}
	for _, tc := range cases {
		w := perform(r, http.MethodGet, tc.path, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, tc.path)
		assert.Equal(t, tc.msg, decodeMessage(t, w), tc.path)
	}
}

func TestSentNotificationDelete(t *testing.T) {
	r := setupNotificationRouter(t, setupTestDB(t))
	for _, body := range []map[string]interface{}{
		sentBody("1", "7", "1", "2025-01-01T00:00:00"),
		sentBody("2", "7", "2", "2025-01-02T00:00:00"),
		sentBody("3", "8", "3", "2025-01-03T00:00:00"),
	} {
		require.Equal(t, http.StatusCreated, perform(r, http.MethodPost, "/notification", body).Code)
	}

	w := perform(r, http.MethodDelete, "/notification?id=7", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Notification deleted successfully", decodeMessage(t, w))
	assert.Equal(t, int64(2), decodeDeleted(t, w))

	w = perform(r, http.MethodDelete, "/notification?id=7", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Zero(t, decodeDeleted(t, w))

	w = perform(r, http.MethodDelete, "/notification?id=x", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	remaining := decodeList(t, perform(r, http.MethodGet, "/notification", nil))
	require.Len(t, remaining, 1)
	assert.Equal(t, "8", remaining[0]["id"])
}
