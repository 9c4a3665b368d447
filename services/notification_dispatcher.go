package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/delivery-services/events"
	"github.com/yeremiapane/delivery-services/models"
	"github.com/yeremiapane/delivery-services/utils"
	"gorm.io/gorm"
)

// Notifier is the outbound side of the dispatcher. SiblingClient
// implements it.
type Notifier interface {
	NotificationPreference(ctx context.Context, userID string) (string, error)
	SendNotification(ctx context.Context, payload NotificationPayload) error
}

// Publisher receives an event for every delivered notification.
type Publisher interface {
	Publish(event string, payload interface{})
}

// DispatchMetrics counts dispatcher outcomes since start.
type DispatchMetrics struct {
	Delivered           int64     `json:"delivered"`
	Retried             int64     `json:"retried"`
	Failed              int64     `json:"failed"`
	PreferenceFallbacks int64     `json:"preference_fallbacks"`
	LastRunAt           time.Time `json:"last_run_at"`
}

// NotificationDispatcher drains the notification outbox: it polls on an
// interval, or right away after Kick, and delivers each pending event.
type NotificationDispatcher struct {
	db          *gorm.DB
	notifier    Notifier
	publisher   Publisher
	Interval    time.Duration
	MaxAttempts int
	BatchSize   int

	kick      chan struct{}
	stopChan  chan struct{}
	done      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
	started   bool
	mutex     sync.Mutex
	metrics   DispatchMetrics
}

func NewNotificationDispatcher(db *gorm.DB, notifier Notifier, publisher Publisher) *NotificationDispatcher {
	return &NotificationDispatcher{
		db:          db,
		notifier:    notifier,
		publisher:   publisher,
		Interval:    time.Second,
		MaxAttempts: 5,
		BatchSize:   50,
		kick:        make(chan struct{}, 1),
		stopChan:    make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// EnqueueNotification adds an outbox row inside tx. Callers write it in the
// same transaction as the order change it reports.
func EnqueueNotification(tx *gorm.DB, orderID, userID, notifType string) (*models.OutboxEvent, error) {
	now := time.Now().UTC()
	event := &models.OutboxEvent{
		ID:        uuid.NewString(),
		OrderID:   orderID,
		UserID:    userID,
		NotifType: notifType,
		Status:    models.OutboxPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.Create(event).Error; err != nil {
		return nil, err
	}
	return event, nil
}

func (nd *NotificationDispatcher) Start() {
	nd.startOnce.Do(nd.run)
}

func (nd *NotificationDispatcher) run() {
	nd.mutex.Lock()
	nd.started = true
	nd.mutex.Unlock()

	go func() {
		defer close(nd.done)
		ticker := time.NewTicker(nd.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
			case <-nd.kick:
			case <-nd.stopChan:
				return
			}
			if _, err := nd.ProcessPending(context.Background()); err != nil {
				utils.ErrorLogger.Printf("Error processing notification outbox: %v", err)
			}
		}
	}()
	utils.InfoLogger.WithField("interval", nd.Interval).Info("Notification dispatcher started")
}

// Stop ends the polling loop and waits for the current batch to finish.
func (nd *NotificationDispatcher) Stop() {
	nd.stopOnce.Do(func() {
		close(nd.stopChan)
	})
	nd.mutex.Lock()
	started := nd.started
	nd.mutex.Unlock()
	if started {
		<-nd.done
	}
}

// Kick asks for an immediate pass. It never blocks.
func (nd *NotificationDispatcher) Kick() {
	select {
	case nd.kick <- struct{}{}:
	default:
	}
}

// ProcessPending delivers up to BatchSize pending events, oldest first, and
// returns how many were delivered.
func (nd *NotificationDispatcher) ProcessPending(ctx context.Context) (int, error) {
	var pending []models.OutboxEvent
	err := nd.db.WithContext(ctx).
		Where("status = ?", models.OutboxPending).
		Order("created_at ASC").
		Limit(nd.BatchSize).
		Find(&pending).Error

	nd.mutex.Lock()
	nd.metrics.LastRunAt = time.Now().UTC()
	nd.mutex.Unlock()
	if err != nil {
		return 0, err
	}

	delivered := 0
	for i := range pending {
		ok, err := nd.deliver(ctx, &pending[i])
		if err != nil {
			return delivered, err
		}
		if ok {
			delivered++
		}
	}
	return delivered, nil
}

func (nd *NotificationDispatcher) deliver(ctx context.Context, event *models.OutboxEvent) (bool, error) {
	log := utils.InfoLogger.WithFields(logrus.Fields{
		"outbox_id":  event.ID,
		"order_id":   event.OrderID,
		"user_id":    event.UserID,
		"notif_type": event.NotifType,
	})

	method, err := nd.notifier.NotificationPreference(ctx, event.UserID)
	if err != nil {
		log.WithError(err).Warn("Falling back to SMS")
		method = models.MethodSMS
		nd.count(func(m *DispatchMetrics) { m.PreferenceFallbacks++ })
	}

	now := time.Now().UTC()
	payload := NotificationPayload{
		NotifID:   event.ID,
		Method:    method,
		NotifType: event.NotifType,
		ID:        event.UserID,
		TimeSent:  models.NewTimestamp(now).String(),
	}

	updates := map[string]interface{}{
		"attempts":   event.Attempts + 1,
		"updated_at": now,
	}
	sendErr := nd.notifier.SendNotification(ctx, payload)
	switch {
	case sendErr == nil:
		updates["status"] = models.OutboxDelivered
		updates["delivered_at"] = now
		updates["last_error"] = ""
	case event.Attempts+1 >= nd.MaxAttempts:
		updates["status"] = models.OutboxFailed
		updates["last_error"] = sendErr.Error()
	default:
		updates["last_error"] = sendErr.Error()
	}

	if err := nd.db.WithContext(ctx).Model(&models.OutboxEvent{}).
		Where("id = ?", event.ID).
		Updates(updates).Error; err != nil {
		return false, err
	}

	if sendErr != nil {
		if updates["status"] == models.OutboxFailed {
			utils.ErrorLogger.WithFields(log.Data).WithError(sendErr).Error("Notification gave up")
			nd.count(func(m *DispatchMetrics) { m.Failed++ })
		} else {
			log.WithError(sendErr).Warn("Notification will be retried")
			nd.count(func(m *DispatchMetrics) { m.Retried++ })
		}
		return false, nil
	}

	log.WithField("method", method).Info("Notification delivered")
	nd.count(func(m *DispatchMetrics) { m.Delivered++ })
	if nd.publisher != nil {
		nd.publisher.Publish(events.EventNotificationSent, payload)
	}
	return true, nil
}

func (nd *NotificationDispatcher) count(fn func(m *DispatchMetrics)) {
	nd.mutex.Lock()
	defer nd.mutex.Unlock()
	fn(&nd.metrics)
}

// GetMetrics returns a snapshot of the counters.
func (nd *NotificationDispatcher) GetMetrics() DispatchMetrics {
	nd.mutex.Lock()
	defer nd.mutex.Unlock()
	return nd.metrics
}

// PendingCount reports how many events still wait for delivery.
func (nd *NotificationDispatcher) PendingCount(ctx context.Context) (int64, error) {
	var count int64
	err := nd.db.WithContext(ctx).Model(&models.OutboxEvent{}).
		Where("status = ?", models.OutboxPending).
		Count(&count).Error
	return count, err
}
