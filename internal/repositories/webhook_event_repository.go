package repositories

import (
	"context"
	"database/sql"
	"fmt"

	intconfig "salonbackend/internal/config"
	intdb "salonbackend/internal/db"
	"salonbackend/internal/domain/models"
	"salonbackend/internal/utils"
)

// Webhook event processing states.
const (
	EventReceived  = "received"
	EventProcessed = "processed"
	EventFailed    = "failed"
)

// WebhookEventRepository keeps an audit trail of verified processor events.
type WebhookEventRepository struct {
	DB *sql.DB
}

func (r WebhookEventRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r WebhookEventRepository) RecordReceived(ctx context.Context, ev models.ProcessorEvent) error {
	db := r.db()
	if db == nil {
		return fmt.Errorf("db not available")
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO webhook_events (event_id, event_type, payment_intent_id, status)
		VALUES (?,?,?,?)
		ON DUPLICATE KEY UPDATE status=VALUES(status), error_message=NULL, processed_at=NULL`,
		ev.ID, ev.Type, intdb.NullIfEmpty(ev.IntentID()), EventReceived)
	return err
}

func (r WebhookEventRepository) MarkHandled(ctx context.Context, eventID, status, errMsg string) error {
	db := r.db()
	if db == nil {
		return fmt.Errorf("db not available")
	}
	_, err := db.ExecContext(ctx,
		`UPDATE webhook_events SET status=?, error_message=?, processed_at=NOW() WHERE event_id=?`,
		status, intdb.NullIfEmpty(utils.Truncate(errMsg, 1000)), eventID)
	return err
}
