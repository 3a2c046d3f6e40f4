package postgres

import (
	"context"

	"github.com/baharkarakas/library-backend/internal/models"
	"github.com/google/uuid"
)

type auditLogsRepo struct{ base }

func (r *auditLogsRepo) Create(ctx context.Context, l models.AuditLog) error {
	_, err := r.q(ctx).Exec(ctx,
		`INSERT INTO audit_logs(id, entity_type, entity_id, actor_id, action, details) VALUES($1,$2,$3,$4,$5,$6)`,
		uuid.NewString(), l.EntityType, l.EntityID, l.ActorID, l.Action, l.Details)
	return err
}
