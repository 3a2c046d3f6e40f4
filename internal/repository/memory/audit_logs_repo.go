package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/baharkarakas/library-backend/internal/models"
)

type auditLogsRepo struct{ s *Store }

func (r *auditLogsRepo) Create(ctx context.Context, l models.AuditLog) error {
	defer r.s.lock(ctx)()
	l.ID = uuid.NewString()
	l.CreatedAt = time.Now().UTC()
	r.s.audit = append(r.s.audit, l)
	return nil
}
