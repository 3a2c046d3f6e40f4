package postgres

import (
	repo "github.com/baharkarakas/library-backend/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositories(pool *pgxpool.Pool) repo.Repositories {
	b := base{pool}
	return repo.Repositories{
		Books:       &booksRepo{b},
		Users:       &usersRepo{b},
		Assignments: &assignmentsRepo{b},
		Reviews:     &reviewsRepo{b},
		AuditLogs:   &auditLogsRepo{b},
		Tx:          &txRunner{pool},
	}
}
