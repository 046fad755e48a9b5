// internal/app/features/auditlog/handler.go

// Package auditlog exposes the audit trail to organization admins:
// filterable event listing plus a per-process event view.
package auditlog

import (
	"github.com/paddockops/equihub/internal/app/features/apierrors"
	"github.com/paddockops/equihub/internal/app/store/audit"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB     *mongo.Database
	Log    *zap.Logger
	Errors *apierrors.ErrorLogger

	events *audit.Store
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:     db,
		Log:    logger,
		Errors: apierrors.NewErrorLogger(logger),
		events: audit.New(db),
	}
}
