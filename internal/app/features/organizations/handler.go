// internal/app/features/organizations/handler.go

// Package organizations handles tenant lifecycle: self-service
// registration (organization plus its first admin), viewing the
// caller's own organization, and editing the subscription module set.
package organizations

import (
	"github.com/paddockops/equihub/internal/app/features/apierrors"
	organizationstore "github.com/paddockops/equihub/internal/app/store/organizations"
	userstore "github.com/paddockops/equihub/internal/app/store/users"
	"github.com/paddockops/equihub/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB     *mongo.Database
	Log    *zap.Logger
	Errors *apierrors.ErrorLogger
	Audit  *auditlog.Logger

	orgs  *organizationstore.Store
	users *userstore.Store
}

func NewHandler(db *mongo.Database, logger *zap.Logger, audit *auditlog.Logger) *Handler {
	return &Handler{
		DB:     db,
		Log:    logger,
		Errors: apierrors.NewErrorLogger(logger),
		Audit:  audit,
		orgs:   organizationstore.New(db),
		users:  userstore.New(db),
	}
}
