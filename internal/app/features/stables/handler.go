// internal/app/features/stables/handler.go

// Package stables exposes the stable admin surface: facility CRUD and
// the stable's member roster. Horses, lessons, and invoicing live
// elsewhere; this is only the shell the selection workflow needs.
package stables

import (
	"github.com/paddockops/equihub/internal/app/features/apierrors"
	membershipstore "github.com/paddockops/equihub/internal/app/store/memberships"
	processstore "github.com/paddockops/equihub/internal/app/store/selectionprocesses"
	stablestore "github.com/paddockops/equihub/internal/app/store/stables"
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

	stables     *stablestore.Store
	memberships *membershipstore.Store
	users       *userstore.Store
	processes   *processstore.Store
}

func NewHandler(db *mongo.Database, logger *zap.Logger, audit *auditlog.Logger) *Handler {
	return &Handler{
		DB:          db,
		Log:         logger,
		Errors:      apierrors.NewErrorLogger(logger),
		Audit:       audit,
		stables:     stablestore.New(db),
		memberships: membershipstore.New(db),
		users:       userstore.New(db),
		processes:   processstore.New(db),
	}
}
