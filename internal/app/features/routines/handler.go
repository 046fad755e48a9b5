// internal/app/features/routines/handler.go

// Package routines exposes the routine-instance surface: the selectable
// occurrences (feeding shifts, paddock rotations, arena slots) whose
// point values feed the quota-based turn-order algorithm.
package routines

import (
	"github.com/paddockops/equihub/internal/app/features/apierrors"
	routinestore "github.com/paddockops/equihub/internal/app/store/routines"
	stablestore "github.com/paddockops/equihub/internal/app/store/stables"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB     *mongo.Database
	Log    *zap.Logger
	Errors *apierrors.ErrorLogger

	routines *routinestore.Store
	stables  *stablestore.Store
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		Errors:   apierrors.NewErrorLogger(logger),
		routines: routinestore.New(db),
		stables:  stablestore.New(db),
	}
}
