// internal/app/features/selectionprocesses/handler.go
package selectionprocesses

import (
	"github.com/paddockops/equihub/internal/app/features/apierrors"
	membershipstore "github.com/paddockops/equihub/internal/app/store/memberships"
	routinestore "github.com/paddockops/equihub/internal/app/store/routines"
	historystore "github.com/paddockops/equihub/internal/app/store/selectionhistory"
	processstore "github.com/paddockops/equihub/internal/app/store/selectionprocesses"
	selectionstore "github.com/paddockops/equihub/internal/app/store/selections"
	userstore "github.com/paddockops/equihub/internal/app/store/users"
	"github.com/paddockops/equihub/internal/app/system/auditlog"
	"github.com/paddockops/equihub/internal/app/system/notify"
	"github.com/paddockops/equihub/internal/app/system/turnorder"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the selection-process
// feature. The Mongo client (not just the database) is held because the
// state transitions run inside transactions.
type Handler struct {
	DB     *mongo.Database
	Client *mongo.Client
	Log    *zap.Logger
	Errors *apierrors.ErrorLogger
	Audit  *auditlog.Logger
	Notify notify.Notifier

	processes   *processstore.Store
	selections  *selectionstore.Store
	histories   *historystore.Store
	memberships *membershipstore.Store
	users       *userstore.Store
	engine      *turnorder.Engine
}

// NewHandler constructs the feature handler. It is called from the
// bootstrap BuildHandler function, where the DB, client, logger, audit
// logger, and notifier are already initialized.
func NewHandler(db *mongo.Database, client *mongo.Client, logger *zap.Logger, audit *auditlog.Logger, notifier notify.Notifier) *Handler {
	histories := historystore.New(db)
	routines := routinestore.New(db)
	return &Handler{
		DB:          db,
		Client:      client,
		Log:         logger,
		Errors:      apierrors.NewErrorLogger(logger),
		Audit:       audit,
		Notify:      notifier,
		processes:   processstore.New(db),
		selections:  selectionstore.New(db),
		histories:   histories,
		memberships: membershipstore.New(db),
		users:       userstore.New(db),
		engine:      turnorder.New(histories, routines),
	}
}
