// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"github.com/paddockops/equihub/internal/app/store/audit"
	"github.com/paddockops/equihub/internal/app/system/workers"
	"go.uber.org/zap"
)

// auditWorker is the background pruner started in Startup and stopped
// in Shutdown.
var auditWorker *workers.AuditRetention

// Startup runs one-time application initialization after DB connections
// and schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	auditWorker = workers.NewAuditRetention(
		audit.New(deps.EquiHubMongoDatabase),
		logger,
		appCfg.AuditPruneInterval,
		appCfg.AuditRetention,
	)
	auditWorker.Start()
	return nil
}
