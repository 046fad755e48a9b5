// internal/app/system/notify/notify.go

// Package notify delivers turn and process notifications to members.
// Delivery is best-effort: failures are logged and never propagate to
// the state-machine operation that triggered them.
package notify

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/paddockops/equihub/internal/app/system/mailer"
	"github.com/paddockops/equihub/internal/domain/models"
	"go.uber.org/zap"
)

// Notifier is implemented by anything that can tell a member their turn
// has started, or tell all participants the process has finished.
type Notifier interface {
	TurnStarted(ctx context.Context, p *models.SelectionProcess, turn models.Turn)
	ProcessCompleted(ctx context.Context, p *models.SelectionProcess)
}

// MailNotifier sends notifications by email.
type MailNotifier struct {
	mail       *mailer.Mailer
	siteName   string
	stableName func(ctx context.Context, p *models.SelectionProcess) string
	log        *zap.Logger
}

// NewMailNotifier creates a MailNotifier. stableName resolves the
// display name of the process's stable; when nil the stable ID hex is
// used instead.
func NewMailNotifier(mail *mailer.Mailer, siteName string, stableName func(ctx context.Context, p *models.SelectionProcess) string, log *zap.Logger) *MailNotifier {
	return &MailNotifier{mail: mail, siteName: siteName, stableName: stableName, log: log}
}

func (n *MailNotifier) resolveStable(ctx context.Context, p *models.SelectionProcess) string {
	if n.stableName != nil {
		if name := n.stableName(ctx, p); name != "" {
			return name
		}
	}
	return p.StableID.Hex()
}

// TurnStarted emails the member occupying the newly active turn. Each
// dispatch gets a UUID so the send can be correlated in logs.
func (n *MailNotifier) TurnStarted(ctx context.Context, p *models.SelectionProcess, turn models.Turn) {
	dispatchID := uuid.NewString()
	email := mailer.BuildTurnStartedEmail(mailer.TurnStartedData{
		SiteName:    n.siteName,
		MemberName:  turn.UserName,
		StableName:  n.resolveStable(ctx, p),
		ProcessName: p.Name,
		TurnOrder:   turn.Order + 1,
		TotalTurns:  len(p.Turns),
	})
	email.To = turn.UserEmail

	go n.send(email, dispatchID, "turn_started", p.ID.Hex())
}

// ProcessCompleted emails every participant of the finished process.
func (n *MailNotifier) ProcessCompleted(ctx context.Context, p *models.SelectionProcess) {
	stable := n.resolveStable(ctx, p)
	for _, t := range p.Turns {
		dispatchID := uuid.NewString()
		email := mailer.BuildProcessCompletedEmail(mailer.ProcessCompletedData{
			SiteName:    n.siteName,
			MemberName:  t.UserName,
			StableName:  stable,
			ProcessName: p.Name,
		})
		email.To = t.UserEmail

		go n.send(email, dispatchID, "process_completed", p.ID.Hex())
	}
}

func (n *MailNotifier) send(email mailer.Email, dispatchID, kind, processID string) {
	if err := n.mail.Send(email); err != nil {
		n.log.Warn("notification send failed",
			zap.String("dispatch_id", dispatchID),
			zap.String("kind", kind),
			zap.String("process_id", processID),
			zap.String("to", email.To),
			zap.Error(err),
		)
		return
	}
	n.log.Info("notification sent",
		zap.String("dispatch_id", dispatchID),
		zap.String("kind", kind),
		zap.String("process_id", processID),
		zap.String("to", email.To),
	)
}

// Noop discards all notifications. Used when SMTP is not configured.
type Noop struct{}

func (Noop) TurnStarted(context.Context, *models.SelectionProcess, models.Turn) {}
func (Noop) ProcessCompleted(context.Context, *models.SelectionProcess)         {}

// Recorder captures notifications for assertions in tests.
type Recorder struct {
	mu        sync.Mutex
	Started   []models.Turn
	Completed []*models.SelectionProcess
}

func (r *Recorder) TurnStarted(_ context.Context, _ *models.SelectionProcess, turn models.Turn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Started = append(r.Started, turn)
}

func (r *Recorder) ProcessCompleted(_ context.Context, p *models.SelectionProcess) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Completed = append(r.Completed, p)
}

// StartedCount returns how many turn-started notifications were recorded.
func (r *Recorder) StartedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Started)
}

// CompletedCount returns how many process-completed notifications were
// recorded.
func (r *Recorder) CompletedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Completed)
}
