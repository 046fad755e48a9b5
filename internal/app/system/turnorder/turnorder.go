// internal/app/system/turnorder/turnorder.go

// Package turnorder computes the ordered member list for a selection
// process. The ordering rules are pure functions over the candidate
// members and retrieved history; storage access is injected so the
// engine can be exercised without a database.
package turnorder

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/paddockops/equihub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNoMembers     = errors.New("member list is empty")
	ErrInvalidPeriod = errors.New("selection start date must be before end date")
	ErrBadAlgorithm  = errors.New("unknown turn-order algorithm")
)

// Member is one candidate for a turn, with display fields already
// denormalized by the caller.
type Member struct {
	UserID primitive.ObjectID
	Name   string
	Email  string
}

// HistoryStore supplies past completed rounds for a stable, newest first.
type HistoryStore interface {
	Latest(ctx context.Context, stableID primitive.ObjectID, limit int) ([]models.SelectionHistory, error)
}

// PointSource sums the point values of all routine instances scheduled
// inside a selection period for a stable.
type PointSource interface {
	SumPoints(ctx context.Context, stableID primitive.ObjectID, start, end time.Time) (float64, error)
}

// historyDepth bounds how many past rounds rotation tie-breaking looks at.
const historyDepth = 10

// Engine computes turn orders using injected history and point sources.
type Engine struct {
	history HistoryStore
	points  PointSource
}

// New creates an Engine.
func New(history HistoryStore, points PointSource) *Engine {
	return &Engine{history: history, points: points}
}

// Result carries the computed order and, for quota_based, the per-member
// quota figures.
type Result struct {
	MemberOrder          []Member
	QuotaPerMember       float64
	TotalAvailablePoints float64
}

// ComputeOrder produces the ordered member list for the given algorithm.
// It performs reads only; nothing is persisted.
func (e *Engine) ComputeOrder(ctx context.Context, stableID primitive.ObjectID, algorithm string, members []Member, start, end time.Time) (Result, error) {
	if len(members) == 0 {
		return Result{}, ErrNoMembers
	}
	if !start.Before(end) {
		return Result{}, ErrInvalidPeriod
	}

	switch algorithm {
	case models.AlgorithmManual:
		// Caller controls fairness; input order is the turn order.
		return Result{MemberOrder: append([]Member(nil), members...)}, nil

	case models.AlgorithmRotation:
		hist, err := e.history.Latest(ctx, stableID, historyDepth)
		if err != nil {
			return Result{}, err
		}
		return Result{MemberOrder: RotationOrder(members, hist)}, nil

	case models.AlgorithmQuotaBased:
		hist, err := e.history.Latest(ctx, stableID, historyDepth)
		if err != nil {
			return Result{}, err
		}
		total, err := e.points.SumPoints(ctx, stableID, start, end)
		if err != nil {
			return Result{}, err
		}
		return Result{
			MemberOrder:          RotationOrder(members, hist),
			QuotaPerMember:       QuotaPerMember(total, len(members)),
			TotalAvailablePoints: total,
		}, nil
	}
	return Result{}, ErrBadAlgorithm
}

// SumPoints exposes the injected point source, for callers that need to
// recompute quota figures outside a full order computation.
func (e *Engine) SumPoints(ctx context.Context, stableID primitive.ObjectID, start, end time.Time) (float64, error) {
	return e.points.SumPoints(ctx, stableID, start, end)
}

// QuotaPerMember divides a point pool evenly across n members, rounded
// to one decimal.
func QuotaPerMember(total float64, n int) float64 {
	if n <= 0 {
		return 0
	}
	return math.Round(total/float64(n)*10) / 10
}

// RotationOrder orders members so that whoever went last in the most
// recent completed round goes first in the next one. Ties (members
// absent from a round) are broken by progressively older rounds; members
// with no history at all keep their relative input order, after anyone
// with a recorded turn.
//
// histories must be sorted newest first. The sort is stable, so equal
// members never swap relative to the input.
func RotationOrder(members []Member, histories []models.SelectionHistory) []Member {
	ranks := make([][]int, len(members))
	for i, m := range members {
		ranks[i] = historyRanks(m.UserID, histories)
	}

	idx := make([]int, len(members))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ra, rb := ranks[idx[a]], ranks[idx[b]]
		for h := 0; h < len(histories); h++ {
			if ra[h] != rb[h] {
				// Higher order in that round means later turn, which
				// earns an earlier slot now.
				return ra[h] > rb[h]
			}
		}
		return false
	})

	out := make([]Member, len(members))
	for i, j := range idx {
		out[i] = members[j]
	}
	return out
}

// historyRanks returns the member's final order in each round, newest
// first, with -1 for rounds the member did not take part in.
func historyRanks(userID primitive.ObjectID, histories []models.SelectionHistory) []int {
	ranks := make([]int, len(histories))
	for h, hist := range histories {
		ranks[h] = -1
		for _, e := range hist.FinalOrder {
			if e.UserID == userID {
				ranks[h] = e.Order
				break
			}
		}
	}
	return ranks
}
