package turnorder

import (
	"context"
	"testing"
	"time"

	"github.com/paddockops/equihub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeHistory struct {
	rounds []models.SelectionHistory
	err    error
}

func (f *fakeHistory) Latest(_ context.Context, _ primitive.ObjectID, limit int) ([]models.SelectionHistory, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.rounds) > limit {
		return f.rounds[:limit], nil
	}
	return f.rounds, nil
}

type fakePoints struct {
	total float64
	err   error
}

func (f *fakePoints) SumPoints(_ context.Context, _ primitive.ObjectID, _, _ time.Time) (float64, error) {
	return f.total, f.err
}

func member(name string) Member {
	return Member{UserID: primitive.NewObjectID(), Name: name, Email: name + "@test.com"}
}

func round(entries ...Member) models.SelectionHistory {
	h := models.SelectionHistory{ID: primitive.NewObjectID()}
	for i, m := range entries {
		h.FinalOrder = append(h.FinalOrder, models.HistoryEntry{UserID: m.UserID, Order: i})
	}
	return h
}

func names(ms []Member) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Name
	}
	return out
}

func assertOrder(t *testing.T, got []Member, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("order length: got %d (%v), want %d (%v)", len(got), names(got), len(want), want)
	}
	for i := range want {
		if got[i].Name != want[i] {
			t.Errorf("position %d: got %q, want %q (full order %v)", i, got[i].Name, want[i], names(got))
		}
	}
}

func testPeriod() (time.Time, time.Time) {
	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

func TestComputeOrder_Manual_PreservesInputOrder(t *testing.T) {
	e := New(&fakeHistory{}, &fakePoints{})
	start, end := testPeriod()

	a, b, c := member("anna"), member("bjorn"), member("cecilia")
	res, err := e.ComputeOrder(context.Background(), primitive.NewObjectID(), models.AlgorithmManual, []Member{a, b, c}, start, end)
	if err != nil {
		t.Fatalf("ComputeOrder failed: %v", err)
	}
	assertOrder(t, res.MemberOrder, "anna", "bjorn", "cecilia")
	if res.QuotaPerMember != 0 || res.TotalAvailablePoints != 0 {
		t.Errorf("manual must not compute quota figures, got %v/%v", res.QuotaPerMember, res.TotalAvailablePoints)
	}
}

func TestComputeOrder_EmptyMembers(t *testing.T) {
	e := New(&fakeHistory{}, &fakePoints{})
	start, end := testPeriod()

	_, err := e.ComputeOrder(context.Background(), primitive.NewObjectID(), models.AlgorithmManual, nil, start, end)
	if err != ErrNoMembers {
		t.Errorf("expected ErrNoMembers, got %v", err)
	}
}

func TestComputeOrder_InvalidPeriod(t *testing.T) {
	e := New(&fakeHistory{}, &fakePoints{})
	start, _ := testPeriod()

	// start == end is invalid too
	_, err := e.ComputeOrder(context.Background(), primitive.NewObjectID(), models.AlgorithmManual, []Member{member("anna")}, start, start)
	if err != ErrInvalidPeriod {
		t.Errorf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestComputeOrder_UnknownAlgorithm(t *testing.T) {
	e := New(&fakeHistory{}, &fakePoints{})
	start, end := testPeriod()

	_, err := e.ComputeOrder(context.Background(), primitive.NewObjectID(), "alphabetical", []Member{member("anna")}, start, end)
	if err != ErrBadAlgorithm {
		t.Errorf("expected ErrBadAlgorithm, got %v", err)
	}
}

func TestRotationOrder_LastGoesFirst(t *testing.T) {
	a, b, c := member("anna"), member("bjorn"), member("cecilia")

	// Previous round went a, b, c — so the next round starts with c.
	got := RotationOrder([]Member{a, b, c}, []models.SelectionHistory{round(a, b, c)})
	assertOrder(t, got, "cecilia", "bjorn", "anna")
}

func TestRotationOrder_NoHistory_KeepsInputOrder(t *testing.T) {
	a, b, c := member("anna"), member("bjorn"), member("cecilia")

	got := RotationOrder([]Member{a, b, c}, nil)
	assertOrder(t, got, "anna", "bjorn", "cecilia")
}

func TestRotationOrder_NewMemberAfterRecordedMembers(t *testing.T) {
	a, b := member("anna"), member("bjorn")
	d := member("david") // never took part in a round

	got := RotationOrder([]Member{a, d, b}, []models.SelectionHistory{round(a, b)})
	// b went last previously, then a; david has no recorded turn.
	assertOrder(t, got, "bjorn", "anna", "david")
}

func TestRotationOrder_TieBrokenByOlderRound(t *testing.T) {
	a, b, c := member("anna"), member("bjorn"), member("cecilia")

	// Most recent round only included c. a and b tie there and fall back
	// to the round before, where b went last.
	histories := []models.SelectionHistory{
		round(c),
		round(a, b),
	}
	got := RotationOrder([]Member{a, b, c}, histories)
	assertOrder(t, got, "cecilia", "bjorn", "anna")
}

func TestRotationOrder_StableAcrossRepeatedCalls(t *testing.T) {
	a, b, c := member("anna"), member("bjorn"), member("cecilia")
	histories := []models.SelectionHistory{round(a, b, c)}

	first := RotationOrder([]Member{a, b, c}, histories)
	second := RotationOrder([]Member{a, b, c}, histories)
	for i := range first {
		if first[i].UserID != second[i].UserID {
			t.Fatalf("ordering not deterministic at position %d", i)
		}
	}
}

func TestComputeOrder_QuotaBased(t *testing.T) {
	a, b, c := member("anna"), member("bjorn"), member("cecilia")
	e := New(&fakeHistory{rounds: []models.SelectionHistory{round(a, b, c)}}, &fakePoints{total: 100})
	start, end := testPeriod()

	res, err := e.ComputeOrder(context.Background(), primitive.NewObjectID(), models.AlgorithmQuotaBased, []Member{a, b, c}, start, end)
	if err != nil {
		t.Fatalf("ComputeOrder failed: %v", err)
	}
	if res.TotalAvailablePoints != 100 {
		t.Errorf("total points: got %v, want 100", res.TotalAvailablePoints)
	}
	if res.QuotaPerMember != 33.3 {
		t.Errorf("quota per member: got %v, want 33.3", res.QuotaPerMember)
	}
	// Same fairness rule as rotation.
	assertOrder(t, res.MemberOrder, "cecilia", "bjorn", "anna")
}

func TestQuotaPerMember_Rounding(t *testing.T) {
	tests := []struct {
		total float64
		n     int
		want  float64
	}{
		{100, 3, 33.3},
		{100, 4, 25},
		{10, 3, 3.3},
		{1, 3, 0.3},
		{0, 3, 0},
		{50, 0, 0},
	}
	for _, tt := range tests {
		if got := QuotaPerMember(tt.total, tt.n); got != tt.want {
			t.Errorf("QuotaPerMember(%v, %d) = %v, want %v", tt.total, tt.n, got, tt.want)
		}
	}
}
