package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/models"
)

func backends(t *testing.T) map[string]DataStore {
	t.Helper()
	sqlite, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(sqlite.Close)

	return map[string]DataStore{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func forEachBackend(t *testing.T, fn func(t *testing.T, ds DataStore)) {
	for name, ds := range backends(t) {
		t.Run(name, func(t *testing.T) { fn(t, ds) })
	}
}

var base = time.Date(2045, 1, 1, 9, 0, 0, 0, time.UTC)

func report(id string, typ models.MeetingType, at time.Time) *models.MeetingReport {
	return &models.MeetingReport{
		ID:        id,
		Type:      typ,
		Timestamp: at,
		Summary:   "summary " + id,
		AgentContributions: []models.AgentContribution{
			{AgentID: "athena", AgentName: "Athena", Role: "Strategy & Vision", Insight: "focus", Priority: models.PriorityHigh},
		},
		ActionItems: []models.ActionItem{
			{ID: "action-0-1", Title: "Ship", AssignedTo: "Nexus", Priority: models.PriorityMedium, Status: models.ActionPending},
		},
		Metrics: []models.MetricUpdate{{Name: "TVL", Value: "$1M", Change: 2.5, Trend: models.TrendUp}},
	}
}

func TestUsers(t *testing.T) {
	forEachBackend(t, func(t *testing.T, ds DataStore) {
		ctx := context.Background()
		u := &models.User{ID: "u1", Username: "satoshi", PasswordHash: "hash", CreatedAt: base}
		require.NoError(t, ds.CreateUser(ctx, u))

		got, err := ds.GetUser(ctx, "u1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "satoshi", got.Username)
		assert.Equal(t, "hash", got.PasswordHash)

		got, err = ds.GetUserByUsername(ctx, "satoshi")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "u1", got.ID)

		err = ds.CreateUser(ctx, &models.User{ID: "u2", Username: "satoshi", PasswordHash: "x", CreatedAt: base})
		assert.ErrorIs(t, err, ErrDuplicate)

		missing, err := ds.GetUser(ctx, "nope")
		assert.NoError(t, err)
		assert.Nil(t, missing)
	})
}

func TestMeetingReports(t *testing.T) {
	forEachBackend(t, func(t *testing.T, ds DataStore) {
		ctx := context.Background()

		none, err := ds.LatestMeetingReport(ctx, models.MeetingDaily)
		require.NoError(t, err)
		assert.Nil(t, none)

		require.NoError(t, ds.SaveMeetingReport(ctx, report("r1", models.MeetingDaily, base)))
		require.NoError(t, ds.SaveMeetingReport(ctx, report("r2", models.MeetingWeekly, base.Add(time.Minute))))
		require.NoError(t, ds.SaveMeetingReport(ctx, report("r3", models.MeetingDaily, base.Add(2*time.Minute))))

		latest, err := ds.LatestMeetingReport(ctx, models.MeetingDaily)
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.Equal(t, "r3", latest.ID)
		assert.Equal(t, models.MeetingDaily, latest.Type)
		require.Len(t, latest.AgentContributions, 1)
		assert.Equal(t, models.PriorityHigh, latest.AgentContributions[0].Priority)
		require.Len(t, latest.Metrics, 1)
		assert.Equal(t, 2.5, latest.Metrics[0].Change)

		all, err := ds.ListMeetingReports(ctx, 10)
		require.NoError(t, err)
		require.Len(t, all, 3, "history is retained")
		assert.Equal(t, "r3", all[0].ID)
		assert.Equal(t, "r1", all[2].ID)
	})
}

func TestChatHistoryIsCapped(t *testing.T) {
	forEachBackend(t, func(t *testing.T, ds DataStore) {
		ctx := context.Background()
		for i := 0; i < models.ChatHistoryLimit+1; i++ {
			require.NoError(t, ds.AddChatMessage(ctx, &models.ChatMessage{
				ID:        fmt.Sprintf("m%03d", i),
				Role:      models.RoleUser,
				Content:   fmt.Sprintf("message %d", i),
				Timestamp: base.Add(time.Duration(i) * time.Second),
			}))
		}

		history, err := ds.ChatHistory(ctx)
		require.NoError(t, err)
		require.Len(t, history, models.ChatHistoryLimit)
		assert.Equal(t, "m001", history[0].ID, "oldest message is evicted first")
		assert.Equal(t, "m100", history[len(history)-1].ID)

		require.NoError(t, ds.ClearChat(ctx))
		history, err = ds.ChatHistory(ctx)
		require.NoError(t, err)
		assert.Empty(t, history)
	})
}

func TestAuditLogs(t *testing.T) {
	forEachBackend(t, func(t *testing.T, ds DataStore) {
		ctx := context.Background()
		require.NoError(t, ds.SaveAuditLog(ctx, &models.AuditLog{ID: "a1", Report: "first", Severity: models.SeverityInfo, CreatedAt: base}))
		require.NoError(t, ds.SaveAuditLog(ctx, &models.AuditLog{ID: "a2", Report: "second", Severity: models.SeverityInfo, CreatedAt: base.Add(time.Hour)}))

		logs, err := ds.ListAuditLogs(ctx, 0)
		require.NoError(t, err)
		require.Len(t, logs, 2)
		assert.Equal(t, "a2", logs[0].ID)
	})
}

func TestTransactions(t *testing.T) {
	forEachBackend(t, func(t *testing.T, ds DataStore) {
		ctx := context.Background()
		require.NoError(t, ds.CreateUser(ctx, &models.User{ID: "u1", Username: "buyer", PasswordHash: "h", CreatedAt: base}))

		uid := "u1"
		purchase := &models.Transaction{ID: "t1", UserID: &uid, Type: "purchase", Amount: "5000", Currency: "UPX", Status: models.TxPending, Chain: "Ethereum", CreatedAt: base}
		ledgerRow := &models.Transaction{ID: "t2", Type: "mint", To: "0xabc", Amount: "10", Currency: "UPX", Status: models.TxCompleted, Chain: "unitypay-ledger", CreatedAt: base.Add(time.Second)}
		require.NoError(t, ds.CreateTransaction(ctx, purchase))
		require.NoError(t, ds.CreateTransaction(ctx, ledgerRow))
		assert.ErrorIs(t, ds.CreateTransaction(ctx, ledgerRow), ErrDuplicate)

		mine, err := ds.ListTransactions(ctx, models.TransactionFilter{UserID: "u1"})
		require.NoError(t, err)
		require.Len(t, mine, 1)
		require.NotNil(t, mine[0].UserID)
		assert.Equal(t, "u1", *mine[0].UserID)

		chain, err := ds.ListTransactions(ctx, models.TransactionFilter{Chain: "unitypay-ledger", Ascending: true})
		require.NoError(t, err)
		require.Len(t, chain, 1)
		assert.Nil(t, chain[0].UserID)
		assert.Equal(t, "0xabc", chain[0].To)

		all, err := ds.ListTransactions(ctx, models.TransactionFilter{Limit: 1})
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "t2", all[0].ID, "newest first by default")

		updated, err := ds.UpdateTransactionStatus(ctx, "t1", models.TxCompleted)
		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, models.TxCompleted, updated.Status)

		missing, err := ds.UpdateTransactionStatus(ctx, "nope", models.TxFailed)
		require.NoError(t, err)
		assert.Nil(t, missing)
	})
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "reopen.db")

	s, err := NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.SaveMeetingReport(ctx, report("r1", models.MeetingOnCall, base)))
	s.Close()

	s, err = NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.LatestMeetingReport(ctx, models.MeetingOnCall)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "r1", got.ID)
}
