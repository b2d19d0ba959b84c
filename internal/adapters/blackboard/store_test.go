package blackboard

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alejandrodnm/hivebot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "blackboard.json"))
}

func TestStore_LoadMissingReturnsSkeleton(t *testing.T) {
	s := tempStore(t)
	b := s.Load()
	require.NotNil(t, b)
	assert.Equal(t, domain.RiskHealthy, b.RiskState)
	assert.Empty(t, b.Opportunities)
}

func TestStore_LoadCorruptReturnsSkeleton(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blackboard.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	b := NewStore(path).Load()
	require.NotNil(t, b)
	assert.Equal(t, domain.RiskHealthy, b.RiskState)
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	s := tempStore(t)

	b := domain.NewBlackboard()
	b.RiskState = domain.RiskWarning
	b.Alerts = []string{"LOW GAS: 0.5000 POL (min: 1.0)"}
	b.ActivePositions = []domain.Position{{ConditionID: "0xa", EntryPrice: 0.4, Size: 25, Strategy: "DIP_BUY"}}
	require.NoError(t, s.Save(b))

	got := s.Load()
	assert.Equal(t, domain.RiskWarning, got.RiskState)
	assert.Equal(t, b.Alerts, got.Alerts)
	require.Len(t, got.ActivePositions, 1)
	assert.Equal(t, 0.4, got.ActivePositions[0].EntryPrice)
}

func TestStore_LoadToleratesMissingKeys(t *testing.T) {
	// Documento de una versión vieja: solo risk_state
	dir := t.TempDir()
	path := filepath.Join(dir, "blackboard.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"risk_state": "CRITICAL"}`), 0o644))

	b := NewStore(path).Load()
	assert.Equal(t, domain.RiskCritical, b.RiskState)
	assert.Empty(t, b.Opportunities)
	assert.Zero(t, b.TotalExposure)
}

func TestStore_LoadNormalizesUnknownRiskState(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blackboard.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"risk_state": "BANANAS"}`), 0o644))

	b := NewStore(path).Load()
	assert.Equal(t, domain.RiskHealthy, b.RiskState)
}

func TestStore_UpdatePersistsMutation(t *testing.T) {
	s := tempStore(t)

	err := s.Update(func(b *domain.Blackboard) error {
		b.ScanCount = 7
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, s.Load().ScanCount)
}

func TestStore_UpdateErrorDoesNotPersist(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, s.Update(func(b *domain.Blackboard) error {
		b.ScanCount = 1
		return nil
	}))

	err := s.Update(func(b *domain.Blackboard) error {
		b.ScanCount = 99
		return assert.AnError
	})
	require.Error(t, err)
	assert.Equal(t, 1, s.Load().ScanCount)
}

// Update serializa escritores concurrentes: ningún incremento se pierde.
func TestStore_UpdateSerializesWriters(t *testing.T) {
	s := tempStore(t)

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Update(func(b *domain.Blackboard) error {
				b.ScanCount++
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, writers, s.Load().ScanCount)
}

func TestStore_SaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(filepath.Join(dir, "blackboard.json"))
	require.NoError(t, s.Save(domain.NewBlackboard()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "blackboard.json", entries[0].Name())
}
