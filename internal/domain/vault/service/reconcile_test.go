package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/payslip-vault/pkg/crypto"
)

// vaultBlob seals the given content and uploads it directly, bypassing the
// ingestion pipeline.
func vaultBlob(t *testing.T, h *testHarness, name string, content []byte) string {
	t.Helper()
	sealed, err := crypto.Encrypt(content, testSecret)
	require.NoError(t, err)
	info, err := h.vault.Put(context.Background(), sealed, name)
	require.NoError(t, err)
	return info.ID
}

func TestReconcile_BackfillsMissingRecords(t *testing.T) {
	h := newTestHarness(t)
	id := vaultBlob(t, h, "Payslip 2025-08-25_1.enc", []byte("pdf bytes"))

	report, err := h.svc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Total)
	assert.Equal(t, 1, report.Added)
	assert.Equal(t, 0, report.Removed)
	assert.Equal(t, 0, report.Skipped)

	row, ok := h.repo.rows[id]
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 8, 25, 0, 0, 0, 0, time.UTC), row.periodDate)
}

func TestReconcile_DeletesStaleRecords(t *testing.T) {
	h := newTestHarness(t)
	require.NoError(t, h.repo.InsertIfAbsent(context.Background(), "gone-blob",
		time.Date(2025, 6, 25, 0, 0, 0, 0, time.UTC), []byte("payload")))

	report, err := h.svc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Total)
	assert.Equal(t, 0, report.Added)
	assert.Equal(t, 1, report.Removed)
	assert.Empty(t, h.repo.rows)
}

func TestReconcile_SecondRunIsIdempotent(t *testing.T) {
	h := newTestHarness(t)
	vaultBlob(t, h, "Payslip 2025-07-25_1.enc", []byte("july"))
	vaultBlob(t, h, "Payslip 2025-08-25_1.enc", []byte("august"))

	first, err := h.svc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, first.Added)

	second, err := h.svc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, second.Total)
	assert.Equal(t, 0, second.Added)
	assert.Equal(t, 0, second.Removed)
	assert.Equal(t, 0, second.Skipped)
}

func TestReconcile_SkipsBlobsWithoutPeriodDate(t *testing.T) {
	h := newTestHarness(t)
	vaultBlob(t, h, "notes.enc", []byte("not a payslip"))

	report, err := h.svc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0, report.Added)
	assert.Empty(t, h.repo.rows)
}

func TestReconcile_RaceGuardPreventsDoubleInsert(t *testing.T) {
	h := newTestHarness(t)
	id := vaultBlob(t, h, "Payslip 2025-08-25_1.enc", []byte("pdf"))

	// Simulate an ingestion landing between the listing and the insert.
	h.repo.raceExists[id] = true

	report, err := h.svc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Added)
	assert.Equal(t, 0, report.Skipped)
	assert.Empty(t, h.repo.rows)
}

func TestReconcile_OneBadBlobDoesNotAbortTheRun(t *testing.T) {
	h := newTestHarness(t)
	badID := vaultBlob(t, h, "Payslip 2025-07-25_1.enc", []byte("july"))
	goodID := vaultBlob(t, h, "Payslip 2025-08-25_1.enc", []byte("august"))
	h.vault.getErr[badID] = errors.New("storage unavailable")

	report, err := h.svc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 1, report.Added)
	assert.Equal(t, 1, report.Skipped)

	_, ok := h.repo.rows[goodID]
	assert.True(t, ok)
	_, ok = h.repo.rows[badID]
	assert.False(t, ok)
}
