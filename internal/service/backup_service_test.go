package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/echotrack/echotrack-api/internal/models"
	"github.com/echotrack/echotrack-api/pkg/config"
	appErrors "github.com/echotrack/echotrack-api/pkg/errors"
	"github.com/echotrack/echotrack-api/pkg/storage"
)

type fakeLister struct {
	items []models.EchoRequest
}

func (f *fakeLister) List(context.Context) ([]models.EchoRequest, error) {
	return f.items, nil
}

func newBackupService(t *testing.T, dir string, maxBackups int) *BackupService {
	t.Helper()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test_secret", 10*time.Minute)
	cal := newTestCalendar(t)

	lister := &fakeLister{items: []models.EchoRequest{
		{
			ID:           1,
			DisplayID:    "25.0001",
			Pathway:      models.PathwayRed,
			RequestTime:  londonTime(t, "2025-03-10 09:00"),
			ExpectedTime: londonTime(t, "2025-03-11 09:00"),
			Status:       models.StatusPending,
			TriageDate:   day(t, "2025-03-10"),
			Ward:         "CCU",
		},
	}}
	return NewBackupService(lister, store, signer, NewMetricsService(), zap.NewNop(), cal, config.BackupConfig{
		Enabled:    true,
		Dir:        dir,
		MaxBackups: maxBackups,
	})
}

func TestSnapshotWritesNamedCSV(t *testing.T) {
	dir := t.TempDir()
	svc := newBackupService(t, dir, 3)
	svc.now = func() time.Time { return londonTime(t, "2025-03-12 00:00") }

	filename, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "BACKUP-ECHO-IN-TRACK-2025-03-12-00-00.csv", filename)

	data, err := os.ReadFile(filepath.Join(dir, filename))
	require.NoError(t, err)
	body := string(data)
	assert.Contains(t, body, "display_id")
	assert.Contains(t, body, "25.0001")
}

func TestSnapshotPrunesOldBackups(t *testing.T) {
	dir := t.TempDir()
	svc := newBackupService(t, dir, 2)

	stamps := []string{"2025-03-09 00:00", "2025-03-10 00:00", "2025-03-11 00:00"}
	for _, stamp := range stamps {
		fixed := londonTime(t, stamp)
		svc.now = func() time.Time { return fixed }
		_, err := svc.Snapshot(context.Background())
		require.NoError(t, err)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, entry := range entries {
		assert.NotContains(t, entry.Name(), "2025-03-09", "oldest snapshot should be pruned")
	}
}

func TestDownloadTokenRoundTrip(t *testing.T) {
	dir := t.TempDir()
	svc := newBackupService(t, dir, 3)
	svc.now = func() time.Time { return londonTime(t, "2025-03-12 00:00") }

	filename, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	resp, err := svc.DownloadToken(filename)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)

	path, resolved, err := svc.ResolveToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, filename, resolved)
	assert.True(t, strings.HasSuffix(path, filename))
}

func TestDownloadTokenRejectsUnknownFile(t *testing.T) {
	svc := newBackupService(t, t.TempDir(), 3)

	_, err := svc.DownloadToken("BACKUP-ECHO-IN-TRACK-2099-01-01-00-00.csv")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.DownloadToken("../etc/passwd")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestResolveTokenRejectsGarbage(t *testing.T) {
	svc := newBackupService(t, t.TempDir(), 3)

	_, _, err := svc.ResolveToken("not.a.token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
