package settings

import (
	"context"
	"strings"
	"testing"

	"github.com/angelmondragon/buttery-backend/pkg/db/dbtest"
	"github.com/angelmondragon/buttery-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/buttery-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	seen []models.Settings
}

func (r *recordingNotifier) SettingsChanged(_ context.Context, s models.Settings) {
	r.seen = append(r.seen, s)
}

func newTestService(t *testing.T) (Service, *recordingNotifier) {
	t.Helper()
	notifier := &recordingNotifier{}
	svc, err := NewService(ServiceParams{Repo: NewRepository(dbtest.Open(t)), Notifier: notifier})
	require.NoError(t, err)
	return svc, notifier
}

func TestStatusCreatesClosedDefaults(t *testing.T) {
	svc, _ := newTestService(t)

	row, err := svc.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.SettingsID, row.ID)
	assert.False(t, row.ButteryOpen)
	assert.False(t, row.GrillOpen)
}

func TestTogglesFlipAndNotify(t *testing.T) {
	svc, notifier := newTestService(t)
	ctx := context.Background()

	row, err := svc.ToggleButtery(ctx)
	require.NoError(t, err)
	assert.True(t, row.ButteryOpen)
	assert.False(t, row.GrillOpen)

	row, err = svc.ToggleGrill(ctx)
	require.NoError(t, err)
	assert.True(t, row.GrillOpen)

	row, err = svc.ToggleButtery(ctx)
	require.NoError(t, err)
	assert.False(t, row.ButteryOpen)
	assert.True(t, row.GrillOpen)

	require.Len(t, notifier.seen, 3)
}

func TestSetAnnouncementTrimsAndBounds(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	row, err := svc.SetAnnouncement(ctx, "  Grill closes at 1am  ")
	require.NoError(t, err)
	assert.Equal(t, "Grill closes at 1am", row.Announcement)

	_, err = svc.SetAnnouncement(ctx, strings.Repeat("x", MaxAnnouncementLength+1))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestNewServiceRequiresRepo(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}
