package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/buttery-backend/internal/orders"
	"github.com/angelmondragon/buttery-backend/pkg/background"
	"github.com/angelmondragon/buttery-backend/pkg/db/models"
	"github.com/angelmondragon/buttery-backend/pkg/enums"
	"github.com/angelmondragon/buttery-backend/pkg/servicewindow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	typ  enums.LiveEventType
	data any
}

type fakeLive struct {
	msgs []published
	err  error
}

func (f *fakeLive) Publish(_ context.Context, typ enums.LiveEventType, data any) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, published{typ: typ, data: data})
	return nil
}

type fakeMirror struct {
	calls []string
	err   error
}

func (f *fakeMirror) record(name string) error {
	f.calls = append(f.calls, name)
	return f.err
}

func (f *fakeMirror) OrderPlaced(context.Context, orders.Placed) error { return f.record("placed") }
func (f *fakeMirror) OrderUpdated(context.Context, models.Order) error { return f.record("updated") }
func (f *fakeMirror) StockChanged(context.Context) error { return f.record("stock") }
func (f *fakeMirror) MenuChanged(context.Context) error { return f.record("menu") }
func (f *fakeMirror) AnnouncementChanged(_ context.Context, msg string) error {
	return f.record("announcement:" + msg)
}

func newFanout(t *testing.T, live *fakeLive, m *fakeMirror) (*Fanout, *background.Inline) {
	t.Helper()
	runner := &background.Inline{}
	f, err := NewFanout(Params{Runner: runner, Live: live, Mirror: m, Clock: servicewindow.MustDefault()})
	require.NoError(t, err)
	return f, runner
}

func TestOrderPlacedPublishesThenMirrors(t *testing.T) {
	live, m := &fakeLive{}, &fakeMirror{}
	f, runner := newFanout(t, live, m)

	order := models.Order{ID: 9, TotalPrice: 600, Timestamp: time.Date(2025, 10, 3, 3, 0, 0, 0, time.UTC)}
	f.OrderPlaced(context.Background(), orders.Placed{Order: order, CustomerName: "Alex Kim"})

	require.Len(t, live.msgs, 1)
	assert.Equal(t, enums.LiveEventNewOrder, live.msgs[0].typ)
	event := live.msgs[0].data.(OrderEvent)
	assert.Equal(t, int64(9), event.Order.ID)
	assert.Equal(t, "Alex Kim", event.Order.Name)
	assert.Equal(t, "$6", event.Order.TotalDisplay)
	assert.Equal(t, []string{"placed"}, m.calls)
	assert.Empty(t, runner.Errors)
}

func TestSinkFailuresStayInRunner(t *testing.T) {
	live := &fakeLive{err: errors.New("redis down")}
	m := &fakeMirror{err: errors.New("sheets quota")}
	f, runner := newFanout(t, live, m)

	f.OrderUpdated(context.Background(), models.Order{ID: 3, Status: "done"})
	f.StockChanged(context.Background())

	assert.Len(t, runner.Errors, 4)
	assert.Equal(t, []string{"updated", "stock"}, m.calls)
}

func TestSettingsAndMenuChanges(t *testing.T) {
	live, m := &fakeLive{}, &fakeMirror{}
	f, _ := newFanout(t, live, m)

	f.SettingsChanged(context.Background(), models.Settings{ButteryOpen: true, Announcement: "Open late"})
	f.MenuChanged(context.Background())

	require.Len(t, live.msgs, 1)
	assert.Equal(t, enums.LiveEventSettings, live.msgs[0].typ)
	assert.Equal(t, SettingsEvent{ButteryOpen: true, Announcement: "Open late"}, live.msgs[0].data)
	assert.Equal(t, []string{"announcement:Open late", "menu"}, m.calls)
}

func TestNilMirrorFallsBackToNop(t *testing.T) {
	live := &fakeLive{}
	runner := &background.Inline{}
	f, err := NewFanout(Params{Runner: runner, Live: live, Clock: servicewindow.MustDefault()})
	require.NoError(t, err)

	f.StockChanged(context.Background())
	assert.Len(t, live.msgs, 1)
	assert.Empty(t, runner.Errors)
}
