// Package notifications fans committed changes out to the staff live feed and the sheet mirror.
// Every sink runs on the background runner; failures are logged there and never reach the caller.
package notifications

import (
	"context"
	"fmt"

	"github.com/angelmondragon/buttery-backend/internal/mirror"
	"github.com/angelmondragon/buttery-backend/internal/orders"
	"github.com/angelmondragon/buttery-backend/pkg/background"
	"github.com/angelmondragon/buttery-backend/pkg/db/models"
	"github.com/angelmondragon/buttery-backend/pkg/enums"
	"github.com/angelmondragon/buttery-backend/pkg/servicewindow"
)

type livePublisher interface {
	Publish(ctx context.Context, typ enums.LiveEventType, data any) error
}

// Fanout implements the change notifiers of the settings, menu and orders services.
type Fanout struct {
	runner background.Runner
	live   livePublisher
	mirror mirror.Mirror
	clock  *servicewindow.Clock
}

type Params struct {
	Runner background.Runner
	Live   livePublisher
	Mirror mirror.Mirror
	Clock  *servicewindow.Clock
}

// NewFanout validates dependencies. A nil Mirror means no spreadsheet is configured.
func NewFanout(params Params) (*Fanout, error) {
	if params.Runner == nil {
		return nil, fmt.Errorf("background runner required")
	}
	if params.Live == nil {
		return nil, fmt.Errorf("live publisher required")
	}
	if params.Clock == nil {
		return nil, fmt.Errorf("service clock required")
	}
	m := params.Mirror
	if m == nil {
		m = mirror.Nop()
	}
	return &Fanout{runner: params.Runner, live: params.Live, mirror: m, clock: params.Clock}, nil
}

// OrderEvent is the live payload for order messages.
type OrderEvent struct {
	Order orders.OrderDTO `json:"order"`
}

func (f *Fanout) OrderPlaced(ctx context.Context, placed orders.Placed) {
	dto := orders.ToDTO(placed.Order, f.clock)
	if placed.CustomerName != "" && dto.Name == orders.UnknownCustomer {
		dto.Name = placed.CustomerName
	}
	f.runner.Go(ctx, "live.new_order", func(ctx context.Context) error {
		return f.live.Publish(ctx, enums.LiveEventNewOrder, OrderEvent{Order: dto})
	})
	f.runner.Go(ctx, "mirror.order_placed", func(ctx context.Context) error {
		return f.mirror.OrderPlaced(ctx, placed)
	})
}

func (f *Fanout) OrderUpdated(ctx context.Context, order models.Order) {
	dto := orders.ToDTO(order, f.clock)
	f.runner.Go(ctx, "live.order_updated", func(ctx context.Context) error {
		return f.live.Publish(ctx, enums.LiveEventOrderUpdated, OrderEvent{Order: dto})
	})
	f.runner.Go(ctx, "mirror.order_updated", func(ctx context.Context) error {
		return f.mirror.OrderUpdated(ctx, order)
	})
}

func (f *Fanout) StockChanged(ctx context.Context) {
	f.runner.Go(ctx, "live.stock_updated", func(ctx context.Context) error {
		return f.live.Publish(ctx, enums.LiveEventStockUpdated, nil)
	})
	f.runner.Go(ctx, "mirror.stock_changed", f.mirror.StockChanged)
}

func (f *Fanout) MenuChanged(ctx context.Context) {
	f.runner.Go(ctx, "mirror.menu_changed", f.mirror.MenuChanged)
}

// SettingsEvent is the live payload for settings messages.
type SettingsEvent struct {
	ButteryOpen  bool   `json:"buttery_open"`
	GrillOpen    bool   `json:"grill_open"`
	Announcement string `json:"announcement"`
}

func (f *Fanout) SettingsChanged(ctx context.Context, settings models.Settings) {
	event := SettingsEvent{
		ButteryOpen:  settings.ButteryOpen,
		GrillOpen:    settings.GrillOpen,
		Announcement: settings.Announcement,
	}
	f.runner.Go(ctx, "live.settings_updated", func(ctx context.Context) error {
		return f.live.Publish(ctx, enums.LiveEventSettings, event)
	})
	f.runner.Go(ctx, "mirror.announcement_changed", func(ctx context.Context) error {
		return f.mirror.AnnouncementChanged(ctx, settings.Announcement)
	})
}
