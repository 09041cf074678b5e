package orders

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/angelmondragon/buttery-backend/pkg/db/models"
	"github.com/angelmondragon/buttery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/buttery-backend/pkg/errors"
	"github.com/angelmondragon/buttery-backend/pkg/servicewindow"
	"gorm.io/gorm"
)

// RecentLimit is how many orders the customer menu page shows.
const RecentLimit = 5

// UpdateNotifier is told about committed staff updates to an order.
type UpdateNotifier interface {
	OrderUpdated(ctx context.Context, order models.Order)
}

// Service serves order reads for customers and staff plus staff status updates.
type Service interface {
	Feed(ctx context.Context, sinceID int64) (*FeedResult, error)
	Recent(ctx context.Context, netID string) ([]OrderDTO, error)
	History(ctx context.Context, netID string) ([]HistoryGroup, error)
	StaffHistory(ctx context.Context) ([]HistoryGroup, error)
	UpdateStatus(ctx context.Context, id int64, status string) (*OrderDTO, error)
	UpdatePaid(ctx context.Context, id int64, paid bool) (*OrderDTO, error)
}

type service struct {
	repo     Repository
	clock    *servicewindow.Clock
	now      func() time.Time
	notifier UpdateNotifier
}

// ServiceParams wires the orders service. Now defaults to time.Now; Notifier is optional.
type ServiceParams struct {
	Repo     Repository
	Clock    *servicewindow.Clock
	Now      func() time.Time
	Notifier UpdateNotifier
}

// NewService validates dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repository required")
	}
	if params.Clock == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "service clock required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{repo: params.Repo, clock: params.Clock, now: now, notifier: params.Notifier}, nil
}

// Feed returns the current service's orders after sinceID. Negative cursors read as zero.
// MaxID is the last returned id, or the cursor when nothing is new.
func (s *service) Feed(ctx context.Context, sinceID int64) (*FeedResult, error) {
	if sinceID < 0 {
		sinceID = 0
	}
	start, end := s.clock.Window(s.now())
	rows, err := s.repo.ListWindow(ctx, start, end, sinceID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list service orders")
	}
	result := &FeedResult{Orders: s.toDTOs(rows), MaxID: sinceID}
	if len(rows) > 0 {
		result.MaxID = rows[len(rows)-1].ID
	}
	return result, nil
}

func (s *service) Recent(ctx context.Context, netID string) ([]OrderDTO, error) {
	rows, err := s.repo.ListForUser(ctx, netID, RecentLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list recent orders")
	}
	return s.toDTOs(rows), nil
}

func (s *service) History(ctx context.Context, netID string) ([]HistoryGroup, error) {
	rows, err := s.repo.ListForUser(ctx, netID, 0)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order history")
	}
	return s.group(rows), nil
}

func (s *service) StaffHistory(ctx context.Context) ([]HistoryGroup, error) {
	rows, err := s.repo.ListAll(ctx, 0)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list all orders")
	}
	return s.group(rows), nil
}

// group buckets rows (newest first) by service date, newest date first.
func (s *service) group(rows []models.Order) []HistoryGroup {
	groups := []HistoryGroup{}
	index := map[string]int{}
	for _, row := range rows {
		key := s.clock.DateKey(row.Timestamp)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, HistoryGroup{ServiceDate: key})
		}
		groups[i].Orders = append(groups[i].Orders, ToDTO(row, s.clock))
	}
	return groups
}

func (s *service) toDTOs(rows []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, ToDTO(row, s.clock))
	}
	return out
}

// UpdateStatus stores a staff status label. "done" marks the order handed out.
func (s *service) UpdateStatus(ctx context.Context, id int64, status string) (*OrderDTO, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid order update request.")
	}
	if len([]rune(status)) > enums.MaxOrderStatusLength {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "status must be at most %d characters", enums.MaxOrderStatusLength)
	}
	return s.update(ctx, id, map[string]any{"status": status})
}

func (s *service) UpdatePaid(ctx context.Context, id int64, paid bool) (*OrderDTO, error) {
	return s.update(ctx, id, map[string]any{"paid": paid})
}

func (s *service) update(ctx context.Context, id int64, updates map[string]any) (*OrderDTO, error) {
	found, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Order not found.")
	}
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Order not found.")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
	}
	if s.notifier != nil {
		s.notifier.OrderUpdated(ctx, *order)
	}
	dto := ToDTO(*order, s.clock)
	return &dto, nil
}
