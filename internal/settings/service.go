package settings

import (
	"context"
	"strings"

	"github.com/angelmondragon/buttery-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/buttery-backend/pkg/errors"
)

const (
	columnGrillOpen   = "grill_open"
	columnButteryOpen = "buttery_open"
)

// MaxAnnouncementLength bounds the banner text shown to customers.
const MaxAnnouncementLength = 500

// ChangeNotifier receives settings after a successful write.
type ChangeNotifier interface {
	SettingsChanged(ctx context.Context, settings models.Settings)
}

// Service exposes service status reads and staff toggles.
type Service interface {
	Status(ctx context.Context) (*models.Settings, error)
	ToggleGrill(ctx context.Context) (*models.Settings, error)
	ToggleButtery(ctx context.Context) (*models.Settings, error)
	SetAnnouncement(ctx context.Context, text string) (*models.Settings, error)
}

type service struct {
	repo     Repository
	notifier ChangeNotifier
}

// ServiceParams wires the settings service.
type ServiceParams struct {
	Repo     Repository
	Notifier ChangeNotifier
}

// NewService validates dependencies. Notifier is optional.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "settings repository required")
	}
	return &service{repo: params.Repo, notifier: params.Notifier}, nil
}

func (s *service) Status(ctx context.Context) (*models.Settings, error) {
	row, err := s.repo.Get(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load settings")
	}
	return row, nil
}

func (s *service) ToggleGrill(ctx context.Context) (*models.Settings, error) {
	return s.toggle(ctx, columnGrillOpen)
}

func (s *service) ToggleButtery(ctx context.Context) (*models.Settings, error) {
	return s.toggle(ctx, columnButteryOpen)
}

func (s *service) toggle(ctx context.Context, column string) (*models.Settings, error) {
	row, err := s.repo.Toggle(ctx, column)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "toggle "+column)
	}
	s.notify(ctx, row)
	return row, nil
}

func (s *service) SetAnnouncement(ctx context.Context, text string) (*models.Settings, error) {
	text = strings.TrimSpace(text)
	if len([]rune(text)) > MaxAnnouncementLength {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "announcement must be at most %d characters", MaxAnnouncementLength)
	}
	row, err := s.repo.SetAnnouncement(ctx, text)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update announcement")
	}
	s.notify(ctx, row)
	return row, nil
}

func (s *service) notify(ctx context.Context, row *models.Settings) {
	if s.notifier != nil && row != nil {
		s.notifier.SettingsChanged(ctx, *row)
	}
}
