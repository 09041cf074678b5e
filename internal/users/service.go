package users

import (
	"context"
	"strings"

	"github.com/angelmondragon/buttery-backend/pkg/db/models"
	"github.com/angelmondragon/buttery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/buttery-backend/pkg/errors"
)

// Identity is what the external login provider tells us about a person.
type Identity struct {
	NetID string
	Name  string
	Email string
}

type userStore interface {
	FindByNetID(ctx context.Context, netID string) (*models.User, error)
	Upsert(ctx context.Context, user *models.User) error
}

// Service records users as they sign in.
type Service interface {
	Login(ctx context.Context, identity Identity) (*models.User, error)
	Get(ctx context.Context, netID string) (*models.User, error)
}

type service struct {
	store userStore
}

func NewService(store userStore) (Service, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "users repository required")
	}
	return &service{store: store}, nil
}

// Login upserts the identity. New users start as consumers; staff are promoted out of band.
func (s *service) Login(ctx context.Context, identity Identity) (*models.User, error) {
	netID := strings.ToLower(strings.TrimSpace(identity.NetID))
	if netID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "netid is required")
	}
	name := strings.TrimSpace(identity.Name)
	if name == "" {
		name = netID
	}
	email := strings.TrimSpace(identity.Email)
	if email == "" {
		email = netID + "@yale.edu"
	}
	user := &models.User{NetID: netID, Name: name, Email: email, Role: enums.UserRoleConsumer}
	if err := s.store.Upsert(ctx, user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save user")
	}
	return s.Get(ctx, netID)
}

func (s *service) Get(ctx context.Context, netID string) (*models.User, error) {
	user, err := s.store.FindByNetID(ctx, netID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return user, nil
}
