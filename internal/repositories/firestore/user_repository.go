package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/stockroom/api/internal/domain"
	pfirestore "github.com/stockroom/api/internal/platform/firestore"
)

const usersCollection = "users"

// UserRepository reads the account store. Accounts are provisioned by the
// identity system; this API only resolves roles and notification recipients.
type UserRepository struct {
	users *pfirestore.BaseRepository[userDocument]
}

func NewUserRepository(provider *pfirestore.Provider) (*UserRepository, error) {
	if provider == nil {
		return nil, errors.New("user repository requires firestore provider")
	}
	users := pfirestore.NewBaseRepository[userDocument](provider, usersCollection, nil, nil)
	return &UserRepository{users: users}, nil
}

func (r *UserRepository) FindByID(ctx context.Context, userID string) (domain.User, error) {
	if r == nil || r.users == nil {
		return domain.User{}, errors.New("user repository not initialised")
	}
	if strings.TrimSpace(userID) == "" {
		return domain.User{}, errors.New("user find: id is required")
	}
	doc, err := r.users.Get(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

// ListAdminIDs returns the ids of all admin accounts.
func (r *UserRepository) ListAdminIDs(ctx context.Context) ([]string, error) {
	if r == nil || r.users == nil {
		return nil, errors.New("user repository not initialised")
	}
	docs, err := r.users.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("role", "==", string(domain.UserRoleAdmin))
	})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}
	return ids, nil
}

type userDocument struct {
	Email     string    `firestore:"email"`
	Name      string    `firestore:"name"`
	Role      string    `firestore:"role"`
	CreatedAt time.Time `firestore:"createdAt"`
}

func (d userDocument) toDomain(id string) domain.User {
	return domain.User{
		ID:        id,
		Email:     d.Email,
		Name:      d.Name,
		Role:      domain.UserRole(d.Role),
		CreatedAt: d.CreatedAt,
	}
}
