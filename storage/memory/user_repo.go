package memory

import (
	"context"

	"alwahis/pkg/models"
)

type userRepo struct{ s *Store }

func (r *userRepo) GetOrCreate(ctx context.Context, phone, name, role string) (*models.User, error) {
	defer r.s.lock()()

	for _, u := range r.s.st.users {
		if u.Phone == phone {
			return &u, nil
		}
	}

	r.s.st.userSeq++
	now := r.s.now()
	u := models.User{
		ID:        r.s.st.userSeq,
		Phone:     phone,
		Name:      name,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.s.st.users[u.ID] = u
	return &u, nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	defer r.s.lock()()

	u, ok := r.s.st.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &u, nil
}

func (r *userRepo) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	defer r.s.lock()()

	for _, u := range r.s.st.users {
		if u.Phone == phone {
			return &u, nil
		}
	}
	return nil, models.ErrNotFound
}
