package repository

import (
	"context"

	"go.uber.org/zap"

	"github.com/roomly/booking-service/internal/model"
)

// UpsertProfile creates the profile on first authenticated access and
// refreshes token-derived attributes afterwards. Role and user-maintained
// fields are preserved on conflict.
func (r *repository) UpsertProfile(ctx context.Context, profile model.Profile) (model.Profile, error) {
	role := profile.Role
	if role == "" {
		role = "user"
	}
	q := `
	insert into profiles (id, email, full_name, institution, phone, photo_url, role)
	values ($1, $2, $3, $4, $5, $6, $7)
	on conflict (id) do update
	    set email = excluded.email,
	        full_name = excluded.full_name
	returning id, email, full_name, institution, phone, photo_url, role, created_at`

	var out model.Profile
	if err := r.db.GetContext(ctx, &out, q,
		profile.ID, profile.Email, profile.FullName, profile.Institution,
		profile.Phone, profile.PhotoURL, role); err != nil {
		r.log.Error("UpsertProfile", zap.Error(err))
		return model.Profile{}, err
	}
	return out, nil
}
