package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/lexlink/chat-backend/internal/domain"
)

// ProfileRepository resolves display info for chat partners against the
// marketplace profile tables. Read-only; the tables are owned elsewhere.
type ProfileRepository interface {
	Find(identity domain.Identity) (*domain.Profile, error)
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new ProfileRepository
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

// Find looks up the profile row in the table matching the identity kind.
// A missing row is not an error to callers rendering a conversation list;
// they get an empty profile.
func (r *profileRepository) Find(identity domain.Identity) (*domain.Profile, error) {
	switch identity.Kind {
	case domain.KindUser:
		var u domain.UserProfile
		if err := r.db.First(&u, identity.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &domain.Profile{}, nil
			}
			return nil, err
		}
		return &domain.Profile{Name: u.Name, Image: u.Image}, nil
	case domain.KindLawyer:
		var l domain.LawyerProfile
		if err := r.db.First(&l, identity.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &domain.Profile{}, nil
			}
			return nil, err
		}
		return &domain.Profile{Name: l.Name, Image: l.Image}, nil
	}
	return nil, gorm.ErrRecordNotFound
}
