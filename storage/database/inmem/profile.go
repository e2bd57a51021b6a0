package inmemdb

import (
	"context"

	"github.com/flowlearn/pawfessor/core"
	"github.com/flowlearn/pawfessor/core/profile"
)

type profileRepository struct {
	db *DB
}

var _ profile.Repository = (*profileRepository)(nil) // interface compliance check

func NewProfileRepository(db *DB) *profileRepository {
	return &profileRepository{db: db}
}

func (repo *profileRepository) indexOf(id string) int {
	for i, p := range repo.db.profiles {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (repo *profileRepository) CheckEmailUniqueness(_ context.Context, email string, excludedIDs ...string) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

outer:
	for _, p := range repo.db.profiles {
		if p.Email != email {
			continue
		}
		for _, id := range excludedIDs {
			if p.ID == id {
				continue outer
			}
		}
		return profile.ErrEmailExists
	}
	return nil
}

func (repo *profileRepository) CreateProfile(_ context.Context, p profile.Profile) (profile.Profile, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, other := range repo.db.profiles {
		if other.Email == p.Email {
			return profile.Profile{}, profile.ErrEmailExists
		}
	}
	p.ID = newIDFunc()
	repo.db.profiles = append(repo.db.profiles, p)
	return p, nil
}

func (repo *profileRepository) QueryProfiles(_ context.Context, filter *profile.QueryFilter, ordering []core.DBOrdering) ([]profile.Profile, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	profiles := make([]profile.Profile, 0, len(repo.db.profiles))
	for _, p := range repo.db.profiles {
		if filter != nil && !matchProfile(p, filter) {
			continue
		}
		profiles = append(profiles, p)
	}

	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at"}}
	}
	sortBy(len(profiles), func(i, j int) { profiles[i], profiles[j] = profiles[j], profiles[i] }, ordering,
		func(i, j int, field string) (bool, bool) {
			a, b := profiles[i], profiles[j]
			switch field {
			case "name":
				return a.Name < b.Name, true
			case "email":
				return a.Email < b.Email, true
			case "role":
				return a.Role < b.Role, true
			case "created_at":
				return a.CreatedAt.Before(b.CreatedAt), true
			case "last_login":
				return a.LastLogin.Before(b.LastLogin), true
			}
			return false, false
		})
	return profiles, nil
}

func matchProfile(p profile.Profile, filter *profile.QueryFilter) bool {
	if filter.Search != "" && !(containsFold(p.Name, filter.Search) || containsFold(p.Email, filter.Search)) {
		return false
	}
	if len(filter.Roles) > 0 {
		var found bool
		for _, r := range filter.Roles {
			if p.Role == r {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !filter.CreatedFrom.IsZero() && p.CreatedAt.Before(filter.CreatedFrom) {
		return false
	}
	if !filter.CreatedTo.IsZero() && p.CreatedAt.After(filter.CreatedTo) {
		return false
	}
	return true
}

func (repo *profileRepository) GetProfileByID(_ context.Context, id string) (profile.Profile, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if i := repo.indexOf(id); i >= 0 {
		return repo.db.profiles[i], nil
	}
	return profile.Profile{}, profile.ErrNotFound
}

func (repo *profileRepository) GetProfileByEmail(_ context.Context, email string) (profile.Profile, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, p := range repo.db.profiles {
		if p.Email == email {
			return p, nil
		}
	}
	return profile.Profile{}, profile.ErrNotFound
}

func (repo *profileRepository) UpdateProfile(_ context.Context, p profile.Profile) (profile.Profile, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	i := repo.indexOf(p.ID)
	if i < 0 {
		return profile.Profile{}, profile.ErrNotFound
	}
	repo.db.profiles[i] = p
	return p, nil
}

func (repo *profileRepository) DeleteProfilesByID(_ context.Context, ids []string) (int, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	del := make(map[string]bool, len(ids))
	for _, id := range ids {
		del[id] = true
	}
	kept := repo.db.profiles[:0]
	for _, p := range repo.db.profiles {
		if !del[p.ID] {
			kept = append(kept, p)
		}
	}
	cnt := len(repo.db.profiles) - len(kept)
	repo.db.profiles = kept
	return cnt, nil
}
