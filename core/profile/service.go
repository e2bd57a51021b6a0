package profile

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"

	"github.com/flowlearn/pawfessor/core"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound           = errors.New("profile not found")
	ErrEmailExists        = errors.New("a profile with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type (
	Repository interface {
		// CheckEmailUniqueness returns ErrEmailExists if a profile other than the excluded ones uses email.
		CheckEmailUniqueness(ctx context.Context, email string, excludedIDs ...string) error
		CreateProfile(ctx context.Context, p Profile) (Profile, error)
		// QueryProfiles applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on Profile.Name or Profile.Email.
		QueryProfiles(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Profile, error)
		GetProfileByID(ctx context.Context, id string) (Profile, error)
		GetProfileByEmail(ctx context.Context, email string) (Profile, error)
		UpdateProfile(ctx context.Context, p Profile) (Profile, error)
		DeleteProfilesByID(ctx context.Context, ids []string) (int, error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

// NewService expects validate to have been set up with InitValidators.
func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

func (svc *Service) checkUniqueness(ctx context.Context, email string, excludedIDs ...string) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, excludedIDs...); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, np NewProfile) (Profile, error) {
	np.clean()
	if err := svc.validate.Struct(np); err != nil {
		return Profile{}, err
	}
	if err := svc.checkUniqueness(ctx, np.Email); err != nil {
		return Profile{}, err
	}

	now := NowFunc().UTC()
	p := Profile{
		Name:      np.Name,
		Email:     np.Email,
		Role:      np.Role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.SetPassword(np.Password); err != nil {
		return Profile{}, pkgerrors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateProfile(ctx, p)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Profile, error) {
	return svc.repo.GetProfileByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (Profile, error) {
	return svc.repo.GetProfileByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Profile, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryProfiles(ctx, filter, ordering)
}

func (svc *Service) Update(ctx context.Context, id string, up UpdateProfile) (Profile, error) {
	p, err := svc.repo.GetProfileByID(ctx, id)
	if err != nil {
		return Profile{}, err
	}

	up.clean(p)
	if err = svc.validate.Struct(up); err != nil {
		return Profile{}, err
	}
	if up.Email != p.Email {
		if err = svc.checkUniqueness(ctx, up.Email, p.ID); err != nil {
			return Profile{}, err
		}
	}

	p.Name = up.Name
	p.Email = up.Email
	p.UpdatedAt = NowFunc().UTC()
	if up.Password != "" {
		if err = p.SetPassword(up.Password); err != nil {
			return Profile{}, pkgerrors.Wrap(err, "hashing password")
		}
	}
	return svc.repo.UpdateProfile(ctx, p)
}

// SetPassword resets the password of the profile identified by email, applying the password policy.
func (svc *Service) SetPassword(ctx context.Context, email, pwd string) error {
	p, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	_, err = svc.Update(ctx, p.ID, UpdateProfile{Password: pwd, PasswordConfirm: pwd})
	return err
}

// Authenticate returns the profile matching email & pwd, or ErrInvalidCredentials.
func (svc *Service) Authenticate(ctx context.Context, email, pwd string) (Profile, error) {
	p, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if err == ErrNotFound {
			return Profile{}, ErrInvalidCredentials
		}
		return Profile{}, pkgerrors.Wrap(err, "finding profile by email")
	}
	if err = p.CheckPassword(pwd); err != nil {
		return Profile{}, ErrInvalidCredentials
	}
	return p, nil
}

func (svc *Service) SetLastLogin(ctx context.Context, p Profile) (Profile, error) {
	p.LastLogin = NowFunc().UTC()
	return svc.repo.UpdateProfile(ctx, p)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) (int, error) {
	return svc.repo.DeleteProfilesByID(ctx, ids)
}
