package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/oggyb/matchmaker/internal/app"
	"github.com/oggyb/matchmaker/internal/db"
	svcErr "github.com/oggyb/matchmaker/internal/errors"
	"github.com/oggyb/matchmaker/internal/logger"
	"github.com/oggyb/matchmaker/internal/repository"
)

const birthDateLayout = "2006-01-02"

var errBadCredentials = svcErr.Unauthenticated("invalid email or password")

// RegisterInput is a new account. RealName is optional.
type RegisterInput struct {
	Email     string
	Password  string
	Nickname  string
	Gender    string
	BirthDate string
	RealName  *string
	Tags      string
	MajorID   uint64
}

// LoginResult carries the issued token and a short view of the user.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	UserID    uint64
	Nickname  string
}

// Profile is the owner's view of their account. It never carries the password hash.
type Profile struct {
	ID                uint64    `json:"id"`
	Email             string    `json:"email"`
	Nickname          string    `json:"nickname"`
	RealName          *string   `json:"real_name"`
	Tags              string    `json:"tags"`
	Bio               *string   `json:"bio"`
	Gender            string    `json:"gender"`
	BirthDate         time.Time `json:"birth_date"`
	ProfileImageURL   *string   `json:"profile_image_url"`
	PhotoStatus       string    `json:"photo_status"`
	MajorID           *uint64   `json:"major_id"`
	CurrentLocationID *string   `json:"current_location_id"`
}

func toProfile(u *db.User) Profile {
	return Profile{
		ID:                u.ID,
		Email:             u.Email,
		Nickname:          u.Nickname,
		RealName:          u.RealName,
		Tags:              u.Tags,
		Bio:               u.Bio,
		Gender:            u.Gender,
		BirthDate:         u.BirthDate,
		ProfileImageURL:   u.ProfileImageURL,
		PhotoStatus:       u.PhotoStatus,
		MajorID:           u.MajorID,
		CurrentLocationID: u.CurrentLocationID,
	}
}

// Service implements accounts: registration, login, profile and check-in.
type Service struct {
	appCtx *app.AppContext
	users  *repository.UserRepository
}

func NewUserService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx: appCtx,
		users:  repository.NewUserRepository(appCtx.DB),
	}
}

// Register creates an account and returns its id.
// A taken email → AlreadyExists.
func (s *Service) Register(ctx context.Context, in RegisterInput) (uint64, error) {
	log := logger.FromContext(ctx, s.appCtx.Logger)

	birth, err := time.Parse(birthDateLayout, in.BirthDate)
	if err != nil {
		return 0, svcErr.InvalidArgument("birth_date must be YYYY-MM-DD")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost())
	if err != nil {
		log.Error("hash password failed", "err", err)
		return 0, svcErr.Map(err)
	}

	major := in.MajorID
	u := &db.User{
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: string(hash),
		Nickname:     strings.TrimSpace(in.Nickname),
		RealName:     in.RealName,
		Gender:       strings.ToLower(strings.TrimSpace(in.Gender)),
		BirthDate:    birth,
		Tags:         in.Tags,
		MajorID:      &major,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, svcErr.AlreadyExists("email already registered")
		}
		log.Error("create user failed", "err", err)
		return 0, svcErr.Map(err)
	}

	log.Info("user registered", "user_id", u.ID)
	return u.ID, nil
}

// Login checks the password and issues an access token. Unknown email and
// wrong password give the same error.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	u, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LoginResult{}, errBadCredentials
		}
		logger.FromContext(ctx, s.appCtx.Logger).Error("load user for login failed", "err", err)
		return LoginResult{}, svcErr.Map(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return LoginResult{}, errBadCredentials
	}

	token, exp, err := s.appCtx.Tokens.Issue(u.ID, u.Email)
	if err != nil {
		logger.FromContext(ctx, s.appCtx.Logger).Error("issue token failed", "user_id", u.ID, "err", err)
		return LoginResult{}, svcErr.Map(err)
	}
	return LoginResult{Token: token, ExpiresAt: exp, UserID: u.ID, Nickname: u.Nickname}, nil
}

// Profile returns the caller's own profile.
func (s *Service) Profile(ctx context.Context, userID uint64) (Profile, error) {
	u, err := s.findUser(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	return toProfile(u), nil
}

// UpdateProfile applies a partial update. Nothing to change → InvalidArgument.
func (s *Service) UpdateProfile(ctx context.Context, userID uint64, p repository.ProfileUpdate) error {
	if len(p.Columns()) == 0 {
		return svcErr.InvalidArgument("no fields to update")
	}
	if _, err := s.findUser(ctx, userID); err != nil {
		return err
	}
	if err := s.users.UpdateProfile(ctx, userID, p); err != nil {
		logger.FromContext(ctx, s.appCtx.Logger).Error("update profile failed", "user_id", userID, "err", err)
		return svcErr.Map(err)
	}
	return nil
}

// CheckIn records the caller's current location; it drives candidate ordering.
func (s *Service) CheckIn(ctx context.Context, userID uint64, locationID string) error {
	locationID = strings.TrimSpace(locationID)
	if locationID == "" {
		return svcErr.InvalidArgument("locationId is required")
	}
	if _, err := s.findUser(ctx, userID); err != nil {
		return err
	}
	if err := s.users.UpdateLocation(ctx, userID, locationID); err != nil {
		logger.FromContext(ctx, s.appCtx.Logger).Error("check-in failed", "user_id", userID, "err", err)
		return svcErr.Map(err)
	}
	return nil
}

func (s *Service) findUser(ctx context.Context, userID uint64) (*db.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, svcErr.NotFound("user not found")
		}
		logger.FromContext(ctx, s.appCtx.Logger).Error("load user failed", "user_id", userID, "err", err)
		return nil, svcErr.Map(err)
	}
	return u, nil
}

func (s *Service) bcryptCost() int {
	cost := s.appCtx.Config.JWT.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return bcrypt.DefaultCost
	}
	return cost
}
