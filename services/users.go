package services

import (
	"context"
	"errors"
	"strings"

	"campus-eats-api/apperr"
	"campus-eats-api/models"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserService struct {
	db  *gorm.DB
	log *logrus.Logger
}

type RegisterInput struct {
	Name          string
	Email         string
	Password      string
	Role          models.UserRole
	Phone         string
	CampusAddress string
}

// ProfileUpdate carries the optional fields a user may change.
type ProfileUpdate struct {
	Name          *string
	Phone         *string
	CampusAddress *string
}

// Register creates a new account. The first account on an empty system may
// be an admin; later admins are promoted with SetRole.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if !in.Role.Valid() {
		return nil, apperr.BadRequest("invalid role, must be one of: student, vendor, rider, admin")
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	db := s.db.WithContext(ctx)

	if in.Role == models.RoleAdmin {
		var count int64
		if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
			return nil, apperr.FromDB(err, "")
		}
		if count > 0 {
			return nil, apperr.Forbidden("admin accounts cannot self-register")
		}
	}

	var existing int64
	if err := db.Unscoped().Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return nil, apperr.FromDB(err, "")
	}
	if existing > 0 {
		return nil, apperr.Conflict("email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal(err, "failed to hash password")
	}

	user := &models.User{
		Name:          strings.TrimSpace(in.Name),
		Email:         email,
		PasswordHash:  string(hash),
		Role:          in.Role,
		Phone:         in.Phone,
		CampusAddress: in.CampusAddress,
	}
	if err := db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("email already registered")
		}
		return nil, apperr.Internal(err, "failed to create user")
	}
	s.log.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("user registered")
	return user, nil
}

// Authenticate checks credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Unauthorized("invalid email or password")
	}
	if err != nil {
		return nil, apperr.FromDB(err, "")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.Unauthorized("invalid email or password")
	}
	return &user, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, apperr.FromDB(err, "user not found")
	}
	return &user, nil
}

// CurrentRole returns the role of a live account; ok is false once the
// account is gone.
func (s *UserService) CurrentRole(ctx context.Context, id uint) (role models.UserRole, ok bool, err error) {
	var user models.User
	err = s.db.WithContext(ctx).Select("id", "role").First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, apperr.FromDB(err, "")
	}
	return user.Role, true, nil
}

// List returns users, optionally filtered by role.
func (s *UserService) List(ctx context.Context, role models.UserRole) ([]models.User, error) {
	query := s.db.WithContext(ctx).Order("id")
	if role != "" {
		if !role.Valid() {
			return nil, apperr.BadRequest("unknown role %q", role)
		}
		query = query.Where("role = ?", role)
	}
	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, apperr.FromDB(err, "")
	}
	return users, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id uint, in ProfileUpdate) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	updates := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.BadRequest("name cannot be empty")
		}
		updates["name"] = name
	}
	if in.Phone != nil {
		updates["phone"] = *in.Phone
	}
	if in.CampusAddress != nil {
		updates["campus_address"] = *in.CampusAddress
	}
	if len(updates) == 0 {
		return user, nil
	}
	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, apperr.FromDB(err, "")
	}
	return s.Get(ctx, id)
}

// Delete soft-deletes a user. Admins cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, actor Actor, id uint) error {
	if actor.UserID == id {
		return apperr.BadRequest("you cannot delete your own account")
	}
	res := s.db.WithContext(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return apperr.FromDB(res.Error, "")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("user not found")
	}
	s.log.WithFields(logrus.Fields{"user_id": id, "by": actor.UserID}).Info("user deleted")
	return nil
}

// SetRole changes another user's role (admin only at the route). Admins
// cannot change their own role.
func (s *UserService) SetRole(ctx context.Context, actor Actor, id uint, role models.UserRole) (*models.User, error) {
	if !role.Valid() {
		return nil, apperr.BadRequest("invalid role, must be one of: student, vendor, rider, admin")
	}
	if actor.UserID == id {
		return nil, apperr.BadRequest("you cannot change your own role")
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role == role {
		return user, nil
	}
	if err := s.db.WithContext(ctx).Model(user).Update("role", role).Error; err != nil {
		return nil, apperr.FromDB(err, "")
	}
	s.log.WithFields(logrus.Fields{"user_id": id, "from": user.Role, "to": role, "by": actor.UserID}).Info("user role changed")
	user.Role = role
	return user, nil
}
