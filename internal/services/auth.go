package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/huangang/shiftledger/internal/config"
	"github.com/huangang/shiftledger/internal/models"
	"github.com/huangang/shiftledger/internal/utils"
	"github.com/huangang/shiftledger/pkg/logger"
	"gorm.io/gorm"
)

type AuthService struct {
	db          *gorm.DB
	ldapService *LDAPService
	jwtConfig   *config.JWTConfig
	users       *UserService
	now         func() time.Time
}

func NewAuthService(db *gorm.DB, jwtCfg *config.JWTConfig, ldapCfg *config.LDAPConfig, users *UserService) *AuthService {
	return &AuthService{
		db:          db,
		ldapService: NewLDAPService(ldapCfg),
		jwtConfig:   jwtCfg,
		users:       users,
		now:         time.Now,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	AuthType string `json:"auth_type" binding:"omitempty,oneof=local ldap"`
}

type LoginResult struct {
	Token    string       `json:"token"`
	ExpireAt time.Time    `json:"expire_at"`
	User     *models.User `json:"user"`
}

// Login authenticates and issues a bearer token carrying the user's roles.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*LoginResult, error) {
	var (
		user *models.User
		err  error
	)

	switch req.AuthType {
	case "", models.AuthTypeLocal:
		user, err = s.localAuth(ctx, req.Email, req.Password)
	case models.AuthTypeLDAP:
		user, err = s.ldapAuth(ctx, req.Email, req.Password)
	default:
		return nil, &ValidationError{Field: "auth_type", Message: "must be local or ldap"}
	}
	if err != nil {
		return nil, err
	}

	hours := s.jwtConfig.ExpireHour
	if hours <= 0 {
		hours = 24
	}
	token, err := utils.GenerateToken(user.ID, user.Email, user.RoleNames(), hours)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if s.users != nil {
		s.users.MarkLogin(ctx, user.ID, now)
	}
	user.LastLogin = &now

	return &LoginResult{
		Token:    token,
		ExpireAt: now.Add(time.Duration(hours) * time.Hour),
		User:     user,
	}, nil
}

func (s *AuthService) localAuth(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Preload("Roles").
		Where("email = ? AND auth_type = ?", strings.ToLower(strings.TrimSpace(email)), models.AuthTypeLocal).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, persistence("load user", err)
	}

	if !utils.CheckPassword(password, user.Password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserDisabled
	}
	return &user, nil
}

// ldapAuth binds against the directory and provisions an EMPLOYEE on first login.
func (s *AuthService) ldapAuth(ctx context.Context, username, password string) (*models.User, error) {
	ldapUser, err := s.ldapService.Authenticate(username, password)
	if err != nil {
		return nil, err
	}
	email := strings.ToLower(ldapUser.Email)

	var user models.User
	err = models.WithTx(ctx, s.db, func(tx *gorm.DB) error {
		err := tx.Preload("Roles").Where("email = ?", email).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			roles, err := findRoles(tx, []string{models.RoleEmployee})
			if err != nil {
				return err
			}
			name := ldapUser.Name
			if name == "" {
				name = ldapUser.Username
			}
			user = models.User{
				Name:     name,
				Email:    email,
				AuthType: models.AuthTypeLDAP,
				IsActive: true,
				Verified: true,
				Roles:    roles,
			}
			if err := tx.Omit("Roles.*").Create(&user).Error; err != nil {
				return persistence("provision ldap user", err)
			}
			logger.Info().Str("email", email).Msg("provisioned LDAP user")
			return nil
		}
		if err != nil {
			return persistence("load user", err)
		}
		if user.AuthType != models.AuthTypeLDAP {
			return ErrInvalidCredentials
		}
		if ldapUser.Name != "" && ldapUser.Name != user.Name {
			user.Name = ldapUser.Name
			if err := tx.Model(&user).UpdateColumn("name", user.Name).Error; err != nil {
				return persistence("sync ldap user", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserDisabled
	}
	return &user, nil
}

func (s *AuthService) IsLDAPEnabled() bool {
	return s.ldapService.IsEnabled()
}

// CreateAdminIfNotExists seeds an administrator when no user holds the admin role.
func (s *AuthService) CreateAdminIfNotExists(ctx context.Context, cfg *config.AdminConfig) error {
	return models.WithTx(ctx, s.db, func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&models.User{}).
			Where("id IN (SELECT ur.user_id FROM user_roles ur JOIN roles r ON r.id = ur.role_id WHERE r.name = ?)", models.RoleAdmin).
			Count(&count).Error
		if err != nil {
			return persistence("count admins", err)
		}
		if count > 0 {
			return nil
		}

		hash, err := utils.HashPassword(cfg.Password)
		if err != nil {
			return err
		}
		roles, err := findRoles(tx, []string{models.RoleAdmin})
		if err != nil {
			return err
		}
		admin := models.User{
			Name:     "Administrator",
			Email:    strings.ToLower(cfg.Email),
			Password: hash,
			AuthType: models.AuthTypeLocal,
			IsActive: true,
			Verified: true,
			Roles:    roles,
		}
		if err := tx.Omit("Roles.*").Create(&admin).Error; err != nil {
			return persistence("create admin", err)
		}
		logger.Info().Str("email", admin.Email).Msg("created default admin user")
		return nil
	})
}
