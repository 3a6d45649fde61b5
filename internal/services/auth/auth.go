// Package auth реализует бизнес-логику аутентификации:
// проверку пароля, выдачу и валидацию JWT.
package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/magabrotheeeer/membership-registry/internal/lib/jwt"
	"github.com/magabrotheeeer/membership-registry/internal/lib/password"
	"github.com/magabrotheeeer/membership-registry/internal/models"
)

var (
	// ErrInvalidCredentials возвращается при неверной паре email/пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountNotApproved возвращается, если заявка члена ещё
	// не одобрена или отклонена.
	ErrAccountNotApproved = errors.New("account is not approved")
)

type UserRepository interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// AuditWriter пишет записи в журнал действий. Ошибки записи
// не возвращаются вызывающему.
type AuditWriter interface {
	LogLogin(ctx context.Context, userID int, ipAddress string)
}

type Service struct {
	users    UserRepository
	jwtMaker jwt.Maker
	audit    AuditWriter
	log      *slog.Logger
}

func New(users UserRepository, jwtMaker jwt.Maker, audit AuditWriter, log *slog.Logger) *Service {
	return &Service{
		users:    users,
		jwtMaker: jwtMaker,
		audit:    audit,
		log:      log,
	}
}

// Login проверяет пароль и возвращает JWT вместе с пользователем.
// Вход разрешён только одобренным учётным записям.
func (s *Service) Login(ctx context.Context, email, rawPassword, ipAddress string) (string, *models.User, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if user.Status != models.StatusApproved {
		return "", nil, ErrAccountNotApproved
	}

	token, err := s.jwtMaker.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return "", nil, err
	}

	s.log.Info("member logged in", slog.Int("user_id", user.ID))
	s.audit.LogLogin(ctx, user.ID, ipAddress)

	return token, user, nil
}

// ValidateToken проверяет JWT и возвращает его claims.
func (s *Service) ValidateToken(tokenStr string) (*jwt.CustomClaims, error) {
	return s.jwtMaker.ParseToken(tokenStr)
}
