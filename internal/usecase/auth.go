package usecase

import (
	"context"
	"errors"
	"log/slog"

	"spotwise/internal/domain/user"
	"spotwise/internal/infra/docstore"
	"spotwise/internal/infra/notify"
	"spotwise/internal/pkg/jwt"
	"spotwise/internal/pkg/password"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrTokenGeneration    = errors.New("token generation failed")
	ErrTokenValidation    = errors.New("token validation failed")
)

type AuthUseCase interface {
	Login(ctx context.Context, email, plainPassword string) (string, user.User, error)
	Logout(ctx context.Context, email string) error
	CurrentUser(ctx context.Context, email string) (user.User, error)
	ValidateToken(tokenString string) (string, error)
}

type authUseCaseImpl struct {
	store      docstore.Store
	jwtService *jwt.Service
	registry   notify.Registry
	log        *slog.Logger
}

func NewAuthUseCase(store docstore.Store, jwtService *jwt.Service, registry notify.Registry, log *slog.Logger) AuthUseCase {
	return &authUseCaseImpl{
		store:      store,
		jwtService: jwtService,
		registry:   registry,
		log:        log,
	}
}

func (a *authUseCaseImpl) Login(ctx context.Context, email, plainPassword string) (string, user.User, error) {
	if !user.ValidEmail(email) {
		return "", user.User{}, ErrInvalidCredentials
	}

	doc, err := a.findUser(ctx, email)
	if err != nil {
		return "", user.User{}, err
	}

	if err := password.ComparePassword(doc.String("password"), plainPassword); err != nil {
		return "", user.User{}, ErrInvalidCredentials
	}

	u, err := user.Parse(doc.Fields)
	if err != nil {
		return "", user.User{}, ErrUserNotFound
	}

	token, err := a.jwtService.GenerateToken(u.Email)
	if err != nil {
		return "", user.User{}, ErrTokenGeneration
	}

	// Push registration is best-effort: login works without it.
	if err := a.registry.Register(ctx, u.Email); err != nil {
		a.log.Warn("push registration failed",
			slog.String("email", u.Email),
			slog.String("error", err.Error()))
	}

	return token, u, nil
}

func (a *authUseCaseImpl) Logout(ctx context.Context, email string) error {
	if err := a.registry.Unregister(ctx, email); err != nil {
		a.log.Warn("push unregistration failed",
			slog.String("email", email),
			slog.String("error", err.Error()))
	}
	return nil
}

func (a *authUseCaseImpl) CurrentUser(ctx context.Context, email string) (user.User, error) {
	doc, err := a.findUser(ctx, email)
	if err != nil {
		return user.User{}, err
	}
	u, err := user.Parse(doc.Fields)
	if err != nil {
		return user.User{}, ErrUserNotFound
	}
	return u, nil
}

func (a *authUseCaseImpl) ValidateToken(tokenString string) (string, error) {
	claims, err := a.jwtService.ValidateToken(tokenString)
	if err != nil {
		return "", ErrTokenValidation
	}
	return claims.Email, nil
}

func (a *authUseCaseImpl) findUser(ctx context.Context, email string) (docstore.Document, error) {
	docs, err := a.store.Query(ctx, docstore.CollUsers,
		docstore.Where("email", docstore.OpEqual, email))
	if err != nil {
		return docstore.Document{}, err
	}
	if len(docs) == 0 {
		return docstore.Document{}, ErrUserNotFound
	}
	return docs[0], nil
}
