package service

import (
	"context"

	"go.uber.org/mock/gomock"

	"gatekey/internal/security/models"
	"gatekey/internal/security/secrets"
	id "gatekey/pkg/domain"
	dErrors "gatekey/pkg/domain-errors"
	"gatekey/pkg/platform/sentinel"
)

func (s *ServiceSuite) confirmedUser(email, password string) *models.User {
	hash, err := secrets.Hash(password)
	s.Require().NoError(err)
	return &models.User{
		ID:           id.NewUserID(),
		Email:        email,
		Name:         "Test User",
		PasswordHash: hash,
		IsConfirmed:  true,
	}
}

func (s *ServiceSuite) TestLogin_IssuesToken() {
	ctx := context.Background()
	user := s.confirmedUser("alice@example.com", "s3cret-pass")

	s.mockUsers.EXPECT().FindByEmail(gomock.Any(), "alice@example.com").Return(user, nil)
	s.mockTokens.EXPECT().Create(gomock.Any(), user.ID, gomock.Any()).
		Return(&models.Token{Value: "tok", UserID: user.ID}, nil)

	result, err := s.service.Login(ctx, LoginParams{Email: "alice@example.com", Password: "s3cret-pass"})
	s.Require().NoError(err)
	s.Equal("tok", result.Token.Value)
	s.Equal(user.ID, result.User.ID)
}

func (s *ServiceSuite) TestLogin_FailuresAreIndistinguishable() {
	ctx := context.Background()

	s.Run("unknown email", func() {
		s.mockUsers.EXPECT().FindByEmail(gomock.Any(), "ghost@example.com").
			Return(nil, sentinel.ErrNotFound)

		_, err := s.service.Login(ctx, LoginParams{Email: "ghost@example.com", Password: "whatever"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		s.Contains(err.Error(), "wrong credentials")
	})

	s.Run("unconfirmed account", func() {
		user := s.confirmedUser("bob@example.com", "s3cret-pass")
		user.IsConfirmed = false
		s.mockUsers.EXPECT().FindByEmail(gomock.Any(), "bob@example.com").Return(user, nil)

		_, err := s.service.Login(ctx, LoginParams{Email: "bob@example.com", Password: "s3cret-pass"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		s.Contains(err.Error(), "wrong credentials")
	})

	s.Run("wrong password", func() {
		user := s.confirmedUser("carol@example.com", "s3cret-pass")
		s.mockUsers.EXPECT().FindByEmail(gomock.Any(), "carol@example.com").Return(user, nil)

		_, err := s.service.Login(ctx, LoginParams{Email: "carol@example.com", Password: "not-it"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		s.Contains(err.Error(), "wrong credentials")
	})
}
