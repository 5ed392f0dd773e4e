package service

import (
	"context"

	"go.uber.org/mock/gomock"

	"gatekey/internal/security/models"
	id "gatekey/pkg/domain"
	dErrors "gatekey/pkg/domain-errors"
	"gatekey/pkg/platform/sentinel"
	"gatekey/pkg/requestcontext"
)

func (s *ServiceSuite) TestToken_ResolvesBearerHeader() {
	ctx := context.Background()
	userID := id.NewUserID()
	user := &models.User{ID: userID, Email: "alice@example.com", IsConfirmed: true}

	s.mockTokens.EXPECT().Find(gomock.Any(), "tok-value").
		Return(&models.Token{Value: "tok-value", UserID: userID}, nil)
	s.mockUsers.EXPECT().FindByID(gomock.Any(), userID).Return(user, nil)

	result, err := s.service.Token(ctx, "Bearer tok-value")
	s.Require().NoError(err)
	s.Equal("tok-value", result.Token.Value)
	s.Equal(userID, result.User.ID)
}

func (s *ServiceSuite) TestToken_MalformedHeaderIsUnauthorized() {
	for _, header := range []string{"", "tok-value", "Basic abc", "bearer tok-value"} {
		_, err := s.service.Token(context.Background(), header)
		s.Require().Error(err, "header %q", header)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	}
}

func (s *ServiceSuite) TestToken_UnknownTokenIsUnauthorized() {
	s.mockTokens.EXPECT().Find(gomock.Any(), "ghost").Return(nil, sentinel.ErrNotFound)

	_, err := s.service.Token(context.Background(), "Bearer ghost")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *ServiceSuite) TestLogout_RevokesExactlyOnce() {
	ctx := context.Background()
	userID := id.NewUserID()
	user := &models.User{ID: userID, Email: "alice@example.com", IsConfirmed: true}
	token := &models.Token{Value: "tok-value", UserID: userID}

	s.Run("first logout succeeds", func() {
		s.mockTokens.EXPECT().Find(gomock.Any(), "tok-value").Return(token, nil)
		s.mockUsers.EXPECT().FindByID(gomock.Any(), userID).Return(user, nil)
		s.mockTokens.EXPECT().Delete(gomock.Any(), "tok-value").Return(nil)

		result, err := s.service.Logout(ctx, "Bearer tok-value")
		s.Require().NoError(err)
		s.Equal(userID, result.User.ID)
	})

	s.Run("losing a revocation race is unauthorized", func() {
		s.mockTokens.EXPECT().Find(gomock.Any(), "tok-value").Return(token, nil)
		s.mockUsers.EXPECT().FindByID(gomock.Any(), userID).Return(user, nil)
		s.mockTokens.EXPECT().Delete(gomock.Any(), "tok-value").Return(sentinel.ErrNotFound)

		_, err := s.service.Logout(ctx, "Bearer tok-value")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("revoked token no longer resolves", func() {
		s.mockTokens.EXPECT().Find(gomock.Any(), "tok-value").Return(nil, sentinel.ErrNotFound)

		_, err := s.service.Token(ctx, "Bearer tok-value")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *ServiceSuite) TestIssueToken_RecordsDeviceFromUserAgent() {
	const chromeUA = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	ctx := requestcontext.WithUserAgent(context.Background(), chromeUA)
	user := s.confirmedUser("alice@example.com", "s3cret-pass")

	s.mockUsers.EXPECT().FindByEmail(gomock.Any(), "alice@example.com").Return(user, nil)

	var device string
	s.mockTokens.EXPECT().Create(gomock.Any(), user.ID, gomock.Any()).
		DoAndReturn(func(_ context.Context, userID id.UserID, d string) (*models.Token, error) {
			device = d
			return &models.Token{Value: "tok", UserID: userID, Device: d}, nil
		})

	_, err := s.service.Login(ctx, LoginParams{Email: "alice@example.com", Password: "s3cret-pass"})
	s.Require().NoError(err)
	s.Contains(device, "Chrome")
}
