package service

import (
	"context"

	"go.uber.org/mock/gomock"

	"gatekey/internal/security/models"
	id "gatekey/pkg/domain"
	dErrors "gatekey/pkg/domain-errors"
	"gatekey/pkg/platform/sentinel"
)

func (s *ServiceSuite) TestConfirm_ConfirmsAccountAndIssuesToken() {
	ctx := context.Background()
	userID := id.NewUserID()
	user := &models.User{ID: userID, Email: "alice@example.com"}

	s.mockChecks.EXPECT().Consume(gomock.Any(), "check-code", models.CheckConfirm).
		Return(&models.Check{Code: "check-code", Type: models.CheckConfirm, UserID: userID}, nil)
	s.mockUsers.EXPECT().FindByID(gomock.Any(), userID).Return(user, nil)
	s.mockUsers.EXPECT().Save(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u *models.User) error {
			s.True(u.IsConfirmed)
			return nil
		})
	s.mockTokens.EXPECT().Create(gomock.Any(), userID, gomock.Any()).
		Return(&models.Token{Value: "tok", UserID: userID}, nil)

	result, err := s.service.Confirm(ctx, "check-code")
	s.Require().NoError(err)
	s.Equal("tok", result.Token.Value)
	s.True(result.User.IsConfirmed)
}

func (s *ServiceSuite) TestConfirm_ConsumedCheckIsNotFound() {
	s.mockChecks.EXPECT().Consume(gomock.Any(), "used", models.CheckConfirm).
		Return(nil, sentinel.ErrNotFound)

	_, err := s.service.Confirm(context.Background(), "used")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestConfirm_ExpiredCheckReadsAsNotFound() {
	s.mockChecks.EXPECT().Consume(gomock.Any(), "stale", models.CheckConfirm).
		Return(nil, sentinel.ErrExpired)

	_, err := s.service.Confirm(context.Background(), "stale")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestConfirm_RecoverCodeDoesNotConfirm() {
	// A recover code presented to confirm misses in the confirm namespace.
	s.mockChecks.EXPECT().Consume(gomock.Any(), "recover-code", models.CheckConfirm).
		Return(nil, sentinel.ErrNotFound)

	_, err := s.service.Confirm(context.Background(), "recover-code")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
