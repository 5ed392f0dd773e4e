package service

import (
	"context"

	"go.uber.org/mock/gomock"

	"gatekey/internal/notification"
	"gatekey/internal/security/models"
	"gatekey/internal/security/secrets"
	id "gatekey/pkg/domain"
	dErrors "gatekey/pkg/domain-errors"
	"gatekey/pkg/platform/sentinel"
)

func (s *ServiceSuite) TestForgot_MailsRecoverLink() {
	ctx := context.Background()
	userID := id.NewUserID()
	var sentMsg notification.Message

	s.mockUsers.EXPECT().FindByEmail(gomock.Any(), "alice@example.com").
		Return(&models.User{ID: userID, Email: "alice@example.com", IsConfirmed: true}, nil)
	s.mockChecks.EXPECT().Create(gomock.Any(), userID, models.CheckRecover).
		Return(&models.Check{Code: "recover-code", Type: models.CheckRecover, UserID: userID}, nil)
	s.mockMailer.EXPECT().Send(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msg notification.Message) error {
			sentMsg = msg
			return nil
		})

	user, err := s.service.Forgot(ctx, ForgotParams{
		Email:  "Alice@example.com",
		Origin: "https://app.example.com",
	})
	s.Require().NoError(err)
	s.Equal(userID, user.ID)
	s.Contains(sentMsg.HTML, "https://app.example.com/security/recover/recover-code")
}

func (s *ServiceSuite) TestForgot_UnknownEmailIsNotFound() {
	s.mockUsers.EXPECT().FindByEmail(gomock.Any(), "ghost@example.com").
		Return(nil, sentinel.ErrNotFound)

	_, err := s.service.Forgot(context.Background(), ForgotParams{
		Email:  "ghost@example.com",
		Origin: "https://app.example.com",
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestForgot_RejectsUnacceptedOrigin() {
	_, err := s.service.Forgot(context.Background(), ForgotParams{
		Email:  "alice@example.com",
		Origin: "http://phishing.example.net",
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodePolicyRejected))
}

func (s *ServiceSuite) TestRecover_IssuesTokenAndSuccessorCheck() {
	ctx := context.Background()
	userID := id.NewUserID()
	user := &models.User{ID: userID, Email: "alice@example.com"}

	s.mockChecks.EXPECT().Consume(gomock.Any(), "recover-code", models.CheckRecover).
		Return(&models.Check{Code: "recover-code", Type: models.CheckRecover, UserID: userID}, nil)
	s.mockUsers.EXPECT().FindByID(gomock.Any(), userID).Return(user, nil)
	s.mockUsers.EXPECT().Save(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u *models.User) error {
			s.True(u.IsConfirmed, "following a recovery link confirms the account")
			return nil
		})
	s.mockChecks.EXPECT().Create(gomock.Any(), userID, models.CheckRecover).
		Return(&models.Check{Code: "successor-code", Type: models.CheckRecover, UserID: userID}, nil)
	s.mockTokens.EXPECT().Create(gomock.Any(), userID, gomock.Any()).
		Return(&models.Token{Value: "tok", UserID: userID}, nil)

	result, err := s.service.Recover(ctx, "recover-code")
	s.Require().NoError(err)
	s.Equal("tok", result.Token.Value)
	s.Equal("successor-code", result.Check.Code, "caller gets a fresh check for the password change")
	s.NotEqual("recover-code", result.Check.Code)
}

func (s *ServiceSuite) TestRecover_ConsumedCheckIsNotFound() {
	s.mockChecks.EXPECT().Consume(gomock.Any(), "used", models.CheckRecover).
		Return(nil, sentinel.ErrNotFound)

	_, err := s.service.Recover(context.Background(), "used")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestPasswd_ReplacesPassword() {
	ctx := context.Background()
	userID := id.NewUserID()
	user := &models.User{ID: userID, Email: "alice@example.com", IsConfirmed: true}

	s.mockChecks.EXPECT().Consume(gomock.Any(), "successor-code", models.CheckRecover).
		Return(&models.Check{Code: "successor-code", Type: models.CheckRecover, UserID: userID}, nil)
	s.mockUsers.EXPECT().FindByID(gomock.Any(), userID).Return(user, nil)

	var savedHash string
	s.mockUsers.EXPECT().Save(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u *models.User) error {
			savedHash = u.PasswordHash
			return nil
		})

	_, err := s.service.Passwd(ctx, PasswdParams{Check: "successor-code", Password: "new-password"})
	s.Require().NoError(err)
	s.NoError(secrets.Verify("new-password", savedHash))
	s.Error(secrets.Verify("old-password", savedHash))
}

func (s *ServiceSuite) TestPasswd_EmptyPasswordDoesNotBurnCheck() {
	// Validation fails before the check is consumed, so the link stays usable.
	_, err := s.service.Passwd(context.Background(), PasswdParams{Check: "successor-code"})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestRecoverPasswd_ConfirmsAndSetsPassword() {
	ctx := context.Background()
	userID := id.NewUserID()
	user := &models.User{ID: userID, Email: "alice@example.com"}

	s.mockChecks.EXPECT().Consume(gomock.Any(), "confirm-code", models.CheckConfirm).
		Return(&models.Check{Code: "confirm-code", Type: models.CheckConfirm, UserID: userID}, nil)
	s.mockUsers.EXPECT().FindByID(gomock.Any(), userID).Return(user, nil)

	var saved models.User
	s.mockUsers.EXPECT().Save(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u *models.User) error {
			saved = *u
			return nil
		})
	s.mockTokens.EXPECT().Create(gomock.Any(), userID, gomock.Any()).
		Return(&models.Token{Value: "tok", UserID: userID}, nil)

	result, err := s.service.RecoverPasswd(ctx, "confirm-code", "new-password")
	s.Require().NoError(err)
	s.Equal("tok", result.Token.Value)
	s.True(saved.IsConfirmed)
	s.NoError(secrets.Verify("new-password", saved.PasswordHash))
}

func (s *ServiceSuite) TestPasswd_ConsumedCheckIsNotFound() {
	s.mockChecks.EXPECT().Consume(gomock.Any(), "used", models.CheckRecover).
		Return(nil, sentinel.ErrNotFound)

	_, err := s.service.Passwd(context.Background(), PasswdParams{Check: "used", Password: "new-password"})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
