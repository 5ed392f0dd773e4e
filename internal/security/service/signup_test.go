package service

import (
	"context"

	"go.uber.org/mock/gomock"

	"gatekey/internal/notification"
	"gatekey/internal/security/models"
	id "gatekey/pkg/domain"
	dErrors "gatekey/pkg/domain-errors"
	"gatekey/pkg/platform/sentinel"
)

func (s *ServiceSuite) TestSignup_CreatesUnconfirmedUserAndMailsCheck() {
	ctx := context.Background()
	var created *models.User
	var sentMsg notification.Message

	s.mockUsers.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u *models.User) error {
			created = u
			return nil
		})
	s.mockChecks.EXPECT().Create(gomock.Any(), gomock.Any(), models.CheckConfirm).
		DoAndReturn(func(_ context.Context, userID id.UserID, _ models.CheckType) (*models.Check, error) {
			return &models.Check{Code: "check-code", Type: models.CheckConfirm, UserID: userID}, nil
		})
	s.mockMailer.EXPECT().Send(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msg notification.Message) error {
			sentMsg = msg
			return nil
		})

	user, err := s.service.Signup(ctx, SignupParams{
		Name:     "Alice",
		Email:    "Alice@Example.com",
		Password: "s3cret-pass",
		Origin:   "https://app.example.com",
	})
	s.Require().NoError(err)

	s.False(user.IsConfirmed, "signup must not confirm the account")
	s.Equal("alice@example.com", user.Email, "email is normalized for storage")
	s.NotEqual("s3cret-pass", user.PasswordHash, "password is stored hashed")
	s.Equal(created, user)

	s.Equal("alice@example.com", sentMsg.To)
	s.Contains(sentMsg.HTML, "https://app.example.com/security/confirm/check-code")
}

func (s *ServiceSuite) TestSignup_DerivesNameWhenOmitted() {
	ctx := context.Background()

	s.mockUsers.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	s.mockChecks.EXPECT().Create(gomock.Any(), gomock.Any(), models.CheckConfirm).
		Return(&models.Check{Code: "c", Type: models.CheckConfirm}, nil)
	s.mockMailer.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil)

	user, err := s.service.Signup(ctx, SignupParams{
		Email:    "jane.doe@example.com",
		Password: "s3cret-pass",
		Origin:   "https://app.example.com",
	})
	s.Require().NoError(err)
	s.Equal("Jane Doe", user.Name)
}

func (s *ServiceSuite) TestSignup_RejectsUnacceptedOrigin() {
	_, err := s.service.Signup(context.Background(), SignupParams{
		Email:    "alice@example.com",
		Password: "s3cret-pass",
		Origin:   "https://evil.example.net",
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodePolicyRejected))
}

func (s *ServiceSuite) TestSignup_DuplicateEmailIsConflict() {
	s.mockUsers.EXPECT().Create(gomock.Any(), gomock.Any()).Return(sentinel.ErrConflict)

	_, err := s.service.Signup(context.Background(), SignupParams{
		Email:    "taken@example.com",
		Password: "s3cret-pass",
		Origin:   "https://app.example.com",
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestSignup_EmptyPasswordIsInvalid() {
	_, err := s.service.Signup(context.Background(), SignupParams{
		Email:  "alice@example.com",
		Origin: "https://app.example.com",
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestSignup_MailFailurePropagates() {
	s.mockUsers.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	s.mockChecks.EXPECT().Create(gomock.Any(), gomock.Any(), models.CheckConfirm).
		Return(&models.Check{Code: "c", Type: models.CheckConfirm}, nil)
	s.mockMailer.EXPECT().Send(gomock.Any(), gomock.Any()).
		Return(dErrors.New(dErrors.CodeUnavailable, "mail delivery failed"))

	_, err := s.service.Signup(context.Background(), SignupParams{
		Email:    "alice@example.com",
		Password: "s3cret-pass",
		Origin:   "https://app.example.com",
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}
