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

func (s *ServiceSuite) seedClient(secret string, owner *models.User) *models.Client {
	hash, err := secrets.Hash(secret)
	s.Require().NoError(err)
	return &models.Client{
		ID:         id.NewClientID(),
		SecretHash: hash,
		UserID:     owner.ID,
		Name:       "ci-pipeline",
	}
}

func (s *ServiceSuite) TestClient_ExchangesCredentialsForOwnerToken() {
	ctx := context.Background()
	owner := s.confirmedUser("owner@example.com", "irrelevant")
	client := s.seedClient("client-secret", owner)

	s.mockClients.EXPECT().FindByID(gomock.Any(), client.ID).Return(client, nil)
	s.mockUsers.EXPECT().FindByID(gomock.Any(), owner.ID).Return(owner, nil)
	s.mockTokens.EXPECT().Create(gomock.Any(), owner.ID, gomock.Any()).
		Return(&models.Token{Value: "tok", UserID: owner.ID}, nil)

	result, err := s.service.Client(ctx, ClientParams{
		ClientID:     client.ID.String(),
		ClientSecret: "client-secret",
	})
	s.Require().NoError(err)
	s.Equal(owner.ID, result.User.ID)
}

func (s *ServiceSuite) TestClient_WrongSecretIsUnauthorized() {
	owner := s.confirmedUser("owner@example.com", "irrelevant")
	client := s.seedClient("client-secret", owner)

	s.mockClients.EXPECT().FindByID(gomock.Any(), client.ID).Return(client, nil)

	_, err := s.service.Client(context.Background(), ClientParams{
		ClientID:     client.ID.String(),
		ClientSecret: "wrong",
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *ServiceSuite) TestClient_MalformedIDIsUnauthorized() {
	_, err := s.service.Client(context.Background(), ClientParams{
		ClientID:     "not-a-uuid",
		ClientSecret: "whatever",
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized), "a malformed id is a credential failure, not a validation failure")
}

func (s *ServiceSuite) TestClient_UnknownClientIsUnauthorized() {
	clientID := id.NewClientID()
	s.mockClients.EXPECT().FindByID(gomock.Any(), clientID).Return(nil, sentinel.ErrNotFound)

	_, err := s.service.Client(context.Background(), ClientParams{
		ClientID:     clientID.String(),
		ClientSecret: "whatever",
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *ServiceSuite) TestClient_UnconfirmedOwnerIsUnauthorized() {
	owner := s.confirmedUser("owner@example.com", "irrelevant")
	owner.IsConfirmed = false
	client := s.seedClient("client-secret", owner)

	s.mockClients.EXPECT().FindByID(gomock.Any(), client.ID).Return(client, nil)
	s.mockUsers.EXPECT().FindByID(gomock.Any(), owner.ID).Return(owner, nil)

	_, err := s.service.Client(context.Background(), ClientParams{
		ClientID:     client.ID.String(),
		ClientSecret: "client-secret",
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *ServiceSuite) TestClient_NonAdminOwnerCannotImpersonate() {
	ctx := context.Background()
	owner := s.confirmedUser("owner@example.com", "irrelevant")
	client := s.seedClient("client-secret", owner)
	other := id.NewUserID()

	s.mockClients.EXPECT().FindByID(gomock.Any(), client.ID).Return(client, nil)
	// Only the owner lookup happens; the requested user is never loaded.
	s.mockUsers.EXPECT().FindByID(gomock.Any(), owner.ID).Return(owner, nil)
	s.mockTokens.EXPECT().Create(gomock.Any(), owner.ID, gomock.Any()).
		Return(&models.Token{Value: "tok", UserID: owner.ID}, nil)

	result, err := s.service.Client(ctx, ClientParams{
		ClientID:     client.ID.String(),
		ClientSecret: "client-secret",
		UserID:       other.String(),
	})
	s.Require().NoError(err)
	s.Equal(owner.ID, result.User.ID, "user id is silently ignored for non-admin owners")
}

func (s *ServiceSuite) TestClient_AdminOwnerImpersonatesTarget() {
	ctx := context.Background()
	owner := s.confirmedUser("admin@example.com", "irrelevant")
	owner.IsAdmin = true
	client := s.seedClient("client-secret", owner)
	target := s.confirmedUser("target@example.com", "irrelevant")

	s.mockClients.EXPECT().FindByID(gomock.Any(), client.ID).Return(client, nil)
	s.mockUsers.EXPECT().FindByID(gomock.Any(), owner.ID).Return(owner, nil)
	s.mockUsers.EXPECT().FindByID(gomock.Any(), target.ID).Return(target, nil)
	s.mockTokens.EXPECT().Create(gomock.Any(), target.ID, gomock.Any()).
		Return(&models.Token{Value: "tok", UserID: target.ID}, nil)

	result, err := s.service.Client(ctx, ClientParams{
		ClientID:     client.ID.String(),
		ClientSecret: "client-secret",
		UserID:       target.ID.String(),
	})
	s.Require().NoError(err)
	s.Equal(target.ID, result.User.ID)
}

func (s *ServiceSuite) TestClient_AdminImpersonatingUnknownUserIsNotFound() {
	owner := s.confirmedUser("admin@example.com", "irrelevant")
	owner.IsAdmin = true
	client := s.seedClient("client-secret", owner)
	ghost := id.NewUserID()

	s.mockClients.EXPECT().FindByID(gomock.Any(), client.ID).Return(client, nil)
	s.mockUsers.EXPECT().FindByID(gomock.Any(), owner.ID).Return(owner, nil)
	s.mockUsers.EXPECT().FindByID(gomock.Any(), ghost).Return(nil, sentinel.ErrNotFound)

	_, err := s.service.Client(context.Background(), ClientParams{
		ClientID:     client.ID.String(),
		ClientSecret: "client-secret",
		UserID:       ghost.String(),
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
