package grpc

import (
	"context"

	"github.com/dmitrijs2005/gophtasks/internal/api"
	"github.com/dmitrijs2005/gophtasks/internal/server/services"
)

func authResponse(r *services.AuthResult) *api.AuthResponse {
	return &api.AuthResponse{
		UserID:       r.UserID,
		Email:        r.Email,
		AccessToken:  r.Tokens.AccessToken,
		RefreshToken: r.Tokens.RefreshToken,
		ExpiresAt:    r.Tokens.ExpiresAt,
	}
}

func (s *GRPCServer) SignUp(ctx context.Context, req *api.SignUpRequest) (*api.AuthResponse, error) {
	s.logger.Info(ctx, "Sign-up request")

	result, err := s.users.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "Signed up", "user_id", result.UserID)
	return authResponse(result), nil
}

func (s *GRPCServer) SignIn(ctx context.Context, req *api.SignInRequest) (*api.AuthResponse, error) {
	result, err := s.users.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "Signed in", "user_id", result.UserID)
	return authResponse(result), nil
}

func (s *GRPCServer) RefreshToken(ctx context.Context, req *api.RefreshTokenRequest) (*api.AuthResponse, error) {
	result, err := s.users.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return authResponse(result), nil
}

func (s *GRPCServer) SignOut(ctx context.Context, req *api.SignOutRequest) (*api.Empty, error) {
	if err := s.users.SignOut(ctx, req.RefreshToken); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.Empty{}, nil
}
