package jwttoken

import (
	"bhoomi/pkg/platform/middleware"
)

// MiddlewareAdapter narrows Service to the middleware.JWTValidator contract.
type MiddlewareAdapter struct {
	service *Service
}

func NewMiddlewareAdapter(service *Service) *MiddlewareAdapter {
	return &MiddlewareAdapter{service: service}
}

func (a *MiddlewareAdapter) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.JWTClaims{
		CallerID: claims.Subject,
		Role:     claims.Role,
	}, nil
}
