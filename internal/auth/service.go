package auth

import (
	"context"
	"errors"

	"github.com/winterveil/parkslot-backend/internal/parking"
)

// CredentialSource looks up stored operator credentials.
type CredentialSource interface {
	GetCredential(ctx context.Context, username string) (*parking.Credential, error)
}

// Service authenticates operators against the credential store.
type Service struct {
	source CredentialSource
	hasher PasswordHasher
}

// NewService creates the authentication service.
func NewService(source CredentialSource, hasher PasswordHasher) *Service {
	return &Service{source: source, hasher: hasher}
}

// VerifyCredentials checks a username/password pair. An unknown username or
// a wrong password both report false without error; only lookup failures
// surface as errors.
func (s *Service) VerifyCredentials(ctx context.Context, username, password string) (*parking.Credential, bool, error) {
	cred, err := s.source.GetCredential(ctx, username)
	if err != nil {
		if errors.Is(err, parking.ErrOperatorNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if err := s.hasher.Compare(cred.PasswordHash, password); err != nil {
		return nil, false, nil
	}
	return cred, true, nil
}
