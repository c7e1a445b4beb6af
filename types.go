package authcore

import "context"

// UserRecord is the account record exchanged with the [UserStore]. The
// engine reads Email, Role, PasswordHash, and Active; everything else about
// a user is outside this package's scope.
type UserRecord struct {
	ID           string
	Email        string
	Username     string
	PasswordHash []byte
	Role         string
	Active       bool
}

// CreateUserInput is the input for [UserStore.Create].
type CreateUserInput struct {
	Email        string
	Username     string
	PasswordHash []byte
	Role         string
}

// UserStore is the interface callers implement to connect authcore to their
// user database. Implementations report duplicates with ErrEmailTaken or
// ErrUsernameTaken and missing rows with ErrUserNotFound.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (UserRecord, error)
	GetByID(ctx context.Context, id string) (UserRecord, error)
	Create(ctx context.Context, input CreateUserInput) (UserRecord, error)
}

// AuthResult is returned by [Engine.Register] and [Engine.Login].
type AuthResult struct {
	User         UserRecord
	AccessToken  string
	RefreshToken string
}
