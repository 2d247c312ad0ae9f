package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophtasks/internal/client/client"
	"github.com/dmitrijs2005/gophtasks/internal/client/session"
	"github.com/dmitrijs2005/gophtasks/internal/common"
)

// getSimpleText and getPassword are swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

func describe(err error) string {
	switch {
	case errors.Is(err, client.ErrUnauthorized):
		return "invalid email or password"
	case errors.Is(err, client.ErrAlreadyExists):
		return "this email is already registered"
	case errors.Is(err, client.ErrUnavailable):
		return "server unavailable"
	}
	return err.Error()
}

func (a *App) credentials() (string, []byte, error) {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return "", nil, err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return "", nil, err
	}
	return email, password, nil
}

// Login prompts for credentials and signs in. On success the session
// observer moves the REPL to the tasks screen.
func (a *App) Login(ctx context.Context) error {
	a.router.Replace(session.ScreenLogin)

	email, password, err := a.credentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if _, err := a.backend.SignIn(ctx, email, string(password)); err != nil {
		a.logger.Debug(ctx, "sign in failed", "error", err)
		a.printf("Login failed: %s", describe(err))
		return err
	}
	a.printf("Signed in as %s", email)
	return nil
}

// Signup creates an account. When the backend asks for confirmation no
// session is created and the user is sent back to login.
func (a *App) Signup(ctx context.Context) error {
	a.router.Replace(session.ScreenSignup)

	email, password, err := a.credentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	s, err := a.backend.SignUp(ctx, email, string(password))
	if err != nil {
		a.logger.Debug(ctx, "sign up failed", "error", err)
		a.printf("Sign up failed: %s", describe(err))
		return err
	}
	if s == nil {
		a.router.Replace(session.ScreenLogin)
		a.println("Account created. Confirm your email, then log in.")
		return nil
	}
	a.printf("Account created, signed in as %s", email)
	return nil
}

const titleLogout = "Error logging out"

// Logout signs out. The local session is dropped even if the server could
// not be reached; that failure is still shown as a notice.
func (a *App) Logout(ctx context.Context) error {
	err := a.backend.SignOut(ctx)
	if err != nil {
		a.logger.Warn(ctx, "server sign out failed", "error", err)
		a.Notify(titleLogout, err.Error())
	}
	a.println("Signed out")
	return err
}
