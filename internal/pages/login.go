package pages

import (
	"context"
	"fmt"
)

// Login page selectors
const (
	UsernameInput = "#user-name"
	PasswordInput = "#password"
	LoginButton   = "#login-button"
	LoginError    = `[data-test="error"]`
)

// LoginPage is the shop's sign-in form
type LoginPage struct {
	*BasePage
}

// NewLoginPage creates a login page object
func NewLoginPage(base *BasePage) *LoginPage {
	return &LoginPage{BasePage: base}
}

// Open navigates to the login form and waits for it to render
func (p *LoginPage) Open(ctx context.Context) error {
	if err := p.Navigate(ctx, "/"); err != nil {
		return err
	}
	return p.WaitVisible(ctx, LoginButton)
}

// Login submits the form with the given credentials
func (p *LoginPage) Login(ctx context.Context, username, password string) error {
	if err := p.Fill(ctx, UsernameInput, username); err != nil {
		return fmt.Errorf("failed to enter username: %w", err)
	}
	if err := p.Fill(ctx, PasswordInput, password); err != nil {
		return fmt.Errorf("failed to enter password: %w", err)
	}
	if err := p.Click(ctx, LoginButton); err != nil {
		return fmt.Errorf("failed to submit login: %w", err)
	}
	return nil
}

// ErrorMessage returns the message shown after a rejected login
func (p *LoginPage) ErrorMessage(ctx context.Context) (string, error) {
	if err := p.WaitVisible(ctx, LoginError); err != nil {
		return "", err
	}
	return p.Text(ctx, LoginError)
}
