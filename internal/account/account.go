// Package account signs customers up and logs every portal in.
package account

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"storefront/internal/apperr"
	"storefront/internal/data"
	"storefront/internal/logger"
	"storefront/internal/store"
)

var (
	ErrMissingFields      = apperr.New(apperr.Validation, apperr.CodeMissingFields)
	ErrPasswordMismatch   = apperr.New(apperr.Validation, apperr.CodePasswordMismatch)
	ErrInvalidEmail       = apperr.New(apperr.Validation, apperr.CodeInvalidEmail)
	ErrEmailTaken         = apperr.New(apperr.Conflict, apperr.CodeEmailTaken)
	ErrUnknownZip         = apperr.New(apperr.Validation, apperr.CodeUnknownZip)
	ErrInvalidCredentials = apperr.New(apperr.Validation, apperr.CodeInvalidCredential)
)

// SignUpForm is what a new customer submits.
type SignUpForm struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	ZipCode        string `json:"zip_code"`
	Password       string `json:"password"`
	RetypePassword string `json:"retype_password"`
}

func (f *SignUpForm) trim() {
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Email = strings.TrimSpace(f.Email)
	f.Phone = strings.TrimSpace(f.Phone)
	f.ZipCode = strings.TrimSpace(f.ZipCode)
}

func (f SignUpForm) complete() bool {
	for _, v := range []string{f.FirstName, f.LastName, f.Email, f.Phone, f.ZipCode, f.Password, f.RetypePassword} {
		if v == "" {
			return false
		}
	}
	return true
}

// Session is an authenticated login.
type Session struct {
	UserName   string `json:"user_name"`
	Portal     string `json:"portal"`
	CustomerID uint64 `json:"customer_id,omitempty"`
	Token      string `json:"token"`
}

type Service struct {
	store    *store.Store
	tokens   *Tokens
	log      *slog.Logger
	hashCost int
}

func NewService(st *store.Store, tokens *Tokens, log *slog.Logger) *Service {
	return &Service{store: st, tokens: tokens, log: logger.Or(log), hashCost: bcrypt.DefaultCost}
}

// SignUp registers a customer and its login in one transaction and returns
// the new customer.
func (s *Service) SignUp(ctx context.Context, form SignUpForm) (*data.Customer, error) {
	form.trim()
	if !form.complete() {
		return nil, ErrMissingFields
	}
	if form.Password != form.RetypePassword {
		return nil, ErrPasswordMismatch
	}
	if !validEmail(form.Email) {
		return nil, apperr.Wrapf(ErrInvalidEmail, "%q", form.Email)
	}

	taken, err := s.store.EmailTaken(ctx, form.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.Wrapf(ErrEmailTaken, "%s", form.Email)
	}
	known, err := s.store.ZipExists(ctx, form.ZipCode)
	if err != nil {
		return nil, err
	}
	if !known {
		return nil, apperr.Wrapf(ErrUnknownZip, "%s", form.ZipCode)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), s.hashCost)
	if err != nil {
		return nil, err
	}

	customer := &data.Customer{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
		Phone:     form.Phone,
		ZipCode:   form.ZipCode,
	}
	login := &data.UserPortal{
		UserName: form.Email,
		Password: string(hash),
		Portal:   data.PortalCustomer,
	}
	err = s.store.Transaction(ctx, func(tx *store.Store) error {
		return register(ctx, tx, customer, login)
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "customer signed up", "customer_id", customer.ID)
	return customer, nil
}

// register inserts the customer and its login. A sign-up racing past the
// EmailTaken check loses on the unique email or login name and gets
// ErrEmailTaken.
func register(ctx context.Context, tx *store.Store, c *data.Customer, login *data.UserPortal) error {
	if err := tx.CreateCustomer(ctx, c); err != nil {
		return emailConflict(err, c.Email)
	}
	if err := tx.CreateLogin(ctx, login); err != nil {
		return emailConflict(err, login.UserName)
	}
	return nil
}

func emailConflict(err error, email string) error {
	if store.IsDuplicate(err) {
		return apperr.Wrapf(ErrEmailTaken, "%s", email)
	}
	return err
}

// Login checks the credentials and returns a session with a signed token.
// Unknown users and wrong passwords fail the same way.
func (s *Service) Login(ctx context.Context, userName, password string) (Session, error) {
	userName = strings.TrimSpace(userName)
	if userName == "" || password == "" {
		return Session{}, ErrMissingFields
	}

	login, err := s.store.FindLogin(ctx, userName)
	if store.IsNotFound(err) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(login.Password), []byte(password)) != nil {
		s.log.WarnContext(ctx, "login rejected", "user", userName)
		return Session{}, ErrInvalidCredentials
	}

	session := Session{UserName: login.UserName, Portal: login.Portal}
	if login.Portal == data.PortalCustomer {
		c, err := s.store.CustomerByEmail(ctx, login.UserName)
		if err != nil {
			return Session{}, err
		}
		session.CustomerID = c.ID
	}

	session.Token, err = s.tokens.Issue(session.UserName, session.Portal, session.CustomerID)
	if err != nil {
		return Session{}, err
	}
	return session, nil
}

// validEmail applies the storefront's loose rule: an '@' followed later by
// a '.'.
func validEmail(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 {
		return false
	}
	dot := strings.LastIndex(email, ".")
	return dot > at+1 && dot < len(email)-1
}
