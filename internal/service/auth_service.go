package service

import (
	"errors"
	"net/mail"
	"strings"

	"storefront/config"
	"storefront/internal/auth"
	"storefront/internal/checkout"
	"storefront/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailExists     = errors.New("email already registered")
	ErrPhoneExists     = errors.New("phone already registered")
	ErrInvalidCreds    = errors.New("invalid login or password")
	ErrLoginRequired   = errors.New("email or phone is required")
	ErrInvalidEmail    = errors.New("invalid email")
	ErrPasswordTooWeak = errors.New("password must be at least 8 characters")
)

// CustomerStore is the part of the customer repository the services need.
type CustomerStore interface {
	Create(c *models.Customer) error
	GetByID(id uint) (*models.Customer, error)
	GetByEmail(email string) (*models.Customer, error)
	GetByPhone(phone string) (*models.Customer, error)
	Update(c *models.Customer) error
}

type AuthService struct {
	cfg       *config.Config
	customers CustomerStore
}

func NewAuthService(cfg *config.Config, customers CustomerStore) *AuthService {
	return &AuthService{cfg: cfg, customers: customers}
}

// Tokens is an access/refresh pair.
type Tokens struct {
	Access  string `json:"access_token"`
	Refresh string `json:"refresh_token"`
}

// Register creates a customer identified by email, phone or both.
func (s *AuthService) Register(name, email, phone, password string) (*models.Customer, Tokens, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	phone = strings.TrimSpace(phone)
	if email == "" && phone == "" {
		return nil, Tokens{}, ErrLoginRequired
	}
	if len(password) < 8 {
		return nil, Tokens{}, ErrPasswordTooWeak
	}
	c := &models.Customer{Name: strings.TrimSpace(name)}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, Tokens{}, ErrInvalidEmail
		}
		if err := s.ensureFree(s.customers.GetByEmail, email, ErrEmailExists); err != nil {
			return nil, Tokens{}, err
		}
		c.Email = &email
	}
	if phone != "" {
		if !checkout.ValidPhone(phone) {
			return nil, Tokens{}, checkout.ErrInvalidPhone
		}
		if err := s.ensureFree(s.customers.GetByPhone, phone, ErrPhoneExists); err != nil {
			return nil, Tokens{}, err
		}
		c.Phone = &phone
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, Tokens{}, err
	}
	c.PasswordHash = string(hash)
	if err := s.customers.Create(c); err != nil {
		return nil, Tokens{}, err
	}
	tokens, err := s.issue(c)
	return c, tokens, err
}

// Login accepts an email or a 0XXXXXXXXX phone number as login.
func (s *AuthService) Login(login, password string) (*models.Customer, Tokens, error) {
	login = strings.TrimSpace(login)
	var (
		c   *models.Customer
		err error
	)
	if strings.Contains(login, "@") {
		c, err = s.customers.GetByEmail(strings.ToLower(login))
	} else {
		c, err = s.customers.GetByPhone(login)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Tokens{}, ErrInvalidCreds
		}
		return nil, Tokens{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)); err != nil {
		return nil, Tokens{}, ErrInvalidCreds
	}
	tokens, err := s.issue(c)
	return c, tokens, err
}

// ChangePassword updates the password after checking the current one.
func (s *AuthService) ChangePassword(customerID uint, currentPassword, newPassword string) error {
	c, err := s.customers.GetByID(customerID)
	if err != nil || c == nil {
		return ErrInvalidCreds
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrInvalidCreds
	}
	if len(newPassword) < 8 {
		return ErrPasswordTooWeak
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	c.PasswordHash = string(hash)
	return s.customers.Update(c)
}

func (s *AuthService) RefreshToken(refreshToken string) (Tokens, error) {
	id, err := auth.ParseRefreshToken(&s.cfg.JWT, refreshToken)
	if err != nil {
		return Tokens{}, err
	}
	c, err := s.customers.GetByID(id)
	if err != nil {
		return Tokens{}, auth.ErrInvalidToken
	}
	return s.issue(c)
}

func (s *AuthService) issue(c *models.Customer) (Tokens, error) {
	access, err := auth.GenerateAccessToken(&s.cfg.JWT, c.ID, c.Login())
	if err != nil {
		return Tokens{}, err
	}
	refresh, err := auth.GenerateRefreshToken(&s.cfg.JWT, c.ID)
	if err != nil {
		return Tokens{Access: access}, err
	}
	return Tokens{Access: access, Refresh: refresh}, nil
}

func (s *AuthService) ensureFree(lookup func(string) (*models.Customer, error), key string, taken error) error {
	_, err := lookup(key)
	if err == nil {
		return taken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return nil
}
