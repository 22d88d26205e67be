package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"account_service/internal/apperror"
	"account_service/internal/metrics"
	"account_service/internal/model"
	"account_service/internal/notify"
	"account_service/internal/repository"
	"account_service/internal/utils"

	"github.com/sirupsen/logrus"
)

// Client-facing messages
const (
	MsgAllFieldsMandatory      = "Please fill all mandatory fields. Name, email, password, mobile number."
	MsgUpdateFieldsMandatory   = "Please fill all mandatory fields. Name, mobile number."
	MsgPasswordFieldsMandatory = "Please provide current password and new password"
	MsgLoginFieldsMandatory    = "Please provide an email and password"
	MsgEmailRequired           = "Email is required"
	MsgPasswordRequired        = "Password is required"
	MsgEmailInvalid            = "Please add valid email"
	MsgPasswordNotStrong       = "Password is not strong enough"
	MsgDuplicateEmail          = "This email is already registered"
	MsgInvalidCredentials      = "Invalid credentials"
	MsgNotAuthorized           = "You are not authorized"
	MsgIncorrectPassword       = "Current password is incorrect"
	MsgUserNotFound            = "User not found. Please enter valid email"
	MsgInvalidResetToken       = "Invalid Token"
	MsgEmailNotSent            = "Email could not be sent"
)

var (
	ErrAllFieldsMandatory      = apperror.NewBadRequest("ALL_FIELDS_MAN", MsgAllFieldsMandatory)
	ErrUpdateFieldsMandatory   = apperror.NewBadRequest("UPDATE_FIELDS_MAN", MsgUpdateFieldsMandatory)
	ErrPasswordFieldsMandatory = apperror.NewBadRequest("PASSWORD_FIELDS_MAN", MsgPasswordFieldsMandatory)
	ErrLoginFieldsMandatory    = apperror.NewBadRequest("LOGIN_ALL_FIELDS_MAN", MsgLoginFieldsMandatory)
	ErrEmailRequired           = apperror.NewBadRequest("EMAIL_REQ", MsgEmailRequired)
	ErrPasswordRequired        = apperror.NewBadRequest("PASSWD_REQ", MsgPasswordRequired)
	ErrDuplicateEmail          = apperror.NewConflict("DUP_KEY", MsgDuplicateEmail)
	ErrInvalidCredentials      = apperror.NewUnauthorized("INVALID_CRED", MsgInvalidCredentials)
	ErrNotAuthorized           = apperror.NewUnauthorized("AUTHORIZATION_ERR", MsgNotAuthorized)
	ErrIncorrectPassword       = apperror.NewUnauthorized("INCORRECT_PASS", MsgIncorrectPassword)
	ErrUserNotFound            = apperror.NewNotFound("USER_NOT_FOUND", MsgUserNotFound)
	ErrInvalidResetToken       = apperror.NewBadRequest("INVALID_RESET_TOKEN", MsgInvalidResetToken)
)

// ResetSubject is the subject of the reset notification
const ResetSubject = "Password reset token"

// rollbackTimeout bounds clearing a reset pair after a failed send, which
// must run even when the request context is already done
const rollbackTimeout = 5 * time.Second

// RegisterInput carries the registration fields
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Mobile   string
}

// ResetRequest is the outcome of a forgot-password request
type ResetRequest struct {
	ResetURL string `json:"resetUrl"`
	Message  string `json:"message"`
}

// AuthService provides the account credential lifecycle
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*model.User, error)
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	Authenticate(ctx context.Context, token string) (*model.User, error)
	Me(ctx context.Context, userID string) (*model.User, error)
	UpdateDetails(ctx context.Context, userID, name, mobile string) (*model.User, error)
	UpdatePassword(ctx context.Context, userID, currentPassword, newPassword string) (*model.User, string, error)
	ForgotPassword(ctx context.Context, email string, resetURL func(token string) string) (*ResetRequest, error)
	ResetPassword(ctx context.Context, token, newPassword string) (*model.User, error)
}

type authService struct {
	userRepo repository.UserRepository
	hasher   utils.PasswordHasher
	jwtUtil  *utils.JWTUtil
	notifier notify.Notifier
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(
	userRepo repository.UserRepository,
	hasher utils.PasswordHasher,
	jwtUtil *utils.JWTUtil,
	notifier notify.Notifier,
	log logrus.FieldLogger,
) AuthService {
	return &authService{
		userRepo: userRepo,
		hasher:   hasher,
		jwtUtil:  jwtUtil,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// Register creates a new account
func (s *authService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	password := strings.TrimSpace(in.Password)
	mobile := strings.TrimSpace(in.Mobile)

	if name == "" || email == "" || password == "" || mobile == "" {
		metrics.RecordRegistration(metrics.OutcomeRejected)
		return nil, ErrAllFieldsMandatory
	}

	var fields []apperror.FieldError
	if !utils.IsPasswordAllowed(password) {
		fields = append(fields, apperror.FieldError{"password": MsgPasswordNotStrong})
	}
	if !utils.IsEmailAllowed(email) {
		fields = append(fields, apperror.FieldError{"email": MsgEmailInvalid})
	}
	if len(fields) > 0 {
		metrics.RecordRegistration(metrics.OutcomeRejected)
		return nil, apperror.NewValidation(fields)
	}

	user := &model.User{
		Name:   name,
		Email:  email,
		Mobile: mobile,
		Role:   model.RoleUser,
	}
	user.SetPassword(password)

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			metrics.RecordRegistration(metrics.OutcomeRejected)
			return nil, ErrDuplicateEmail
		}
		metrics.RecordRegistration(metrics.OutcomeError)
		return nil, fmt.Errorf("failed to create user in repository: %w", err)
	}

	metrics.RecordRegistration(metrics.OutcomeSuccess)
	s.log.WithField("user_id", user.ID).Info("User registered")
	return user, nil
}

// Login authenticates by email and password and issues a session token
func (s *authService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)
	if email == "" || password == "" {
		metrics.RecordLogin(metrics.OutcomeRejected)
		return nil, "", ErrLoginFieldsMandatory
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		metrics.RecordLogin(metrics.OutcomeError)
		return nil, "", fmt.Errorf("error finding user by email: %w", err)
	}
	if user == nil {
		metrics.RecordLogin(metrics.OutcomeRejected)
		return nil, "", ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		metrics.RecordLogin(metrics.OutcomeError)
		return nil, "", fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		metrics.RecordLogin(metrics.OutcomeRejected)
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.jwtUtil.GenerateToken(user.ID)
	if err != nil {
		metrics.RecordLogin(metrics.OutcomeError)
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	metrics.RecordLogin(metrics.OutcomeSuccess)
	return user, token, nil
}

// Authenticate resolves a session token to its account. Every verification
// failure yields the same ErrNotAuthorized.
func (s *authService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	claims, status := s.jwtUtil.Verify(token)
	if status != utils.TokenOK {
		s.log.WithField("status", status.String()).Debug("Session token rejected")
		return nil, ErrNotAuthorized
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, model.ErrMalformedID) {
			return nil, ErrNotAuthorized
		}
		return nil, fmt.Errorf("failed to resolve token subject: %w", err)
	}
	if user == nil {
		return nil, ErrNotAuthorized
	}
	return user, nil
}

// Me returns the current state of the authenticated account
func (s *authService) Me(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	if user == nil {
		return nil, ErrNotAuthorized
	}
	return user, nil
}

// UpdateDetails changes the account's name and mobile number
func (s *authService) UpdateDetails(ctx context.Context, userID, name, mobile string) (*model.User, error) {
	name = strings.TrimSpace(name)
	mobile = strings.TrimSpace(mobile)
	if name == "" || mobile == "" {
		return nil, ErrUpdateFieldsMandatory
	}

	user, err := s.userRepo.UpdateDetails(ctx, userID, name, mobile)
	if err != nil {
		return nil, notAuthorized(err)
	}
	if user == nil {
		return nil, ErrNotAuthorized
	}
	return user, nil
}

// UpdatePassword replaces the password after checking the current one and
// issues a fresh session token
func (s *authService) UpdatePassword(ctx context.Context, userID, currentPassword, newPassword string) (*model.User, string, error) {
	currentPassword = strings.TrimSpace(currentPassword)
	newPassword = strings.TrimSpace(newPassword)
	if currentPassword == "" || newPassword == "" {
		return nil, "", ErrPasswordFieldsMandatory
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, "", notAuthorized(err)
	}
	if user == nil {
		return nil, "", ErrNotAuthorized
	}

	ok, err := s.hasher.Verify(currentPassword, user.PasswordHash)
	if err != nil {
		return nil, "", fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return nil, "", ErrIncorrectPassword
	}

	if !utils.IsPasswordAllowed(newPassword) {
		return nil, "", apperror.NewValidation([]apperror.FieldError{{"newPassword": MsgPasswordNotStrong}})
	}

	user.SetPassword(newPassword)
	user.ClearReset()
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, "", fmt.Errorf("failed to save user: %w", err)
	}

	token, err := s.jwtUtil.GenerateToken(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.WithField("user_id", user.ID).Info("Password updated")
	return user, token, nil
}

// ForgotPassword starts a reset: it stores the hash of a fresh token and
// sends the raw token, embedded in resetURL, to the account holder
func (s *authService) ForgotPassword(ctx context.Context, email string, resetURL func(token string) string) (*ResetRequest, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		metrics.RecordResetRequest(metrics.OutcomeRejected)
		return nil, ErrEmailRequired
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		metrics.RecordResetRequest(metrics.OutcomeError)
		return nil, fmt.Errorf("error finding user by email: %w", err)
	}
	if user == nil {
		metrics.RecordResetRequest(metrics.OutcomeRejected)
		return nil, ErrUserNotFound
	}

	token, hash, err := utils.GenerateResetToken()
	if err != nil {
		metrics.RecordResetRequest(metrics.OutcomeError)
		return nil, err
	}
	if err := s.userRepo.SetResetToken(ctx, user.ID, hash, utils.ResetExpiry(s.now())); err != nil {
		metrics.RecordResetRequest(metrics.OutcomeError)
		return nil, fmt.Errorf("failed to store reset token: %w", err)
	}

	link := resetURL(token)
	message := fmt.Sprintf("You are receiving this email because you (or someone else) has requested the reset of a password.\n  Please make a PUT request to: \n\n %s", link)

	if err := s.notifier.Send(ctx, user.Email, ResetSubject, message); err != nil {
		s.log.WithError(err).WithField("user_id", user.ID).Error("Failed to send reset notification")
		rollbackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
		defer cancel()
		if clearErr := s.userRepo.ClearResetToken(rollbackCtx, user.ID); clearErr != nil {
			s.log.WithError(clearErr).WithField("user_id", user.ID).Error("Failed to clear reset token")
		}
		metrics.RecordResetRequest(metrics.OutcomeError)
		return nil, apperror.NewInternal("EMAIL_NOT_SENT", MsgEmailNotSent, err)
	}

	metrics.RecordResetRequest(metrics.OutcomeSuccess)
	return &ResetRequest{ResetURL: link, Message: message}, nil
}

// ResetPassword completes a reset with the raw token from the reset link
func (s *authService) ResetPassword(ctx context.Context, token, newPassword string) (*model.User, error) {
	token = strings.TrimSpace(token)
	newPassword = strings.TrimSpace(newPassword)
	if token == "" {
		metrics.RecordResetComplete(metrics.OutcomeRejected)
		return nil, ErrInvalidResetToken
	}
	if newPassword == "" {
		metrics.RecordResetComplete(metrics.OutcomeRejected)
		return nil, ErrPasswordRequired
	}
	if !utils.IsPasswordAllowed(newPassword) {
		metrics.RecordResetComplete(metrics.OutcomeRejected)
		return nil, apperror.NewValidation([]apperror.FieldError{{"newPassword": MsgPasswordNotStrong}})
	}

	now := s.now()
	hash := utils.HashResetToken(token)

	user, status, err := s.checkResetToken(ctx, hash, now)
	if err != nil {
		metrics.RecordResetComplete(metrics.OutcomeError)
		return nil, err
	}
	if status == utils.ResetOK {
		user.SetPassword(newPassword)
		var done bool
		done, err = s.userRepo.CompleteReset(ctx, user, hash, now)
		if err != nil {
			metrics.RecordResetComplete(metrics.OutcomeError)
			return nil, fmt.Errorf("failed to reset password: %w", err)
		}
		if !done {
			status = utils.ResetInvalid
		}
	}
	if status != utils.ResetOK {
		s.log.WithField("status", status.String()).Debug("Reset token rejected")
		metrics.RecordResetComplete(metrics.OutcomeRejected)
		return nil, ErrInvalidResetToken
	}

	metrics.RecordResetComplete(metrics.OutcomeSuccess)
	s.log.WithField("user_id", user.ID).Info("Password reset")
	return user, nil
}

// checkResetToken classifies a reset token hash against the store
func (s *authService) checkResetToken(ctx context.Context, hash string, now time.Time) (*model.User, utils.ResetStatus, error) {
	user, err := s.userRepo.FindByResetToken(ctx, hash)
	if err != nil {
		return nil, utils.ResetInvalid, fmt.Errorf("failed to find reset token: %w", err)
	}
	if user == nil {
		return nil, utils.ResetNotFound, nil
	}
	return user, utils.CheckResetExpiry(user.ResetPasswordExpire, now), nil
}

// notAuthorized maps a failed lookup or update on the caller's own account
// to an authorization error, keeping the cause for the log
func notAuthorized(err error) error {
	return &apperror.AppError{
		Status:   http.StatusUnauthorized,
		Code:     ErrNotAuthorized.Code,
		Message:  ErrNotAuthorized.Message,
		Internal: err,
	}
}
