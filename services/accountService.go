package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/Kariqs/smart-inventory/models"
	"github.com/Kariqs/smart-inventory/utils"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	// Default cost for bcrypt password hashing
	bcryptCost = 10

	confirmationTokenTTL = 24 * time.Hour
	resetTokenTTL        = time.Hour
	maxFailedAccess      = 5
	lockoutDuration      = 5 * time.Minute
)

type AccountConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
	BaseURL   string
}

type RegisterInput struct {
	FullName            string `json:"fullName" form:"fullName" validate:"required,max=100"`
	Email               string `json:"email" form:"email" validate:"required,email,max=100"`
	Password            string `json:"password" form:"password"`
	ConfirmPassword     string `json:"confirmPassword" form:"confirmPassword"`
	ContactInformation  string `json:"contactInformation" form:"contactInformation" validate:"required,max=200"`
	PreferredCategories []uint `json:"preferredCategories" form:"preferredCategories"`
}

type ResetPasswordInput struct {
	Email           string `json:"email" form:"email" validate:"required,email"`
	Code            string `json:"code" form:"code"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword"`
}

type AccountService struct {
	db     *gorm.DB
	mailer utils.Mailer
	cfg    AccountConfig
	log    zerolog.Logger
	now    func() time.Time
}

func NewAccountService(db *gorm.DB, mailer utils.Mailer, cfg AccountConfig, logger zerolog.Logger) *AccountService {
	return &AccountService{
		db:     db,
		mailer: mailer,
		cfg:    cfg,
		log:    logger.With().Str("component", "account_service").Logger(),
		now:    time.Now,
	}
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func comparePasswords(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// passwordProblems lists the password policy rules the password breaks.
func passwordProblems(password string) []string {
	var hasDigit, hasLower, hasUpper, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case !unicode.IsLetter(r):
			hasSymbol = true
		}
	}

	var problems []string
	if len(password) < 8 {
		problems = append(problems, "Passwords must be at least 8 characters.")
	}
	if !hasDigit {
		problems = append(problems, "Passwords must have at least one digit ('0'-'9').")
	}
	if !hasLower {
		problems = append(problems, "Passwords must have at least one lowercase ('a'-'z').")
	}
	if !hasUpper {
		problems = append(problems, "Passwords must have at least one uppercase ('A'-'Z').")
	}
	if !hasSymbol {
		problems = append(problems, "Passwords must have at least one non alphanumeric character.")
	}
	return problems
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AccountService) findByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return &user, nil
}

func (s *AccountService) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch user %d: %w", id, err)
	}
	return &user, nil
}

// Register creates an unconfirmed RegularUser account and emails a
// confirmation link. A failed delivery is logged; the account is kept.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Email = normalizeEmail(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)

	verr := newValidationError(models.Validate(in)...)
	for _, problem := range passwordProblems(in.Password) {
		verr.add(nil, problem)
	}
	if in.ConfirmPassword != "" && in.ConfirmPassword != in.Password {
		verr.add(nil, "The password and confirmation password do not match.")
	}
	if !verr.empty() {
		return nil, verr
	}

	if _, err := s.findByEmail(ctx, in.Email); err == nil {
		return nil, &ValidationError{
			Messages: []string{fmt.Sprintf("Email '%s' is already taken.", in.Email)},
			Causes:   []error{ErrEmailTaken},
		}
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	hashedPassword, err := hashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	preferred, err := json.Marshal(in.PreferredCategories)
	if err != nil {
		return nil, fmt.Errorf("failed to encode preferred categories: %w", err)
	}

	code, err := utils.GenerateCode(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate confirmation code: %w", err)
	}
	expiry := s.now().Add(confirmationTokenTTL)

	user := models.User{
		FullName:                     in.FullName,
		Email:                        in.Email,
		ContactInformation:           in.ContactInformation,
		PreferredCategories:          datatypes.JSON(preferred),
		Password:                     hashedPassword,
		Role:                         models.RoleRegularUser,
		EmailConfirmationToken:       code,
		EmailConfirmationTokenExpiry: &expiry,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		s.log.Error().Err(err).Str("email", in.Email).Msg("user creation error")
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.log.Info().Uint("user_id", user.ID).Str("email", user.Email).Msg("user registered")

	link := fmt.Sprintf("%s/Account/ConfirmEmail?userId=%d&code=%s", s.cfg.BaseURL, user.ID, url.QueryEscape(code))
	if err := s.sendEmail(ctx, user, "Confirm your email", utils.TemplateVerifyEmail, utils.EmailData{
		Name:            user.FullName,
		Message:         "Thank you for signing up! Please confirm your email by clicking the link below.",
		VerificationURL: link,
	}); err != nil {
		s.log.Error().Err(err).Str("email", user.Email).Msg("error sending confirmation email")
	}

	return &user, nil
}

func (s *AccountService) sendEmail(ctx context.Context, user models.User, subject, templateName string, data utils.EmailData) error {
	body, err := utils.RenderEmail(templateName, data)
	if err != nil {
		return err
	}
	return s.mailer.Send(ctx, user.Email, subject, body)
}

func tokenValid(stored, given string, expiry *time.Time, now time.Time) bool {
	return stored != "" && given == stored && expiry != nil && now.Before(*expiry)
}

func (s *AccountService) ConfirmEmail(ctx context.Context, userID uint, code string) error {
	user, err := s.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !tokenValid(user.EmailConfirmationToken, code, user.EmailConfirmationTokenExpiry, s.now()) {
		s.log.Warn().Uint("user_id", userID).Msg("invalid email confirmation code")
		return ErrInvalidToken
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(map[string]any{
		"email_confirmed":                 true,
		"email_confirmation_token":        "",
		"email_confirmation_token_expiry": nil,
	}).Error; err != nil {
		return fmt.Errorf("failed to confirm email: %w", err)
	}

	s.log.Info().Uint("user_id", userID).Str("email", user.Email).Msg("email confirmed")
	return nil
}

// Login checks the credentials and returns a signed session token. Five
// consecutive failures lock the account for five minutes.
func (s *AccountService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.log.Warn().Str("email", email).Msg("login for unknown user")
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	now := s.now()
	if user.LockoutEnd != nil && now.Before(*user.LockoutEnd) {
		s.log.Warn().Str("email", user.Email).Msg("user account locked out")
		return "", nil, ErrLockedOut
	}

	db := s.db.WithContext(ctx).Model(user)
	if err := comparePasswords(user.Password, password); err != nil {
		failed := user.AccessFailedCount + 1
		updates := map[string]any{"access_failed_count": failed, "lockout_end": nil}
		if failed >= maxFailedAccess {
			lockoutEnd := now.Add(lockoutDuration)
			updates = map[string]any{"access_failed_count": 0, "lockout_end": &lockoutEnd}
		}
		if err := db.Updates(updates).Error; err != nil {
			return "", nil, fmt.Errorf("failed to record login failure: %w", err)
		}
		if failed >= maxFailedAccess {
			s.log.Warn().Str("email", user.Email).Msg("user account locked out")
			return "", nil, ErrLockedOut
		}
		s.log.Warn().Str("email", user.Email).Int("failures", failed).Msg("invalid login attempt")
		return "", nil, ErrInvalidCredentials
	}

	if user.AccessFailedCount != 0 || user.LockoutEnd != nil {
		if err := db.Updates(map[string]any{"access_failed_count": 0, "lockout_end": nil}).Error; err != nil {
			return "", nil, fmt.Errorf("failed to reset login failures: %w", err)
		}
	}

	token, err := utils.GenerateJWT(*user, s.cfg.JWTSecret, s.cfg.TokenTTL)
	if err != nil {
		s.log.Error().Err(err).Msg("JWT generation error")
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Info().Str("email", user.Email).Bool("admin", user.Role == models.RoleAdmin).Msg("user logged in")
	return token, user, nil
}

// ForgotPassword emails a reset link to confirmed accounts. Unknown and
// unconfirmed addresses are answered the same way so callers cannot probe
// for accounts.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.log.Info().Str("email", email).Msg("password reset requested for unknown email")
			return nil
		}
		return err
	}
	if !user.EmailConfirmed {
		s.log.Info().Str("email", user.Email).Msg("password reset requested for unconfirmed email")
		return nil
	}

	code, err := utils.GenerateCode(32)
	if err != nil {
		return fmt.Errorf("failed to generate reset code: %w", err)
	}
	expiry := s.now().Add(resetTokenTTL)

	if err := s.db.WithContext(ctx).Model(user).Updates(map[string]any{
		"password_reset_token":        code,
		"password_reset_token_expiry": &expiry,
	}).Error; err != nil {
		return fmt.Errorf("unable to save reset token: %w", err)
	}

	link := fmt.Sprintf("%s/Account/ResetPassword?code=%s", s.cfg.BaseURL, url.QueryEscape(code))
	if err := s.sendEmail(ctx, *user, "Reset your password", utils.TemplateResetPassword, utils.EmailData{
		Name:            user.FullName,
		Message:         "You have requested to reset your password. Click the link below to proceed.",
		VerificationURL: link,
	}); err != nil {
		s.log.Error().Err(err).Str("email", user.Email).Msg("error sending password reset email")
		return nil
	}

	s.log.Info().Str("email", user.Email).Msg("password reset email sent")
	return nil
}

// ResetPassword sets a new password using a code from ForgotPassword. An
// unknown email is reported as success.
func (s *AccountService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	verr := newValidationError(models.Validate(in)...)
	if in.Code == "" {
		verr.add(nil, "A code must be supplied for password reset.")
	}
	for _, problem := range passwordProblems(in.Password) {
		verr.add(nil, problem)
	}
	if in.ConfirmPassword != "" && in.ConfirmPassword != in.Password {
		verr.add(nil, "The password and confirmation password do not match.")
	}
	if !verr.empty() {
		return verr
	}

	user, err := s.findByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}

	if !tokenValid(user.PasswordResetToken, in.Code, user.PasswordResetTokenExpiry, s.now()) {
		s.log.Warn().Str("email", user.Email).Msg("invalid password reset code")
		return &ValidationError{Messages: []string{"Invalid token."}, Causes: []error{ErrInvalidToken}}
	}

	hashedPassword, err := hashPassword(in.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(map[string]any{
		"password":                    hashedPassword,
		"password_reset_token":        "",
		"password_reset_token_expiry": nil,
		"access_failed_count":         0,
		"lockout_end":                 nil,
	}).Error; err != nil {
		return fmt.Errorf("unable to reset password: %w", err)
	}

	s.log.Info().Str("email", user.Email).Msg("password reset successful")
	return nil
}

func (s *AccountService) PromoteToAdmin(ctx context.Context, actor models.Principal, userID uint) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	user, err := s.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role == models.RoleAdmin {
		return nil
	}

	if err := s.db.WithContext(ctx).Model(user).Update("role", models.RoleAdmin).Error; err != nil {
		return fmt.Errorf("failed to promote user %d: %w", userID, err)
	}
	s.log.Info().Str("email", user.Email).Uint("admin_id", actor.UserID).Msg("user promoted to admin")
	return nil
}

// HasRole reports whether the stored account currently holds role.
func (s *AccountService) HasRole(ctx context.Context, userID uint, role string) (bool, error) {
	user, err := s.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.Role == role, nil
}

// EnsureAdmin creates a confirmed admin account, or grants the admin role to
// an existing account with that email.
func (s *AccountService) EnsureAdmin(ctx context.Context, email, password, fullName string) error {
	user, err := s.findByEmail(ctx, email)
	switch {
	case err == nil:
		if user.Role == models.RoleAdmin {
			s.log.Info().Str("email", user.Email).Msg("admin user already exists")
			return nil
		}
		if err := s.db.WithContext(ctx).Model(user).Update("role", models.RoleAdmin).Error; err != nil {
			return fmt.Errorf("failed to assign admin role: %w", err)
		}
		s.log.Info().Str("email", user.Email).Msg("admin role assigned to existing user")
		return nil
	case !errors.Is(err, ErrNotFound):
		return err
	}

	if problems := passwordProblems(password); problems != nil {
		return newValidationError(problems...)
	}
	hashedPassword, err := hashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	admin := models.User{
		FullName:            fullName,
		Email:               normalizeEmail(email),
		ContactInformation:  normalizeEmail(email),
		PreferredCategories: datatypes.JSON("[]"),
		Password:            hashedPassword,
		Role:                models.RoleAdmin,
		EmailConfirmed:      true,
	}
	if err := s.db.WithContext(ctx).Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	s.log.Info().Str("email", admin.Email).Msg("admin user created")
	return nil
}
