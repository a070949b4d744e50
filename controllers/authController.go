package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Kariqs/smart-inventory/middlewares"
	"github.com/Kariqs/smart-inventory/models"
	"github.com/Kariqs/smart-inventory/services"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	msgUserCreated         = "Registration successful. Check your email to confirm your account."
	msgEmailConfirmed      = "Thank you for confirming your email."
	msgResetLinkSent       = "If an account with that email exists, a password reset link has been sent."
	msgPasswordReset       = "Your password has been reset."
	msgLoggedIn            = "Logged in successfully."
	msgLoggedOut           = "You have been logged out."
	msgAccessDenied        = "You do not have access to this resource."
	msgUserPromoted        = "User promoted to Admin."
	msgCredentialsRequired = "Email and password are required."
	msgResetCodeRequired   = "A code must be supplied for password reset."
	msgEmailRequired       = "Please enter your email address."
)

type AuthController struct {
	accounts     *services.AccountService
	categories   *services.CategoryService
	tokenTTL     time.Duration
	secureCookie bool
	log          zerolog.Logger
}

func NewAuthController(accounts *services.AccountService, categories *services.CategoryService, tokenTTL time.Duration, secureCookie bool, logger zerolog.Logger) *AuthController {
	return &AuthController{
		accounts:     accounts,
		categories:   categories,
		tokenTTL:     tokenTTL,
		secureCookie: secureCookie,
		log:          logger.With().Str("component", "auth_controller").Logger(),
	}
}

func (c *AuthController) message(ctx *gin.Context, status int, title, message string) {
	render(ctx, status, "account_message.html", gin.H{"Title": title, "Message": message})
}

// localRedirect keeps login redirects on this site.
func localRedirect(returnURL string) string {
	if strings.HasPrefix(returnURL, "/") && !strings.HasPrefix(returnURL, "//") && !strings.HasPrefix(returnURL, "/\\") {
		return returnURL
	}
	return "/"
}

func (c *AuthController) renderRegister(ctx *gin.Context, status int, in services.RegisterInput, errs []string) {
	categories, err := c.categories.List(ctx.Request.Context())
	if err != nil {
		respondWithError(ctx, c.log, err)
		return
	}
	render(ctx, status, "account_register.html", gin.H{
		"Title":      "Register",
		"Input":      in,
		"Categories": categories,
		"Errors":     errs,
	})
}

func (c *AuthController) RegisterForm(ctx *gin.Context) {
	c.renderRegister(ctx, http.StatusOK, services.RegisterInput{}, nil)
}

// Register handles user registration
func (c *AuthController) Register(ctx *gin.Context) {
	var in services.RegisterInput
	var user *models.User
	err := ctx.ShouldBind(&in)
	if err != nil {
		err = invalidForm(err)
	} else {
		user, err = c.accounts.Register(ctx.Request.Context(), in)
	}
	if err != nil {
		if middlewares.IsAjax(ctx) || !isFormError(err) {
			respondWithError(ctx, c.log, err)
			return
		}
		in.Password, in.ConfirmPassword = "", ""
		c.renderRegister(ctx, http.StatusBadRequest, in, formErrors(err))
		return
	}

	if middlewares.IsAjax(ctx) {
		sendJSONResponse(ctx, http.StatusCreated, gin.H{"success": true, "message": msgUserCreated, "userId": user.ID})
		return
	}
	ctx.Redirect(http.StatusFound, "/Account/RegisterConfirmation")
}

func (c *AuthController) RegisterConfirmation(ctx *gin.Context) {
	c.message(ctx, http.StatusOK, "Registration Confirmation", msgUserCreated)
}

func (c *AuthController) ConfirmEmail(ctx *gin.Context) {
	userID, err := strconv.ParseUint(ctx.Query("userId"), 10, 64)
	code := ctx.Query("code")
	if err != nil || code == "" {
		ctx.Redirect(http.StatusFound, "/")
		return
	}

	if err := c.accounts.ConfirmEmail(ctx.Request.Context(), uint(userID), code); err != nil {
		if statusForError(err) == http.StatusInternalServerError {
			respondWithError(ctx, c.log, err)
			return
		}
		c.message(ctx, http.StatusBadRequest, "Confirm Email", "Error confirming your email.")
		return
	}
	c.message(ctx, http.StatusOK, "Confirm Email", msgEmailConfirmed)
}

func (c *AuthController) LoginForm(ctx *gin.Context) {
	render(ctx, http.StatusOK, "account_login.html", gin.H{
		"Title":     "Log in",
		"ReturnURL": localRedirect(ctx.Query("returnUrl")),
	})
}

// Login checks the credentials and issues the session cookie. Script callers
// also receive the token in the body.
func (c *AuthController) Login(ctx *gin.Context) {
	returnURL := localRedirect(ctx.Query("returnUrl"))
	if v := ctx.PostForm("returnUrl"); v != "" {
		returnURL = localRedirect(v)
	}

	var loginData models.LoginData
	err := ctx.ShouldBind(&loginData)
	if err == nil && (strings.TrimSpace(loginData.Email) == "" || loginData.Password == "") {
		err = &services.ValidationError{Messages: []string{msgCredentialsRequired}}
	} else if err != nil {
		err = invalidForm(err)
	}

	var token string
	var user *models.User
	if err == nil {
		token, user, err = c.accounts.Login(ctx.Request.Context(), loginData.Email, loginData.Password)
	}
	if err != nil {
		if middlewares.IsAjax(ctx) || statusForError(err) == http.StatusInternalServerError {
			respondWithError(ctx, c.log, err)
			return
		}
		render(ctx, statusForError(err), "account_login.html", gin.H{
			"Title":     "Log in",
			"ReturnURL": returnURL,
			"Email":     loginData.Email,
			"Errors":    formErrors(err),
		})
		return
	}

	maxAge := 0
	if loginData.RememberMe {
		maxAge = int(c.tokenTTL.Seconds())
	}
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(middlewares.AuthCookieName, token, maxAge, "/", "", c.secureCookie, true)

	if middlewares.IsAjax(ctx) {
		sendJSONResponse(ctx, http.StatusOK, gin.H{
			"success": true,
			"message": msgLoggedIn,
			"token":   token,
			"isAdmin": user.Role == models.RoleAdmin,
		})
		return
	}
	ctx.Redirect(http.StatusFound, returnURL)
}

func (c *AuthController) Logout(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(middlewares.AuthCookieName, "", -1, "/", "", c.secureCookie, true)
	c.log.Info().Str("email", middlewares.CurrentPrincipal(ctx).Email).Msg("user logged out")

	if middlewares.IsAjax(ctx) {
		sendJSONResponse(ctx, http.StatusOK, gin.H{"success": true, "message": msgLoggedOut})
		return
	}
	ctx.Redirect(http.StatusFound, "/")
}

func (c *AuthController) ForgotPasswordForm(ctx *gin.Context) {
	render(ctx, http.StatusOK, "account_forgot.html", gin.H{"Title": "Forgot your password?"})
}

// ForgotPassword answers every well-formed request the same way.
func (c *AuthController) ForgotPassword(ctx *gin.Context) {
	email := strings.TrimSpace(ctx.PostForm("email"))
	if email == "" && ctx.ContentType() == "application/json" {
		var body struct {
			Email string `json:"email"`
		}
		if err := ctx.ShouldBindJSON(&body); err == nil {
			email = strings.TrimSpace(body.Email)
		}
	}
	if email == "" {
		if middlewares.IsAjax(ctx) {
			sendErrorResponse(ctx, http.StatusBadRequest, msgEmailRequired)
			return
		}
		render(ctx, http.StatusBadRequest, "account_forgot.html", gin.H{
			"Title":  "Forgot your password?",
			"Errors": []string{msgEmailRequired},
		})
		return
	}

	if err := c.accounts.ForgotPassword(ctx.Request.Context(), email); err != nil {
		respondWithError(ctx, c.log, err)
		return
	}

	if middlewares.IsAjax(ctx) {
		sendJSONResponse(ctx, http.StatusOK, gin.H{"success": true, "message": msgResetLinkSent})
		return
	}
	ctx.Redirect(http.StatusFound, "/Account/ForgotPasswordConfirmation")
}

func (c *AuthController) ForgotPasswordConfirmation(ctx *gin.Context) {
	c.message(ctx, http.StatusOK, "Forgot Password Confirmation", msgResetLinkSent)
}

func (c *AuthController) ResetPasswordForm(ctx *gin.Context) {
	code := ctx.Query("code")
	if code == "" {
		c.message(ctx, http.StatusBadRequest, "Reset Password", msgResetCodeRequired)
		return
	}
	render(ctx, http.StatusOK, "account_reset.html", gin.H{"Title": "Reset Password", "Code": code})
}

func (c *AuthController) ResetPassword(ctx *gin.Context) {
	var in services.ResetPasswordInput
	err := ctx.ShouldBind(&in)
	if err != nil {
		err = invalidForm(err)
	} else {
		err = c.accounts.ResetPassword(ctx.Request.Context(), in)
	}
	if err != nil {
		if middlewares.IsAjax(ctx) || !isFormError(err) {
			respondWithError(ctx, c.log, err)
			return
		}
		render(ctx, http.StatusBadRequest, "account_reset.html", gin.H{
			"Title":  "Reset Password",
			"Code":   in.Code,
			"Email":  in.Email,
			"Errors": formErrors(err),
		})
		return
	}

	if middlewares.IsAjax(ctx) {
		sendJSONResponse(ctx, http.StatusOK, gin.H{"success": true, "message": msgPasswordReset})
		return
	}
	ctx.Redirect(http.StatusFound, "/Account/ResetPasswordConfirmation")
}

func (c *AuthController) ResetPasswordConfirmation(ctx *gin.Context) {
	c.message(ctx, http.StatusOK, "Reset Password Confirmation", msgPasswordReset)
}

func (c *AuthController) PromoteToAdmin(ctx *gin.Context) {
	id, err := parseID(ctx)
	if err == nil {
		err = c.accounts.PromoteToAdmin(ctx.Request.Context(), middlewares.CurrentPrincipal(ctx), id)
	}
	if err != nil {
		respondWithError(ctx, c.log, err)
		return
	}

	if middlewares.IsAjax(ctx) {
		sendJSONResponse(ctx, http.StatusOK, gin.H{"success": true, "message": msgUserPromoted})
		return
	}
	redirectWithFlash(ctx, "/", "success", msgUserPromoted)
}

func (c *AuthController) AccessDenied(ctx *gin.Context) {
	if middlewares.IsAjax(ctx) {
		sendErrorResponse(ctx, http.StatusForbidden, msgAccessDenied)
		return
	}
	c.message(ctx, http.StatusForbidden, "Access Denied", msgAccessDenied)
}

// CheckRole reports whether the signed-in user currently holds a role. The
// stored account is consulted so recent promotions are visible.
func (c *AuthController) CheckRole(ctx *gin.Context) {
	role := ctx.DefaultQuery("role", models.RoleAdmin)
	principal := middlewares.CurrentPrincipal(ctx)

	hasRole := false
	if principal.Authenticated() {
		var err error
		if hasRole, err = c.accounts.HasRole(ctx.Request.Context(), principal.UserID, role); err != nil && !errors.Is(err, services.ErrNotFound) {
			respondWithError(ctx, c.log, err)
			return
		}
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{
		"success":       true,
		"authenticated": principal.Authenticated(),
		"role":          role,
		"hasRole":       hasRole,
	})
}
