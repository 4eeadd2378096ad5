package main

import (
	"errors"
	"net/http"

	"pitchside/internal/mailer"
	"pitchside/internal/store"
)

type SignupUserPayload struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=3,max=72"`
	Name     string `json:"name" validate:"required,max=50"`
}

type SignupResponse struct {
	UserID int64  `json:"user_id"`
	Token  string `json:"token"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

// signupHandler godoc
//
//	@Summary		Register a new user
//	@Description	Creates a user account and returns a session token
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		SignupUserPayload	true	"User credentials"
//	@Success		201		{object}	SignupResponse		"User registered"
//	@Failure		400		{object}	error				"Email already exists"
//	@Router			/auth/signup [post]
func (app *application) signupHandler(w http.ResponseWriter, r *http.Request) {
	var payload SignupUserPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, codeInvalidInput, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, codeInvalidInput, err)
		return
	}

	user := &store.User{
		Email: payload.Email,
		Name:  payload.Name,
		Role:  store.RoleUser,
	}
	// hash the user password.
	if err := user.Password.Set(payload.Password); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Users.Create(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			app.badRequestResponse(w, r, codeEmailAlreadyExists, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	token, err := app.authenticator.GenerateToken(user.ID, user.Email, user.Role, app.config.auth.token.exp)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.sendWelcomeEmail(user)

	resp := SignupResponse{
		UserID: user.ID,
		Token:  token,
		Email:  user.Email,
		Name:   user.Name,
		Role:   user.Role,
	}

	if err := app.jsonResponse(w, http.StatusCreated, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

// sendWelcomeEmail delivers the signup email off the request path;
// failure is logged and never fails the signup.
func (app *application) sendWelcomeEmail(user *store.User) {
	go func() {
		vars := struct {
			Username string
		}{
			Username: user.Name,
		}

		status, err := app.mailer.Send(mailer.UserWelcomeTemplate, user.Name, user.Email, vars)
		if err != nil {
			app.logger.Errorw("error sending welcome email", "error", err)
			return
		}
		app.logger.Infow("welcome email sent", "status code", status)
	}()
}

type LoginUserPayload struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=3,max=72"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	UserID      int64  `json:"user_id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	Role        string `json:"role"`
}

// loginHandler godoc
//
//	@Summary		Login to get a token
//	@Description	Verifies credentials and issues a session token carrying the user's current role
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		LoginUserPayload	true	"User credentials"
//	@Success		200		{object}	LoginResponse		"Session token"
//	@Failure		401		{object}	error				"Invalid password"
//	@Failure		404		{object}	error				"User not found"
//	@Router			/auth/login [post]
func (app *application) loginHandler(w http.ResponseWriter, r *http.Request) {
	var payload LoginUserPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, codeInvalidInput, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, codeInvalidInput, err)
		return
	}

	user, err := app.store.Users.GetByEmail(r.Context(), payload.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, codeUserNotFound, errors.New("user not found"))
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if err := user.Password.Compare(payload.Password); err != nil {
		app.unauthorizedErrorResponse(w, r, codeInvalidPassword, errors.New("invalid password"))
		return
	}

	token, err := app.authenticator.GenerateToken(user.ID, user.Email, user.Role, app.config.auth.token.exp)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	resp := LoginResponse{
		AccessToken: token,
		UserID:      user.ID,
		Email:       user.Email,
		Name:        user.Name,
		Role:        user.Role,
	}

	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

type LogoutPayload struct {
	Token string `json:"token" validate:"required"`
}

// logoutHandler godoc
//
//	@Summary		Logout
//	@Description	Validates the presented token and acknowledges the logout. Tokens are self-contained and stay usable until natural expiry; there is no server-side revocation list.
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		LogoutPayload	true	"Session token"
//	@Success		200		{object}	map[string]bool
//	@Failure		401		{object}	error	"Invalid token"
//	@Router			/auth/logout [post]
func (app *application) logoutHandler(w http.ResponseWriter, r *http.Request) {
	var payload LogoutPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, codeInvalidInput, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, codeInvalidInput, err)
		return
	}

	if _, err := app.authenticator.ValidateToken(payload.Token); err != nil {
		app.unauthorizedErrorResponse(w, r, codeInvalidToken, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]bool{"success": true}); err != nil {
		app.internalServerError(w, r, err)
	}
}
