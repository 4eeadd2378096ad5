package main

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestSignupAndLogin(t *testing.T) {
	app := newTestApplication(t)
	mux := app.mount()

	userID, token := signupAndLogin(t, mux, "mina@example.com", "Mina")
	if userID == 0 {
		t.Fatal("expected a non-zero user ID")
	}
	if token == "" {
		t.Fatal("expected a session token on signup")
	}

	// The signup token must be usable right away.
	claims, err := app.authenticator.ValidateToken(token)
	if err != nil {
		t.Fatalf("signup token did not validate: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("token subject = %d, want %d", claims.UserID, userID)
	}
	if claims.Role != "USER" {
		t.Fatalf("new accounts must get the USER role, got %q", claims.Role)
	}

	rr := executeRequest(jsonRequest(t, http.MethodPost, "/v1/auth/login", LoginUserPayload{
		Email:    "mina@example.com",
		Password: "sekrit",
	}), mux)
	checkResponseCode(t, http.StatusOK, rr.Code, rr.Body.String())

	var envelope struct {
		Data LoginResponse `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding login response: %v", err)
	}
	if envelope.Data.AccessToken == "" {
		t.Fatal("expected a session token on login")
	}
	if envelope.Data.UserID != userID {
		t.Fatalf("login user ID = %d, want %d", envelope.Data.UserID, userID)
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	app := newTestApplication(t)
	mux := app.mount()

	signupAndLogin(t, mux, "mina@example.com", "Mina")

	rr := executeRequest(jsonRequest(t, http.MethodPost, "/v1/auth/signup", SignupUserPayload{
		Email:    "mina@example.com",
		Password: "another",
		Name:     "Other Mina",
	}), mux)
	checkResponseCode(t, http.StatusBadRequest, rr.Code, rr.Body.String())

	if code := decodeError(t, rr.Body.Bytes()); code != codeEmailAlreadyExists {
		t.Fatalf("error code = %q, want %q", code, codeEmailAlreadyExists)
	}
}

func TestEmailIsCaseSensitive(t *testing.T) {
	app := newTestApplication(t)
	mux := app.mount()

	lowerID, _ := signupAndLogin(t, mux, "mina@example.com", "Mina")

	// A case-variant email is a different account, not a duplicate.
	upperID, _ := signupAndLogin(t, mux, "Mina@example.com", "Other Mina")
	if upperID == lowerID {
		t.Fatal("case-variant emails must register distinct accounts")
	}

	// Login matches the stored casing exactly.
	rr := executeRequest(jsonRequest(t, http.MethodPost, "/v1/auth/login", LoginUserPayload{
		Email:    "MINA@example.com",
		Password: "sekrit",
	}), mux)
	checkResponseCode(t, http.StatusNotFound, rr.Code, rr.Body.String())
	if code := decodeError(t, rr.Body.Bytes()); code != codeUserNotFound {
		t.Fatalf("error code = %q, want %q", code, codeUserNotFound)
	}
}

func TestLoginFailures(t *testing.T) {
	app := newTestApplication(t)
	mux := app.mount()

	signupAndLogin(t, mux, "mina@example.com", "Mina")

	tests := []struct {
		name       string
		payload    LoginUserPayload
		wantStatus int
		wantCode   string
	}{
		{
			name:       "unknown email",
			payload:    LoginUserPayload{Email: "nobody@example.com", Password: "sekrit"},
			wantStatus: http.StatusNotFound,
			wantCode:   codeUserNotFound,
		},
		{
			name:       "wrong password",
			payload:    LoginUserPayload{Email: "mina@example.com", Password: "wrong"},
			wantStatus: http.StatusUnauthorized,
			wantCode:   codeInvalidPassword,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := executeRequest(jsonRequest(t, http.MethodPost, "/v1/auth/login", tc.payload), mux)
			checkResponseCode(t, tc.wantStatus, rr.Code, rr.Body.String())
			if code := decodeError(t, rr.Body.Bytes()); code != tc.wantCode {
				t.Fatalf("error code = %q, want %q", code, tc.wantCode)
			}
		})
	}
}

func TestLogout(t *testing.T) {
	app := newTestApplication(t)
	mux := app.mount()

	_, token := signupAndLogin(t, mux, "mina@example.com", "Mina")

	rr := executeRequest(jsonRequest(t, http.MethodPost, "/v1/auth/logout", LogoutPayload{Token: token}), mux)
	checkResponseCode(t, http.StatusOK, rr.Code, rr.Body.String())

	// Tokens are self-contained, so the same token still validates
	// after logout until it expires.
	if _, err := app.authenticator.ValidateToken(token); err != nil {
		t.Fatalf("token should survive logout: %v", err)
	}

	rr = executeRequest(jsonRequest(t, http.MethodPost, "/v1/auth/logout", LogoutPayload{Token: "not.a.token"}), mux)
	checkResponseCode(t, http.StatusUnauthorized, rr.Code, rr.Body.String())
	if code := decodeError(t, rr.Body.Bytes()); code != codeInvalidToken {
		t.Fatalf("error code = %q, want %q", code, codeInvalidToken)
	}
}

func TestAuthTokenMiddleware(t *testing.T) {
	app := newTestApplication(t)
	mux := app.mount()

	_, token := signupAndLogin(t, mux, "mina@example.com", "Mina")

	payload := CreateFieldPayload{
		Name:            "Riverside Pitch",
		Address:         "12 River Rd",
		GrassType:       "natural",
		RecommendedShoe: "FG",
	}

	// No header.
	rr := executeRequest(jsonRequest(t, http.MethodPost, "/v1/fields", payload), mux)
	checkResponseCode(t, http.StatusUnauthorized, rr.Code, rr.Body.String())

	// Garbage token.
	req := jsonRequest(t, http.MethodPost, "/v1/fields", payload)
	req.Header.Set("Authorization", "Bearer garbage")
	rr = executeRequest(req, mux)
	checkResponseCode(t, http.StatusUnauthorized, rr.Code, rr.Body.String())
	if code := decodeError(t, rr.Body.Bytes()); code != codeInvalidToken {
		t.Fatalf("error code = %q, want %q", code, codeInvalidToken)
	}

	// Valid token.
	req = jsonRequest(t, http.MethodPost, "/v1/fields", payload)
	req.Header.Set("Authorization", "Bearer "+token)
	rr = executeRequest(req, mux)
	checkResponseCode(t, http.StatusCreated, rr.Code, rr.Body.String())
}
