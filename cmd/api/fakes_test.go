package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"pitchside/internal/auth"
	"pitchside/internal/geocode"
	"pitchside/internal/ratelimiter"
	"pitchside/internal/store"

	"go.uber.org/zap"
)

// In-memory stores backing handler tests. They satisfy the same
// interfaces as the database-backed stores, and Storage.WithTx runs
// the unit of work directly against them.

type fakeUsersStore struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*store.User
}

func newFakeUsersStore() *fakeUsersStore {
	return &fakeUsersStore{nextID: 1, users: map[int64]*store.User{}}
}

func (s *fakeUsersStore) Create(_ context.Context, user *store.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return store.ErrDuplicateEmail
		}
	}
	user.ID = s.nextID
	s.nextID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *fakeUsersStore) GetByID(_ context.Context, id int64) (*store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *fakeUsersStore) GetByEmail(_ context.Context, email string) (*store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

type fakeFieldsStore struct {
	mu     sync.Mutex
	fields map[string]*store.Field
}

func newFakeFieldsStore() *fakeFieldsStore {
	return &fakeFieldsStore{fields: map[string]*store.Field{}}
}

func (s *fakeFieldsStore) Create(_ context.Context, field *store.Field) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if field.ID == "" {
		field.ID = "field-" + time.Now().Format("150405.000000000")
	}
	field.Status = store.FieldStatusPendingApproval
	field.CreatedAt = time.Now()
	field.UpdatedAt = field.CreatedAt
	cp := *field
	s.fields[field.ID] = &cp
	return nil
}

func (s *fakeFieldsStore) GetByID(_ context.Context, id string) (*store.Field, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.fields[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (s *fakeFieldsStore) ListApproved(_ context.Context) ([]store.Field, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []store.Field
	for _, f := range s.fields {
		if f.Status == store.FieldStatusApproved {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (s *fakeFieldsStore) Search(_ context.Context, keyword string) ([]store.Field, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []store.Field
	for _, f := range s.fields {
		if f.Status != store.FieldStatusApproved {
			continue
		}
		if strings.Contains(f.Name, keyword) || strings.Contains(f.Address, keyword) {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (s *fakeFieldsStore) Approve(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.fields[id]
	if !ok {
		return store.ErrNotFound
	}
	f.Status = store.FieldStatusApproved
	return nil
}

func (s *fakeFieldsStore) UpdateRating(_ context.Context, id string, rating float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.fields[id]
	if !ok {
		return store.ErrNotFound
	}
	f.Rating = rating
	return nil
}

type fakeReviewsStore struct {
	mu      sync.Mutex
	nextID  int64
	reviews map[int64]*store.Review
}

func newFakeReviewsStore() *fakeReviewsStore {
	return &fakeReviewsStore{nextID: 1, reviews: map[int64]*store.Review{}}
}

func (s *fakeReviewsStore) Create(_ context.Context, review *store.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	review.ID = s.nextID
	s.nextID++
	review.CreatedAt = time.Now()
	review.UpdatedAt = review.CreatedAt
	cp := *review
	s.reviews[review.ID] = &cp
	return nil
}

func (s *fakeReviewsStore) GetByID(_ context.Context, id int64) (*store.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *fakeReviewsStore) ListByField(_ context.Context, fieldID string, lastID, limit int64) ([]store.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []store.Review
	for id := s.nextID - 1; id >= 1 && int64(len(out)) < limit; id-- {
		r, ok := s.reviews[id]
		if !ok || r.FieldID != fieldID {
			continue
		}
		if lastID != 0 && id >= lastID {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (s *fakeReviewsStore) GetRatingsByField(_ context.Context, fieldID string) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []int
	for _, r := range s.reviews {
		if r.FieldID == fieldID {
			out = append(out, r.Rating)
		}
	}
	return out, nil
}

func (s *fakeReviewsStore) Update(_ context.Context, review *store.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[review.ID]
	if !ok {
		return store.ErrNotFound
	}
	review.CreatedAt = r.CreatedAt
	review.UpdatedAt = time.Now()
	cp := *review
	s.reviews[review.ID] = &cp
	return nil
}

func (s *fakeReviewsStore) Delete(_ context.Context, reviewID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reviews[reviewID]; !ok {
		return store.ErrNotFound
	}
	delete(s.reviews, reviewID)
	return nil
}

type fakeCommentsStore struct {
	mu       sync.Mutex
	nextID   int64
	comments map[int64]*store.Comment
}

func newFakeCommentsStore() *fakeCommentsStore {
	return &fakeCommentsStore{nextID: 1, comments: map[int64]*store.Comment{}}
}

func (s *fakeCommentsStore) Create(_ context.Context, comment *store.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if comment.ParentID != nil {
		if _, ok := s.comments[*comment.ParentID]; !ok {
			return store.ErrNotFound
		}
	}
	comment.ID = s.nextID
	s.nextID++
	comment.CreatedAt = time.Now()
	comment.UpdatedAt = comment.CreatedAt
	cp := *comment
	s.comments[comment.ID] = &cp
	return nil
}

func (s *fakeCommentsStore) GetByID(_ context.Context, id int64) (*store.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *fakeCommentsStore) ListByReview(_ context.Context, reviewID int64) ([]store.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []store.Comment
	for id := int64(1); id < s.nextID; id++ {
		c, ok := s.comments[id]
		if ok && c.ReviewID == reviewID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *fakeCommentsStore) UpdateContent(_ context.Context, comment *store.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[comment.ID]
	if !ok {
		return store.ErrNotFound
	}
	c.Content = comment.Content
	c.UpdatedAt = time.Now()
	return nil
}

func (s *fakeCommentsStore) Delete(_ context.Context, commentID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[commentID]; !ok {
		return store.ErrNotFound
	}
	delete(s.comments, commentID)
	return nil
}

type fakeMailer struct{}

func (fakeMailer) Send(templateFile, username, email string, data any) (int, error) {
	return http.StatusOK, nil
}

const testTokenSecret = "handler-test-secret"

func newTestApplication(t *testing.T) *application {
	t.Helper()

	logger := zap.NewNop().Sugar()

	return &application{
		config: config{
			env: "test",
			auth: authConfig{
				basic: basicConfig{user: "admin", pass: "admin"},
				token: tokenConfig{secret: testTokenSecret, exp: time.Hour, iss: "pitchside"},
			},
			rateLimiter: ratelimiter.Config{Enabled: false},
		},
		store: store.Storage{
			Users:    newFakeUsersStore(),
			Fields:   newFakeFieldsStore(),
			Reviews:  newFakeReviewsStore(),
			Comments: newFakeCommentsStore(),
		},
		logger:        logger,
		authenticator: auth.NewJWTAuthenticator(testTokenSecret, "pitchside"),
		geocoder:      geocode.NewClient("", logger),
		mailer:        fakeMailer{},
		rateLimiter:   ratelimiter.NewFixedWindowLimiter(100, time.Minute),
	}
}

func executeRequest(req *http.Request, mux http.Handler) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func checkResponseCode(t *testing.T, expected, actual int, body string) {
	t.Helper()
	if expected != actual {
		t.Fatalf("expected status %d, got %d (body: %s)", expected, actual, body)
	}
}

func jsonRequest(t *testing.T, method, target string, payload any) *http.Request {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("encoding payload: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// signupAndLogin registers a user through the API and returns its ID
// and a valid bearer token.
func signupAndLogin(t *testing.T, mux http.Handler, email, name string) (int64, string) {
	t.Helper()

	rr := executeRequest(jsonRequest(t, http.MethodPost, "/v1/auth/signup", SignupUserPayload{
		Email:    email,
		Password: "sekrit",
		Name:     name,
	}), mux)
	checkResponseCode(t, http.StatusCreated, rr.Code, rr.Body.String())

	var envelope struct {
		Data SignupResponse `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding signup response: %v", err)
	}
	return envelope.Data.UserID, envelope.Data.Token
}

// decodeError pulls the machine code out of an error envelope.
func decodeError(t *testing.T, body []byte) string {
	t.Helper()
	var envelope struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("decoding error envelope: %v", err)
	}
	return envelope.Code
}
