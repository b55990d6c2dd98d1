package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studentorg/newsletter-service/internal/mailchimp"
	"github.com/studentorg/newsletter-service/internal/middleware"
	"github.com/studentorg/newsletter-service/internal/models"
)

// listFunc adapts a function to the ListClient interface.
type listFunc func(ctx context.Context, sub models.Subscription) error

func (f listFunc) Subscribe(ctx context.Context, sub models.Subscription) error {
	return f(ctx, sub)
}

// storeFunc adapts a function to the SubscriberStore interface.
type storeFunc func(ctx context.Context, sub models.Subscription) (bool, error)

func (f storeFunc) UpsertSubscriber(ctx context.Context, sub models.Subscription) (bool, error) {
	return f(ctx, sub)
}

// okList accepts every subscription.
var okList = listFunc(func(context.Context, models.Subscription) error { return nil })

func newTestRouter(deps Deps) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID())
	RegisterNewsletterRoutes(r, deps)
	return r
}

func subscribe(t *testing.T, r *gin.Engine, body string) (int, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/newsletter/subscribe", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "response must be JSON: %s", w.Body.String())
	return w.Code, out
}

func TestSubscribe_InputValidation(t *testing.T) {
	r := newTestRouter(Deps{List: okList})

	cases := []struct {
		name     string
		body     string
		wantCode int
		wantErr  string
	}{
		{"empty body", `{}`, http.StatusBadRequest, "Email is required"},
		{"unparsable body", `{"email":`, http.StatusBadRequest, "Email is required"},
		{"non-string email", `{"email":123}`, http.StatusBadRequest, "Email is required"},
		{"empty email", `{"email":""}`, http.StatusBadRequest, "Email is required"},
		{"whitespace email", `{"email":"   "}`, http.StatusBadRequest, "Invalid email format"},
		{"no at sign", `{"email":"not-an-email"}`, http.StatusBadRequest, "Invalid email format"},
		{"no tld", `{"email":"user@domain"}`, http.StatusBadRequest, "Invalid email format"},
		{"space in local part", `{"email":"a b@c.com"}`, http.StatusBadRequest, "Invalid email format"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, body := subscribe(t, r, tc.body)
			assert.Equal(t, tc.wantCode, code)
			assert.Equal(t, tc.wantErr, body["error"])
		})
	}
}

func TestSubscribe_Success(t *testing.T) {
	var listGot, storeGot *models.Subscription

	r := newTestRouter(Deps{
		List: listFunc(func(_ context.Context, sub models.Subscription) error {
			listGot = &sub
			return nil
		}),
		Subscribers: storeFunc(func(_ context.Context, sub models.Subscription) (bool, error) {
			storeGot = &sub
			return true, nil
		}),
	})

	code, body := subscribe(t, r, `{"email":"new@example.com","firstName":"Ada","source":"homepage"}`)

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Successfully subscribed!", body["message"])

	require.NotNil(t, listGot, "primary write not attempted")
	require.NotNil(t, storeGot, "backup write not attempted")
	assert.Equal(t, "new@example.com", listGot.Email)
	assert.Equal(t, "Ada", listGot.FirstName)
	assert.Equal(t, "homepage", listGot.Source)
}

func TestSubscribe_NormalizesEmailForBothWrites(t *testing.T) {
	var listGot, storeGot string

	r := newTestRouter(Deps{
		List: listFunc(func(_ context.Context, sub models.Subscription) error {
			listGot = sub.Email
			return nil
		}),
		Subscribers: storeFunc(func(_ context.Context, sub models.Subscription) (bool, error) {
			storeGot = sub.Email
			return true, nil
		}),
	})

	code, _ := subscribe(t, r, `{"email":"  Foo@BAR.com "}`)

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "foo@bar.com", listGot)
	assert.Equal(t, "foo@bar.com", storeGot)
	assert.Equal(t, mailchimp.SubscriberHash("foo@bar.com"), mailchimp.SubscriberHash(listGot))
}

func TestSubscribe_MemberExistsIsSuccess(t *testing.T) {
	backupCalled := false

	r := newTestRouter(Deps{
		List: listFunc(func(context.Context, models.Subscription) error {
			return &mailchimp.APIError{Code: mailchimp.CodeMemberExists, Status: 400, Title: "Member Exists"}
		}),
		Subscribers: storeFunc(func(context.Context, models.Subscription) (bool, error) {
			backupCalled = true
			return false, nil
		}),
	})

	code, body := subscribe(t, r, `{"email":"foo@bar.com"}`)

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "You're already subscribed!", body["message"])
	assert.False(t, backupCalled, "backup write attempted for existing member")
}

func TestSubscribe_UpstreamErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{
			name:     "invalid resource",
			err:      &mailchimp.APIError{Code: mailchimp.CodeInvalidResource, Status: 400, Title: "Invalid Resource"},
			wantCode: http.StatusBadRequest,
			wantErr:  "Invalid email address. Please check and try again.",
		},
		{
			name:     "other api error",
			err:      &mailchimp.APIError{Code: mailchimp.CodeOther, Status: 429, Title: "Too Many Requests"},
			wantCode: http.StatusInternalServerError,
			wantErr:  "Failed to subscribe. Please try again.",
		},
		{
			name:     "not configured",
			err:      mailchimp.ErrNotConfigured,
			wantCode: http.StatusInternalServerError,
			wantErr:  "Newsletter service is not configured.",
		},
		{
			name:     "unexpected error",
			err:      errors.New("connection reset"),
			wantCode: http.StatusInternalServerError,
			wantErr:  "An unexpected error occurred",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(Deps{
				List: listFunc(func(context.Context, models.Subscription) error { return tc.err }),
			})

			code, body := subscribe(t, r, `{"email":"foo@bar.com"}`)
			assert.Equal(t, tc.wantCode, code)
			assert.Equal(t, tc.wantErr, body["error"])
		})
	}
}

func TestSubscribe_BackupFailureIsInvisible(t *testing.T) {
	cases := []struct {
		name string
		subs SubscriberStore
	}{
		{
			name: "store error",
			subs: storeFunc(func(context.Context, models.Subscription) (bool, error) {
				return false, errors.New("backup database unreachable")
			}),
		},
		{
			name: "store panic",
			subs: storeFunc(func(context.Context, models.Subscription) (bool, error) {
				panic("nil pool")
			}),
		},
		{
			name: "no store configured",
			subs: nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(Deps{List: okList, Subscribers: tc.subs})

			code, body := subscribe(t, r, `{"email":"foo@bar.com"}`)
			require.Equal(t, http.StatusOK, code)
			assert.Equal(t, true, body["success"])
			assert.Equal(t, "Successfully subscribed!", body["message"])
		})
	}
}

// The caller-visible contract is idempotent: the second submission of an
// accepted address succeeds with the already-subscribed message.
func TestSubscribe_RepeatSubmissionIdempotent(t *testing.T) {
	seen := map[string]bool{}

	r := newTestRouter(Deps{
		List: listFunc(func(_ context.Context, sub models.Subscription) error {
			if seen[sub.Email] {
				return &mailchimp.APIError{Code: mailchimp.CodeMemberExists, Status: 400, Title: "Member Exists"}
			}
			seen[sub.Email] = true
			return nil
		}),
	})

	code, body := subscribe(t, r, `{"email":"new@example.com"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Successfully subscribed!", body["message"])

	code, body = subscribe(t, r, `{"email":"new@example.com"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "You're already subscribed!", body["message"])

	// A case variant of the same address is the same subscriber.
	code, body = subscribe(t, r, `{"email":"  NEW@Example.com "}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "You're already subscribed!", body["message"])
}
