package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/socialnet-app/socialnet/internal/auth"
	"github.com/socialnet-app/socialnet/internal/handler"
	"github.com/socialnet-app/socialnet/internal/model"
	sqliteRepo "github.com/socialnet-app/socialnet/internal/repository/sqlite"
	"github.com/socialnet-app/socialnet/internal/service"
)

// fixture wires real services over an in-memory database, so handler tests
// cover the full stack below the router.
type fixture struct {
	db       *sqliteRepo.DB
	sessions *auth.SessionManager

	authSvc *service.AuthService

	auth          *handler.AuthHandler
	posts         *handler.PostHandler
	profiles      *handler.ProfileHandler
	notifications *handler.NotificationHandler
	messages      *handler.MessageHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := sqliteRepo.New(":memory:")
	if err != nil {
		t.Fatalf("opening in-memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := auth.NewSessionManager(db)

	authSvc := service.NewAuthService(db, auth.NewPasswordServiceForTest(4), logger)
	postSvc := service.NewPostService(db, db, db, logger)
	engagementSvc := service.NewEngagementService(db, db, db, db, db, logger)
	profileSvc := service.NewProfileService(db, db, db, logger)
	notificationSvc := service.NewNotificationService(db, logger)
	messageSvc := service.NewMessageService(db, db, db, logger)

	images, err := handler.NewImageStore(t.TempDir())
	if err != nil {
		t.Fatalf("creating image store: %v", err)
	}

	return &fixture{
		db:            db,
		sessions:      sessions,
		authSvc:       authSvc,
		auth:          handler.NewAuthHandler(authSvc, sessions, nil, nil, logger),
		posts:         handler.NewPostHandler(postSvc, engagementSvc, images, logger),
		profiles:      handler.NewProfileHandler(profileSvc, postSvc, logger),
		notifications: handler.NewNotificationHandler(notificationSvc, logger),
		messages:      handler.NewMessageHandler(messageSvc, logger),
	}
}

// register creates a user through the real registration path.
func (f *fixture) register(t *testing.T, username string) *model.User {
	t.Helper()
	user, err := f.authSvc.Register(context.Background(),
		"Test "+username, username, username+"@example.com", "password123")
	if err != nil {
		t.Fatalf("registering %s: %v", username, err)
	}
	return user
}

// jsonRequest builds a request with a JSON body and, when userID is
// non-empty, an authenticated context.
func jsonRequest(method, target, userID string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req = req.WithContext(auth.ContextWithUserID(req.Context(), userID))
	}
	return req
}

// decodeBody unmarshals a recorded JSON response.
func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(dst); err != nil {
		t.Fatalf("decoding response %q: %v", rr.Body.String(), err)
	}
}
