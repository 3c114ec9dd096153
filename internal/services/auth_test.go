package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/learnloop/learnloop-backend/internal/data/repos"
	"github.com/learnloop/learnloop-backend/internal/data/repos/testutil"
	"github.com/learnloop/learnloop-backend/internal/pkg/dbctx"
	apperrors "github.com/learnloop/learnloop-backend/internal/pkg/errors"
)

func newAuthService(t *testing.T, tx *gorm.DB) AuthService {
	t.Helper()
	log := testutil.Logger(t)
	return NewAuthService(tx, log,
		repos.NewUserRepo(tx, log),
		repos.NewUserSettingsRepo(tx, log),
		"test-secret", time.Hour)
}

func TestRegisterLoginVerify(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	svc := newAuthService(t, tx)
	settingsRepo := repos.NewUserSettingsRepo(tx, testutil.Logger(t))

	user, err := svc.Register(ctx, "Learner@Example.com", "hunter22", "Sam", "Lee")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "learner@example.com" {
		t.Errorf("Email = %q, want lowercased", user.Email)
	}
	if user.Password == "hunter22" {
		t.Error("password stored in plaintext")
	}

	settings, err := settingsRepo.GetByUserID(dbctx.New(ctx), user.ID)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if settings == nil {
		t.Fatal("default settings not provisioned on signup")
	}
	if settings.DigestHour != 9 || !settings.DigestEnabled {
		t.Errorf("settings = %+v, want digest defaults", settings)
	}

	token, loggedIn, err := svc.Login(ctx, "learner@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if loggedIn.ID != user.ID {
		t.Error("login returned a different user")
	}

	userID, err := svc.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if userID != user.ID {
		t.Errorf("VerifyToken user = %s, want %s", userID, user.ID)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	svc := newAuthService(t, tx)

	if _, err := svc.Register(ctx, "dup@example.com", "pw123456", "", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Register(ctx, "dup@example.com", "pw123456", "", ""); !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Fatalf("duplicate register err = %v, want ErrInvalidArgument", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	svc := newAuthService(t, tx)

	if _, err := svc.Register(ctx, "wrongpw@example.com", "correct-pw", "", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, _, err := svc.Login(ctx, "wrongpw@example.com", "bad-pw"); !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Fatalf("Login err = %v, want ErrUnauthorized", err)
	}
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	svc := newAuthService(t, tx)

	if _, err := svc.VerifyToken("not.a.token"); !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Fatalf("VerifyToken err = %v, want ErrUnauthorized", err)
	}
}
