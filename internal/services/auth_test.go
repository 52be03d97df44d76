package services

import (
  "context"
  "testing"
  "time"

  "github.com/AjnasNB/guardchain-sub000/internal/repos"
  "github.com/AjnasNB/guardchain-sub000/internal/requestdata"
  "github.com/AjnasNB/guardchain-sub000/internal/types"
)

func newAuthForTest(t *testing.T, env *testEnv) AuthService {
  t.Helper()
  tokenRepo := repos.NewUserTokenRepo(env.db, env.log)
  return NewAuthService(env.db, env.log, env.userRepo, tokenRepo, "test-secret", 15*time.Minute, 24*time.Hour)
}

func registerForTest(t *testing.T, auth AuthService, email string) *types.User {
  t.Helper()
  user := &types.User{
    Email:     email,
    Password:  "s3cret-password",
    FirstName: "Pat",
    LastName:  "Holder",
  }
  if err := auth.RegisterUser(context.Background(), user); err != nil {
    t.Fatalf("register: %v", err)
  }
  return user
}

func TestRegisterAndLogin(t *testing.T) {
  env := newTestEnv(t)
  auth := newAuthForTest(t, env)
  user := registerForTest(t, auth, "pat@example.com")

  if user.Password == "s3cret-password" {
    t.Fatal("password stored in plaintext")
  }
  if user.VotingPower != 1 {
    t.Errorf("VotingPower = %v, want default 1", user.VotingPower)
  }

  access, refresh, err := auth.LoginUser(context.Background(), "pat@example.com", "s3cret-password")
  if err != nil {
    t.Fatalf("login: %v", err)
  }
  if access == "" || refresh == "" {
    t.Fatal("login returned empty tokens")
  }

  if _, _, err := auth.LoginUser(context.Background(), "pat@example.com", "wrong"); err == nil {
    t.Fatal("login with wrong password succeeded")
  }
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
  env := newTestEnv(t)
  auth := newAuthForTest(t, env)
  registerForTest(t, auth, "dup@example.com")

  err := auth.RegisterUser(context.Background(), &types.User{
    Email:     "dup@example.com",
    Password:  "another-password",
    FirstName: "Other",
    LastName:  "Holder",
  })
  if err == nil {
    t.Fatal("duplicate registration succeeded")
  }
}

func TestTokenRoundTripAndLogout(t *testing.T) {
  env := newTestEnv(t)
  auth := newAuthForTest(t, env)
  user := registerForTest(t, auth, "session@example.com")

  access, _, err := auth.LoginUser(context.Background(), "session@example.com", "s3cret-password")
  if err != nil {
    t.Fatalf("login: %v", err)
  }

  ctx, err := auth.SetContextFromToken(context.Background(), access)
  if err != nil {
    t.Fatalf("SetContextFromToken: %v", err)
  }
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID != user.ID {
    t.Fatalf("request data = %+v, want user %s", rd, user.ID)
  }

  newAccess, newRefresh, err := auth.RefreshUser(ctx)
  if err != nil {
    t.Fatalf("refresh: %v", err)
  }
  if newAccess == "" || newRefresh == "" {
    t.Fatal("refresh returned empty tokens")
  }

  ctx, err = auth.SetContextFromToken(context.Background(), newAccess)
  if err != nil {
    t.Fatalf("SetContextFromToken after refresh: %v", err)
  }
  if err := auth.LogoutUser(ctx); err != nil {
    t.Fatalf("logout: %v", err)
  }

  // The rotated refresh token is gone after logout.
  if _, _, err := auth.RefreshUser(requestdata.WithRequestData(context.Background(), &requestdata.RequestData{RefreshToken: newRefresh})); err == nil {
    t.Fatal("refresh succeeded after logout")
  }

  if _, err := auth.SetContextFromToken(context.Background(), "not-a-token"); err == nil {
    t.Fatal("malformed token accepted")
  }
}
