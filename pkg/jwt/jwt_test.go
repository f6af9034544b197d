package jwt

import (
	"testing"
	"time"

	"medibook/config"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func newService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:        "test-secret",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: time.Hour,
	})
}

func TestGenerateAndValidate(t *testing.T) {
	svc := newService()
	sub := Subject{UserID: uuid.New(), Username: "ana@email.com", Role: "PATIENT"}

	token, id, err := svc.GenerateAccessToken(sub)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != sub.UserID || claims.Role != "PATIENT" || claims.Username != sub.Username {
		t.Errorf("claims = %+v", claims)
	}
	if claims.TokenType != AccessToken || claims.TokenID != id {
		t.Errorf("token type/id = %s/%s, want access/%s", claims.TokenType, claims.TokenID, id)
	}

	refresh, _, err := svc.GenerateRefreshToken(sub)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	rc, err := svc.ValidateToken(refresh)
	if err != nil || rc.TokenType != RefreshToken {
		t.Errorf("refresh claims = %+v, %v", rc, err)
	}
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	svc := newService()
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _, err := svc.GenerateAccessToken(Subject{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	svc.now = time.Now
	if _, err := svc.ValidateToken(token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestValidateRejectsForeignSecret(t *testing.T) {
	other := NewJWTService(config.JWTConfig{Secret: "other", AccessExpiry: time.Minute})
	token, _, _ := other.GenerateAccessToken(Subject{UserID: uuid.New()})

	if _, err := newService().ValidateToken(token); err == nil {
		t.Fatal("expected signature mismatch")
	}
}

func TestValidateRejectsOtherAlgorithm(t *testing.T) {
	claims := Claims{UserID: uuid.New(), TokenType: AccessToken}
	token := gojwt.NewWithClaims(gojwt.SigningMethodHS512, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := newService().ValidateToken(signed); err == nil {
		t.Fatal("expected HS512 token to be rejected")
	}
}
