package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokenRoundTrip(t *testing.T) {
	SetSecret(testSecret)

	token, err := GenerateToken(7, "ana", "seller")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.SellerID != 7 || claims.Username != "ana" || claims.Role != "seller" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestValidateTokenRejects(t *testing.T) {
	SetSecret(testSecret)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		SellerID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	expiredToken, _ := expired.SignedString([]byte(testSecret))

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{SellerID: 1, Role: "admin"})
	forgedToken, _ := forged.SignedString([]byte("some-other-secret-of-enough-length!"))

	tests := map[string]string{
		"expired": expiredToken,
		"forged":  forgedToken,
		"garbage": "not.a.token",
		"empty":   "",
	}
	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ValidateToken(tok); err == nil {
				t.Error("ValidateToken() should fail")
			}
		})
	}
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if !CheckPassword(hash, "s3cret") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hash, "S3cret") {
		t.Error("wrong password accepted")
	}
}
