package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCreateAndVerifyToken(t *testing.T) {
	cfg := TokenConfig{Secret: "secret", Expiry: time.Hour, Issuer: "test"}
	tok, err := CreateToken("user-1", AccessAdmin, cfg)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	claims, err := VerifyToken(tok, cfg)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Fatalf("expected user-1, got %q", claims.UserID)
	}
	if claims.AccessLevel != AccessAdmin {
		t.Fatalf("expected admin, got %q", claims.AccessLevel)
	}
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	cfg := TokenConfig{Secret: "secret", Expiry: time.Hour, Issuer: "test"}
	tok, err := CreateToken("user-1", "", cfg)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	_, err = VerifyToken(tok, TokenConfig{Secret: "wrong", Expiry: time.Hour, Issuer: "test"})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestCreateToken_InvalidExpiry(t *testing.T) {
	cfg := TokenConfig{Secret: "secret", Expiry: -time.Second, Issuer: "test"}
	_, err := CreateToken("user-1", "", cfg)
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestDecoder_Decode(t *testing.T) {
	cfg := TokenConfig{Secret: "secret", Expiry: time.Hour, Issuer: "test"}
	userID := uuid.NewString()
	tok, err := CreateToken(userID, "", cfg)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	id, err := NewDecoder(cfg).Decode(tok)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if id.UserID != userID || id.AccessLevel != AccessUser || id.IsAdmin() {
		t.Fatalf("unexpected identity %+v", id)
	}
}

func TestDecoder_RejectsNonUUIDSubject(t *testing.T) {
	cfg := TokenConfig{Secret: "secret", Expiry: time.Hour, Issuer: "test"}
	tok, err := CreateToken("not-a-uuid", "", cfg)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	if _, err := NewDecoder(cfg).Decode(tok); !errors.Is(err, ErrInvalidSubject) {
		t.Fatalf("expected ErrInvalidSubject, got %v", err)
	}
}

func TestDecoder_RejectsGarbage(t *testing.T) {
	dec := NewDecoder(TokenConfig{Secret: "secret", Expiry: time.Hour})
	if _, err := dec.Decode("not.a.jwt"); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := dec.Decode(""); err == nil {
		t.Fatalf("expected error")
	}
}
