package service

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestSessionRoundTrip(t *testing.T) {
	s := NewAuthService("test-secret")

	sess, err := s.NewSession()
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	if !strings.HasPrefix(sess.PlayerID, "player_") || len(sess.PlayerID) != len("player_")+8 {
		t.Errorf("player id = %q", sess.PlayerID)
	}

	claims, err := s.ValidatePlayerToken(sess.Token)
	if err != nil {
		t.Fatalf("ValidatePlayerToken failed: %v", err)
	}
	if claims.PlayerID != sess.PlayerID {
		t.Errorf("claims player = %q, want %q", claims.PlayerID, sess.PlayerID)
	}
}

func TestValidatePlayerTokenRejects(t *testing.T) {
	s := NewAuthService("test-secret")
	sess, err := s.NewSession()
	if err != nil {
		t.Fatal(err)
	}

	other := NewAuthService("other-secret")
	if _, err := other.ValidatePlayerToken(sess.Token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("wrong secret: err = %v", err)
	}

	if _, err := s.ValidatePlayerToken("garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage: err = %v", err)
	}

	later := NewAuthService("test-secret")
	later.now = func() time.Time { return time.Now().Add(31 * 24 * time.Hour) }
	if _, err := later.ValidatePlayerToken(sess.Token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired: err = %v", err)
	}
}
