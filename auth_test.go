package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestAuthenticateMiddleware(t *testing.T) {
	var gotUserID int
	handler := authenticate(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = r.Context().Value(userIDKey).(int)
		w.WriteHeader(http.StatusOK)
	})

	// Valid token
	req := httptest.NewRequest(http.MethodGet, "/feed", nil)
	req.Header.Set("Authorization", "Bearer "+makeToken(t, 42))
	w := httptest.NewRecorder()
	handler(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 with valid token, got %d", w.Code)
	}
	if gotUserID != 42 {
		t.Errorf("Expected user ID 42 in context, got %d", gotUserID)
	}

	// Missing header
	req = httptest.NewRequest(http.MethodGet, "/feed", nil)
	w = httptest.NewRecorder()
	handler(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", w.Code)
	}

	// Malformed token
	req = httptest.NewRequest(http.MethodGet, "/feed", nil)
	req.Header.Set("Authorization", "Bearer not.a.jwt")
	w = httptest.NewRecorder()
	handler(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for malformed token, got %d", w.Code)
	}

	// Token signed with the wrong secret
	wrong := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 42,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, _ := wrong.SignedString([]byte("someone-elses-secret"))
	req = httptest.NewRequest(http.MethodGet, "/feed", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	w = httptest.NewRecorder()
	handler(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for wrong signature, got %d", w.Code)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 42,
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})
	signed, _ := expired.SignedString(jwtSecret)

	if _, ok := parseUserIDFromJWT(signed); ok {
		t.Error("Expected expired token to be rejected")
	}
}

func TestGetUserIDFromRequestQueryFallback(t *testing.T) {
	// WebSocket clients can't set headers, so the token rides a query
	// param.
	req := httptest.NewRequest(http.MethodGet, "/ws/events?token="+makeToken(t, 7), nil)
	id, ok := getUserIDFromRequest(req)
	if !ok || id != 7 {
		t.Errorf("Expected user 7 from query token, got (%d, %v)", id, ok)
	}

	// Header wins over query when both are present.
	req = httptest.NewRequest(http.MethodGet, "/ws/events?token="+makeToken(t, 7), nil)
	req.Header.Set("Authorization", "Bearer "+makeToken(t, 9))
	id, ok = getUserIDFromRequest(req)
	if !ok || id != 9 {
		t.Errorf("Expected header token to win, got (%d, %v)", id, ok)
	}

	req = httptest.NewRequest(http.MethodGet, "/ws/events", nil)
	if _, ok := getUserIDFromRequest(req); ok {
		t.Error("Expected no user without any token")
	}
}
