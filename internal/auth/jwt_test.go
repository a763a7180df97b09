// Vidstream - Video Streaming Backend and View Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidstream

package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tomtom215/vidstream/internal/config"
)

const testSecret = "k3Jx9QvT2mWb8ZrLp4NcY7dHs1GfA6eU"

func newTestManager(t *testing.T, issuer string) *JWTManager {
	t.Helper()
	m, err := NewJWTManager(&config.SecurityConfig{JWTSecret: testSecret, JWTIssuer: issuer, TokenTTL: time.Hour})
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	return m
}

func TestNewJWTManager(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.SecurityConfig
		wantErr bool
	}{
		{name: "valid secret", cfg: &config.SecurityConfig{JWTSecret: testSecret}},
		{name: "empty secret", cfg: &config.SecurityConfig{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager, err := NewJWTManager(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Error("NewJWTManager() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewJWTManager() unexpected error = %v", err)
			}
			if manager.ttl != time.Hour {
				t.Errorf("default ttl = %v, want 1h", manager.ttl)
			}
		})
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	m := newTestManager(t, "")
	want := Subject{ID: uuid.New(), Email: "ann@example.test", Name: "Ann", Role: "ADMIN"}

	token, err := m.GenerateToken(want)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	got, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if *got != want {
		t.Errorf("ValidateToken = %+v, want %+v", got, want)
	}
}

func signWith(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestValidateToken_Rejects(t *testing.T) {
	m := newTestManager(t, "https://idp.example.test")
	now := time.Now()
	good := func() *Claims {
		return &Claims{RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			Issuer:    "https://idp.example.test",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		}}
	}

	tests := []struct {
		name  string
		token func() string
	}{
		{"garbage", func() string { return "not.a.jwt" }},
		{"wrong secret", func() string {
			return signWith(t, jwt.SigningMethodHS256, []byte(strings.Repeat("x", 32)), good())
		}},
		{"alg none", func() string {
			return signWith(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, good())
		}},
		{"hs512", func() string {
			return signWith(t, jwt.SigningMethodHS512, []byte(testSecret), good())
		}},
		{"expired", func() string {
			c := good()
			c.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Minute))
			return signWith(t, jwt.SigningMethodHS256, []byte(testSecret), c)
		}},
		{"no expiry", func() string {
			c := good()
			c.ExpiresAt = nil
			return signWith(t, jwt.SigningMethodHS256, []byte(testSecret), c)
		}},
		{"wrong issuer", func() string {
			c := good()
			c.Issuer = "https://evil.example.test"
			return signWith(t, jwt.SigningMethodHS256, []byte(testSecret), c)
		}},
		{"non-uuid subject", func() string {
			c := good()
			c.Subject = "alice"
			return signWith(t, jwt.SigningMethodHS256, []byte(testSecret), c)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.ValidateToken(tt.token()); err == nil {
				t.Error("ValidateToken() accepted a bad token")
			}
		})
	}

	ok := signWith(t, jwt.SigningMethodHS256, []byte(testSecret), good())
	if _, err := m.ValidateToken(ok); err != nil {
		t.Errorf("control token rejected: %v", err)
	}
}

func TestParseAuthMode(t *testing.T) {
	for in, want := range map[string]AuthMode{"": AuthModeJWT, "jwt": AuthModeJWT, "none": AuthModeNone} {
		got, err := ParseAuthMode(in)
		if err != nil || got != want {
			t.Errorf("ParseAuthMode(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseAuthMode("basic"); err == nil {
		t.Error("ParseAuthMode(basic) should fail")
	}
}
