package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/KasumiMercury/patotta-stone-function-revenue/internal/store"
)

type fakeCredentials struct {
	tokens map[string]string
	err    error
}

func (f *fakeCredentials) GetRefreshToken(_ context.Context, channelID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	tok, ok := f.tokens[channelID]
	if !ok {
		return "", store.ErrNotFound
	}
	return tok, nil
}

func (f *fakeCredentials) SaveRefreshToken(_ context.Context, channelID, refreshToken string) error {
	if f.tokens == nil {
		f.tokens = map[string]string{}
	}
	f.tokens[channelID] = refreshToken
	return nil
}

func tokenServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm() error = %v", err)
		}
		if got := r.PostForm.Get("grant_type"); got != "refresh_token" {
			t.Errorf("grant_type = %q, want refresh_token", got)
		}
		if got := r.PostForm.Get("refresh_token"); got != "stored-refresh" {
			t.Errorf("refresh_token = %q, want stored-refresh", got)
		}
		if got := r.PostForm.Get("client_id"); got != "client" {
			t.Errorf("client_id = %q, want client", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRefresh_Success(t *testing.T) {
	srv := tokenServer(t, http.StatusOK, `{"access_token":"fresh-access","token_type":"Bearer","expires_in":3599}`)
	creds := &fakeCredentials{tokens: map[string]string{"ch1": "stored-refresh"}}
	b := NewBroker(creds, "client", "secret", srv.URL)

	tok, err := b.Refresh(context.Background(), "ch1")
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if tok.AccessToken != "fresh-access" {
		t.Errorf("AccessToken = %q, want fresh-access", tok.AccessToken)
	}
}

func TestRefresh_InvalidGrant(t *testing.T) {
	srv := tokenServer(t, http.StatusBadRequest, `{"error":"invalid_grant","error_description":"Token has been expired or revoked."}`)
	creds := &fakeCredentials{tokens: map[string]string{"ch1": "stored-refresh"}}
	b := NewBroker(creds, "client", "secret", srv.URL)

	_, err := b.Refresh(context.Background(), "ch1")

	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("Refresh() error = %v, want *AuthError", err)
	}
	if authErr.Code != "invalid_grant" {
		t.Errorf("Code = %q, want invalid_grant", authErr.Code)
	}
	if authErr.ChannelID != "ch1" {
		t.Errorf("ChannelID = %q, want ch1", authErr.ChannelID)
	}
}

func TestRefresh_MissingCredential(t *testing.T) {
	b := NewBroker(&fakeCredentials{}, "client", "secret", "http://127.0.0.1:0/token")

	_, err := b.Refresh(context.Background(), "unknown")

	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("Refresh() error = %v, want *AuthError", err)
	}
	if !errors.Is(err, ErrCredentialNotFound) {
		t.Errorf("Refresh() error = %v, want ErrCredentialNotFound", err)
	}
}

func TestRefresh_StoreFailureIsNotAuthError(t *testing.T) {
	b := NewBroker(&fakeCredentials{err: errors.New("connection refused")}, "client", "secret", "")

	_, err := b.Refresh(context.Background(), "ch1")

	var authErr *AuthError
	if err == nil || errors.As(err, &authErr) {
		t.Fatalf("Refresh() error = %v, want plain store error", err)
	}
}

func TestRefresh_UnreachableEndpointIsNotAuthError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	tokenURL := srv.URL + "/token"
	srv.Close()
	creds := &fakeCredentials{tokens: map[string]string{"ch1": "stored-refresh"}}
	b := NewBroker(creds, "client", "secret", tokenURL)

	_, err := b.Refresh(context.Background(), "ch1")

	var authErr *AuthError
	if err == nil || errors.As(err, &authErr) {
		t.Fatalf("Refresh() error = %v, want transport error", err)
	}
}

func TestSaveCredential(t *testing.T) {
	creds := &fakeCredentials{}
	b := NewBroker(creds, "client", "secret", "")

	if err := b.SaveCredential(context.Background(), "ch1", "refresh"); err != nil {
		t.Fatalf("SaveCredential() error = %v", err)
	}
	if creds.tokens["ch1"] != "refresh" {
		t.Errorf("stored token = %q, want refresh", creds.tokens["ch1"])
	}
	if err := b.SaveCredential(context.Background(), "", "refresh"); err == nil {
		t.Error("SaveCredential(empty channel) error = nil, want error")
	}
}
