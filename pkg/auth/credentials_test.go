package auth

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestCredentialManager(t *testing.T) {
	manager, mockStore := NewMockManager()

	account := &Account{
		Name:      "work",
		JST:       "jst_session_value_12345",
		MST:       "mst_master_value_67890",
		UserAgent: "TestAgent/1.0",
	}

	if err := manager.Store(account); err != nil {
		t.Fatalf("Failed to store account: %v", err)
	}
	if account.LastModified.IsZero() {
		t.Error("Store should stamp LastModified")
	}

	retrieved, err := manager.Retrieve("work")
	if err != nil {
		t.Fatalf("Failed to retrieve account: %v", err)
	}
	if retrieved.JST != account.JST || retrieved.MST != account.MST {
		t.Errorf("Token mismatch: got %+v, want %+v", retrieved, account)
	}

	accounts, err := manager.List()
	if err != nil {
		t.Fatalf("Failed to list accounts: %v", err)
	}
	if len(accounts) != 1 {
		t.Errorf("Expected 1 account, got %d", len(accounts))
	}

	if err := manager.Delete("work"); err != nil {
		t.Errorf("Failed to delete account: %v", err)
	}
	if _, err := manager.Retrieve("work"); !errors.Is(err, ErrCredentialsNotFound) {
		t.Errorf("Expected ErrCredentialsNotFound, got %v", err)
	}
	if mockStore.Count() != 0 {
		t.Errorf("Expected 0 accounts after deletion, got %d", mockStore.Count())
	}
}

func TestManagerRejectsIncompleteAccounts(t *testing.T) {
	manager, _ := NewMockManager()

	tests := []struct {
		name    string
		account *Account
	}{
		{"nil account", nil},
		{"missing name", &Account{JST: "j", MST: "m"}},
		{"missing jst", &Account{Name: "a", MST: "m"}},
		{"missing mst", &Account{Name: "a", JST: "j"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := manager.Store(tt.account); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestManagerFallsBackToNextStore(t *testing.T) {
	broken := NewMockStore()
	broken.StoreError = errors.New("keychain locked")
	working := NewMockStore()

	manager := NewManagerWithStores(broken, working)
	if err := manager.Store(&Account{Name: "a", JST: "j", MST: "m"}); err != nil {
		t.Fatalf("Store should fall back: %v", err)
	}
	if !working.Exists("a") {
		t.Error("Expected account in fallback store")
	}

	working.StoreError = errors.New("disk full")
	err := manager.Store(&Account{Name: "b", JST: "j", MST: "m"})
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("Expected last store error, got %v", err)
	}
}

func TestManagerListPrefersNewest(t *testing.T) {
	older := NewMockStore()
	newer := NewMockStore()
	now := time.Now()

	_ = older.Store(&Account{Name: "a", JST: "old", MST: "m", LastModified: now.Add(-time.Hour)})
	_ = newer.Store(&Account{Name: "a", JST: "new", MST: "m", LastModified: now})
	_ = older.Store(&Account{Name: "b", JST: "b", MST: "m", LastModified: now.Add(-2 * time.Hour)})

	accounts, err := NewManagerWithStores(older, newer).List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("Expected 2 accounts, got %d", len(accounts))
	}
	if accounts[0].Name != "a" || accounts[0].JST != "new" {
		t.Errorf("Expected newest copy of a first, got %+v", accounts[0])
	}
}

func TestRetrieveDefault(t *testing.T) {
	t.Setenv(EnvJST, "")
	t.Setenv(EnvMST, "")

	store := NewMockStore()
	manager := NewManagerWithStores(store, NewEnvironmentStore())

	if _, err := manager.RetrieveDefault(); !errors.Is(err, ErrCredentialsNotFound) {
		t.Errorf("Expected ErrCredentialsNotFound, got %v", err)
	}

	_ = store.Store(&Account{Name: "other", JST: "j1", MST: "m1", LastModified: time.Now()})
	account, err := manager.RetrieveDefault()
	if err != nil || account.Name != "other" {
		t.Errorf("Expected only stored account, got %+v, %v", account, err)
	}

	_ = store.Store(&Account{Name: DefaultAccount, JST: "j2", MST: "m2"})
	account, err = manager.RetrieveDefault()
	if err != nil || account.Name != DefaultAccount {
		t.Errorf("Expected default account, got %+v, %v", account, err)
	}

	t.Setenv(EnvJST, "env-jst")
	t.Setenv(EnvMST, "env-mst")
	account, err = manager.RetrieveDefault()
	if err != nil || account.JST != "env-jst" {
		t.Errorf("Expected environment session, got %+v, %v", account, err)
	}
}

func TestManagerDeleteMissing(t *testing.T) {
	manager := NewManagerWithStores(NewMockStore(), NewEnvironmentStore())
	if err := manager.Delete("ghost"); !errors.Is(err, ErrCredentialsNotFound) {
		t.Errorf("Expected ErrCredentialsNotFound, got %v", err)
	}
}

func TestEncryptedFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sessions.enc")

	store, err := NewEncryptedFileStoreWithPassphrase(path, "correct horse battery staple")
	if err != nil {
		t.Fatalf("Failed to create encrypted store: %v", err)
	}

	account := &Account{
		Name:         "work",
		JST:          "jst_token_value",
		MST:          "mst_token_value",
		LastModified: time.Now().Truncate(time.Second),
	}
	if err := store.Store(account); err != nil {
		t.Fatalf("Failed to store account: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read vault: %v", err)
	}
	if strings.Contains(string(content), "mst_token_value") {
		t.Error("Vault must not contain plaintext tokens")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Failed to stat vault: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected 0600 permissions, got %v", info.Mode().Perm())
	}

	reopened, _ := NewEncryptedFileStoreWithPassphrase(path, "correct horse battery staple")
	retrieved, err := reopened.Retrieve("work")
	if err != nil {
		t.Fatalf("Failed to retrieve account: %v", err)
	}
	if retrieved.MST != account.MST || !retrieved.LastModified.Equal(account.LastModified) {
		t.Errorf("Round trip mismatch: got %+v, want %+v", retrieved, account)
	}

	wrong, _ := NewEncryptedFileStoreWithPassphrase(path, "wrong passphrase")
	if _, err := wrong.Retrieve("work"); err == nil {
		t.Error("Expected decryption failure with wrong passphrase")
	}

	if err := store.Delete("work"); err != nil {
		t.Fatalf("Failed to delete account: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Vault should be removed with the last account")
	}
	if _, err := store.Retrieve("work"); !errors.Is(err, ErrCredentialsNotFound) {
		t.Errorf("Expected ErrCredentialsNotFound, got %v", err)
	}
}

func TestEncryptedFileStoreMultipleAccounts(t *testing.T) {
	t.Setenv(EnvPassphrase, "from-env")
	store, err := NewEncryptedFileStore(filepath.Join(t.TempDir(), "sessions.enc"))
	if err != nil {
		t.Fatalf("Failed to create encrypted store: %v", err)
	}

	for _, name := range []string{"a", "b", "c"} {
		if err := store.Store(&Account{Name: name, JST: "j-" + name, MST: "m-" + name}); err != nil {
			t.Fatalf("Failed to store %s: %v", name, err)
		}
	}

	accounts, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(accounts) != 3 {
		t.Errorf("Expected 3 accounts, got %d", len(accounts))
	}
	if !store.Exists("b") || store.Exists("d") {
		t.Error("Exists reported wrong state")
	}

	if _, err := NewEncryptedFileStoreWithPassphrase("x.enc", ""); err == nil {
		t.Error("Expected error for empty passphrase")
	}
}

func TestEnvironmentStore(t *testing.T) {
	store := NewEnvironmentStore()

	t.Setenv(EnvJST, "")
	t.Setenv(EnvMST, "")
	if store.Exists("") {
		t.Error("Expected no environment credentials")
	}
	accounts, _ := store.List()
	if len(accounts) != 0 {
		t.Errorf("Expected no accounts, got %d", len(accounts))
	}

	t.Setenv(EnvJST, "env-jst")
	t.Setenv(EnvMST, "env-mst")
	t.Setenv(EnvUserAgent, "EnvAgent/2.0")

	account, err := store.Retrieve("")
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if account.Name != DefaultAccount || account.UserAgent != "EnvAgent/2.0" {
		t.Errorf("Unexpected account: %+v", account)
	}
	if err := store.Store(account); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Expected ErrStoreUnavailable, got %v", err)
	}
}

func TestSanitizeAccount(t *testing.T) {
	account := &Account{Name: "work", JST: "abcdefghijklmnop", MST: "short"}

	sanitized := SanitizeAccount(account)
	if sanitized.JST != "abcd...mnop" {
		t.Errorf("Unexpected JST mask: %s", sanitized.JST)
	}
	if sanitized.MST != "********" {
		t.Errorf("Unexpected MST mask: %s", sanitized.MST)
	}
	if sanitized.Name != account.Name {
		t.Error("Name should not be masked")
	}
	if SanitizeAccount(nil) != nil {
		t.Error("Expected nil for nil account")
	}
}

func TestWriteTokenGuide(t *testing.T) {
	var b strings.Builder
	WriteTokenGuide(&b)
	WriteQuickGuide(&b)

	for _, want := range []string{"jst", "mst", "Cookies"} {
		if !strings.Contains(b.String(), want) {
			t.Errorf("Guide should mention %q", want)
		}
	}
}
