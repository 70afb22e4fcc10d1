package host

import (
	"errors"
	"sync"
	"testing"

	"github.com/rbaliyan/secretstore"
)

// install replaces the process-wide store for one test.
func install(t *testing.T, opts ...secretstore.Option) {
	t.Helper()
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	p, err := secretstore.NewStaticKeyProvider(key, "host-key")
	if err != nil {
		t.Fatal(err)
	}
	s, err := secretstore.New(p, opts...)
	if err != nil {
		t.Fatal(err)
	}
	current.Store(nil)
	if err := Init(s); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		current.Store(nil)
		p.Destroy()
	})
}

func installDefault(t *testing.T) {
	install(t,
		secretstore.WithPlaintextSecret("S1", []byte("hunter2")),
		secretstore.WithPlaintextSecret(CredentialUserID, []byte("admin")),
		secretstore.WithPlaintextSecret(CredentialPasswordID, []byte("s3cret!")),
	)
}

func TestNotInitialized(t *testing.T) {
	current.Store(nil)

	if _, err := GetSecretLength("S1"); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("GetSecretLength: expected ErrNotInitialized, got %v", err)
	}
	if err := DecryptSecret("S1", make([]byte, 8)); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("DecryptSecret: expected ErrNotInitialized, got %v", err)
	}
	if err := DecryptSecretUTF16("S1", make([]uint16, 8)); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("DecryptSecretUTF16: expected ErrNotInitialized, got %v", err)
	}
	if VerifySecret([]byte("hunter2"), "S1") {
		t.Error("VerifySecret: want false")
	}
	if VerifySecretUTF16([]uint16{'h'}, "S1") {
		t.Error("VerifySecretUTF16: want false")
	}
	if CheckCredentials([]byte("admin"), []byte("s3cret!")) {
		t.Error("CheckCredentials: want false")
	}
	if CheckCredentialsUTF16(utf16("admin"), utf16("s3cret!")) {
		t.Error("CheckCredentialsUTF16: want false")
	}
}

func TestInitOnce(t *testing.T) {
	installDefault(t)

	p, err := secretstore.NewStaticKeyProvider(make([]byte, 32), "other")
	if err != nil {
		t.Fatal(err)
	}
	defer p.Destroy()
	s, err := secretstore.New(p)
	if err != nil {
		t.Fatal(err)
	}
	if err := Init(s); !errors.Is(err, ErrAlreadyInitialized) {
		t.Errorf("second Init: expected ErrAlreadyInitialized, got %v", err)
	}
	if err := Init(nil); err == nil {
		t.Error("Init(nil): expected error")
	}
}

func TestGetSecretLength(t *testing.T) {
	installDefault(t)

	n, err := GetSecretLength("S1")
	if err != nil || n != 7 {
		t.Errorf("GetSecretLength(S1): got %d, %v", n, err)
	}
	if _, err := GetSecretLength("missing"); !secretstore.IsNotFound(err) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDecryptSecret(t *testing.T) {
	installDefault(t)

	dst := []byte("..........")
	if err := DecryptSecret("S1", dst); err != nil {
		t.Fatal(err)
	}
	if string(dst) != "hunter2..." {
		t.Errorf("DecryptSecret: got %q", dst)
	}

	short := []byte("abc")
	if err := DecryptSecret("S1", short); !secretstore.IsBufferTooSmall(err) {
		t.Errorf("expected ErrBufferTooSmall, got %v", err)
	}
	if string(short) != "abc" {
		t.Errorf("short buffer modified: %q", short)
	}

	WipeBuffer(dst)
	for i, b := range dst {
		if b != 0 {
			t.Fatalf("byte %d not wiped", i)
		}
	}
}

func TestVerifySecret(t *testing.T) {
	installDefault(t)

	if !VerifySecret([]byte("hunter2"), "S1") {
		t.Error("VerifySecret(hunter2): want true")
	}
	if VerifySecret([]byte("hunter3"), "S1") {
		t.Error("VerifySecret(hunter3): want false")
	}
	if VerifySecret([]byte("hunter2"), "missing") {
		t.Error("VerifySecret(unknown ID): want false")
	}
}

func TestCheckCredentials(t *testing.T) {
	installDefault(t)

	tests := []struct {
		user, password string
		want           bool
	}{
		{"admin", "s3cret!", true},
		{"admin", "wrong", false},
		{"root", "s3cret!", false},
		{"", "", false},
	}
	for _, tt := range tests {
		if got := CheckCredentials([]byte(tt.user), []byte(tt.password)); got != tt.want {
			t.Errorf("CheckCredentials(%q, %q) = %v, want %v", tt.user, tt.password, got, tt.want)
		}
	}
}

func TestCheckCredentialsMissingSecrets(t *testing.T) {
	install(t, secretstore.WithPlaintextSecret(CredentialUserID, []byte("admin")))

	if CheckCredentials([]byte("admin"), []byte("anything")) {
		t.Error("CheckCredentials without a password secret: want false")
	}
}

func TestConcurrentEntryPoints(t *testing.T) {
	installDefault(t)

	var wg sync.WaitGroup
	failures := make(chan string, 150)
	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			if !VerifySecret([]byte("hunter2"), "S1") {
				failures <- "VerifySecret"
			}
		}()
		go func() {
			defer wg.Done()
			dst := make([]byte, 7)
			if err := DecryptSecret("S1", dst); err != nil || string(dst) != "hunter2" {
				failures <- "DecryptSecret"
			}
		}()
		go func() {
			defer wg.Done()
			if !CheckCredentials([]byte("admin"), []byte("s3cret!")) {
				failures <- "CheckCredentials"
			}
		}()
	}
	wg.Wait()
	close(failures)
	for f := range failures {
		t.Errorf("%s failed under concurrency", f)
	}
}
