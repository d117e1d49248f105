package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	PasswordCost = bcrypt.MinCost
}

func TestComputeHMAC256(t *testing.T) {
	tests := []struct {
		name      string
		toSign    []byte
		secretKey string
	}{
		{"Basic HMAC test", []byte("test data"), "secret key"},
		{"Empty data", []byte(""), "secret key"},
		{"Empty key", []byte("test data"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeHMAC256(tt.toSign, tt.secretKey)
			assert.Len(t, got, 64)
			assert.Equal(t, got, ComputeHMAC256(tt.toSign, tt.secretKey))
		})
	}
}

func TestHashPasswordAndCheck(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)

	assert.True(t, CheckPasswordHash("s3cret-pass", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
	assert.False(t, CheckPasswordHash("s3cret-pass", "not-a-hash"))
}

func TestGenerateRandomToken(t *testing.T) {
	a, err := GenerateRandomToken(32)
	require.NoError(t, err)
	b, err := GenerateRandomToken(32)
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}

func TestHashAndVerifyToken(t *testing.T) {
	hash := HashToken("reset-token", "key")
	assert.Len(t, hash, 64)
	assert.NotContains(t, hash, "reset-token")

	assert.True(t, VerifyToken("reset-token", hash, "key"))
	assert.False(t, VerifyToken("reset-token", hash, "other-key"))
	assert.False(t, VerifyToken("other-token", hash, "key"))
}

func TestEncryptStringAndDecrypt(t *testing.T) {
	tests := []struct {
		name       string
		plaintext  string
		passphrase string
	}{
		{"api key", "sk-test-1234567890", "passphrase"},
		{"empty string", "", "passphrase"},
		{"unicode", "clé secrète ✓", "another"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encrypted, err := EncryptString(tt.plaintext, tt.passphrase)
			require.NoError(t, err)
			assert.NotEqual(t, tt.plaintext, encrypted)

			decrypted, err := DecryptFromHexString(encrypted, tt.passphrase)
			require.NoError(t, err)
			assert.Equal(t, tt.plaintext, decrypted)
		})
	}
}

func TestEncryptString_UsesFreshNonce(t *testing.T) {
	a, err := EncryptString("same", "pass")
	require.NoError(t, err)
	b, err := EncryptString("same", "pass")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDecryptFromHexString_Errors(t *testing.T) {
	encrypted, err := EncryptString("value", "right")
	require.NoError(t, err)

	tests := []struct {
		name       string
		input      string
		passphrase string
		errPart    string
	}{
		{"empty", "", "right", "empty string"},
		{"not hex", "zz-not-hex", "right", "decode error"},
		{"too short", "abcd", "right", "too short"},
		{"wrong passphrase", encrypted, "wrong", "decrypt error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecryptFromHexString(tt.input, tt.passphrase)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errPart)
		})
	}
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", MaskSecret(""))
	assert.Equal(t, MaskPrefix, MaskSecret("short"))
	assert.Equal(t, MaskPrefix+"cdef", MaskSecret("sk-0123456789abcdef"))

	assert.True(t, IsMasked(MaskSecret("sk-0123456789abcdef")))
	assert.False(t, IsMasked("sk-0123456789abcdef"))
	assert.False(t, strings.HasPrefix(MaskSecret(""), MaskPrefix))
}
