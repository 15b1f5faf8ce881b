package crypto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecrypt(t *testing.T) {
	plaintext := []byte(`{"grossPay":"50000.00","netPay":"38000.00"}`)

	sealed, err := Encrypt(plaintext, "correct horse")
	require.NoError(t, err)
	assert.Equal(t, saltLen+nonceLen+tagLen+len(plaintext), len(sealed))

	opened, err := Decrypt(sealed, "correct horse")
	require.NoError(t, err)
	assert.Equal(t, plaintext, opened)
}

func TestEncrypt_FreshSaltPerMessage(t *testing.T) {
	a, err := Encrypt([]byte("same payslip"), "s3cret")
	require.NoError(t, err)
	b, err := Encrypt([]byte("same payslip"), "s3cret")
	require.NoError(t, err)
	assert.False(t, bytes.Equal(a, b))
}

func TestDecrypt_WrongPassphrase(t *testing.T) {
	sealed, err := Encrypt([]byte("payload"), "right")
	require.NoError(t, err)

	_, err = Decrypt(sealed, "wrong")
	assert.Error(t, err)
}

func TestDecrypt_TamperedCiphertext(t *testing.T) {
	sealed, err := Encrypt([]byte("payload"), "s3cret")
	require.NoError(t, err)

	sealed[len(sealed)-1] ^= 0xff
	_, err = Decrypt(sealed, "s3cret")
	assert.Error(t, err)
}

func TestDecrypt_Truncated(t *testing.T) {
	_, err := Decrypt([]byte("too short"), "s3cret")
	assert.Error(t, err)
}
