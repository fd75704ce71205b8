package format

import (
	"crypto/aes"
	"crypto/cipher"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	terr "github.com/provide-io/tiger/go/tiger/pkg/tiger/errors"
)

// sealBlock encrypts plaintext and returns the ciphertext plus a Block
// carrying the real tag.
func sealBlock(t *testing.T, key [KeySize]byte, nonce [NonceSize]byte, plaintext []byte, flags uint16) ([]byte, Block) {
	t.Helper()

	block, err := aes.NewCipher(key[:])
	require.NoError(t, err)
	aead, err := cipher.NewGCM(block)
	require.NoError(t, err)

	sealed := aead.Seal(nil, nonce[:], plaintext, nil)
	b := Block{Size: uint32(len(plaintext)), Flags: flags}
	copy(b.Tag[:], sealed[len(plaintext):])
	return sealed[:len(plaintext)], b
}

func TestBlockCipherDecrypt(t *testing.T) {
	logger := hclog.New(&hclog.LoggerOptions{Name: "crypto_test", Level: hclog.Trace})
	nonce := DeriveNonce(0x0932)
	plaintext := []byte("RIFF....WAVEfmt the quick brown fox jumps over the lazy dog")

	testCases := []struct {
		name   string
		key    [KeySize]byte
		flags  uint16
		policy TagPolicy
	}{
		{"primary_strict", PrimaryKey, BlockEncrypted, TagStrict},
		{"primary_permissive", PrimaryKey, BlockEncrypted, TagPermissive},
		{"alternate_strict", AlternateKey, BlockEncrypted | BlockAltKey, TagStrict},
		{"alternate_permissive", AlternateKey, BlockEncrypted | BlockAltKey, TagPermissive},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			bc, err := NewBlockCipher(nonce, tc.policy, logger)
			require.NoError(t, err)

			ciphertext, b := sealBlock(t, tc.key, nonce, plaintext, tc.flags)
			got, err := bc.Decrypt(b, ciphertext)
			require.NoError(t, err)
			assert.Equal(t, plaintext, got)
			assert.Zero(t, bc.TagMismatches())
			assert.Equal(t, tc.policy, bc.Policy())
		})
	}
}

func TestBlockCipherTagMismatch(t *testing.T) {
	nonce := DeriveNonce(0x0101)
	plaintext := make([]byte, 1000)
	for i := range plaintext {
		plaintext[i] = byte(i * 31)
	}

	ciphertext, b := sealBlock(t, PrimaryKey, nonce, plaintext, BlockEncrypted)
	b.Tag[0] ^= 0xFF

	t.Run("strict", func(t *testing.T) {
		bc, err := NewBlockCipher(nonce, TagStrict, nil)
		require.NoError(t, err)

		got, err := bc.Decrypt(b, ciphertext)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, terr.ErrTagMismatch)
		assert.Equal(t, terr.ExitCrypto, terr.ExitCode(err))
		assert.Equal(t, int64(1), bc.TagMismatches())
	})

	t.Run("permissive", func(t *testing.T) {
		bc, err := NewBlockCipher(nonce, TagPermissive, nil)
		require.NoError(t, err)

		got, err := bc.Decrypt(b, ciphertext)
		require.NoError(t, err)
		assert.Equal(t, plaintext, got)
		assert.Equal(t, int64(1), bc.TagMismatches())
	})

	t.Run("wrong_key_is_not_plaintext", func(t *testing.T) {
		bc, err := NewBlockCipher(nonce, TagPermissive, nil)
		require.NoError(t, err)

		alt := b
		alt.Flags |= BlockAltKey
		got, err := bc.Decrypt(alt, ciphertext)
		require.NoError(t, err)
		assert.NotEqual(t, plaintext, got)
	})
}

func TestBlockCipherLeavesInputIntact(t *testing.T) {
	nonce := DeriveNonce(7)
	ciphertext, b := sealBlock(t, PrimaryKey, nonce, []byte("0123456789abcdef0123"), BlockEncrypted)
	orig := append([]byte(nil), ciphertext...)

	bc, err := NewBlockCipher(nonce, TagStrict, nil)
	require.NoError(t, err)
	_, err = bc.Decrypt(b, ciphertext)
	require.NoError(t, err)
	assert.Equal(t, orig, ciphertext)
}

func TestNewBlockCipherBadKey(t *testing.T) {
	_, err := NewBlockCipherWithKeys([]byte("short"), AlternateKey[:], BaseNonce, TagStrict, nil)
	assert.ErrorIs(t, err, terr.ErrCrypto)

	_, err = NewBlockCipherWithKeys(PrimaryKey[:], nil, BaseNonce, TagStrict, nil)
	assert.ErrorIs(t, err, terr.ErrCrypto)
}

func TestParseTagPolicy(t *testing.T) {
	testCases := []struct {
		in   string
		want TagPolicy
		ok   bool
	}{
		{"", TagPermissive, true},
		{"permissive", TagPermissive, true},
		{" Relaxed ", TagPermissive, true},
		{"STRICT", TagStrict, true},
		{"paranoid", TagPermissive, false},
	}

	for _, tc := range testCases {
		got, ok := ParseTagPolicy(tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
	}

	t.Setenv("TIGER_TAG_POLICY", "strict")
	assert.Equal(t, TagStrict, GetTagPolicy(hclog.NewNullLogger()))
	t.Setenv("TIGER_TAG_POLICY", "bogus")
	assert.Equal(t, TagPermissive, GetTagPolicy(hclog.NewNullLogger()))
	assert.Equal(t, "strict", TagStrict.String())
}
