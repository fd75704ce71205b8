package format

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"fmt"
	"sync/atomic"

	"github.com/hashicorp/go-hclog"

	terr "github.com/provide-io/tiger/go/tiger/pkg/tiger/errors"
)

// gcmFirstCounter is the counter GCM uses for the first keystream block
// when the nonce is 12 bytes long (counter 1 is reserved for the tag).
const gcmFirstCounter = 2

type blockKey struct {
	block cipher.Block
	aead  cipher.AEAD
}

// BlockCipher decrypts AES-128-GCM blocks under one package nonce
type BlockCipher struct {
	primary    blockKey
	alternate  blockKey
	nonce      [NonceSize]byte
	policy     TagPolicy
	logger     hclog.Logger
	mismatches atomic.Int64
}

// NewBlockCipher creates a cipher over the format keys
func NewBlockCipher(nonce [NonceSize]byte, policy TagPolicy, logger hclog.Logger) (*BlockCipher, error) {
	return NewBlockCipherWithKeys(PrimaryKey[:], AlternateKey[:], nonce, policy, logger)
}

// NewBlockCipherWithKeys creates a cipher over explicit primary/alternate keys
func NewBlockCipherWithKeys(primary, alternate []byte, nonce [NonceSize]byte, policy TagPolicy, logger hclog.Logger) (*BlockCipher, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	pk, err := newBlockKey(primary)
	if err != nil {
		return nil, fmt.Errorf("%w: primary key: %v", terr.ErrCrypto, err)
	}
	ak, err := newBlockKey(alternate)
	if err != nil {
		return nil, fmt.Errorf("%w: alternate key: %v", terr.ErrCrypto, err)
	}

	return &BlockCipher{
		primary:   pk,
		alternate: ak,
		nonce:     nonce,
		policy:    policy,
		logger:    logger,
	}, nil
}

func newBlockKey(key []byte) (blockKey, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return blockKey{}, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return blockKey{}, err
	}
	return blockKey{block: block, aead: aead}, nil
}

// Decrypt returns the plaintext of one block. Under TagPermissive a tag
// mismatch still yields the plaintext; under TagStrict it is ErrTagMismatch.
func (c *BlockCipher) Decrypt(b Block, ciphertext []byte) ([]byte, error) {
	key := c.primary
	if b.AltKey() {
		key = c.alternate
	}

	sealed := make([]byte, len(ciphertext)+BlockTagSize)
	copy(sealed, ciphertext)
	copy(sealed[len(ciphertext):], b.Tag[:])

	plaintext, err := key.aead.Open(sealed[:0], c.nonce[:], sealed, nil)
	if err == nil {
		return plaintext, nil
	}

	c.mismatches.Add(1)
	if c.policy == TagStrict {
		return nil, fmt.Errorf("%w: offset 0x%x patch %d", terr.ErrTagMismatch, b.Offset, b.PatchID)
	}

	c.logger.Trace("🔓 Tag mismatch, keeping plaintext", "offset", b.Offset, "patch", b.PatchID, "alt_key", b.AltKey())

	// Same keystream GCM would have applied.
	var iv [aes.BlockSize]byte
	copy(iv[:], c.nonce[:])
	binary.BigEndian.PutUint32(iv[NonceSize:], gcmFirstCounter)
	plaintext = make([]byte, len(ciphertext))
	cipher.NewCTR(key.block, iv[:]).XORKeyStream(plaintext, ciphertext)
	return plaintext, nil
}

// TagMismatches reports how many blocks failed tag verification so far
func (c *BlockCipher) TagMismatches() int64 {
	return c.mismatches.Load()
}

// Policy returns the tag policy in force
func (c *BlockCipher) Policy() TagPolicy {
	return c.policy
}
