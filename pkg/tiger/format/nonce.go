package format

// DeriveNonce returns the per-package AES-GCM nonce: BaseNonce with the
// package id's high byte folded into byte 0 and its low byte into byte 11.
func DeriveNonce(packageID uint16) [NonceSize]byte {
	nonce := BaseNonce
	nonce[0] ^= byte(packageID >> 8)
	nonce[NonceSize-1] ^= byte(packageID)
	return nonce
}
