package pkcs5

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/subtle"

	"github.com/gematik/zero-lab/go/pkcs8/internal/secret"
)

const blockSize = aes.BlockSize

// encryptCBC encrypts plaintext with AES-CBC and PKCS#7 padding. The padded
// copy is encrypted in place, so no plaintext copy survives.
func encryptCBC(key, iv, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	padding := blockSize - len(plaintext)%blockSize
	buf := make([]byte, len(plaintext)+padding)
	copy(buf, plaintext)
	for i := len(plaintext); i < len(buf); i++ {
		buf[i] = byte(padding)
	}

	cipher.NewCBCEncrypter(block, iv).CryptBlocks(buf, buf)
	return buf, nil
}

// decryptCBC reverses encryptCBC. On failure the decrypted buffer is wiped.
func decryptCBC(key, iv, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) == 0 || len(ciphertext)%blockSize != 0 || len(iv) != blockSize {
		return nil, ErrDecryption
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ErrDecryption
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	n, ok := unpad(plaintext)
	if !ok {
		secret.Wipe(plaintext)
		return nil, ErrDecryption
	}
	return plaintext[:n], nil
}

// unpad validates PKCS#7 padding over the last block without branching on
// the padding bytes and returns the unpadded length.
func unpad(data []byte) (int, bool) {
	padLen := int(data[len(data)-1])
	good := subtle.ConstantTimeLessOrEq(1, padLen) & subtle.ConstantTimeLessOrEq(padLen, blockSize)

	last := data[len(data)-blockSize:]
	for i := range blockSize {
		// bytes within the padding must equal padLen
		inPad := subtle.ConstantTimeLessOrEq(blockSize, i+padLen)
		match := subtle.ConstantTimeByteEq(last[i], byte(padLen))
		good &= subtle.ConstantTimeSelect(inPad, match, 1)
	}
	if good != 1 {
		return 0, false
	}
	return len(data) - padLen, true
}
