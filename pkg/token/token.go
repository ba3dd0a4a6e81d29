package token

import (
	"crypto/rand"
)

// alphabet untuk kode reset: huruf kecil + angka.
const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// ResetCodeLength adalah panjang kode reset password.
const ResetCodeLength = 6

// NewResetCode menghasilkan kode reset acak sepanjang ResetCodeLength.
// Byte di atas batas dibuang supaya distribusi karakternya seragam.
func NewResetCode() (string, error) {
	// 252 adalah kelipatan len(alphabet) terbesar yang muat dalam satu byte
	const limit = 256 - 256%len(alphabet)

	code := make([]byte, 0, ResetCodeLength)
	buf := make([]byte, 1)
	for len(code) < ResetCodeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		if int(buf[0]) >= limit {
			continue
		}
		code = append(code, alphabet[int(buf[0])%len(alphabet)])
	}
	return string(code), nil
}
