package auth

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base32"
	"strings"

	nerrors "github.com/cpop/natscore/pkg/errors"
)

// base32Encoding is the NKey alphabet: RFC 4648's standard base32
// alphabet, without padding.
var base32Encoding = base32.NewEncoding("ABCDEFGHIJKLMNOPQRSTUVWXYZ234567").WithPadding(base32.NoPadding)

// Prefix bytes carry the alphabet index in their top five bits, so the
// encoded string starts with that letter.
const (
	prefixByteSeed = 18 << 3 // encodes as leading 'S'
	prefixByteUser = 20 << 3 // encodes as leading 'U'
)

// crc16 computes the CRC-16/ARC checksum (poly 0xA001, init 0) used to
// frame NKey seeds and public keys.
func crc16(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ 0xA001
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}

// NKeyPair is a decoded NKey seed: the raw Ed25519 seed plus the
// derived key pair.
type NKeyPair struct {
	raw  []byte
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

// DecodeSeed parses a base32-framed NKey seed string (prefix byte 'S',
// 2-byte little-endian CRC-16/ARC trailer) and derives its Ed25519 key
// pair.
func DecodeSeed(seed string) (*NKeyPair, error) {
	seed = strings.TrimSpace(seed)
	if len(seed) == 0 {
		return nil, nerrors.New(nerrors.KindInvalidSeed, "empty seed", nil)
	}

	raw, err := base32Encoding.DecodeString(seed)
	if err != nil {
		return nil, nerrors.New(nerrors.KindInvalidSeed, "seed is not valid base32", err)
	}
	// 1 prefix byte + 32-byte Ed25519 seed + 2-byte crc.
	if len(raw) != 1+ed25519.SeedSize+2 {
		return nil, nerrors.New(nerrors.KindInvalidSeed, "seed has wrong decoded length", nil)
	}

	body := raw[:len(raw)-2]
	wantCRC := crc16(body)
	gotCRC := uint16(raw[len(raw)-2]) | uint16(raw[len(raw)-1])<<8
	if wantCRC != gotCRC {
		return nil, nerrors.New(nerrors.KindInvalidSeed, "seed checksum mismatch", nil)
	}

	if raw[0] != byte(prefixByteSeed) {
		return nil, nerrors.New(nerrors.KindInvalidSeed, "seed does not carry the seed prefix", nil)
	}

	edSeed := raw[1 : 1+ed25519.SeedSize]
	priv := ed25519.NewKeyFromSeed(edSeed)
	pub := priv.Public().(ed25519.PublicKey)

	out := make([]byte, ed25519.SeedSize)
	copy(out, edSeed)
	return &NKeyPair{raw: out, priv: priv, pub: pub}, nil
}

// PublicNKey returns the base32-framed public NKey (prefix byte 'U').
func (k *NKeyPair) PublicNKey() string {
	body := make([]byte, 1+ed25519.PublicKeySize)
	body[0] = byte(prefixByteUser)
	copy(body[1:], k.pub)

	crc := crc16(body)
	framed := make([]byte, len(body)+2)
	copy(framed, body)
	framed[len(body)] = byte(crc)
	framed[len(body)+1] = byte(crc >> 8)

	return base32Encoding.EncodeToString(framed)
}

// Sign signs data with the NKey's Ed25519 private key.
func (k *NKeyPair) Sign(data []byte) ([]byte, error) {
	sig := ed25519.Sign(k.priv, data)
	if len(sig) != ed25519.SignatureSize {
		return nil, nerrors.New(nerrors.KindSigningFailed, "unexpected signature length", nil)
	}
	return sig, nil
}

// generateSeed is used only by tests to mint a fresh, well-formed NKey
// seed without depending on a fixture file.
func generateSeed() (string, error) {
	edSeed := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(edSeed); err != nil {
		return "", err
	}
	body := make([]byte, 1+ed25519.SeedSize)
	body[0] = byte(prefixByteSeed)
	copy(body[1:], edSeed)

	crc := crc16(body)
	framed := make([]byte, len(body)+2)
	copy(framed, body)
	framed[len(body)] = byte(crc)
	framed[len(body)+1] = byte(crc >> 8)

	return base32Encoding.EncodeToString(framed), nil
}
