package auth

import (
	"testing"

	"github.com/cpop/natscore/pkg/test"
)

type NKeySuite struct {
	*test.Suite
}

func TestNKeySuite(t *testing.T) {
	test.Run(t, &NKeySuite{Suite: test.NewSuite()})
}

func (s *NKeySuite) TestValidSeedRoundTrips() {
	seed, err := generateSeed()
	s.NoError(err)

	kp, err := DecodeSeed(seed)
	s.NoError(err)
	s.NotNil(kp)

	pub := kp.PublicNKey()
	s.True(len(pub) > 0)
	s.Equal(byte(prefixByteUser), decodedPrefixByte(s, pub))
}

func (s *NKeySuite) TestSignaturesDifferForDifferentNonces() {
	seed, _ := generateSeed()
	kp, err := DecodeSeed(seed)
	s.NoError(err)

	sig1, err := kp.Sign([]byte("nonce-one"))
	s.NoError(err)
	sig2, err := kp.Sign([]byte("nonce-two"))
	s.NoError(err)

	s.NotEqual(sig1, sig2)
	s.Len(sig1, 64)
}

func (s *NKeySuite) TestSignatureIsDeterministicForSameInput() {
	seed, _ := generateSeed()
	kp, _ := DecodeSeed(seed)

	sig1, _ := kp.Sign([]byte("same"))
	sig2, _ := kp.Sign([]byte("same"))
	s.Equal(sig1, sig2)
}

func (s *NKeySuite) TestInvalidBase32Rejected() {
	_, err := DecodeSeed("not-base32-!!!")
	s.Error(err)
}

func (s *NKeySuite) TestBadLengthRejected() {
	// Valid base32 alphabet, wrong decoded length.
	_, err := DecodeSeed(base32Encoding.EncodeToString([]byte("short")))
	s.Error(err)
}

func (s *NKeySuite) TestBadPrefixRejected() {
	seed, _ := generateSeed()
	raw, _ := base32Encoding.DecodeString(seed)
	raw[0] = 99 // not the seed prefix
	// Recompute crc so the prefix check, not the crc check, fails.
	body := raw[:len(raw)-2]
	crc := crc16(body)
	raw[len(raw)-2] = byte(crc)
	raw[len(raw)-1] = byte(crc >> 8)

	tampered := base32Encoding.EncodeToString(raw)
	_, err := DecodeSeed(tampered)
	s.Error(err)
}

func (s *NKeySuite) TestBadCRCRejected() {
	seed, _ := generateSeed()
	raw, _ := base32Encoding.DecodeString(seed)
	raw[len(raw)-1] ^= 0xFF // corrupt the checksum

	tampered := base32Encoding.EncodeToString(raw)
	_, err := DecodeSeed(tampered)
	s.Error(err)
}

func (s *NKeySuite) TestEmptySeedRejected() {
	_, err := DecodeSeed("")
	s.Error(err)
}

func decodedPrefixByte(s *NKeySuite, publicNKey string) byte {
	raw, err := base32Encoding.DecodeString(publicNKey)
	s.NoError(err)
	return raw[0]
}
