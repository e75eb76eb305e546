package rfb

import (
	"crypto/des"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/bits"
)

// SecurityHandler negotiates and performs one RFB authentication scheme.
type SecurityHandler interface {
	Type() SecurityType
	Authenticate(rw io.ReadWriter) error
}

// SecurityNone is used when the server requires no authentication.
type SecurityNone struct{}

func (SecurityNone) Type() SecurityType { return SecurityTypeNone }
func (SecurityNone) Authenticate(io.ReadWriter) error { return nil }

// PasswordFunc supplies a password lazily, mirroring the RFB adapter's
// GetPassword callback (spec.md §4.4).
type PasswordFunc func() (string, error)

// SecurityVNC implements the classic VNC DES challenge-response scheme.
type SecurityVNC struct {
	Password PasswordFunc
}

func (s *SecurityVNC) Type() SecurityType { return SecurityTypeVNCAuth }

func (s *SecurityVNC) Authenticate(rw io.ReadWriter) error {
	var challenge [16]byte
	if _, err := io.ReadFull(rw, challenge[:]); err != nil {
		return fmt.Errorf("vnc-auth: reading challenge: %w", err)
	}

	password := ""
	if s.Password != nil {
		p, err := s.Password()
		if err != nil {
			return fmt.Errorf("vnc-auth: obtaining password: %w", err)
		}
		password = p
	}

	key := make([]byte, 8)
	copy(key, password)
	// VNC authentication uses each password byte with its bit order
	// reversed as the DES key.
	for i, b := range key {
		key[i] = bits.Reverse8(b)
	}

	cipher, err := des.NewCipher(key)
	if err != nil {
		return fmt.Errorf("vnc-auth: building cipher: %w", err)
	}

	response := make([]byte, 16)
	cipher.Encrypt(response[0:8], challenge[0:8])
	cipher.Encrypt(response[8:16], challenge[8:16])

	if _, err := rw.Write(response); err != nil {
		return fmt.Errorf("vnc-auth: writing response: %w", err)
	}

	var result uint32
	if err := binary.Read(rw, binary.BigEndian, &result); err != nil {
		return fmt.Errorf("vnc-auth: reading result: %w", err)
	}
	if result != 0 {
		return errors.New("vnc-auth: authentication rejected by server")
	}
	return nil
}
