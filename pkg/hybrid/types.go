package hybrid

import (
	"github.com/volli/core/internal/constants"
	cerrors "github.com/volli/core/internal/errors"
)

// KeyBundle bundles the two hybrid key pairs an identity or device needs:
// one for key encapsulation (establishing shared secrets) and one for
// signing (authenticating messages and vault operations).
type KeyBundle struct {
	KEM       *KEMKeyPair
	Signature *SignatureKeyPair
}

// PublicBundle bundles the public halves of a KeyBundle, suitable for
// publishing to peers or storing in a directory entry.
type PublicBundle struct {
	KEM       *KEMPublicKey
	Signature *SignaturePublicKey
}

// GenerateKeyBundle generates a fresh hybrid KEM and signature key pair.
func GenerateKeyBundle() (*KeyBundle, error) {
	kemKP, err := GenerateKEMKeyPair()
	if err != nil {
		return nil, err
	}

	sigKP, err := GenerateSignatureKeyPair()
	if err != nil {
		return nil, err
	}

	return &KeyBundle{KEM: kemKP, Signature: sigKP}, nil
}

// PublicBundle returns the public halves of the bundle.
func (kb *KeyBundle) PublicBundle() *PublicBundle {
	return &PublicBundle{
		KEM:       kb.KEM.PublicKey(),
		Signature: kb.Signature.PublicKey(),
	}
}

// Bytes serializes the bundle to wire format: kemPublicKey || sigPublicKey.
func (pb *PublicBundle) Bytes() ([]byte, error) {
	kemBytes := pb.KEM.Bytes()
	sigBytes, err := pb.Signature.Bytes()
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(kemBytes)+len(sigBytes))
	out = append(out, kemBytes...)
	out = append(out, sigBytes...)
	return out, nil
}

// ParsePublicBundle parses a PublicBundle from wire format.
func ParsePublicBundle(data []byte) (*PublicBundle, error) {
	kemSize := constants.X25519PublicKeySize + constants.MLKEMPublicKeySize
	if len(data) < kemSize {
		return nil, cerrors.ErrInvalidKeySize
	}

	kemPub, err := ParseKEMPublicKey(data[:kemSize])
	if err != nil {
		return nil, err
	}

	sigPub, err := ParseSignaturePublicKey(data[kemSize:])
	if err != nil {
		return nil, err
	}

	return &PublicBundle{KEM: kemPub, Signature: sigPub}, nil
}

// Zeroize clears both key pairs in the bundle.
func (kb *KeyBundle) Zeroize() {
	if kb.KEM != nil {
		kb.KEM.Zeroize()
	}
	if kb.Signature != nil {
		kb.Signature.Zeroize()
	}
}
