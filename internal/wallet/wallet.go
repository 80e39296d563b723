// Package wallet creates and opens the custodial keys the bot keeps for each
// registered user. Keys are stored as Web3 Secret Storage JSON encrypted with
// the owner's username.
package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
)

var ErrDecrypt = errors.New("cannot decrypt wallet")

type Wallet struct {
	Address    common.Address
	PrivateKey *ecdsa.PrivateKey
}

// PrivateKeyHex returns the 0x-prefixed private key.
func (w *Wallet) PrivateKeyHex() string {
	return hexutil.Encode(crypto.FromECDSA(w.PrivateKey))
}

// Keystore generates encrypted keys with a fixed scrypt cost.
type Keystore struct {
	scryptN int
	scryptP int
}

// NewKeystore returns a keystore using the standard scrypt parameters, or
// the light ones when light is set.
func NewKeystore(light bool) *Keystore {
	if light {
		return &Keystore{scryptN: keystore.LightScryptN, scryptP: keystore.LightScryptP}
	}
	return &Keystore{scryptN: keystore.StandardScryptN, scryptP: keystore.StandardScryptP}
}

// Create generates a fresh key and returns it encrypted with passphrase.
func (k *Keystore) Create(passphrase string) (string, error) {
	pk, err := crypto.GenerateKey()
	if err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("key id: %w", err)
	}

	key := &keystore.Key{
		Id:         id,
		Address:    crypto.PubkeyToAddress(pk.PublicKey),
		PrivateKey: pk,
	}
	data, err := keystore.EncryptKey(key, passphrase, k.scryptN, k.scryptP)
	if err != nil {
		return "", fmt.Errorf("encrypt key: %w", err)
	}
	return string(data), nil
}

// Open decrypts keyJSON with passphrase.
func Open(keyJSON, passphrase string) (*Wallet, error) {
	key, err := keystore.DecryptKey([]byte(keyJSON), passphrase)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return &Wallet{Address: key.Address, PrivateKey: key.PrivateKey}, nil
}
