package ledger

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/tjfontaine/feedlot-portal/internal/core/domain"
)

// DefaultSignerIndex maps each role to its account index in the key list.
// Index 0 is the deployer and holds no role.
var DefaultSignerIndex = map[domain.Role]int{
	domain.RoleFeedlot:   1,
	domain.RoleScale:     2,
	domain.RoleVet:       3,
	domain.RoleNutrition: 4,
	domain.RoleTruck:     5,
	domain.RolePacker:    6,
}

// ParseKey decodes a hex-encoded secp256k1 private key, with or without 0x.
func ParseKey(hexKey string) (*ecdsa.PrivateKey, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return key, nil
}

// ResolveKeys picks each role's key from privateKeys by its signer index.
// Roles missing from index use DefaultSignerIndex. Roles whose index falls
// outside privateKeys get no key and cannot submit.
func ResolveKeys(privateKeys []string, index map[domain.Role]int) (map[domain.Role]*ecdsa.PrivateKey, error) {
	parsed := make([]*ecdsa.PrivateKey, len(privateKeys))
	for i, hexKey := range privateKeys {
		key, err := ParseKey(hexKey)
		if err != nil {
			return nil, fmt.Errorf("private key %d: %w", i, err)
		}
		parsed[i] = key
	}

	keys := make(map[domain.Role]*ecdsa.PrivateKey)
	for _, role := range domain.Roles() {
		idx, ok := index[role]
		if !ok {
			idx = DefaultSignerIndex[role]
		}
		if idx < 0 {
			return nil, fmt.Errorf("signer index for %s is negative", role)
		}
		if idx < len(parsed) {
			keys[role] = parsed[idx]
		}
	}
	return keys, nil
}
