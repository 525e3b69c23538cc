package agreement

import (
	"crypto/rand"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

// Account and contract addresses on both chains are bech32 strings with
// this prefix.
const AddrPrefix = "xpla"

// ValidateAddr checks that addr is a well-formed bech32 account or
// contract address with the expected prefix.
func ValidateAddr(addr string) error {
	hrp, _, err := bech32.Decode(addr)
	if err != nil {
		return ErrBadRequest.Newf("invalid address %q: %v", addr, err)
	}
	if hrp != AddrPrefix {
		return ErrBadRequest.Newf("invalid address prefix %q", hrp)
	}
	return nil
}

func randAddr(payloadLen int) string {
	data := make([]byte, payloadLen)
	if _, err := rand.Read(data); err != nil {
		panic(err)
	}
	conv, err := bech32.ConvertBits(data, 8, 5, true)
	if err != nil {
		panic(err)
	}
	addr, err := bech32.Encode(AddrPrefix, conv)
	if err != nil {
		panic(err)
	}
	return strings.ToLower(addr)
}

// RandAccountAddr returns a random valid 20-byte account address.
// Used by tests and the simulated environment.
func RandAccountAddr() string {
	return randAddr(20)
}

// RandContractAddr returns a random valid 32-byte contract address.
func RandContractAddr() string {
	return randAddr(32)
}
