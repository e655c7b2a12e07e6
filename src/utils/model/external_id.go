package model

import (
	"fmt"
	"math/big"
	"strings"
)

// Parses the escrow contract's job id. Only positive integers are valid.
func ParseExternalJobId(s string) (*big.Int, error) {
	id, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a number", ErrInvalidExternalId, s)
	}
	if id.Sign() <= 0 {
		return nil, fmt.Errorf("%w: %q is not positive", ErrInvalidExternalId, s)
	}
	return id, nil
}
