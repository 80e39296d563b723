package chain

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

var (
	weiPerEther = big.NewInt(1_000_000_000_000_000_000)
	decimalRe   = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)
)

// ParseEther converts a decimal ether amount such as "1.5" into wei.
func ParseEther(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if !decimalRe.MatchString(s) {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	r.Mul(r, new(big.Rat).SetInt(weiPerEther))
	if !r.IsInt() {
		return nil, fmt.Errorf("amount %q has more than 18 decimals", s)
	}
	return new(big.Int).Set(r.Num()), nil
}

// FormatEther renders wei as a decimal ether amount, always with at least
// one fractional digit ("1.0", "0.25").
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0.0"
	}
	abs := new(big.Int).Abs(wei)
	whole, rem := new(big.Int).QuoRem(abs, weiPerEther, new(big.Int))

	frac := rem.String()
	frac = strings.Repeat("0", 18-len(frac)) + frac
	frac = strings.TrimRight(frac, "0")
	if frac == "" {
		frac = "0"
	}

	sign := ""
	if wei.Sign() < 0 {
		sign = "-"
	}
	return sign + whole.String() + "." + frac
}
