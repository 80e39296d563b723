package chain

import (
	"errors"
	"regexp"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
)

var (
	reasonRe  = regexp.MustCompile(`reason="([^"]*)"`)
	messageRe = regexp.MustCompile(`message="([^"]*)"`)
)

// Reason extracts a human readable failure reason from a chain error: the
// first reason="…", else the first message="…", else a decoded revert
// string carried by the RPC error, else the raw error text.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	text := err.Error()
	if m := reasonRe.FindStringSubmatch(text); m != nil && m[1] != "" {
		return m[1]
	}
	if m := messageRe.FindStringSubmatch(text); m != nil && m[1] != "" {
		return m[1]
	}

	var de rpc.DataError
	if errors.As(err, &de) {
		if data, ok := de.ErrorData().(string); ok {
			if reason, uerr := abi.UnpackRevert(common.FromHex(data)); uerr == nil && reason != "" {
				return reason
			}
		}
	}
	return text
}
