package commands

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/susu3304/tipbot/internal/chain"
)

// parseAmount accepts a positive ether amount with at most 18 decimals.
func parseAmount(tok string) (*big.Int, bool) {
	wei, err := chain.ParseEther(tok)
	if err != nil || wei.Sign() <= 0 {
		return nil, false
	}
	return wei, true
}

func invalidAmount(tok string) string {
	return fmt.Sprintf("INVALID AMOUNT '%s'.", tok)
}

// parseReceiver strips the leading @ of a username mention.
func parseReceiver(tok string) (string, bool) {
	name, ok := strings.CutPrefix(tok, "@")
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

type tipTarget struct {
	Username string
	Amount   *big.Int
}

// parseTip reads "@user amount". The returned string is the reply to send
// when the arguments are invalid.
func parseTip(args string) (tipTarget, string) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return tipTarget{}, msgTipUsage
	}
	name, ok := parseReceiver(fields[0])
	if !ok {
		return tipTarget{}, msgInvalidReceiver
	}
	amount, ok := parseAmount(fields[1])
	if !ok {
		return tipTarget{}, invalidAmount(fields[1])
	}
	return tipTarget{Username: name, Amount: amount}, ""
}

// parseBatchTip reads comma separated "@user amount" pairs. Every pair is
// checked and one problem is reported per invalid pair; the targets are only
// usable when no problems were found.
func parseBatchTip(args string) ([]tipTarget, *big.Int, []string) {
	var (
		targets  []tipTarget
		problems []string
		total    = new(big.Int)
	)
	for _, pair := range strings.Split(args, ",") {
		fields := strings.Fields(pair)
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			problems = append(problems, msgInvalidQuery)
			continue
		}
		name, ok := parseReceiver(fields[0])
		if !ok {
			problems = append(problems, fmt.Sprintf("INVALID RECEIVER USERNAME '%s'.", fields[0]))
			continue
		}
		amount, ok := parseAmount(fields[1])
		if !ok {
			problems = append(problems, invalidAmount(fields[1]))
			continue
		}
		targets = append(targets, tipTarget{Username: name, Amount: amount})
		total.Add(total, amount)
	}
	if len(targets) == 0 && len(problems) == 0 {
		problems = append(problems, msgInvalidQuery)
	}
	return targets, total, problems
}
