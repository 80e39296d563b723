package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// factoryABI covers the methods the bot calls on the community factory.
const factoryABI = `[
	{"type":"function","name":"createCommunity","stateMutability":"nonpayable",
	 "inputs":[{"name":"name","type":"string"},{"name":"rewardAmount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"getContract","stateMutability":"view",
	 "inputs":[{"name":"name","type":"string"}],"outputs":[{"name":"","type":"address"}]}
]`

// communityABI covers the methods the bot calls on a community contract.
const communityABI = `[
	{"type":"function","name":"tip","stateMutability":"payable",
	 "inputs":[{"name":"user","type":"address"}],"outputs":[]},
	{"type":"function","name":"batchTip","stateMutability":"payable",
	 "inputs":[{"name":"users","type":"address[]"},{"name":"amounts","type":"uint256[]"}],"outputs":[]},
	{"type":"function","name":"reward","stateMutability":"nonpayable",
	 "inputs":[{"name":"user","type":"address"}],"outputs":[]},
	{"type":"function","name":"batchReward","stateMutability":"nonpayable",
	 "inputs":[{"name":"users","type":"address[]"}],"outputs":[]},
	{"type":"function","name":"getUserBalance","stateMutability":"view",
	 "inputs":[{"name":"user","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"getRewardValue","stateMutability":"view",
	 "inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"getUserRewards","stateMutability":"view",
	 "inputs":[{"name":"user","type":"address"}],
	 "outputs":[{"name":"","type":"tuple[]","components":[
		{"name":"timestamp","type":"uint256"},
		{"name":"rewardType","type":"uint8"},
		{"name":"from","type":"address"},
		{"name":"amount","type":"uint256"}]}]},
	{"type":"function","name":"getContractBalance","stateMutability":"view",
	 "inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"setRewardAmount","stateMutability":"nonpayable",
	 "inputs":[{"name":"amount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"withdraw","stateMutability":"nonpayable",
	 "inputs":[],"outputs":[]},
	{"type":"function","name":"fund","stateMutability":"payable",
	 "inputs":[],"outputs":[]}
]`

var (
	parsedFactoryABI   = mustParseABI(factoryABI)
	parsedCommunityABI = mustParseABI(communityABI)
)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}
