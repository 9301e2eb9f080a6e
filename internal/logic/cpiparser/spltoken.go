package cpiparser

import (
	"encoding/binary"
	"fmt"

	sdktoken "github.com/blocto/solana-go-sdk/program/token"

	"registry-program-sol/internal/consts"
	"registry-program-sol/internal/types"
)

// TokenCallKind 解析出的 SPL Token 调用类型
type TokenCallKind uint8

const (
	TokenCallInitializeMint TokenCallKind = iota + 1
	TokenCallInitializeAccount
	TokenCallMintTo
)

func (k TokenCallKind) String() string {
	switch k {
	case TokenCallInitializeMint:
		return "InitializeMint"
	case TokenCallInitializeAccount:
		return "InitializeAccount"
	case TokenCallMintTo:
		return "MintTo"
	default:
		return fmt.Sprintf("TokenCallKind(%d)", uint8(k))
	}
}

// TokenCall 一条 SPL Token 跨程序调用的结构化内容
type TokenCall struct {
	Kind      TokenCallKind
	Mint      types.Pubkey
	Account   types.Pubkey // InitializeAccount 的 token 账户 / MintTo 的目标账户
	Owner     types.Pubkey // InitializeAccount 的账户 owner
	Authority types.Pubkey // InitializeMint 的铸币权限 / MintTo 的签名者
	Amount    uint64
	Decimals  uint8
	Checked   bool // MintToChecked 携带 decimals
}

func (c *TokenCall) String() string {
	switch c.Kind {
	case TokenCallInitializeMint:
		return fmt.Sprintf("InitializeMint mint=%s decimals=%d authority=%s", c.Mint, c.Decimals, c.Authority)
	case TokenCallInitializeAccount:
		return fmt.Sprintf("InitializeAccount account=%s mint=%s owner=%s", c.Account, c.Mint, c.Owner)
	case TokenCallMintTo:
		if c.Checked {
			return fmt.Sprintf("MintToChecked mint=%s to=%s amount=%d decimals=%d", c.Mint, c.Account, c.Amount, c.Decimals)
		}
		return fmt.Sprintf("MintTo mint=%s to=%s amount=%d", c.Mint, c.Account, c.Amount)
	default:
		return c.Kind.String()
	}
}

// IsTokenProgram 是否为 SPL Token / Token-2022
func IsTokenProgram(programID types.Pubkey) bool {
	return programID == consts.TokenProgram || programID == consts.TokenProgram2022
}

// ParseTokenCall 解析 SPL Token 指令，非关心的指令或格式不符时返回 false
func ParseTokenCall(programID types.Pubkey, accounts []types.Pubkey, data []byte) (*TokenCall, bool) {
	if !IsTokenProgram(programID) || len(data) == 0 {
		return nil, false
	}

	switch data[0] {
	case byte(sdktoken.InstructionInitializeMint), byte(sdktoken.InstructionInitializeMint2):
		// Data: [tag, decimals, mintAuthority(32), ...]；Accounts: [mint, (rent)]
		if len(accounts) < 1 || len(data) < 34 {
			return nil, false
		}
		auth, _ := types.PubkeyFromBytes(data[2:34])
		return &TokenCall{
			Kind:      TokenCallInitializeMint,
			Mint:      accounts[0],
			Decimals:  data[1],
			Authority: auth,
		}, true

	case byte(sdktoken.InstructionInitializeAccount):
		// Layout: [tokenAccount, mint, owner, rent]
		if len(accounts) < 3 {
			return nil, false
		}
		return &TokenCall{
			Kind:    TokenCallInitializeAccount,
			Account: accounts[0],
			Mint:    accounts[1],
			Owner:   accounts[2],
		}, true

	case byte(sdktoken.InstructionInitializeAccount2), byte(sdktoken.InstructionInitializeAccount3):
		// Layout: [tokenAccount, mint]，owner 在 Data[1:33]
		if len(accounts) < 2 || len(data) < 33 {
			return nil, false
		}
		owner, _ := types.PubkeyFromBytes(data[1:33])
		return &TokenCall{
			Kind:    TokenCallInitializeAccount,
			Account: accounts[0],
			Mint:    accounts[1],
			Owner:   owner,
		}, true

	case byte(sdktoken.InstructionMintTo):
		// Layout: [mint, dest, authority]
		if len(accounts) < 3 || len(data) < 9 {
			return nil, false
		}
		return &TokenCall{
			Kind:      TokenCallMintTo,
			Mint:      accounts[0],
			Account:   accounts[1],
			Authority: accounts[2],
			Amount:    binary.LittleEndian.Uint64(data[1:9]),
		}, true

	case byte(sdktoken.InstructionMintToChecked):
		if len(accounts) < 3 || len(data) < 10 {
			return nil, false
		}
		return &TokenCall{
			Kind:      TokenCallMintTo,
			Mint:      accounts[0],
			Account:   accounts[1],
			Authority: accounts[2],
			Amount:    binary.LittleEndian.Uint64(data[1:9]),
			Decimals:  data[9],
			Checked:   true,
		}, true

	default:
		return nil, false
	}
}
