package tokenproc

import (
	sdktoken "github.com/blocto/solana-go-sdk/program/token"

	"registry-program-sol/internal/runtime"
	"registry-program-sol/internal/types"
)

// MintParams InitializeMint 的已校验参数
type MintParams struct {
	Mint          *runtime.AccountInfo
	Rent          *runtime.AccountInfo
	SystemProgram *runtime.AccountInfo
	Decimals      uint8
	MintAuthority types.Pubkey
}

// AccountParams InitializeAccount 的已校验参数
type AccountParams struct {
	Account *runtime.AccountInfo
	Mint    *runtime.AccountInfo
	Owner   *runtime.AccountInfo
	Rent    *runtime.AccountInfo
}

// MintToParams MintTo 的已校验参数
type MintToParams struct {
	Mint        *runtime.AccountInfo
	Destination *runtime.AccountInfo
	Authority   *runtime.AccountInfo
	Amount      uint64
}

// TokenPrimitives 外部 token 管理原语（初始化 mint、初始化账户、铸币）。
// 余额计算与账户布局校验由实现方负责。
type TokenPrimitives interface {
	InitializeMint(ic *runtime.InvokeContext, p MintParams) error
	InitializeAccount(ic *runtime.InvokeContext, p AccountParams) error
	MintTo(ic *runtime.InvokeContext, p MintToParams) error
}

// SPLPrimitives 使用 SPL Token 程序实现 TokenPrimitives：
// 通过 SDK 构造标准 SPL 指令，再经 Invoker 发起跨程序调用
type SPLPrimitives struct {
	invoker runtime.Invoker
}

var _ TokenPrimitives = (*SPLPrimitives)(nil)

func NewSPLPrimitives(invoker runtime.Invoker) *SPLPrimitives {
	return &SPLPrimitives{invoker: invoker}
}

func (s *SPLPrimitives) InitializeMint(ic *runtime.InvokeContext, p MintParams) error {
	ix := sdktoken.InitializeMint(sdktoken.InitializeMintParam{
		Decimals: p.Decimals,
		Mint:     p.Mint.Key.ToCommon(),
		MintAuth: p.MintAuthority.ToCommon(),
	})
	return s.invoker.Invoke(ic, ix, []*runtime.AccountInfo{p.Mint, p.Rent})
}

func (s *SPLPrimitives) InitializeAccount(ic *runtime.InvokeContext, p AccountParams) error {
	ix := sdktoken.InitializeAccount(sdktoken.InitializeAccountParam{
		Account: p.Account.Key.ToCommon(),
		Mint:    p.Mint.Key.ToCommon(),
		Owner:   p.Owner.Key.ToCommon(),
	})
	return s.invoker.Invoke(ic, ix, []*runtime.AccountInfo{p.Account, p.Mint, p.Owner, p.Rent})
}

func (s *SPLPrimitives) MintTo(ic *runtime.InvokeContext, p MintToParams) error {
	ix := sdktoken.MintTo(sdktoken.MintToParam{
		Mint:   p.Mint.Key.ToCommon(),
		To:     p.Destination.Key.ToCommon(),
		Auth:   p.Authority.Key.ToCommon(),
		Amount: p.Amount,
	})
	return s.invoker.Invoke(ic, ix, []*runtime.AccountInfo{p.Mint, p.Destination, p.Authority})
}
