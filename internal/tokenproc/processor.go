package tokenproc

import (
	"fmt"

	sdktoken "github.com/blocto/solana-go-sdk/program/token"

	"registry-program-sol/internal/consts"
	"registry-program-sol/internal/runtime"
	"registry-program-sol/internal/tokenix"
	"registry-program-sol/internal/types"
)

var _ runtime.Processor = (*Processor)(nil)

// Processor Token 指令程序：仅做账户槽位校验，然后委托给 TokenPrimitives
type Processor struct {
	primitives   TokenPrimitives
	tokenProgram types.Pubkey
}

type Option func(*Processor)

// WithTokenProgram 指定 mint 账户应归属的 token 程序（默认 SPL Token）
func WithTokenProgram(id types.Pubkey) Option {
	return func(p *Processor) { p.tokenProgram = id }
}

func NewProcessor(primitives TokenPrimitives, opts ...Option) *Processor {
	p := &Processor{primitives: primitives, tokenProgram: consts.TokenProgram}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process 解码指令并分派
func (p *Processor) Process(ic *runtime.InvokeContext, data []byte) error {
	ix, err := tokenix.Unpack(data)
	if err != nil {
		return err
	}

	switch ix := ix.(type) {
	case tokenix.InitializeMint:
		return p.initializeMint(ic, ix)
	case tokenix.InitializeAccount:
		return p.initializeAccount(ic)
	case tokenix.MintTo:
		return p.mintTo(ic, ix)
	default:
		return fmt.Errorf("%w: unhandled %s", runtime.ErrInvalidTag, ix.Tag())
	}
}

// initializeMint
//
// Accounts:
// #0 - Mint 账户（可写）
// #1 - Rent sysvar
// #2 - System Program
func (p *Processor) initializeMint(ic *runtime.InvokeContext, ix tokenix.InitializeMint) error {
	it := ic.Iter()
	mint, err := it.Next()
	if err != nil {
		return err
	}
	rent, err := it.Next()
	if err != nil {
		return err
	}
	systemProgram, err := it.Next()
	if err != nil {
		return err
	}

	if err := requireWritable("mint", mint); err != nil {
		return err
	}
	if err := requireKey("rent sysvar", rent, consts.SysvarRent); err != nil {
		return err
	}
	if err := requireKey("system program", systemProgram, consts.SystemProgram); err != nil {
		return err
	}

	return delegate("InitializeMint", p.primitives.InitializeMint(ic, MintParams{
		Mint:          mint,
		Rent:          rent,
		SystemProgram: systemProgram,
		Decimals:      ix.Decimals,
		MintAuthority: ix.MintAuthority,
	}))
}

// initializeAccount
//
// Accounts:
// #0 - Token 账户（可写）
// #1 - Mint
// #2 - 账户 owner
// #3 - Rent sysvar
func (p *Processor) initializeAccount(ic *runtime.InvokeContext) error {
	it := ic.Iter()
	var slots [4]*runtime.AccountInfo
	for i := range slots {
		acc, err := it.Next()
		if err != nil {
			return err
		}
		slots[i] = acc
	}
	account, mint, owner, rent := slots[0], slots[1], slots[2], slots[3]

	if err := requireWritable("token account", account); err != nil {
		return err
	}
	if err := requireKey("rent sysvar", rent, consts.SysvarRent); err != nil {
		return err
	}

	return delegate("InitializeAccount", p.primitives.InitializeAccount(ic, AccountParams{
		Account: account,
		Mint:    mint,
		Owner:   owner,
		Rent:    rent,
	}))
}

// mintTo
//
// Accounts:
// #0 - Mint（可写，owner 为 token 程序）
// #1 - 目标 Token 账户（可写）
// #2 - Mint authority（签名者，必须等于 mint 记录的铸币权限）
func (p *Processor) mintTo(ic *runtime.InvokeContext, ix tokenix.MintTo) error {
	it := ic.Iter()
	mint, err := it.Next()
	if err != nil {
		return err
	}
	dest, err := it.Next()
	if err != nil {
		return err
	}
	authority, err := it.Next()
	if err != nil {
		return err
	}

	if err := requireWritable("mint", mint); err != nil {
		return err
	}
	if err := requireWritable("destination", dest); err != nil {
		return err
	}
	if !mint.IsOwnedBy(p.tokenProgram) {
		return fmt.Errorf("%w: mint %s owned by %s, want %s", runtime.ErrInvalidAccount, mint.Key, mint.Owner, p.tokenProgram)
	}

	state, err := sdktoken.MintAccountFromData(mint.Data)
	if err != nil {
		return fmt.Errorf("%w: mint %s: %v", runtime.ErrInvalidAccountData, mint.Key, err)
	}
	if state.MintAuthority == nil {
		return fmt.Errorf("%w: mint %s has no mint authority", runtime.ErrInvalidAccount, mint.Key)
	}
	recorded := types.PubkeyFromCommon(*state.MintAuthority)
	if recorded != authority.Key {
		return fmt.Errorf("%w: mint authority mismatch, recorded=%s, got=%s", runtime.ErrInvalidAccount, recorded, authority.Key)
	}
	if !authority.IsSigner {
		return fmt.Errorf("%w: mint authority %s did not sign", runtime.ErrInvalidAccount, authority.Key)
	}

	return delegate("MintTo", p.primitives.MintTo(ic, MintToParams{
		Mint:        mint,
		Destination: dest,
		Authority:   authority,
		Amount:      ix.Amount,
	}))
}

func requireWritable(slot string, acc *runtime.AccountInfo) error {
	if !acc.IsWritable {
		return fmt.Errorf("%w: %s %s is not writable", runtime.ErrInvalidAccount, slot, acc.Key)
	}
	return nil
}

func requireKey(slot string, acc *runtime.AccountInfo, want types.Pubkey) error {
	if acc.Key != want {
		return fmt.Errorf("%w: %s is %s, want %s", runtime.ErrInvalidAccount, slot, acc.Key, want)
	}
	return nil
}

// delegate 包装原语返回的错误，原始错误保持不变
func delegate(op string, err error) error {
	if err == nil {
		return nil
	}
	return &runtime.DelegationError{Op: op, Err: err}
}
