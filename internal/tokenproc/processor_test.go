package tokenproc

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/blocto/solana-go-sdk/common"
	sdktoken "github.com/blocto/solana-go-sdk/program/token"
	sdktypes "github.com/blocto/solana-go-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"registry-program-sol/internal/consts"
	"registry-program-sol/internal/runtime"
	"registry-program-sol/internal/tokenix"
	"registry-program-sol/internal/types"
)

var (
	programID    = types.Pubkey{0x70}
	mintKey      = types.Pubkey{0x71}
	tokenAccKey  = types.Pubkey{0x72}
	ownerKey     = types.Pubkey{0x73}
	authorityKey = types.Pubkey{0x74}
	strangerKey  = types.Pubkey{0x75}
)

// fakePrimitives 记录每次委托的参数，可注入错误
type fakePrimitives struct {
	mints    []MintParams
	accounts []AccountParams
	mintTos  []MintToParams
	err      error
}

func (f *fakePrimitives) InitializeMint(_ *runtime.InvokeContext, p MintParams) error {
	f.mints = append(f.mints, p)
	return f.err
}

func (f *fakePrimitives) InitializeAccount(_ *runtime.InvokeContext, p AccountParams) error {
	f.accounts = append(f.accounts, p)
	return f.err
}

func (f *fakePrimitives) MintTo(_ *runtime.InvokeContext, p MintToParams) error {
	f.mintTos = append(f.mintTos, p)
	return f.err
}

// encodeMint 按 SPL Mint 布局（82 字节）构造账户数据
func encodeMint(authority *types.Pubkey, decimals uint8) []byte {
	data := make([]byte, sdktoken.MintAccountSize)
	if authority != nil {
		binary.LittleEndian.PutUint32(data[0:4], 1)
		copy(data[4:36], authority[:])
	}
	data[44] = decimals
	data[45] = 1
	return data
}

func run(t *testing.T, prims TokenPrimitives, data []byte, accounts ...*runtime.AccountInfo) error {
	t.Helper()
	ic := runtime.NewInvokeContext(programID, accounts)
	return NewProcessor(prims).Process(ic, data)
}

func mintAccounts() []*runtime.AccountInfo {
	return []*runtime.AccountInfo{
		{Key: mintKey, IsWritable: true},
		{Key: consts.SysvarRent},
		{Key: consts.SystemProgram},
	}
}

func TestInitializeMintDelegates(t *testing.T) {
	prims := &fakePrimitives{}
	data := tokenix.Pack(tokenix.InitializeMint{Decimals: 7, MintAuthority: authorityKey})

	require.NoError(t, run(t, prims, data, mintAccounts()...))
	require.Len(t, prims.mints, 1)
	got := prims.mints[0]
	assert.Equal(t, uint8(7), got.Decimals)
	assert.Equal(t, authorityKey, got.MintAuthority)
	assert.Equal(t, mintKey, got.Mint.Key)
	assert.Equal(t, consts.SystemProgram, got.SystemProgram.Key)
}

func TestInitializeMintSlotValidation(t *testing.T) {
	data := tokenix.Pack(tokenix.InitializeMint{Decimals: 7, MintAuthority: authorityKey})

	cases := map[string]func(a []*runtime.AccountInfo) []*runtime.AccountInfo{
		"wrong rent":     func(a []*runtime.AccountInfo) []*runtime.AccountInfo { a[1].Key = strangerKey; return a },
		"wrong system":   func(a []*runtime.AccountInfo) []*runtime.AccountInfo { a[2].Key = strangerKey; return a },
		"readonly mint":  func(a []*runtime.AccountInfo) []*runtime.AccountInfo { a[0].IsWritable = false; return a },
		"missing system": func(a []*runtime.AccountInfo) []*runtime.AccountInfo { return a[:2] },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			prims := &fakePrimitives{}
			err := run(t, prims, data, mutate(mintAccounts())...)
			require.Error(t, err)
			if name == "missing system" {
				assert.ErrorIs(t, err, runtime.ErrAccountExhausted)
			} else {
				assert.ErrorIs(t, err, runtime.ErrInvalidAccount)
			}
			assert.Empty(t, prims.mints)
		})
	}
}

func TestInitializeAccountDelegates(t *testing.T) {
	prims := &fakePrimitives{}
	accounts := []*runtime.AccountInfo{
		{Key: tokenAccKey, IsWritable: true},
		{Key: mintKey},
		{Key: ownerKey},
		{Key: consts.SysvarRent},
	}
	require.NoError(t, run(t, prims, tokenix.Pack(tokenix.InitializeAccount{}), accounts...))
	require.Len(t, prims.accounts, 1)
	assert.Equal(t, ownerKey, prims.accounts[0].Owner.Key)

	// 缺少 rent
	err := run(t, prims, []byte{1}, accounts[:3]...)
	assert.ErrorIs(t, err, runtime.ErrAccountExhausted)
	assert.Len(t, prims.accounts, 1)
}

func mintToAccounts(authority *types.Pubkey) []*runtime.AccountInfo {
	return []*runtime.AccountInfo{
		{Key: mintKey, Owner: consts.TokenProgram, IsWritable: true, Data: encodeMint(authority, 6)},
		{Key: tokenAccKey, Owner: consts.TokenProgram, IsWritable: true},
		{Key: authorityKey, IsSigner: true},
	}
}

func TestMintToDelegates(t *testing.T) {
	prims := &fakePrimitives{}
	auth := authorityKey
	require.NoError(t, run(t, prims, tokenix.Pack(tokenix.MintTo{Amount: 42}), mintToAccounts(&auth)...))
	require.Len(t, prims.mintTos, 1)
	assert.Equal(t, uint64(42), prims.mintTos[0].Amount)
	assert.Equal(t, tokenAccKey, prims.mintTos[0].Destination.Key)
}

func TestMintToAuthorityChecks(t *testing.T) {
	data := tokenix.Pack(tokenix.MintTo{Amount: 42})
	auth, other := authorityKey, strangerKey

	t.Run("authority mismatch", func(t *testing.T) {
		prims := &fakePrimitives{}
		err := run(t, prims, data, mintToAccounts(&other)...)
		assert.ErrorIs(t, err, runtime.ErrInvalidAccount)
		assert.Empty(t, prims.mintTos)
	})

	t.Run("no authority", func(t *testing.T) {
		err := run(t, &fakePrimitives{}, data, mintToAccounts(nil)...)
		assert.ErrorIs(t, err, runtime.ErrInvalidAccount)
	})

	t.Run("authority not signer", func(t *testing.T) {
		accounts := mintToAccounts(&auth)
		accounts[2].IsSigner = false
		err := run(t, &fakePrimitives{}, data, accounts...)
		assert.ErrorIs(t, err, runtime.ErrInvalidAccount)
	})

	t.Run("mint not owned by token program", func(t *testing.T) {
		accounts := mintToAccounts(&auth)
		accounts[0].Owner = programID
		err := run(t, &fakePrimitives{}, data, accounts...)
		assert.ErrorIs(t, err, runtime.ErrInvalidAccount)
	})

	t.Run("mint data malformed", func(t *testing.T) {
		accounts := mintToAccounts(&auth)
		accounts[0].Data = accounts[0].Data[:40]
		err := run(t, &fakePrimitives{}, data, accounts...)
		assert.ErrorIs(t, err, runtime.ErrInvalidAccountData)
	})
}

func TestDecodeErrorsSurface(t *testing.T) {
	prims := &fakePrimitives{}

	err := run(t, prims, []byte{0, 7, 0, 0, 0}, mintAccounts()...)
	assert.ErrorIs(t, err, runtime.ErrMalformedPayload)

	err = run(t, prims, []byte{9}, mintAccounts()...)
	assert.ErrorIs(t, err, runtime.ErrInvalidTag)

	assert.Empty(t, prims.mints)
}

func TestDelegationFailurePropagates(t *testing.T) {
	inner := errors.New("mint already in use")
	prims := &fakePrimitives{err: inner}
	data := tokenix.Pack(tokenix.InitializeMint{Decimals: 7, MintAuthority: authorityKey})

	err := run(t, prims, data, mintAccounts()...)
	assert.ErrorIs(t, err, runtime.ErrDelegationFailure)
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, runtime.CodeDelegationFailure, runtime.ErrorCode(err))
}

// captureInvoker 记录 SPLPrimitives 生成的 CPI 指令
type captureInvoker struct {
	ixs      []sdktypes.Instruction
	accounts [][]*runtime.AccountInfo
}

func (c *captureInvoker) Invoke(_ *runtime.InvokeContext, ix sdktypes.Instruction, accounts []*runtime.AccountInfo) error {
	c.ixs = append(c.ixs, ix)
	c.accounts = append(c.accounts, accounts)
	return nil
}

func TestSPLPrimitivesBuildTokenInstructions(t *testing.T) {
	inv := &captureInvoker{}
	proc := NewProcessor(NewSPLPrimitives(inv))
	auth := authorityKey

	steps := []struct {
		data     []byte
		accounts []*runtime.AccountInfo
	}{
		{tokenix.Pack(tokenix.InitializeMint{Decimals: 7, MintAuthority: authorityKey}), mintAccounts()},
		{tokenix.Pack(tokenix.InitializeAccount{}), []*runtime.AccountInfo{
			{Key: tokenAccKey, IsWritable: true}, {Key: mintKey}, {Key: ownerKey}, {Key: consts.SysvarRent},
		}},
		{tokenix.Pack(tokenix.MintTo{Amount: 42}), mintToAccounts(&auth)},
	}
	for _, s := range steps {
		require.NoError(t, proc.Process(runtime.NewInvokeContext(programID, s.accounts), s.data))
	}

	require.Len(t, inv.ixs, 3)
	for _, ix := range inv.ixs {
		assert.Equal(t, common.TokenProgramID, ix.ProgramID)
	}

	assert.Equal(t, byte(sdktoken.InstructionInitializeMint), inv.ixs[0].Data[0])
	assert.Equal(t, byte(7), inv.ixs[0].Data[1])
	assert.Equal(t, common.PublicKey(mintKey), inv.ixs[0].Accounts[0].PubKey)

	assert.Equal(t, byte(sdktoken.InstructionInitializeAccount), inv.ixs[1].Data[0])
	assert.Len(t, inv.accounts[1], 4)

	assert.Equal(t, byte(sdktoken.InstructionMintTo), inv.ixs[2].Data[0])
	assert.Equal(t, uint64(42), binary.LittleEndian.Uint64(inv.ixs[2].Data[1:9]))
	assert.Equal(t, authorityKey, inv.accounts[2][2].Key)
}
