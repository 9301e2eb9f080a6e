package scenario

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/near/borsh-go"
	"gopkg.in/yaml.v3"

	"registry-program-sol/internal/consts"
	"registry-program-sol/internal/ledger"
	"registry-program-sol/internal/registry"
	"registry-program-sol/internal/runtime"
	"registry-program-sol/internal/tokenix"
	"registry-program-sol/internal/types"
)

// Scenario 一组预置账户加按顺序回放的调用
type Scenario struct {
	Accounts []AccountSpec `yaml:"accounts"`
	Steps    []Step        `yaml:"steps"`
}

// AccountSpec 预置账户。key 为空时由 name 派生固定地址。
// 数据来源三选一：list_capacity（名单布局）、mint（SPL mint 布局）、data_hex；都没有时按 space 填 0。
type AccountSpec struct {
	Name         string    `yaml:"name"`
	Key          string    `yaml:"key"`
	Owner        string    `yaml:"owner"` // registry / token / spl_token / system / base58
	Lamports     uint64    `yaml:"lamports"`
	Space        int       `yaml:"space"`
	ListCapacity int       `yaml:"list_capacity"`
	Mint         *MintSpec `yaml:"mint"`
	DataHex      string    `yaml:"data_hex"`
}

type MintSpec struct {
	Authority string `yaml:"authority"` // 账户名或 base58，为空表示无 mint authority
	Decimals  uint8  `yaml:"decimals"`
	Supply    uint64 `yaml:"supply"`
}

// AccountRef 调用中引用的账户
type AccountRef struct {
	Name     string `yaml:"name"`
	Signer   bool   `yaml:"signer"`
	Writable bool   `yaml:"writable"`
}

// Step 一次调用。registry 程序的 accounts 依次为 [消费者名单, 商店名单, 目标]，权限由指令构造器决定。
type Step struct {
	Program   string       `yaml:"program"` // registry / token
	Op        string       `yaml:"op"`
	Accounts  []AccountRef `yaml:"accounts"`
	Decimals  int          `yaml:"decimals"`
	Authority string       `yaml:"authority"`
	Amount    uint64       `yaml:"amount"`
	Expect    string       `yaml:"expect"` // 期望的错误名（见 ExpectCode），为空表示成功
}

// Programs 回放使用的程序地址
type Programs struct {
	Registry types.Pubkey
	Token    types.Pubkey
	SPLToken types.Pubkey
}

// PlannedStep 已解析的调用
type PlannedStep struct {
	Name       string
	Invocation ledger.Invocation
	ExpectCode uint32
}

// Plan 已解析的场景
type Plan struct {
	Records []*ledger.Record
	Steps   []PlannedStep
	Names   map[types.Pubkey]string
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	return &s, nil
}

var registryOps = map[string]registry.Instruction{
	"add_consumer":    registry.AddConsumer,
	"remove_consumer": registry.RemoveConsumer,
	"check_consumer":  registry.CheckConsumer,
	"add_store":       registry.AddStore,
	"remove_store":    registry.RemoveStore,
}

var expectCodes = map[string]uint32{
	"":                       runtime.CodeSuccess,
	"ok":                     runtime.CodeSuccess,
	"ownership_mismatch":     runtime.CodeOwnershipMismatch,
	"account_exhausted":      runtime.CodeAccountExhausted,
	"invalid_opcode":         runtime.CodeInvalidOpcode,
	"invalid_tag":            runtime.CodeInvalidTag,
	"malformed_payload":      runtime.CodeMalformedPayload,
	"delegation_failure":     runtime.CodeDelegationFailure,
	"invalid_account":        runtime.CodeInvalidAccount,
	"invalid_account_data":   runtime.CodeInvalidAccountData,
	"account_data_too_small": runtime.CodeAccountDataTooSmall,
}

// ExpectCode 将期望的错误名转换为结果码
func ExpectCode(name string) (uint32, error) {
	code, ok := expectCodes[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("unknown expect %q", name)
	}
	return code, nil
}

// deriveKey 由账户名派生固定地址
func deriveKey(name string) types.Pubkey {
	return types.Pubkey(sha256.Sum256([]byte("scenario:" + name)))
}

// builtinAccounts 场景中可直接引用的系统地址
var builtinAccounts = map[string]types.Pubkey{
	"system_program": consts.SystemProgram,
	"sysvar_rent":    consts.SysvarRent,
}

type resolver struct {
	programs Programs
	keys     map[string]types.Pubkey
}

// key 解析账户名或 base58 地址
func (r *resolver) key(ref string) (types.Pubkey, error) {
	if k, ok := r.keys[ref]; ok {
		return k, nil
	}
	if k, ok := builtinAccounts[ref]; ok {
		return k, nil
	}
	k, err := types.TryPubkeyFromBase58(ref)
	if err != nil {
		return types.Pubkey{}, fmt.Errorf("unknown account %q", ref)
	}
	return k, nil
}

func (r *resolver) owner(s string) (types.Pubkey, error) {
	switch strings.ToLower(s) {
	case "", "system":
		return consts.SystemProgram, nil
	case "registry":
		return r.programs.Registry, nil
	case "token":
		return r.programs.Token, nil
	case "spl_token":
		return r.programs.SPLToken, nil
	default:
		return r.key(s)
	}
}

// Resolve 将场景解析为账户记录与调用序列
func (s *Scenario) Resolve(programs Programs) (*Plan, error) {
	r := &resolver{programs: programs, keys: make(map[string]types.Pubkey, len(s.Accounts))}
	plan := &Plan{Names: make(map[types.Pubkey]string, len(s.Accounts))}

	// 先登记全部名字，允许 mint.authority 引用后声明的账户
	for _, a := range s.Accounts {
		if a.Name == "" {
			return nil, fmt.Errorf("account without name")
		}
		if _, dup := r.keys[a.Name]; dup {
			return nil, fmt.Errorf("duplicate account name %q", a.Name)
		}
		key := deriveKey(a.Name)
		if a.Key != "" {
			k, err := types.TryPubkeyFromBase58(a.Key)
			if err != nil {
				return nil, fmt.Errorf("account %s: %w", a.Name, err)
			}
			key = k
		}
		r.keys[a.Name] = key
		plan.Names[key] = a.Name
	}

	for _, a := range s.Accounts {
		rec, err := r.record(a)
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", a.Name, err)
		}
		plan.Records = append(plan.Records, rec)
	}

	for i, st := range s.Steps {
		ps, err := r.step(st)
		if err != nil {
			return nil, fmt.Errorf("step #%d (%s %s): %w", i, st.Program, st.Op, err)
		}
		ps.Name = fmt.Sprintf("#%d %s.%s", i, st.Program, st.Op)
		plan.Steps = append(plan.Steps, ps)
	}
	return plan, nil
}

func (r *resolver) record(a AccountSpec) (*ledger.Record, error) {
	owner, err := r.owner(a.Owner)
	if err != nil {
		return nil, err
	}
	rec := &ledger.Record{Key: r.keys[a.Name], Owner: owner, Lamports: a.Lamports}

	switch {
	case a.ListCapacity > 0:
		rec.Data = make([]byte, registry.LayoutSize(a.ListCapacity))
	case a.Mint != nil:
		rec.Data, err = r.mintData(a.Mint)
	case a.DataHex != "":
		rec.Data, err = hex.DecodeString(a.DataHex)
	default:
		rec.Data = make([]byte, a.Space)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// splMint SPL Token mint 账户布局（82 字节），COption 标签为 u32
type splMint struct {
	AuthorityOption uint32
	Authority       types.Pubkey
	Supply          uint64
	Decimals        uint8
	IsInitialized   bool
	FreezeOption    uint32
	FreezeAuthority types.Pubkey
}

func (r *resolver) mintData(m *MintSpec) ([]byte, error) {
	mint := splMint{Supply: m.Supply, Decimals: m.Decimals, IsInitialized: true}
	if m.Authority != "" {
		auth, err := r.key(m.Authority)
		if err != nil {
			return nil, err
		}
		mint.AuthorityOption = 1
		mint.Authority = auth
	}
	return borsh.Serialize(mint)
}

func (r *resolver) step(st Step) (PlannedStep, error) {
	var ps PlannedStep
	code, err := ExpectCode(st.Expect)
	if err != nil {
		return ps, err
	}
	ps.ExpectCode = code

	switch strings.ToLower(st.Program) {
	case "registry":
		ps.Invocation, err = r.registryInvocation(st)
	case "token":
		ps.Invocation, err = r.tokenInvocation(st)
	default:
		err = fmt.Errorf("unknown program %q", st.Program)
	}
	return ps, err
}

func (r *resolver) registryInvocation(st Step) (ledger.Invocation, error) {
	ix, ok := registryOps[strings.ToLower(st.Op)]
	if !ok {
		return ledger.Invocation{}, fmt.Errorf("unknown registry op %q", st.Op)
	}
	if len(st.Accounts) != 3 {
		return ledger.Invocation{}, fmt.Errorf("registry op needs 3 accounts, got %d", len(st.Accounts))
	}
	var keys [3]types.Pubkey
	for i, ref := range st.Accounts {
		k, err := r.key(ref.Name)
		if err != nil {
			return ledger.Invocation{}, err
		}
		keys[i] = k
	}
	sdkIx, err := registry.NewInstruction(r.programs.Registry, keys[0], keys[1], keys[2], ix)
	if err != nil {
		return ledger.Invocation{}, err
	}
	return ledger.InvocationFromInstruction(sdkIx), nil
}

func (r *resolver) tokenInvocation(st Step) (ledger.Invocation, error) {
	var ix tokenix.TokenInstruction
	switch strings.ToLower(st.Op) {
	case "initialize_mint":
		if st.Decimals < 0 || st.Decimals > 255 {
			return ledger.Invocation{}, fmt.Errorf("decimals %d out of range", st.Decimals)
		}
		auth, err := r.key(st.Authority)
		if err != nil {
			return ledger.Invocation{}, err
		}
		ix = tokenix.InitializeMint{Decimals: uint8(st.Decimals), MintAuthority: auth}
	case "initialize_account":
		ix = tokenix.InitializeAccount{}
	case "mint_to":
		ix = tokenix.MintTo{Amount: st.Amount}
	default:
		return ledger.Invocation{}, fmt.Errorf("unknown token op %q", st.Op)
	}

	inv := ledger.Invocation{ProgramID: r.programs.Token, Data: tokenix.Pack(ix)}
	for _, ref := range st.Accounts {
		k, err := r.key(ref.Name)
		if err != nil {
			return ledger.Invocation{}, err
		}
		inv.Accounts = append(inv.Accounts, ledger.AccountMeta{Key: k, IsSigner: ref.Signer, IsWritable: ref.Writable})
	}
	return inv, nil
}
