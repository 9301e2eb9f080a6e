package registry

import (
	"encoding/binary"
	"fmt"

	"github.com/near/borsh-go"

	"registry-program-sol/internal/runtime"
	"registry-program-sol/internal/types"
)

// 名单账户数据布局：
//
// [0]      版本号（0 = 未初始化/空名单，1 = 当前版本）
// [1:5]    成员数量 n（u32，小端序，borsh Vec 前缀）
// [5:5+32n] 成员地址（原始 32 字节）
// 其余字节全部为 0
const (
	layoutVersionEmpty uint8 = 0
	layoutVersionV1    uint8 = 1

	layoutHeaderLen = 1
	layoutLenPrefix = 4
)

type listLayout struct {
	Members []types.Pubkey
}

// LayoutSize 容纳 n 个成员所需的账户数据长度
func LayoutSize(n int) int {
	return layoutHeaderLen + layoutLenPrefix + n*types.PubkeyLen
}

// decodeMembers 从账户数据中读取名单成员
func decodeMembers(data []byte) ([]types.Pubkey, error) {
	if len(data) == 0 || data[0] == layoutVersionEmpty {
		return nil, nil
	}
	if data[0] != layoutVersionV1 {
		return nil, fmt.Errorf("%w: unknown list layout version %d", runtime.ErrInvalidAccountData, data[0])
	}
	if len(data) < layoutHeaderLen+layoutLenPrefix {
		return nil, fmt.Errorf("%w: list header truncated, len=%d", runtime.ErrInvalidAccountData, len(data))
	}

	count := uint64(binary.LittleEndian.Uint32(data[layoutHeaderLen:]))
	need := uint64(layoutHeaderLen+layoutLenPrefix) + count*types.PubkeyLen
	if need > uint64(len(data)) {
		return nil, fmt.Errorf("%w: list declares %d members but account holds %d bytes",
			runtime.ErrInvalidAccountData, count, len(data))
	}

	var layout listLayout
	if err := borsh.Deserialize(&layout, data[layoutHeaderLen:need]); err != nil {
		return nil, fmt.Errorf("%w: %v", runtime.ErrInvalidAccountData, err)
	}
	return layout.Members, nil
}

// encodeMembers 将名单整体写入账户数据，剩余字节清零；账户不会扩容
func encodeMembers(members []types.Pubkey, dst []byte) error {
	payload, err := borsh.Serialize(listLayout{Members: members})
	if err != nil {
		return fmt.Errorf("serialize list: %w", err)
	}
	need := layoutHeaderLen + len(payload)
	if need > len(dst) {
		return fmt.Errorf("%w: need %d bytes for %d members, account has %d",
			runtime.ErrAccountDataTooSmall, need, len(members), len(dst))
	}
	dst[0] = layoutVersionV1
	copy(dst[layoutHeaderLen:], payload)
	clear(dst[need:])
	return nil
}

// DecodeList 从账户数据反序列化出名单
func DecodeList(data []byte, policy DuplicatePolicy) (*MembershipList, error) {
	members, err := decodeMembers(data)
	if err != nil {
		return nil, err
	}
	return &MembershipList{policy: policy, members: members}, nil
}

// EncodeList 将名单序列化写回账户数据
func EncodeList(list *MembershipList, dst []byte) error {
	return encodeMembers(list.members, dst)
}
