package registry

import (
	"slices"

	"registry-program-sol/internal/types"
)

// DuplicatePolicy 决定重复添加同一账户时的行为
type DuplicatePolicy uint8

const (
	// AllowDuplicates 重复添加会产生重复条目（链上既有行为）
	AllowDuplicates DuplicatePolicy = iota
	// RejectDuplicates 已存在的账户再次添加时忽略
	RejectDuplicates
)

func (p DuplicatePolicy) String() string {
	switch p {
	case AllowDuplicates:
		return "allow"
	case RejectDuplicates:
		return "reject"
	default:
		return "unknown"
	}
}

// MembershipList 有序的账户名单（消费者名单、商店名单共用此结构）。
// 非并发安全，生命周期限定在单次调用内。
type MembershipList struct {
	policy  DuplicatePolicy
	members []types.Pubkey
}

func NewMembershipList(policy DuplicatePolicy, members ...types.Pubkey) *MembershipList {
	return &MembershipList{policy: policy, members: slices.Clone(members)}
}

// Add 追加到名单末尾，返回是否实际写入
func (l *MembershipList) Add(item types.Pubkey) bool {
	if l.policy == RejectDuplicates && l.Contains(item) {
		return false
	}
	l.members = append(l.members, item)
	return true
}

// Remove 删除第一个相等的元素，保持其余元素的相对顺序；不存在时不做任何修改
func (l *MembershipList) Remove(item types.Pubkey) bool {
	idx := slices.Index(l.members, item)
	if idx < 0 {
		return false
	}
	l.members = slices.Delete(l.members, idx, idx+1)
	return true
}

func (l *MembershipList) Contains(item types.Pubkey) bool {
	return slices.Contains(l.members, item)
}

func (l *MembershipList) Len() int {
	return len(l.members)
}

// Members 返回名单副本
func (l *MembershipList) Members() []types.Pubkey {
	return slices.Clone(l.members)
}

func (l *MembershipList) Policy() DuplicatePolicy {
	return l.policy
}
