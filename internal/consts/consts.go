package consts

const (
	ChainIDSolana uint32 = 100000
)

// 事件类型：写入 Kafka 的调用结果事件前缀（uint32，小端序）
const (
	EventTypeUnknown      uint32 = 0
	EventTypeRegistryCall uint32 = 1 // 名单注册程序调用结果
	EventTypeTokenCall    uint32 = 2 // Token 指令程序调用结果
)

var EventTypeNames = []string{
	"Unknown",      // 0 (保留)
	"RegistryCall", // 1
	"TokenCall",    // 2
}

func EventTypeName(t uint32) string {
	if int(t) < len(EventTypeNames) {
		return EventTypeNames[t]
	}
	return EventTypeNames[0]
}
