package core

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX）
//
// 错误处理分级（贯穿整个引擎）：
//   - WRITE_FAILED：事件落盘失败，对触发请求是致命的，必须上抛让调用方重试
//   - NOT_FOUND：画像缺失从不是错误（返回默认画像）；仅存储层内部使用
//   - TIMEOUT：单个召回源超时，本地恢复（该策略退出融合），不上抛
//   - INCONSISTENT：概念图悬挂边等，下次访问时自愈
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "WRITE_FAILED"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "event", "graph"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError 创建新的领域错误。
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{Module: module, Code: code, Message: message}
}

// GetDomainError 获取 DomainError，如果不是则返回 nil。
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	if domainErr, ok := err.(*DomainError); ok {
		return domainErr
	}
	return nil
}

// 错误代码常量
const (
	ErrorCodeNotFound     = "NOT_FOUND"     // 资源不存在
	ErrorCodeNotSupported = "NOT_SUPPORTED" // 操作不支持
	ErrorCodeWriteFailed  = "WRITE_FAILED"  // 持久化写入失败（致命）
	ErrorCodeTimeout      = "TIMEOUT"       // 召回源超时（本地恢复）
	ErrorCodeInconsistent = "INCONSISTENT"  // 图不一致（自愈）
	ErrorCodeUnavailable  = "UNAVAILABLE"   // 服务不可用
)

// 模块名称常量
const (
	ModuleStore   = "store"
	ModuleEvent   = "event"
	ModuleProfile = "profile"
	ModuleCatalog = "catalog"
	ModuleGraph   = "graph"
	ModuleRecall  = "recall"
)

// 预定义错误实例

var (
	// ErrStoreNotFound 表示 key 不存在。
	ErrStoreNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: key not found")

	// ErrStoreNotSupported 表示操作不支持。
	ErrStoreNotSupported = NewDomainError(ModuleStore, ErrorCodeNotSupported, "store: operation not supported")

	// ErrWriteFailed 表示事件追加失败；交互未被持久记录，画像不会推进。
	ErrWriteFailed = NewDomainError(ModuleEvent, ErrorCodeWriteFailed, "event: append failed")
)

// IsNotFound 检查错误是否为 NOT_FOUND。
func IsNotFound(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}

// IsWriteFailed 检查错误是否为持久化写入失败。
func IsWriteFailed(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeWriteFailed
	}
	return false
}

// IsTimeout 检查错误是否为召回源超时。
func IsTimeout(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeTimeout
	}
	return false
}

// IsNotSupported 检查错误是否为 NOT_SUPPORTED。
func IsNotSupported(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotSupported
	}
	return false
}
