package constants

import "time"

const (
	CHANNEL_SIZE        = 100     // 通道大小
	REDIS_TIMEOUT       = 1       // redis timeout (分钟)
	MESSAGE_MAX_LENGTH  = 1000    // 私聊消息最大长度（字符）
	SEARCH_MIN_LENGTH   = 2       // 用户搜索关键字最小长度
	SEARCH_MAX_RESULTS  = 10      // 用户搜索最大返回条数
	DEFAULT_PAGE        = 1       // 消息分页默认页码
	MAX_PAGE            = 1000000 // 消息分页最大页码，防止偏移量溢出
	DEFAULT_PAGE_SIZE   = 50      // 消息分页默认条数
	MAX_PAGE_SIZE       = 200     // 消息分页最大条数
	WS_READ_LIMIT       = 65536   // 单帧最大字节数，需容纳 1000 字符经 \u 转义后的最坏情况
	CACHE_WORKER_NUM    = 15      // 缓存 worker 数
	CACHE_TASK_BUF_SIZE = 3000    // 缓存任务缓冲区
)

const (
	WS_WRITE_WAIT  = 10 * time.Second
	WS_PONG_WAIT   = 60 * time.Second
	WS_PING_PERIOD = (WS_PONG_WAIT * 9) / 10
)

// 消息类型
const (
	MessageTypeText   = "text"
	MessageTypeSystem = "system"
)
