// Package pebble 提供基于 cockroachdb/pebble 的嵌入式文档存储
// 适用于单节点部署和测试，文档以 JSON 形式按前缀键存放
//
//	presence/<userId>
//	thread/<chatId>
//	threadpair/<pairKey>        -> chatId
//	userthread/<userId>/<chatId>
//	msg/<chatId>/<zero padded messageId>
//
// 键中的 id 段均经过 escapeSegment 转义，id 中的 "/" 不会越过段边界
package pebble

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/NanduBolleddu/Revu/internal/dao/repository"
	"github.com/NanduBolleddu/Revu/pkg/errorx"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

const (
	prefixPresence   = "presence/"
	prefixThread     = "thread/"
	prefixThreadPair = "threadpair/"
	prefixUserThread = "userthread/"
	prefixMessage    = "msg/"
)

// Store pebble 文档存储
// mu 串行化所有"读-改-写"操作，存储只在单进程内打开
type Store struct {
	db *pebble.DB
	mu sync.Mutex
}

// Open 打开磁盘上的 pebble 数据目录
func Open(path string) (*Store, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// OpenInMemory 打开内存文件系统上的 pebble，用于测试
func OpenInMemory() (*Store, error) {
	db, err := pebble.Open("", &pebble.Options{FS: vfs.NewMem()})
	if err != nil {
		return nil, fmt.Errorf("open in-memory pebble: %w", err)
	}
	return &Store{db: db}, nil
}

// Close 关闭存储
func (s *Store) Close() error {
	return s.db.Close()
}

// Repositories 构造 Repository 聚合
func (s *Store) Repositories() *repository.Repositories {
	return &repository.Repositories{
		Presence: &presenceRepository{s: s},
		Thread:   &threadRepository{s: s},
		Message:  &messageRepository{s: s},
		Ping: func(ctx context.Context) error {
			_, closer, err := s.db.Get([]byte(prefixPresence))
			if err == nil {
				_ = closer.Close()
				return nil
			}
			if errors.Is(err, pebble.ErrNotFound) {
				return nil
			}
			return wrapKVError(err, "ping pebble")
		},
		Close: s.Close,
	}
}

// getJSON 读取并解码文档，不存在返回 CodeNotFound
func (s *Store) getJSON(key string, v any) error {
	data, closer, err := s.db.Get([]byte(key))
	if err != nil {
		return wrapKVErrorf(err, "读取 %s", key)
	}
	defer closer.Close()
	if err := json.Unmarshal(data, v); err != nil {
		return errorx.Wrapf(err, errorx.CodeDBError, "解码 %s", key)
	}
	return nil
}

// getRaw 读取原始值
func (s *Store) getRaw(key string) (string, error) {
	data, closer, err := s.db.Get([]byte(key))
	if err != nil {
		return "", wrapKVErrorf(err, "读取 %s", key)
	}
	defer closer.Close()
	return string(data), nil
}

// setJSON 编码并写入文档
func setJSON(w pebble.Writer, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errorx.Wrapf(err, errorx.CodeDBError, "编码 %s", key)
	}
	return wrapKVErrorf(w.Set([]byte(key), data, pebble.Sync), "写入 %s", key)
}

// scan 正序遍历前缀下的所有键值，fn 返回 false 时停止
func (s *Store) scan(prefix string, fn func(key string, value []byte) (bool, error)) error {
	iter, err := s.db.NewIter(prefixOptions(prefix))
	if err != nil {
		return wrapKVErrorf(err, "遍历 %s", prefix)
	}
	defer iter.Close()
	for valid := iter.First(); valid; valid = iter.Next() {
		more, err := fn(string(iter.Key()), bytes.Clone(iter.Value()))
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}
	return wrapKVErrorf(iter.Error(), "遍历 %s", prefix)
}

// scanReverse 逆序遍历前缀下的所有键值
func (s *Store) scanReverse(prefix string, fn func(key string, value []byte) (bool, error)) error {
	iter, err := s.db.NewIter(prefixOptions(prefix))
	if err != nil {
		return wrapKVErrorf(err, "遍历 %s", prefix)
	}
	defer iter.Close()
	for valid := iter.Last(); valid; valid = iter.Prev() {
		more, err := fn(string(iter.Key()), bytes.Clone(iter.Value()))
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}
	return wrapKVErrorf(iter.Error(), "遍历 %s", prefix)
}

// escapeSegment 转义键中的单个 id 段
func escapeSegment(id string) string {
	return url.PathEscape(id)
}

func unescapeSegment(segment string) (string, error) {
	id, err := url.PathUnescape(segment)
	if err != nil {
		return "", errorx.Wrapf(err, errorx.CodeDBError, "解码键段 %s", segment)
	}
	return id, nil
}

func prefixOptions(prefix string) *pebble.IterOptions {
	return &pebble.IterOptions{
		LowerBound: []byte(prefix),
		UpperBound: []byte(prefix + "\xff"),
	}
}

func wrapKVError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pebble.ErrNotFound) {
		return errorx.Wrap(err, errorx.CodeNotFound, msg)
	}
	return errorx.Wrap(err, errorx.CodeDBError, msg)
}

func wrapKVErrorf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return wrapKVError(err, fmt.Sprintf(format, args...))
}

// padID 将数字字符串左补零到 20 位，使字典序与数值序一致
func padID(id string) string {
	if len(id) >= 20 {
		return id
	}
	return strings.Repeat("0", 20-len(id)) + id
}
