package cctx

import (
	"context"
)

// ----------------- 内部类型 -----------------

type bagKeyType struct{}

var bagKey bagKeyType

// bag 是不可变语义的键值容器：每次写入时都会复制一份
type bag map[string]any

func bagFrom(ctx context.Context) bag {
	if ctx == nil {
		return nil
	}
	if b, ok := ctx.Value(bagKey).(bag); ok && b != nil {
		return b
	}
	return nil
}

// 深拷贝：只对 map[string]any / map[string]string / []any 递归 copy，其它类型按值赋
func deepCopy(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return deepCopyMap(x)
	case map[string]string:
		out := make(map[string]string, len(x))
		for k, s := range x {
			out[k] = s
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = deepCopy(x[i])
		}
		return out
	default:
		return v
	}
}

func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopy(v)
	}
	return out
}

// ----------------- 对外 API -----------------

// With 在现有 ctx 上写入一条 k/v，返回新 ctx（不可变）
func With(ctx context.Context, key string, val any) context.Context {
	return WithMany(ctx, map[string]any{key: val})
}

// WithMany 一次写入多条键值（不可变）
func WithMany(ctx context.Context, kv map[string]any) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	old := bagFrom(ctx)
	newMap := make(map[string]any, len(old)+len(kv))
	for k, v := range old {
		newMap[k] = v
	}
	for k, v := range kv {
		newMap[k] = deepCopy(v)
	}
	return context.WithValue(ctx, bagKey, bag(newMap))
}

// Get 读取一个键
func Get(ctx context.Context, key string) (any, bool) {
	if b := bagFrom(ctx); b != nil {
		v, ok := b[key]
		return v, ok
	}
	return nil, false
}

// GetAs 读取并断言为 T
func GetAs[T any](ctx context.Context, key string) (T, bool) {
	var zero T
	v, ok := Get(ctx, key)
	if !ok {
		return zero, false
	}
	tv, ok := v.(T)
	if !ok {
		return zero, false
	}
	return tv, true
}

// All 返回 Bag 的深拷贝
func All(ctx context.Context) map[string]any {
	if b := bagFrom(ctx); b != nil {
		return deepCopyMap(b)
	}
	return map[string]any{}
}

// AllAs 过滤出能断言为 T 的键值（返回新 map）
func AllAs[T any](ctx context.Context) map[string]T {
	res := make(map[string]T)
	if b := bagFrom(ctx); b != nil {
		for k, v := range b {
			if tv, ok := v.(T); ok {
				res[k] = tv
			}
		}
	}
	return res
}
