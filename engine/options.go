package engine

import (
	"errors"
	"fmt"
	"reflect"
)

// 已知的选项名
const (
	KeyDestructive            = "destructive"
	KeyBindReceiver           = "bindReceiver"
	KeyPatterns               = "patterns"
	KeyWrapOnlyPatterns       = "wrapOnlyPatterns"
	KeyModifyMessageOnRethrow = "modifyMessageOnRethrow"
	KeySaveContextOnRethrow   = "saveContextOnRethrow"
)

// ErrInvalidOption 选项类型不合法
var ErrInvalidOption = errors.New("engine: invalid option")

// Options 断言插桩引擎的配置（选项名 -> 值）
type Options map[string]any

// Clone 深拷贝配置
// 嵌套的 map 与切片都会复制，调用方可以随意修改返回值
func (o Options) Clone() Options {
	if o == nil {
		return nil
	}
	out := make(Options, len(o))
	for k, v := range o {
		out[k] = cloneValue(v)
	}
	return out
}

// Bool 获取布尔选项，第二个返回值表示键存在且类型为 bool
func (o Options) Bool(key string) (bool, bool) {
	v, ok := o[key].(bool)
	return v, ok
}

// Strings 获取字符串列表选项
// 同时支持 []string 和 []any（YAML/JSON 解码后的形式）
func (o Options) Strings(key string) []string {
	switch v := o[key].(type) {
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Validate 校验已知选项的类型，未知选项原样放行
func Validate(o Options) error {
	for _, key := range []string{KeyDestructive, KeyBindReceiver, KeyModifyMessageOnRethrow, KeySaveContextOnRethrow} {
		v, exists := o[key]
		if !exists {
			continue
		}
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("%w: %s must be a bool, got %T", ErrInvalidOption, key, v)
		}
	}

	for _, key := range []string{KeyPatterns, KeyWrapOnlyPatterns} {
		v, exists := o[key]
		if !exists {
			continue
		}
		switch list := v.(type) {
		case []string:
		case []any:
			for i, item := range list {
				if _, ok := item.(string); !ok {
					return fmt.Errorf("%w: %s[%d] must be a string, got %T", ErrInvalidOption, key, i, item)
				}
			}
		default:
			return fmt.Errorf("%w: %s must be a list of strings, got %T", ErrInvalidOption, key, v)
		}
	}

	return nil
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Options:
		return t.Clone()
	case map[string]any:
		return map[string]any(Options(t).Clone())
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	case map[any]any:
		out := make(map[any]any, len(t))
		for k, item := range t {
			out[k] = cloneValue(item)
		}
		return out
	default:
		return cloneReflect(v)
	}
}

// cloneReflect 复制其他类型的 map 与切片（如 map[string]string、[]int）
func cloneReflect(v any) any {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), cloneElem(iter.Value(), rv.Type().Elem()))
		}
		return out.Interface()
	case reflect.Slice:
		if rv.IsNil() {
			return v
		}
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out.Index(i).Set(cloneElem(rv.Index(i), rv.Type().Elem()))
		}
		return out.Interface()
	default:
		return v
	}
}

// cloneElem 复制元素，结果转换回容器的元素类型
func cloneElem(elem reflect.Value, typ reflect.Type) reflect.Value {
	if !elem.CanInterface() {
		return elem
	}
	if elem.Kind() == reflect.Interface && elem.IsNil() {
		return reflect.Zero(typ)
	}
	cloned := cloneValue(elem.Interface())
	if cloned == nil {
		return reflect.Zero(typ)
	}
	return reflect.ValueOf(cloned).Convert(typ)
}
