package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// StringList 有序字符串列表，兼容旧数据中的单字符串写法
// artist / genre / artists 既可能是 "Nirvana" 也可能是 ["Nirvana"]，统一为列表
type StringList []string

// NewStringList 去掉空白项后构造列表
func NewStringList(values ...string) StringList {
	out := make(StringList, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Join 以分隔符拼接，用于搜索和展示
func (l StringList) Join(sep string) string {
	return strings.Join(l, sep)
}

func (l StringList) clone() StringList {
	if l == nil {
		return nil
	}
	out := make(StringList, len(l))
	copy(out, l)
	return out
}

// MarshalJSON 总是输出数组
func (l StringList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

// UnmarshalJSON 接受字符串、字符串数组或 null
func (l *StringList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*l = StringList{}
		return nil
	}
	if strings.HasPrefix(trimmed, "\"") {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = NewStringList(s)
		return nil
	}
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("expected string or list of strings: %w", err)
	}
	*l = NewStringList(values...)
	return nil
}

// MarshalBSONValue 实现 bson.ValueMarshaler
func (l StringList) MarshalBSONValue() (bsontype.Type, []byte, error) {
	values := []string(l)
	if values == nil {
		values = []string{}
	}
	return bson.MarshalValue(values)
}

// UnmarshalBSONValue 实现 bson.ValueUnmarshaler，兼容字符串与数组两种存储形态
func (l *StringList) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Null, bsontype.Undefined:
		*l = StringList{}
		return nil
	case bsontype.String:
		*l = NewStringList(raw.StringValue())
		return nil
	case bsontype.Array:
		var values []string
		if err := raw.Unmarshal(&values); err != nil {
			return err
		}
		*l = NewStringList(values...)
		return nil
	default:
		return fmt.Errorf("cannot decode %s into StringList", t)
	}
}

// Scan 实现 sql.Scanner 接口
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported StringList column type %T", value)
	}
	if len(bytes) == 0 {
		*l = StringList{}
		return nil
	}
	return l.UnmarshalJSON(bytes)
}

// Value 实现 driver.Valuer 接口
func (l StringList) Value() (driver.Value, error) {
	b, err := l.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
