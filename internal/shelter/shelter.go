package shelter

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// Unknown 缺失字段的展示占位
const Unknown = "Unknown"

// Capacity 可容纳人数；Known 为 false 时展示占位
type Capacity struct {
	People int
	Known  bool
}

// CapacityOf 由人数构造容量；0 与负数按缺失处理
func CapacityOf(n int) Capacity {
	if n <= 0 {
		return Capacity{}
	}
	return Capacity{People: n, Known: true}
}

func (c Capacity) String() string {
	if !c.Known {
		return Unknown
	}
	return strconv.Itoa(c.People)
}

// Shelter 单个避难所
type Shelter struct {
	ID           int
	Position     Position
	Address      string
	Municipality string
	Capacity     Capacity

	// municipality 的归一化形式，用于不区分大小写的子串匹配
	key string
}

// Attrs 来自数据源的可选属性，空字符串表示缺失
type Attrs struct {
	Address      string
	Municipality string
	Capacity     Capacity
}

// New 构造避难所并补齐占位；ID 由索引在装载时分配
func New(pos Position, a Attrs) (Shelter, error) {
	if !pos.Valid() {
		return Shelter{}, ErrInvalidPosition
	}
	s := Shelter{
		Position:     pos,
		Address:      orUnknown(a.Address),
		Municipality: orUnknown(a.Municipality),
		Capacity:     a.Capacity,
	}
	s.key = Normalize(s.Municipality)
	return s, nil
}

// MunicipalityKey 归一化后的市镇名
func (s Shelter) MunicipalityKey() string {
	if s.key == "" {
		return Normalize(s.Municipality)
	}
	return s.key
}

// Normalize 去除首尾空白并做大小写折叠
// 约束：cases.Caser 有状态，不能跨协程共享，这里每次新建
func Normalize(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return Unknown
	}
	return s
}
