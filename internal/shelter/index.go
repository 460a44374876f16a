package shelter

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"

	"github.com/paulmach/orb"
)

// Match 最近邻结果
type Match struct {
	Shelter    Shelter
	DistanceKm float64
}

// Index 装载完成后的只读避难所集合
// 约束：构造后不再修改，可被多个协程并发读取；空索引合法（表示装载失败或数据为空）。
type Index struct {
	shelters    []Shelter
	tree        *kdNode
	fingerprint string
}

// NewIndex 按输入顺序分配 ID 并建立 KD-Tree；坐标非法的记录被跳过
func NewIndex(in []Shelter) *Index {
	ss := make([]Shelter, 0, len(in))
	for _, s := range in {
		if !s.Position.Valid() {
			continue
		}
		s.ID = len(ss)
		if s.key == "" {
			s.key = Normalize(s.Municipality)
		}
		ss = append(ss, s)
	}
	ids := make([]int, len(ss))
	for i := range ids {
		ids[i] = i
	}
	return &Index{
		shelters:    ss,
		tree:        buildKD(ss, ids, 0),
		fingerprint: fingerprint(ss),
	}
}

// Empty 空索引
func Empty() *Index { return NewIndex(nil) }

func (x *Index) Len() int { return len(x.shelters) }

// All 全部避难所（数据集顺序）；返回副本
func (x *Index) All() []Shelter {
	out := make([]Shelter, len(x.shelters))
	copy(out, x.shelters)
	return out
}

func (x *Index) Get(id int) (Shelter, bool) {
	if id < 0 || id >= len(x.shelters) {
		return Shelter{}, false
	}
	return x.shelters[id], true
}

// Fingerprint 数据集内容摘要，用作外部缓存键的命名空间
func (x *Index) Fingerprint() string { return x.fingerprint }

// Nearest 距离用户最近的避难所；索引为空或位置非法时返回 false
func (x *Index) Nearest(user Position) (Match, bool) {
	if len(x.shelters) == 0 || !user.Valid() {
		return Match{}, false
	}
	i, d := nearestKD(x.tree, x.shelters, user)
	if i < 0 {
		return Match{}, false
	}
	return Match{Shelter: x.shelters[i], DistanceKm: d}, true
}

// NearestLinear 线性扫描版本，并列时保留先出现者
func (x *Index) NearestLinear(user Position) (Match, bool) {
	if len(x.shelters) == 0 || !user.Valid() {
		return Match{}, false
	}
	best := -1
	bestD := math.Inf(1)
	for i, s := range x.shelters {
		if d := Distance(user, s.Position); d < bestD {
			best, bestD = i, d
		}
	}
	return Match{Shelter: x.shelters[best], DistanceKm: bestD}, true
}

// Filter 按市镇名过滤，见包级 Filter
func (x *Index) Filter(query string) []Shelter { return Filter(x.shelters, query) }

// Within 位于包围盒内的避难所（含边界）
func (x *Index) Within(b orb.Bound) []Shelter {
	var out []Shelter
	for _, s := range x.shelters {
		if b.Contains(s.Position.Point()) {
			out = append(out, s)
		}
	}
	return out
}

func fingerprint(ss []Shelter) string {
	h := fnv.New64a()
	var buf [8]byte
	for _, s := range ss {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(s.Position.Lat))
		h.Write(buf[:])
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(s.Position.Lon))
		h.Write(buf[:])
		h.Write([]byte(s.Address))
		h.Write([]byte{0})
		h.Write([]byte(s.Municipality))
		h.Write([]byte{0})
		h.Write([]byte(s.Capacity.String()))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
