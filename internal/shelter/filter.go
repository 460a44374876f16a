package shelter

import "strings"

// Filter 返回归一化市镇名包含归一化查询串的避难所，保持原顺序
// 约束：纯函数且幂等；查询串为空（或仅空白）时原样返回全部。
func Filter(ss []Shelter, query string) []Shelter {
	q := Normalize(query)
	out := make([]Shelter, 0, len(ss))
	for _, s := range ss {
		if q == "" || strings.Contains(s.MunicipalityKey(), q) {
			out = append(out, s)
		}
	}
	return out
}

// Matches 单条记录是否通过过滤
func Matches(s Shelter, query string) bool {
	q := Normalize(query)
	return q == "" || strings.Contains(s.MunicipalityKey(), q)
}
