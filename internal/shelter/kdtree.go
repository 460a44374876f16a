package shelter

import "math"

// KD-Tree 最近邻（二维经纬）
// 约束：按经度/纬度交替分割；剪枝使用球面距离的严格下界，结果与线性扫描一致（含并列取最小 ID）。
type kdNode struct {
	i  int // 索引中的下标
	ax int // 0:lon,1:lat
	l  *kdNode
	r  *kdNode
}

// 容忍浮点误差的剪枝余量（千米）
const pruneEpsKm = 1e-9

func buildKD(ss []Shelter, ids []int, depth int) *kdNode {
	if len(ids) == 0 {
		return nil
	}
	ax := depth % 2
	mid := len(ids) / 2
	selectNth(ss, ids, mid, ax)
	n := &kdNode{i: ids[mid], ax: ax}
	n.l = buildKD(ss, ids[:mid], depth+1)
	n.r = buildKD(ss, ids[mid+1:], depth+1)
	return n
}

// 原地第 n 小元素选择
func selectNth(ss []Shelter, a []int, n, ax int) {
	lo, hi := 0, len(a)-1
	for lo < hi {
		p := partition(ss, a, lo, hi, (lo+hi)/2, ax)
		if p == n {
			return
		}
		if n < p {
			hi = p - 1
		} else {
			lo = p + 1
		}
	}
}

func partition(ss []Shelter, a []int, lo, hi, pivot, ax int) int {
	pv := axisValue(ss[a[pivot]].Position, ax)
	a[pivot], a[hi] = a[hi], a[pivot]
	i := lo
	for j := lo; j < hi; j++ {
		if axisValue(ss[a[j]].Position, ax) < pv {
			a[i], a[j] = a[j], a[i]
			i++
		}
	}
	a[i], a[hi] = a[hi], a[i]
	return i
}

func axisValue(p Position, ax int) float64 {
	if ax == 0 {
		return p.Lon
	}
	return p.Lat
}

// nearestKD 返回最近点下标与距离；树为空时下标为 -1
func nearestKD(root *kdNode, ss []Shelter, pt Position) (int, float64) {
	best := -1
	bestD := math.Inf(1)
	var dfs func(n *kdNode)
	dfs = func(n *kdNode) {
		if n == nil {
			return
		}
		d := Distance(pt, ss[n.i].Position)
		if d < bestD || (d == bestD && n.i < best) {
			best, bestD = n.i, d
		}
		q := axisValue(ss[n.i].Position, n.ax)
		key := axisValue(pt, n.ax)
		first, second := n.l, n.r
		if key > q {
			first, second = n.r, n.l
		}
		dfs(first)
		if second != nil && splitLowerBound(pt, n.ax, q)-pruneEpsKm <= bestD {
			dfs(second)
		}
	}
	dfs(root)
	return best, bestD
}

// splitLowerBound 查询点到分割面另一侧任意点的球面距离下界（千米）
// 纬度轴：跨越纬线 q 至少走过经向距离 |Δφ|·R。
// 经度轴：另一侧区域以经线 q 与 ±180 经线为界，取到两条半经线距离的较小值。
func splitLowerBound(pt Position, ax int, q float64) float64 {
	if ax == 1 {
		return EarthRadiusKm * math.Abs(pt.Lat-q) * math.Pi / 180
	}
	return math.Min(halfMeridianDistance(pt, q), halfMeridianDistance(pt, 180))
}

// halfMeridianDistance 点到经度 lon0 的半条经线（极点到极点）的最短距离
func halfMeridianDistance(pt Position, lon0 float64) float64 {
	d := math.Abs(math.Mod(pt.Lon-lon0, 360))
	if d > 180 {
		d = 360 - d
	}
	phi := pt.Lat * math.Pi / 180
	if d > 90 {
		return EarthRadiusKm * (math.Pi/2 - math.Abs(phi))
	}
	x := math.Cos(phi) * math.Sin(d*math.Pi/180)
	if x > 1 {
		x = 1
	}
	return EarthRadiusKm * math.Asin(x)
}
