package scoring

// Limit 满贯及以上的档位
type Limit int8

const (
	LimitNone Limit = iota
	LimitMangan
	LimitHaneman
	LimitBaiman
	LimitSanbaiman
	LimitYakuman
	LimitKazoeYakuman // 13 飜以上的累计役满
)

// Label 牌谱中使用的档位名称
func (l Limit) Label() string {
	switch l {
	case LimitMangan:
		return "満貫"
	case LimitHaneman:
		return "跳満"
	case LimitBaiman:
		return "倍満"
	case LimitSanbaiman:
		return "三倍満"
	case LimitYakuman:
		return "役満"
	case LimitKazoeYakuman:
		return "数え役満"
	default:
		return ""
	}
}

func (l Limit) String() string {
	switch l {
	case LimitMangan:
		return "mangan"
	case LimitHaneman:
		return "haneman"
	case LimitBaiman:
		return "baiman"
	case LimitSanbaiman:
		return "sanbaiman"
	case LimitYakuman:
		return "yakuman"
	case LimitKazoeYakuman:
		return "kazoe-yakuman"
	default:
		return "none"
	}
}

// MarshalText 实现 encoding.TextMarshaler
func (l Limit) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// Cost 支付额
// 荣和: Main 为放铳者支付额
// 庄家自摸: Main 为每家支付额
// 闲家自摸: Main 为庄家支付额, Additional 为每个闲家支付额
type Cost struct {
	Main       int   `json:"main"`
	Additional int   `json:"additional"`
	Base       int   `json:"base"`
	Limit      Limit `json:"limit"`
}

// Total 和了者从支付中得到的总额 (不含本场和供托)
func (c Cost) Total(dealer, tsumo bool) int {
	switch {
	case !tsumo:
		return c.Main
	case dealer:
		return c.Main * 3
	default:
		return c.Main + c.Additional*2
	}
}

// BasePoints 基本点
// yakuman 为役满倍数，大于 0 时忽略 han/fu
func BasePoints(han, fu, yakuman int) (int, Limit) {
	switch {
	case yakuman > 0:
		return 8000 * yakuman, LimitYakuman
	case han >= 13:
		return 8000, LimitKazoeYakuman
	case han >= 11:
		return 6000, LimitSanbaiman
	case han >= 8:
		return 4000, LimitBaiman
	case han >= 6:
		return 3000, LimitHaneman
	case han >= 5, han == 4 && fu >= 40, han == 3 && fu >= 70:
		return 2000, LimitMangan
	}

	base := fu << uint(han+2)
	if base > 2000 {
		return 2000, LimitMangan
	}
	return base, LimitNone
}

// ComputeCost 计算支付额
func ComputeCost(han, fu, yakuman int, dealer, tsumo bool) Cost {
	base, limit := BasePoints(han, fu, yakuman)
	cost := Cost{Base: base, Limit: limit}

	switch {
	case !tsumo && dealer:
		cost.Main = roundUp100(base * 6)
	case !tsumo:
		cost.Main = roundUp100(base * 4)
	case dealer:
		cost.Main = roundUp100(base * 2)
	default:
		cost.Main = roundUp100(base * 2)
		cost.Additional = roundUp100(base)
	}
	return cost
}

func roundUp100(points int) int {
	return (points + 99) / 100 * 100
}

// ApplyDoraOverride 手动修正宝牌数后重新计算番数和支付额
// 役满不受宝牌影响
func ApplyDoraOverride(result Result, delta int, dealer, tsumo bool) Result {
	if delta == 0 || result.Yakuman > 0 {
		return result
	}
	result.Han += delta
	if result.Han < 0 {
		result.Han = 0
	}
	result.Dora.Dora += delta
	if result.Dora.Dora < 0 {
		result.Dora.Dora = 0
	}
	result.Cost = ComputeCost(result.Han, result.Fu, 0, dealer, tsumo)
	return result
}
