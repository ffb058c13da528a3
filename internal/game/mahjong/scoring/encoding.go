package scoring

import "sudooom.kifu/internal/game/mahjong/core"

// Variant 副露的一种提交编码
// 评分服务对副露写法比较挑剔，同一手牌按固定顺序尝试多种写法
type Variant struct {
	Name      string
	Transform func(Request) Request
}

// Variants 提交顺序固定
var Variants = []Variant{
	{Name: "canonical", Transform: func(r Request) Request { return r }},
	{Name: "collapsed-quads", Transform: collapseQuads},
	{Name: "collapsed-forced-called", Transform: chain(collapseQuads, forceCalled)},
	{Name: "stripped-called", Transform: stripCalled},
	{Name: "collapsed-stripped-called", Transform: chain(collapseQuads, stripCalled)},
	{Name: "collapsed-red-normalized", Transform: chain(collapseQuads, normalizeRedMelds)},
}

// Apply 对请求的副本应用变换
func (v Variant) Apply(r Request) Request {
	return v.Transform(r.Clone())
}

func chain(steps ...func(Request) Request) func(Request) Request {
	return func(r Request) Request {
		for _, step := range steps {
			r = step(r)
		}
		return r
	}
}

// collapseQuads 大明杠/暗杠/加杠统一写成 kan
func collapseQuads(r Request) Request {
	for i := range r.Melds {
		switch r.Melds[i].Kind {
		case "minkan", "ankan", "kakan", "shouminkan", "daiminkan":
			r.Melds[i].Kind = "kan"
		}
	}
	return r
}

// forceCalled 确保被叫的牌以原样出现在副露牌中
func forceCalled(r Request) Request {
	for i := range r.Melds {
		m := &r.Melds[i]
		if m.CalledTile == nil || core.CountTile(m.Tiles, *m.CalledTile) > 0 {
			continue
		}
		if idx := core.IndexOf(m.Tiles, *m.CalledTile); idx >= 0 {
			m.Tiles[idx] = *m.CalledTile
		} else {
			m.Tiles = append(m.Tiles, *m.CalledTile)
		}
	}
	return r
}

// stripCalled 副露牌中去掉被叫的那一张
func stripCalled(r Request) Request {
	for i := range r.Melds {
		m := &r.Melds[i]
		if m.CalledTile == nil {
			continue
		}
		m.Tiles, _ = core.RemoveTile(m.Tiles, *m.CalledTile)
	}
	return r
}

// normalizeRedMelds 副露中的赤五写成普通五
func normalizeRedMelds(r Request) Request {
	for i := range r.Melds {
		m := &r.Melds[i]
		m.Tiles = core.NormalizeTiles(m.Tiles)
		if m.CalledTile != nil {
			called := m.CalledTile.Normalized()
			m.CalledTile = &called
		}
	}
	return r
}
