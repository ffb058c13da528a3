package scoring

import (
	"fmt"
	"log/slog"
	"strings"
)

// yakuDef 役种表条目
type yakuDef struct {
	Name      string
	Label     string
	HanClosed int
	HanOpen   int // 0 表示副露后不成立
	Yakuman   int
	Dora      bool
	Aliases   []string
}

var yakuTable = []yakuDef{
	{Name: "Menzen Tsumo", Label: "門前清自摸和", HanClosed: 1, Aliases: []string{"tsumo", "menzentsumo", "fullyconcealedhand"}},
	{Name: "Riichi", Label: "立直", HanClosed: 1, Aliases: []string{"reach"}},
	{Name: "Ippatsu", Label: "一発", HanClosed: 1},
	{Name: "Chankan", Label: "槍槓", HanClosed: 1, HanOpen: 1},
	{Name: "Rinshan Kaihou", Label: "嶺上開花", HanClosed: 1, HanOpen: 1, Aliases: []string{"rinshan"}},
	{Name: "Haitei Raoyue", Label: "海底摸月", HanClosed: 1, HanOpen: 1, Aliases: []string{"haitei"}},
	{Name: "Houtei Raoyui", Label: "河底撈魚", HanClosed: 1, HanOpen: 1, Aliases: []string{"houtei"}},
	{Name: "Pinfu", Label: "平和", HanClosed: 1},
	{Name: "Tanyao", Label: "断幺九", HanClosed: 1, HanOpen: 1, Aliases: []string{"allsimples"}},
	{Name: "Iipeiko", Label: "一盃口", HanClosed: 1, Aliases: []string{"iipeikou"}},
	{Name: "Yakuhai (seat wind east)", Label: "自風 東", HanClosed: 1, HanOpen: 1},
	{Name: "Yakuhai (seat wind south)", Label: "自風 南", HanClosed: 1, HanOpen: 1},
	{Name: "Yakuhai (seat wind west)", Label: "自風 西", HanClosed: 1, HanOpen: 1},
	{Name: "Yakuhai (seat wind north)", Label: "自風 北", HanClosed: 1, HanOpen: 1},
	{Name: "Yakuhai (round wind east)", Label: "場風 東", HanClosed: 1, HanOpen: 1},
	{Name: "Yakuhai (round wind south)", Label: "場風 南", HanClosed: 1, HanOpen: 1},
	{Name: "Yakuhai (round wind west)", Label: "場風 西", HanClosed: 1, HanOpen: 1},
	{Name: "Yakuhai (round wind north)", Label: "場風 北", HanClosed: 1, HanOpen: 1},
	{Name: "Yakuhai (wind of place)", Label: "自風牌", HanClosed: 1, HanOpen: 1, Aliases: []string{"seatwind"}},
	{Name: "Yakuhai (wind of round)", Label: "場風牌", HanClosed: 1, HanOpen: 1, Aliases: []string{"roundwind", "prevalentwind"}},
	{Name: "Yakuhai (haku)", Label: "役牌 白", HanClosed: 1, HanOpen: 1, Aliases: []string{"haku"}},
	{Name: "Yakuhai (hatsu)", Label: "役牌 發", HanClosed: 1, HanOpen: 1, Aliases: []string{"hatsu"}},
	{Name: "Yakuhai (chun)", Label: "役牌 中", HanClosed: 1, HanOpen: 1, Aliases: []string{"chun"}},
	{Name: "Double Riichi", Label: "両立直", HanClosed: 2, Aliases: []string{"dabururiichi", "daburiichi"}},
	{Name: "Chiitoitsu", Label: "七対子", HanClosed: 2, Aliases: []string{"sevenpairs"}},
	{Name: "Chantai", Label: "混全帯幺九", HanClosed: 2, HanOpen: 1, Aliases: []string{"chanta"}},
	{Name: "Ittsu", Label: "一気通貫", HanClosed: 2, HanOpen: 1, Aliases: []string{"ikkitsuukan"}},
	{Name: "Sanshoku Doujun", Label: "三色同順", HanClosed: 2, HanOpen: 1, Aliases: []string{"sanshoku"}},
	{Name: "Sanshoku Doukou", Label: "三色同刻", HanClosed: 2, HanOpen: 2},
	{Name: "San Kantsu", Label: "三槓子", HanClosed: 2, HanOpen: 2, Aliases: []string{"sankantsu"}},
	{Name: "Toitoi", Label: "対々和", HanClosed: 2, HanOpen: 2, Aliases: []string{"toitoihou"}},
	{Name: "San Ankou", Label: "三暗刻", HanClosed: 2, HanOpen: 2, Aliases: []string{"sanankou"}},
	{Name: "Shou Sangen", Label: "小三元", HanClosed: 2, HanOpen: 2, Aliases: []string{"shousangen"}},
	{Name: "Honroutou", Label: "混老頭", HanClosed: 2, HanOpen: 2},
	{Name: "Ryanpeikou", Label: "二盃口", HanClosed: 3},
	{Name: "Junchan", Label: "純全帯幺九", HanClosed: 3, HanOpen: 2},
	{Name: "Honitsu", Label: "混一色", HanClosed: 3, HanOpen: 2},
	{Name: "Chinitsu", Label: "清一色", HanClosed: 6, HanOpen: 5},
	{Name: "Nagashi Mangan", Label: "流し満貫", HanClosed: 5, HanOpen: 5},
	{Name: "Renhou", Label: "人和", HanClosed: 5},
	{Name: "Tenhou", Label: "天和", Yakuman: 1},
	{Name: "Chiihou", Label: "地和", Yakuman: 1},
	{Name: "Renhou (yakuman)", Label: "人和", Yakuman: 1},
	{Name: "Kokushi Musou", Label: "国士無双", Yakuman: 1, Aliases: []string{"kokushi", "thirteenorphans"}},
	{Name: "Kokushi Musou Juusanmen Matchi", Label: "国士無双１３面", Yakuman: 2},
	{Name: "Suu Ankou", Label: "四暗刻", Yakuman: 1, Aliases: []string{"suuankou"}},
	{Name: "Suu Ankou Tanki", Label: "四暗刻単騎", Yakuman: 2},
	{Name: "Daisangen", Label: "大三元", Yakuman: 1},
	{Name: "Shousuushii", Label: "小四喜", Yakuman: 1},
	{Name: "Dai Suushii", Label: "大四喜", Yakuman: 2, Aliases: []string{"daisuushii"}},
	{Name: "Tsuu Iisou", Label: "字一色", Yakuman: 1, Aliases: []string{"tsuuiisou"}},
	{Name: "Ryuuiisou", Label: "緑一色", Yakuman: 1},
	{Name: "Chinroutou", Label: "清老頭", Yakuman: 1},
	{Name: "Chuuren Poutou", Label: "九蓮宝燈", Yakuman: 1, Aliases: []string{"chuurenpoutou"}},
	{Name: "Daburu Chuuren Poutou", Label: "純正九蓮宝燈", Yakuman: 2},
	{Name: "Suu Kantsu", Label: "四槓子", Yakuman: 1, Aliases: []string{"suukantsu"}},
	{Name: "Daichisei", Label: "大七星", Yakuman: 1},
	{Name: "Paarenchan", Label: "八連荘", Yakuman: 1},
	{Name: "Dora", Label: "ドラ", Dora: true},
	{Name: "Ura Dora", Label: "裏ドラ", Dora: true, Aliases: []string{"uradora"}},
	{Name: "Aka Dora", Label: "赤ドラ", Dora: true, Aliases: []string{"akadora", "reddora"}},
}

var yakuIndex = buildYakuIndex()

func buildYakuIndex() map[string]int {
	index := make(map[string]int, len(yakuTable)*2)
	for i, def := range yakuTable {
		index[normalizeKey(def.Name)] = i
		for _, alias := range def.Aliases {
			index[normalizeKey(alias)] = i
		}
	}
	return index
}

// normalizeKey 忽略大小写、空白和标点
func normalizeKey(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Yaku 规范化后的役
type Yaku struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	Han     int    `json:"han"`
	Yakuman int    `json:"yakuman"`
	Known   bool   `json:"known"`
}

// KifuString 牌谱中的役文字，如 "立直(1飜)" "国士無双(役満)"
func (y Yaku) KifuString() string {
	if y.Yakuman > 0 {
		return y.Label + "(役満)"
	}
	return fmt.Sprintf("%s(%d飜)", y.Label, y.Han)
}

// LookupYaku 按名称查表
func LookupYaku(name string) (Yaku, bool) {
	i, ok := yakuIndex[normalizeKey(name)]
	if !ok {
		return Yaku{}, false
	}
	def := yakuTable[i]
	return Yaku{Name: def.Name, Label: def.Label, Han: def.HanClosed, Yakuman: def.Yakuman, Known: true}, true
}

// NormalizeYaku 把评分服务返回的役名规范化
// 重复出现的宝牌合并为一项，番数等于出现次数；未知役名保留原文，番数记 0
func NormalizeYaku(names []string, closed bool) []Yaku {
	var result []Yaku
	doraPos := make(map[int]int)

	for _, name := range names {
		i, ok := yakuIndex[normalizeKey(name)]
		if !ok {
			slog.Warn("Unknown yaku name", "name", name)
			result = append(result, Yaku{Name: name, Label: name})
			continue
		}

		def := yakuTable[i]
		if def.Dora {
			if pos, seen := doraPos[i]; seen {
				result[pos].Han++
				continue
			}
			doraPos[i] = len(result)
			result = append(result, Yaku{Name: def.Name, Label: def.Label, Han: 1, Known: true})
			continue
		}

		han := def.HanClosed
		if !closed && def.HanOpen > 0 {
			han = def.HanOpen
		}
		result = append(result, Yaku{Name: def.Name, Label: def.Label, Han: han, Yakuman: def.Yakuman, Known: true})
	}
	return result
}

// YakumanMultiplier 役满倍数合计
func YakumanMultiplier(yaku []Yaku) int {
	n := 0
	for _, y := range yaku {
		n += y.Yakuman
	}
	return n
}
