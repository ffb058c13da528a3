package kifu

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"sudooom.kifu/internal/game/mahjong/core"
)

// 结果标签
const (
	OutcomeWin  = "和了"
	OutcomeDraw = "流局"
)

// Document 可被牌谱播放器读取的完整牌谱
type Document struct {
	Title [2]string `json:"title"`
	Name  [4]string `json:"name"`
	Rule  Rule      `json:"rule"`
	Log   []Round   `json:"log"`
}

// Rule 规则显示信息
type Rule struct {
	Disp string `json:"disp"`
	Aka  int    `json:"aka"`
}

// Token 摸牌/打牌流中的一项：牌编码，或者副露、立直等字符串记法
type Token struct {
	Code int
	Text string
}

// CodeToken 数字项
func CodeToken(code int) Token {
	return Token{Code: code}
}

// TextToken 字符串项
func TextToken(text string) Token {
	return Token{Text: text}
}

// IsText 是否为字符串项
func (t Token) IsText() bool {
	return t.Text != ""
}

// MarshalJSON 数字项输出为数字，字符串项输出为字符串
func (t Token) MarshalJSON() ([]byte, error) {
	if t.IsText() {
		return json.Marshal(t.Text)
	}
	return json.Marshal(t.Code)
}

// UnmarshalJSON 实现 json.Unmarshaler
func (t *Token) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*t = Token{Text: text}
		return nil
	}
	var code int
	if err := json.Unmarshal(data, &code); err != nil {
		return fmt.Errorf("kifu: token %s: %w", data, err)
	}
	*t = Token{Code: code}
	return nil
}

// WinDetail 和了信息，座位均为 0-3
type WinDetail struct {
	Who     int
	From    int
	Pao     int
	Summary string
	Yaku    []string
}

// Outcome 一局的结果
type Outcome struct {
	Kind   string
	Deltas [4]int
	Win    *WinDetail
	Tenpai []int // 流局且有点数移动时的听牌标记
}

// MarshalJSON ["和了", deltas, [who, from, pao, summary, yaku...]] 或 ["流局", deltas, tenpai?]
func (o Outcome) MarshalJSON() ([]byte, error) {
	record := []any{o.Kind, o.Deltas}
	if o.Win != nil {
		detail := []any{o.Win.Who, o.Win.From, o.Win.Pao, o.Win.Summary}
		for _, y := range o.Win.Yaku {
			detail = append(detail, y)
		}
		record = append(record, detail)
	} else if len(o.Tenpai) > 0 {
		record = append(record, o.Tenpai)
	}
	return json.Marshal(record)
}

// UnmarshalJSON 实现 json.Unmarshaler
func (o *Outcome) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	if len(parts) < 1 {
		return fmt.Errorf("kifu: empty outcome")
	}
	var out Outcome
	if err := json.Unmarshal(parts[0], &out.Kind); err != nil {
		return fmt.Errorf("kifu: outcome kind: %w", err)
	}
	if len(parts) > 1 {
		if err := json.Unmarshal(parts[1], &out.Deltas); err != nil {
			return fmt.Errorf("kifu: outcome deltas: %w", err)
		}
	}
	if len(parts) > 2 {
		switch out.Kind {
		case OutcomeWin:
			var detail []json.RawMessage
			if err := json.Unmarshal(parts[2], &detail); err != nil {
				return fmt.Errorf("kifu: win detail: %w", err)
			}
			if len(detail) < 4 {
				return fmt.Errorf("kifu: win detail has %d fields", len(detail))
			}
			win := &WinDetail{}
			for i, dst := range []any{&win.Who, &win.From, &win.Pao, &win.Summary} {
				if err := json.Unmarshal(detail[i], dst); err != nil {
					return fmt.Errorf("kifu: win detail[%d]: %w", i, err)
				}
			}
			for _, raw := range detail[4:] {
				var y string
				if err := json.Unmarshal(raw, &y); err != nil {
					return fmt.Errorf("kifu: yaku: %w", err)
				}
				win.Yaku = append(win.Yaku, y)
			}
			out.Win = win
		default:
			if err := json.Unmarshal(parts[2], &out.Tenpai); err != nil {
				return fmt.Errorf("kifu: tenpai flags: %w", err)
			}
		}
	}
	*o = out
	return nil
}

// Round 一局
// 序列化为 [[局,本场,供托], 点数, 宝牌, 里宝牌, (配牌, 摸牌, 打牌)×4, 结果]
type Round struct {
	Kyoku    int
	Honba    int
	Sticks   int
	Points   [4]int
	Dora     []int
	Ura      []int
	Haipai   [4][]int
	Draws    [4][]Token
	Discards [4][]Token
	Outcome  *Outcome
}

// roundFields 不含结果的字段数
const roundFields = 4 + 3*4

// MarshalJSON 实现 json.Marshaler
func (r Round) MarshalJSON() ([]byte, error) {
	record := make([]any, 0, roundFields+1)
	record = append(record,
		[3]int{r.Kyoku, r.Honba, r.Sticks},
		r.Points,
		nonNilInts(r.Dora),
		nonNilInts(r.Ura),
	)
	for seat := 0; seat < 4; seat++ {
		draws := r.Draws[seat]
		if draws == nil {
			draws = []Token{}
		}
		discards := r.Discards[seat]
		if discards == nil {
			discards = []Token{}
		}
		record = append(record, nonNilInts(r.Haipai[seat]), draws, discards)
	}
	if r.Outcome != nil {
		record = append(record, r.Outcome)
	}
	return json.Marshal(record)
}

// UnmarshalJSON 实现 json.Unmarshaler
func (r *Round) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	if len(parts) != roundFields && len(parts) != roundFields+1 {
		return fmt.Errorf("kifu: round has %d fields, want %d", len(parts), roundFields+1)
	}

	var out Round
	var header [3]int
	if err := json.Unmarshal(parts[0], &header); err != nil {
		return fmt.Errorf("kifu: round header: %w", err)
	}
	out.Kyoku, out.Honba, out.Sticks = header[0], header[1], header[2]
	if err := json.Unmarshal(parts[1], &out.Points); err != nil {
		return fmt.Errorf("kifu: points: %w", err)
	}
	if err := json.Unmarshal(parts[2], &out.Dora); err != nil {
		return fmt.Errorf("kifu: dora: %w", err)
	}
	if err := json.Unmarshal(parts[3], &out.Ura); err != nil {
		return fmt.Errorf("kifu: ura: %w", err)
	}
	for seat := 0; seat < 4; seat++ {
		base := 4 + seat*3
		if err := json.Unmarshal(parts[base], &out.Haipai[seat]); err != nil {
			return fmt.Errorf("kifu: haipai[%d]: %w", seat, err)
		}
		if err := json.Unmarshal(parts[base+1], &out.Draws[seat]); err != nil {
			return fmt.Errorf("kifu: draws[%d]: %w", seat, err)
		}
		if err := json.Unmarshal(parts[base+2], &out.Discards[seat]); err != nil {
			return fmt.Errorf("kifu: discards[%d]: %w", seat, err)
		}
	}
	if len(parts) == roundFields+1 {
		out.Outcome = &Outcome{}
		if err := json.Unmarshal(parts[roundFields], out.Outcome); err != nil {
			return err
		}
	}
	*r = out
	return nil
}

func nonNilInts(values []int) []int {
	if values == nil {
		return []int{}
	}
	return values
}

// Validate 检查牌谱结构与编码是否合法，返回全部问题
func Validate(data []byte) []string {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return []string{err.Error()}
	}

	var problems []string
	report := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if doc.Rule.Aka != 0 && doc.Rule.Aka != 1 {
		report("rule.aka: must be 0 or 1, got %d", doc.Rule.Aka)
	}
	if len(doc.Log) == 0 {
		report("log: no rounds")
	}
	for i, r := range doc.Log {
		prefix := fmt.Sprintf("log[%d]", i)
		if r.Kyoku < 0 || r.Kyoku > 15 {
			report("%s: kyoku %d out of range", prefix, r.Kyoku)
		}
		for _, code := range append(append([]int{}, r.Dora...), r.Ura...) {
			if _, err := Decode(code); err != nil {
				report("%s.dora: %v", prefix, err)
			}
		}
		for seat := 0; seat < 4; seat++ {
			if n := len(r.Haipai[seat]); n != 13 {
				report("%s.haipai[%d]: %d tiles, want 13", prefix, seat, n)
			}
			for _, code := range r.Haipai[seat] {
				if _, err := Decode(code); err != nil {
					report("%s.haipai[%d]: %v", prefix, seat, err)
				}
			}
			for _, tok := range r.Draws[seat] {
				if err := checkDrawToken(tok); err != nil {
					report("%s.draws[%d]: %v", prefix, seat, err)
				}
			}
			for _, tok := range r.Discards[seat] {
				if err := checkDiscardToken(tok); err != nil {
					report("%s.discards[%d]: %v", prefix, seat, err)
				}
			}
		}
		if r.Outcome == nil {
			continue
		}
		switch r.Outcome.Kind {
		case OutcomeWin:
			if r.Outcome.Win == nil {
				report("%s.outcome: win without detail", prefix)
			}
		case OutcomeDraw:
			total := 0
			for _, d := range r.Outcome.Deltas {
				total += d
			}
			if total != 0 {
				report("%s.outcome: draw deltas sum to %d", prefix, total)
			}
		default:
			report("%s.outcome: unknown kind %q", prefix, r.Outcome.Kind)
		}
	}
	return problems
}

func checkDrawToken(tok Token) error {
	if !tok.IsText() {
		_, err := Decode(tok.Code)
		return err
	}
	kind, _, _, err := ParseMeldToken(tok.Text)
	if err != nil {
		return err
	}
	if kind == core.MeldAnkan || kind == core.MeldKakan {
		return fmt.Errorf("kifu: %s token %q in draw stream", kind, tok.Text)
	}
	return nil
}

func checkDiscardToken(tok Token) error {
	if !tok.IsText() {
		if tok.Code == CodeTsumogiri || tok.Code == CodeKanSlot {
			return nil
		}
		_, err := Decode(tok.Code)
		return err
	}
	if rest, ok := strings.CutPrefix(tok.Text, "r"); ok {
		code, err := strconv.Atoi(rest)
		if err != nil {
			return fmt.Errorf("kifu: riichi token %q: %w", tok.Text, err)
		}
		if code == CodeTsumogiri {
			return nil
		}
		_, err = Decode(code)
		return err
	}
	kind, _, _, err := ParseMeldToken(tok.Text)
	if err != nil {
		return err
	}
	if kind != core.MeldAnkan && kind != core.MeldKakan {
		return fmt.Errorf("kifu: %s token %q in discard stream", kind, tok.Text)
	}
	return nil
}
