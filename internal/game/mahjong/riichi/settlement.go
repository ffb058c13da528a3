package riichi

import (
	"sudooom.kifu/internal/game/mahjong/core"
	"sudooom.kifu/internal/game/mahjong/scoring"
)

// 结算常量
const (
	HonbaRon         = 300
	HonbaTsumo       = 100
	NotenPool        = 3000
	RiichiRefundSize = RiichiDeposit
)

// Transfer 点数转移
type Transfer struct {
	From   core.Seat `json:"from"`
	To     core.Seat `json:"to"`
	Amount int       `json:"amount"`
	Reason string    `json:"reason"`
}

// Settlement 结算结果
// Deltas 只包含座位之间的转移，总和恒为 0；供托由 StickAward 单独记入和了者
type Settlement struct {
	Deltas     [core.SeatCount]int `json:"deltas"`
	StickAward int                 `json:"stickAward"`
	Winner     *core.Seat          `json:"winner,omitempty"`
	Transfers  []Transfer          `json:"transfers"`
}

func (st *Settlement) transfer(from, to core.Seat, amount int, reason string) {
	if amount == 0 || from == to {
		return
	}
	st.Deltas[from] -= amount
	st.Deltas[to] += amount
	st.Transfers = append(st.Transfers, Transfer{From: from, To: to, Amount: amount, Reason: reason})
}

// Net 每个座位最终的点数变化 (含供托)
func (st Settlement) Net() [core.SeatCount]int {
	net := st.Deltas
	if st.Winner != nil {
		net[*st.Winner] += st.StickAward
	}
	return net
}

// Apply 把结算写入场况，供托被取走时清零
func (st Settlement) Apply(meta *RoundMeta) {
	net := st.Net()
	for i := range meta.Points {
		meta.Points[i] += net[i]
	}
	if st.Winner != nil {
		meta.RiichiSticks = 0
	}
}

// SettleRon 荣和结算
// refund 为真时 (放铳牌是放铳者自己的立直宣言牌) 和了者退还 1000 点
func SettleRon(meta RoundMeta, winner, loser core.Seat, cost scoring.Cost, refund bool) Settlement {
	w := winner
	st := Settlement{Winner: &w, StickAward: meta.RiichiSticks * RiichiDeposit}
	st.transfer(loser, winner, cost.Main, "ron")
	st.transfer(loser, winner, meta.Honba*HonbaRon, "honba")
	if refund {
		st.transfer(winner, loser, RiichiRefundSize, "riichi refund")
	}
	return st
}

// SettleTsumo 自摸结算
func SettleTsumo(meta RoundMeta, winner core.Seat, cost scoring.Cost) Settlement {
	w := winner
	st := Settlement{Winner: &w, StickAward: meta.RiichiSticks * RiichiDeposit}
	dealer := meta.Dealer()
	for _, seat := range core.Seats {
		if seat == winner {
			continue
		}
		amount := cost.Main
		if winner != dealer && seat != dealer {
			amount = cost.Additional
		}
		st.transfer(seat, winner, amount, "tsumo")
		st.transfer(seat, winner, meta.Honba*HonbaTsumo, "honba")
	}
	return st
}

// SettleExhaustiveDraw 荒牌流局的罚符
// 1 到 3 家听牌时 3000 点由不听的座位平分支付给听牌的座位
func SettleExhaustiveDraw(tenpai [core.SeatCount]bool) Settlement {
	var st Settlement
	count := 0
	for _, t := range tenpai {
		if t {
			count++
		}
	}
	if count == 0 || count == core.SeatCount {
		return st
	}

	gain := NotenPool / count
	loss := NotenPool / (core.SeatCount - count)
	for _, seat := range core.Seats {
		if tenpai[seat] {
			st.Deltas[seat] += gain
		} else {
			st.Deltas[seat] -= loss
		}
	}
	for _, from := range core.Seats {
		if tenpai[from] {
			continue
		}
		for _, to := range core.Seats {
			if tenpai[to] {
				st.Transfers = append(st.Transfers, Transfer{From: from, To: to, Amount: loss / count, Reason: "noten"})
			}
		}
	}
	return st
}
