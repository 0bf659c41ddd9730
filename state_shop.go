package main

import (
	"fmt"
	"image/color"
	"sort"

	"github.com/hajimehoshi/ebiten/v2"
)

// ShopState は売買画面です。品揃えはエントリデータの "shop" ID で決まり、
// 売値は定価の半額です。
type ShopState struct {
	BaseState
	res     *SharedResources
	machine *GameStateManager

	shop    *ShopDefinition
	selling bool // false=買う / true=売る
	cursor  int

	sellEntries []inventoryEntry
}

func NewShopState(res *SharedResources, machine *GameStateManager) *ShopState {
	return &ShopState{res: res, machine: machine}
}

func (s *ShopState) Enter(data StateData) {
	if !data.IsResuming() {
		shopID := data.String("shop")
		shop, ok := s.res.GameData.GetShopDefinition(shopID)
		if !ok {
			s.res.Logger.Errorw("店の定義が見つかりません", "shop", shopID)
			s.machine.PopState()
			return
		}
		s.shop = shop
		s.selling = false
		s.cursor = 0
	}
	s.rebuildSellList()
}

func (s *ShopState) rebuildSellList() {
	s.sellEntries = s.sellEntries[:0]
	for id, count := range s.res.Party.Items {
		if count <= 0 {
			continue
		}
		def, ok := s.res.GameData.GetItemDefinition(id)
		if !ok || def.Kind == ItemKeyItem {
			continue
		}
		s.sellEntries = append(s.sellEntries, inventoryEntry{ID: id, Count: count})
	}
	sort.Slice(s.sellEntries, func(i, j int) bool { return s.sellEntries[i].ID < s.sellEntries[j].ID })
}

func (s *ShopState) listLength() int {
	if s.selling {
		return len(s.sellEntries)
	}
	if s.shop == nil {
		return 0
	}
	return len(s.shop.Items)
}

func (s *ShopState) HandleInput(input InputProvider) {
	if input.IsJustPressed(ActionLeft) || input.IsJustPressed(ActionRight) {
		s.selling = !s.selling
		s.cursor = 0
		s.res.Audio.PlayEffect("cursor")
	}
	if input.IsJustPressed(ActionUp) {
		s.cursor = wrapIndex(s.cursor-1, s.listLength())
		s.res.Audio.PlayEffect("cursor")
	}
	if input.IsJustPressed(ActionDown) {
		s.cursor = wrapIndex(s.cursor+1, s.listLength())
		s.res.Audio.PlayEffect("cursor")
	}
	if input.IsJustPressed(ActionCancel) {
		input.ConsumePress(ActionCancel)
		s.res.Audio.PlayEffect("cancel")
		s.machine.PopState()
		return
	}
	if !input.IsJustPressed(ActionConfirm) || s.listLength() == 0 {
		return
	}
	input.ConsumePress(ActionConfirm)
	if s.selling {
		s.sell()
	} else {
		s.buy()
	}
}

func (s *ShopState) buy() {
	itemID := s.shop.Items[s.cursor]
	def, ok := s.res.GameData.GetItemDefinition(itemID)
	if !ok {
		s.res.Audio.PlayEffect("error")
		return
	}
	if s.res.Party.Gold < def.Price {
		s.res.Audio.PlayEffect("error")
		return
	}
	s.res.Party.Gold -= def.Price
	s.res.Party.AddItem(itemID, 1)
	s.res.Audio.PlayEffect("confirm")
	s.rebuildSellList()
}

func (s *ShopState) sell() {
	entry := s.sellEntries[s.cursor]
	def, ok := s.res.GameData.GetItemDefinition(entry.ID)
	if !ok {
		s.res.Audio.PlayEffect("error")
		return
	}
	s.res.Party.RemoveItem(entry.ID)
	s.res.Party.Gold += def.Price / 2
	s.res.Audio.PlayEffect("confirm")
	s.rebuildSellList()
	if s.cursor >= len(s.sellEntries) && s.cursor > 0 {
		s.cursor--
	}
}

func (s *ShopState) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{32, 24, 16, 255})
	if s.shop == nil {
		return
	}
	tab := s.res.Messages.T("shop.buy", nil)
	if s.selling {
		tab = s.res.Messages.T("shop.sell", nil)
	}
	drawTextLine(screen, s.res.Font, fmt.Sprintf("%s - %s", s.shop.Name, tab), 20, 20)
	drawTextLine(screen, s.res.Font, fmt.Sprintf("G %d", s.res.Party.Gold), 240, 20)

	var labels []string
	if s.selling {
		for _, e := range s.sellEntries {
			def, _ := s.res.GameData.GetItemDefinition(e.ID)
			labels = append(labels, fmt.Sprintf("%s x%d  %dG", def.Name, e.Count, def.Price/2))
		}
	} else {
		for _, id := range s.shop.Items {
			if def, ok := s.res.GameData.GetItemDefinition(id); ok {
				labels = append(labels, fmt.Sprintf("%s  %dG", def.Name, def.Price))
			}
		}
	}
	if len(labels) == 0 {
		drawTextLine(screen, s.res.Font, s.res.Messages.T("shop.empty", nil), 20, 50)
		return
	}
	drawMenuList(screen, s.res.Font, labels, s.cursor, 20, 50)
}
