package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SaveFile は1つのセーブデータの完全な内容です。
// 形式は単純な JSON で、ID は uuid です。
type SaveFile struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	CreatedAt time.Time       `json:"createdAt"`
	Playtime  float64         `json:"playtime"`
	Gold      int             `json:"gold"`
	Location  string          `json:"location"`
	Spirits   []*SpiritRecord `json:"spirits"`
	Items     map[string]int  `json:"items"`
}

// SaveManager はセーブデータのCRUDを担当します。保存先はディレクトリで、
// 1セーブ = 1ファイルです。
type SaveManager struct {
	dir    string
	logger *zap.SugaredLogger
}

// NewSaveManager は保存ディレクトリを用意してマネージャを生成します。
func NewSaveManager(dir string, logger *zap.SugaredLogger) (*SaveManager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("セーブディレクトリの作成に失敗しました %s: %w", dir, err)
	}
	return &SaveManager{dir: dir, logger: logger}, nil
}

func (sm *SaveManager) savePath(id string) string {
	return filepath.Join(sm.dir, id+".json")
}

// GetAllSaves は全セーブを新しい順で返します。壊れたファイルはスキップされます。
func (sm *SaveManager) GetAllSaves() []*SaveFile {
	entries, err := os.ReadDir(sm.dir)
	if err != nil {
		sm.logger.Warnw("セーブディレクトリを読めませんでした", "dir", sm.dir, "error", err)
		return nil
	}
	var saves []*SaveFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(sm.dir, entry.Name()))
		if err != nil {
			continue
		}
		var save SaveFile
		if err := json.Unmarshal(data, &save); err != nil {
			sm.logger.Warnw("壊れたセーブファイルをスキップします", "file", entry.Name(), "error", err)
			continue
		}
		saves = append(saves, &save)
	}
	sort.Slice(saves, func(i, j int) bool {
		return saves[i].CreatedAt.After(saves[j].CreatedAt)
	})
	return saves
}

// GetLatestSave は最新のセーブを返します。無ければ nil です。
func (sm *SaveManager) GetLatestSave() *SaveFile {
	saves := sm.GetAllSaves()
	if len(saves) == 0 {
		return nil
	}
	return saves[0]
}

// HasSaves はセーブが1つ以上あるかを返します。
func (sm *SaveManager) HasSaves() bool {
	return len(sm.GetAllSaves()) > 0
}

// SaveGame はパーティの現在状態を書き出し、セーブ ID を返します。
// id が空なら新規セーブ、指定されていれば上書きです。
func (sm *SaveManager) SaveGame(party *PartyData, name, id string) (string, error) {
	if party == nil {
		return "", fmt.Errorf("保存対象のパーティがありません")
	}
	if id == "" {
		id = uuid.NewString()
	}
	if name == "" {
		name = party.Location
	}
	save := &SaveFile{
		ID:        id,
		Name:      name,
		CreatedAt: time.Now(),
		Playtime:  party.Playtime,
		Gold:      party.Gold,
		Location:  party.Location,
		Spirits:   party.Spirits,
		Items:     party.Items,
	}
	data, err := json.MarshalIndent(save, "", "  ")
	if err != nil {
		return "", fmt.Errorf("セーブデータの生成に失敗しました: %w", err)
	}
	if err := os.WriteFile(sm.savePath(id), data, 0o644); err != nil {
		return "", fmt.Errorf("セーブファイルの書き込みに失敗しました: %w", err)
	}
	sm.logger.Infow("ゲームを保存しました", "id", id, "name", name)
	return id, nil
}

// LoadGame は id のセーブを読み込み、パーティに反映します。
func (sm *SaveManager) LoadGame(id string, party *PartyData) error {
	data, err := os.ReadFile(sm.savePath(id))
	if err != nil {
		return fmt.Errorf("セーブファイルを開けませんでした %s: %w", id, err)
	}
	var save SaveFile
	if err := json.Unmarshal(data, &save); err != nil {
		return fmt.Errorf("セーブファイルの解析に失敗しました %s: %w", id, err)
	}
	party.Spirits = save.Spirits
	party.Gold = save.Gold
	party.Items = save.Items
	if party.Items == nil {
		party.Items = make(map[string]int)
	}
	party.Location = save.Location
	party.Playtime = save.Playtime
	sm.logger.Infow("ゲームをロードしました", "id", id, "name", save.Name)
	return nil
}

// DeleteSave は id のセーブを削除します。
func (sm *SaveManager) DeleteSave(id string) bool {
	if err := os.Remove(sm.savePath(id)); err != nil {
		sm.logger.Warnw("セーブの削除に失敗しました", "id", id, "error", err)
		return false
	}
	return true
}
