package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"go.uber.org/zap"
)

// DialogueCommandKind はスクリプトが発行するコマンドの種別です。
type DialogueCommandKind int

const (
	CmdSay DialogueCommandKind = iota
	CmdChoice
	CmdOpenShop
	CmdStartBattle
	CmdGiveItem
	CmdEnd
)

// ChoiceOption は選択肢の1項目です。
type ChoiceOption struct {
	ID    string
	Label string
}

// DialogueCommand はダイアログ状態が1つずつ消費するコマンドです。
type DialogueCommand struct {
	Kind        DialogueCommandKind
	Speaker     string
	Text        string
	Prompt      string
	Options     []ChoiceOption
	ShopID      string
	EncounterID string
	ItemID      string
	Count       int
}

// dialogueDispatchScript は sidescroller 方式のライフサイクルディスパッチです。
// スクリプトは start(d) と on_choice(d, choice) を定義します。
const dialogueDispatchScript = `
if __phase == "start" {
	start(__d)
} else if __phase == "choice" {
	on_choice(__d, __choice)
}
`

type compiledDialogue struct {
	compiled *tengo.Compiled
}

// DialogueScriptEngine は tengo で書かれたダイアログスクリプトを段階実行します。
// 1回の実行（start または選択肢の解決）がコマンド列を生成し、
// DialogueState がそれを1つずつ消費します。
type DialogueScriptEngine struct {
	scriptsDir string
	logger     *zap.SugaredLogger

	mu      sync.Mutex
	cache   map[string]*compiledDialogue
	sources map[string][]byte // テスト用のインメモリスクリプト

	pending []DialogueCommand
	current string
	starts  int
}

// NewDialogueScriptEngine はスクリプトディレクトリを指すエンジンを生成します。
func NewDialogueScriptEngine(scriptsDir string, logger *zap.SugaredLogger) *DialogueScriptEngine {
	return &DialogueScriptEngine{
		scriptsDir: scriptsDir,
		logger:     logger,
		cache:      make(map[string]*compiledDialogue),
		sources:    make(map[string][]byte),
	}
}

// LoadSource はファイルを介さずスクリプトを登録します（テスト用）。
func (e *DialogueScriptEngine) LoadSource(name string, src string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sources[name] = []byte(src)
	delete(e.cache, name)
}

// Invalidate はコンパイル済みキャッシュを破棄します。
// ホットリロード監視から呼ばれ、次回の Enter で再コンパイルされます。
func (e *DialogueScriptEngine) Invalidate(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if name == "" {
		e.cache = make(map[string]*compiledDialogue)
		return
	}
	delete(e.cache, name)
}

func (e *DialogueScriptEngine) getCompiled(name string) (*compiledDialogue, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if cd, ok := e.cache[name]; ok {
		return cd, nil
	}

	src, ok := e.sources[name]
	if !ok {
		path := filepath.Join(e.scriptsDir, name+".tengo")
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("ダイアログスクリプトを開けませんでした %s: %w", path, err)
		}
		src = data
	}

	script := tengo.NewScript(append(append([]byte{}, src...), []byte(dialogueDispatchScript)...))
	script.SetImports(stdlib.GetModuleMap("fmt", "text", "rand"))
	if err := script.Add("__phase", ""); err != nil {
		return nil, err
	}
	if err := script.Add("__choice", ""); err != nil {
		return nil, err
	}
	if err := script.Add("__d", e.engineObject()); err != nil {
		return nil, err
	}
	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("ダイアログスクリプトのコンパイルに失敗しました %s: %w", name, err)
	}
	cd := &compiledDialogue{compiled: compiled}
	e.cache[name] = cd
	return cd, nil
}

// engineObject はスクリプトに公開する d オブジェクトです。
// 各関数は保留中のコマンド列に追記するだけで、副作用を持ちません。
func (e *DialogueScriptEngine) engineObject() tengo.Object {
	push := func(cmd DialogueCommand) {
		e.pending = append(e.pending, cmd)
	}
	argString := func(args []tengo.Object, i int) string {
		if i >= len(args) {
			return ""
		}
		s, _ := tengo.ToString(args[i])
		return s
	}
	return &tengo.Map{Value: map[string]tengo.Object{
		"say": &tengo.UserFunction{Name: "say", Value: func(args ...tengo.Object) (tengo.Object, error) {
			if len(args) != 2 {
				return nil, tengo.ErrWrongNumArguments
			}
			push(DialogueCommand{Kind: CmdSay, Speaker: argString(args, 0), Text: argString(args, 1)})
			return tengo.UndefinedValue, nil
		}},
		"choice": &tengo.UserFunction{Name: "choice", Value: func(args ...tengo.Object) (tengo.Object, error) {
			if len(args) != 2 {
				return nil, tengo.ErrWrongNumArguments
			}
			arr, ok := args[1].(*tengo.Array)
			if !ok {
				return nil, tengo.ErrInvalidArgumentType{Name: "options", Expected: "array", Found: args[1].TypeName()}
			}
			cmd := DialogueCommand{Kind: CmdChoice, Prompt: argString(args, 0)}
			for _, item := range arr.Value {
				pair, ok := item.(*tengo.Array)
				if !ok || len(pair.Value) != 2 {
					return nil, fmt.Errorf("choice の選択肢は [id, label] の組である必要があります")
				}
				id, _ := tengo.ToString(pair.Value[0])
				label, _ := tengo.ToString(pair.Value[1])
				cmd.Options = append(cmd.Options, ChoiceOption{ID: id, Label: label})
			}
			push(cmd)
			return tengo.UndefinedValue, nil
		}},
		"open_shop": &tengo.UserFunction{Name: "open_shop", Value: func(args ...tengo.Object) (tengo.Object, error) {
			push(DialogueCommand{Kind: CmdOpenShop, ShopID: argString(args, 0)})
			return tengo.UndefinedValue, nil
		}},
		"start_battle": &tengo.UserFunction{Name: "start_battle", Value: func(args ...tengo.Object) (tengo.Object, error) {
			push(DialogueCommand{Kind: CmdStartBattle, EncounterID: argString(args, 0)})
			return tengo.UndefinedValue, nil
		}},
		"give_item": &tengo.UserFunction{Name: "give_item", Value: func(args ...tengo.Object) (tengo.Object, error) {
			count := 1
			if len(args) > 1 {
				if n, ok := tengo.ToInt(args[1]); ok {
					count = n
				}
			}
			push(DialogueCommand{Kind: CmdGiveItem, ItemID: argString(args, 0), Count: count})
			return tengo.UndefinedValue, nil
		}},
		"end": &tengo.UserFunction{Name: "end", Value: func(args ...tengo.Object) (tengo.Object, error) {
			push(DialogueCommand{Kind: CmdEnd})
			return tengo.UndefinedValue, nil
		}},
	}}
}

func (e *DialogueScriptEngine) run(name, phase, choice string) error {
	cd, err := e.getCompiled(name)
	if err != nil {
		return err
	}
	if err := cd.compiled.Set("__phase", phase); err != nil {
		return err
	}
	if err := cd.compiled.Set("__choice", choice); err != nil {
		return err
	}
	if err := cd.compiled.Run(); err != nil {
		return fmt.Errorf("ダイアログスクリプトの実行に失敗しました %s: %w", name, err)
	}
	return nil
}

// StartScript はスクリプトの start フェーズを実行します。
// 新規エンター時にのみ呼ばれる契約です。スタックからの復帰では呼ばれません。
func (e *DialogueScriptEngine) StartScript(name string) error {
	e.pending = e.pending[:0]
	e.current = name
	e.starts++
	return e.run(name, "start", "")
}

// ResolveChoice は選択結果をスクリプトに渡し、続きのコマンドを生成させます。
func (e *DialogueScriptEngine) ResolveChoice(choiceID string) error {
	if e.current == "" {
		return fmt.Errorf("実行中のダイアログスクリプトがありません")
	}
	return e.run(e.current, "choice", choiceID)
}

// Next は次のコマンドを取り出します。残りが無い場合は false です。
func (e *DialogueScriptEngine) Next() (DialogueCommand, bool) {
	if len(e.pending) == 0 {
		return DialogueCommand{}, false
	}
	cmd := e.pending[0]
	e.pending = e.pending[1:]
	return cmd, true
}

// HasPending は未消費のコマンドが残っているかを返します。
func (e *DialogueScriptEngine) HasPending() bool {
	return len(e.pending) > 0
}

// Reset は実行状態を破棄します。ダイアログの Exit から呼ばれます。
func (e *DialogueScriptEngine) Reset() {
	e.pending = e.pending[:0]
	e.current = ""
}

// StartCount は StartScript が呼ばれた回数です。再開契約のテストに使います。
func (e *DialogueScriptEngine) StartCount() int {
	return e.starts
}
