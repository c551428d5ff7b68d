package variables

import (
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/harakeishi/composeports/pkg/types"
)

const exportPrefix = "export "

// File は行単位の KEY=VALUE 形式の変数ファイルです。
// 書き戻し時は変更したキーの行だけを置き換え、それ以外の行はそのまま残します。
type File struct {
	Path string

	lines           []string
	trailingNewline bool
	vars            *Set
	changed         bool
}

// NewFile は空の変数ファイルを作成します。まだディスク上に存在しないファイルに使います。
func NewFile(path string) *File {
	return &File{Path: path, vars: NewSet(), trailingNewline: true}
}

// Parse は変数ファイルの内容を解析します。
// 値は godotenv で解釈できればその結果を使い、解釈できない行は前後の引用符を外しただけの値にします。
func Parse(path string, data []byte) *File {
	f := NewFile(path)
	content := strings.ReplaceAll(string(data), "\r\n", "\n")
	if content == "" {
		return f
	}

	f.trailingNewline = strings.HasSuffix(content, "\n")
	f.lines = strings.Split(strings.TrimSuffix(content, "\n"), "\n")

	decoded, err := godotenv.UnmarshalBytes(data)
	if err != nil {
		decoded = nil
	}

	for _, line := range f.lines {
		key, raw, ok := splitLine(line)
		if !ok {
			continue
		}
		if v, found := decoded[key]; found {
			f.vars.Set(key, v)
			continue
		}
		f.vars.Set(key, unquote(raw))
	}
	return f
}

// Vars は読み込んだ変数を返します。
func (f *File) Vars() *Set {
	return f.vars
}

// Changed は Apply によって内容が変わったかどうかを返します。
func (f *File) Changed() bool {
	return f.changed
}

// SetValue は変数の値を変更します。既存の行は同じ位置で置き換え、
// 存在しないキーは末尾に追加します。
func (f *File) SetValue(name, value string) {
	replaced := false
	for i, line := range f.lines {
		key, _, ok := splitLine(line)
		if !ok || key != name {
			continue
		}
		prefix := ""
		if strings.HasPrefix(strings.TrimSpace(line), exportPrefix) {
			prefix = exportPrefix
		}
		f.lines[i] = prefix + name + "=" + value
		replaced = true
	}
	if !replaced {
		f.lines = append(f.lines, name+"="+value)
	}

	f.vars.Set(name, value)
	f.changed = true
}

// Apply は衝突解決で決まった変数の更新をまとめて反映します。
func (f *File) Apply(updates []types.VariableUpdate) {
	for _, u := range updates {
		f.SetValue(u.Name, strconv.Itoa(u.Port))
	}
}

// Bytes はファイル内容を返します。
func (f *File) Bytes() []byte {
	if len(f.lines) == 0 {
		return nil
	}
	out := strings.Join(f.lines, "\n")
	if f.trailingNewline {
		out += "\n"
	}
	return []byte(out)
}

// splitLine は1行を KEY と生の値に分けます。空行とコメント行は ok=false です。
func splitLine(line string) (string, string, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return "", "", false
	}
	trimmed = strings.TrimPrefix(trimmed, exportPrefix)

	key, value, ok := strings.Cut(trimmed, "=")
	if !ok {
		return "", "", false
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", "", false
	}
	return key, strings.TrimSpace(value), true
}

func unquote(value string) string {
	if len(value) >= 2 {
		first, last := value[0], value[len(value)-1]
		if (first == '"' || first == '\'') && first == last {
			return value[1 : len(value)-1]
		}
	}
	return value
}
