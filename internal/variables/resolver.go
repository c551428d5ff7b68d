// Package variables は、Composeファイル中の変数参照の解決と変数ファイル(.env)の読み書きを提供します。
package variables

import (
	"regexp"
	"strings"
)

var (
	// ${NAME} と ${NAME:-default}
	bracedPattern = regexp.MustCompile(`\$\{([^}]+)\}`)
	// $NAME
	barePattern = regexp.MustCompile(`\$([A-Z_][A-Z0-9_]*)`)
	// 修正の向き先を決めるときの変数名。${NAME:-x} からは NAME を取り出します。
	bracedNamePattern = regexp.MustCompile(`\$\{([^}:-]+)`)
)

// defaultSeparator は既定値付き参照の区切りです。
const defaultSeparator = ":-"

// Lookup は変数名から値を引く操作です。
type Lookup interface {
	Lookup(name string) (string, bool)
}

// Map は map による Lookup の実装です。
type Map map[string]string

// Lookup は変数の値を返します。
func (m Map) Lookup(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

// Resolve は文字列中の変数参照を展開します。
// 波括弧形式を先に置換し、その結果に対して $NAME 形式を置換します。
// 未定義の変数は既定値 (":-" 指定時) か空文字になります。既定値は再帰的には解決しません。
func Resolve(text string, vars Lookup) string {
	if vars == nil {
		vars = Map{}
	}

	resolved := bracedPattern.ReplaceAllStringFunc(text, func(match string) string {
		expr := bracedPattern.FindStringSubmatch(match)[1]
		if name, def, ok := strings.Cut(expr, defaultSeparator); ok {
			if v, found := vars.Lookup(name); found {
				return v
			}
			return def
		}
		v, _ := vars.Lookup(expr)
		return v
	})

	return barePattern.ReplaceAllStringFunc(resolved, func(match string) string {
		v, _ := vars.Lookup(match[1:])
		return v
	})
}

// Names は文字列が参照している変数名を出現順に返します。
// 波括弧形式の名前が先、$NAME 形式が後に並びます。重複は除きます。
func Names(text string) []string {
	var names []string
	seen := make(map[string]bool)
	add := func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		names = append(names, name)
	}

	for _, m := range bracedPattern.FindAllStringSubmatch(text, -1) {
		name, _, _ := strings.Cut(m[1], defaultSeparator)
		add(name)
	}
	for _, m := range barePattern.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}
	return names
}

// HasReference は文字列が変数参照を含むかどうかを判定します。
func HasReference(text string) bool {
	return bracedPattern.MatchString(text) || barePattern.MatchString(text)
}

// FirstReference は修正時に更新対象とする変数名を返します。
// 波括弧形式が1つでもあればその先頭を、なければ $NAME 形式の先頭を返します。
func FirstReference(text string) (string, bool) {
	if !HasReference(text) {
		return "", false
	}
	if m := bracedNamePattern.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	if m := barePattern.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	return "", false
}
