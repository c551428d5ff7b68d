package variables

// Set は変数名と値の組を挿入順に保持します。
type Set struct {
	keys   []string
	values map[string]string
}

// NewSet は空の Set を作成します。
func NewSet() *Set {
	return &Set{values: make(map[string]string)}
}

// Lookup は変数の値を返します。
func (s *Set) Lookup(name string) (string, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Set は変数を設定します。既存の変数は順序を保ったまま値だけ更新します。
func (s *Set) Set(name, value string) {
	if _, ok := s.values[name]; !ok {
		s.keys = append(s.keys, name)
	}
	s.values[name] = value
}

// Keys は変数名を挿入順に返します。
func (s *Set) Keys() []string {
	keys := make([]string, len(s.keys))
	copy(keys, s.keys)
	return keys
}

// Len は変数の数を返します。
func (s *Set) Len() int {
	return len(s.keys)
}

// Missing は names のうち未定義のものを返します。
func (s *Set) Missing(names []string) []string {
	var missing []string
	for _, n := range names {
		if _, ok := s.values[n]; !ok {
			missing = append(missing, n)
		}
	}
	return missing
}
