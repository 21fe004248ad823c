package printgen

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/donutnomad/printgen/plugin"
)

// Sink 收集一个包的全部片段，Key 必须唯一
type Sink struct {
	fragments map[string][]byte
}

func NewSink() *Sink {
	return &Sink{fragments: make(map[string][]byte)}
}

// AddMarker 注册标记类型片段
func (s *Sink) AddMarker(pkgName string) error {
	return s.Add(&Emission{Key: MarkerKey, Text: string(MarkerSource(pkgName, false))})
}

// Add 注册一个片段，空片段和重复的 Key 会返回错误
func (s *Sink) Add(e *Emission) error {
	if e == nil || strings.TrimSpace(e.Text) == "" {
		return errors.New("不能注册空片段")
	}
	if e.Key == "" {
		return errors.New("片段 Key 不能为空")
	}
	if _, ok := s.fragments[e.Key]; ok {
		return fmt.Errorf("片段 %q 重复注册", e.Key)
	}
	s.fragments[e.Key] = []byte(e.Text)
	return nil
}

// AddAll 依次注册，遇到第一个错误即返回
func (s *Sink) AddAll(emissions []*Emission) error {
	for _, e := range emissions {
		if err := s.Add(e); err != nil {
			return err
		}
	}
	return nil
}

// Fragments 按 Key 排序返回
func (s *Sink) Fragments() []plugin.Fragment {
	out := make([]plugin.Fragment, 0, len(s.fragments))
	for key, content := range s.fragments {
		out = append(out, plugin.Fragment{Key: key, Content: content})
	}
	slices.SortFunc(out, func(a, b plugin.Fragment) int {
		return cmp.Compare(a.Key, b.Key)
	})
	return out
}
