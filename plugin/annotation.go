package plugin

import (
	"regexp"
	"strings"

	"github.com/samber/lo"
)

// annotationRegex 匹配注解 @Name、@pkg.Name，允许带 (...) 参数（参数被忽略）
// 注解前必须是行首或空白，避免把邮箱地址当成注解
var annotationRegex = regexp.MustCompile(`(?:^|\s)@(?:(\w+)\.)?(\w+)(?:\([^)]*\))?`)

// ParseAnnotations 从注释文本中解析所有注解
// 只做语法匹配，不判断注解是否真正指向某个类型
func ParseAnnotations(comment string) []*Annotation {
	var annotations []*Annotation

	// 按行处理
	lines := strings.Split(comment, "\n")
	for _, line := range lines {
		// 去除注释前缀
		line = strings.TrimPrefix(strings.TrimSpace(line), "//")
		line = strings.TrimPrefix(line, "/*")
		line = strings.TrimSuffix(line, "*/")
		line = strings.TrimSpace(line)

		matches := annotationRegex.FindAllStringSubmatch(line, -1)
		for _, match := range matches {
			annotations = append(annotations, &Annotation{
				Qualifier: match[1],
				Name:      match[2],
				Raw:       strings.TrimSpace(match[0]),
			})
		}
	}

	return annotations
}

// HasAnnotation 检查是否包含指定名称的注解
func HasAnnotation(annotations []*Annotation, name string) bool {
	return GetAnnotation(annotations, name) != nil
}

// GetAnnotation 获取指定名称的注解
func GetAnnotation(annotations []*Annotation, name string) *Annotation {
	for _, ann := range annotations {
		if ann.Name == name {
			return ann
		}
	}
	return nil
}

// HasAnnotationName 检查 names 中是否包含 name
func HasAnnotationName(names []string, name string) bool {
	return lo.Contains(names, name)
}
