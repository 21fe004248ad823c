package utils

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/tools/imports"
)

// FormatSource 格式化源码并整理 imports
func FormatSource(path string, src []byte) ([]byte, error) {
	out, err := imports.Process(path, src, &imports.Options{
		Comments:  true,
		TabIndent: true,
		TabWidth:  8,
	})
	if err != nil {
		return nil, fmt.Errorf("格式化失败: %w", err)
	}
	return out, nil
}

// WriteFormat 格式化后写入文件
// 文件已存在且内容一致时不写入，返回 changed=false
func WriteFormat(path string, src []byte) (changed bool, err error) {
	formatted, err := FormatSource(path, src)
	if err != nil {
		return false, err
	}

	if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, formatted) {
		return false, nil
	}

	// 确保目录存在
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("创建目录失败: %w", err)
	}
	if err := os.WriteFile(path, formatted, 0644); err != nil {
		return false, err
	}
	return true, nil
}
