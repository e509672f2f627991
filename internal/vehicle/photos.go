package vehicle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PhotoStore 车辆照片存储。照片按 VIN 小写作为路径前缀归档，
// 车辆售出（从报表消失）时整组删除。
type PhotoStore interface {
	DeleteAll(ctx context.Context, vin string) error
}

// DirPhotoStore 本地目录实现：<root>/<vin 小写>/ 下存放该车全部照片。
type DirPhotoStore struct {
	root string
}

func NewDirPhotoStore(root string) *DirPhotoStore {
	return &DirPhotoStore{root: root}
}

func (s *DirPhotoStore) DeleteAll(ctx context.Context, vin string) error {
	if s == nil || s.root == "" {
		return fmt.Errorf("photo store root is empty")
	}
	vin = strings.ToLower(strings.TrimSpace(vin))
	if vin == "" {
		return fmt.Errorf("vin is empty")
	}
	dir := filepath.Join(s.root, vin)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}
	return os.RemoveAll(dir)
}
