package utils

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	FILE_EXT_SHP = ".shp"
	FILE_EXT_CPG = ".cpg"

	// 解压单个文件的大小上限
	MaxUnzipFileSize = 1 << 30
)

var (
	ErrNoShpInZip     = errors.New("no shp in zip")
	ErrInvalidArchive = errors.New("invalid zip archive")
)

func GetUniqSubDir(parentPath string) (path string, err error) {
	if parentPath == "" {
		parentPath = os.TempDir()
	}
	path = filepath.Join(parentPath, uuid.NewString())
	err = os.Mkdir(path, os.ModePerm)
	return
}

func GetFilenameWithoutExt(path string) (name string) {
	name = filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(path))
	return
}

// 解压zip数据到dstDir，返回解压出的文件路径（忽略目录项及macOS元数据）
func Unzip(data []byte, dstDir string) (files []string, err error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrInvalidArchive, err)
		return
	}
	root := filepath.Clean(dstDir) + string(os.PathSeparator)
	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() || strings.HasPrefix(zf.Name, "__MACOSX/") {
			continue
		}
		path := filepath.Join(dstDir, zf.Name)
		if !strings.HasPrefix(path, root) {
			err = fmt.Errorf("%w: illegal path %s", ErrInvalidArchive, zf.Name)
			return
		}
		if err = os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
			return
		}
		if err = extract(zf, path); err != nil {
			return
		}
		files = append(files, path)
	}
	return
}

func extract(zf *zip.File, path string) (err error) {
	rc, err := zf.Open()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	defer rc.Close()
	out, err := os.Create(path)
	if err != nil {
		return
	}
	defer func() {
		if e := out.Close(); err == nil {
			err = e
		}
	}()
	n, err := io.Copy(out, io.LimitReader(rc, MaxUnzipFileSize+1))
	if err == nil && n > MaxUnzipFileSize {
		err = fmt.Errorf("%w: %s too large", ErrInvalidArchive, zf.Name)
	}
	return
}

// 解压shp压缩包，返回首个shp文件路径及cpg声明的编码（无cpg时为空）
func GetShpInZip(data []byte, dstDir string) (path, cpg string, err error) {
	files, err := Unzip(data, dstDir)
	if err != nil {
		return
	}
	var shps []string
	for _, file := range files {
		switch strings.ToLower(filepath.Ext(file)) {
		case FILE_EXT_SHP:
			shps = append(shps, file)
		}
	}
	if len(shps) == 0 {
		err = ErrNoShpInZip
		return
	}
	path = shps[0]
	prefix := strings.TrimSuffix(path, filepath.Ext(path))
	for _, file := range files {
		if strings.EqualFold(file, prefix+FILE_EXT_CPG) {
			if enc, e := os.ReadFile(file); e == nil {
				cpg = strings.TrimSpace(string(enc))
			}
			break
		}
	}
	return
}

// 将文件打包为zip，包内只保留文件名
func ZipFiles(files []string) (data []byte, err error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, file := range files {
		if err = addToZip(zw, file); err != nil {
			zw.Close()
			return
		}
	}
	if err = zw.Close(); err != nil {
		return
	}
	data = buf.Bytes()
	return
}

func addToZip(zw *zip.Writer, file string) error {
	content, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	w, err := zw.CreateHeader(&zip.FileHeader{Name: filepath.Base(file), Method: zip.Deflate})
	if err != nil {
		return err
	}
	_, err = w.Write(content)
	return err
}
