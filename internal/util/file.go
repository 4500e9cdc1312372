package util

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"
)

// sniffLen net/http 内容嗅探最多看前 512 字节
const sniffLen = 512

// SniffUpload 按文件头判断上传内容的 MIME 类型，必须命中 allowed 中的前缀或完整类型。
// 返回的 reader 会重放已读取的头部，可直接交给存储层。
func SniffUpload(r io.Reader, allowed []string) (string, io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", nil, err
	}
	head = head[:n]

	mimeType := http.DetectContentType(head)
	for _, a := range allowed {
		if strings.HasPrefix(mimeType, a) {
			return mimeType, io.MultiReader(bytes.NewReader(head), r), nil
		}
	}
	return mimeType, nil, Validationf("file type %s is not accepted", mimeType)
}
