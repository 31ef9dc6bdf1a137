package domain

import (
	"strings"
)

// FileUpload - файл, полученный из multipart-запроса и полностью прочитанный в память
type FileUpload struct {
	Name     string
	MIMEType string
	Size     int64
	Data     []byte
}

// Subtype возвращает часть MIME-типа после "/", используется как расширение
func (f *FileUpload) Subtype() string {
	if i := strings.IndexByte(f.MIMEType, '/'); i >= 0 {
		return f.MIMEType[i+1:]
	}
	return f.MIMEType
}

func (f *FileUpload) IsVideo() bool {
	return strings.HasPrefix(f.MIMEType, "video/")
}

func (f *FileUpload) IsImage() bool {
	return strings.HasPrefix(f.MIMEType, "image/")
}

// StoredObject - ссылка на объект во внешнем хранилище
type StoredObject struct {
	URL    string `json:"url"`
	FileID string `json:"file_id"`
}
