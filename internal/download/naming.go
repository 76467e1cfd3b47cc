package download

import (
	"crypto/sha1"
	"encoding/hex"
	"path/filepath"
	"strconv"

	"github.com/shaiso/eggo/internal/fetch"
)

// DestinationName — стабильное имя объекта для источника.
//
// Префикс — хеш URL и флага распаковки, поэтому повторный запуск
// адресует тот же объект. При распаковке расширение архива отбрасывается.
func DestinationName(rawURL string, decompress bool) string {
	name, err := fetch.FileName(rawURL)
	if err != nil {
		name = "source"
	}
	if decompress {
		name = name[:len(name)-len(filepath.Ext(name))]
	}

	sum := sha1.Sum([]byte(rawURL + "\x00" + strconv.FormatBool(decompress)))
	return hex.EncodeToString(sum[:])[:12] + "-" + name
}
