package testpdf

import (
	"bytes"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var disableConfigDir sync.Once

// Encrypt protects data with 128-bit RC4 under the given user password.
func Encrypt(data []byte, userPW string) ([]byte, error) {
	disableConfigDir.Do(api.DisableConfigDir)
	conf := model.NewRC4Configuration(userPW, userPW+"-owner", 128)
	conf.WriteObjectStream = false
	conf.WriteXRefStream = false
	var out bytes.Buffer
	if err := api.Encrypt(bytes.NewReader(data), &out, conf); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
