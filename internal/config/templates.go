package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "local":
		return localTemplate, nil
	case "network":
		return networkTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const localTemplate = `[paths]
images = "images"

[tools]
imx-usb-loader = "imx-usb-loader"

[images]
barebox = "barebox-imx6.img"

[[targets]]
name = "imx6-board"

[targets.resource]
kind = "IMXUSBLoader"
busnum = 1
devnum = 2

[targets.driver]
kind = "IMXUSBDriver"
image = "barebox"
`

const networkTemplate = `[paths]
images = "images"

[images]
rk-loader = "rk3568_spl_loader.bin"
rk-main = "barebox-rk3568.img"

[ssh]
user = "lab"
key_path = "~/.ssh/id_ed25519"
timeout = "10s"
cache_dir = "/var/cache/usbboot"

[retry]
window = "3s"

[[targets]]
name = "rk3568-board"

[targets.resource]
kind = "NetworkRKUSBLoader"
host = "exporter-1"
busnum = 3
devnum = 7

[targets.driver]
kind = "RKUSBDriver"
image = "rk-main"
usb_loader = "rk-loader"
`
