package signal

import (
	"sort"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"
	"github.com/nao1215/aiaudit/internal/model"
)

// ExtractImagery inspects the EXIF metadata of image bodies. An image
// counts as an original photo when it carries a camera make or model.
func ExtractImagery(images [][]byte) model.ImagerySignals {
	var sig model.ImagerySignals
	makes := make(map[string]bool)

	for _, data := range images {
		if len(data) == 0 {
			continue
		}
		sig.ImagesChecked++

		cameraMake, ok := cameraFromEXIF(data)
		if !ok {
			continue
		}
		sig.OriginalPhotos++
		if cameraMake != "" {
			makes[cameraMake] = true
		}
	}

	for m := range makes {
		sig.CameraMakes = append(sig.CameraMakes, m)
	}
	sort.Strings(sig.CameraMakes)
	return sig
}

// cameraFromEXIF returns the camera make and whether a Make or Model tag
// was present.
func cameraFromEXIF(data []byte) (string, bool) {
	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil || rawExif == nil {
		return "", false
	}
	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return "", false
	}

	found := false
	cameraMake := ""
	for _, entry := range entries {
		switch entry.TagName {
		case "Make":
			found = true
			cameraMake = strings.TrimSpace(strings.Trim(entry.Formatted, "\x00"))
		case "Model":
			found = true
		}
	}
	return cameraMake, found
}
