package tools

import (
	"encoding/json"
	"path/filepath"
	"strings"
)

// Prefix of the folder of the octree generated for each input file
const OctreeFolderPrefix = "octree-"

func FmtJSONString(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "marshal data fail"
	}
	return string(data)
}

func GetFilenameWithoutExtension(filePath string) string {
	nameWext := filepath.Base(filePath)
	return strings.TrimSuffix(nameWext, filepath.Ext(nameWext))
}

// Name of the folder holding the octree of the given input file
func OctreeFolderName(filePath string) string {
	return OctreeFolderPrefix + GetFilenameWithoutExtension(filePath)
}
